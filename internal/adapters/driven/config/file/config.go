// Package file loads the arcveil run configuration from a TOML file.
// Configuration is read once at startup; nothing is persisted back.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/teca-labs/arcveil/internal/core/domain"
)

// Duration unmarshals from a TOML string such as "30s" or "2m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the fully resolved run configuration.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	Lists    ListsConfig    `toml:"lists"`
	Backup   BackupConfig   `toml:"backup"`
	Authors  AuthorsConfig  `toml:"authors"`
	Run      RunConfig      `toml:"run"`
	Reports  ReportsConfig  `toml:"reports"`
}

// StoreConfig locates the graph store and the named graphs the run touches.
type StoreConfig struct {
	// Endpoint is the SPARQL endpoint URL, e.g.
	// http://localhost:9999/blazegraph/sparql.
	Endpoint string `toml:"endpoint"`

	// StructureGraphs hold the archival descriptions (records, record
	// sets). EnrichmentGraph holds the Title entities and their labels.
	// TechMetadataGraphs hold file-level technical metadata.
	StructureGraphs    []string `toml:"structure_graphs"`
	EnrichmentGraph    string   `toml:"enrichment_graph"`
	TechMetadataGraphs []string `toml:"tech_metadata_graphs"`

	// RequestTimeout bounds a single query or update. RatePerSecond caps
	// the request rate against the endpoint; zero disables the limiter.
	// MaxRetries is the retry budget per request beyond the first attempt.
	RequestTimeout Duration `toml:"request_timeout"`
	RatePerSecond  float64  `toml:"rate_per_second"`
	MaxRetries     int      `toml:"max_retries"`
}

// ListsConfig points at the externally curated name lists.
type ListsConfig struct {
	Blacklist string `toml:"blacklist"`
	Whitelist string `toml:"whitelist"`
}

// BackupConfig controls the pre-run journal snapshot.
type BackupConfig struct {
	JournalPath string `toml:"journal_path"`
	Dir         string `toml:"dir"`
	Retention   int    `toml:"retention"`
}

// AuthorsConfig tunes the author scan on protected entities.
type AuthorsConfig struct {
	// Authorised values are kept verbatim even when they look personal.
	Authorised []string `toml:"authorised"`

	// NeutralPatterns extends the built-in role/system pattern list.
	NeutralPatterns []string `toml:"neutral_patterns"`
}

// RunConfig holds pipeline execution knobs.
type RunConfig struct {
	Workers int    `toml:"workers"`
	LogFile string `toml:"log_file"`
}

// ReportsConfig locates the local run-history database.
type ReportsConfig struct {
	Database string `toml:"database"`
}

// Default returns a configuration with every knob at its default. The
// endpoint, graphs and journal path have no sensible defaults and must come
// from the file.
func Default() Config {
	return Config{
		Store: StoreConfig{
			RequestTimeout: Duration(60 * time.Second),
			RatePerSecond:  20,
			MaxRetries:     2,
		},
		Backup: BackupConfig{
			Dir:       "backups",
			Retention: 5,
		},
		Run: RunConfig{
			Workers: 8,
		},
		Reports: ReportsConfig{
			Database: "arcveil_runs.db",
		},
	}
}

// Load reads and validates the configuration file. If path is empty,
// ./arcveil.toml is tried.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "arcveil.toml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Name-list paths are resolved relative to the config file so the
	// whole bundle can live in one directory.
	base := filepath.Dir(path)
	cfg.Lists.Blacklist = resolve(base, cfg.Lists.Blacklist)
	cfg.Lists.Whitelist = resolve(base, cfg.Lists.Whitelist)
	cfg.Backup.Dir = resolve(base, cfg.Backup.Dir)
	cfg.Reports.Database = resolve(base, cfg.Reports.Database)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func (c *Config) validate() error {
	if c.Store.Endpoint == "" {
		return fmt.Errorf("store.endpoint is required")
	}
	if len(c.Store.StructureGraphs) == 0 {
		return fmt.Errorf("store.structure_graphs must name at least one graph")
	}
	if c.Store.EnrichmentGraph == "" {
		return fmt.Errorf("store.enrichment_graph is required")
	}
	if len(c.Store.TechMetadataGraphs) == 0 {
		return fmt.Errorf("store.tech_metadata_graphs must name at least one graph")
	}
	if c.Backup.JournalPath == "" {
		return fmt.Errorf("backup.journal_path is required")
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("run.workers must be at least 1, got %d", c.Run.Workers)
	}
	if c.Store.RequestTimeout <= 0 {
		return fmt.Errorf("store.request_timeout must be positive")
	}
	if c.Store.MaxRetries < 0 {
		return fmt.Errorf("store.max_retries must not be negative")
	}
	return nil
}

// AuthorPolicy builds the domain policy from the configured author lists,
// layering the configured neutral patterns on top of the built-in ones.
func (c *Config) AuthorPolicy() domain.AuthorPolicy {
	patterns := make([]string, 0, len(domain.DefaultNeutralPatterns)+len(c.Authors.NeutralPatterns))
	patterns = append(patterns, domain.DefaultNeutralPatterns...)
	patterns = append(patterns, c.Authors.NeutralPatterns...)

	return domain.AuthorPolicy{
		Authorised:      c.Authors.Authorised,
		NeutralPatterns: patterns,
	}
}
