// Command arcveil anonymises the archive graph store: it classifies every
// Record and RecordSet against the curated name lists, rewrites the personal
// data of anonymised entities to a fixed placeholder, and verifies the
// result, all behind a checksum-verified journal backup.
package main

import (
	"fmt"
	"os"

	configfile "github.com/teca-labs/arcveil/internal/adapters/driven/config/file"
	"github.com/teca-labs/arcveil/internal/adapters/driven/namelist"
	"github.com/teca-labs/arcveil/internal/adapters/driven/reports/sqlite"
	"github.com/teca-labs/arcveil/internal/adapters/driven/sparql"
	"github.com/teca-labs/arcveil/internal/adapters/driving/cli"
	"github.com/teca-labs/arcveil/internal/backup"
	"github.com/teca-labs/arcveil/internal/core/services"
	"github.com/teca-labs/arcveil/internal/logger"
)

// version is injected at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap builds the service graph from the configuration file and hands
// it to the CLI.
func bootstrap(configPath string) error {
	cfg, err := configfile.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Run.LogFile != "" && !logger.HasLogFile() {
		if err := logger.OpenLogFile(cfg.Run.LogFile); err != nil {
			return err
		}
	}

	blacklist, err := namelist.Load(cfg.Lists.Blacklist)
	if err != nil {
		return fmt.Errorf("blacklist: %w", err)
	}
	whitelist, err := namelist.Load(cfg.Lists.Whitelist)
	if err != nil {
		return fmt.Errorf("whitelist: %w", err)
	}

	client := sparql.NewClient(cfg.Store.Endpoint, cfg.Store.RequestTimeout.Std(),
		sparql.WithRateLimit(cfg.Store.RatePerSecond),
		sparql.WithMaxRetries(uint64(cfg.Store.MaxRetries)))
	store := sparql.NewStore(client, sparql.Graphs{
		Structure:    cfg.Store.StructureGraphs,
		Enrichment:   cfg.Store.EnrichmentGraph,
		TechMetadata: cfg.Store.TechMetadataGraphs,
	})

	guardian := backup.NewGuardian(cfg.Backup.JournalPath, cfg.Backup.Dir,
		backup.WithRetention(cfg.Backup.Retention))

	runs, err := sqlite.NewStore(cfg.Reports.Database)
	if err != nil {
		return fmt.Errorf("run history: %w", err)
	}

	pipeline := services.NewPipelineService(store, guardian, blacklist, whitelist,
		runs, cfg.AuthorPolicy(), cfg.Run.Workers)

	cli.Configure(pipeline, guardian, runs)
	return nil
}
