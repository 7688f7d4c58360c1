// Package printer renders run summaries and history tables for the
// terminal.
package printer

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/teca-labs/arcveil/internal/core/domain"
)

func init() {
	// Force colour output even when not connected to a TTY.
	// Users can disable with the NO_COLOR environment variable.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

// Success prints a success message in green.
func Success(format string, a ...any) {
	green.Printf("✓ "+format+"\n", a...)
}

// Warning prints a warning message in yellow.
func Warning(format string, a ...any) {
	yellow.Printf("⚠ "+format+"\n", a...)
}

// Failure prints a failure message in red to stderr.
func Failure(format string, a ...any) {
	red.Fprintf(os.Stderr, "✗ "+format+"\n", a...)
}

// Summary renders the counters of one run as a two-column table.
func Summary(w io.Writer, report *domain.RunReport) {
	table := newTable(w, []string{"Metric", "Value"})
	table.Append([]string{"Run ID", report.ID})
	table.Append([]string{"Duration", report.Duration().Round(time.Second).String()})
	table.Append([]string{"Backup skipped", strconv.FormatBool(report.BackupSkipped)})
	table.Append([]string{"Entities anonymised", strconv.Itoa(report.Anonymised)})
	table.Append([]string{"Entities protected", strconv.Itoa(report.Protected)})
	table.Append([]string{"Titles redacted", strconv.Itoa(report.TitlesRedacted)})
	table.Append([]string{"Instantiations redacted", strconv.Itoa(report.InstantiationsRedacted)})
	table.Append([]string{"Titles repaired", strconv.Itoa(report.TitlesRepaired)})
	table.Append([]string{"Authors redacted", strconv.Itoa(report.AuthorsRedacted)})
	table.Append([]string{"Write failures", strconv.Itoa(report.WriteFailures)})
	table.Append([]string{"Protected-field anomalies", strconv.Itoa(report.ProtectedFieldAnomalies)})
	table.Append([]string{"Work-link anomalies", strconv.Itoa(report.WorkLinkAnomalies)})
	table.Render()
}

// History renders a list of past runs, newest first.
func History(w io.Writer, reports []domain.RunReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return
	}
	table := newTable(w, []string{"Run ID", "Started", "Duration", "Anonymised", "Protected", "Repaired", "Outcome"})
	for _, r := range reports {
		outcome := "ok"
		if !r.Succeeded() {
			outcome = "FAILED"
		}
		table.Append([]string{
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Duration().Round(time.Second).String(),
			strconv.Itoa(r.Anonymised),
			strconv.Itoa(r.Protected),
			strconv.Itoa(r.TitlesRepaired),
			outcome,
		})
	}
	table.Render()
}

// Backups renders the available backup files, newest first.
func Backups(w io.Writer, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(w, "No backups found.")
		return
	}
	table := newTable(w, []string{"#", "Backup"})
	for i, path := range paths {
		table.Append([]string{strconv.Itoa(i + 1), path})
	}
	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}
