package outwriter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintTimelineSummary prints the comparable samples and their medians as a console table.
func PrintTimelineSummary(result *schema.TimelineResult, cfg *contract.Config, duration time.Duration) error {
	return writeTimelineSummary(os.Stdout, result, cfg, duration)
}

// writeTimelineSummary generates and writes the human-readable table.
func writeTimelineSummary(w io.Writer, result *schema.TimelineResult, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Slice", "Time", "File", "Offered", "Delivered", "Deliver%", "wsError%", "E2E p50/p95/p99", "Flags"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg)
	row := func(label string, rec *schema.NormalizedRecord) []string {
		return []string{
			label,
			orMissing(rec.TimestampText()),
			contract.TruncatePath(rec.SourcePath, pathWidth),
			orMissing(formatFixed(offeredRate(rec), 2)),
			orMissing(formatFixed(rec.Metrics.DeliveredPerSec, 2)),
			orMissing(formatRatio(rec.Metrics.DeliverRate)),
			orMissing(formatRatio(rec.Metrics.WSErrorRate)),
			formatLatencies(rec.Metrics),
			contract.ColorizeFlags(rec.FlagsText(), cfg.UseColors),
		}
	}

	var data [][]string
	if result.Baseline != nil {
		data = append(data, row(paint(contract.InfoColor, "baseline", cfg.UseColors), result.Baseline))
	}
	for _, rec := range result.Current {
		data = append(data, row(paint(contract.GoodColor, "current", cfg.UseColors), rec))
	}
	if s := result.Summary; s.Count > 0 {
		data = append(data, []string{
			paint(contract.GoodColor, "median", cfg.UseColors),
			missingValue,
			fmt.Sprintf("n=%d", s.Count),
			orMissing(formatFixed(s.OfferedPerSec, 2)),
			orMissing(formatFixed(s.DeliveredPerSec, 2)),
			orMissing(formatPercent(s.DeliverPct)),
			orMissing(formatPercent(s.WSErrorPct)),
			formatSeconds(s.E2EP50Sec) + "/" + formatSeconds(s.E2EP95Sec) + "/" + formatSeconds(s.E2EP99Sec),
			missingValue,
		})
	}

	if len(data) > 0 {
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if result.Baseline == nil {
		if _, err := fmt.Fprintln(w, paint(contract.WarnColor, "No baseline record matched the baseline slice", cfg.UseColors)); err != nil {
			return err
		}
	}
	if len(result.Current) == 0 {
		if _, err := fmt.Fprintln(w, paint(contract.WarnColor, "No current record matched the current slice", cfg.UseColors)); err != nil {
			return err
		}
	}

	samples := len(result.Current)
	if result.Baseline != nil {
		samples++
	}
	if _, err := fmt.Fprintf(w, "Showing %d comparable samples (records: %d, contaminated runs: %d)\n", samples, len(result.Records), result.CountContaminated()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Timeline built in %v. Archive backend: %s\n", duration.Round(time.Millisecond), cfg.ArchiveBackend); err != nil {
		return err
	}
	return nil
}

// writeRunStatus writes the machine-greppable status lines.
func writeRunStatus(w io.Writer, result *schema.TimelineResult, written []string, cfg *contract.Config) error {
	if _, err := fmt.Fprintf(w, "OK: parsed_files=%d records=%d parse_errors=%d\n", result.ScannedFiles, len(result.Records), result.ParseErrors); err != nil {
		return err
	}
	for _, path := range written {
		if _, err := fmt.Fprintf(w, "WROTE: %s\n", cfg.RelToRoot(path)); err != nil {
			return err
		}
	}
	return nil
}

// PrintMilestones prints the milestone table, as a console table or as markdown.
func PrintMilestones(w io.Writer, table schema.MilestoneTable, markdown bool) error {
	opts := []tablewriter.Option{}
	if markdown {
		opts = append(opts, tablewriter.WithRenderer(renderer.NewMarkdown()))
	}
	tbl := tablewriter.NewTable(w, opts...)
	tbl.Header([]string{"Key", "Effective", "Name", "Description"})

	var data [][]string
	for _, m := range table {
		data = append(data, []string{
			fmt.Sprintf("%d", m.EffectiveKey),
			milestoneTime(m.EffectiveKey),
			m.Name,
			m.Description,
		})
	}
	if err := tbl.Bulk(data); err != nil {
		return err
	}
	return tbl.Render()
}

// milestoneTime renders a YYYYMMDDHHMM key as "2006-01-02 15:04", or "-" when it is not a valid time.
func milestoneTime(key int64) string {
	t, err := time.Parse(schema.MilestoneKeyLayout, fmt.Sprintf("%012d", key))
	if err != nil {
		return missingValue
	}
	return t.Format("2006-01-02 15:04")
}

// paint colors s when colors are enabled.
func paint(c *color.Color, s string, useColors bool) string {
	if !useColors {
		return s
	}
	return c.Sprint(s)
}
