package outwriter

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

const (
	recordTableHeader = "| time | scenario | file | clients | dur(s) | interval(ms) | openLoop | offered msg/s | delivered msg/s | deliver% | ackSaved% | wsError% | E2E p50/p95/p99 | dup/reorder | flags | milestones |"
	recordTableAlign  = "|---|---|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---|---|---|---|"
)

// attributionNotes explain which change is most likely behind a movement in the numbers.
var attributionNotes = []string{
	"`ACK-EL` (ACK event-loop isolation): removes one event-loop queueing hop on the ACK(saved) return path. It usually improves `ackSaved%` and tightens the E2E percentiles together.",
	"`POSTDB` (tail-latency governance): most visible at P95/P99, but noisy or overloaded runs hide it behind other bottlenecks (DB queueing, write amplification, push path). Regress it with clean open-loop runs.",
	"`OPENLOOP+ACKBATCH`: open-loop load is a measurement change and not a server-side speedup. ACK batching mainly relieves delivered/read ACK pressure and is unlikely to show in SINGLE_E2E (ACK saved) runs.",
	"`BP` (slow-consumer backpressure): pays off in slow/noRead scenarios by bounding memory and latency. In normal runs it mostly means faster, controlled failure under overload rather than a lower P99.",
}

// mdDoc accumulates markdown lines.
type mdDoc struct {
	lines []string
}

func (d *mdDoc) add(format string, args ...any) {
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
}

func (d *mdDoc) blank() {
	d.lines = append(d.lines, "")
}

func (d *mdDoc) section(title string) {
	d.add("## %s", title)
	d.blank()
}

// writeTimelineMarkdown renders the narrative report.
func writeTimelineMarkdown(w io.Writer, result *schema.TimelineResult, cfg *contract.Config) error {
	doc := &mdDoc{}
	doc.add("# Single-chat performance timeline")
	doc.blank()
	doc.add("Generated from load-test logs so single-chat **latency, delivery throughput and error rate** can be compared over time.")
	doc.blank()

	if err := addComparison(doc, result, cfg); err != nil {
		return err
	}
	addMilestoneChanges(doc, result.Milestones)

	doc.section("Attribution notes")
	for _, note := range attributionNotes {
		doc.add("- %s", note)
	}
	doc.blank()

	addDataSources(doc, result, cfg)
	addGlossary(doc, cfg.Current)

	doc.section("Milestone tags")
	for _, m := range result.Milestones {
		doc.add("- %s: `%d`", m.Name, m.EffectiveKey)
	}
	doc.blank()

	doc.section("All records (ascending by time)")
	doc.add("%s", recordTableHeader)
	doc.add("%s", recordTableAlign)
	for _, rec := range result.Records {
		doc.add("%s", recordTableRow(rec))
	}

	_, err := io.WriteString(w, strings.Join(doc.lines, "\n")+"\n")
	return err
}

// addComparison writes the baseline vs current section.
func addComparison(doc *mdDoc, result *schema.TimelineResult, cfg *contract.Config) error {
	doc.section("Quick conclusion (comparable slice)")
	doc.add("To keep the comparison on one footing, two slices are contrasted:")
	doc.blank()
	doc.add("- Baseline (%s): the earliest matching record", describeSlice(cfg.Baseline))
	doc.add("- Current (%s): the **median** of every matching record", describeSlice(cfg.Current))
	doc.blank()

	if b := result.Baseline; b != nil {
		doc.add("- Baseline record: `%s`", b.SourcePath)
		doc.add("  - offered/sent≈%s msg/s, delivered≈%s msg/s, deliver≈%s, wsError≈%s, ackSaved≈%s",
			orMissing(formatFixed(offeredRate(b), 2)),
			orMissing(formatFixed(b.Metrics.DeliveredPerSec, 2)),
			orMissing(formatRatio(b.Metrics.DeliverRate)),
			orMissing(formatRatio(b.Metrics.WSErrorRate)),
			orMissing(formatRatio(b.Metrics.AckSavedRate)))
		doc.add("  - E2E p50/p95/p99: %s", formatLatencies(b.Metrics))
	} else {
		doc.add("- Baseline record: not found, no record matched %s", describeSlice(cfg.Baseline))
	}

	s := result.Summary
	label := loopLabel(cfg.Current.OpenLoop) + " clean"
	if s.Count > 0 {
		doc.add("- Current (%s, median, n=%d): offered≈%s msg/s, delivered≈%s msg/s, deliver≈%s, wsError≈%s, ackSaved≈%s",
			label, s.Count,
			orMissing(formatFixed(s.OfferedPerSec, 2)),
			orMissing(formatFixed(s.DeliveredPerSec, 2)),
			orMissing(formatPercent(s.DeliverPct)),
			orMissing(formatPercent(s.WSErrorPct)),
			orMissing(formatPercent(s.AckSavedPct)))
		doc.add("- Current (%s, median) E2E p50/p95/p99: %s/%s/%s",
			label, formatSeconds(s.E2EP50Sec), formatSeconds(s.E2EP95Sec), formatSeconds(s.E2EP99Sec))
	} else {
		doc.add("- Current (%s, median, n=0): not found, no record matched %s", label, describeSlice(cfg.Current))
	}
	doc.blank()

	table, err := renderComparisonTable(result)
	if err != nil {
		return err
	}
	doc.lines = append(doc.lines, table...)
	doc.blank()

	doc.add("Note: baseline vs current is not a strict A/B (some historical records lack msgIntervalMs/openLoop), but with a similar offered load it shows the trend. The full table and the CSV are authoritative.")
	doc.blank()
	return nil
}

// renderComparisonTable renders baseline vs current medians as a markdown table.
func renderComparisonTable(result *schema.TimelineResult) ([]string, error) {
	var baseline schema.RunMetrics
	var baselineOffered *float64
	if result.Baseline != nil {
		baseline = result.Baseline.Metrics
		baselineOffered = offeredRate(result.Baseline)
	}
	s := result.Summary

	var buf bytes.Buffer
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header([]string{"Metric", "Baseline", "Current (median)"})
	data := [][]string{
		{"offered msg/s", orMissing(formatFixed(baselineOffered, 2)), orMissing(formatFixed(s.OfferedPerSec, 2))},
		{"delivered msg/s", orMissing(formatFixed(baseline.DeliveredPerSec, 2)), orMissing(formatFixed(s.DeliveredPerSec, 2))},
		{"deliver%", orMissing(formatRatio(baseline.DeliverRate)), orMissing(formatPercent(s.DeliverPct))},
		{"wsError%", orMissing(formatRatio(baseline.WSErrorRate)), orMissing(formatPercent(s.WSErrorPct))},
		{"ackSaved%", orMissing(formatRatio(baseline.AckSavedRate)), orMissing(formatPercent(s.AckSavedPct))},
		{"E2E p50", formatMillis(baseline.E2EP50Ms), formatSeconds(s.E2EP50Sec)},
		{"E2E p95", formatMillis(baseline.E2EP95Ms), formatSeconds(s.E2EP95Sec)},
		{"E2E p99", formatMillis(baseline.E2EP99Ms), formatSeconds(s.E2EP99Sec)},
	}
	if err := table.Bulk(data); err != nil {
		return nil, err
	}
	if err := table.Render(); err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"), nil
}

// addMilestoneChanges lists the system changes the timeline is read against.
func addMilestoneChanges(doc *mdDoc, table schema.MilestoneTable) {
	doc.section("Milestone changes")
	for _, m := range table {
		doc.add("- `%d` %s: %s", m.EffectiveKey, m.Name, m.Description)
	}
	doc.blank()
}

// addDataSources reports what was scanned and what was produced.
func addDataSources(doc *mdDoc, result *schema.TimelineResult, cfg *contract.Config) {
	doc.section("Data sources")
	doc.add("- Scanned files: `%s/**/%s` (%d matched, %d records parsed: %d aggregate, %d single-run; %d parse failures)",
		cfg.RelToRoot(cfg.LogsPath()), contract.LogFilePattern,
		result.ScannedFiles, len(result.Records),
		result.CountByKind(schema.AggregateSchema), result.CountByKind(schema.SingleRunSchema),
		result.ParseErrors)
	doc.add("- Detail CSV: `%s`", cfg.RelToRoot(cfg.CSVPath()))
	doc.blank()
}

// addGlossary explains the columns of the record table.
func addGlossary(doc *mdDoc, current schema.SlicePolicy) {
	doc.section("Metric glossary")
	doc.add("- offered msg/s: rate the sender tried to send (attemptedPerSec for open-loop runs; close to sentPerSec for closed-loop runs)")
	doc.add("- delivered msg/s: receiver-side `recvUnique/durationSeconds` (unique messages observed by receivers only)")
	doc.add("- deliver%%: `recvUnique/sent` (above 100%% usually means **offline replay or stale-message contamination**; check `flags`)")
	doc.add("- wsError%%: `errors.wsError/sent` (share of sends that hit a WS ERROR; the acceptable ceiling is %s%%)", percentLimit(current.MaxWSErrorRate))
	doc.add("- E2E: `singleChat.e2eMs` as measured by the load script (milliseconds; the table shows p50/p95/p99 in seconds)")
	doc.blank()
}

// recordTableRow renders one record of the full table.
func recordTableRow(rec *schema.NormalizedRecord) string {
	c, m := rec.Config, rec.Metrics
	if rec.Kind == schema.AggregateSchema {
		return fmt.Sprintf("| %s | %s | `%s` |  |  | %s | %s | %s |  |  |  |  | %s |  | %s | %s |",
			rec.TimestampText(), rec.Scenario, rec.SourcePath,
			formatNumberCell(c.MsgIntervalMs), formatLoop(rec),
			formatNumberCell(offeredRate(rec)),
			formatLatencies(m), rec.FlagsText(), rec.MilestonesText())
	}

	dupReorder := ""
	if schema.Truthy(m.Dup) || schema.Truthy(m.Reorder) {
		dupReorder = fmt.Sprintf("dup=%s,reorder=%s", schema.FormatNumber(schema.ValueOrZero(m.Dup)), schema.FormatNumber(schema.ValueOrZero(m.Reorder)))
	}
	return fmt.Sprintf("| %s | %s | `%s` | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |",
		rec.TimestampText(), rec.Scenario, rec.SourcePath,
		formatNumberCell(c.Clients), formatNumberCell(c.DurationSeconds), formatNumberCell(c.MsgIntervalMs),
		formatLoop(rec),
		formatFixed(offeredRate(rec), 2), formatFixed(m.DeliveredPerSec, 2),
		formatRatio(m.DeliverRate), formatRatio(m.AckSavedRate), formatRatio(m.WSErrorRate),
		formatLatencies(m), dupReorder, rec.FlagsText(), rec.MilestonesText())
}

// describeSlice summarizes a slice policy in one line.
func describeSlice(p schema.SlicePolicy) string {
	parts := []string{
		string(p.Scenario),
		loopLabel(p.OpenLoop),
		schema.FormatNumber(p.Clients) + " clients",
	}
	if p.MsgIntervalMs != nil {
		parts = append(parts, "msgIntervalMs="+schema.FormatNumber(*p.MsgIntervalMs))
	}
	switch {
	case p.MinSentPerSec != nil && p.MaxSentPerSec != nil:
		parts = append(parts, fmt.Sprintf("sentPerSec %s~%s", schema.FormatNumber(*p.MinSentPerSec), schema.FormatNumber(*p.MaxSentPerSec)))
	case p.MinSentPerSec != nil:
		parts = append(parts, "sentPerSec≥"+schema.FormatNumber(*p.MinSentPerSec))
	case p.MaxSentPerSec != nil:
		parts = append(parts, "sentPerSec≤"+schema.FormatNumber(*p.MaxSentPerSec))
	}
	parts = append(parts,
		"wsError≤"+percentLimit(p.MaxWSErrorRate)+"%",
		"deliver≤"+percentLimit(p.MaxDeliverRate)+"%",
		"no contamination flags",
	)
	return strings.Join(parts, ", ")
}

func loopLabel(openLoop bool) string {
	if openLoop {
		return "open-loop"
	}
	return "closed-loop"
}

// percentLimit renders a 0..1 ceiling as a percentage without float noise, e.g. 0.05 -> "5".
func percentLimit(rate float64) string {
	return schema.FormatNumber(math.Round(rate*100*1e6) / 1e6)
}
