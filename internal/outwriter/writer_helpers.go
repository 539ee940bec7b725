package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
)

// missingValue stands in for an absent value in narrative text.
const missingValue = "-"

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// An empty outputFile writes to stdout.
func writeWithFile(outputFile string, writer func(io.Writer) error) (err error) {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() {
			if cerr := file.Close(); err == nil {
				err = cerr
			}
		}()
	}
	return writer(file)
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// formatNumberCell renders a present number exactly, an absent one as "".
func formatNumberCell(v *float64) string {
	if v == nil {
		return ""
	}
	return schema.FormatNumber(*v)
}

// formatBoolCell renders a present flag as true/false, an absent one as "".
func formatBoolCell(v *bool) string {
	if v == nil {
		return ""
	}
	if *v {
		return "true"
	}
	return "false"
}

// formatFixed renders a present number with the given precision, an absent one as "".
func formatFixed(v *float64, precision int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.*f", precision, *v)
}

// formatRatio renders a 0..1 ratio as a percentage with 2 decimals, e.g. "98.50%".
func formatRatio(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// formatPercent renders a value that is already a percentage, e.g. "98.50%".
func formatPercent(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// formatMillis renders a latency in milliseconds as seconds with 3 decimals, e.g. "0.150s".
func formatMillis(ms *float64) string {
	return formatSeconds(schema.Scale(ms, 0.001))
}

// formatSeconds renders a latency in seconds with 3 decimals, or "-" when absent.
func formatSeconds(sec *float64) string {
	if sec == nil {
		return missingValue
	}
	return fmt.Sprintf("%.3fs", *sec)
}

// orMissing substitutes missingValue for an empty cell.
func orMissing(s string) string {
	if s == "" {
		return missingValue
	}
	return s
}

// formatLoop renders the open-loop flag as Y/N.
func formatLoop(rec *schema.NormalizedRecord) string {
	if rec.IsOpenLoop() {
		return "Y"
	}
	return "N"
}

// formatLatencies renders p50/p95/p99 of a record in seconds.
func formatLatencies(m schema.RunMetrics) string {
	return formatMillis(m.E2EP50Ms) + "/" + formatMillis(m.E2EP95Ms) + "/" + formatMillis(m.E2EP99Ms)
}

// offeredRate is the load the sender tried to push for a record.
// Open-loop runs report it as attemptedPerSec, closed-loop runs as sentPerSec.
func offeredRate(rec *schema.NormalizedRecord) *float64 {
	if rec.Kind == schema.AggregateSchema {
		return schema.Coalesce(rec.Metrics.SentPerSec, rec.Metrics.AttemptedPerSec)
	}
	if rec.IsOpenLoop() {
		return rec.Metrics.AttemptedPerSec
	}
	return rec.Metrics.SentPerSec
}
