package archive

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/huangsam/perftimeline/schema"
)

// PrintArchiveStatus prints archive status information.
func PrintArchiveStatus(status schema.ArchiveStatus) {
	writeArchiveStatus(os.Stdout, status)
}

func writeArchiveStatus(w io.Writer, status schema.ArchiveStatus) {
	_, _ = fmt.Fprintf(w, "Archive Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %s\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format(schema.TimestampLayout))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Format(schema.TimestampLayout))
		baseline := status.LastBaseline
		if baseline == "" {
			baseline = "not found"
		}
		_, _ = fmt.Fprintf(w, "Last Baseline: %s\n", baseline)
		_, _ = fmt.Fprintf(w, "Last Current Samples: %d\n", status.LastCurrentCnt)
		_, _ = fmt.Fprintf(w, "Total Records: %d\n", status.TotalRecords)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
