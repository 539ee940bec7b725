package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/perftimeline/schema"
)

// timelineCSVHeader is the fixed column order of the tabular export.
var timelineCSVHeader = []string{
	"ts",
	"scenario",
	"file",
	"schema",
	"openLoop",
	"clients",
	"durationSeconds",
	"msgIntervalMs",
	"inflight",
	"bodyBytes",
	"slowConsumerPct",
	"slowConsumerDelayMs",
	"noReadPct",
	"flapPct",
	"reconnect",
	"attempted",
	"attemptedPerSec",
	"sent",
	"sentPerSec",
	"skippedHard",
	"ackSaved",
	"ackSavedRate",
	"recvUnique",
	"deliveredPerSec",
	"deliverRate",
	"wsError",
	"wsErrorRate",
	"dup",
	"reorder",
	"reorderByFrom",
	"reorderByServerMsgId",
	"e2eInvalid",
	"e2e_p50_ms",
	"e2e_p95_ms",
	"e2e_p99_ms",
	"milestones",
	"flags",
}

// writeTimelineCSV writes one row per record in the order given.
func writeTimelineCSV(w io.Writer, records []*schema.NormalizedRecord) error {
	return writeCSVWithHeader(w, timelineCSVHeader, func(cw *csv.Writer) error {
		for _, rec := range records {
			if err := cw.Write(recordCSVRow(rec)); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// recordCSVRow flattens a record into timelineCSVHeader order. Absent values are empty cells.
func recordCSVRow(rec *schema.NormalizedRecord) []string {
	c, m := rec.Config, rec.Metrics
	return []string{
		rec.TimestampText(),
		string(rec.Scenario),
		rec.SourcePath,
		rec.Kind.ShortLabel(),
		formatBoolCell(c.OpenLoop),
		formatNumberCell(c.Clients),
		formatNumberCell(c.DurationSeconds),
		formatNumberCell(c.MsgIntervalMs),
		formatNumberCell(c.Inflight),
		formatNumberCell(c.BodyBytes),
		formatNumberCell(c.SlowConsumerPct),
		formatNumberCell(c.SlowConsumerDelayMs),
		formatNumberCell(c.NoReadPct),
		formatNumberCell(c.FlapPct),
		formatBoolCell(c.Reconnect),
		formatNumberCell(m.Attempted),
		formatNumberCell(m.AttemptedPerSec),
		formatNumberCell(m.Sent),
		formatNumberCell(m.SentPerSec),
		formatNumberCell(m.SkippedHard),
		formatNumberCell(m.AckSaved),
		formatNumberCell(m.AckSavedRate),
		formatNumberCell(m.RecvUnique),
		formatNumberCell(m.DeliveredPerSec),
		formatNumberCell(m.DeliverRate),
		formatNumberCell(m.WSError),
		formatNumberCell(m.WSErrorRate),
		formatNumberCell(m.Dup),
		formatNumberCell(m.Reorder),
		formatNumberCell(m.ReorderByFrom),
		formatNumberCell(m.ReorderByServerMsgID),
		formatNumberCell(m.E2EInvalid),
		formatNumberCell(m.E2EP50Ms),
		formatNumberCell(m.E2EP95Ms),
		formatNumberCell(m.E2EP99Ms),
		rec.MilestonesText(),
		rec.FlagsText(),
	}
}
