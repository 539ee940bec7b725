// Package parquet exports normalized perf records to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/perftimeline/schema"
	"github.com/parquet-go/parquet-go"
)

// PerfRecord is one normalized log record in columnar form.
// Absent values map to null columns.
type PerfRecord struct {
	// Timestamp is the run time parsed from the path (nullable)
	Timestamp *time.Time `parquet:"ts,optional,snappy"`

	Scenario   string `parquet:"scenario,snappy"`
	SourcePath string `parquet:"file,snappy"`

	// Schema is "avg" for aggregate files and "run" for single runs
	Schema string `parquet:"schema,snappy"`

	OpenLoop            *bool    `parquet:"open_loop,optional,snappy"`
	Clients             *float64 `parquet:"clients,optional,snappy"`
	DurationSeconds     *float64 `parquet:"duration_seconds,optional,snappy"`
	MsgIntervalMs       *float64 `parquet:"msg_interval_ms,optional,snappy"`
	Inflight            *float64 `parquet:"inflight,optional,snappy"`
	BodyBytes           *float64 `parquet:"body_bytes,optional,snappy"`
	SlowConsumerPct     *float64 `parquet:"slow_consumer_pct,optional,snappy"`
	SlowConsumerDelayMs *float64 `parquet:"slow_consumer_delay_ms,optional,snappy"`
	NoReadPct           *float64 `parquet:"no_read_pct,optional,snappy"`
	FlapPct             *float64 `parquet:"flap_pct,optional,snappy"`
	Reconnect           *bool    `parquet:"reconnect,optional,snappy"`

	Attempted            *float64 `parquet:"attempted,optional,snappy"`
	AttemptedPerSec      *float64 `parquet:"attempted_per_sec,optional,snappy"`
	Sent                 *float64 `parquet:"sent,optional,snappy"`
	SentPerSec           *float64 `parquet:"sent_per_sec,optional,snappy"`
	SkippedHard          *float64 `parquet:"skipped_hard,optional,snappy"`
	AckSaved             *float64 `parquet:"ack_saved,optional,snappy"`
	AckSavedRate         *float64 `parquet:"ack_saved_rate,optional,snappy"`
	RecvUnique           *float64 `parquet:"recv_unique,optional,snappy"`
	DeliveredPerSec      *float64 `parquet:"delivered_per_sec,optional,snappy"`
	DeliverRate          *float64 `parquet:"deliver_rate,optional,snappy"`
	WSError              *float64 `parquet:"ws_error,optional,snappy"`
	WSErrorRate          *float64 `parquet:"ws_error_rate,optional,snappy"`
	Dup                  *float64 `parquet:"dup,optional,snappy"`
	Reorder              *float64 `parquet:"reorder,optional,snappy"`
	ReorderByFrom        *float64 `parquet:"reorder_by_from,optional,snappy"`
	ReorderByServerMsgID *float64 `parquet:"reorder_by_server_msg_id,optional,snappy"`
	E2EInvalid           *float64 `parquet:"e2e_invalid,optional,snappy"`
	E2EP50Ms             *float64 `parquet:"e2e_p50_ms,optional,snappy"`
	E2EP95Ms             *float64 `parquet:"e2e_p95_ms,optional,snappy"`
	E2EP99Ms             *float64 `parquet:"e2e_p99_ms,optional,snappy"`

	// Milestones and Flags are ";"-joined like the CSV export
	Milestones string `parquet:"milestones,snappy"`
	Flags      string `parquet:"flags,snappy"`
}

// ToParquetRecords converts normalized records for Parquet export.
func ToParquetRecords(records []*schema.NormalizedRecord) []PerfRecord {
	result := make([]PerfRecord, len(records))
	for i, rec := range records {
		c, m := rec.Config, rec.Metrics
		result[i] = PerfRecord{
			Timestamp:            rec.Timestamp,
			Scenario:             string(rec.Scenario),
			SourcePath:           rec.SourcePath,
			Schema:               rec.Kind.ShortLabel(),
			OpenLoop:             c.OpenLoop,
			Clients:              c.Clients,
			DurationSeconds:      c.DurationSeconds,
			MsgIntervalMs:        c.MsgIntervalMs,
			Inflight:             c.Inflight,
			BodyBytes:            c.BodyBytes,
			SlowConsumerPct:      c.SlowConsumerPct,
			SlowConsumerDelayMs:  c.SlowConsumerDelayMs,
			NoReadPct:            c.NoReadPct,
			FlapPct:              c.FlapPct,
			Reconnect:            c.Reconnect,
			Attempted:            m.Attempted,
			AttemptedPerSec:      m.AttemptedPerSec,
			Sent:                 m.Sent,
			SentPerSec:           m.SentPerSec,
			SkippedHard:          m.SkippedHard,
			AckSaved:             m.AckSaved,
			AckSavedRate:         m.AckSavedRate,
			RecvUnique:           m.RecvUnique,
			DeliveredPerSec:      m.DeliveredPerSec,
			DeliverRate:          m.DeliverRate,
			WSError:              m.WSError,
			WSErrorRate:          m.WSErrorRate,
			Dup:                  m.Dup,
			Reorder:              m.Reorder,
			ReorderByFrom:        m.ReorderByFrom,
			ReorderByServerMsgID: m.ReorderByServerMsgID,
			E2EInvalid:           m.E2EInvalid,
			E2EP50Ms:             m.E2EP50Ms,
			E2EP95Ms:             m.E2EP95Ms,
			E2EP99Ms:             m.E2EP99Ms,
			Milestones:           rec.MilestonesText(),
			Flags:                rec.FlagsText(),
		}
	}
	return result
}

// WriteRecordsParquet writes normalized records to a Parquet file.
func WriteRecordsParquet(records []*schema.NormalizedRecord, outputPath string) error {
	return WritePerfRecordsParquet(ToParquetRecords(records), outputPath)
}

// WritePerfRecordsParquet writes a slice of PerfRecord structs to a Parquet file.
func WritePerfRecordsParquet(data []PerfRecord, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the PerfRecord struct tags
	writer := parquet.NewGenericWriter[PerfRecord](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
