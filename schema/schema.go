// Package schema has the record model, policies and constants shared by every part of perftimeline.
package schema

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the textual form of a run timestamp in exports and sort keys.
const TimestampLayout = "2006-01-02 15:04:05"

// RunConfig holds the load shape reported by a single-run document.
// Every field is optional; nil means the source did not report it.
type RunConfig struct {
	Clients             *float64 `json:"clients,omitempty"`
	DurationSeconds     *float64 `json:"durationSeconds,omitempty"`
	OpenLoop            *bool    `json:"openLoop,omitempty"`
	MsgIntervalMs       *float64 `json:"msgIntervalMs,omitempty"`
	Inflight            *float64 `json:"inflight,omitempty"`
	BodyBytes           *float64 `json:"bodyBytes,omitempty"`
	SlowConsumerPct     *float64 `json:"slowConsumerPct,omitempty"`
	SlowConsumerDelayMs *float64 `json:"slowConsumerDelayMs,omitempty"`
	NoReadPct           *float64 `json:"noReadPct,omitempty"`
	FlapPct             *float64 `json:"flapPct,omitempty"`
	Reconnect           *bool    `json:"reconnect,omitempty"`
}

// RunMetrics holds measured and derived values of a run.
// Derived fields (rates, DeliveredPerSec) are nil whenever an operand is missing or a denominator is zero.
type RunMetrics struct {
	Attempted            *float64 `json:"attempted,omitempty"`
	AttemptedPerSec      *float64 `json:"attemptedPerSec,omitempty"`
	Sent                 *float64 `json:"sent,omitempty"`
	SentPerSec           *float64 `json:"sentPerSec,omitempty"`
	SkippedHard          *float64 `json:"skippedHard,omitempty"`
	AckSaved             *float64 `json:"ackSaved,omitempty"`
	AckSavedRate         *float64 `json:"ackSavedRate,omitempty"`
	RecvUnique           *float64 `json:"recvUnique,omitempty"`
	DeliveredPerSec      *float64 `json:"deliveredPerSec,omitempty"`
	DeliverRate          *float64 `json:"deliverRate,omitempty"`
	WSError              *float64 `json:"wsError,omitempty"`
	WSErrorRate          *float64 `json:"wsErrorRate,omitempty"`
	Dup                  *float64 `json:"dup,omitempty"`
	Reorder              *float64 `json:"reorder,omitempty"`
	ReorderByFrom        *float64 `json:"reorderByFrom,omitempty"`
	ReorderByServerMsgID *float64 `json:"reorderByServerMsgId,omitempty"`
	E2EInvalid           *float64 `json:"e2eInvalid,omitempty"`
	E2EP50Ms             *float64 `json:"e2eP50Ms,omitempty"`
	E2EP95Ms             *float64 `json:"e2eP95Ms,omitempty"`
	E2EP99Ms             *float64 `json:"e2eP99Ms,omitempty"`
}

// Anomaly is one contamination signal together with the value that triggered it.
type Anomaly struct {
	Kind  AnomalyKind `json:"kind"`
	Value *float64    `json:"value,omitempty"`
}

// String renders the anomaly as it appears in the flags column, e.g. "dup=3".
func (a Anomaly) String() string {
	if a.Value == nil {
		return string(a.Kind)
	}
	return string(a.Kind) + "=" + FormatNumber(*a.Value)
}

// NormalizedRecord is the canonical form of one input log file.
type NormalizedRecord struct {
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Scenario   Scenario   `json:"scenario"`
	SourcePath string     `json:"sourcePath"`
	Kind       SchemaKind `json:"schemaKind"`
	Config     RunConfig  `json:"config"`
	Metrics    RunMetrics `json:"metrics"`
	Milestones []string   `json:"milestones"`
	Anomalies  []Anomaly  `json:"anomalies,omitempty"`
}

// TimestampText returns the timestamp in TimestampLayout, or "" when absent.
func (r *NormalizedRecord) TimestampText() string {
	if r.Timestamp == nil {
		return ""
	}
	return r.Timestamp.Format(TimestampLayout)
}

// Contaminated reports whether the record carries any anomaly.
func (r *NormalizedRecord) Contaminated() bool {
	return len(r.Anomalies) > 0
}

// HasAnomaly reports whether the record carries an anomaly of the given kind.
func (r *NormalizedRecord) HasAnomaly(kind AnomalyKind) bool {
	for _, a := range r.Anomalies {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// FlagsText joins the anomalies with ";" for exports.
func (r *NormalizedRecord) FlagsText() string {
	parts := make([]string, 0, len(r.Anomalies))
	for _, a := range r.Anomalies {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ";")
}

// MilestonesText joins the milestone tags with ";" for exports.
func (r *NormalizedRecord) MilestonesText() string {
	return strings.Join(r.Milestones, ";")
}

// IsOpenLoop reports whether the run was explicitly open-loop.
func (r *NormalizedRecord) IsOpenLoop() bool {
	return r.Config.OpenLoop != nil && *r.Config.OpenLoop
}

// FormatNumber renders a float with the shortest exact representation ("5000", "0.4").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
