package core

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/huangsam/perftimeline/schema"
)

// latencyPayload is the e2eMs object shared by both schemas.
type latencyPayload struct {
	P50 *float64 `json:"p50"`
	P95 *float64 `json:"p95"`
	P99 *float64 `json:"p99"`
}

// aggregatePayload is the multi-repeat summary written by the repeat runner.
type aggregatePayload struct {
	SentPerSecAvg      *float64        `json:"sentPerSecAvg"`
	AttemptedPerSecAvg *float64        `json:"attemptedPerSecAvg"`
	WSErrorAvg         *float64        `json:"wsErrorAvg"`
	E2EInvalidAvg      *float64        `json:"e2eInvalidAvg"`
	OpenLoop           json.RawMessage `json:"openLoop"`
	MsgIntervalMs      *float64        `json:"msgIntervalMs"`
	E2EMs              latencyPayload  `json:"e2eMs"`
}

// singleRunPayload is one SINGLE_E2E execution.
type singleRunPayload struct {
	Clients             *float64        `json:"clients"`
	DurationSeconds     *float64        `json:"durationSeconds"`
	OpenLoop            json.RawMessage `json:"openLoop"`
	MsgIntervalMs       *float64        `json:"msgIntervalMs"`
	Inflight            *float64        `json:"inflight"`
	BodyBytes           *float64        `json:"bodyBytes"`
	SlowConsumerPct     *float64        `json:"slowConsumerPct"`
	SlowConsumerDelayMs *float64        `json:"slowConsumerDelayMs"`
	NoReadPct           *float64        `json:"noReadPct"`
	FlapPct             *float64        `json:"flapPct"`
	Reconnect           json.RawMessage `json:"reconnect"`
	Errors              struct {
		WSError *float64 `json:"wsError"`
	} `json:"errors"`
	SingleChat singleChatPayload `json:"singleChat"`
}

// singleChatPayload holds the per-run measurements.
type singleChatPayload struct {
	Attempted            *float64       `json:"attempted"`
	AttemptedPerSec      *float64       `json:"attemptedPerSec"`
	Sent                 *float64       `json:"sent"`
	SentPerSec           *float64       `json:"sentPerSec"`
	SkippedHard          *float64       `json:"skippedHard"`
	AckSaved             *float64       `json:"ackSaved"`
	RecvUnique           *float64       `json:"recvUnique"`
	Recv                 *float64       `json:"recv"`
	Dup                  *float64       `json:"dup"`
	Reorder              *float64       `json:"reorder"`
	ReorderByFrom        *float64       `json:"reorderByFrom"`
	ReorderByServerMsgID *float64       `json:"reorderByServerMsgId"`
	E2EInvalid           *float64       `json:"e2eInvalid"`
	E2EMs                latencyPayload `json:"e2eMs"`
}

// NormalizeFile turns the raw bytes of one log file into a record.
// relPath is the slash-separated path relative to the scan root.
// It returns ErrUndecodable for unreadable content and ErrNotCandidate for unrelated JSON.
func NormalizeFile(relPath string, raw []byte, table schema.MilestoneTable) (*schema.NormalizedRecord, error) {
	doc, err := LoadDocument(raw)
	if err != nil {
		return nil, err
	}
	kind, err := DetectSchema(doc.Value)
	if err != nil {
		return nil, err
	}

	ts := ExtractTimestamp(relPath)
	rec := &schema.NormalizedRecord{
		Timestamp:  ts,
		Scenario:   ClassifyScenario(relPath),
		SourcePath: relPath,
		Kind:       kind,
		Milestones: TagMilestones(ts, table),
	}

	switch kind {
	case schema.AggregateSchema:
		err = normalizeAggregate(doc.Text, rec)
	case schema.SingleRunSchema:
		err = normalizeSingleRun(doc.Text, rec)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// normalizeAggregate maps averaged fields; per-run configuration stays absent.
func normalizeAggregate(text []byte, rec *schema.NormalizedRecord) error {
	var p aggregatePayload
	if err := decodePayload(text, &p); err != nil {
		return err
	}
	rec.Config = schema.RunConfig{
		OpenLoop:      looseBool(p.OpenLoop),
		MsgIntervalMs: p.MsgIntervalMs,
	}
	rec.Metrics = schema.RunMetrics{
		AttemptedPerSec: p.AttemptedPerSecAvg,
		SentPerSec:      p.SentPerSecAvg,
		WSError:         p.WSErrorAvg,
		E2EInvalid:      p.E2EInvalidAvg,
		E2EP50Ms:        p.E2EMs.P50,
		E2EP95Ms:        p.E2EMs.P95,
		E2EP99Ms:        p.E2EMs.P99,
	}
	rec.Anomalies = []schema.Anomaly{{Kind: schema.AveragedFileAnomaly}}
	return nil
}

// normalizeSingleRun maps configuration from the top level and measurements from singleChat.
// attempted falls back to sent, attemptedPerSec to sentPerSec, and recvUnique to recv.
// A missing openLoop means the run was closed-loop.
func normalizeSingleRun(text []byte, rec *schema.NormalizedRecord) error {
	var p singleRunPayload
	if err := decodePayload(text, &p); err != nil {
		return err
	}
	openLoop := looseBool(p.OpenLoop)
	if openLoop == nil {
		openLoop = schema.BoolPtr(false)
	}
	rec.Config = schema.RunConfig{
		Clients:             p.Clients,
		DurationSeconds:     p.DurationSeconds,
		OpenLoop:            openLoop,
		MsgIntervalMs:       p.MsgIntervalMs,
		Inflight:            p.Inflight,
		BodyBytes:           p.BodyBytes,
		SlowConsumerPct:     p.SlowConsumerPct,
		SlowConsumerDelayMs: p.SlowConsumerDelayMs,
		NoReadPct:           p.NoReadPct,
		FlapPct:             p.FlapPct,
		Reconnect:           looseBool(p.Reconnect),
	}

	sc := p.SingleChat
	rec.Metrics = schema.RunMetrics{
		Attempted:            schema.Coalesce(sc.Attempted, sc.Sent),
		AttemptedPerSec:      schema.Coalesce(sc.AttemptedPerSec, sc.SentPerSec),
		Sent:                 sc.Sent,
		SentPerSec:           sc.SentPerSec,
		SkippedHard:          sc.SkippedHard,
		AckSaved:             sc.AckSaved,
		RecvUnique:           schema.Coalesce(sc.RecvUnique, sc.Recv),
		WSError:              p.Errors.WSError,
		Dup:                  sc.Dup,
		Reorder:              sc.Reorder,
		ReorderByFrom:        sc.ReorderByFrom,
		ReorderByServerMsgID: sc.ReorderByServerMsgID,
		E2EInvalid:           sc.E2EInvalid,
		E2EP50Ms:             sc.E2EMs.P50,
		E2EP95Ms:             sc.E2EMs.P95,
		E2EP99Ms:             sc.E2EMs.P99,
	}
	deriveRunMetrics(rec.Config, &rec.Metrics)
	rec.Anomalies = detectAnomalies(rec.Metrics)
	return nil
}

// decodePayload fills v from text. Fields of the wrong JSON type are left absent.
func decodePayload(text []byte, v any) error {
	err := json.Unmarshal(text, v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

// looseBool reads a flag written as a JSON bool, number or boolean string.
// Anything else, including null, is absent.
func looseBool(raw json.RawMessage) *bool {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case bool:
		return schema.BoolPtr(t)
	case float64:
		return schema.BoolPtr(t != 0)
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil
		}
		return schema.BoolPtr(b)
	default:
		return nil
	}
}
