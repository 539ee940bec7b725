package core

import (
	"sort"

	"github.com/huangsam/perftimeline/schema"
)

// MatchesSlice reports whether rec belongs to the comparable slice described by policy.
// Absent error and delivery rates compare as 0; a constrained sentPerSec must be present.
func MatchesSlice(rec *schema.NormalizedRecord, policy schema.SlicePolicy) bool {
	if rec.Kind != schema.SingleRunSchema || rec.Scenario != policy.Scenario {
		return false
	}
	if rec.Config.Clients == nil || *rec.Config.Clients != policy.Clients {
		return false
	}
	if rec.IsOpenLoop() != policy.OpenLoop {
		return false
	}
	if policy.MsgIntervalMs != nil && (rec.Config.MsgIntervalMs == nil || *rec.Config.MsgIntervalMs != *policy.MsgIntervalMs) {
		return false
	}
	if rec.Contaminated() {
		return false
	}
	if policy.MinSentPerSec != nil || policy.MaxSentPerSec != nil {
		sent := rec.Metrics.SentPerSec
		if sent == nil {
			return false
		}
		if policy.MinSentPerSec != nil && *sent < *policy.MinSentPerSec {
			return false
		}
		if policy.MaxSentPerSec != nil && *sent > *policy.MaxSentPerSec {
			return false
		}
	}
	if schema.ValueOrZero(rec.Metrics.WSErrorRate) > policy.MaxWSErrorRate {
		return false
	}
	return schema.ValueOrZero(rec.Metrics.DeliverRate) <= policy.MaxDeliverRate
}

// SelectBaseline returns the earliest matching record, or nil when none matches.
// Records are ordered by timestamp text then path, so records without a timestamp come first.
func SelectBaseline(records []*schema.NormalizedRecord, policy schema.SlicePolicy) *schema.NormalizedRecord {
	var best *schema.NormalizedRecord
	for _, rec := range records {
		if !MatchesSlice(rec, policy) {
			continue
		}
		if best == nil || recordLess(rec, best) {
			best = rec
		}
	}
	return best
}

// SelectCurrent returns every matching record in input order. The result is never nil.
func SelectCurrent(records []*schema.NormalizedRecord, policy schema.SlicePolicy) []*schema.NormalizedRecord {
	out := []*schema.NormalizedRecord{}
	for _, rec := range records {
		if MatchesSlice(rec, policy) {
			out = append(out, rec)
		}
	}
	return out
}

// SortRecords orders records by (timestamp text, source path) ascending in place.
func SortRecords(records []*schema.NormalizedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return recordLess(records[i], records[j])
	})
}

func recordLess(a, b *schema.NormalizedRecord) bool {
	ta, tb := a.TimestampText(), b.TimestampText()
	if ta != tb {
		return ta < tb
	}
	return a.SourcePath < b.SourcePath
}
