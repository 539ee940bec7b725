package schema

import "time"

// MilestoneKeyLayout compresses a timestamp to minute resolution (YYYYMMDDHHMM).
const MilestoneKeyLayout = "200601021504"

// Milestone is a named system change that is considered active from EffectiveKey onward.
type Milestone struct {
	EffectiveKey int64  `json:"effectiveKey"` // YYYYMMDDHHMM, inclusive lower bound
	Name         string `json:"name"`
	Description  string `json:"description"`
}

// MilestoneTable is an ordered list of milestones sorted by EffectiveKey.
// Tables are treated as immutable once built.
type MilestoneTable []Milestone

// DefaultMilestones returns a fresh copy of the built-in milestone table.
func DefaultMilestones() MilestoneTable {
	return MilestoneTable{
		{EffectiveKey: 202601090120, Name: "BP", Description: "slow-consumer backpressure"},
		{EffectiveKey: 202601121939, Name: "ACK-EL", Description: "ACK event-loop isolation"},
		{EffectiveKey: 202601131424, Name: "POSTDB", Description: "tail-latency governance with post-DB offload"},
		{EffectiveKey: 202601131631, Name: "OPENLOOP+ACKBATCH", Description: "fixed-rate open-loop load and delivered/read ACK batching"},
		{EffectiveKey: 202601150002, Name: "ENSUREMEM", Description: "single-chat membership check moved off the hot path"},
	}
}

// MinuteKey compresses t to its YYYYMMDDHHMM integer key.
func MinuteKey(t time.Time) int64 {
	y, mo, d := t.Date()
	return int64(y)*100000000 + int64(mo)*1000000 + int64(d)*10000 + int64(t.Hour())*100 + int64(t.Minute())
}
