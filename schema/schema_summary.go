package schema

// SlicePolicy describes a "comparable slice": the load shape and contamination limits
// a single-run record must satisfy to be compared against others.
type SlicePolicy struct {
	Scenario       Scenario `json:"scenario"`
	Clients        float64  `json:"clients"`
	OpenLoop       bool     `json:"openLoop"`
	MsgIntervalMs  *float64 `json:"msgIntervalMs,omitempty"` // nil means any interval
	MinSentPerSec  *float64 `json:"minSentPerSec,omitempty"` // when set, sentPerSec must be present
	MaxSentPerSec  *float64 `json:"maxSentPerSec,omitempty"` // when set, sentPerSec must be present
	MaxWSErrorRate float64  `json:"maxWsErrorRate"`          // absent rate compares as 0
	MaxDeliverRate float64  `json:"maxDeliverRate"`          // absent rate compares as 0
}

// MaxWSErrorRate is the websocket error ceiling shared by both default slices.
const MaxWSErrorRate = 0.05

// DefaultBaselinePolicy is the closed-loop 5000-client window around 750 msg/s.
func DefaultBaselinePolicy() SlicePolicy {
	return SlicePolicy{
		Scenario:       ClusterScenario,
		Clients:        5000,
		OpenLoop:       false,
		MinSentPerSec:  Float64Ptr(700),
		MaxSentPerSec:  Float64Ptr(800),
		MaxWSErrorRate: MaxWSErrorRate,
		MaxDeliverRate: OverDeliveryThreshold,
	}
}

// DefaultCurrentPolicy is the open-loop 5000-client run at one message per 3s per client.
func DefaultCurrentPolicy() SlicePolicy {
	return SlicePolicy{
		Scenario:       ClusterScenario,
		Clients:        5000,
		OpenLoop:       true,
		MsgIntervalMs:  Float64Ptr(3000),
		MaxWSErrorRate: MaxWSErrorRate,
		MaxDeliverRate: OverDeliveryThreshold,
	}
}

// SampleSummary holds medians over a sample set. Nil fields mean no sample reported the metric.
type SampleSummary struct {
	Count           int      `json:"count"`
	OfferedPerSec   *float64 `json:"offeredPerSec,omitempty"`
	DeliveredPerSec *float64 `json:"deliveredPerSec,omitempty"`
	DeliverPct      *float64 `json:"deliverPct,omitempty"`
	WSErrorPct      *float64 `json:"wsErrorPct,omitempty"`
	AckSavedPct     *float64 `json:"ackSavedPct,omitempty"`
	E2EP50Sec       *float64 `json:"e2eP50Sec,omitempty"`
	E2EP95Sec       *float64 `json:"e2eP95Sec,omitempty"`
	E2EP99Sec       *float64 `json:"e2eP99Sec,omitempty"`
}

// TimelineResult is everything one pipeline pass produces before rendering.
type TimelineResult struct {
	ScannedFiles int                 `json:"scannedFiles"`
	ParseErrors  int                 `json:"parseErrors"`
	Records      []*NormalizedRecord `json:"records"`
	Baseline     *NormalizedRecord   `json:"baseline,omitempty"`
	Current      []*NormalizedRecord `json:"current"`
	Summary      SampleSummary       `json:"summary"`
	Milestones   MilestoneTable      `json:"milestones"`
}

// CountByKind returns how many records were produced for the given schema.
func (r *TimelineResult) CountByKind(kind SchemaKind) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Kind == kind {
			n++
		}
	}
	return n
}

// CountContaminated returns the number of single runs that carry an anomaly.
// Aggregate files always carry the avg-file flag and are not counted.
func (r *TimelineResult) CountContaminated() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Kind == SingleRunSchema && rec.Contaminated() {
			n++
		}
	}
	return n
}
