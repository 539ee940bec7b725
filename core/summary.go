package core

import (
	"github.com/huangsam/perftimeline/core/algo"
	"github.com/huangsam/perftimeline/schema"
)

// SummarizeSamples computes medians over a sample set. Each metric only uses the
// samples that report it, so a metric nobody reports stays nil.
func SummarizeSamples(samples []*schema.NormalizedRecord) schema.SampleSummary {
	var offered, delivered, deliverPct, wsErrPct, ackSavedPct, p50, p95, p99 []float64
	collect := func(dst *[]float64, v *float64) {
		if v != nil {
			*dst = append(*dst, *v)
		}
	}
	for _, rec := range samples {
		m := rec.Metrics
		collect(&offered, schema.Coalesce(m.AttemptedPerSec, m.SentPerSec))
		collect(&delivered, m.DeliveredPerSec)
		collect(&deliverPct, schema.Scale(m.DeliverRate, 100))
		collect(&wsErrPct, schema.Scale(m.WSErrorRate, 100))
		collect(&ackSavedPct, schema.Scale(m.AckSavedRate, 100))
		collect(&p50, schema.Scale(m.E2EP50Ms, 0.001))
		collect(&p95, schema.Scale(m.E2EP95Ms, 0.001))
		collect(&p99, schema.Scale(m.E2EP99Ms, 0.001))
	}
	return schema.SampleSummary{
		Count:           len(samples),
		OfferedPerSec:   algo.MedianPtr(offered),
		DeliveredPerSec: algo.MedianPtr(delivered),
		DeliverPct:      algo.MedianPtr(deliverPct),
		WSErrorPct:      algo.MedianPtr(wsErrPct),
		AckSavedPct:     algo.MedianPtr(ackSavedPct),
		E2EP50Sec:       algo.MedianPtr(p50),
		E2EP95Sec:       algo.MedianPtr(p95),
		E2EP99Sec:       algo.MedianPtr(p99),
	}
}
