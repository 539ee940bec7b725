package core

import "github.com/huangsam/perftimeline/schema"

// deriveRunMetrics fills the rate fields. Each stays nil unless both operands are
// present and the denominator is non-zero.
func deriveRunMetrics(cfg schema.RunConfig, m *schema.RunMetrics) {
	m.DeliveredPerSec = schema.Ratio(m.RecvUnique, cfg.DurationSeconds)
	m.DeliverRate = schema.Ratio(m.RecvUnique, m.Sent)
	m.AckSavedRate = schema.Ratio(m.AckSaved, m.Sent)
	m.WSErrorRate = schema.Ratio(m.WSError, m.Sent)
}

// detectAnomalies lists the contamination signals of a single run, in a fixed order.
func detectAnomalies(m schema.RunMetrics) []schema.Anomaly {
	var out []schema.Anomaly
	if m.DeliverRate != nil && *m.DeliverRate > schema.OverDeliveryThreshold {
		out = append(out, schema.Anomaly{Kind: schema.OverDeliveryAnomaly})
	}
	valued := []struct {
		kind  schema.AnomalyKind
		value *float64
	}{
		{schema.E2EInvalidAnomaly, m.E2EInvalid},
		{schema.DuplicateAnomaly, m.Dup},
		{schema.ReorderAnomaly, m.Reorder},
	}
	for _, v := range valued {
		if schema.Truthy(v.value) {
			out = append(out, schema.Anomaly{Kind: v.kind, Value: v.value})
		}
	}
	return out
}
