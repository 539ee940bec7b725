// Package metrics exports the outcome of a timeline run as Prometheus gauges
// in the node_exporter textfile format.
package metrics

import (
	"github.com/huangsam/perftimeline/schema"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "perftimeline"

// NewRegistry builds a registry holding one snapshot of the given result.
// Absent medians and a missing baseline produce no samples rather than zeros.
func NewRegistry(result *schema.TimelineResult) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	scanned := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scanned_files",
		Help:      "Candidate log files discovered under the logs directory",
	})
	parseErrors := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "parse_errors",
		Help:      "Log files that could not be decoded",
	})
	records := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records",
		Help:      "Normalized records by source schema",
	}, []string{"schema"})
	contaminated := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "contaminated_runs",
		Help:      "Single-run records carrying at least one anomaly flag",
	})
	samples := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "comparable_samples",
		Help:      "Records selected into each comparable slice",
	}, []string{"slice"})
	median := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "current",
		Name:      "median",
		Help:      "Median of the current slice per statistic",
	}, []string{"stat"})
	baseline := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "baseline",
		Name:      "value",
		Help:      "Baseline record values per statistic",
	}, []string{"stat"})

	reg.MustRegister(scanned, parseErrors, records, contaminated, samples, median, baseline)

	scanned.Set(float64(result.ScannedFiles))
	parseErrors.Set(float64(result.ParseErrors))
	records.WithLabelValues(schema.AggregateSchema.ShortLabel()).Set(float64(result.CountByKind(schema.AggregateSchema)))
	records.WithLabelValues(schema.SingleRunSchema.ShortLabel()).Set(float64(result.CountByKind(schema.SingleRunSchema)))

	contaminated.Set(float64(result.CountContaminated()))

	samples.WithLabelValues("current").Set(float64(len(result.Current)))
	if result.Baseline != nil {
		samples.WithLabelValues("baseline").Set(1)
	} else {
		samples.WithLabelValues("baseline").Set(0)
	}

	s := result.Summary
	setPresent(median, "offered_per_sec", s.OfferedPerSec)
	setPresent(median, "delivered_per_sec", s.DeliveredPerSec)
	setPresent(median, "deliver_pct", s.DeliverPct)
	setPresent(median, "ws_error_pct", s.WSErrorPct)
	setPresent(median, "ack_saved_pct", s.AckSavedPct)
	setPresent(median, "e2e_p50_seconds", s.E2EP50Sec)
	setPresent(median, "e2e_p95_seconds", s.E2EP95Sec)
	setPresent(median, "e2e_p99_seconds", s.E2EP99Sec)

	if b := result.Baseline; b != nil {
		setPresent(baseline, "sent_per_sec", b.Metrics.SentPerSec)
		setPresent(baseline, "delivered_per_sec", b.Metrics.DeliveredPerSec)
		setPresent(baseline, "deliver_pct", schema.Scale(b.Metrics.DeliverRate, 100))
		setPresent(baseline, "ws_error_pct", schema.Scale(b.Metrics.WSErrorRate, 100))
		setPresent(baseline, "e2e_p50_seconds", schema.Scale(b.Metrics.E2EP50Ms, 0.001))
		setPresent(baseline, "e2e_p95_seconds", schema.Scale(b.Metrics.E2EP95Ms, 0.001))
		setPresent(baseline, "e2e_p99_seconds", schema.Scale(b.Metrics.E2EP99Ms, 0.001))
	}
	return reg
}

// WriteTextfile writes the snapshot atomically to path.
func WriteTextfile(path string, result *schema.TimelineResult) error {
	return prometheus.WriteToTextfile(path, NewRegistry(result))
}

func setPresent(vec *prometheus.GaugeVec, stat string, v *float64) {
	if v == nil {
		return
	}
	vec.WithLabelValues(stat).Set(*v)
}
