package schema

// Custom string types for type safety.
type (
	// Scenario labels the load-test family a log file belongs to.
	Scenario string

	// SchemaKind discriminates the two source document shapes.
	SchemaKind string

	// AnomalyKind identifies a contamination signal on a single-run record.
	AnomalyKind string

	// DatabaseBackend represents the database backend for the run archive.
	DatabaseBackend string
)

// All scenarios supported, in classification order.
const (
	ClusterScenario Scenario = "ws-cluster-5x-test"
	TestRunScenario Scenario = "test-run"
	BPMultiScenario Scenario = "bp-multi"
	OtherScenario   Scenario = "other" // default
)

// All source schemas supported.
const (
	AggregateSchema SchemaKind = "aggregate"  // multi-repeat summary, averaged fields only
	SingleRunSchema SchemaKind = "single-run" // one SINGLE_E2E execution
)

// All anomaly kinds supported.
const (
	OverDeliveryAnomaly AnomalyKind = "deliver>100%"
	E2EInvalidAnomaly   AnomalyKind = "e2eInvalid"
	DuplicateAnomaly    AnomalyKind = "dup"
	ReorderAnomaly      AnomalyKind = "reorder"
	AveragedFileAnomaly AnomalyKind = "avg-file"
)

// All archive backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// SingleRunMode is the `mode` value written by the load harness for single-chat end-to-end runs.
const SingleRunMode = "SINGLE_E2E"

// OverDeliveryThreshold is the delivery ratio above which a run is considered polluted
// by messages from outside its measurement window.
const OverDeliveryThreshold = 1.01

// AllScenarios lists every scenario label.
var AllScenarios = []Scenario{ClusterScenario, TestRunScenario, BPMultiScenario, OtherScenario}

// ValidDatabaseBackends lists all valid archive backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ShortLabel returns the compact schema label used in the tabular export.
func (k SchemaKind) ShortLabel() string {
	switch k {
	case AggregateSchema:
		return "avg"
	case SingleRunSchema:
		return "run"
	default:
		return string(k)
	}
}
