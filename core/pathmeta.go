package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/huangsam/perftimeline/schema"
)

// timestampPattern matches "_YYYYMMDD_HHMMSS" or "-YYYYMMDD-HHMMSS" anywhere in a slash path.
var timestampPattern = regexp.MustCompile(`(?:_|-)(\d{8})[_-](\d{6})`)

// ExtractTimestamp returns the run timestamp embedded in path, or nil when the path
// carries none or the digits are not a valid calendar time. Only the first match counts.
func ExtractTimestamp(path string) *time.Time {
	m := timestampPattern.FindStringSubmatch(path)
	if m == nil {
		return nil
	}
	ts, err := time.Parse("20060102150405", m[1]+m[2])
	if err != nil {
		return nil
	}
	return &ts
}

// scenarioMarkers are checked in order; the first one found wins.
var scenarioMarkers = []struct {
	marker   string
	scenario schema.Scenario
}{
	{"/ws-cluster-5x-test_", schema.ClusterScenario},
	{"/test-run-", schema.TestRunScenario},
	{"/bp-multi/", schema.BPMultiScenario},
}

// ClassifyScenario maps a slash-separated path to its scenario label.
// Relative paths are treated as rooted so a leading directory still matches.
func ClassifyScenario(path string) schema.Scenario {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for _, s := range scenarioMarkers {
		if strings.Contains(path, s.marker) {
			return s.scenario
		}
	}
	return schema.OtherScenario
}
