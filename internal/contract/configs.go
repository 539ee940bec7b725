package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huangsam/perftimeline/schema"
)

// Default values for configuration.
const (
	DefaultRoot         = "."
	DefaultLogsDir      = "logs"
	DefaultOutDir       = "reports"
	DefaultCSVName      = "single_chat_perf_timeline.csv"
	DefaultMarkdownName = "single_chat_perf_timeline.md"
	MaxWidth            = 500
)

// Config holds the runtime configuration for a timeline run.
// This struct remains the "final, validated" config.
type Config struct {
	Root         string // Absolute scan root; logs and reports resolve against it
	LogsDir      string
	OutDir       string
	CSVName      string
	MarkdownName string
	ParquetFile  string // Optional record export (empty = off)
	MetricsFile  string // Optional Prometheus textfile (empty = off)

	ArchiveBackend   schema.DatabaseBackend
	ArchiveDBConnect string // Please use env var as this is plaintext

	Width     int // Terminal width override (0 = auto-detect)
	UseColors bool

	Milestones schema.MilestoneTable
	Baseline   schema.SlicePolicy
	Current    schema.SlicePolicy
}

// SlicePolicyRaw holds optional overrides for one comparable slice from the YAML config file.
// Use pointers so unset fields keep their defaults.
type SlicePolicyRaw struct {
	Scenario       *string  `mapstructure:"scenario"`
	Clients        *float64 `mapstructure:"clients"`
	OpenLoop       *bool    `mapstructure:"open-loop"`
	MsgIntervalMs  *float64 `mapstructure:"msg-interval-ms"`
	MinSentPerSec  *float64 `mapstructure:"min-sent-per-sec"`
	MaxSentPerSec  *float64 `mapstructure:"max-sent-per-sec"`
	MaxWSErrorRate *float64 `mapstructure:"max-ws-error-rate"`
	MaxDeliverRate *float64 `mapstructure:"max-deliver-rate"`
}

// SlicesRawInput holds the baseline and current slice overrides.
type SlicesRawInput struct {
	Baseline *SlicePolicyRaw `mapstructure:"baseline"`
	Current  *SlicePolicyRaw `mapstructure:"current"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	Root             string `mapstructure:"root"`
	LogsDir          string `mapstructure:"logs-dir"`
	OutDir           string `mapstructure:"out-dir"`
	CSVName          string `mapstructure:"csv-name"`
	MarkdownName     string `mapstructure:"md-name"`
	ParquetFile      string `mapstructure:"parquet-file"`
	MetricsFile      string `mapstructure:"metrics-file"`
	ArchiveBackend   string `mapstructure:"archive-backend"`
	ArchiveDBConnect string `mapstructure:"archive-db-connect"`
	Color            string `mapstructure:"color"`
	Width            int    `mapstructure:"width"`

	// --- Slice thresholds from config file ---
	Slices SlicesRawInput `mapstructure:"slices"`
}

// DefaultRawInput returns the raw input equivalent of running with no flags, env or config file.
func DefaultRawInput() *ConfigRawInput {
	return &ConfigRawInput{
		Root:           DefaultRoot,
		LogsDir:        DefaultLogsDir,
		OutDir:         DefaultOutDir,
		CSVName:        DefaultCSVName,
		MarkdownName:   DefaultMarkdownName,
		ArchiveBackend: string(schema.NoneBackend),
		Color:          "yes",
	}
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Milestones = slices.Clone(c.Milestones)
	clone.Baseline = clonePolicy(c.Baseline)
	clone.Current = clonePolicy(c.Current)
	return &clone
}

// LogsPath returns the absolute directory scanned for logs.
func (c *Config) LogsPath() string {
	return c.resolve(c.LogsDir)
}

// OutPath returns the absolute directory receiving the reports.
func (c *Config) OutPath() string {
	return c.resolve(c.OutDir)
}

// CSVPath returns the absolute path of the tabular export.
func (c *Config) CSVPath() string {
	return filepath.Join(c.OutPath(), c.CSVName)
}

// MarkdownPath returns the absolute path of the narrative report.
func (c *Config) MarkdownPath() string {
	return filepath.Join(c.OutPath(), c.MarkdownName)
}

// RelToRoot renders path relative to Root with forward slashes when possible.
func (c *Config) RelToRoot(path string) string {
	rel, err := filepath.Rel(c.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, p)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processSlicePolicies(cfg, input); err != nil {
		return err
	}
	return resolveRootPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("archive-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("archive-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the archive backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := strings.ToLower(strings.TrimSpace(input.ArchiveBackend))
	if backend == "" {
		backend = string(schema.NoneBackend)
	}
	cfg.ArchiveBackend = schema.DatabaseBackend(backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.ArchiveBackend]; !ok {
		return fmt.Errorf("invalid archive backend '%s'. must be sqlite, mysql, postgresql, none", input.ArchiveBackend)
	}
	cfg.ArchiveDBConnect = input.ArchiveDBConnect
	return ValidateDatabaseConnectionString(cfg.ArchiveBackend, cfg.ArchiveDBConnect)
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.ParquetFile = strings.TrimSpace(input.ParquetFile)
	cfg.MetricsFile = strings.TrimSpace(input.MetricsFile)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Width < 0 || input.Width > MaxWidth {
		return fmt.Errorf("width must be between 0 and %d (received %d)", MaxWidth, input.Width)
	}
	cfg.Width = input.Width

	cfg.LogsDir = orDefault(input.LogsDir, DefaultLogsDir)
	cfg.OutDir = orDefault(input.OutDir, DefaultOutDir)

	cfg.CSVName = orDefault(input.CSVName, DefaultCSVName)
	cfg.MarkdownName = orDefault(input.MarkdownName, DefaultMarkdownName)
	if filepath.Base(cfg.CSVName) != cfg.CSVName {
		return fmt.Errorf("csv-name must be a file name without directories (received %q)", cfg.CSVName)
	}
	if filepath.Base(cfg.MarkdownName) != cfg.MarkdownName {
		return fmt.Errorf("md-name must be a file name without directories (received %q)", cfg.MarkdownName)
	}
	if cfg.CSVName == cfg.MarkdownName {
		return fmt.Errorf("csv-name and md-name must differ (both %q)", cfg.CSVName)
	}

	cfg.Milestones = schema.DefaultMilestones()
	return nil
}

// processSlicePolicies starts from the default slices and applies config file overrides.
func processSlicePolicies(cfg *Config, input *ConfigRawInput) error {
	baseline, err := applySliceOverrides(schema.DefaultBaselinePolicy(), input.Slices.Baseline)
	if err != nil {
		return fmt.Errorf("invalid slices.baseline: %w", err)
	}
	current, err := applySliceOverrides(schema.DefaultCurrentPolicy(), input.Slices.Current)
	if err != nil {
		return fmt.Errorf("invalid slices.current: %w", err)
	}
	cfg.Baseline = baseline
	cfg.Current = current
	return nil
}

// applySliceOverrides merges raw overrides into policy and validates the result.
func applySliceOverrides(policy schema.SlicePolicy, raw *SlicePolicyRaw) (schema.SlicePolicy, error) {
	if raw == nil {
		return policy, nil
	}
	if raw.Scenario != nil {
		scenario := schema.Scenario(strings.TrimSpace(*raw.Scenario))
		if !slices.Contains(schema.AllScenarios, scenario) {
			return policy, fmt.Errorf("unknown scenario %q", *raw.Scenario)
		}
		policy.Scenario = scenario
	}
	if raw.Clients != nil {
		policy.Clients = *raw.Clients
	}
	if raw.OpenLoop != nil {
		policy.OpenLoop = *raw.OpenLoop
	}
	if raw.MsgIntervalMs != nil {
		policy.MsgIntervalMs = schema.Float64Ptr(*raw.MsgIntervalMs)
	}
	if raw.MinSentPerSec != nil {
		policy.MinSentPerSec = schema.Float64Ptr(*raw.MinSentPerSec)
	}
	if raw.MaxSentPerSec != nil {
		policy.MaxSentPerSec = schema.Float64Ptr(*raw.MaxSentPerSec)
	}
	if raw.MaxWSErrorRate != nil {
		policy.MaxWSErrorRate = *raw.MaxWSErrorRate
	}
	if raw.MaxDeliverRate != nil {
		policy.MaxDeliverRate = *raw.MaxDeliverRate
	}

	if policy.Clients <= 0 {
		return policy, fmt.Errorf("clients must be greater than 0 (received %g)", policy.Clients)
	}
	if policy.MaxWSErrorRate < 0 || policy.MaxDeliverRate < 0 {
		return policy, fmt.Errorf("rate ceilings must not be negative")
	}
	if policy.MinSentPerSec != nil && policy.MaxSentPerSec != nil && *policy.MinSentPerSec > *policy.MaxSentPerSec {
		return policy, fmt.Errorf("min-sent-per-sec (%g) cannot exceed max-sent-per-sec (%g)", *policy.MinSentPerSec, *policy.MaxSentPerSec)
	}
	return policy, nil
}

// resolveRootPath turns the scan root into a clean absolute path.
func resolveRootPath(cfg *Config, input *ConfigRawInput) error {
	root, err := filepath.Abs(orDefault(input.Root, DefaultRoot))
	if err != nil {
		return err
	}
	cfg.Root = filepath.Clean(root)
	return nil
}

// RevalidateRoot points an already validated config at a different scan root.
// An empty root keeps the current one.
func RevalidateRoot(cfg *Config, root string) error {
	if strings.TrimSpace(root) == "" {
		return nil
	}
	if err := resolveRootPath(cfg, &ConfigRawInput{Root: root}); err != nil {
		return err
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return fmt.Errorf("root %s is not accessible: %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", cfg.Root)
	}
	return nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

func clonePolicy(p schema.SlicePolicy) schema.SlicePolicy {
	clone := p
	clone.MsgIntervalMs = cloneFloat(p.MsgIntervalMs)
	clone.MinSentPerSec = cloneFloat(p.MinSentPerSec)
	clone.MaxSentPerSec = cloneFloat(p.MaxSentPerSec)
	return clone
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return schema.Float64Ptr(*v)
}
