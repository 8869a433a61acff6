package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/shift-planner/pkg/core/allocator"
	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/scoring"
)

// DatabaseConfig selects the schedule store
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres memory"`
	URL    string `yaml:"url,omitempty" validate:"required_if=Driver postgres"`
	// Fixture seeds the memory store from a YAML file
	Fixture string `yaml:"fixture,omitempty"`
}

// RedisConfig enables the cross-process generation lock
type RedisConfig struct {
	Addr           string `yaml:"addr" validate:"required,hostname_port"`
	Password       string `yaml:"password,omitempty"`
	DB             int    `yaml:"db,omitempty" validate:"min=0"`
	LockTTLSeconds int    `yaml:"lockTTLSeconds,omitempty" validate:"omitempty,min=1"`
}

// LockTTL returns the lock expiry, defaulting to ten minutes
func (r *RedisConfig) LockTTL() time.Duration {
	if r == nil || r.LockTTLSeconds == 0 {
		return 10 * time.Minute
	}
	return time.Duration(r.LockTTLSeconds) * time.Second
}

// ScoringConfig tunes the fitness score. Weights missing from the map keep their defaults.
type ScoringConfig struct {
	Weights              map[string]float64 `yaml:"weights,omitempty" validate:"dive,min=0"`
	FatigueThresholdDays int                `yaml:"fatigueThresholdDays" validate:"min=1"`
	WeeklyHourTarget     float64            `yaml:"weeklyHourTarget" validate:"gt=0"`
	HistoryLookbackDays  int                `yaml:"historyLookbackDays" validate:"min=0"`
}

// SchedulerConfig holds slot validation, hard constraints and ordering rules
type SchedulerConfig struct {
	MinShiftMinutes        int     `yaml:"minShiftMinutes" validate:"min=1"`
	MaxShiftMinutes        int     `yaml:"maxShiftMinutes" validate:"gtefield=MinShiftMinutes"`
	SlotGranularityMinutes int     `yaml:"slotGranularityMinutes" validate:"min=1,max=60"`
	MaxConsecutiveDays     int     `yaml:"maxConsecutiveDays" validate:"min=0"`
	MinRestHours           float64 `yaml:"minRestHours" validate:"min=0"`
	BreakThresholdMinutes  int     `yaml:"breakThresholdMinutes" validate:"min=0"`
	BreakDurationMinutes   int     `yaml:"breakDurationMinutes" validate:"min=0"`
	EnforceKeyholder       bool    `yaml:"enforceKeyholder"`
	OpeningLeadMinutes     int     `yaml:"openingLeadMinutes" validate:"min=0"`
	ClosingLagMinutes      int     `yaml:"closingLagMinutes" validate:"min=0"`
	CandidateTieBreak      string  `yaml:"candidateTieBreak" validate:"oneof=employee_id seniority"`
	SlotTieBreak           string  `yaml:"slotTieBreak" validate:"oneof=creation keyholder_first"`
}

// SheetsConfig enables publishing versions to a Google spreadsheet
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheetID" validate:"required"`
}

// Closure is a recurring date on which no coverage is generated
type Closure struct {
	RRule  string `yaml:"rrule" validate:"required"`
	Reason string `yaml:"reason,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Redis     *RedisConfig    `yaml:"redis,omitempty"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sheets    *SheetsConfig   `yaml:"sheets,omitempty"`
	Closures  []Closure       `yaml:"closures,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// DefaultScoring returns the built-in scoring section
func DefaultScoring() ScoringConfig {
	d := scoring.DefaultConfig()
	return ScoringConfig{
		FatigueThresholdDays: d.FatigueThresholdDays,
		WeeklyHourTarget:     d.WeeklyHourTarget,
		HistoryLookbackDays:  d.HistoryLookbackDays,
	}
}

// DefaultScheduler returns the built-in scheduler section
func DefaultScheduler() SchedulerConfig {
	return SchedulerConfig{
		MinShiftMinutes:        120,
		MaxShiftMinutes:        720,
		SlotGranularityMinutes: 15,
		MaxConsecutiveDays:     6,
		MinRestHours:           11,
		BreakThresholdMinutes:  360,
		BreakDurationMinutes:   30,
		EnforceKeyholder:       true,
		CandidateTieBreak:      string(allocator.TieBreakEmployeeID),
		SlotTieBreak:           string(coverage.OrderCreation),
	}
}

// Default returns a configuration backed by the memory store
func Default() *Config {
	return &Config{
		Database:  DatabaseConfig{Driver: "memory"},
		Scoring:   DefaultScoring(),
		Scheduler: DefaultScheduler(),
	}
}

// LoadWithEnv loads .env files, then the configuration for an environment.
// For example, env="test" will look for "schedule_config.test.yaml" and ".env.test"
func LoadWithEnv(env string) (*Config, error) {
	if err := loadDotEnv(env); err != nil {
		return nil, err
	}

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// Fields absent from the file keep their defaults; DATABASE_URL and REDIS_ADDR override the file.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct, the scoring weights and the closure rules
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := cfg.ScoringOptions(); err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}

	for i, closure := range cfg.Closures {
		if _, err := rrule.StrToRRule(closure.RRule); err != nil {
			return fmt.Errorf("invalid rrule in closures[%d]: %w", i, err)
		}
	}

	return nil
}

// ScoringOptions converts the scoring section into a validated scorer configuration
func (c *Config) ScoringOptions() (scoring.Config, error) {
	weights := scoring.DefaultWeights()
	for name, value := range c.Scoring.Weights {
		factor, err := scoring.ParseFactor(name)
		if err != nil {
			return scoring.Config{}, err
		}
		weights[factor] = value
	}

	sc := scoring.Config{
		Weights:              weights,
		FatigueThresholdDays: c.Scoring.FatigueThresholdDays,
		WeeklyHourTarget:     c.Scoring.WeeklyHourTarget,
		HistoryLookbackDays:  c.Scoring.HistoryLookbackDays,
	}
	if err := sc.Validate(); err != nil {
		return scoring.Config{}, err
	}
	return sc, nil
}

// CoverageOptions returns the resolver options, closures included
func (c *Config) CoverageOptions() coverage.Options {
	closures := make([]coverage.Closure, len(c.Closures))
	for i, cl := range c.Closures {
		closures[i] = coverage.Closure{RRule: cl.RRule, Reason: cl.Reason}
	}
	return coverage.Options{
		MinShiftMinutes:        c.Scheduler.MinShiftMinutes,
		MaxShiftMinutes:        c.Scheduler.MaxShiftMinutes,
		SlotGranularityMinutes: c.Scheduler.SlotGranularityMinutes,
		OpeningLeadMinutes:     c.Scheduler.OpeningLeadMinutes,
		ClosingLagMinutes:      c.Scheduler.ClosingLagMinutes,
		Order:                  coverage.SlotOrder(c.Scheduler.SlotTieBreak),
		Closures:               closures,
	}
}

// AllocatorOptions returns the assignment options
func (c *Config) AllocatorOptions() allocator.Options {
	return allocator.Options{
		CandidateTieBreak:      allocator.TieBreak(c.Scheduler.CandidateTieBreak),
		BreakThresholdMinutes:  c.Scheduler.BreakThresholdMinutes,
		BreakDurationMinutes:   c.Scheduler.BreakDurationMinutes,
		SlotGranularityMinutes: c.Scheduler.SlotGranularityMinutes,
	}
}

// Criteria returns the hard constraints in the order they are checked
func (c *Config) Criteria() []allocator.Criterion {
	minRest := time.Duration(c.Scheduler.MinRestHours * float64(time.Hour))
	return []allocator.Criterion{
		allocator.NewNoOverlapCriterion(),
		allocator.NewMinRestCriterion(minRest),
		allocator.NewMaxConsecutiveDaysCriterion(c.Scheduler.MaxConsecutiveDays),
	}
}

// Overrides are request-time changes merged over the file configuration
type Overrides struct {
	Weights              map[string]float64
	FatigueThresholdDays *int
	WeeklyHourTarget     *float64
	HistoryLookbackDays  *int
	MaxConsecutiveDays   *int
	MinRestHours         *float64
}

// WithOverrides returns a copy of the configuration with the overrides applied and re-validated
func (c *Config) WithOverrides(o Overrides) (*Config, error) {
	merged := *c
	merged.Scoring.Weights = make(map[string]float64, len(c.Scoring.Weights)+len(o.Weights))
	for k, v := range c.Scoring.Weights {
		merged.Scoring.Weights[k] = v
	}
	for k, v := range o.Weights {
		merged.Scoring.Weights[k] = v
	}

	if o.FatigueThresholdDays != nil {
		merged.Scoring.FatigueThresholdDays = *o.FatigueThresholdDays
	}
	if o.WeeklyHourTarget != nil {
		merged.Scoring.WeeklyHourTarget = *o.WeeklyHourTarget
	}
	if o.HistoryLookbackDays != nil {
		merged.Scoring.HistoryLookbackDays = *o.HistoryLookbackDays
	}
	if o.MaxConsecutiveDays != nil {
		merged.Scheduler.MaxConsecutiveDays = *o.MaxConsecutiveDays
	}
	if o.MinRestHours != nil {
		merged.Scheduler.MinRestHours = *o.MinRestHours
	}

	if err := Validate(&merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// applyEnv lets the environment override connection settings
func applyEnv(cfg *Config) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
		cfg.Database.Driver = "postgres"
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		if cfg.Redis == nil {
			cfg.Redis = &RedisConfig{}
		}
		cfg.Redis.Addr = addr
	}
}

// loadDotEnv reads .env.<env> and .env when present; existing variables are never overwritten
func loadDotEnv(env string) error {
	files := []string{".env"}
	if env != "" {
		files = []string{".env." + env, ".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// findConfigFile searches for the config file in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "schedule_config.test.yaml")
func findConfigFile(env string) (string, error) {
	configFileName := "schedule_config.yaml"
	if env != "" {
		configFileName = "schedule_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
