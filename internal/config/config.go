// Package config loads the sync engine configuration from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default configuration values
const (
	DefaultPort               = "8080"
	DefaultStaleAfterHours    = 24
	DefaultSyncHourUTC        = 3
	DefaultWorkerPollInterval = time.Second
)

// ProviderConfig describes one external data provider and its sync schedule
type ProviderConfig struct {
	Name            string
	Enabled         bool
	FeedURL         string
	SyncHourUTC     int
	SyncWeekday     *time.Weekday // nil means a daily schedule
	StaleAfter      time.Duration
	FollowUpJobType string // job enqueued after a successful sync, empty for none
}

// QuotaConfig describes the outbound call budget for one provider
type QuotaConfig struct {
	HardDailyLimit     int
	OperationalCap     int
	SafetyReserve      int
	SubFeatureDailyCap int
}

// Validate checks the quota invariants
func (q QuotaConfig) Validate() error {
	if q.OperationalCap > q.HardDailyLimit {
		return fmt.Errorf("operational cap %d exceeds hard daily limit %d", q.OperationalCap, q.HardDailyLimit)
	}
	if q.OperationalCap+q.SafetyReserve > q.HardDailyLimit {
		return fmt.Errorf("operational cap %d + safety reserve %d exceeds hard daily limit %d",
			q.OperationalCap, q.SafetyReserve, q.HardDailyLimit)
	}
	return nil
}

// RateLimitConfig describes the inbound admission control settings
type RateLimitConfig struct {
	Enabled         bool
	TokenLimit      int
	TokensPerPeriod int
	ReplenishPeriod time.Duration
	QueueLimit      int
}

// FeatureRequirement names one provider a feature depends on, and whether the
// feature needs fresh data from it or mere operational status
type FeatureRequirement struct {
	Provider     string
	RequireFresh bool
}

// Database holds database connection settings
type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Config is the full runtime configuration for the sync engine
type Config struct {
	Port               string
	Database           Database
	Providers          []ProviderConfig
	Quotas             map[string]QuotaConfig
	RateLimit          RateLimitConfig
	Features           map[string][]FeatureRequirement
	WorkerPollInterval time.Duration
}

// Load reads the configuration from environment variables with defaults
// suitable for local development.
//
// Provider settings are keyed by the upper-cased provider name, e.g. for a
// provider "odds_feed" declared in SYNC_PROVIDERS:
//
//	SYNC_ODDS_FEED_ENABLED=true
//	SYNC_ODDS_FEED_HOUR_UTC=3
//	SYNC_ODDS_FEED_WEEKDAY=monday        (omit for a daily schedule)
//	SYNC_ODDS_FEED_STALE_AFTER_HOURS=24
//	SYNC_ODDS_FEED_FOLLOW_UP_JOB=recompute_aggregates
//	QUOTA_ODDS_FEED_HARD_DAILY_LIMIT=1000
//	QUOTA_ODDS_FEED_OPERATIONAL_CAP=800
//	QUOTA_ODDS_FEED_SAFETY_RESERVE=100
//	QUOTA_ODDS_FEED_SUB_FEATURE_CAP=50
//
// Feature availability mappings use FEATURE_<NAME>_REQUIRES with a comma
// separated list of provider:fresh or provider:operational entries.
func Load() (*Config, error) {
	cfg := &Config{
		Port: GetEnv("PORT", DefaultPort),
		Database: Database{
			Host:     GetEnv("DB_HOST", ""),
			Port:     GetEnvInt("DB_PORT", 0),
			User:     GetEnv("DB_USER", ""),
			Password: GetEnv("DB_PASSWORD", ""),
			DBName:   GetEnv("DB_NAME", ""),
		},
		Quotas:             make(map[string]QuotaConfig),
		Features:           make(map[string][]FeatureRequirement),
		WorkerPollInterval: GetEnvDuration("WORKER_POLL_INTERVAL", DefaultWorkerPollInterval),
		RateLimit: RateLimitConfig{
			Enabled:         GetEnvBool("RATE_LIMIT_ENABLED", true),
			TokenLimit:      GetEnvInt("RATE_LIMIT_TOKEN_LIMIT", 60),
			TokensPerPeriod: GetEnvInt("RATE_LIMIT_TOKENS_PER_PERIOD", 60),
			ReplenishPeriod: time.Duration(GetEnvInt("RATE_LIMIT_REPLENISH_PERIOD_SECONDS", 60)) * time.Second,
			QueueLimit:      GetEnvInt("RATE_LIMIT_QUEUE_LIMIT", 0),
		},
	}

	for _, name := range GetEnvList("SYNC_PROVIDERS", nil) {
		key := envKey(name)
		provider := ProviderConfig{
			Name:            name,
			Enabled:         GetEnvBool("SYNC_"+key+"_ENABLED", true),
			FeedURL:         GetEnv("SYNC_"+key+"_URL", ""),
			SyncHourUTC:     GetEnvInt("SYNC_"+key+"_HOUR_UTC", DefaultSyncHourUTC),
			StaleAfter:      time.Duration(GetEnvInt("SYNC_"+key+"_STALE_AFTER_HOURS", DefaultStaleAfterHours)) * time.Hour,
			FollowUpJobType: GetEnv("SYNC_"+key+"_FOLLOW_UP_JOB", ""),
		}
		if provider.SyncHourUTC < 0 || provider.SyncHourUTC > 23 {
			return nil, fmt.Errorf("provider %q: sync hour %d out of range", name, provider.SyncHourUTC)
		}
		if wd := GetEnv("SYNC_"+key+"_WEEKDAY", ""); wd != "" {
			weekday, err := parseWeekday(wd)
			if err != nil {
				return nil, fmt.Errorf("provider %q: %w", name, err)
			}
			provider.SyncWeekday = &weekday
		}
		cfg.Providers = append(cfg.Providers, provider)

		quota := QuotaConfig{
			HardDailyLimit:     GetEnvInt("QUOTA_"+key+"_HARD_DAILY_LIMIT", 1000),
			OperationalCap:     GetEnvInt("QUOTA_"+key+"_OPERATIONAL_CAP", 800),
			SafetyReserve:      GetEnvInt("QUOTA_"+key+"_SAFETY_RESERVE", 100),
			SubFeatureDailyCap: GetEnvInt("QUOTA_"+key+"_SUB_FEATURE_CAP", 0),
		}
		if err := quota.Validate(); err != nil {
			return nil, fmt.Errorf("provider %q: %w", name, err)
		}
		cfg.Quotas[name] = quota
	}

	for _, feature := range GetEnvList("FEATURES", nil) {
		reqs, err := parseRequirements(GetEnv("FEATURE_"+envKey(feature)+"_REQUIRES", ""))
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", feature, err)
		}
		cfg.Features[feature] = reqs
	}

	return cfg, nil
}

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetEnvInt retrieves an integer environment variable with a fallback
func GetEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// GetEnvBool retrieves a boolean environment variable with a fallback
func GetEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// GetEnvDuration retrieves a duration environment variable with a fallback
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// GetEnvList retrieves a comma separated environment variable as a slice
func GetEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envKey(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(str string) (time.Weekday, error) {
	if weekday, ok := weekdays[strings.ToLower(str)]; ok {
		return weekday, nil
	}
	return time.Sunday, fmt.Errorf("invalid weekday: %s", str)
}

func parseRequirements(str string) ([]FeatureRequirement, error) {
	if str == "" {
		return nil, nil
	}
	var reqs []FeatureRequirement
	for _, entry := range strings.Split(str, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		provider, mode, found := strings.Cut(entry, ":")
		if !found {
			mode = "operational"
		}
		switch mode {
		case "fresh":
			reqs = append(reqs, FeatureRequirement{Provider: provider, RequireFresh: true})
		case "operational":
			reqs = append(reqs, FeatureRequirement{Provider: provider})
		default:
			return nil, fmt.Errorf("invalid requirement mode %q", mode)
		}
	}
	return reqs, nil
}
