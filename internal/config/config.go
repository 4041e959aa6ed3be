package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RedisAddr     string
	ClickHouseDSN string
	PostgresDSN   string
	GeoIPDB       string
	LexiconPath   string
	TokenSecret   string
	TokenTTL      time.Duration
	ServiceName   string

	// Submission rate limiting (per reporter)
	RateLimitEnabled    bool
	RateLimitCapacity   int
	RateLimitRefillRate int

	// Database connection pooling configuration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	// ClickHouse connection pooling configuration
	CHMaxOpenConns    int
	CHMaxIdleConns    int
	CHConnMaxLifetime time.Duration
	CHConnMaxIdleTime time.Duration

	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64

	Policy Policy
}

// Policy groups the engine's tunable decision thresholds. The auto-verify
// threshold and flag quarantine count are inherited policy values; changing
// them is an operational decision, not a code change.
type Policy struct {
	// AutoVerifyThreshold is the minimum automatic verification score at
	// which a report from a non-new reporter is verified without review.
	AutoVerifyThreshold int
	// QuarantineFlagCount is the number of unresolved flags that forces a
	// report back under review regardless of its verification score.
	QuarantineFlagCount int

	// Duplicate detection window
	DuplicateRadiusKm float64
	DuplicateWindow   time.Duration

	// Trend detection window
	TrendWindow     time.Duration
	TrendMinReports int
	TrendKeywordMin int

	// Cluster alert window
	ClusterRadiusKm   float64
	ClusterWindow     time.Duration
	ClusterMinReports int

	// Reputation accounting
	VerifiedReward  int
	RejectedPenalty int

	DefaultPageSize int
}

// DefaultPolicy returns the engine policy with its inherited threshold values.
func DefaultPolicy() Policy {
	return Policy{
		AutoVerifyThreshold: 70,
		QuarantineFlagCount: 3,
		DuplicateRadiusKm:   0.5,
		DuplicateWindow:     24 * time.Hour,
		TrendWindow:         7 * 24 * time.Hour,
		TrendMinReports:     5,
		TrendKeywordMin:     3,
		ClusterRadiusKm:     1.0,
		ClusterWindow:       time.Hour,
		ClusterMinReports:   5,
		VerifiedReward:      10,
		RejectedPenalty:     5,
		DefaultPageSize:     50,
	}
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8790")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 10*time.Second)
	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.ClickHouseDSN = getenv("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000/default?async_insert=1&wait_for_async_insert=1")
	cfg.PostgresDSN = getenv("POSTGRES_DSN", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable")
	cfg.GeoIPDB = getenv("GEOIP_DB", "internal/geoip/testdata/GeoLite2-Country.mmdb")
	cfg.LexiconPath = getenv("LEXICON_PATH", "")
	cfg.TokenSecret = getenv("TOKEN_SECRET", "")
	// anonymous tracking tokens stay valid long enough to follow a report
	// through its whole lifecycle
	cfg.TokenTTL = envDuration("TOKEN_TTL", 30*24*time.Hour)
	cfg.ServiceName = getenv("SERVICE_NAME", "reportserve")

	cfg.RateLimitEnabled = envBool("RATE_LIMIT_ENABLED", true)
	cfg.RateLimitCapacity = envInt("RATE_LIMIT_CAPACITY", 10)
	cfg.RateLimitRefillRate = envInt("RATE_LIMIT_REFILL_RATE", 1)

	// Database connection pooling configuration
	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.DBConnMaxIdleTime = envDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute)

	// ClickHouse connection pooling configuration
	cfg.CHMaxOpenConns = envInt("CH_MAX_OPEN_CONNS", 100)
	cfg.CHMaxIdleConns = envInt("CH_MAX_IDLE_CONNS", 25)
	cfg.CHConnMaxLifetime = envDuration("CH_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.CHConnMaxIdleTime = envDuration("CH_CONN_MAX_IDLE_TIME", 1*time.Minute)

	// Tracing configuration
	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	p := DefaultPolicy()
	p.AutoVerifyThreshold = envInt("AUTO_VERIFY_THRESHOLD", p.AutoVerifyThreshold)
	p.QuarantineFlagCount = envInt("QUARANTINE_FLAG_COUNT", p.QuarantineFlagCount)
	p.DuplicateRadiusKm = envFloat("DUPLICATE_RADIUS_KM", p.DuplicateRadiusKm)
	p.DuplicateWindow = envDuration("DUPLICATE_WINDOW", p.DuplicateWindow)
	p.TrendWindow = envDuration("TREND_WINDOW", p.TrendWindow)
	p.TrendMinReports = envInt("TREND_MIN_REPORTS", p.TrendMinReports)
	p.TrendKeywordMin = envInt("TREND_KEYWORD_MIN", p.TrendKeywordMin)
	p.ClusterRadiusKm = envFloat("CLUSTER_RADIUS_KM", p.ClusterRadiusKm)
	p.ClusterWindow = envDuration("CLUSTER_WINDOW", p.ClusterWindow)
	p.ClusterMinReports = envInt("CLUSTER_MIN_REPORTS", p.ClusterMinReports)
	p.DefaultPageSize = envInt("DEFAULT_PAGE_SIZE", p.DefaultPageSize)
	cfg.Policy = p

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
