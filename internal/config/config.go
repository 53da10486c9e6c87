package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.
type Config struct {
	Env                string        // application environment ("dev", "prod")
	Port               string        // HTTP port to listen on
	DBUser             string        // database username
	DBPass             string        // database password (optional)
	DBHost             string        // database host address
	DBPort             string        // database port number
	DBName             string        // database name
	JWTSecret          string        // secret used to sign JWTs
	AccessTTLMin       int           // access token time-to-live in minutes
	RefreshTTLDays     int           // refresh token time-to-live in days
	BcryptCost         int           // bcrypt cost for password hashing
	TokenSweepInterval time.Duration // how often expired refresh tokens are purged
	AuditConsumer      bool          // run the audit event consumer in-process
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Tunables fall back
// to sensible defaults.
func Load() Config {
	return Config{
		Env:                envStr("APP_ENV", "dev"),
		Port:               envStr("APP_PORT", "8080"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"), // empty allowed
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		JWTSecret:          must("JWT_SECRET"),
		AccessTTLMin:       envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays:     envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:         envInt("BCRYPT_COST", 12),
		TokenSweepInterval: envDur("TOKEN_SWEEP_INTERVAL", time.Hour),
		AuditConsumer:      envBool("AUDIT_CONSUMER_ENABLED", false),
	}
}

// IsProd reports whether the service runs in production mode. It controls
// cookie security flags and logging verbosity.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
