package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Directory & access
	DirectoryFile   string   // path to the teams/links YAML file
	CredentialsFile string   // path to the bcrypt password table (only read when PasswordGate)
	AllowedEmails   []string // explicit emails allowed besides the corporate domain
	EmailDomain     string   // corporate suffix, ex: "@leroymerlin.com.br" (empty = allow-list only)
	PasswordGate    bool     // true => login also asks for a password

	// Sessions & personalization
	SessionTTL   time.Duration // idle lifetime of a session record (default: 720h)
	CookieSecure bool          // set the Secure flag on the session cookie
	HistoryCap   int           // history records kept per identity (default: 50)
	MaxBlobBytes int           // max size of one favorites/history blob (default: 64KiB, -1 = unlimited)
	LoginBurst   int           // login attempts allowed at once per client IP
	LoginPerMin  int           // login attempts refilled per minute per client IP

	// Storage
	Store      string        // "redis" | "badger" | "memory"
	BadgerDir  string        // badger data directory (empty = in-memory badger)
	GCInterval time.Duration // interval to run the store collector (default: 1h)

	// Redis (only read when Store == "redis")
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict /infra, /readyz to specific IPs (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

const (
	StoreRedis  = "redis"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PORTAL_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PORTAL_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("PORTAL_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PORTAL_PRETTY_LOG", true),

		// Directory & access
		DirectoryFile:   getenv("PORTAL_DIRECTORY_FILE", "/app/directory.yaml"),
		CredentialsFile: getenv("PORTAL_CREDENTIALS_FILE", ""),
		AllowedEmails:   splitAndTrim(getenv("PORTAL_ALLOWED_EMAILS", "")),
		EmailDomain:     getenv("PORTAL_EMAIL_DOMAIN", "@leroymerlin.com.br"),
		PasswordGate:    mustBool("PORTAL_PASSWORD_GATE", false),

		// Sessions & personalization
		SessionTTL:   mustDuration("PORTAL_SESSION_TTL", 30*24*time.Hour),
		CookieSecure: mustBool("PORTAL_COOKIE_SECURE", true),
		HistoryCap:   getenvInt("PORTAL_HISTORY_CAP", 50),
		MaxBlobBytes: getenvInt("PORTAL_MAX_BLOB_BYTES", 64*1024),
		LoginBurst:   getenvInt("PORTAL_LOGIN_BURST", 5),
		LoginPerMin:  getenvInt("PORTAL_LOGIN_PER_MIN", 10),

		// Storage
		Store:      strings.ToLower(getenv("PORTAL_STORE", StoreRedis)),
		BadgerDir:  getenv("PORTAL_BADGER_DIR", ""),
		GCInterval: mustDuration("PORTAL_GC_INTERVAL", time.Hour),

		// Access restrictions
		AllowedHosts: requireEnvSlice("PORTAL_ALLOWED_HOSTS"),
		AllowedCIDRS: parseAllowedIPs(getenv("PORTAL_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("PORTAL_TRUST_PROXY", true),
	}

	switch cfg.Store {
	case StoreRedis:
		loadRedis(cfg)
	case StoreBadger, StoreMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: PORTAL_STORE must be one of redis, badger, memory (got %q)", cfg.Store))
	}

	if cfg.PasswordGate && cfg.CredentialsFile == "" {
		panic("❌ FATAL: PORTAL_CREDENTIALS_FILE is required when PORTAL_PASSWORD_GATE=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		cfgCopy.AllowedEmails = []string{fmt.Sprintf("***%d entries***", len(cfg.AllowedEmails))}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("PORTAL_REDIS_ADDR")
	cfg.RedisUser = getenv("PORTAL_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("PORTAL_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("PORTAL_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("PORTAL_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: PORTAL_REDIS_PASSWORD is required when PORTAL_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func requireEnvSlice(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return splitAndTrim(v)
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
