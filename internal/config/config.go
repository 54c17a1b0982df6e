// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultJWTSecret is the development signing secret. It is rejected in
	// production.
	DefaultJWTSecret = "dev-secret-change-in-production"

	defaultSambaToolPath = "/usr/bin/samba-tool"
	defaultHealthCron    = "@every 5m"
)

// LDAPConfig holds the directory connection settings.
type LDAPConfig struct {
	URL          string        // e.g. ldaps://dc1.example.test:636
	BindDN       string        // service account DN
	BindPassword string        // service account credential
	SearchBase   string        // base DN for user searches
	GroupBaseDN  string        // container for group creation and lookup (default: SearchBase)
	Timeout      time.Duration // dial and per-request timeout (default 10s)
}

// AuthConfig holds token and authorization settings.
type AuthConfig struct {
	AuthorizedGroupDN string        // members of this group may use the API
	JWTSecret         string        // HS256 signing secret
	TokenTTL          time.Duration // access token lifetime (default 1h)
	RecheckMembership bool          // re-verify group membership on every request
}

// SambaToolConfig holds settings for the samba-tool executor.
type SambaToolConfig struct {
	Path              string        // binary path (default /usr/bin/samba-tool)
	Enabled           bool          // false puts the executor in dry-run mode
	Timeout           time.Duration // per-invocation timeout (default 30s)
	MaxOutput         int64         // combined stdout/stderr cap in bytes (default 1MiB)
	PasswordMinLength int           // minimum password length (default 8)
	DCHost            string        // server operand for domain/dns probes
}

// Config holds the configuration for the gateway server.
type Config struct {
	LDAP      LDAPConfig
	Auth      AuthConfig
	SambaTool SambaToolConfig

	AuditDBPath string // path to the SQLite audit store
	ListenAddr  string // HTTP listen address (default ":8080")
	LogLevel    string // log level: debug, info, warn, error (default "info")
	Env         string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// HealthCheckSchedule is the cron spec for the background dbcheck
	// probe. "off" disables it.
	HealthCheckSchedule string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HealthMonitorEnabled reports whether the background health probe should run.
func (c *Config) HealthMonitorEnabled() bool {
	return c.HealthCheckSchedule != "" && !strings.EqualFold(c.HealthCheckSchedule, "off")
}

// LoadFromEnv loads configuration from environment variables. When
// CONFIG_FILE is set, the YAML file it names fills in anything the
// environment leaves unset.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		LDAP: LDAPConfig{
			URL:          os.Getenv("LDAP_URL"),
			BindDN:       os.Getenv("LDAP_BIND_DN"),
			BindPassword: os.Getenv("LDAP_BIND_CREDENTIALS"),
			SearchBase:   os.Getenv("LDAP_SEARCH_BASE"),
			GroupBaseDN:  os.Getenv("LDAP_GROUP_BASE_DN"),
		},
		Auth: AuthConfig{
			AuthorizedGroupDN: os.Getenv("AUTHORIZED_GROUP_DN"),
			JWTSecret:         os.Getenv("JWT_SECRET"),
			RecheckMembership: parseBoolEnvDefault("AUTH_RECHECK_MEMBERSHIP", false),
		},
		SambaTool: SambaToolConfig{
			Path:    os.Getenv("SMB_TOOL_PATH"),
			Enabled: parseBoolEnvDefault("SMB_TOOL_ENABLED", false),
			DCHost:  os.Getenv("DC_HOST"),
		},
		AuditDBPath:         os.Getenv("AUDIT_DB_PATH"),
		ListenAddr:          os.Getenv("LISTEN_ADDR"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		Env:                 os.Getenv("ENV"),
		HealthCheckSchedule: os.Getenv("HEALTH_CHECK_SCHEDULE"),
	}

	var err error
	if cfg.LDAP.Timeout, err = parseDurationEnv("LDAP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenTTL, err = parseDurationEnv("TOKEN_TTL"); err != nil {
		return nil, err
	}
	if cfg.SambaTool.Timeout, err = parseDurationEnv("SMB_TOOL_TIMEOUT"); err != nil {
		return nil, err
	}
	if v := os.Getenv("SMB_TOOL_MAX_OUTPUT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("SMB_TOOL_MAX_OUTPUT must be a positive byte count, got %q", v)
		}
		cfg.SambaTool.MaxOutput = n
	}
	if v := os.Getenv("PASSWORD_MIN_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("PASSWORD_MIN_LENGTH must be a positive integer, got %q", v)
		}
		cfg.SambaTool.PasswordMinLength = n
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = compactNonEmpty(splitTrim(v))
	}

	// Required directory settings
	var missing []string
	for _, req := range []struct{ key, val string }{
		{"LDAP_URL", cfg.LDAP.URL},
		{"LDAP_BIND_DN", cfg.LDAP.BindDN},
		{"LDAP_BIND_CREDENTIALS", cfg.LDAP.BindPassword},
		{"LDAP_SEARCH_BASE", cfg.LDAP.SearchBase},
		{"AUTHORIZED_GROUP_DN", cfg.Auth.AuthorizedGroupDN},
	} {
		if req.val == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	// Defaults
	if cfg.LDAP.GroupBaseDN == "" {
		cfg.LDAP.GroupBaseDN = cfg.LDAP.SearchBase
	}
	if cfg.LDAP.Timeout == 0 {
		cfg.LDAP.Timeout = 10 * time.Second
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = time.Hour
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DefaultJWTSecret
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure default. Set JWT_SECRET in production!")
	}
	if cfg.SambaTool.Path == "" {
		cfg.SambaTool.Path = defaultSambaToolPath
	}
	if cfg.SambaTool.Timeout == 0 {
		cfg.SambaTool.Timeout = 30 * time.Second
	}
	if cfg.SambaTool.MaxOutput == 0 {
		cfg.SambaTool.MaxOutput = 1 << 20
	}
	if cfg.SambaTool.PasswordMinLength == 0 {
		cfg.SambaTool.PasswordMinLength = 8
	}
	if cfg.SambaTool.DCHost == "" {
		cfg.SambaTool.DCHost = "localhost"
	}
	if !cfg.SambaTool.Enabled {
		cfg.Warnings = append(cfg.Warnings, "SMB_TOOL_ENABLED is false: samba-tool commands run in dry-run mode")
	}
	if cfg.AuditDBPath == "" {
		cfg.AuditDBPath = "sentinel_audit.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.HealthCheckSchedule == "" {
		cfg.HealthCheckSchedule = defaultHealthCron
	}
	if strings.HasPrefix(strings.ToLower(cfg.LDAP.URL), "ldap://") {
		cfg.Warnings = append(cfg.Warnings, "LDAP_URL uses plaintext ldap://; user credentials are sent unencrypted")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.Auth.JWTSecret == DefaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.Auth.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseDurationEnv(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration like 30s or 1h, got %q", key, v)
	}
	return d, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func splitTrim(v string) []string {
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if err := setIfUnset(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// setIfUnset sets key only when the environment does not already carry a
// value (env vars take precedence over files).
func setIfUnset(key, value string) error {
	if os.Getenv(key) != "" {
		return nil
	}
	if err := os.Setenv(key, value); err != nil {
		return fmt.Errorf("setenv %s: %w", key, err)
	}
	return nil
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
