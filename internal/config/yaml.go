package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the environment surface as a YAML document:
//
//	ldap:
//	  url: ldaps://dc1.example.test
//	  bindDN: cn=svc,dc=example,dc=test
//	auth:
//	  authorizedGroupDN: cn=Admins,dc=example,dc=test
//	  tokenTTL: 1h
//	sambaTool:
//	  enabled: true
//
// Scalars are kept as strings so parsing and validation stay in LoadFromEnv.
type fileConfig struct {
	LDAP struct {
		URL             string `yaml:"url"`
		BindDN          string `yaml:"bindDN"`
		BindCredentials string `yaml:"bindCredentials"`
		SearchBase      string `yaml:"searchBase"`
		GroupBaseDN     string `yaml:"groupBaseDN"`
		Timeout         string `yaml:"timeout"`
	} `yaml:"ldap"`
	Auth struct {
		AuthorizedGroupDN string `yaml:"authorizedGroupDN"`
		JWTSecret         string `yaml:"jwtSecret"`
		TokenTTL          string `yaml:"tokenTTL"`
		RecheckMembership string `yaml:"recheckMembership"`
	} `yaml:"auth"`
	SambaTool struct {
		Path              string `yaml:"path"`
		Enabled           string `yaml:"enabled"`
		Timeout           string `yaml:"timeout"`
		MaxOutput         string `yaml:"maxOutput"`
		PasswordMinLength string `yaml:"passwordMinLength"`
		DCHost            string `yaml:"dcHost"`
	} `yaml:"sambaTool"`
	Server struct {
		ListenAddr          string   `yaml:"listenAddr"`
		LogLevel            string   `yaml:"logLevel"`
		Env                 string   `yaml:"env"`
		RateLimitRPS        string   `yaml:"rateLimitRPS"`
		RateLimitBurst      string   `yaml:"rateLimitBurst"`
		CORSAllowedOrigins  []string `yaml:"corsAllowedOrigins"`
		HealthCheckSchedule string   `yaml:"healthCheckSchedule"`
	} `yaml:"server"`
	Audit struct {
		DBPath string `yaml:"dbPath"`
	} `yaml:"audit"`
}

func (f *fileConfig) envPairs() [][2]string {
	return [][2]string{
		{"LDAP_URL", f.LDAP.URL},
		{"LDAP_BIND_DN", f.LDAP.BindDN},
		{"LDAP_BIND_CREDENTIALS", f.LDAP.BindCredentials},
		{"LDAP_SEARCH_BASE", f.LDAP.SearchBase},
		{"LDAP_GROUP_BASE_DN", f.LDAP.GroupBaseDN},
		{"LDAP_TIMEOUT", f.LDAP.Timeout},
		{"AUTHORIZED_GROUP_DN", f.Auth.AuthorizedGroupDN},
		{"JWT_SECRET", f.Auth.JWTSecret},
		{"TOKEN_TTL", f.Auth.TokenTTL},
		{"AUTH_RECHECK_MEMBERSHIP", f.Auth.RecheckMembership},
		{"SMB_TOOL_PATH", f.SambaTool.Path},
		{"SMB_TOOL_ENABLED", f.SambaTool.Enabled},
		{"SMB_TOOL_TIMEOUT", f.SambaTool.Timeout},
		{"SMB_TOOL_MAX_OUTPUT", f.SambaTool.MaxOutput},
		{"PASSWORD_MIN_LENGTH", f.SambaTool.PasswordMinLength},
		{"DC_HOST", f.SambaTool.DCHost},
		{"LISTEN_ADDR", f.Server.ListenAddr},
		{"LOG_LEVEL", f.Server.LogLevel},
		{"ENV", f.Server.Env},
		{"RATE_LIMIT_RPS", f.Server.RateLimitRPS},
		{"RATE_LIMIT_BURST", f.Server.RateLimitBurst},
		{"CORS_ALLOWED_ORIGINS", strings.Join(f.Server.CORSAllowedOrigins, ",")},
		{"HEALTH_CHECK_SCHEDULE", f.Server.HealthCheckSchedule},
		{"AUDIT_DB_PATH", f.Audit.DBPath},
	}
}

// LoadYAML reads a YAML configuration file and exports every value it sets
// into the environment, unless the variable is already set. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func LoadYAML(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if len(strings.TrimSpace(string(data))) == 0 {
			return nil
		}
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	for _, kv := range fc.envPairs() {
		if kv[1] == "" {
			continue
		}
		if err := setIfUnset(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}
