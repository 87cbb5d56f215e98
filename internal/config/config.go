// Package config loads taskake settings from .env files and the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	KeyAPIURL       = "TASKAKE_API_URL"
	KeyOrgID        = "TASKAKE_ORG_ID"
	KeyToken        = "TASKAKE_TOKEN"
	KeyUpcomingDays = "TASKAKE_UPCOMING_DAYS"
	KeyHTTPTimeout  = "TASKAKE_HTTP_TIMEOUT"
)

const (
	DefaultAPIURL       = "https://api.halooid.com/v1"
	DefaultOrgID        = "00000000-0000-0000-0000-000000000000"
	DefaultUpcomingDays = 7
	DefaultHTTPTimeout  = 15 * time.Second
)

// Keys lists every recognised configuration key in display order.
var Keys = []string{KeyAPIURL, KeyOrgID, KeyToken, KeyUpcomingDays, KeyHTTPTimeout}

// Config holds the application configuration.
type Config struct {
	APIURL       string
	OrgID        string
	Token        string
	UpcomingDays int
	HTTPTimeout  time.Duration
}

// Load resolves every key with precedence local .env in dir, then the global
// config file (~/.taskake/config), then the environment, then defaults.
// Values that fail to parse are left zero so Validate reports them.
func Load(dir string) *Config {
	localEnvMap, err := godotenv.Read(GetConfigPath(dir))
	if err != nil {
		localEnvMap = make(map[string]string)
	}
	globalEnvMap, err := godotenv.Read(GetGlobalConfigPath())
	if err != nil {
		globalEnvMap = make(map[string]string)
	}

	lookup := func(key, defaultValue string) string {
		if value, ok := localEnvMap[key]; ok && value != "" {
			return value
		}
		if value, ok := globalEnvMap[key]; ok && value != "" {
			return value
		}
		if value := os.Getenv(key); value != "" {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		APIURL: strings.TrimRight(lookup(KeyAPIURL, DefaultAPIURL), "/"),
		OrgID:  lookup(KeyOrgID, DefaultOrgID),
		Token:  lookup(KeyToken, ""),
	}
	if days, err := strconv.Atoi(lookup(KeyUpcomingDays, strconv.Itoa(DefaultUpcomingDays))); err == nil {
		cfg.UpcomingDays = days
	}
	if timeout, err := time.ParseDuration(lookup(KeyHTTPTimeout, DefaultHTTPTimeout.String())); err == nil {
		cfg.HTTPTimeout = timeout
	}
	return cfg
}

// Validate reports every missing or invalid field at once.
func (c *Config) Validate() error {
	var missing, invalid []string

	if c.APIURL == "" {
		missing = append(missing, KeyAPIURL)
	} else if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, KeyAPIURL)
	}
	if c.OrgID == "" {
		missing = append(missing, KeyOrgID)
	} else if _, err := uuid.Parse(c.OrgID); err != nil {
		invalid = append(invalid, KeyOrgID)
	}
	if c.Token == "" {
		missing = append(missing, KeyToken)
	}
	if c.UpcomingDays <= 0 {
		invalid = append(invalid, KeyUpcomingDays)
	}
	if c.HTTPTimeout <= 0 {
		invalid = append(invalid, KeyHTTPTimeout)
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing required configuration fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid configuration fields: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// Values returns the resolved configuration keyed by name, with the token masked.
func (c *Config) Values() map[string]string {
	return map[string]string{
		KeyAPIURL:       c.APIURL,
		KeyOrgID:        c.OrgID,
		KeyToken:        MaskSecret(c.Token),
		KeyUpcomingDays: strconv.Itoa(c.UpcomingDays),
		KeyHTTPTimeout:  c.HTTPTimeout.String(),
	}
}

// MaskSecret masks a secret for display.
func MaskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}

// GetConfigPath returns the full path to the .env file in the given directory.
func GetConfigPath(dir string) string {
	return filepath.Join(dir, ".env")
}

// GetGlobalConfigDir returns ~/.taskake, or .taskake when the home directory
// cannot be determined.
func GetGlobalConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskake"
	}
	return filepath.Join(home, ".taskake")
}

// GetGlobalConfigPath returns the path to the global configuration file.
func GetGlobalConfigPath() string {
	return filepath.Join(GetGlobalConfigDir(), "config")
}

// Set updates or creates a value in the .env file in dir.
func Set(dir, key, value string) error {
	return writeKey(GetConfigPath(dir), key, value)
}

// SetGlobal updates or creates a value in the global config file.
func SetGlobal(key, value string) error {
	if err := os.MkdirAll(GetGlobalConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create global config directory: %w", err)
	}
	return writeKey(GetGlobalConfigPath(), key, value)
}

func writeKey(path, key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown configuration key '%s'", key)
	}
	envMap, err := godotenv.Read(path)
	if err != nil {
		envMap = make(map[string]string)
	}
	envMap[key] = value
	if err := godotenv.Write(envMap, path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
