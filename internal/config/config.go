// Package config loads runtime settings for the taskmanager server.
//
// Values are layered, later sources winning: built-in defaults, an optional
// YAML file, a .env file in the working directory, then the process
// environment. Command-line flags are applied by the caller on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string `yaml:"addr"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`

	// AllowedOrigins lists the origins accepted by CORS and the live
	// WebSocket endpoint.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Admin, when both fields are set, is created at startup if missing.
	Admin AdminConfig `yaml:"admin"`
}

type DatabaseConfig struct {
	// Driver is one of postgres, mysql, sqlite.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	CookieDomain string        `yaml:"cookie_domain"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func Default() Config {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	return Config{
		Addr: ":3000",
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "taskmanager.db",
		},
		Auth: AuthConfig{
			TokenTTL:     168 * time.Hour,
			CookieSecure: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		AllowedOrigins: origins,
	}
}

// Load builds the configuration. path may be empty, in which case no YAML
// file is read.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)

		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}

	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.CookieDomain, "COOKIE_DOMAIN")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Admin.Username, "ADMIN_USERNAME")
	setString(&c.Admin.Password, "ADMIN_PASSWORD")

	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", ttl, err)
		}
		c.Auth.TokenTTL = d
	}

	if secure := os.Getenv("COOKIE_SECURE"); secure != "" {
		b, err := strconv.ParseBool(secure)
		if err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE %q: %w", secure, err)
		}
		c.Auth.CookieSecure = b
	}

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		c.AllowedOrigins = append(c.AllowedOrigins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, trimmed)
			}
		}
	}

	return nil
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is not set (JWT_SECRET or auth.jwt_secret)")
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return errors.New("database DSN is not set (DATABASE_URL or database.dsn)")
	}

	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		return errors.New("admin username and password must be set together")
	}

	for _, origin := range c.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("allowed origin %q must start with http:// or https://", origin)
		}
	}

	return nil
}
