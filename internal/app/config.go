package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/yungbote/eigo-backend/internal/data/db"
	"github.com/yungbote/eigo-backend/internal/observability"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devSessionSecret = "eigo-dev-session-secret-not-for-production"
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Config struct {
	Env         string
	Port        string
	LogMode     string
	DB          db.Options
	Google      GoogleConfig
	FrontendURL string
	CORSOrigins []string

	SessionSecret string
	AdminEmails   []string

	RedisAddr     string
	RedisPassword string

	MetricsAddr string
	Otel        observability.OtelConfig

	ShutdownTimeout time.Duration
}

func (c Config) IsProduction() bool { return c.Env == EnvProduction }

var defaults = map[string]any{
	"app_env":              EnvDevelopment,
	"port":                 "8080",
	"log_mode":             EnvDevelopment,
	"db_driver":            db.DriverPostgres,
	"sqlite_path":          "eigo.db",
	"google_redirect_url":  "http://localhost:8080/auth/google/callback",
	"frontend_url":         "http://localhost:5173",
	"otel_enabled":         false,
	"otel_service_name":    "eigo-backend",
	"otel_sample_ratio":    1.0,
	"otel_insecure":        false,
	"shutdown_timeout_sec": 15,
}

// LoadConfig layers defaults, the optional YAML file named by CONFIG_FILE, the
// environment, and finally any flags explicitly set on fs (which may be nil).
// Keys are the lower-cased environment names: DATABASE_URL is database_url.
func LoadConfig(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return Config{}, fmt.Errorf("config default %s: %w", key, err)
		}
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	if fs != nil {
		p := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
		})
		if err := k.Load(p, nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := fromKoanf(k)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey keeps only variables without dots, lower-cased.
func envKey(s string) string {
	if strings.Contains(s, ".") {
		return ""
	}
	return strings.ToLower(s)
}

func fromKoanf(k *koanf.Koanf) Config {
	appEnv := strings.ToLower(strings.TrimSpace(k.String("app_env")))
	cfg := Config{
		Env:     appEnv,
		Port:    strings.TrimPrefix(strings.TrimSpace(k.String("port")), ":"),
		LogMode: k.String("log_mode"),
		DB: db.Options{
			Driver:      strings.ToLower(strings.TrimSpace(k.String("db_driver"))),
			DatabaseURL: k.String("database_url"),
			SQLitePath:  k.String("sqlite_path"),
		},
		Google: GoogleConfig{
			ClientID:     k.String("google_client_id"),
			ClientSecret: k.String("google_client_secret"),
			RedirectURL:  k.String("google_redirect_url"),
		},
		FrontendURL:     strings.TrimRight(k.String("frontend_url"), "/"),
		CORSOrigins:     splitList(k.String("cors_origins")),
		SessionSecret:   k.String("session_secret"),
		AdminEmails:     splitList(k.String("admin_emails")),
		RedisAddr:       strings.TrimSpace(k.String("redis_addr")),
		RedisPassword:   k.String("redis_password"),
		MetricsAddr:     strings.TrimSpace(k.String("metrics_addr")),
		ShutdownTimeout: time.Duration(k.Int("shutdown_timeout_sec")) * time.Second,
		Otel: observability.OtelConfig{
			Enabled:     k.Bool("otel_enabled"),
			ServiceName: k.String("otel_service_name"),
			Environment: appEnv,
			Version:     k.String("app_version"),
			Endpoint:    k.String("otel_exporter_otlp_endpoint"),
			Headers:     observability.ParseHeaders(k.String("otel_exporter_otlp_headers")),
			Insecure:    k.Bool("otel_insecure"),
			SampleRatio: k.Float64("otel_sample_ratio"),
		},
	}
	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		cfg.SessionSecret = devSessionSecret
	}
	return cfg
}

func (c Config) validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction, "test":
	default:
		return fmt.Errorf("APP_ENV must be development, production or test, got %q", c.Env)
	}
	switch c.DB.Driver {
	case db.DriverPostgres:
		if strings.TrimSpace(c.DB.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case db.DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	if c.IsProduction() {
		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in production")
		}
		if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required in production")
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
