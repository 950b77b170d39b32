package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/yungbote/eigo-backend/internal/data/db"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "APP_ENV", "PORT", "LOG_MODE", "DB_DRIVER", "DATABASE_URL", "SQLITE_PATH",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL", "SESSION_SECRET",
		"ADMIN_EMAILS", "REDIS_ADDR", "CORS_ORIGINS", "FRONTEND_URL", "METRICS_ADDR",
		"OTEL_ENABLED", "OTEL_SAMPLE_RATIO", "OTEL_EXPORTER_OTLP_HEADERS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaultsWithSQLite(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Env != EnvDevelopment || cfg.Port != "8080" {
		t.Fatalf("unexpected defaults: env=%q port=%q", cfg.Env, cfg.Port)
	}
	if cfg.DB.Driver != db.DriverSQLite || cfg.DB.SQLitePath != "eigo.db" {
		t.Fatalf("unexpected db options: %+v", cfg.DB)
	}
	if cfg.SessionSecret != devSessionSecret {
		t.Fatalf("expected the development session secret")
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("ShutdownTimeout: %v", cfg.ShutdownTimeout)
	}
	if cfg.Otel.Enabled || cfg.Otel.SampleRatio != 1.0 {
		t.Fatalf("unexpected otel config: %+v", cfg.Otel)
	}
}

func TestLoadConfigLayersFileEnvAndFlags(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "eigo.yaml")
	yml := strings.Join([]string{
		"db_driver: postgres",
		"database_url: postgres://file/eigo",
		"port: \"9000\"",
		"admin_emails: a@example.com, b@example.com",
		"otel_enabled: true",
	}, "\n")
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", ":9100")
	t.Setenv("CORS_ORIGINS", "https://eigo.example.com , https://admin.eigo.example.com")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("database-url", "", "")
	fs.String("log-mode", "", "")
	if err := fs.Parse([]string{"--database-url", "postgres://flag/eigo"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadConfig(fs)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.DatabaseURL != "postgres://flag/eigo" {
		t.Fatalf("flag should win over file, got %q", cfg.DB.DatabaseURL)
	}
	if cfg.LogMode != EnvDevelopment {
		t.Fatalf("unset flag must not clobber the default, got %q", cfg.LogMode)
	}
	if cfg.Port != "9100" {
		t.Fatalf("env should win over file, got %q", cfg.Port)
	}
	if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[1] != "b@example.com" {
		t.Fatalf("AdminEmails: %v", cfg.AdminEmails)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://eigo.example.com" {
		t.Fatalf("CORSOrigins: %v", cfg.CORSOrigins)
	}
	if !cfg.Otel.Enabled || cfg.Otel.Headers["x-api-key"] != "abc" {
		t.Fatalf("unexpected otel config: %+v", cfg.Otel)
	}
}

func TestLoadConfigRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"unknown env", map[string]string{"DB_DRIVER": "sqlite", "APP_ENV": "staging"}, "APP_ENV"},
		{"production without secret", map[string]string{
			"DB_DRIVER": "sqlite", "APP_ENV": "production",
			"GOOGLE_CLIENT_ID": "id", "GOOGLE_CLIENT_SECRET": "secret",
		}, "SESSION_SECRET"},
		{"production without google", map[string]string{
			"DB_DRIVER": "sqlite", "APP_ENV": "production",
			"SESSION_SECRET": strings.Repeat("s", 32),
		}, "GOOGLE_CLIENT_ID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(nil)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
