package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var configKeys = []string{
	"APP_PORT", "LOG_LEVEL", "DATABASE_DRIVER", "DATABASE_URL",
	"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN", "WHATSAPP_BASE_URL",
	"WHATSAPP_API_VERSION", "WHATSAPP_REPORT_RECIPIENT",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "TARGETS_SHEET_RANGE", "TARGETS_FILE",
	"REPORT_CRON_SCHEDULE", "TIMEZONE", "MONGODB_URI", "MONGODB_DB_NAME",
	"REPORT_S3_BUCKET", "REPORT_S3_REGION", "REPORT_S3_ENDPOINT", "REPORT_S3_PATH_STYLE",
}

// clearEnv blanks every key for the duration of the test. Blank values fall
// back to defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Database.Driver != "sqlite" || cfg.Reporting.CronSchedule != "0 20 * * 5" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.WhatsApp.Enabled() || cfg.Sheets.Enabled() || cfg.MongoDB.Enabled() || cfg.S3.Enabled() {
		t.Errorf("optional integrations should be disabled by default: %+v", cfg)
	}
	if cfg.Targets.SheetRange != "Targets!A:F" {
		t.Errorf("sheet range = %q", cfg.Targets.SheetRange)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range []string{"APP_PORT", "DATABASE_DRIVER", "REPORT_S3_BUCKET", "REPORT_S3_PATH_STYLE"} {
		// godotenv does not override variables that are already set, even when
		// blank. t.Setenv restores them after the test.
		os.Unsetenv(k)
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9090\nDATABASE_DRIVER=Postgres\nREPORT_S3_BUCKET=reports\nREPORT_S3_PATH_STYLE=TRUE\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Database.Driver != "postgres" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.S3.Enabled() || !cfg.S3.PathStyle {
		t.Errorf("s3 = %+v", cfg.S3)
	}
}

func validConfig() Config {
	return Config{
		Server:    ServerConfig{Port: "8080"},
		Log:       LogConfig{Level: "info"},
		Database:  DatabaseConfig{Driver: "sqlite", URL: "aviario.db"},
		WhatsApp:  WhatsAppConfig{BaseURL: "https://graph.facebook.com", APIVersion: "v20.0"},
		Targets:   TargetsConfig{SheetRange: "Targets!A:F"},
		Reporting: ReportingConfig{CronSchedule: "0 20 * * 5", Timezone: "UTC"},
		MongoDB:   MongoDBConfig{DBName: "aviario"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "DATABASE_DRIVER"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "LOG_LEVEL"},
		{"token without phone", func(c *Config) { c.WhatsApp.AccessToken = "t" }, "WHATSAPP_PHONE_NUMBER_ID"},
		{"phone without token", func(c *Config) { c.WhatsApp.PhoneNumberID = "p" }, "WHATSAPP_TOKEN"},
		{"whatsapp complete", func(c *Config) { c.WhatsApp.AccessToken, c.WhatsApp.PhoneNumberID = "t", "p" }, ""},
		{"sheet without credentials", func(c *Config) { c.Sheets.SpreadsheetID = "id" }, "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{"mongo without db", func(c *Config) { c.MongoDB.URI, c.MongoDB.DBName = "mongodb://x", "" }, "MONGODB_DB_NAME"},
		{"bad cron", func(c *Config) { c.Reporting.CronSchedule = "every friday" }, "REPORT_CRON_SCHEDULE"},
		{"bad timezone", func(c *Config) { c.Reporting.Timezone = "Mars/Olympus" }, "TIMEZONE"},
		{"no port", func(c *Config) { c.Server.Port = "" }, "APP_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
