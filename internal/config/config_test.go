package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "JWT_SECRET", "JWT_TTL", "MONGODB_DB_NAME", "GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID"} {
		t.Setenv(key, "")
	}
	t.Setenv("APP_ENV", "development")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://palm-track.vercel.app ,")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, developmentJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173", "https://palm-track.vercel.app"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "palmtrack", cfg.MongoDB.DBName)
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load("testdata/missing.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_TTL", "a week")

	_, err := Load("testdata/missing.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_TTL")
}

func TestValidateSheetsPair(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: "8080"},
		Auth:      AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
		MongoDB:   MongoDBConfig{URI: "mongodb://localhost:27017", DBName: "palmtrack"},
		Reporting: ReportingConfig{Timezone: "UTC"},
		Sheets:    SheetsConfig{CredentialsPath: "creds.json"},
	}
	require.Error(t, cfg.Validate())

	cfg.Sheets.SpreadsheetID = "sheet"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Sheets.Enabled())
}

func TestLoadSnapshotSchedule(t *testing.T) {
	t.Setenv("JWT_TTL", "")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "")
	t.Setenv("GOOGLE_SHEET_DATABASE_ID", "")
	t.Setenv("APP_ENV", "development")
	t.Setenv("TIMEZONE", "Asia/Kolkata")

	t.Setenv("SNAPSHOT_CRON_SCHEDULE", "")
	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)
	assert.Empty(t, cfg.Reporting.CronSchedule, "explicitly empty disables snapshots")

	t.Setenv("SNAPSHOT_CRON_SCHEDULE", "30 21 * * *")
	cfg, err = Load("testdata/missing.env")
	require.NoError(t, err)
	assert.Equal(t, "30 21 * * *", cfg.Reporting.CronSchedule)
}
