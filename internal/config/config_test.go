package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("ER_DB_URL", "postgres://er:er@localhost:5432/er")
	t.Setenv("ER_DECLARATION_PROCESSOR_ID", "08797")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, int32(20), cfg.DB.MaxConns)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CompanyTTL)
	assert.Equal(t, "Europe/Amsterdam", cfg.Declaration.Timezone)
	assert.Equal(t, 1, cfg.Declaration.RunDay)
	assert.True(t, cfg.Development())

	_, ok := cfg.CollectorID()
	assert.False(t, ok)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ER_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ER_DECLARATION_RUN_DAY", "5")
	t.Setenv("ER_IMPORT_COLLECTOR_ID", "0190c1a2-7d6e-7c11-9d3e-5c1f4b2a9e01")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Declaration.RunDay)
	cid, ok := cfg.CollectorID()
	assert.True(t, ok)
	assert.Equal(t, "0190c1a2-7d6e-7c11-9d3e-5c1f4b2a9e01", cid.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing processor", map[string]string{"ER_DECLARATION_PROCESSOR_ID": ""}},
		{"run day", map[string]string{"ER_DECLARATION_RUN_DAY": "31"}},
		{"timezone", map[string]string{"ER_DECLARATION_TIMEZONE": "Mars/Olympus"}},
		{"collector", map[string]string{"ER_IMPORT_COLLECTOR_ID": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
				if v == "" {
					require.NoError(t, os.Unsetenv(k))
				}
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_Dotenv(t *testing.T) {
	setRequired(t)
	t.Setenv("ER_HTTP_PORT", "")
	require.NoError(t, os.Unsetenv("ER_HTTP_PORT"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ER_HTTP_PORT=9090\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("ER_HTTP_PORT") })

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}
