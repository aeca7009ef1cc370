package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("SYSTEM_BASE_CURRENCY", "usd")
	v.SetDefault("FX_CACHE_TTL", "5m")
	v.SetDefault("REVALUATION_WORKERS", 4)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "USD", cfg.SystemBaseCurrency)
	assert.Equal(t, 5*time.Minute, cfg.FXCacheTTL)
	assert.Equal(t, 4, cfg.RevaluationWorkers)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestFromViperPostgresNeedsURL(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{"STORAGE_DRIVER": "postgres"}))
	assert.Error(t, err)

	cfg, err := fromViper(newViper(map[string]any{
		"STORAGE_DRIVER": "POSTGRES",
		"PGSQL_URL":      "postgres://localhost/ledger",
	}))
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
}

func TestFromViperRejectsBadValues(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{"FX_CACHE_TTL": "soon"}))
	assert.Error(t, err)

	_, err = fromViper(newViper(map[string]any{"STORAGE_DRIVER": "sqlite"}))
	assert.Error(t, err)

	_, err = fromViper(newViper(map[string]any{"SYSTEM_BASE_CURRENCY": "dollars"}))
	assert.Error(t, err)

	_, err = fromViper(newViper(map[string]any{"LEDGER_POST_REVALUATION": true}))
	assert.Error(t, err)
}

func TestFromViperParsesOriginsAndWorkers(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example ,",
		"REVALUATION_WORKERS":  0,
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 1, cfg.RevaluationWorkers)
}
