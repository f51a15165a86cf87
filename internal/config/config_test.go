package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp switches to an empty directory so no config.yaml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "comps.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 20.0, cfg.Server.RateLimitRPS, 0.001)
	assert.Equal(t, 40, cfg.Server.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrency)

	v := cfg.Valuation
	assert.InDelta(t, 35.0, v.Comps.TypeWeight, 0.001)
	assert.Equal(t, 180, v.Comps.DefaultDaysBack)
	assert.Equal(t, 3, v.Comps.MinQualified)
	assert.True(t, v.Comps.ExpandSearch)
	require.Contains(t, v.Repair.Rates, "moderate")
	assert.InDelta(t, 45.0, v.Repair.Rates["moderate"].FullRehab, 0.001)
	assert.InDelta(t, 10.0, v.Repair.Rates["cosmetic"].Cosmetic, 0.001)
	assert.Equal(t, "moderate", v.Repair.DefaultScope)
	assert.InDelta(t, 0.65, v.MAO.RulePct, 0.001)
	assert.InDelta(t, 25.0, v.Bid.DefaultTargetROI, 0.001)
	assert.InDelta(t, 0.30, v.Lien.AutoRejectRatio, 0.001)
	assert.Contains(t, v.Lien.SurvivingTypes, "irs")
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/comps
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  max_concurrency: 4
valuation:
  mao:
    rule_pct: 0.7
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/comps", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrency)
	assert.InDelta(t, 0.7, cfg.Valuation.MAO.RulePct, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.60, cfg.Valuation.MAO.ConservativePct, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("COMPS_STORE_DRIVER", "postgres")
	t.Setenv("COMPS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("COMPS_SERVER_PORT", "3000")
	t.Setenv("COMPS_VALUATION_BID_DEFAULT_TARGET_ROI", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 30.0, cfg.Valuation.Bid.DefaultTargetROI, 0.001)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("COMPS_BATCH_MAX_CONCURRENCY=12\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("COMPS_BATCH_MAX_CONCURRENCY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Batch.MaxConcurrency)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the fields Validate inspects populated.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Batch.MaxConcurrency = 8
	cfg.Server.Port = 8080
	cfg.Server.RateLimitRPS = 20
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "comps.db"
	return cfg
}

func TestValidate_Modes(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"analyze", "bid", "title-risk", "validate", "batch", "import", "recommendations", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_CoreModesIgnoreStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "oracle"
	cfg.Store.DatabaseURL = ""

	assert.NoError(t, cfg.Validate("bid"))
	assert.NoError(t, cfg.Validate("analyze"))

	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_NegativeRateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimitRPS = -1

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_limit_rps")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.MaxConcurrency = 0
	err := cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrency must be between 1 and 64")

	cfg.Batch.MaxConcurrency = 65
	assert.Error(t, cfg.Validate("batch"))

	cfg.Batch.MaxConcurrency = 64
	assert.NoError(t, cfg.Validate("batch"))
}
