package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp switches to an empty temp dir so no config.yaml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://api.twilio.com", cfg.Twilio.BaseURL)
	assert.Equal(t, "https://content.twilio.com", cfg.Twilio.ContentURL)
	assert.Equal(t, 30, cfg.Twilio.TimeoutSecs)
	assert.InDelta(t, 10.0, cfg.Dispatch.RateLimit, 0.001)
	assert.Equal(t, 3, cfg.Dispatch.MaxAttempts)
	assert.Equal(t, 5, cfg.Dispatch.TestLimit)
	assert.Equal(t, 100, cfg.Dispatch.ProgressEvery)
	assert.Equal(t, []int{20429, 20003, 20005}, cfg.Dispatch.RetryableCodes)
	assert.Equal(t, "noel2025", cfg.Campaign.Name)
	assert.Equal(t, "NOEL15", cfg.Campaign.PromoCode)
	assert.Equal(t, "https://www.elit-parking.fr/", cfg.Campaign.URL)
	require.Contains(t, cfg.Campaign.Templates, "a")
	assert.Equal(t, "elit_noel_offre_choc", cfg.Campaign.Templates["a"].Name)
	assert.Equal(t, "templateB", cfg.Campaign.Templates["b"].UTMContent)
	assert.Equal(t, "+33", cfg.Pipeline.CountryPrefix)
	assert.True(t, cfg.Pipeline.DomesticOnly)
	assert.Equal(t, []string{"A", "B", "C"}, cfg.Split.Groups)
	assert.Equal(t, uint64(42), cfg.Split.Seed)
	assert.Equal(t, 10, cfg.Scorer.EmailBonus)
	assert.Len(t, cfg.Scorer.ParasiticWords, 7)
	assert.InDelta(t, 0.005, cfg.Pricing.PerMessage, 0.0001)
	assert.Equal(t, "outputs", cfg.Output.Dir)
	assert.InDelta(t, 0.10, cfg.Monitoring.FailureRateThreshold, 1e-9)
	assert.Equal(t, 5, cfg.Monitoring.MinAttempts)
	assert.Empty(t, cfg.Monitoring.WebhookURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
dispatch:
  rate_limit: 2.5
pipeline:
  country_prefix: "+32"
  domestic_only: false
split:
  groups: [X, Y]
  seed: 7
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, 2.5, cfg.Dispatch.RateLimit, 0.001)
	assert.Equal(t, "+32", cfg.Pipeline.CountryPrefix)
	assert.False(t, cfg.Pipeline.DomesticOnly)
	assert.Equal(t, []string{"X", "Y"}, cfg.Split.Groups)
	assert.Equal(t, uint64(7), cfg.Split.Seed)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Dispatch.MaxAttempts)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CAMPAIGN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	chdirTemp(t)

	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_WHATSAPP_NUMBER", "+14155238886")
	t.Setenv("RATE_LIMIT", "4")
	t.Setenv("TEMPLATE_A_SID", "HXaaa")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
	assert.Equal(t, "secret", cfg.Twilio.AuthToken)
	assert.Equal(t, "+14155238886", cfg.Twilio.WhatsAppNumber)
	assert.InDelta(t, 4.0, cfg.Dispatch.RateLimit, 0.001)
	assert.Equal(t, "HXaaa", cfg.Campaign.Templates["a"].SID)
	assert.Equal(t, "elit_noel_offre_choc", cfg.Campaign.Templates["a"].Name)
}

func TestLoadPrefixedEnvWinsOverLegacy(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CAMPAIGN_TWILIO_ACCOUNT_SID", "ACnew")
	t.Setenv("TWILIO_ACCOUNT_SID", "ACold")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ACnew", cfg.Twilio.AccountSID)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CAMPAIGN_OUTPUT_DIR=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CAMPAIGN_OUTPUT_DIR") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Output.Dir)
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

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Twilio.AccountSID = "AC123"
	cfg.Twilio.AuthToken = "secret"
	cfg.Twilio.WhatsAppNumber = "+14155238886"
	cfg.Dispatch.RateLimit = 10
	cfg.Dispatch.MaxAttempts = 3
	cfg.Dispatch.TestLimit = 5
	cfg.Pipeline.CountryPrefix = "+33"
	cfg.Pipeline.DomesticOnly = true
	cfg.Split.Groups = []string{"A", "B", "C"}
	return cfg
}

func TestValidateSend_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("send"))
}

func TestValidateSend_MissingCredentials(t *testing.T) {
	cfg := validDefaults()
	cfg.Twilio.AccountSID = ""
	cfg.Twilio.WhatsAppNumber = ""

	err := cfg.Validate("send")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingCredentials))
	assert.Contains(t, err.Error(), "twilio.account_sid is required")
	assert.Contains(t, err.Error(), "twilio.whatsapp_number is required")
	assert.NotContains(t, err.Error(), "twilio.auth_token")
}

func TestValidateSend_InvalidRateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Dispatch.RateLimit = 0
	cfg.Dispatch.MaxAttempts = 0

	err := cfg.Validate("send")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch.rate_limit must be > 0")
	assert.Contains(t, err.Error(), "dispatch.max_attempts must be >= 1")
}

func TestValidatePrepare(t *testing.T) {
	cfg := validDefaults()
	cfg.Twilio = TwilioConfig{}
	assert.NoError(t, cfg.Validate("prepare"))

	cfg.Split.Groups = []string{"A", "A"}
	cfg.Pipeline.CountryPrefix = "33"
	err := cfg.Validate("prepare")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate \"A\"")
	assert.Contains(t, err.Error(), "country_prefix")

	cfg.Split.Groups = nil
	err = cfg.Validate("prepare")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "split.groups must not be empty")
}

func TestValidateVerify(t *testing.T) {
	cfg := validDefaults()
	cfg.Twilio.WhatsAppNumber = ""
	cfg.Dispatch.RateLimit = 0
	assert.NoError(t, cfg.Validate("verify"))

	cfg.Twilio.AuthToken = ""
	err := cfg.Validate("verify")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingCredentials))
	assert.Contains(t, err.Error(), "twilio.auth_token is required")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
