package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrMissingCredentials is returned when dispatch credentials are absent.
var ErrMissingCredentials = eris.New("config: missing required settings")

// Config holds the full application configuration.
type Config struct {
	Twilio     TwilioConfig     `yaml:"twilio" mapstructure:"twilio"`
	Dispatch   DispatchConfig   `yaml:"dispatch" mapstructure:"dispatch"`
	Campaign   CampaignConfig   `yaml:"campaign" mapstructure:"campaign"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Split      SplitConfig      `yaml:"split" mapstructure:"split"`
	Scorer     ScorerConfig     `yaml:"scorer" mapstructure:"scorer"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// TwilioConfig holds Twilio account credentials and the WhatsApp sender.
type TwilioConfig struct {
	AccountSID     string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken      string `yaml:"auth_token" mapstructure:"auth_token"`
	WhatsAppNumber string `yaml:"whatsapp_number" mapstructure:"whatsapp_number"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	ContentURL     string `yaml:"content_url" mapstructure:"content_url"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DispatchConfig configures the send engine.
type DispatchConfig struct {
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // messages per second
	MaxAttempts    int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	TestLimit      int     `yaml:"test_limit" mapstructure:"test_limit"`
	ProgressEvery  int     `yaml:"progress_every" mapstructure:"progress_every"`
	RetryableCodes []int   `yaml:"retryable_codes" mapstructure:"retryable_codes"`
}

// CampaignConfig describes the campaign and its message templates.
type CampaignConfig struct {
	Name      string                    `yaml:"name" mapstructure:"name"`
	PromoCode string                    `yaml:"promo_code" mapstructure:"promo_code"`
	URL       string                    `yaml:"url" mapstructure:"url"`
	Templates map[string]TemplateConfig `yaml:"templates" mapstructure:"templates"`
}

// TemplateConfig describes one approved WhatsApp content template.
type TemplateConfig struct {
	SID        string `yaml:"sid" mapstructure:"sid"`
	Name       string `yaml:"name" mapstructure:"name"`
	UTMContent string `yaml:"utm_content" mapstructure:"utm_content"`
	Focus      string `yaml:"focus" mapstructure:"focus"`
}

// PipelineConfig configures contact cleaning.
type PipelineConfig struct {
	CountryPrefix string `yaml:"country_prefix" mapstructure:"country_prefix"`
	DomesticOnly  bool   `yaml:"domestic_only" mapstructure:"domestic_only"`
}

// SplitConfig configures test group assignment.
type SplitConfig struct {
	Groups []string `yaml:"groups" mapstructure:"groups"`
	Seed   uint64   `yaml:"seed" mapstructure:"seed"`
}

// ScorerConfig holds the quality score signal weights used to pick the
// surviving record among duplicates.
type ScorerConfig struct {
	EmailBonus      int      `yaml:"email_bonus" mapstructure:"email_bonus"`
	CleanNameBonus  int      `yaml:"clean_name_bonus" mapstructure:"clean_name_bonus"`
	StructuredBonus int      `yaml:"structured_bonus" mapstructure:"structured_bonus"`
	LengthPenalty   int      `yaml:"length_penalty" mapstructure:"length_penalty"`
	MinNameLength   int      `yaml:"min_name_length" mapstructure:"min_name_length"`
	MaxNameLength   int      `yaml:"max_name_length" mapstructure:"max_name_length"`
	ParasiticWords  []string `yaml:"parasitic_words" mapstructure:"parasitic_words"`
}

// PricingConfig holds per-message pricing.
type PricingConfig struct {
	PerMessage float64 `yaml:"per_message" mapstructure:"per_message"`
	Currency   string  `yaml:"currency" mapstructure:"currency"`
}

// OutputConfig configures where prepared files and results are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// MonitoringConfig configures post-send alerting.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"` // 0.0-1.0
	MinAttempts          int     `yaml:"min_attempts" mapstructure:"min_attempts"`
	CostThresholdUSD     float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"` // 0 disables
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to the unprefixed variable names existing .env
// files use.
var legacyEnv = map[string]string{
	"twilio.account_sid":       "TWILIO_ACCOUNT_SID",
	"twilio.auth_token":        "TWILIO_AUTH_TOKEN",
	"twilio.whatsapp_number":   "TWILIO_WHATSAPP_NUMBER",
	"dispatch.rate_limit":      "RATE_LIMIT",
	"campaign.name":            "CAMPAIGN_NAME",
	"campaign.promo_code":      "PROMO_CODE",
	"campaign.url":             "CAMPAIGN_URL",
	"campaign.templates.a.sid": "TEMPLATE_A_SID",
	"campaign.templates.b.sid": "TEMPLATE_B_SID",
	"campaign.templates.c.sid": "TEMPLATE_C_SID",
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CAMPAIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "CAMPAIGN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("twilio.base_url", "https://api.twilio.com")
	v.SetDefault("twilio.content_url", "https://content.twilio.com")
	v.SetDefault("twilio.timeout_secs", 30)
	v.SetDefault("dispatch.rate_limit", 10)
	v.SetDefault("dispatch.max_attempts", 3)
	v.SetDefault("dispatch.test_limit", 5)
	v.SetDefault("dispatch.progress_every", 100)
	v.SetDefault("dispatch.retryable_codes", []int{20429, 20003, 20005})
	v.SetDefault("campaign.name", "noel2025")
	v.SetDefault("campaign.promo_code", "NOEL15")
	v.SetDefault("campaign.url", "https://www.elit-parking.fr/")
	v.SetDefault("campaign.templates.a.name", "elit_noel_offre_choc")
	v.SetDefault("campaign.templates.a.utm_content", "templateA")
	v.SetDefault("campaign.templates.a.focus", "Value proposition - Rational decision-making")
	v.SetDefault("campaign.templates.b.name", "elit_noel_urgence")
	v.SetDefault("campaign.templates.b.utm_content", "templateB")
	v.SetDefault("campaign.templates.b.focus", "Urgency & FOMO - Scarcity principle")
	v.SetDefault("campaign.templates.c.name", "elit_noel_solution")
	v.SetDefault("campaign.templates.c.utm_content", "templateC")
	v.SetDefault("campaign.templates.c.focus", "Problem-Solution - Pain point resolution")
	v.SetDefault("pipeline.country_prefix", "+33")
	v.SetDefault("pipeline.domestic_only", true)
	v.SetDefault("split.groups", []string{"A", "B", "C"})
	v.SetDefault("split.seed", 42)
	v.SetDefault("scorer.email_bonus", 10)
	v.SetDefault("scorer.clean_name_bonus", 5)
	v.SetDefault("scorer.structured_bonus", 3)
	v.SetDefault("scorer.length_penalty", 5)
	v.SetDefault("scorer.min_name_length", 3)
	v.SetDefault("scorer.max_name_length", 50)
	v.SetDefault("scorer.parasitic_words", []string{"doit", "lavage", "impoli", "route", "gardee", "effectuer", "portail"})
	v.SetDefault("pricing.per_message", 0.005)
	v.SetDefault("pricing.currency", "USD")
	v.SetDefault("output.dir", "outputs")
	v.SetDefault("monitoring.failure_rate_threshold", 0.10)
	v.SetDefault("monitoring.min_attempts", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by the given command mode.
// Supported modes: "prepare", "send" and "verify" (template lookup, which
// needs API credentials only).
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "prepare":
		errs = append(errs, c.validatePipeline()...)
	case "send":
		if missing := c.missingDispatch(); len(missing) > 0 {
			return eris.Wrapf(ErrMissingCredentials, "%s", strings.Join(missing, "; "))
		}
		errs = append(errs, c.validateDispatch()...)
	case "verify":
		if missing := c.missingCredentials(); len(missing) > 0 {
			return eris.Wrapf(ErrMissingCredentials, "%s", strings.Join(missing, "; "))
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) missingDispatch() []string {
	missing := c.missingCredentials()
	if c.Twilio.WhatsAppNumber == "" {
		missing = append(missing, "twilio.whatsapp_number is required (TWILIO_WHATSAPP_NUMBER)")
	}
	return missing
}

func (c *Config) missingCredentials() []string {
	var missing []string
	if c.Twilio.AccountSID == "" {
		missing = append(missing, "twilio.account_sid is required (TWILIO_ACCOUNT_SID)")
	}
	if c.Twilio.AuthToken == "" {
		missing = append(missing, "twilio.auth_token is required (TWILIO_AUTH_TOKEN)")
	}
	return missing
}

func (c *Config) validateDispatch() []string {
	var errs []string
	if c.Dispatch.RateLimit <= 0 {
		errs = append(errs, "dispatch.rate_limit must be > 0")
	}
	if c.Dispatch.MaxAttempts < 1 {
		errs = append(errs, "dispatch.max_attempts must be >= 1")
	}
	if c.Dispatch.TestLimit < 0 {
		errs = append(errs, "dispatch.test_limit must be >= 0")
	}
	return errs
}

func (c *Config) validatePipeline() []string {
	var errs []string
	if c.Pipeline.DomesticOnly && !strings.HasPrefix(c.Pipeline.CountryPrefix, "+") {
		errs = append(errs, fmt.Sprintf("pipeline.country_prefix must start with '+', got %q", c.Pipeline.CountryPrefix))
	}
	if len(c.Split.Groups) == 0 {
		errs = append(errs, "split.groups must not be empty")
	}
	seen := make(map[string]bool, len(c.Split.Groups))
	for _, g := range c.Split.Groups {
		if seen[g] {
			errs = append(errs, fmt.Sprintf("split.groups contains duplicate %q", g))
		}
		seen[g] = true
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
