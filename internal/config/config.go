package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AutoMigrate     bool          `mapstructure:"AUTO_MIGRATE"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`

	TelegramBotToken    string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIEndpoint string        `mapstructure:"TELEGRAM_API_ENDPOINT"`
	NotifyTimeout       time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
	NotifyWait          time.Duration `mapstructure:"NOTIFY_WAIT"`
	AutomationWebhook   string        `mapstructure:"AUTOMATION_WEBHOOK_URL"`
	RabbitMQURL         string        `mapstructure:"RABBITMQ_URL"`

	PaymobAPIKey        string `mapstructure:"PAYMOB_API_KEY"`
	PaymobBaseURL       string `mapstructure:"PAYMOB_BASE_URL"`
	PaymobIntegrationID int    `mapstructure:"PAYMOB_INTEGRATION_ID"`
	PaymobHMACSecret    string `mapstructure:"PAYMOB_HMAC_SECRET"`
	PaymobAmountCents   int    `mapstructure:"PAYMOB_AMOUNT_CENTS"`
	PaymobCurrency      string `mapstructure:"PAYMOB_CURRENCY"`
	PaymobIframeID      string `mapstructure:"PAYMOB_IFRAME_ID"`

	SubscriptionDays     int           `mapstructure:"SUBSCRIPTION_DAYS"`
	SubscriptionCacheTTL time.Duration `mapstructure:"SUBSCRIPTION_CACHE_TTL"`
	ExpirationTick       time.Duration `mapstructure:"EXPIRATION_TICK"`

	MailHost string `mapstructure:"MAIL_HOST"`
	MailPort int    `mapstructure:"MAIL_PORT"`
	MailUser string `mapstructure:"MAIL_USER"`
	MailPass string `mapstructure:"MAIL_PASS"`
	MailFrom string `mapstructure:"MAIL_FROM"`

	OTLPEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELSampleRatio float64 `mapstructure:"OTEL_SAMPLE_RATIO"`

	IntakeRateLimit int `mapstructure:"INTAKE_RATE_LIMIT"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("TELEGRAM_API_ENDPOINT", "https://api.telegram.org/bot%s/%s")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("NOTIFY_WAIT", "3s")
	v.SetDefault("PAYMOB_BASE_URL", "https://accept.paymob.com/api")
	v.SetDefault("PAYMOB_AMOUNT_CENTS", 50000)
	v.SetDefault("PAYMOB_CURRENCY", "EGP")
	v.SetDefault("SUBSCRIPTION_DAYS", 30)
	v.SetDefault("SUBSCRIPTION_CACHE_TTL", "60s")
	v.SetDefault("EXPIRATION_TICK", "1m")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@leadflow.app")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
	v.SetDefault("INTAKE_RATE_LIMIT", 60)

	// AutomaticEnv only resolves keys viper already knows about.
	for _, k := range []string{
		"DATABASE_URL", "SESSION_SECRET", "TELEGRAM_BOT_TOKEN", "AUTOMATION_WEBHOOK_URL",
		"RABBITMQ_URL", "PAYMOB_API_KEY", "PAYMOB_INTEGRATION_ID", "PAYMOB_HMAC_SECRET",
		"PAYMOB_IFRAME_ID", "MAIL_HOST", "MAIL_USER", "MAIL_PASS", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// MarshalZerologObject logs the config with secrets masked.
func (c Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("env", c.Env).
		Str("port", c.Port).
		Str("database_url", mask(c.DatabaseURL)).
		Bool("auto_migrate", c.AutoMigrate).
		Str("telegram_bot_token", mask(c.TelegramBotToken)).
		Dur("notify_timeout", c.NotifyTimeout).
		Dur("notify_wait", c.NotifyWait).
		Str("automation_webhook_url", c.AutomationWebhook).
		Bool("rabbitmq", c.RabbitMQURL != "").
		Str("paymob_api_key", mask(c.PaymobAPIKey)).
		Str("paymob_hmac_secret", mask(c.PaymobHMACSecret)).
		Str("otlp_endpoint", c.OTLPEndpoint)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
