package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	AutoMigrate         bool
	SuperAdminEmails    []string // SUPER_ADMIN_EMAILS, comma separated; compared case-insensitively
	SupabaseJWTSecret   string   // optional; enables Authorization: Bearer tokens issued by the hosted auth provider
	SupabaseURL         string   // storage API root for signed image uploads
	SupabaseSecretKey   string   // service_role key; uploads are disabled without it
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	GeminiAPIKey        string
	GeminiModel         string
	GeminiAPIURL        string
	ChatTimeout         time.Duration
	ChatRateLimit       int // requests per minute per IP on the chat route
	SendGridAPIKey      string
	MailFrom            string
	AppBaseURL          string // used in password reset links
	SentryDSN           string
	LogLevel            string
	LogFormat           string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta/models")
	viper.SetDefault("CHAT_TIMEOUT", "30s")
	viper.SetDefault("CHAT_RATE_LIMIT", 20)
	viper.SetDefault("MAIL_FROM", "noreply@serviceloop.org")
	viper.SetDefault("APP_BASE_URL", "http://localhost:5173")
	viper.SetDefault("LOG_LEVEL", "info")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = viper.GetString("NODE_ENV")
	}
	if env == "" {
		env = "development"
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		DatabaseURL:         databaseURL(env),
		RedisURL:            viper.GetString("REDIS_URL"),
		AutoMigrate:         env != "production" || strings.EqualFold(viper.GetString("AUTO_MIGRATE"), "true"),
		SuperAdminEmails:    splitCSV(viper.GetString("SUPER_ADMIN_EMAILS")),
		SupabaseJWTSecret:   viper.GetString("SUPABASE_JWT_SECRET"),
		SupabaseURL:         strings.TrimRight(viper.GetString("SUPABASE_URL"), "/"),
		SupabaseSecretKey:   viper.GetString("SUPABASE_SECRET_KEY"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		GeminiAPIKey:        viper.GetString("GEMINI_API_KEY"),
		GeminiModel:         viper.GetString("GEMINI_MODEL"),
		GeminiAPIURL:        strings.TrimRight(viper.GetString("GEMINI_API_URL"), "/"),
		ChatTimeout:         viper.GetDuration("CHAT_TIMEOUT"),
		ChatRateLimit:       viper.GetInt("CHAT_RATE_LIMIT"),
		SendGridAPIKey:      viper.GetString("SENDGRID_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		AppBaseURL:          strings.TrimRight(viper.GetString("APP_BASE_URL"), "/"),
		SentryDSN:           viper.GetString("SENTRY_DSN"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		LogFormat:           viper.GetString("LOG_FORMAT"),
	}, nil
}

// databaseURL prefers DATABASE_URL and falls back to the per-env variants.
func databaseURL(env string) string {
	if u := viper.GetString("DATABASE_URL"); u != "" {
		return u
	}
	switch env {
	case "production":
		return viper.GetString("DATABASE_URL_PROD")
	case "test":
		return viper.GetString("DATABASE_URL_TEST")
	default:
		return viper.GetString("DATABASE_URL_DEV")
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
