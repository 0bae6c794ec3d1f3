package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string // postgres DSN, or sqlite:<path> / file:<path> for local runs
	RedisURL            string
	AllowedOriginSuffix string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	RequestTimeout      time.Duration

	// Image host (Cloudinary-compatible). Destroy needs the API key + secret.
	CloudinaryBaseURL      string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string

	BrevoAPIKey string // welcome emails + OTP SMS; empty = log-only notifier
	MailFrom    string
	SMSSender   string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = viper.GetString("DATABASE_URL")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	return &Config{
		Env:                    env,
		Port:                   port,
		LogLevel:               withDefault(viper.GetString("LOG_LEVEL"), "info"),
		SessionSecret:          viper.GetString("SESSION_SECRET"),
		DatabaseURL:            dbURL,
		RedisURL:               viper.GetString("REDIS_URL"),
		AllowedOriginSuffix:    viper.GetString("ALLOWED_ORIGIN_SUFFIX"),
		DevPassword:            viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:      strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:         viper.GetString("HEALTH_ADMIN_KEY"),
		RequestTimeout:         requestTimeout(viper.GetString("REQUEST_TIMEOUT")),
		CloudinaryBaseURL:      withDefault(viper.GetString("CLOUDINARY_BASE_URL"), "https://api.cloudinary.com"),
		CloudinaryCloudName:    viper.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadPreset: withDefault(viper.GetString("CLOUDINARY_UPLOAD_PRESET"), "ml_default"),
		CloudinaryAPIKey:       viper.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    viper.GetString("CLOUDINARY_API_SECRET"),
		BrevoAPIKey:            viper.GetString("BREVO_API_KEY"),
		MailFrom:               viper.GetString("MAIL_FROM"),
		SMSSender:              withDefault(viper.GetString("SMS_SENDER"), "PetAdopt"),
	}, nil
}

// IsProduction reports whether cookies and logging should use production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func withDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// requestTimeout accepts Go durations ("20s") or plain seconds ("20").
func requestTimeout(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 15 * time.Second
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if d, err := time.ParseDuration(s + "s"); err == nil && d > 0 {
		return d
	}
	return 15 * time.Second
}
