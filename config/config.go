package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Env        string
	Port       string
	CORSOrigin string
	DBURL      string
	JWTSecret  string
	LogLevel   string

	Google    GoogleConfig
	Translate TranslateConfig
	Redis     RedisConfig
	S3        S3Config
	SES       SESConfig
	Media     MediaConfig
	Content   ContentConfig
	Admin     AdminBootstrap
}

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

type TranslateConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type RedisConfig struct {
	URL string
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	CDNURL          string
	BasePath        string
	ForcePathStyle  bool
}

type SESConfig struct {
	Region    string
	From      string
	NotifyTo  []string
	QueueSize int
}

type MediaConfig struct {
	UploadDir string
	PublicURL string
	MaxBytes  int64
}

type ContentConfig struct {
	SourceLanguage string
	MaxRevisions   int
}

type AdminBootstrap struct {
	Email    string
	Password string
	Name     string
}

// LoadEnv reads .env (if present) and the process environment.
// DB_URL and JWT_SECRET are required.
func LoadEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found. Using system environment variables.")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:        v.GetString("APP_ENV"),
		Port:       v.GetString("PORT"),
		CORSOrigin: v.GetString("CORS_ORIGIN"),
		LogLevel:   v.GetString("LOG_LEVEL"),

		Google: GoogleConfig{
			ClientID:         v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret:     v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:      v.GetString("GOOGLE_REDIRECT_URL"),
			FrontendRedirect: v.GetString("GOOGLE_FRONTEND_REDIRECT"),
		},
		Translate: TranslateConfig{
			BaseURL: v.GetString("TRANSLATE_BASE_URL"),
			APIKey:  v.GetString("TRANSLATE_API_KEY"),
			Model:   v.GetString("TRANSLATE_MODEL"),
			Timeout: v.GetDuration("TRANSLATE_TIMEOUT"),
		},
		Redis: RedisConfig{URL: v.GetString("REDIS_URL")},
		S3: S3Config{
			Endpoint:        v.GetString("S3_ENDPOINT"),
			Region:          v.GetString("S3_REGION"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			Bucket:          v.GetString("S3_BUCKET"),
			CDNURL:          v.GetString("S3_CDN_URL"),
			BasePath:        v.GetString("S3_BASE_PATH"),
			ForcePathStyle:  v.GetBool("S3_FORCE_PATH_STYLE"),
		},
		SES: SESConfig{
			Region:    v.GetString("SES_REGION"),
			From:      v.GetString("SES_FROM"),
			NotifyTo:  splitList(v.GetString("CONTACT_NOTIFY_TO")),
			QueueSize: v.GetInt("NOTIFY_QUEUE_SIZE"),
		},
		Media: MediaConfig{
			UploadDir: v.GetString("UPLOAD_DIR"),
			PublicURL: v.GetString("UPLOAD_PUBLIC_URL"),
			MaxBytes:  v.GetInt64("MEDIA_MAX_BYTES"),
		},
		Content: ContentConfig{
			SourceLanguage: v.GetString("CONTENT_SOURCE_LANGUAGE"),
			MaxRevisions:   v.GetInt("CONTENT_MAX_REVISIONS"),
		},
		Admin: AdminBootstrap{
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
			Name:     v.GetString("ADMIN_NAME"),
		},
	}

	var err error
	if cfg.DBURL, err = mustEnv(v, "DB_URL"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = mustEnv(v, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.Content.MaxRevisions <= 0 {
		return nil, fmt.Errorf("CONTENT_MAX_REVISIONS must be positive, got %d", cfg.Content.MaxRevisions)
	}

	return cfg, nil
}

// IsProduction switches logging to JSON output.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("TRANSLATE_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("TRANSLATE_MODEL", "gpt-4o-mini")
	v.SetDefault("TRANSLATE_TIMEOUT", 30*time.Second)

	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("SES_REGION", "us-east-1")
	v.SetDefault("NOTIFY_QUEUE_SIZE", 64)

	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("UPLOAD_PUBLIC_URL", "/uploads")
	v.SetDefault("MEDIA_MAX_BYTES", 10<<20)

	v.SetDefault("CONTENT_SOURCE_LANGUAGE", "ru")
	v.SetDefault("CONTENT_MAX_REVISIONS", 5)
	v.SetDefault("ADMIN_NAME", "Administrator")
}

func mustEnv(v *viper.Viper, key string) (string, error) {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return "", fmt.Errorf("missing required environment variable: %s", key)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
