package config

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Port        string
	Environment string // ENV: production, development, etc.

	MongoURI      string
	MongoDatabase string
	PostgresURI   string // optional; contact form is disabled without it
	RedisURI      string

	JWTSecret string
	JWTTTL    time.Duration

	// NotesKey is the base64 AES-256 key for appointment notes; empty stores notes as plain text.
	NotesKey string

	MLServiceURL string
	MLTimeout    time.Duration
	ChatbotURL   string

	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Load reads configuration from the environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := strings.ToLower(strings.TrimSpace(v.GetString("ENV")))

	allowedOrigins := parseOrigins(v.GetString("ALLOWED_ORIGINS"))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{v.GetString("FRONTEND_URL"), v.GetString("FRONTEND_URL_2")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}

	cfg := &Config{
		Port:                v.GetString("PORT"),
		Environment:         env,
		MongoURI:            v.GetString("MONGODB_URI"),
		MongoDatabase:       v.GetString("MONGODB_DATABASE"),
		PostgresURI:         v.GetString("POSTGRES_URI"),
		RedisURI:            v.GetString("REDIS_URI"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTTTL:              v.GetDuration("JWT_TTL"),
		NotesKey:            v.GetString("NOTES_ENCRYPTION_KEY"),
		MLServiceURL:        strings.TrimRight(v.GetString("ML_SERVICE_URL"), "/"),
		MLTimeout:           v.GetDuration("ML_TIMEOUT"),
		ChatbotURL:          strings.TrimRight(v.GetString("CHATBOT_URL"), "/"),
		AllowedOrigins:      allowedOrigins,
		CloudinaryName:      v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),
		SMTPHost:            v.GetString("SMTP_HOST"),
		SMTPPort:            v.GetInt("SMTP_PORT"),
		SMTPUsername:        v.GetString("SMTP_USERNAME"),
		SMTPPassword:        v.GetString("SMTP_PASSWORD"),
		SMTPFrom:            v.GetString("SMTP_FROM"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		LogFile:             v.GetString("LOG_FILE"),
		LogMaxSizeMB:        v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxBackups:       v.GetInt("LOG_MAX_BACKUPS"),
		LogMaxAgeDays:       v.GetInt("LOG_MAX_AGE_DAYS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "mindnest")
	v.SetDefault("REDIS_URI", "redis://localhost:6379/0")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("ML_SERVICE_URL", "http://localhost:5001")
	v.SetDefault("ML_TIMEOUT", 10*time.Second)
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)
}

// Validate rejects settings that are unsafe or unusable.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return errors.New("MONGODB_URI is required")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.MLTimeout <= 0 {
		return errors.New("ML_TIMEOUT must be positive")
	}
	if c.NotesKey != "" {
		if _, err := c.NotesKeyBytes(); err != nil {
			return err
		}
	}
	return nil
}

// NotesKeyBytes decodes NotesKey. Returns nil, nil when no key is configured.
func (c *Config) NotesKeyBytes() ([]byte, error) {
	if c.NotesKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.NotesKey)
	if err != nil {
		return nil, errors.New("NOTES_ENCRYPTION_KEY must be base64-encoded")
	}
	if len(key) != 32 {
		return nil, errors.New("NOTES_ENCRYPTION_KEY must decode to exactly 32 bytes (256 bits)")
	}
	return key, nil
}

// CloudinaryEnabled reports whether all Cloudinary credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// SMTPEnabled reports whether outgoing mail is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}
