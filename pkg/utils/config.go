package utils

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Email    EmailConfig
	OTP      OTPConfig
	Booking  BookingConfig
	Payment  PaymentConfig
	Video    VideoConfig
	Storage  StorageConfig
	HTTP     HTTPConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	AdminEmails []string
	CatalogPath string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	ExpiryHours   int
	CleanCronSpec string
}

type EmailConfig struct {
	SendGridAPIKey string
	From           string
	FromName       string
}

type OTPConfig struct {
	ExpiryMinutes int
	Length        int
}

type BookingConfig struct {
	Timezone       string
	HorizonDays    int
	CancelCutoff   time.Duration
	PendingTTL     time.Duration
	ExpireCronSpec string
	IdempotencyTTL time.Duration
	// InFlightTTL bounds how long an unfinished submission blocks its key.
	InFlightTTL    time.Duration
}

type PaymentConfig struct {
	Provider  string
	KeyID     string
	KeySecret string
	BaseURL   string
	Currency  string
	OrderTTL  time.Duration
}

type VideoConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Domain      string
	TokenSecret string
	TokenTTL    time.Duration
}

type StorageConfig struct {
	Provider       string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
	// PublicURL prefixes stored keys in returned links.
	PublicURL      string
	LocalDir       string
	MaxAvatarBytes int64
}

type HTTPConfig struct {
	AllowedOrigins []string
	AuthRateLimit  int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "astrologix")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("SESSION_EXPIRY_HOURS", 24*7)
	viper.SetDefault("SESSION_CLEAN_CRON", "@daily")
	viper.SetDefault("EMAIL_FROM", "no-reply@astrologix.in")
	viper.SetDefault("EMAIL_FROM_NAME", "Astrologix")
	viper.SetDefault("OTP_EXPIRY_MINUTES", 10)
	viper.SetDefault("OTP_LENGTH", 6)
	viper.SetDefault("BOOKING_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("BOOKING_HORIZON_DAYS", 30)
	viper.SetDefault("BOOKING_CANCEL_CUTOFF", "2h")
	viper.SetDefault("BOOKING_PENDING_TTL", "30m")
	viper.SetDefault("BOOKING_EXPIRE_CRON", "@every 5m")
	viper.SetDefault("BOOKING_IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("BOOKING_INFLIGHT_TTL", "1m")
	viper.SetDefault("PAYMENT_PROVIDER", "fake")
	viper.SetDefault("PAYMENT_BASE_URL", "https://api.razorpay.com/v1")
	viper.SetDefault("PAYMENT_CURRENCY", "INR")
	viper.SetDefault("PAYMENT_ORDER_TTL", "15m")
	viper.SetDefault("VIDEO_PROVIDER", "local")
	viper.SetDefault("VIDEO_BASE_URL", "https://api.daily.co/v1")
	viper.SetDefault("VIDEO_TOKEN_TTL", "2h")
	viper.SetDefault("STORAGE_PROVIDER", "local")
	viper.SetDefault("STORAGE_BUCKET", "avatars")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_LOCAL_DIR", "uploads/")
	viper.SetDefault("AVATAR_MAX_BYTES", 5<<20)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("AUTH_RATE_LIMIT", 5)

	// .env is optional in containers, env vars still apply
	if _, err := os.Stat(".env"); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			AdminEmails: splitList(viper.GetString("ADMIN_EMAILS")),
			CatalogPath: viper.GetString("CATALOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			ExpiryHours:   viper.GetInt("SESSION_EXPIRY_HOURS"),
			CleanCronSpec: viper.GetString("SESSION_CLEAN_CRON"),
		},
		Email: EmailConfig{
			SendGridAPIKey: viper.GetString("SENDGRID_API_KEY"),
			From:           viper.GetString("EMAIL_FROM"),
			FromName:       viper.GetString("EMAIL_FROM_NAME"),
		},
		OTP: OTPConfig{
			ExpiryMinutes: viper.GetInt("OTP_EXPIRY_MINUTES"),
			Length:        viper.GetInt("OTP_LENGTH"),
		},
		Booking: BookingConfig{
			Timezone:       viper.GetString("BOOKING_TIMEZONE"),
			HorizonDays:    viper.GetInt("BOOKING_HORIZON_DAYS"),
			CancelCutoff:   viper.GetDuration("BOOKING_CANCEL_CUTOFF"),
			PendingTTL:     viper.GetDuration("BOOKING_PENDING_TTL"),
			ExpireCronSpec: viper.GetString("BOOKING_EXPIRE_CRON"),
			IdempotencyTTL: viper.GetDuration("BOOKING_IDEMPOTENCY_TTL"),
			InFlightTTL:    viper.GetDuration("BOOKING_INFLIGHT_TTL"),
		},
		Payment: PaymentConfig{
			Provider:  viper.GetString("PAYMENT_PROVIDER"),
			KeyID:     viper.GetString("RAZORPAY_KEY_ID"),
			KeySecret: viper.GetString("RAZORPAY_KEY_SECRET"),
			BaseURL:   viper.GetString("PAYMENT_BASE_URL"),
			Currency:  viper.GetString("PAYMENT_CURRENCY"),
			OrderTTL:  viper.GetDuration("PAYMENT_ORDER_TTL"),
		},
		Video: VideoConfig{
			Provider:    viper.GetString("VIDEO_PROVIDER"),
			APIKey:      viper.GetString("DAILY_API_KEY"),
			BaseURL:     viper.GetString("VIDEO_BASE_URL"),
			Domain:      viper.GetString("DAILY_DOMAIN"),
			TokenSecret: viper.GetString("VIDEO_TOKEN_SECRET"),
			TokenTTL:    viper.GetDuration("VIDEO_TOKEN_TTL"),
		},
		Storage: StorageConfig{
			Provider:       viper.GetString("STORAGE_PROVIDER"),
			Endpoint:       viper.GetString("MINIO_ENDPOINT"),
			AccessKey:      viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey:      viper.GetString("MINIO_SECRET_KEY"),
			Bucket:         viper.GetString("STORAGE_BUCKET"),
			Region:         viper.GetString("STORAGE_REGION"),
			UseSSL:         viper.GetBool("MINIO_USE_SSL"),
			PublicURL:      viper.GetString("STORAGE_PUBLIC_URL"),
			LocalDir:       viper.GetString("STORAGE_LOCAL_DIR"),
			MaxAvatarBytes: viper.GetInt64("AVATAR_MAX_BYTES"),
		},
		HTTP: HTTPConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			AuthRateLimit:  viper.GetInt("AUTH_RATE_LIMIT"),
		},
	}

	return config, nil
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
