package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	DataDir   string

	Database      DatabaseConfig
	Redis         RedisConfig
	Cache         CacheConfig
	JWT           JWTConfig
	Clerk         ClerkConfig
	CORS          CORSConfig
	Log           LogConfig
	URLs          URLConfig
	IPP           IPPConfig
	Certificates  CertificateConfig
	Cloudinary    CloudinaryConfig
	Uploads       UploadConfig
	Mail          MailConfig
	Notifications NotificationConfig
	NATS          NATSConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	HealthInterval time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the Redis-backed response cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// ClerkConfig describes the external identity provider and its two session
// token templates.
type ClerkConfig struct {
	NewTemplate    string
	LegacyTemplate string
	NewAudience    string
	LegacyAudience string
	Issuer         string
	JWKSURL        string
	SecretKey      string
	APIURL         string
	ClockSkew      time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// URLConfig holds the public base URLs embedded in emails and certificates.
type URLConfig struct {
	SuperAdmin string
	Frontend   string
	PublicAPI  string
}

// IPPConfig governs the internship performance passport workflow.
type IPPConfig struct {
	RequireFacultyApproval bool
	MagicLinkTTL           time.Duration
}

// CertificateConfig controls where rendered certificates are kept and how
// download links are signed.
type CertificateConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether all credentials are present.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type UploadConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

type MailConfig struct {
	Web3FormsKey string
	Endpoint     string
	FromName     string
	ReplyTo      string
	Timeout      time.Duration
}

// NotificationConfig tunes the scheduled notification poller.
type NotificationConfig struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
	Workers   int
	Retries   int
	Retention time.Duration
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.DataDir = v.GetString("DATA_DIR")

	cfg.Database = DatabaseConfig{
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		HealthInterval: parseDuration(v.GetString("DB_HEALTH_INTERVAL"), 15*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.Clerk = ClerkConfig{
		NewTemplate:    v.GetString("CLERK_NEW_TEMPLATE"),
		LegacyTemplate: v.GetString("CLERK_LEGACY_TEMPLATE"),
		NewAudience:    v.GetString("CLERK_NEW_AUDIENCE"),
		LegacyAudience: v.GetString("CLERK_LEGACY_AUDIENCE"),
		Issuer:         strings.TrimRight(v.GetString("CLERK_ISSUER"), "/"),
		JWKSURL:        v.GetString("CLERK_JWKS_URL"),
		SecretKey:      v.GetString("CLERK_SECRET_KEY"),
		APIURL:         strings.TrimRight(v.GetString("CLERK_API_URL"), "/"),
		ClockSkew:      parseDuration(v.GetString("CLERK_CLOCK_SKEW"), 60*time.Second),
	}
	if cfg.Clerk.JWKSURL == "" && cfg.Clerk.Issuer != "" {
		cfg.Clerk.JWKSURL = cfg.Clerk.Issuer + "/.well-known/jwks.json"
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.URLs = URLConfig{
		SuperAdmin: strings.TrimRight(v.GetString("SUPERADMIN_URL"), "/"),
		Frontend:   strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		PublicAPI:  strings.TrimRight(v.GetString("PUBLIC_API_URL"), "/"),
	}

	cfg.IPP = IPPConfig{
		RequireFacultyApproval: v.GetBool("IPP_REQUIRE_FACULTY_APPROVAL"),
		MagicLinkTTL:           parseDuration(v.GetString("IPP_MAGIC_LINK_TTL"), 7*24*time.Hour),
	}

	cfg.Certificates = CertificateConfig{
		StorageDir:      v.GetString("CERTIFICATES_DIR"),
		SignedURLSecret: v.GetString("CERTIFICATE_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("CERTIFICATE_SIGNED_URL_TTL"), 30*24*time.Hour),
	}

	cfg.Cloudinary = CloudinaryConfig{
		CloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
		APIKey:    v.GetString("CLOUDINARY_API_KEY"),
		APISecret: v.GetString("CLOUDINARY_API_SECRET"),
		Folder:    v.GetString("CLOUDINARY_FOLDER"),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadConfig{
		MaxFileSizeBytes: maxUpload,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOAD_ALLOWED_MIME_TYPES")),
	}

	cfg.Mail = MailConfig{
		Web3FormsKey: v.GetString("WEB3FORMS_KEY"),
		Endpoint:     v.GetString("WEB3FORMS_ENDPOINT"),
		FromName:     v.GetString("MAIL_FROM_NAME"),
		ReplyTo:      v.GetString("MAIL_REPLY_TO"),
		Timeout:      parseDuration(v.GetString("MAIL_TIMEOUT"), 10*time.Second),
	}

	cfg.Notifications = NotificationConfig{
		Enabled:   v.GetBool("NOTIFICATIONS_ENABLED"),
		Interval:  parseDuration(v.GetString("NOTIFICATIONS_INTERVAL"), time.Minute),
		BatchSize: v.GetInt("NOTIFICATIONS_BATCH"),
		Workers:   v.GetInt("NOTIFICATIONS_WORKERS"),
		Retries:   v.GetInt("NOTIFICATIONS_RETRIES"),
		Retention: parseDuration(v.GetString("NOTIFICATIONS_RETENTION"), 30*24*time.Hour),
	}

	cfg.NATS = NATSConfig{
		URL:           v.GetString("NATS_URL"),
		SubjectPrefix: v.GetString("NATS_SUBJECT_PREFIX"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("DATA_DIR", "./data")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_placement")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_HEALTH_INTERVAL", "15s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "campus-placement-secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("CLERK_NEW_TEMPLATE", "")
	v.SetDefault("CLERK_LEGACY_TEMPLATE", "")
	v.SetDefault("CLERK_NEW_AUDIENCE", "")
	v.SetDefault("CLERK_LEGACY_AUDIENCE", "")
	v.SetDefault("CLERK_ISSUER", "")
	v.SetDefault("CLERK_JWKS_URL", "")
	v.SetDefault("CLERK_SECRET_KEY", "")
	v.SetDefault("CLERK_API_URL", "https://api.clerk.com")
	v.SetDefault("CLERK_CLOCK_SKEW", "60s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SUPERADMIN_URL", "http://localhost:5174")
	v.SetDefault("PUBLIC_API_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	v.SetDefault("IPP_REQUIRE_FACULTY_APPROVAL", false)
	v.SetDefault("IPP_MAGIC_LINK_TTL", "168h")

	v.SetDefault("CERTIFICATES_DIR", "./certificates")
	v.SetDefault("CERTIFICATE_SIGNED_URL_SECRET", "dev_certificate_secret")
	v.SetDefault("CERTIFICATE_SIGNED_URL_TTL", "720h")

	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_FOLDER", "campus_buddy")

	v.SetDefault("UPLOAD_MAX_SIZE", 10*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_MIME_TYPES", "application/pdf,image/jpeg,image/png,image/gif,image/webp")

	v.SetDefault("WEB3FORMS_KEY", "")
	v.SetDefault("WEB3FORMS_ENDPOINT", "https://api.web3forms.com/submit")
	v.SetDefault("MAIL_FROM_NAME", "Campus Placement Portal")
	v.SetDefault("MAIL_REPLY_TO", "")
	v.SetDefault("MAIL_TIMEOUT", "10s")

	v.SetDefault("NOTIFICATIONS_ENABLED", true)
	v.SetDefault("NOTIFICATIONS_INTERVAL", "1m")
	v.SetDefault("NOTIFICATIONS_BATCH", 100)
	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_RETRIES", 2)
	v.SetDefault("NOTIFICATIONS_RETENTION", "720h")

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT_PREFIX", "campus.placement")
}

// isMissingFile tolerates a missing .env when SetConfigFile is used, which
// surfaces as a filesystem error instead of ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
