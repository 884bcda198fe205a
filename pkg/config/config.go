package config

import (
	"errors"
	"io/fs"
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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Deadlines DeadlineConfig
	Dashboard DashboardConfig
	Orders    OrdersConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig describes how staff bearer tokens issued by the dashboard are verified.
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DeadlineConfig carries the exam-board lead times and urgency thresholds, all in working days
// except DefaultExamOffsetDays which is calendar days.
type DeadlineConfig struct {
	PDFLeadDays           int
	RILeadDays            int
	LateLeadDays          int
	UrgentDays            int
	ApproachingDays       int
	DefaultExamOffsetDays int

	// TimeZone names the IANA zone whose calendar decides "today" for deadline checks.
	TimeZone string
}

// Location resolves TimeZone.
func (c DeadlineConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.TimeZone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled             bool
	CacheTTL            time.Duration
	RecentActivityLimit int

	// ComplianceSweepInterval schedules the background review re-flagging; zero disables it.
	ComplianceSweepInterval time.Duration
}

// OrdersConfig toggles order intake and the webhook signature check.
type OrdersConfig struct {
	Enabled       bool
	WebhookSecret string
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Deadlines = DeadlineConfig{
		PDFLeadDays:           positiveOr(v.GetInt("DEADLINE_PDF_LEAD_DAYS"), 10),
		RILeadDays:            positiveOr(v.GetInt("DEADLINE_RI_LEAD_DAYS"), 7),
		LateLeadDays:          positiveOr(v.GetInt("DEADLINE_LATE_LEAD_DAYS"), 2),
		UrgentDays:            positiveOr(v.GetInt("DEADLINE_URGENT_DAYS"), 2),
		ApproachingDays:       positiveOr(v.GetInt("DEADLINE_APPROACHING_DAYS"), 5),
		DefaultExamOffsetDays: positiveOr(v.GetInt("DEFAULT_EXAM_OFFSET_DAYS"), 56),

		TimeZone: v.GetString("DEADLINE_TIME_ZONE"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:             v.GetBool("ENABLE_DASHBOARD"),
		CacheTTL:            parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
		RecentActivityLimit: positiveOr(v.GetInt("DASHBOARD_RECENT_ACTIVITY_LIMIT"), 20),

		ComplianceSweepInterval: parseDuration(v.GetString("COMPLIANCE_SWEEP_INTERVAL"), time.Hour),
	}

	cfg.Orders = OrdersConfig{
		Enabled:       v.GetBool("ENABLE_ORDER_INTAKE"),
		WebhookSecret: v.GetString("ORDER_WEBHOOK_SECRET"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "wset_admin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "wset-admin")
	v.SetDefault("JWT_EXPIRATION", "12h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DEADLINE_PDF_LEAD_DAYS", 10)
	v.SetDefault("DEADLINE_RI_LEAD_DAYS", 7)
	v.SetDefault("DEADLINE_LATE_LEAD_DAYS", 2)
	v.SetDefault("DEADLINE_URGENT_DAYS", 2)
	v.SetDefault("DEADLINE_APPROACHING_DAYS", 5)
	v.SetDefault("DEFAULT_EXAM_OFFSET_DAYS", 56)
	v.SetDefault("DEADLINE_TIME_ZONE", "Europe/London")

	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("DASHBOARD_RECENT_ACTIVITY_LIMIT", 20)
	v.SetDefault("COMPLIANCE_SWEEP_INTERVAL", "1h")

	v.SetDefault("ENABLE_ORDER_INTAKE", true)
	v.SetDefault("ORDER_WEBHOOK_SECRET", "")
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
