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

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Scheduler  SchedulerConfig
	Attendance AttendanceConfig
	Exports    ExportsConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig governs the automatic timetable builder.
type SchedulerConfig struct {
	MaxIterations    int
	WorkdayStart     string
	WorkdayEnd       string
	SlotMinutes      int
	CacheTTL         time.Duration
	AsyncWorkers     int
	AsyncResultTTL   time.Duration
	AsyncQueueBuffer int
}

// AttendanceConfig holds geofence and fraud-scoring thresholds.
type AttendanceConfig struct {
	DefaultGeofenceRadiusMeters float64
	MaxRealisticVelocityKmh     float64
	VelocityWindowSeconds       int
}

// ExportsConfig toggles timetable export endpoints.
type ExportsConfig struct {
	Enabled       bool
	Dir           string
	SigningSecret string
	ResultTTL     time.Duration
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
		if !errors.As(err, &notFound) {
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
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		MaxIterations:    v.GetInt("SCHEDULER_MAX_ITERATIONS"),
		WorkdayStart:     v.GetString("SCHEDULER_WORKDAY_START"),
		WorkdayEnd:       v.GetString("SCHEDULER_WORKDAY_END"),
		SlotMinutes:      v.GetInt("SCHEDULER_SLOT_MINUTES"),
		CacheTTL:         parseDuration(v.GetString("SCHEDULER_CACHE_TTL"), 15*time.Minute),
		AsyncWorkers:     v.GetInt("SCHEDULER_ASYNC_WORKERS"),
		AsyncResultTTL:   parseDuration(v.GetString("SCHEDULER_ASYNC_RESULT_TTL"), time.Hour),
		AsyncQueueBuffer: v.GetInt("SCHEDULER_ASYNC_QUEUE_BUFFER"),
	}

	cfg.Attendance = AttendanceConfig{
		DefaultGeofenceRadiusMeters: v.GetFloat64("ATTENDANCE_GEOFENCE_RADIUS_METERS"),
		MaxRealisticVelocityKmh:     v.GetFloat64("ATTENDANCE_MAX_VELOCITY_KMH"),
		VelocityWindowSeconds:       v.GetInt("ATTENDANCE_VELOCITY_WINDOW_SECONDS"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:       v.GetBool("ENABLE_EXPORTS"),
		Dir:           v.GetString("EXPORT_DIR"),
		SigningSecret: v.GetString("EXPORT_SIGNING_SECRET"),
		ResultTTL:     parseDuration(v.GetString("EXPORT_RESULT_TTL"), 24*time.Hour),
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
	v.SetDefault("DB_NAME", "smart_campus")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_MAX_ITERATIONS", 10000)
	v.SetDefault("SCHEDULER_WORKDAY_START", "08:00")
	v.SetDefault("SCHEDULER_WORKDAY_END", "22:00")
	v.SetDefault("SCHEDULER_SLOT_MINUTES", 60)
	v.SetDefault("SCHEDULER_CACHE_TTL", "15m")
	v.SetDefault("SCHEDULER_ASYNC_WORKERS", 2)
	v.SetDefault("SCHEDULER_ASYNC_RESULT_TTL", "1h")
	v.SetDefault("SCHEDULER_ASYNC_QUEUE_BUFFER", 8)

	v.SetDefault("ATTENDANCE_GEOFENCE_RADIUS_METERS", 100)
	v.SetDefault("ATTENDANCE_MAX_VELOCITY_KMH", 120)
	v.SetDefault("ATTENDANCE_VELOCITY_WINDOW_SECONDS", 300)

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORT_DIR", "exports")
	v.SetDefault("EXPORT_SIGNING_SECRET", "")
	v.SetDefault("EXPORT_RESULT_TTL", "24h")
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
