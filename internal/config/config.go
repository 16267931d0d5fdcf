package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	App        AppConfig
	JWT        JWTConfig
	Attendance AttendanceConfig
	Device     DeviceConfig
	Absence    AbsenceConfig
	Watch      WatchConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// AttendanceConfig holds the schedule-matching tolerances and the business
// time zone used to assign shift dates. Tolerances differ between the manual
// web flow and the device flow.
type AttendanceConfig struct {
	Timezone            string
	ManualLateTolerance time.Duration
	ManualEarlyGrace    time.Duration
	DeviceLateTolerance time.Duration
	DeviceEarlyGrace    time.Duration
}

// DeviceConfig maps device addresses to their role and authenticates the
// ingestion endpoint. APIKeyHash is a bcrypt hash of the shared device key.
type DeviceConfig struct {
	APIKeyHash    string
	EntryAddrs    []string
	ExitAddrs     []string
	DenylistAddrs []string
}

type AbsenceConfig struct {
	SweepInterval time.Duration
	MinWorked     time.Duration
}

type WatchConfig struct {
	BreakLimit time.Duration
	Debounce   time.Duration
}

func Load() (*Config, error) {
	// .env is optional outside development
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", "http://localhost:3000"),
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	manualLate, err := getEnvDuration("ATTENDANCE_MANUAL_LATE_TOLERANCE", "2h")
	if err != nil {
		return nil, err
	}
	manualEarly, err := getEnvDuration("ATTENDANCE_MANUAL_EARLY_GRACE", "6h")
	if err != nil {
		return nil, err
	}
	deviceLate, err := getEnvDuration("ATTENDANCE_DEVICE_LATE_TOLERANCE", "4h")
	if err != nil {
		return nil, err
	}
	deviceEarly, err := getEnvDuration("ATTENDANCE_DEVICE_EARLY_GRACE", "4h")
	if err != nil {
		return nil, err
	}

	config.Attendance = AttendanceConfig{
		Timezone:            getEnv("ATTENDANCE_TIMEZONE", "Asia/Jakarta"),
		ManualLateTolerance: manualLate,
		ManualEarlyGrace:    manualEarly,
		DeviceLateTolerance: deviceLate,
		DeviceEarlyGrace:    deviceEarly,
	}

	config.Device = DeviceConfig{
		APIKeyHash:    getEnv("DEVICE_API_KEY_HASH", ""),
		EntryAddrs:    getEnvSlice("DEVICE_ENTRY_ADDRS", ""),
		ExitAddrs:     getEnvSlice("DEVICE_EXIT_ADDRS", ""),
		DenylistAddrs: getEnvSlice("DEVICE_DENYLIST_ADDRS", ""),
	}

	sweepInterval, err := getEnvDuration("ABSENCE_SWEEP_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	minWorked, err := getEnvDuration("ABSENCE_MIN_WORKED", "4h")
	if err != nil {
		return nil, err
	}

	config.Absence = AbsenceConfig{
		SweepInterval: sweepInterval,
		MinWorked:     minWorked,
	}

	breakLimit, err := getEnvDuration("WATCH_BREAK_LIMIT", "1h")
	if err != nil {
		return nil, err
	}
	debounce, err := getEnvDuration("WATCH_DEBOUNCE", "250ms")
	if err != nil {
		return nil, err
	}

	config.Watch = WatchConfig{
		BreakLimit: breakLimit,
		Debounce:   debounce,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Device.APIKeyHash == "" {
		return fmt.Errorf("DEVICE_API_KEY_HASH is required")
	}
	if _, err := time.LoadLocation(c.Attendance.Timezone); err != nil {
		return fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnvDuration(env string, fallback string) (time.Duration, error) {
	value := getEnv(env, fallback)
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	return d, nil
}
