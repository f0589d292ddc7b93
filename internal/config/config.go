package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/geo"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Storage   StorageConfig
	FaceMatch FaceMatchConfig
	Sites     []geo.Site
	Admin     AdminConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	BaseURL        string
	Timezone       string
	AllowedOrigins []string
}

type StorageConfig struct {
	Path    string
	BaseURL string
}

type FaceMatchConfig struct {
	URL       string
	Timeout   time.Duration
	Tolerance float64
}

// AdminConfig bootstraps the first admin account on an empty database.
type AdminConfig struct {
	Username string
	Password string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "coffee_attendance"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		AutoMigrate: getEnv("AUTO_MIGRATE", "true") == "true",
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		BaseURL:        strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Ho_Chi_Minh"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.App.AllowedOrigins) == 0 {
		config.App.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
	}

	config.Storage = StorageConfig{
		Path:    getEnv("STORAGE_PATH", "./uploads"),
		BaseURL: getEnv("STORAGE_BASE_URL", config.App.BaseURL+"/uploads"),
	}

	// Face match service
	faceTimeout, err := time.ParseDuration(getEnv("FACE_SERVICE_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FACE_SERVICE_TIMEOUT: %w", err)
	}
	tolerance, err := strconv.ParseFloat(getEnv("FACE_MATCH_TOLERANCE", "0.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FACE_MATCH_TOLERANCE: %w", err)
	}
	config.FaceMatch = FaceMatchConfig{
		URL:       getEnv("FACE_SERVICE_URL", "http://localhost:5001"),
		Timeout:   faceTimeout,
		Tolerance: tolerance,
	}

	// Sites: SITES_FILE wins over the single-site variables
	if path := getEnv("SITES_FILE", ""); path != "" {
		config.Sites, err = LoadSites(path)
		if err != nil {
			return nil, err
		}
	} else {
		site, err := siteFromEnv()
		if err != nil {
			return nil, err
		}
		config.Sites = []geo.Site{site}
	}

	config.Admin = AdminConfig{
		Username: getEnv("ADMIN_USERNAME", ""),
		Password: getEnv("ADMIN_PASSWORD", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func siteFromEnv() (geo.Site, error) {
	var site geo.Site
	site.Name = getEnv("SITE_NAME", "Main")

	floats := []struct {
		key      string
		fallback string
		target   *float64
	}{
		{"SITE_LATITUDE", "", &site.Latitude},
		{"SITE_LONGITUDE", "", &site.Longitude},
		{"SITE_MAX_DISTANCE_METERS", "2", &site.MaxDistanceMeters},
		{"SITE_ADVISORY_DISTANCE_METERS", "50", &site.AdvisoryDistanceMeters},
	}
	for _, f := range floats {
		value := getEnv(f.key, f.fallback)
		if value == "" {
			return geo.Site{}, fmt.Errorf("%s is required", f.key)
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return geo.Site{}, fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.target = parsed
	}
	return site, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.FaceMatch.Tolerance <= 0 || c.FaceMatch.Tolerance > 1 {
		return fmt.Errorf("FACE_MATCH_TOLERANCE must be in (0, 1]")
	}
	if len(c.Sites) == 0 {
		return fmt.Errorf("at least one site is required")
	}
	for _, site := range c.Sites {
		if err := site.Validate(); err != nil {
			return err
		}
	}
	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// Location resolves APP_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	return loc, nil
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

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
