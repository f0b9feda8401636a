package config

import (
	"fmt"
	"strings"
	"time"
	// Embedded zone database so progress.timezone resolves on minimal images.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName      string
	AppEnv       string
	AppPort      string
	AllowOrigins []string

	DatabaseDriver string
	DatabaseURL    string
	AutoMigrate    bool

	RedisURL      string
	NATSURL       string
	EventsChannel string

	JWTSecret string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	Location           *time.Location
	UpcomingWindowDays int
	UpcomingLimit      int

	SubmissionRateLimit int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// UploadsEnabled reports whether Cloudinary credentials are complete.
func (c Config) UploadsEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration from PORTION_* environment variables and an
// optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PORTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Portion Tracker API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allow_origins", "*")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("events.channel", "portion-tracker")
	v.SetDefault("cloudinary.folder", "portion-tracker/submissions")
	v.SetDefault("progress.timezone", "UTC")
	v.SetDefault("progress.upcoming_window_days", 7)
	v.SetDefault("progress.upcoming_limit", 5)
	v.SetDefault("submissions.rate_limit", 10)
}

func fromViper(v *viper.Viper) (Config, error) {
	location, err := time.LoadLocation(v.GetString("progress.timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress timezone: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		AllowOrigins:           splitList(v.GetString("app.allow_origins")),
		DatabaseDriver:         strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:            v.GetString("database.url"),
		AutoMigrate:            v.GetBool("database.auto_migrate"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventsChannel:          v.GetString("events.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		Location:               location,
		UpcomingWindowDays:     v.GetInt("progress.upcoming_window_days"),
		UpcomingLimit:          v.GetInt("progress.upcoming_limit"),
		SubmissionRateLimit:    v.GetInt("submissions.rate_limit"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}
	if cfg.UpcomingWindowDays <= 0 {
		cfg.UpcomingWindowDays = 7
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 5
	}
	if cfg.SubmissionRateLimit <= 0 {
		cfg.SubmissionRateLimit = 10
	}

	return cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
