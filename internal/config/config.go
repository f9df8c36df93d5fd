package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceStatic = "static"
	SourceDB     = "db"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	// SitesSource selects where map locations come from: the built-in list or the disposal_requests table.
	SitesSource   string
	DisplayTZ     string
	DefaultLocale string
	IconBaseURL   string
	TileURL       string
	TileAttrib    string

	MQTTEnabled  bool
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}

	connMaxLifetimeStr := envOr("DB_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQL, err := envBool("DB_LOG_SQL", false)
	if err != nil {
		return Config{}, err
	}

	sitesSource := strings.ToLower(envOr("SITES_SOURCE", SourceStatic))
	switch sitesSource {
	case SourceStatic, SourceDB:
	default:
		return Config{}, fmt.Errorf("invalid SITES_SOURCE %q (allowed: static, db)", sitesSource)
	}

	displayTZ := envOr("DISPLAY_TZ", "UTC")
	if _, err := time.LoadLocation(displayTZ); err != nil {
		return Config{}, fmt.Errorf("invalid DISPLAY_TZ %q: %w", displayTZ, err)
	}

	mqttEnabled, err := envBool("MQTT_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	mqttPort, err := envInt("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT must be in 1..65535, got %d", mqttPort)
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		Driver:          envOr("DB_DRIVER", "sqlite3"),
		DSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		Path:            envOr("SQLITE_PATH", "data/wastemap.db"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
		SitesSource:     sitesSource,
		DisplayTZ:       displayTZ,
		DefaultLocale:   envOr("DEFAULT_LOCALE", "en-US"),
		IconBaseURL:     envOr("ICON_BASE_URL", "https://raw.githubusercontent.com/pointhi/leaflet-color-markers/master/img/"),
		TileURL:         envOr("TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		TileAttrib:      envOr("TILE_ATTRIBUTION", `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`),
		MQTTEnabled:     mqttEnabled,
		MQTTBroker:      envOr("MQTT_BROKER", "localhost"),
		MQTTPort:        mqttPort,
		MQTTClientID:    envOr("MQTT_CLIENT_ID", "wastemap-server"),
		MQTTTopic:       envOr("MQTT_TOPIC", "wastemap/requests"),
	}, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
