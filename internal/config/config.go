package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	TransportNATS  = "nats"
	TransportRedis = "redis"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Presence  PresenceConfig  `yaml:"presence"`
	Events    EventsConfig    `yaml:"events"`
	Auth      AuthConfig      `yaml:"auth"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Jobs      JobsConfig      `yaml:"jobs"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	BasePath        string        `yaml:"base_path"`
	Env             string        `yaml:"env"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type PresenceConfig struct {
	Backend string `yaml:"backend"`
}

type EventsConfig struct {
	Transport      string        `yaml:"transport"`
	NATSURL        string        `yaml:"nats_url"`
	NATSUser       string        `yaml:"nats_user"`
	NATSPass       string        `yaml:"nats_pass"`
	QueueGroup     string        `yaml:"queue_group"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ConnectRetries int           `yaml:"connect_retries"`
}

type AuthConfig struct {
	SecretKey string `yaml:"secret_key"`
}

type WebSocketConfig struct {
	SendBuffer     int           `yaml:"send_buffer"`
	WriteWait      time.Duration `yaml:"write_wait"`
	PongWait       time.Duration `yaml:"pong_wait"`
	MaxMessageSize int64         `yaml:"max_message_size"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

type JobsConfig struct {
	OnlineSnapshotSpec string `yaml:"online_snapshot_spec"`
}

// Default returns the configuration used when neither file nor environment say otherwise.
func Default(service string) *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			BasePath:        "/api",
			Env:             "dev",
			LogLevel:        "debug",
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
			DB:   0,
		},
		Presence: PresenceConfig{
			Backend: BackendRedis,
		},
		Events: EventsConfig{
			Transport:      TransportNATS,
			NATSURL:        "nats://localhost:4222",
			RequestTimeout: 5 * time.Second,
			ConnectRetries: 30,
		},
		WebSocket: WebSocketConfig{
			SendBuffer:     256,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			MaxMessageSize: 8192,
		},
		Telemetry: TelemetryConfig{
			ServiceName: service,
		},
		Jobs: JobsConfig{
			OnlineSnapshotSpec: "@every 1m",
		},
	}
}

// Load reads defaults, then the YAML file at path if it exists, then environment overrides.
func Load(path, service string) (*Config, error) {
	cfg := Default(service)

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if env := os.Getenv("ENV"); env != "" {
		cfg.Server.Env = env
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if basePath := os.Getenv("BASE_PATH"); basePath != "" {
		cfg.Server.BasePath = basePath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		cfg.Redis.Host = redisHost
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		if p, err := strconv.Atoi(redisPort); err == nil {
			cfg.Redis.Port = p
		}
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}
	if backend := os.Getenv("PRESENCE_BACKEND"); backend != "" {
		cfg.Presence.Backend = backend
	}
	if transport := os.Getenv("EVENTS_TRANSPORT"); transport != "" {
		cfg.Events.Transport = transport
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		cfg.Events.NATSURL = natsURL
	}
	if natsUser := os.Getenv("NATS_USER"); natsUser != "" {
		cfg.Events.NATSUser = natsUser
	}
	if natsPass := os.Getenv("NATS_PASS"); natsPass != "" {
		cfg.Events.NATSPass = natsPass
	}
	if secretKey := os.Getenv("SECRET_KEY"); secretKey != "" {
		cfg.Auth.SecretKey = secretKey
	}
	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			cfg.Telemetry.Enabled = b
		}
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Telemetry.Endpoint = endpoint
	}
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		cfg.Telemetry.ServiceName = name
	}
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Presence.Backend {
	case BackendRedis:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("presence.backend %q requires database.url", c.Presence.Backend)
		}
	default:
		return fmt.Errorf("unknown presence.backend %q", c.Presence.Backend)
	}
	switch c.Events.Transport {
	case TransportNATS, TransportRedis:
	default:
		return fmt.Errorf("unknown events.transport %q", c.Events.Transport)
	}
	if c.Jobs.OnlineSnapshotSpec != "" {
		if _, err := cron.ParseStandard(c.Jobs.OnlineSnapshotSpec); err != nil {
			return fmt.Errorf("jobs.online_snapshot_spec: %w", err)
		}
	}
	return nil
}
