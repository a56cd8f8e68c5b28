package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LiveLink   LiveLinkConfig   `yaml:"livelink"`
	Sink       SinkConfig       `yaml:"sink"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// LiveLinkConfig holds the vendor API connection and polling configuration.
type LiveLinkConfig struct {
	BaseURL             string        `yaml:"api_base_url"`
	APIToken            string        `yaml:"api_token"`
	PollIntervalMinutes int           `yaml:"poll_interval_minutes"`
	PollInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
	TimeoutSeconds      int           `yaml:"http_timeout_seconds"`
	Timeout             time.Duration `yaml:"-"`
	MachineIDs          []string      `yaml:"machine_ids"`

	// Data inclusion toggles. Omitted values default to true.
	IncludeLocation    *bool `yaml:"include_location"`
	IncludeFuel        *bool `yaml:"include_fuel"`
	IncludeHours       *bool `yaml:"include_hours"`
	IncludeAlerts      *bool `yaml:"include_alerts"`
	IncludeUtilisation *bool `yaml:"include_utilisation"`
}

// SinkConfig selects optional mirror sinks for published tags.
type SinkConfig struct {
	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig holds the MQTT mirror sink configuration.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// DefaultBaseURL is the vendor API endpoint used when none is configured.
const DefaultBaseURL = "https://api.jcblivelink.com"

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.LiveLink.BaseURL == "" {
		cfg.LiveLink.BaseURL = DefaultBaseURL
	}
	cfg.LiveLink.BaseURL = strings.TrimRight(cfg.LiveLink.BaseURL, "/")

	if cfg.LiveLink.PollIntervalMinutes <= 0 {
		cfg.LiveLink.PollIntervalMinutes = 15
	}
	cfg.LiveLink.PollInterval = time.Duration(cfg.LiveLink.PollIntervalMinutes) * time.Minute

	if cfg.LiveLink.TimeoutSeconds <= 0 {
		cfg.LiveLink.TimeoutSeconds = 60
	}
	cfg.LiveLink.Timeout = time.Duration(cfg.LiveLink.TimeoutSeconds) * time.Second

	defaultTrue(&cfg.LiveLink.IncludeLocation)
	defaultTrue(&cfg.LiveLink.IncludeFuel)
	defaultTrue(&cfg.LiveLink.IncludeHours)
	defaultTrue(&cfg.LiveLink.IncludeAlerts)
	defaultTrue(&cfg.LiveLink.IncludeUtilisation)

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Sink.MQTT.Enabled {
		if cfg.Sink.MQTT.Port <= 0 {
			cfg.Sink.MQTT.Port = 1883
		}
		if cfg.Sink.MQTT.ClientID == "" {
			cfg.Sink.MQTT.ClientID = "livelinkd"
		}
		if cfg.Sink.MQTT.TopicPrefix == "" {
			cfg.Sink.MQTT.TopicPrefix = "livelink/tags"
		}
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}

func defaultTrue(v **bool) {
	if *v == nil {
		t := true
		*v = &t
	}
}
