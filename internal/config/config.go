package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Stream    StreamConfig    `yaml:"stream"`
	Producers ProducersConfig `yaml:"producers"`
	Client    ClientConfig    `yaml:"client"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AuthToken      string   `yaml:"auth_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxClients     int      `yaml:"max_clients"`
}

// StreamConfig tunes per-subscriber delivery.
type StreamConfig struct {
	QueueSize       int           `yaml:"queue_size"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	LivenessTimeout time.Duration `yaml:"liveness_timeout"`
	DrainGrace      time.Duration `yaml:"drain_grace"`
}

type ProducersConfig struct {
	Orders  OrdersConfig  `yaml:"orders"`
	Alerts  AlertsConfig  `yaml:"alerts"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type OrdersConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MinInterval time.Duration `yaml:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval"`
}

type AlertsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// ClientConfig tunes the dashboard client.
type ClientConfig struct {
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8765,
			MaxClients: 256,
		},
		Stream: StreamConfig{
			QueueSize:       256,
			PingInterval:    30 * time.Second,
			LivenessTimeout: 60 * time.Second,
			DrainGrace:      5 * time.Second,
		},
		Producers: ProducersConfig{
			Orders: OrdersConfig{
				Enabled:     true,
				MinInterval: 2 * time.Second,
				MaxInterval: 8 * time.Second,
			},
			Alerts:  AlertsConfig{Enabled: true},
			Metrics: MetricsConfig{Enabled: true, Interval: 10 * time.Second},
		},
		Client: ClientConfig{
			ReconnectDelay: 3 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault reads the config file at path, falling back to the
// defaults when the file does not exist. Other read or parse failures
// are returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
