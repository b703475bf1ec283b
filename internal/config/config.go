package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	HTTPServer  `yaml:"http_server"`
	Redis       `yaml:"redis"`
	Booking     `yaml:"booking"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type Redis struct {
	Address    string        `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	LockTTL    time.Duration `yaml:"lock_ttl" env-default:"30s"`
	FeedPrefix string        `yaml:"feed_prefix" env-default:"booking-changes"`
}

type Booking struct {
	Location       string        `yaml:"location" env:"BOOKING_LOCATION" env-default:"Europe/Oslo"`
	LeadTime       time.Duration `yaml:"lead_time" env-default:"24h"`
	SlotStep       int           `yaml:"slot_step_minutes" env-default:"30"`
	Durations      []int         `yaml:"durations" env-default:"15,25,50"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout" env-default:"10s"`
	SnapshotMaxAge time.Duration `yaml:"snapshot_max_age" env-default:"1m"`
}

// TimeLocation resolves the single local time zone bookings are laid out in.
func (b Booking) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(b.Location)
	if err != nil {
		return nil, fmt.Errorf("config: booking location %q: %w", b.Location, err)
	}
	return loc, nil
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	if len(cfg.Durations) == 0 {
		return nil, fmt.Errorf("config: booking.durations must not be empty")
	}

	if _, err := cfg.Booking.TimeLocation(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
