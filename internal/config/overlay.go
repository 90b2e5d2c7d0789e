package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the optional YAML overlay for non-secret tunables. Zero values leave
// the environment-derived setting untouched.
type File struct {
	Applications struct {
		DefaultPageSize int           `yaml:"default_page_size"`
		MaxPageSize     int           `yaml:"max_page_size"`
		SubmitLockTTL   time.Duration `yaml:"submit_lock_ttl"`
	} `yaml:"applications"`
	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Redis struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	RabbitMQ struct {
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
}

func Overlay(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		// A missing overlay should not kill startup.
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return OverlayBytes(cfg, b)
}

func OverlayBytes(cfg *Config, b []byte) error {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return err
	}

	if f.Applications.DefaultPageSize > 0 {
		cfg.Applications.DefaultPageSize = f.Applications.DefaultPageSize
	}
	if f.Applications.MaxPageSize > 0 {
		cfg.Applications.MaxPageSize = f.Applications.MaxPageSize
	}
	if f.Applications.SubmitLockTTL > 0 {
		cfg.Applications.SubmitLockTTL = f.Applications.SubmitLockTTL
	}
	if f.RateLimit.RequestsPerSecond > 0 {
		cfg.RateLimit.RequestsPerSecond = f.RateLimit.RequestsPerSecond
	}
	if f.RateLimit.Burst > 0 {
		cfg.RateLimit.Burst = f.RateLimit.Burst
	}
	if f.Redis.TTL > 0 {
		cfg.Redis.TTL = f.Redis.TTL
	}
	if f.RabbitMQ.Exchange != "" {
		cfg.RabbitMQ.Exchange = f.RabbitMQ.Exchange
	}
	return nil
}
