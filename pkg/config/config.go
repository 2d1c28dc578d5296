package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP listen address, e.g. ":8080"
	Address string `env:"ADDRESS" envDefault:":8080"`

	Log     Log
	Picsum  Picsum
	Loader  Loader
	Library Library
}

type Log struct {
	// trace | debug | info | warn | error
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// console | json
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

type Picsum struct {
	URL     string        `env:"PICSUM_URL" envDefault:"https://picsum.photos"`
	Timeout time.Duration `env:"PICSUM_TIMEOUT" envDefault:"10s"`
	// Images per page requested from the list endpoint.
	PageLimit int `env:"PAGE_LIMIT" envDefault:"9"`
}

type Loader struct {
	// Max decoded images kept in memory; 0 keeps everything.
	CacheSize    int `env:"CACHE_SIZE" envDefault:"256"`
	WarmWorkers  int `env:"WARM_WORKERS" envDefault:"4"`
	MaxSelection int `env:"MAX_SELECTION" envDefault:"10"`
	// Collage regeneration period while something is selected; 0 disables it.
	AutoRefresh     time.Duration `env:"AUTO_REFRESH" envDefault:"0s"`
	AutoRefreshMode string        `env:"AUTO_REFRESH_MODE" envDefault:"wallpaper"`
}

type Library struct {
	Dir string `env:"LIBRARY_DIR" envDefault:"./library"`
	// Initial permission status of the photo library.
	Permission string `env:"LIBRARY_PERMISSION" envDefault:"not_determined"`
}

// Load loads .env (if present) and parses environment variables into Config.
func Load() (Config, error) {
	// Load .env if available; ignore error if file does not exist
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Picsum.PageLimit <= 0 {
		return fmt.Errorf("PAGE_LIMIT must be positive, got %d", c.Picsum.PageLimit)
	}
	if c.Loader.MaxSelection <= 0 {
		return fmt.Errorf("MAX_SELECTION must be positive, got %d", c.Loader.MaxSelection)
	}
	if c.Loader.CacheSize < 0 {
		return fmt.Errorf("CACHE_SIZE must not be negative, got %d", c.Loader.CacheSize)
	}
	if c.Loader.WarmWorkers <= 0 {
		return fmt.Errorf("WARM_WORKERS must be positive, got %d", c.Loader.WarmWorkers)
	}
	return nil
}
