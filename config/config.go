package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const AppName = "datve-cli"

type Config struct {
	APIURL     string        `env:"DATVE_API_URL" envDefault:"https://be-web-datve-1.onrender.com/api"`
	APITimeout time.Duration `env:"DATVE_API_TIMEOUT" envDefault:"20s"`
	RetryMax   int           `env:"DATVE_RETRY_MAX" envDefault:"2"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile    string        `env:"DATVE_LOG_FILE"`
	CatalogTTL time.Duration `env:"DATVE_CATALOG_TTL" envDefault:"6h"`
}

// New loads envPath (when it exists) into the process environment and parses
// the config from it.
func New(envPath string) (Config, error) {
	var c Config

	if envPath != "" {
		err := godotenv.Load(envPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	parsed, err := url.Parse(c.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("invalid DATVE_API_URL %q", c.APIURL)
	}
	if c.APITimeout <= 0 {
		return Config{}, fmt.Errorf("DATVE_API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}

	if c.LogFile == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve cache dir: %w", err)
		}
		c.LogFile = filepath.Join(dir, AppName, "datve.log")
	}

	return c, nil
}
