// Package config assembles service configuration from defaults, an optional
// YAML file, a .env file and the process environment, in that order of
// increasing precedence.
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
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Store   Store   `yaml:"store"`
	Routing Routing `yaml:"routing"`
	Auth    Auth    `yaml:"auth"`
	Log     Log     `yaml:"log"`
}

type Server struct {
	Port string `yaml:"port"`
}

type Store struct {
	// Backend is memory, file, badger, redis or postgres. Empty picks
	// postgres when DatabaseURL is set, else the file store under Dir.
	Backend     string `yaml:"backend"`
	Dir         string `yaml:"dir"`
	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`
}

type Routing struct {
	BaseURL  string `yaml:"baseUrl"`
	Profile  string `yaml:"profile"`
	Strategy string `yaml:"strategy"`
	// Timeout bounds each HTTP request to the routing service.
	Timeout time.Duration `yaml:"timeout"`
	// ResolveTimeout bounds one whole resolve including retries.
	ResolveTimeout time.Duration `yaml:"resolveTimeout"`
	Attempts       int           `yaml:"attempts"`
	Backoff        time.Duration `yaml:"backoff"`
	CacheSize      int           `yaml:"cacheSize"`
	CacheTTL       time.Duration `yaml:"cacheTtl"`
	SegmentRPS     float64       `yaml:"segmentRps"`
}

type Auth struct {
	Mode        string `yaml:"mode"`
	HMACSecret  string `yaml:"hmacSecret"`
	JWKSURL     string `yaml:"jwksUrl"`
	DriverClaim string `yaml:"driverClaim"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{Port: "8080"},
		Store:  Store{Dir: "data"},
		Routing: Routing{
			BaseURL:        "http://router.project-osrm.org",
			Profile:        "driving",
			Strategy:       "batch",
			Timeout:        10 * time.Second,
			ResolveTimeout: 30 * time.Second,
			Attempts:       3,
			Backoff:        500 * time.Millisecond,
			CacheSize:      64,
			CacheTTL:       24 * time.Hour,
		},
		Auth: Auth{Mode: "dev", DriverClaim: "sub"},
		Log:  Log{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// CONFIG_FILE is consulted. A missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadDotenv(".env"); err != nil {
		return cfg, err
	}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func loadDotenv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Server.Port)
	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	str("DATABASE_URL", &c.Store.DatabaseURL)
	str("REDIS_URL", &c.Store.RedisURL)
	str("OSRM_URL", &c.Routing.BaseURL)
	str("OSRM_PROFILE", &c.Routing.Profile)
	str("ROUTING_STRATEGY", &c.Routing.Strategy)
	str("AUTH_MODE", &c.Auth.Mode)
	str("AUTH_HMAC_SECRET", &c.Auth.HMACSecret)
	str("AUTH_JWKS_URL", &c.Auth.JWKSURL)
	str("AUTH_DRIVER_CLAIM", &c.Auth.DriverClaim)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur("ROUTING_TIMEOUT", &c.Routing.Timeout)
	dur("ROUTING_RESOLVE_TIMEOUT", &c.Routing.ResolveTimeout)
	dur("ROUTING_BACKOFF", &c.Routing.Backoff)
	dur("ROUTING_CACHE_TTL", &c.Routing.CacheTTL)
	integer("ROUTING_ATTEMPTS", &c.Routing.Attempts)
	integer("ROUTING_CACHE_SIZE", &c.Routing.CacheSize)
	if v := strings.TrimSpace(os.Getenv("ROUTING_SEGMENT_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("ROUTING_SEGMENT_RPS: %w", err))
		} else {
			c.Routing.SegmentRPS = f
		}
	}
	return errors.Join(errs...)
}

// Validate rejects values the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case "", "memory", "file", "badger", "redis", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	backend := c.Store.Backend
	if backend == "" && c.Store.DatabaseURL == "" {
		backend = "file"
	}
	if (backend == "file" || backend == "badger") && c.Store.Dir == "" {
		errs = append(errs, fmt.Errorf("store backend %s needs a directory", backend))
	}
	if backend == "redis" && c.Store.RedisURL == "" {
		errs = append(errs, errors.New("store backend redis needs REDIS_URL"))
	}
	if backend == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, errors.New("store backend postgres needs DATABASE_URL"))
	}
	switch c.Routing.Strategy {
	case "", "batch", "segment":
	default:
		errs = append(errs, fmt.Errorf("unknown routing strategy %q", c.Routing.Strategy))
	}
	if c.Routing.Attempts < 1 {
		errs = append(errs, errors.New("routing attempts must be at least 1"))
	}
	if c.Routing.Timeout <= 0 || c.Routing.ResolveTimeout <= 0 {
		errs = append(errs, errors.New("routing timeouts must be positive"))
	}
	if c.Routing.SegmentRPS < 0 {
		errs = append(errs, errors.New("routing segment rps must not be negative"))
	}
	switch c.Auth.Mode {
	case "dev", "jwks":
	case "hmac":
		if c.Auth.HMACSecret == "" {
			errs = append(errs, errors.New("auth mode hmac needs AUTH_HMAC_SECRET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth mode %q", c.Auth.Mode))
	}
	return errors.Join(errs...)
}
