// Package config reads process configuration from the environment, with an
// optional .env file layered underneath.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ErrInvalid = errors.New("invalid configuration")

type Client struct {
	ServerURL     string
	Room          string
	User          string
	Width         int
	Height        int
	TileSize      float64
	HoverInterval time.Duration
	PollInterval  time.Duration
	AssetDir      string
	Discover      bool
	LogLevel      string
	Dev           bool
}

type Server struct {
	Addr        string
	DatabaseDSN string
	Advertise   bool
	ServiceName string
	LogLevel    string
	Dev         bool
}

// Load reads the given .env files (".env" when none are named) into the
// process environment. Missing files are not an error; variables already set
// win over file values.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadClient() (Client, error) {
	var errs []error
	c := Client{
		ServerURL: getEnv("HEXHIVE_SERVER_URL", ""),
		Room:      getEnv("HEXHIVE_ROOM", "lobby"),
		User:      getEnv("HEXHIVE_USER", ""),
		AssetDir:  getEnv("HEXHIVE_ASSETS", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
	c.Width = getInt("HEXHIVE_WIDTH", 1280, &errs)
	c.Height = getInt("HEXHIVE_HEIGHT", 800, &errs)
	c.TileSize = getFloat("HEXHIVE_TILE_SIZE", 50, &errs)
	c.HoverInterval = getDuration("HEXHIVE_HOVER", 100*time.Millisecond, &errs)
	c.PollInterval = getDuration("HEXHIVE_POLL", 0, &errs)
	c.Discover = getBool("HEXHIVE_DISCOVER", true, &errs)
	c.Dev = getBool("HEXHIVE_DEV", false, &errs)

	if c.User == "" {
		errs = append(errs, fmt.Errorf("%w: HEXHIVE_USER is required", ErrInvalid))
	}
	if c.ServerURL == "" && !c.Discover {
		errs = append(errs, fmt.Errorf("%w: HEXHIVE_SERVER_URL is required when discovery is off", ErrInvalid))
	}
	if c.Width <= 0 || c.Height <= 0 || c.TileSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: window and tile sizes must be positive", ErrInvalid))
	}
	if c.HoverInterval <= 0 || c.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: hover interval must be positive and poll interval not negative", ErrInvalid))
	}
	return c, multierr.Combine(errs...)
}

func LoadServer() (Server, error) {
	var errs []error
	s := Server{
		Addr:        getEnv("HEXHIVE_ADDR", ":8080"),
		DatabaseDSN: getEnv("DATABASE_URL", "file:hexhive.db"),
		ServiceName: getEnv("HEXHIVE_SERVICE", "hexhive"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
	s.Advertise = getBool("HEXHIVE_ADVERTISE", false, &errs)
	s.Dev = getBool("HEXHIVE_DEV", false, &errs)
	return s, multierr.Combine(errs...)
}

// NewLogger builds the process logger. Dev selects the console encoder.
func NewLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", ErrInvalid, level)
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalid, k, v))
		return def
	}
	return n
}

func getFloat(k string, def float64, errs *[]error) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalid, k, v))
		return def
	}
	return f
}

func getBool(k string, def bool, errs *[]error) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalid, k, v))
		return def
	}
	return b
}

func getDuration(k string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalid, k, v))
		return def
	}
	return d
}
