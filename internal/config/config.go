// Package config loads runtime settings for the bookshelf binaries.
//
// Values are layered: built-in defaults, then an optional YAML file, then a
// .env file in the working directory, then the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PathEnv names the variable holding the YAML config path.
const PathEnv = "BOOKSHELF_CONFIG"

// EnvFile is the dotenv file read from the working directory.
var EnvFile = ".env"

// Config holds runtime settings.
type Config struct {
	DBPath        string `yaml:"db_path"`
	Port          string `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
	SecureCookie  bool   `yaml:"secure_cookie"`
	LogLevel      string `yaml:"log_level"`
	TemplateDir   string `yaml:"template_dir"`
	StaticDir     string `yaml:"static_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:      "bookshelf.db",
		Port:        "8080",
		LogLevel:    "info",
		TemplateDir: "web/templates",
		StaticDir:   "web/static",
	}
}

// Load builds the configuration. path names a YAML file; when empty the
// BOOKSHELF_CONFIG variable is consulted, and when that is empty too no file
// is read.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", EnvFile, err)
	}

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if _, err := cfg.Level(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	for name, dst := range map[string]*string{
		"DB_PATH":        &c.DBPath,
		"PORT":           &c.Port,
		"SESSION_SECRET": &c.SessionSecret,
		"LOG_LEVEL":      &c.LogLevel,
		"TEMPLATE_DIR":   &c.TemplateDir,
		"STATIC_DIR":     &c.StaticDir,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SECURE_COOKIE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SECURE_COOKIE: %w", err)
		}
		c.SecureCookie = b
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Logger returns a text logger on stderr at the configured level.
func (c Config) Logger() *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
