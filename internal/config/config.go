// Package config loads settings from defaults, ~/.kanban/config.yaml,
// ./.kanban/config.yaml, an optional explicit file and KANBAN_* environment
// variables, in increasing order of precedence. A .env file in the working
// directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/idilsaglam/kanban/internal/reorder"
)

const (
	AppDir    = ".kanban"
	EnvPrefix = "KANBAN"

	StorageFile  = "file"
	StorageRedis = "redis"

	DefaultAuthURL = "https://authentication-1-56tm.onrender.com"
)

type Config struct {
	DataDir     string        `mapstructure:"data_dir"`
	Storage     string        `mapstructure:"storage"`
	RedisURL    string        `mapstructure:"redis_url"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
	AuthURL     string        `mapstructure:"auth_url"`
	AuthTimeout time.Duration `mapstructure:"auth_timeout"`
	SessionFile string        `mapstructure:"session_file"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	OrderPolicy string        `mapstructure:"order_policy"`
	LogFile     string        `mapstructure:"log_file"`
	LogLevel    string        `mapstructure:"log_level"`
	Theme       string        `mapstructure:"theme"`
}

// Policy parses OrderPolicy. LoadFrom has already validated it.
func (c *Config) Policy() reorder.Policy {
	p, _ := reorder.ParsePolicy(c.OrderPolicy)
	return p
}

// Paths locates the inputs of LoadFrom. Zero fields fall back to the user's home
// directory and the working directory.
type Paths struct {
	Home    string
	Cwd     string
	File    string // explicit --config file, must exist when set
	EnvFile string // defaults to <Cwd>/.env
}

// LoadFrom reads the configuration. Zero Paths fields are resolved from the
// environment.
func LoadFrom(p Paths) (*Config, error) {
	if p.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("home: %w", err)
		}
		p.Home = home
	}
	if p.Cwd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		p.Cwd = cwd
	}
	if p.EnvFile == "" {
		p.EnvFile = filepath.Join(p.Cwd, ".env")
	}
	if err := godotenv.Load(p.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", p.EnvFile, err)
	}

	v := viper.New()
	setDefaults(v, p.Home)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	files := []string{
		filepath.Join(p.Home, AppDir, "config.yaml"),
		filepath.Join(p.Cwd, AppDir, "config.yaml"),
	}
	for _, f := range files {
		if err := mergeFile(v, f, false); err != nil {
			return nil, err
		}
	}
	if p.File != "" {
		if err := mergeFile(v, p.File, true); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir, p.Home)
	cfg.SessionFile = expandHome(cfg.SessionFile, p.Home)
	cfg.LogFile = expandHome(cfg.LogFile, p.Home)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would only fail later and less clearly.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageFile:
		if c.DataDir == "" {
			return errors.New("config: data_dir is empty")
		}
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("config: storage is redis but redis_url is empty")
		}
	default:
		return fmt.Errorf("config: unknown storage %q (want file or redis)", c.Storage)
	}
	if _, err := reorder.ParsePolicy(c.OrderPolicy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if strings.TrimSpace(c.AuthURL) == "" {
		return errors.New("config: auth_url is empty")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: session_ttl must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper, home string) {
	base := filepath.Join(home, AppDir)
	v.SetDefault("data_dir", filepath.Join(base, "data"))
	v.SetDefault("storage", StorageFile)
	v.SetDefault("redis_url", "")
	v.SetDefault("redis_prefix", "kanban:")
	v.SetDefault("auth_url", DefaultAuthURL)
	v.SetDefault("auth_timeout", 30*time.Second)
	v.SetDefault("session_file", filepath.Join(base, "session.json"))
	v.SetDefault("session_ttl", 7*24*time.Hour)
	v.SetDefault("order_policy", reorder.GapTolerant.String())
	v.SetDefault("log_file", filepath.Join(base, "kanban.log"))
	v.SetDefault("log_level", "info")
	v.SetDefault("theme", "classic")
}

func mergeFile(v *viper.Viper, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("config file: %w", err)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func expandHome(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}
