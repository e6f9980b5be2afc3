package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"PORT"`
		Mode string `yaml:"mode" env:"GIN_MODE"`
	} `yaml:"server"`

	Data struct {
		CoursesFile  string `yaml:"courses_file" env:"COURSES_FILE"`
		StudentsFile string `yaml:"students_file" env:"STUDENTS_FILE"`
	} `yaml:"data"`

	Store struct {
		Driver string `yaml:"driver" env:"STORE_DRIVER"` // "file" or "redis"
	} `yaml:"store"`

	Redis struct {
		Addr      string `yaml:"addr" env:"REDIS_ADDR"`
		Password  string `yaml:"password" env:"REDIS_PASSWORD"`
		DB        int    `yaml:"db" env:"REDIS_DB"`
		KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX"`
	} `yaml:"redis"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"` // "json" or "text"
	} `yaml:"logging"`
}

// Load builds the configuration from defaults, then the YAML file at path if
// it exists, then environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := applyEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "debug"

	cfg.Data.CoursesFile = "data/courses.json"
	cfg.Data.StudentsFile = "data/students.json"

	cfg.Store.Driver = "file"

	cfg.Redis.Addr = "127.0.0.1:6379"
	cfg.Redis.KeyPrefix = "collegedata:"

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port %q is not a number", c.Server.Port)
	}
	switch strings.ToLower(c.Store.Driver) {
	case "file":
		if c.Data.CoursesFile == "" || c.Data.StudentsFile == "" {
			return errors.New("courses_file and students_file are required")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("redis addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// applyEnv walks the struct and overrides every field carrying an env tag
// whose variable is set.
func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}

		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		value, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(value)
		case reflect.Int:
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("env var %s: invalid integer %q", name, value)
			}
			field.SetInt(int64(n))
		default:
			return fmt.Errorf("env var %s: unsupported field type %s", name, field.Kind())
		}
	}
	return nil
}
