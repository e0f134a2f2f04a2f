package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // diary-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Auth struct {
	Secret string `yaml:"secret"`
}

type Storage struct {
	Backend string `yaml:"backend"` // file|redis|postgres

	FilePath string `yaml:"filePath"` // file backend

	RedisAddr     string `yaml:"redisAddr"` // redis backend
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`

	PostgresDSN string `yaml:"postgresDSN"` // postgres backend
}

type Push struct {
	VAPIDPublicKey  string `yaml:"vapidPublicKey"`
	VAPIDPrivateKey string `yaml:"vapidPrivateKey"`
	VAPIDSubject    string `yaml:"vapidSubject"` // mailto: or https: contact
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	Logging Logging `yaml:"logging"`
	Auth    Auth    `yaml:"auth"`
	Storage Storage `yaml:"storage"`
	Push    Push    `yaml:"push"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "diary-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}

	switch c.Storage.Backend {
	case "", "file":
		c.Storage.Backend = "file"
		if c.Storage.FilePath == "" {
			c.Storage.FilePath = "./data/rooms.json"
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redisAddr is required for the redis backend")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgresDSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}

	return nil
}
