package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath 默认配置文件位置
const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"` // gin 模式: debug | release | test
}

type LogConfig struct {
	Development bool   `yaml:"development"`
	Level       string `yaml:"level"`
}

type MongoConfig struct {
	Host              string `yaml:"host"` // 为空则不记录调用历史
	DBName            string `yaml:"dbname"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	AuthSource        string `yaml:"authSource"`
	HistoryCollection string `yaml:"history"`
}

// Enabled 是否配置了 MongoDB
func (m MongoConfig) Enabled() bool { return m.Host != "" }

type RedisConfig struct {
	Addr     string `yaml:"addr"` // 为空则使用内存会话
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled 是否配置了 Redis
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type PreloadConfig struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Redis   RedisConfig   `yaml:"redis"`
	Session SessionConfig `yaml:"session"`
	Preload PreloadConfig `yaml:"preload"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080", Mode: "release"},
		Log:     LogConfig{Level: "info"},
		Mongo:   MongoConfig{DBName: "nimbus_docs", AuthSource: "admin", HistoryCollection: "runs"},
		Session: SessionConfig{TTL: 24 * time.Hour},
	}
}

// LoadConfig 读取配置：默认值 <- YAML 文件 <- .env / 环境变量
// 文件不存在时只使用默认值与环境变量
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// .env 可选，已存在的环境变量优先
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"NIMBUS_ADDR":           &cfg.Server.Addr,
		"NIMBUS_GIN_MODE":       &cfg.Server.Mode,
		"NIMBUS_LOG_LEVEL":      &cfg.Log.Level,
		"NIMBUS_MONGO_HOST":     &cfg.Mongo.Host,
		"NIMBUS_MONGO_DB":       &cfg.Mongo.DBName,
		"NIMBUS_MONGO_USERNAME": &cfg.Mongo.Username,
		"NIMBUS_MONGO_PASSWORD": &cfg.Mongo.Password,
		"NIMBUS_REDIS_ADDR":     &cfg.Redis.Addr,
		"NIMBUS_REDIS_PASSWORD": &cfg.Redis.Password,
		"NIMBUS_PRELOAD_FILE":   &cfg.Preload.File,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("NIMBUS_LOG_DEVELOPMENT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NIMBUS_LOG_DEVELOPMENT: %w", err)
		}
		cfg.Log.Development = b
	}
	if v, ok := os.LookupEnv("NIMBUS_PRELOAD_WATCH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NIMBUS_PRELOAD_WATCH: %w", err)
		}
		cfg.Preload.Watch = b
	}
	return nil
}
