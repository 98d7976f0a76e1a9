package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Token  TokenConfig
	Logger LoggerConfig
}

type ServerConfig struct {
	Addr string
}

type DBConfig struct {
	Driver string
	DSN    string
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

type LoggerConfig struct {
	Level  string
	Pretty bool
}

// Load reads config/<name>.yaml if present and overlays HARMONY_* environment
// variables. Missing files are fine; env and defaults cover everything.
func Load(name string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "harmony.db")
	v.SetDefault("token.secret", "")
	v.SetDefault("token.ttl", 24*time.Hour)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.pretty", false)

	v.SetEnvPrefix("HARMONY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
