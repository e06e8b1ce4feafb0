package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	courseauth "github.com/progplatform/courseauth"
)

// serverConfig is everything courseauthd needs to start, loaded from an
// optional YAML file plus COURSEAUTH_* environment overrides.
type serverConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`

	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTIssuer     string        `mapstructure:"jwt_issuer"`
	JWTAccessTTL  time.Duration `mapstructure:"jwt_access_ttl"`
	JWTRefreshTTL time.Duration `mapstructure:"jwt_refresh_ttl"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`

	DBDriver string `mapstructure:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn"`

	DefaultRole string `mapstructure:"default_role"`
}

func loadConfig(path string) (*serverConfig, error) {
	v := viper.New()

	// Every key needs a default registered, even an empty one: viper only
	// unmarshals keys it knows about, and AutomaticEnv alone does not
	// register them.
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "courseauth")
	v.SetDefault("jwt_access_ttl", 15*time.Minute)
	v.SetDefault("jwt_refresh_ttl", 7*24*time.Hour)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "courseauth")
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("db_dsn", "")
	v.SetDefault("default_role", string(courseauth.RoleLearner))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("COURSEAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg serverConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("db_dsn is required")
	}
	return &cfg, nil
}

func (c *serverConfig) authConfig() courseauth.Config {
	cfg := courseauth.DefaultConfig()
	cfg.JWT.Secret = []byte(c.JWTSecret)
	cfg.JWT.Issuer = c.JWTIssuer
	cfg.JWT.AccessTTL = c.JWTAccessTTL
	cfg.JWT.RefreshTTL = c.JWTRefreshTTL
	cfg.Cache.RedisPrefix = c.RedisPrefix
	cfg.Account.DefaultRole = courseauth.Role(c.DefaultRole)
	return cfg
}
