/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the server configuration from defaults, an optional
// YAML file and CRUDGRID_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tomoncle/crudgrid/database"
)

// EnvPrefix prefixes every environment override, e.g. CRUDGRID_SERVER_PORT.
const EnvPrefix = "CRUDGRID"

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database database.Config `mapstructure:"database"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Locale   LocaleConfig    `mapstructure:"locale"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns host:port.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type LocaleConfig struct {
	Default string `mapstructure:"default"`
	Dir     string `mapstructure:"dir"` // extra locale files, optional
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Load reads the configuration. Each path may name a config file or a
// directory searched for config.yaml; without paths the working directory
// and ./config are searched. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		if strings.HasSuffix(p, ".yaml") || strings.HasSuffix(p, ".yml") {
			v.SetConfigFile(p)
			break
		}
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	def := database.DefaultConnectionConfig()
	v.SetDefault("database.connection.type", def.Type)
	v.SetDefault("database.connection.host", "localhost")
	v.SetDefault("database.connection.port", 0)
	v.SetDefault("database.connection.username", "")
	v.SetDefault("database.connection.password", "")
	v.SetDefault("database.connection.dbname", def.DBName)
	v.SetDefault("database.connection.dsn", "")
	v.SetDefault("database.connection.sslmode", "disable")
	v.SetDefault("database.connection.max_idle_conns", def.MaxIdleConns)
	v.SetDefault("database.connection.max_open_conns", def.MaxOpenConns)
	v.SetDefault("database.connection.conn_max_lifetime", def.ConnMaxLifetime)
	v.SetDefault("database.connection.conn_max_idle_time", def.ConnMaxIdleTime)
	v.SetDefault("database.connection.connect_timeout", def.ConnectTimeout)
	v.SetDefault("database.connection.read_timeout", def.ReadTimeout)
	v.SetDefault("database.connection.write_timeout", def.WriteTimeout)
	v.SetDefault("database.connection.enable_query_log", def.EnableQueryLog)
	v.SetDefault("database.connection.slow_query_time", def.SlowQueryTime)
	v.SetDefault("database.schema.create_tables_on_startup", true)
	v.SetDefault("database.schema.enable_foreign_keys", true)
	v.SetDefault("database.schema.seed_dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("locale.default", "en")
	v.SetDefault("locale.dir", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "crudgrid")
}

// Validate checks the values a server cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Database.ConnectionConfig.Type {
	case "mysql", "postgres", "postgresql", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.connection.type %q is not supported", c.Database.ConnectionConfig.Type)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
