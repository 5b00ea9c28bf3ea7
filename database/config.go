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

package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/tomoncle/repokit/utils"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads a YAML configuration file. A ".env" file next to it is
// loaded first when present, then DB_* environment variables override the
// file values. The result is validated.
func LoadConfig(path string) (*Config, error) {
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	ApplyEnvOverrides(&cfg.Connection)
	ApplyLogEnvOverrides(&cfg.Log)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfig decodes YAML on top of DefaultConfig without validating.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the connection and log settings.
func (c *Config) Validate() error {
	if err := c.Connection.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(&c.Log); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}
	return nil
}

// Validate checks the connection settings.
func (c *ConnectionConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid database configuration: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	if !c.isSQLite() && c.Host == "" {
		return fmt.Errorf("invalid database configuration: Host is required for %s", c.Type)
	}
	return nil
}

func (c *ConnectionConfig) isSQLite() bool {
	return c.Type == "sqlite" || c.Type == "sqlite3"
}

// ApplyEnvOverrides overrides configuration values from DB_* environment
// variables. Durations accept Go syntax ("5s") or plain seconds.
func ApplyEnvOverrides(cfg *ConnectionConfig) {
	cfg.Type = utils.EnvDefaultString("DB_TYPE", cfg.Type)
	cfg.Host = utils.EnvDefaultString("DB_HOST", cfg.Host)
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	cfg.Username = utils.EnvDefaultString("DB_USERNAME", cfg.Username)
	cfg.Password = utils.EnvDefaultString("DB_PASSWORD", cfg.Password)
	cfg.DBName = utils.EnvDefaultString("DB_NAME", cfg.DBName)
	cfg.SSLMode = utils.EnvDefaultString("DB_SSLMODE", cfg.SSLMode)

	// Connection pool
	if maxIdle := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdle != "" {
		if val, err := strconv.Atoi(maxIdle); err == nil {
			cfg.MaxIdleConns = val
		}
	}
	if maxOpen := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpen != "" {
		if val, err := strconv.Atoi(maxOpen); err == nil {
			cfg.MaxOpenConns = val
		}
	}
	cfg.ConnMaxLifetime = utils.EnvDefaultDuration("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime)
	cfg.ReconnectInterval = utils.EnvDefaultDuration("DB_RECONNECT_INTERVAL", cfg.ReconnectInterval)
	cfg.SlowQueryTime = utils.EnvDefaultDuration("DB_SLOW_QUERY_TIME", cfg.SlowQueryTime)

	cfg.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", cfg.EnableQueryLog)
}

// ApplyLogEnvOverrides overrides log settings from LOG_LEVEL, LOG_FORMAT,
// LOG_DIR and LOG_MAX_AGE_DAYS.
func ApplyLogEnvOverrides(cfg *LogConfig) {
	cfg.Level = utils.EnvDefaultString("LOG_LEVEL", cfg.Level)
	cfg.Format = utils.EnvDefaultString("LOG_FORMAT", cfg.Format)
	cfg.Dir = utils.EnvDefaultString("LOG_DIR", cfg.Dir)
	if days := os.Getenv("LOG_MAX_AGE_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil {
			cfg.MaxAgeDays = n
		}
	}
}
