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
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// Manager owns one database connection: connecting, pool tuning, health
// reporting and reconnecting.
type Manager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	Type              string        `json:"type" yaml:"type" validate:"required,oneof=mysql postgres postgresql sqlite sqlite3"`
	Host              string        `json:"host" yaml:"host"`
	Port              int           `json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Username          string        `json:"username" yaml:"username"`
	Password          string        `json:"password" yaml:"password"`
	DBName            string        `json:"dbname" yaml:"dbname" validate:"required"`
	SSLMode           string        `json:"sslmode" yaml:"sslmode"`
	MaxIdleConns      int           `json:"max_idle_conns" yaml:"max_idle_conns" validate:"gte=0"`
	MaxOpenConns      int           `json:"max_open_conns" yaml:"max_open_conns" validate:"gte=0"`
	ConnMaxLifetime   time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	ConnectTimeout    time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ReconnectInterval time.Duration `json:"reconnect_interval" yaml:"reconnect_interval"`
	MaxReconnectTries int           `json:"max_reconnect_tries" yaml:"max_reconnect_tries" validate:"gte=0"`
	EnableQueryLog    bool          `json:"enable_query_log" yaml:"enable_query_log"`
	SlowQueryTime     time.Duration `json:"slow_query_time" yaml:"slow_query_time"`
	Charset           string        `json:"charset" yaml:"charset"` // MySQL: utf8mb4
}

// SeedConfig points at the YAML fixture directory used by seeding.
type SeedConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// LogConfig controls the level and format of the module loggers and, when
// Dir is set, daily rolling log files kept for MaxAgeDays.
type LogConfig struct {
	Level      string `json:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error"`
	Format     string `json:"format" yaml:"format" validate:"omitempty,oneof=text json"`
	Dir        string `json:"dir" yaml:"dir"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// Config aggregates connection, seeding and logging settings.
type Config struct {
	Connection ConnectionConfig `json:"connection" yaml:"connection"`
	Seed       SeedConfig       `json:"seed" yaml:"seed"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxIdleConns:      10,
		MaxOpenConns:      100,
		ConnMaxLifetime:   time.Hour,
		ConnMaxIdleTime:   time.Minute * 30,
		ConnectTimeout:    time.Second * 10,
		ReadTimeout:       time.Second * 30,
		WriteTimeout:      time.Second * 30,
		ReconnectInterval: time.Second * 5,
		MaxReconnectTries: 3,
		EnableQueryLog:    false,
		SlowQueryTime:     time.Second * 2,
		Charset:           "utf8mb4",
	}
}

// DefaultConfig returns a Config whose connection holds the defaults.
func DefaultConfig() *Config {
	return &Config{
		Connection: *DefaultConnectionConfig(),
		Seed:       SeedConfig{Dir: "configs/seeds"},
		Log:        LogConfig{MaxAgeDays: 7},
	}
}
