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
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type bunManager struct {
	config    *ConnectionConfig
	db        *bun.DB
	sqlDB     *sql.DB
	logger    Logger
	mu        sync.RWMutex
	connected bool
	lastError error
}

// NewDatabaseManager returns a Manager backed by Bun. A nil config falls
// back to DefaultConnectionConfig.
func NewDatabaseManager(config *ConnectionConfig) Manager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &bunManager{config: config}
}

func (m *bunManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected && m.db != nil {
		return nil
	}

	if m.config.ConnectTimeout <= 0 {
		m.config.ConnectTimeout = 30 * time.Second
	}

	sqlDB, db, err := m.openConnection()
	if err != nil {
		m.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	m.sqlDB, m.db = sqlDB, db
	m.configureConnectionPool()

	pingCtx, cancel := context.WithTimeout(ctx, m.config.ConnectTimeout)
	defer cancel()
	if err := m.db.PingContext(pingCtx); err != nil {
		m.lastError = err
		_ = m.db.Close()
		m.db, m.sqlDB = nil, nil
		return fmt.Errorf("database connection test failed: %w", err)
	}

	m.connected = true
	m.lastError = nil
	if m.logger != nil {
		m.logger.Info("Database connected successfully", "type", m.config.Type, "host", m.config.Host, "dbname", m.config.DBName)
	}
	return nil
}

func (m *bunManager) openConnection() (*sql.DB, *bun.DB, error) {
	var (
		sqlDB *sql.DB
		db    *bun.DB
		err   error
	)
	switch m.config.Type {
	case "mysql":
		sqlDB, err = sql.Open("mysql", mysqlDSN(m.config))
		if err == nil {
			db = bun.NewDB(sqlDB, mysqldialect.New())
		}
	case "postgres", "postgresql":
		sqlDB, err = sql.Open("postgres", postgresDSN(m.config))
		if err == nil {
			db = bun.NewDB(sqlDB, pgdialect.New())
		}
	case "sqlite", "sqlite3":
		sqlDB, err = sql.Open(sqliteshim.ShimName, sqliteDSN(m.config))
		if err == nil {
			db = bun.NewDB(sqlDB, sqlitedialect.New())
		}
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", m.config.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	if m.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if m.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(m.config.SlowQueryTime, m.logger))
	}
	return sqlDB, db, nil
}

func mysqlDSN(c *ConnectionConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.DBName
	cfg.ParseTime = true
	cfg.Timeout = c.ConnectTimeout
	cfg.ReadTimeout = c.ReadTimeout
	cfg.WriteTimeout = c.WriteTimeout
	if c.Charset != "" {
		cfg.Params = map[string]string{"charset": c.Charset}
	}
	return cfg.FormatDSN()
}

func postgresDSN(c *ConnectionConfig) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// sqliteDSN uses in-memory and URI names verbatim, otherwise "<dbname>.db".
func sqliteDSN(c *ConnectionConfig) string {
	name := c.DBName
	if name == ":memory:" || strings.HasPrefix(name, "file:") || strings.HasSuffix(name, ".db") {
		return name
	}
	return name + ".db"
}

func (m *bunManager) configureConnectionPool() {
	if m.sqlDB == nil {
		return
	}
	m.sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	m.sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	m.sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	m.sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)
}

func (m *bunManager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	m.sqlDB = nil
	m.connected = false

	if m.logger != nil {
		if err != nil {
			m.logger.Error("Failed to close database connection", "error", err)
		} else {
			m.logger.Info("Database connection closed")
		}
	}
	return err
}

// Reconnect closes the current connection and connects again, retrying up
// to MaxReconnectTries times with ReconnectInterval between attempts.
func (m *bunManager) Reconnect(ctx context.Context) error {
	if err := m.Disconnect(); err != nil && m.logger != nil {
		m.logger.Warn("Error disconnecting existing connection", "error", err)
	}

	tries := m.config.MaxReconnectTries
	if tries < 1 {
		tries = 1
	}
	var err error
	for try := 1; try <= tries; try++ {
		if err = m.Connect(ctx); err == nil {
			return nil
		}
		if m.logger != nil {
			m.logger.Error("Reconnect failed", "error", err, "try", try)
		}
		if try == tries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.ReconnectInterval):
		}
	}
	return fmt.Errorf("reconnect failed after %d tries: %w", tries, err)
}

func (m *bunManager) Ping(ctx context.Context) error {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (m *bunManager) GetDB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *bunManager) GetSQLDB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sqlDB
}

func (m *bunManager) HealthCheck(ctx context.Context) *HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{
		LastCheckTime: start,
		Connected:     m.connected,
	}
	if m.db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	err := m.db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.Connected = false
		status.LastError = err.Error()
		m.lastError = err
	} else {
		status.Healthy = true
		status.Connected = true
		m.lastError = nil
	}

	stats := m.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (m *bunManager) GetStats() *DBStats {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()

	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (m *bunManager) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}
