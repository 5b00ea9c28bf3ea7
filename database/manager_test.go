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
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type logRecord struct {
	level  string
	msg    string
	fields []interface{}
}

// recordingLogger keeps every entry for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *recordingLogger) add(level, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) SetLevel(LogLevel) {}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) { l.add("debug", msg, fields) }

func (l *recordingLogger) Info(msg string, fields ...interface{}) { l.add("info", msg, fields) }

func (l *recordingLogger) Warn(msg string, fields ...interface{}) { l.add("warn", msg, fields) }

func (l *recordingLogger) Error(msg string, fields ...interface{}) { l.add("error", msg, fields) }

func (l *recordingLogger) byLevel(level string) []logRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logRecord
	for _, r := range l.records {
		if r.level == level {
			out = append(out, r)
		}
	}
	return out
}

func sqliteConfig(t *testing.T) *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = filepath.Join(t.TempDir(), "test.db")
	cfg.ReconnectInterval = time.Millisecond
	return cfg
}

func TestManagerLifecycle(t *testing.T) {
	logger := &recordingLogger{}
	m := NewDatabaseManager(sqliteConfig(t))
	m.SetLogger(logger)
	ctx := context.Background()

	assert.Nil(t, m.GetDB())
	status := m.HealthCheck(ctx)
	assert.False(t, status.Healthy)
	assert.Equal(t, "Database not initialized", status.LastError)
	assert.Equal(t, &DBStats{}, m.GetStats())

	require.NoError(t, m.Connect(ctx))
	require.NoError(t, m.Connect(ctx), "connecting twice is a no-op")
	require.NotNil(t, m.GetDB())
	require.NotNil(t, m.GetSQLDB())
	assert.NoError(t, m.Ping(ctx))

	status = m.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 100, status.MaxOpenConns)
	assert.Equal(t, 100, m.GetStats().MaxOpenConns)

	require.NoError(t, m.Reconnect(ctx))
	assert.NoError(t, m.Ping(ctx))

	require.NoError(t, m.Disconnect())
	assert.Nil(t, m.GetDB())
	assert.NoError(t, m.Disconnect())
	assert.NotEmpty(t, logger.byLevel("info"))
}

func TestManagerUnsupportedType(t *testing.T) {
	m := NewDatabaseManager(&ConnectionConfig{Type: "oracle", DBName: "x", MaxReconnectTries: 2})
	m.SetLogger(NopLogger{})
	ctx := context.Background()

	err := m.Connect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")

	err = m.Reconnect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 tries")
}

func TestDSNs(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Host = "db.local"
	cfg.Port = 3306
	cfg.Username = "root"
	cfg.Password = "pw"
	cfg.DBName = "app"

	dsn := mysqlDSN(cfg)
	assert.Contains(t, dsn, "root:pw@tcp(db.local:3306)/app?")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")

	cfg.Port = 5432
	assert.Equal(t, "postgres://root:pw@db.local:5432/app?connect_timeout=10&sslmode=disable", postgresDSN(cfg))
	cfg.SSLMode = "require"
	assert.Contains(t, postgresDSN(cfg), "sslmode=require")

	for in, want := range map[string]string{
		":memory:":           ":memory:",
		"file:x?mode=memory": "file:x?mode=memory",
		"data/app.db":        "data/app.db",
		"app":                "app.db",
	} {
		assert.Equal(t, want, sqliteDSN(&ConnectionConfig{DBName: in}), in)
	}
}

func TestFactory(t *testing.T) {
	clearDBEnv(t)
	f := NewFactory(NopLogger{})
	ctx := context.Background()

	assert.ErrorIs(t, f.Connect(ctx), errNoManager)
	assert.Equal(t, errNoManager.Error(), f.HealthStatus(ctx).LastError)
	assert.Nil(t, f.DB())
	_, err := f.Create(nil)
	assert.Error(t, err)
	_, err = f.Create(&ConnectionConfig{Type: "oracle", DBName: "x"})
	assert.ErrorContains(t, err, "oneof")
	_, err = f.Create(&ConnectionConfig{Type: "mysql", DBName: "x"})
	assert.ErrorContains(t, err, "Host is required")

	db, err := f.Open(ctx, sqliteConfig(t))
	require.NoError(t, err)
	assert.Same(t, db, f.DB())
	assert.NotNil(t, f.Manager())
	assert.True(t, f.HealthStatus(ctx).Healthy)
	assert.Equal(t, 100, f.Stats().MaxOpenConns)
	assert.NoError(t, f.Close())
}

func TestGlobalDB(t *testing.T) {
	clearDBEnv(t)
	_, err := InitDB(nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Connection = *sqliteConfig(t)
	db, err := InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })

	assert.Same(t, db, GetDB())
	assert.Same(t, cfg, GetConfig())
	assert.NotNil(t, GetDatabaseManager())
	assert.True(t, GetHealthStatus(context.Background()).Healthy)
	assert.Equal(t, 100, GetDatabaseStats().MaxOpenConns)

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.Equal(t, "Database not initialized", GetHealthStatus(context.Background()).LastError)
	assert.Equal(t, &DBStats{}, GetDatabaseStats())
}

func TestSlowQueryHook(t *testing.T) {
	logger := &recordingLogger{}
	hook := NewSlowQueryHook(10*time.Millisecond, logger)
	ctx := hook.BeforeQuery(context.Background(), &bun.QueryEvent{})

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()})
	assert.Empty(t, logger.byLevel("warn"))

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 2", StartTime: time.Now().Add(-time.Second), Err: fmt.Errorf("boom")})
	assert.Empty(t, logger.byLevel("warn"), "failed queries are not reported as slow")

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 3", StartTime: time.Now().Add(-time.Second)})
	warns := logger.byLevel("warn")
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].msg, "[SLOW QUERY]")
	assert.Contains(t, warns[0].fields, "SELECT 3")
}

func TestSlowQueryHookOnDatabase(t *testing.T) {
	logger := &recordingLogger{}
	cfg := sqliteConfig(t)
	cfg.SlowQueryTime = time.Nanosecond
	m := NewDatabaseManager(cfg)
	m.SetLogger(logger)
	ctx := context.Background()
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() { _ = m.Disconnect() })

	_, err := m.GetDB().ExecContext(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.NotEmpty(t, logger.byLevel("warn"))
}
