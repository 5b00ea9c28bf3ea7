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
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

var errNoManager = errors.New("database manager not created")

// Factory builds a Manager from a connection configuration and owns it until
// Close.
type Factory struct {
	manager Manager
	logger  Logger
	dbType  string
}

// NewFactory returns a factory logging through logger, or through the global
// logger when logger is nil.
func NewFactory(logger Logger) *Factory {
	if logger == nil {
		logger = GetLogger()
	}
	return &Factory{logger: logger}
}

// Create applies DB_* environment overrides to cfg, validates it and builds
// an unconnected manager.
func (f *Factory) Create(cfg *ConnectionConfig) (Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)
	f.manager, f.dbType = manager, cfg.Type
	return manager, nil
}

// Connect opens the manager built by Create.
func (f *Factory) Connect(ctx context.Context) error {
	if f.manager == nil {
		return errNoManager
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	f.logger.Info("Database connected", "type", f.dbType)
	return nil
}

// Open is Create followed by Connect.
func (f *Factory) Open(ctx context.Context, cfg *ConnectionConfig) (*bun.DB, error) {
	if _, err := f.Create(cfg); err != nil {
		return nil, err
	}
	if err := f.Connect(ctx); err != nil {
		return nil, err
	}
	return f.manager.GetDB(), nil
}

func (f *Factory) Manager() Manager { return f.manager }

// DB returns the Bun handle, nil before Connect.
func (f *Factory) DB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

func (f *Factory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

func (f *Factory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

func (f *Factory) HealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{LastError: errNoManager.Error(), LastCheckTime: time.Now()}
	}
	return f.manager.HealthCheck(ctx)
}

func (f *Factory) Stats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
