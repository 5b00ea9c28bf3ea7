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
	"sync"

	"github.com/uptrace/bun"
)

// ErrNotInitialized is returned by consumers of GetDB before InitDB ran.
var ErrNotInitialized = errors.New("database not initialized")

var (
	globalMu      sync.RWMutex
	globalFactory *Factory
	globalConfig  *Config
)

// GetDB returns the global Bun database instance, nil before InitDB.
func GetDB() *bun.DB {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory == nil {
		return nil
	}
	return globalFactory.DB()
}

// GetConfig returns the configuration passed to InitDB.
func GetConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// GetDatabaseManager returns the global database manager.
func GetDatabaseManager() Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory == nil {
		return nil
	}
	return globalFactory.Manager()
}

// InitDB connects the global database using cfg. A previously initialised
// global connection is closed first.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	if err := ConfigureLogging(cfg.Log); err != nil {
		return nil, err
	}

	factory := NewFactory(nil)
	db, err := factory.Open(context.Background(), &cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	globalMu.Lock()
	previous := globalFactory
	globalFactory = factory
	globalConfig = cfg
	globalMu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return db, nil
}

// CloseDB closes the global database connection.
func CloseDB() error {
	globalMu.Lock()
	factory := globalFactory
	globalFactory = nil
	globalMu.Unlock()

	if factory == nil {
		return nil
	}
	return factory.Close()
}

// GetHealthStatus returns the current database health status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	globalMu.RLock()
	factory := globalFactory
	globalMu.RUnlock()

	if factory == nil {
		return &HealthStatus{LastError: "Database not initialized"}
	}
	return factory.HealthStatus(ctx)
}

// GetDatabaseStats returns global database statistics.
func GetDatabaseStats() *DBStats {
	globalMu.RLock()
	factory := globalFactory
	globalMu.RUnlock()

	if factory == nil {
		return &DBStats{}
	}
	return factory.Stats()
}
