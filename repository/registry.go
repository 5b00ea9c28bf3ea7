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

package repository

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var defaultRegistry = NewModelRegistry()

// ModelHandle gives name based, type erased access to a registered model.
type ModelHandle interface {
	// Name is the Go type name, e.g. "User".
	Name() string
	// Table is the Bun table name, e.g. "users".
	Table() string
	// Priority orders seeding; lower values run earlier.
	Priority() int
	Count(ctx context.Context, db bun.IDB, conditions types.Conditions) (int, error)
	Insert(ctx context.Context, db bun.IDB, rows ...types.Attributes) error
}

// ModelRegistry stores models and exposes them in a deterministic order.
type ModelRegistry struct {
	mutex  sync.RWMutex
	models []registeredModel
}

type registeredModel struct {
	typ    reflect.Type
	handle ModelHandle
}

func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{}
}

// DefaultRegistry returns the registry used by Register, Lookup and Models.
func DefaultRegistry() *ModelRegistry {
	return defaultRegistry
}

// Lookup finds a model by Go type name, qualified type name or table name,
// ignoring case.
func (r *ModelRegistry) Lookup(name string) (ModelHandle, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	name = strings.TrimSpace(name)
	for _, m := range r.models {
		if strings.EqualFold(m.handle.Name(), name) ||
			strings.EqualFold(m.handle.Table(), name) ||
			strings.EqualFold(m.typ.String(), name) {
			return m.handle, nil
		}
	}
	return nil, modelNotExistError(name)
}

// Models returns every handle sorted by ascending priority, then name.
func (r *ModelRegistry) Models() []ModelHandle {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]ModelHandle, len(r.models))
	for i, m := range r.models {
		result[i] = m.handle
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority() != result[j].Priority() {
			return result[i].Priority() < result[j].Priority()
		}
		return result[i].Name() < result[j].Name()
	})
	return result
}

// RegisterModel adds T to reg. Registering the same type again returns the
// existing handle.
func RegisterModel[T any](reg *ModelRegistry, priority int) (ModelHandle, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	for _, m := range reg.models {
		if m.typ == typ {
			return m.handle, nil
		}
	}

	// Table names do not depend on the dialect.
	meta, err := resolveModel[T](sqlitedialect.New())
	if err != nil {
		return nil, err
	}
	handle := &modelHandle[T]{name: meta.name, table: meta.table.Name, priority: priority}
	reg.models = append(reg.models, registeredModel{typ: typ, handle: handle})
	return handle, nil
}

// Register adds T to the default registry.
func Register[T any](priority int) (ModelHandle, error) {
	return RegisterModel[T](defaultRegistry, priority)
}

// MustRegister is Register for package level initialisation; it panics on
// an invalid model.
func MustRegister[T any](priority int) ModelHandle {
	handle, err := Register[T](priority)
	if err != nil {
		panic(err)
	}
	return handle
}

func Lookup(name string) (ModelHandle, error) {
	return defaultRegistry.Lookup(name)
}

func Models() []ModelHandle {
	return defaultRegistry.Models()
}

type modelHandle[T any] struct {
	name     string
	table    string
	priority int
}

func (h *modelHandle[T]) Name() string { return h.name }

func (h *modelHandle[T]) Table() string { return h.table }

func (h *modelHandle[T]) Priority() int { return h.priority }

func (h *modelHandle[T]) Count(ctx context.Context, db bun.IDB, conditions types.Conditions) (int, error) {
	repo, err := NewRepository[T](db)
	if err != nil {
		return 0, err
	}
	return repo.CountBy(ctx, conditions)
}

func (h *modelHandle[T]) Insert(ctx context.Context, db bun.IDB, rows ...types.Attributes) error {
	repo, err := NewRepository[T](db)
	if err != nil {
		return err
	}
	return repo.Insert(ctx, rows...)
}
