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

package repokit

import (
	"context"
	"sync"

	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/repository"
	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier, nil when absent.
	Get(ctx context.Context, id any) (*T, error)

	// GetWith returns a single entity with the given relations loaded.
	GetWith(ctx context.Context, id any, relations ...string) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// FindBy returns a page of entities matching conditions.
	FindBy(ctx context.Context, conditions types.Conditions, opts ...repository.FindOption) (*types.Pagination[T], error)

	// FindOneBy returns the first entity matching conditions.
	FindOneBy(ctx context.Context, conditions types.Conditions, relations ...string) (*T, error)

	// Count returns how many entities match conditions.
	Count(ctx context.Context, conditions types.Conditions) (int, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Create builds and inserts an entity from fillable attributes.
	Create(ctx context.Context, attributes types.Attributes) (*T, error)

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) error

	// SaveOrUpdate upserts entities based on fields and duplicate keys.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error

	// UpdateOrCreate updates the entity matching attributes or creates it.
	UpdateOrCreate(ctx context.Context, attributes types.Attributes, values types.Attributes) (*T, error)

	// Update fills and saves an existing entity.
	Update(ctx context.Context, model *T, data types.Attributes, fillable ...string) (*T, error)

	// Delete removes an entity, given either the entity or its identifier.
	Delete(ctx context.Context, target any) error

	// Destroy removes the entities with the given identifiers.
	Destroy(ctx context.Context, ids ...any) (int, error)

	// Repository returns the resolved repository for advanced queries.
	Repository() (repository.Repository[T], error)

	// Tx returns the repository bound to an externally managed transaction.
	Tx(tx bun.Tx) (repository.Repository[T], error)
}

type baseServiceImpl[T any] struct {
	mu   sync.Mutex
	db   *bun.DB
	repo repository.Repository[T]
	opts []repository.Option
}

// NewService returns a default Service implementation using the generic
// repository backed by the global database connection. Every call uses the
// current global handle, so a service created before InitDB, or kept across
// a reconnect, follows the live connection.
func NewService[T any](opts ...repository.Option) Service[T] {
	return &baseServiceImpl[T]{opts: opts}
}

func (s *baseServiceImpl[T]) baseRepo() (repository.Repository[T], error) {
	db := database.GetDB()
	if db == nil {
		return nil, database.ErrNotInitialized
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil && s.db == db {
		return s.repo, nil
	}
	repo, err := repository.NewRepository[T](db, s.opts...)
	if err != nil {
		return nil, err
	}
	s.db, s.repo = db, repo
	return repo, nil
}

func (s *baseServiceImpl[T]) Repository() (repository.Repository[T], error) {
	return s.baseRepo()
}

func (s *baseServiceImpl[T]) Tx(tx bun.Tx) (repository.Repository[T], error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.WithTx(tx), nil
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Find(ctx, id)
}

func (s *baseServiceImpl[T]) GetWith(ctx context.Context, id any, relations ...string) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.FindWithRelations(ctx, id, relations...)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.FindAll(ctx)
}

func (s *baseServiceImpl[T]) FindBy(ctx context.Context, conditions types.Conditions, opts ...repository.FindOption) (*types.Pagination[T], error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.FindBy(ctx, conditions, opts...)
}

func (s *baseServiceImpl[T]) FindOneBy(ctx context.Context, conditions types.Conditions, relations ...string) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.FindOneBy(ctx, conditions, relations...)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, conditions types.Conditions) (int, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return 0, err
	}
	return repo.CountBy(ctx, conditions)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Page(ctx, page)
}

func (s *baseServiceImpl[T]) Create(ctx context.Context, attributes types.Attributes) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Create(ctx, attributes)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	repo, err := s.baseRepo()
	if err != nil {
		return err
	}
	return repo.Save(ctx, model...)
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error {
	repo, err := s.baseRepo()
	if err != nil {
		return err
	}
	return repo.Upsert(ctx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) UpdateOrCreate(ctx context.Context, attributes types.Attributes, values types.Attributes) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.UpdateOrCreate(ctx, attributes, values)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T, data types.Attributes, fillable ...string) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Update(ctx, model, data, fillable...)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, target any) error {
	repo, err := s.baseRepo()
	if err != nil {
		return err
	}
	return repo.Delete(ctx, target)
}

func (s *baseServiceImpl[T]) Destroy(ctx context.Context, ids ...any) (int, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return 0, err
	}
	return repo.Destroy(ctx, ids...)
}
