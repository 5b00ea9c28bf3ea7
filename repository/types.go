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

	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Fillable is implemented by models that restrict which columns attribute
// based operations may assign. Models without it allow every column except
// the primary key.
type Fillable interface {
	Fillable() []string
}

// CrudRepository defines the write operations for a model type.
type CrudRepository[T any] interface {
	// Create fills a new model from attributes, limited to its fillable
	// columns, stamps timestamps and inserts it.
	Create(ctx context.Context, attributes types.Attributes) (*T, error)

	// Save inserts typed entities as they are.
	Save(ctx context.Context, entity ...*T) error

	// Insert bulk inserts attribute rows. Fillable columns are not enforced.
	Insert(ctx context.Context, rows ...types.Attributes) error

	// UpdateOrCreate updates the first row matching attributes with values,
	// or creates one from both when nothing matches.
	UpdateOrCreate(ctx context.Context, attributes types.Attributes, values types.Attributes) (*T, error)

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	// Update fills model with data, stamps updated_at and saves it. It
	// returns nil and the error when saving fails.
	Update(ctx context.Context, model *T, data types.Attributes, fillable ...string) (*T, error)

	// Fill assigns data to model restricted to fillable, or to the model's
	// own fillable columns when none are given.
	Fill(model *T, data types.Attributes, fillable ...string) (*T, error)

	// Delete removes target, which is either a *T or a primary key value.
	Delete(ctx context.Context, target interface{}) error

	// Destroy deletes the rows with the given primary keys and returns how
	// many were removed.
	Destroy(ctx context.Context, ids ...interface{}) (int, error)

	// DestroyModels deletes the given entities and returns how many were removed.
	DestroyModels(ctx context.Context, entity ...*T) (int, error)
}

// FinderRepository defines the read operations for a model type. Single
// row finders return a nil entity and a nil error when nothing matches.
type FinderRepository[T any] interface {
	Find(ctx context.Context, id interface{}) (*T, error)

	FindAll(ctx context.Context) ([]*T, error)

	FindWithRelations(ctx context.Context, id interface{}, relations ...string) (*T, error)

	// FindBy returns rows matching conditions, paginated unless
	// WithoutPagination is passed.
	FindBy(ctx context.Context, conditions types.Conditions, opts ...FindOption) (*types.Pagination[T], error)

	FindOneBy(ctx context.Context, conditions types.Conditions, relations ...string) (*T, error)

	CountBy(ctx context.Context, conditions types.Conditions) (int, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// QueryRepository hands out Bun select builders bound to a destination.
type QueryRepository[T any] interface {
	// Query returns a select on the model table scanning into dest, which
	// may be *T, *[]T or *[]*T. A nil dest binds the model type only.
	Query(dest interface{}) *bun.SelectQuery

	// With is Query plus eager loading of relations.
	With(dest interface{}, relations ...string) *bun.SelectQuery

	// WithFunc eager loads one relation whose query is adjusted by apply.
	WithFunc(dest interface{}, relation string, apply func(*bun.SelectQuery) *bun.SelectQuery) *bun.SelectQuery
}

// Repository combines every operation and exposes Bun query builders for
// advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	FinderRepository[T]
	PageQueryRepository[T]
	QueryRepository[T]

	// WithRelations returns a copy whose queries always eager load relations.
	WithRelations(relations ...string) Repository[T]

	// WithTx returns a copy running every statement on tx.
	WithTx(tx bun.Tx) Repository[T]

	Table() *schema.Table
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
