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
	"fmt"
	"reflect"
	"strings"

	"github.com/tomoncle/repokit/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

func (r *baseRepositoryImpl[T]) multipleUpsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}

	entities := r.ValsToSlice(entity...)
	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, fields, duplicateKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, fields, entities)
	default:
		return r.upsertFallback(ctx, entities)
	}
}

// upsertOnDuplicateKey serves MySQL.
func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, entities []*T) error {
	query := r.db.NewInsert().Model(&entities).On("DUPLICATE KEY UPDATE")
	for _, field := range fields {
		query = query.Set("? = VALUES(?)", bun.Ident(field), bun.Ident(field))
	}
	_, err := query.Exec(ctx)
	return err
}

// upsertOnConflict serves PostgreSQL and SQLite.
func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{r.meta.pk.Name}
	}
	placeholders := make([]string, len(duplicateKeys))
	keys := make([]interface{}, len(duplicateKeys))
	for i, key := range duplicateKeys {
		placeholders[i] = "?"
		keys[i] = bun.Ident(key)
	}
	query := r.db.NewInsert().
		Model(&entities).
		On("CONFLICT ("+strings.Join(placeholders, ", ")+") DO UPDATE", keys...)
	for _, field := range fields {
		query = query.Set("? = EXCLUDED.?", bun.Ident(field), bun.Ident(field))
	}
	_, err := query.Exec(ctx)
	return err
}

// upsertFallback inserts each entity and updates it by primary key when the
// insert hits a duplicate key.
func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		_, err := r.db.NewInsert().Model(entity).Exec(ctx)
		if err == nil {
			continue
		}
		if !database.IsDuplicateKey(err) {
			return err
		}
		if _, updateErr := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
			return fmt.Errorf("upsert %s: insert: %v: update: %w", r.meta.name, err, updateErr)
		}
		r.logger.Debug("upsert fell back to update", "model", r.meta.name, "id", r.meta.pk.Value(reflect.ValueOf(entity).Elem()).Interface())
	}
	return nil
}
