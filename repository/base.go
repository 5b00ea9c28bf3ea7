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
	"database/sql"
	"errors"
	"reflect"

	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db        bun.IDB
	meta      *modelMeta
	relations []string
	logger    database.Logger
}

// NewRepository returns a generic repository for T backed by db, which may
// be a *bun.DB, a bun.Tx or a bun.Conn.
func NewRepository[T any](db bun.IDB, opts ...Option) (Repository[T], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = database.GetLogger()
	}
	meta, err := resolveModel[T](db.Dialect())
	if err != nil {
		return nil, err
	}
	return &baseRepositoryImpl[T]{db: db, meta: meta, logger: o.logger}, nil
}

func (r *baseRepositoryImpl[T]) clone() *baseRepositoryImpl[T] {
	c := *r
	c.relations = append([]string(nil), r.relations...)
	return &c
}

func (r *baseRepositoryImpl[T]) WithRelations(relations ...string) Repository[T] {
	c := r.clone()
	c.relations = append(c.relations, relations...)
	return c
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.Tx) Repository[T] {
	c := r.clone()
	c.db = tx
	return c
}

func (r *baseRepositoryImpl[T]) Table() *schema.Table { return r.meta.table }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) ValsToSlice(entity ...*T) []*T {
	entities := make([]*T, len(entity))
	copy(entities, entity)
	return entities
}

func (r *baseRepositoryImpl[T]) Query(dest interface{}) *bun.SelectQuery {
	query := r.db.NewSelect()
	if dest == nil {
		query = query.Model((*T)(nil))
	} else {
		query = query.Model(dest)
	}
	return r.meta.applyRelations(query, r.relations...)
}

func (r *baseRepositoryImpl[T]) With(dest interface{}, relations ...string) *bun.SelectQuery {
	return r.meta.applyRelations(r.Query(dest), relations...)
}

func (r *baseRepositoryImpl[T]) WithFunc(dest interface{}, relation string, apply func(*bun.SelectQuery) *bun.SelectQuery) *bun.SelectQuery {
	query := r.Query(dest)
	name, err := r.meta.resolveRelation(relation)
	if err != nil {
		return query.Err(err)
	}
	if apply == nil {
		return query.Relation(name)
	}
	return query.Relation(name, apply)
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, id interface{}) (*T, error) {
	return r.FindWithRelations(ctx, id)
}

func (r *baseRepositoryImpl[T]) FindAll(ctx context.Context) ([]*T, error) {
	entities := make([]*T, 0)
	query := applyOrders(r.Query(&entities), r.meta.pk.Name, nil)
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) FindWithRelations(ctx context.Context, id interface{}, relations ...string) (*T, error) {
	entity := new(T)
	err := r.With(entity, relations...).
		Where("?TableAlias.? = ?", bun.Ident(r.meta.pk.Name), id).
		Limit(1).
		Scan(ctx)
	return r.one(entity, err)
}

func (r *baseRepositoryImpl[T]) FindOneBy(ctx context.Context, conditions types.Conditions, relations ...string) (*T, error) {
	entity := new(T)
	query := applyConditions(r.With(entity, relations...), conditions)
	err := applyOrders(query, r.meta.pk.Name, nil).Limit(1).Scan(ctx)
	return r.one(entity, err)
}

func (r *baseRepositoryImpl[T]) one(entity *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindBy(ctx context.Context, conditions types.Conditions, opts ...FindOption) (*types.Pagination[T], error) {
	o := newFindOptions(opts)
	entities := make([]*T, 0)
	query := applyConditions(r.With(&entities, o.relations...), conditions)
	if o.paginate {
		return r.paginate(ctx, query, &entities, types.NewPageRequestWithOrders(o.page, o.pageSize, o.orders))
	}

	if err := applyOrders(query, r.meta.pk.Name, o.orders).Scan(ctx); err != nil {
		return nil, err
	}
	pagination := types.NewDefaultPagination[T](1, len(entities))
	pagination.Total = len(entities)
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) CountBy(ctx context.Context, conditions types.Conditions) (int, error) {
	return applyConditions(r.db.NewSelect().Model((*T)(nil)), conditions).Count(ctx)
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	}
	entities := make([]*T, 0)
	query := r.Query(&entities)
	if filter := pageRequest.GetFilter(); filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	return r.paginate(ctx, query, &entities, pageRequest)
}

func (r *baseRepositoryImpl[T]) paginate(ctx context.Context, query *bun.SelectQuery, entities *[]*T, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	if total == 0 || pageRequest.GetOffset() >= total {
		return pagination, nil
	}
	err = applyOrders(query, r.meta.pk.Name, pageRequest.GetOrders()).
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Items = *entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, attributes types.Attributes) (*T, error) {
	entity := new(T)
	strct := reflect.ValueOf(entity).Elem()
	if err := r.meta.fill(strct, attributes, r.meta.fillable); err != nil {
		return nil, err
	}
	if err := r.meta.touch(strct, true); err != nil {
		return nil, err
	}
	if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("model created", "model", r.meta.name, "id", r.meta.pk.Value(strct).Interface())
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Save(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := r.ValsToSlice(entity...)
	for _, e := range entities {
		if err := r.meta.touch(reflect.ValueOf(e).Elem(), true); err != nil {
			return err
		}
	}
	_, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Insert(ctx context.Context, rows ...types.Attributes) error {
	if len(rows) == 0 {
		return nil
	}
	entities := make([]*T, 0, len(rows))
	for _, row := range rows {
		entity := new(T)
		if err := r.meta.fill(reflect.ValueOf(entity).Elem(), row, r.meta.columns); err != nil {
			return err
		}
		entities = append(entities, entity)
	}
	if _, err := r.db.NewInsert().Model(&entities).Exec(ctx); err != nil {
		return err
	}
	r.logger.Debug("rows inserted", "model", r.meta.name, "count", len(entities))
	return nil
}

func (r *baseRepositoryImpl[T]) UpdateOrCreate(ctx context.Context, attributes types.Attributes, values types.Attributes) (*T, error) {
	existing, err := r.FindOneBy(ctx, types.ConditionsFromAttributes(attributes))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return r.Update(ctx, existing, values)
	}
	return r.Create(ctx, attributes.Merge(values))
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, model *T, data types.Attributes, fillable ...string) (*T, error) {
	if model == nil {
		return nil, modelNotFoundError(r.meta.name, nil)
	}
	if _, err := r.Fill(model, data, fillable...); err != nil {
		return nil, err
	}
	strct := reflect.ValueOf(model).Elem()
	if err := r.meta.touch(strct, false); err != nil {
		return nil, err
	}
	if _, err := r.db.NewUpdate().Model(model).WherePK().Exec(ctx); err != nil {
		r.logger.Warn("model update failed", "model", r.meta.name, "error", err)
		return nil, err
	}
	return model, nil
}

func (r *baseRepositoryImpl[T]) Fill(model *T, data types.Attributes, fillable ...string) (*T, error) {
	if model == nil {
		return nil, modelNotFoundError(r.meta.name, nil)
	}
	if len(fillable) == 0 {
		fillable = r.meta.fillable
	}
	if err := r.meta.fill(reflect.ValueOf(model).Elem(), data, fillable); err != nil {
		return nil, err
	}
	return model, nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, target interface{}) error {
	var entity *T
	switch v := target.(type) {
	case *T:
		entity = v
	case T:
		entity = &v
	default:
		found, err := r.Find(ctx, target)
		if err != nil {
			return err
		}
		if found == nil {
			return modelNotFoundError(r.meta.name, target)
		}
		entity = found
	}
	if entity == nil {
		return modelNotFoundError(r.meta.name, nil)
	}
	if _, err := r.db.NewDelete().Model(entity).WherePK().Exec(ctx); err != nil {
		return err
	}
	r.logger.Debug("model deleted", "model", r.meta.name)
	return nil
}

func (r *baseRepositoryImpl[T]) Destroy(ctx context.Context, ids ...interface{}) (int, error) {
	ids = flattenIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	// Unqualified column: not every dialect aliases the table in DELETE.
	res, err := r.db.NewDelete().
		Model((*T)(nil)).
		Where("? IN (?)", bun.Ident(r.meta.pk.Name), bun.In(ids)).
		Exec(ctx)
	return r.affected(res, err)
}

func (r *baseRepositoryImpl[T]) DestroyModels(ctx context.Context, entity ...*T) (int, error) {
	entities := make([]*T, 0, len(entity))
	for _, e := range entity {
		if e != nil {
			entities = append(entities, e)
		}
	}
	if len(entities) == 0 {
		return 0, nil
	}
	res, err := r.db.NewDelete().Model(&entities).WherePK().Exec(ctx)
	return r.affected(res, err)
}

func (r *baseRepositoryImpl[T]) affected(res sql.Result, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.logger.Debug("models destroyed", "model", r.meta.name, "count", n)
	return int(n), nil
}

// flattenIDs accepts Destroy(ctx, 1, 2) as well as Destroy(ctx, []int64{1, 2}).
func flattenIDs(ids []interface{}) []interface{} {
	if len(ids) != 1 || ids[0] == nil {
		return ids
	}
	v := reflect.ValueOf(ids[0])
	if v.Kind() != reflect.Slice || v.Type().Elem().Kind() == reflect.Uint8 {
		return ids
	}
	flat := make([]interface{}, v.Len())
	for i := range flat {
		flat[i] = v.Index(i).Interface()
	}
	return flat
}
