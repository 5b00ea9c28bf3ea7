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
	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/types"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	logger database.Logger
}

// WithLogger sets the logger; the global database logger is the default.
func WithLogger(logger database.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// FindOption configures FindBy.
type FindOption func(*findOptions)

type findOptions struct {
	paginate  bool
	page      int
	pageSize  int
	relations []string
	orders    []string
}

func newFindOptions(opts []FindOption) *findOptions {
	o := &findOptions{paginate: true, page: 1, pageSize: types.DefaultPageSize}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithoutPagination makes FindBy return every match on a single page.
func WithoutPagination() FindOption {
	return func(o *findOptions) { o.paginate = false }
}

func WithPage(page int) FindOption {
	return func(o *findOptions) { o.page = page }
}

func WithPageSize(size int) FindOption {
	return func(o *findOptions) { o.pageSize = size }
}

// WithRelationsLoaded eager loads relations on the found rows.
func WithRelationsLoaded(relations ...string) FindOption {
	return func(o *findOptions) { o.relations = append(o.relations, relations...) }
}

// WithOrder sets ORDER BY expressions such as "email DESC". Results are
// ordered by primary key when none are given.
func WithOrder(orders ...string) FindOption {
	return func(o *findOptions) { o.orders = append(o.orders, orders...) }
}
