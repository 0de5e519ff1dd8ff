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

package crudgrid

import (
	"context"

	"github.com/tomoncle/crudgrid/database"
	"github.com/tomoncle/crudgrid/i18n"
	"github.com/tomoncle/crudgrid/query"
	"github.com/tomoncle/crudgrid/repository"
	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
)

// BeforeQueryFunc adjusts the assembled query after the request filters and
// before the request sort.
type BeforeQueryFunc func(q *query.Query, req *Request)

// BeforeUpdateFunc may rewrite req.Body before it is stored. The record key
// has already been read from the body at that point.
type BeforeUpdateFunc func(ctx context.Context, req *Request) error

// AfterUpdateFunc runs once the upsert and pivot sync are committed.
type AfterUpdateFunc[T any] func(ctx context.Context, record *T, body types.JsonObject) error

type options[T any] struct {
	db           *bun.DB
	eager        []string
	filters      query.Definitions
	pivots       []repository.Pivot
	scope        repository.Scope
	beforeQuery  BeforeQueryFunc
	beforeUpdate BeforeUpdateFunc
	afterUpdate  AfterUpdateFunc[T]
	routeUpdate  bool
	routeDestroy bool
	translator   i18n.Translator
	logger       database.Logger
}

// Option configures a Controller.
type Option[T any] func(*options[T])

// WithDB binds the controller to db instead of the global database.
func WithDB[T any](db *bun.DB) Option[T] {
	return func(o *options[T]) { o.db = db }
}

// WithEager names the Bun relations loaded with every read.
func WithEager[T any](relations ...string) Option[T] {
	return func(o *options[T]) { o.eager = append(o.eager, relations...) }
}

// WithFilters declares how filter fields are applied. Fields not declared
// are filtered implicitly.
func WithFilters[T any](defs query.Definitions) Option[T] {
	return func(o *options[T]) {
		if o.filters == nil {
			o.filters = make(query.Definitions, len(defs))
		}
		for field, def := range defs {
			o.filters[field] = def
		}
	}
}

// WithPivots declares the many-to-many relations synced on update.
func WithPivots[T any](pivots ...repository.Pivot) Option[T] {
	return func(o *options[T]) { o.pivots = append(o.pivots, pivots...) }
}

// WithScope restricts every read, update lookup and delete to the records
// scope selects.
func WithScope[T any](scope repository.Scope) Option[T] {
	return func(o *options[T]) { o.scope = scope }
}

func WithBeforeQuery[T any](fn BeforeQueryFunc) Option[T] {
	return func(o *options[T]) { o.beforeQuery = fn }
}

func WithBeforeUpdate[T any](fn BeforeUpdateFunc) Option[T] {
	return func(o *options[T]) { o.beforeUpdate = fn }
}

func WithAfterUpdate[T any](fn AfterUpdateFunc[T]) Option[T] {
	return func(o *options[T]) { o.afterUpdate = fn }
}

// WithRoutes enables or disables the update and delete endpoints.
func WithRoutes[T any](update, destroy bool) Option[T] {
	return func(o *options[T]) {
		o.routeUpdate = update
		o.routeDestroy = destroy
	}
}

func WithTranslator[T any](tr i18n.Translator) Option[T] {
	return func(o *options[T]) { o.translator = tr }
}

func WithLogger[T any](logger database.Logger) Option[T] {
	return func(o *options[T]) { o.logger = logger }
}
