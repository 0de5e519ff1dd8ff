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
	"fmt"
	"reflect"
	"sync"

	"github.com/tomoncle/crudgrid/database"
	"github.com/tomoncle/crudgrid/i18n"
	"github.com/tomoncle/crudgrid/query"
	"github.com/tomoncle/crudgrid/repository"
	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
)

// Resource is what the router needs from a controller, independent of its
// entity type.
type Resource interface {
	// EntityName is the Go type name of the entity, e.g. "ArticleTag".
	EntityName() string
	RouteUpdate() bool
	RouteDestroy() bool
	Index(ctx context.Context, req *Request) (*Response, error)
	Update(ctx context.Context, req *Request) (*Response, error)
	// Destroy reports every failure in the response.
	Destroy(ctx context.Context, req *Request) *Response
}

// Controller serves grid requests for the Bun model T. It is safe for
// concurrent use once constructed.
type Controller[T any] struct {
	opts options[T]

	once    sync.Once
	repo    repository.Repository[T]
	repoErr error
}

var _ Resource = (*Controller[struct{}])(nil)

// NewController returns a controller for T. Without WithDB the global
// database is resolved on first use.
func NewController[T any](opts ...Option[T]) *Controller[T] {
	o := options[T]{routeUpdate: true, routeDestroy: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.translator == nil {
		o.translator = i18n.Default(i18n.DefaultLocale)
	}
	if o.logger == nil {
		o.logger = database.NewDefaultLogger("CRUDGRID")
	}
	c := &Controller[T]{opts: o}
	c.opts.logger = o.logger.With("entity", c.EntityName())
	return c
}

func (c *Controller[T]) repository() (repository.Repository[T], error) {
	c.once.Do(func() {
		db := c.opts.db
		if db == nil {
			db = database.GetDB()
		}
		c.repo, c.repoErr = repository.NewRepository[T](db)
	})
	return c.repo, c.repoErr
}

func (c *Controller[T]) EntityName() string {
	return reflect.TypeOf((*T)(nil)).Elem().Name()
}

func (c *Controller[T]) RouteUpdate() bool { return c.opts.routeUpdate }

func (c *Controller[T]) RouteDestroy() bool { return c.opts.routeDestroy }

// assemble returns the request query builder: base scope, eager and
// requested relations, filters, the BeforeQuery hook, then the sort.
func (c *Controller[T]) assemble(req *Request) repository.Assemble {
	a := query.Assembler{
		Eager:       c.opts.eager,
		Definitions: c.opts.filters,
	}
	if c.opts.beforeQuery != nil {
		a.BeforeQuery = func(q *query.Query) { c.opts.beforeQuery(q, req) }
	}
	params := query.Params{
		Relations: req.Relations,
		Filter:    req.Filter,
		Sort:      query.Sort{Field: req.Sort, Direction: req.Order},
	}
	return func(sel *bun.SelectQuery) *query.Query {
		if c.opts.scope != nil {
			sel = c.opts.scope(sel)
		}
		return a.Build(sel, params)
	}
}

// Index answers with one record when an id is given, a page when a page is
// given, and every matching record otherwise.
func (c *Controller[T]) Index(ctx context.Context, req *Request) (*Response, error) {
	if req.ID != nil {
		return c.GetOne(ctx, req)
	}
	if req.Page != nil {
		return c.Paginate(ctx, req)
	}
	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	items, err := repo.Find(ctx, c.assemble(req))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.EntityName(), err)
	}
	return success(items), nil
}

// GetOne answers with the record whose key is req.ID, filters and scope
// applied. The id must be a single value.
func (c *Controller[T]) GetOne(ctx context.Context, req *Request) (*Response, error) {
	if _, ok := req.ID.([]interface{}); ok {
		return nil, fmt.Errorf("%w: id must be a single value", ErrInvalidRequest)
	}
	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	item, err := repo.FindOne(ctx, c.assemble(req), req.ID)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c.EntityName(), err)
	}
	if item == nil {
		return failure(c.opts.translator.Get("Not found", nil)), nil
	}
	return success(item), nil
}

// Paginate answers with one page of the matching records and their total.
// The limit defaults to types.DefaultPageSize.
func (c *Controller[T]) Paginate(ctx context.Context, req *Request) (*Response, error) {
	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	page := 1
	if req.Page != nil {
		page = *req.Page
	}
	p, err := repo.Page(ctx, c.assemble(req), types.NewPageRequest(page, req.Limit))
	if err != nil {
		return nil, fmt.Errorf("paginate %s: %w", c.EntityName(), err)
	}
	resp := success(p.Items)
	total := p.Total
	resp.Total = &total
	return resp, nil
}
