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

	"github.com/tomoncle/crudgrid/query"
	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
)

// Update stores req.Body: the record whose key is the body's primary key is
// updated, or a new one is created. Pivot attributes holding arrays replace
// the related ids of the record in the same transaction. The stored record
// is returned with its eager relations.
func (c *Controller[T]) Update(ctx context.Context, req *Request) (*Response, error) {
	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	if req.Body == nil {
		req.Body = types.JsonObject{}
	}
	key, _ := req.Body.Lookup(repo.PrimaryKey().JSON)

	if c.opts.beforeUpdate != nil {
		if err := c.opts.beforeUpdate(ctx, req); err != nil {
			return nil, err
		}
	}
	body := req.Body

	pivotAttrs := make([]string, 0, len(c.opts.pivots))
	for _, p := range c.opts.pivots {
		pivotAttrs = append(pivotAttrs, p.Attribute)
	}

	var record *T
	err = repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		var err error
		record, err = repo.UpsertWithTx(ctx, tx, c.opts.scope, key, body.Without(pivotAttrs...))
		if err != nil {
			return err
		}
		owner := repo.KeyOf(record)
		for _, p := range c.opts.pivots {
			ids, ok := body[p.Attribute].([]interface{})
			if !ok {
				continue
			}
			if err := repo.SyncPivotWithTx(ctx, tx, p, owner, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", c.EntityName(), err)
	}

	if c.opts.afterUpdate != nil {
		if err := c.opts.afterUpdate(ctx, record, body); err != nil {
			return nil, err
		}
	}

	eager := c.opts.eager
	reloaded, err := repo.FindOne(ctx, func(sel *bun.SelectQuery) *query.Query {
		return query.New(sel).With(eager...)
	}, repo.KeyOf(record))
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", c.EntityName(), err)
	}
	if reloaded == nil {
		reloaded = record
	}
	c.opts.logger.Debug("Record stored", "key", repo.KeyOf(record))
	return success(reloaded), nil
}
