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

package query

import (
	"fmt"

	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
)

// Combine selects how a grouped clause joins the clauses before it.
type Combine int

const (
	And Combine = iota
	Or
)

func (c Combine) sep() string {
	if c == Or {
		return " OR "
	}
	return " AND "
}

type order struct {
	field     string
	direction types.SortDirection
}

// Query is a single-owner builder for one request. Relations and ordering
// are collected and applied once by Build, so Reorder can replace what
// earlier stages asked for.
type Query struct {
	sel       *bun.SelectQuery
	relations []string
	seen      map[string]struct{}
	orders    []order
	built     bool
}

// New wraps a select query that is already bound to its destination model.
func New(sel *bun.SelectQuery) *Query {
	return &Query{sel: sel, seen: make(map[string]struct{})}
}

// Bun exposes the underlying select query for conditions this builder does
// not cover. Ordering added directly on it cannot be replaced by Reorder.
func (q *Query) Bun() *bun.SelectQuery { return q.sel }

// With eager-loads the named bun relations. Names already requested are
// ignored.
func (q *Query) With(relations ...string) *Query {
	for _, name := range relations {
		if name == "" {
			continue
		}
		if _, ok := q.seen[name]; ok {
			continue
		}
		q.seen[name] = struct{}{}
		q.relations = append(q.relations, name)
	}
	return q
}

// Relations returns the eager-load set in request order.
func (q *Query) Relations() []string {
	out := make([]string, len(q.relations))
	copy(out, q.relations)
	return out
}

// Where adds a raw condition joined with AND.
func (q *Query) Where(cond string, args ...interface{}) *Query {
	q.sel.Where(cond, args...)
	return q
}

// WhereEqual adds "alias.field = value", or IS NULL for a nil value.
func (q *Query) WhereEqual(field string, value interface{}) *Query {
	if value == nil {
		q.sel.Where("?TableAlias.? IS NULL", bun.Ident(field))
		return q
	}
	q.sel.Where("?TableAlias.? = ?", bun.Ident(field), value)
	return q
}

// WhereIn adds "alias.field IN (values)".
func (q *Query) WhereIn(field string, values ...interface{}) *Query {
	if len(values) == 0 {
		return q
	}
	q.sel.Where("?TableAlias.? IN (?)", bun.Ident(field), bun.In(values))
	return q
}

// OrderBy appends an ordering term.
func (q *Query) OrderBy(field string, direction types.SortDirection) *Query {
	q.orders = append(q.orders, order{field: field, direction: direction})
	return q
}

// Reorder drops every ordering term collected so far and keeps only this one.
func (q *Query) Reorder(field string, direction types.SortDirection) *Query {
	q.orders = q.orders[:0]
	return q.OrderBy(field, direction)
}

// Fail records err on the query; it is returned when the query executes.
func (q *Query) Fail(err error) *Query {
	q.sel.Err(err)
	return q
}

// Build applies the collected relations and ordering and returns the bun
// query ready to execute. It is idempotent.
func (q *Query) Build() *bun.SelectQuery {
	if q.built {
		return q.sel
	}
	q.built = true
	for _, name := range q.relations {
		q.sel.Relation(name)
	}
	for _, o := range q.orders {
		if !o.direction.IsValid() {
			q.sel.Err(fmt.Errorf("invalid sort direction for %q", o.field))
			continue
		}
		q.sel.OrderExpr("?TableAlias.? "+o.direction.Name(), bun.Ident(o.field))
	}
	return q.sel
}

// String renders the built query with its arguments inlined.
func (q *Query) String() string {
	return q.Build().String()
}
