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
	"strings"

	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Wire keys of the typed filter object.
const (
	DataKey  = "datas"
	ValueKey = "values"
)

// Shape is the typed filter of one field: any element of Datas or Values
// may match.
//
//	Datas  - [a, b] ranges (inclusive), strings (contains), other scalars (equal)
//	Values - scalars compared for equality
type Shape struct {
	Datas  []interface{}
	Values []interface{}
}

// ParseShape reads a typed filter from a decoded request value. A JSON object
// yields its datas/values arrays and keys that are not arrays are ignored.
// Two inputs are accepted on purpose even though a strict datas/values
// reading would filter nothing for them: a bare array is read as values
// (IN), and any other non-nil scalar becomes a single value. Likewise a
// range with one nil bound is open-ended (>= or <=) instead of matching
// nothing; see rangePredicate.
func ParseShape(raw interface{}) Shape {
	switch v := raw.(type) {
	case Shape:
		return v
	case *Shape:
		if v == nil {
			return Shape{}
		}
		return *v
	case map[string]interface{}:
		return shapeFromObject(v)
	case types.JsonObject:
		return shapeFromObject(v)
	case []interface{}:
		return Shape{Values: v}
	case nil:
		return Shape{}
	default:
		return Shape{Values: []interface{}{v}}
	}
}

func shapeFromObject(obj map[string]interface{}) Shape {
	var s Shape
	if datas, ok := obj[DataKey].([]interface{}); ok {
		s.Datas = datas
	}
	if values, ok := obj[ValueKey].([]interface{}); ok {
		s.Values = values
	}
	return s
}

// IsStructured reports whether raw is written in the typed filter form.
func IsStructured(raw interface{}) bool {
	switch raw.(type) {
	case Shape, *Shape, map[string]interface{}, types.JsonObject, []interface{}:
		return true
	default:
		return false
	}
}

type predicate struct {
	cond string
	args []interface{}
}

// predicates compiles the shape for one column. Nil elements, ranges with no
// bound and elements of unsupported form produce nothing.
func (s Shape) predicates(field string, d dialect.Name) []predicate {
	col := bun.Ident(field)
	var out []predicate
	for _, data := range s.Datas {
		switch v := data.(type) {
		case nil:
			continue
		case []interface{}:
			if p, ok := rangePredicate(col, v); ok {
				out = append(out, p)
			}
		case string:
			out = append(out, containsPredicate(col, v, d))
		case map[string]interface{}, types.JsonObject:
			continue
		default:
			out = append(out, predicate{"?TableAlias.? = ?", []interface{}{col, v}})
		}
	}
	for _, value := range s.Values {
		if value == nil {
			continue
		}
		out = append(out, predicate{"?TableAlias.? = ?", []interface{}{col, value}})
	}
	return out
}

// rangePredicate is inclusive. One nil bound leaves that side open, two nil
// bounds yield no predicate.
func rangePredicate(col bun.Ident, bounds []interface{}) (predicate, bool) {
	if len(bounds) != 2 {
		return predicate{}, false
	}
	lo, hi := bounds[0], bounds[1]
	switch {
	case lo != nil && hi != nil:
		return predicate{"?TableAlias.? BETWEEN ? AND ?", []interface{}{col, lo, hi}}, true
	case lo != nil:
		return predicate{"?TableAlias.? >= ?", []interface{}{col, lo}}, true
	case hi != nil:
		return predicate{"?TableAlias.? <= ?", []interface{}{col, hi}}, true
	default:
		return predicate{}, false
	}
}

func containsPredicate(col bun.Ident, text string, d dialect.Name) predicate {
	pattern := "%" + text + "%"
	if d == dialect.PG {
		return predicate{"CAST(?TableAlias.? AS TEXT) ILIKE ?", []interface{}{col, pattern}}
	}
	return predicate{"LOWER(?TableAlias.?) LIKE ?", []interface{}{col, strings.ToLower(pattern)}}
}

// WhereTyped adds one grouped clause for field, joined to the clauses before
// it with combine. Inside the group every datas/values element is OR-ed. A
// shape without usable elements adds nothing.
func (q *Query) WhereTyped(field string, shape Shape, combine Combine) *Query {
	preds := shape.predicates(field, q.dialectName())
	if len(preds) == 0 {
		return q
	}
	q.sel.WhereGroup(combine.sep(), func(sq *bun.SelectQuery) *bun.SelectQuery {
		for _, p := range preds {
			sq = sq.WhereOr(p.cond, p.args...)
		}
		return sq
	})
	return q
}

func (q *Query) dialectName() dialect.Name {
	if db := q.sel.DB(); db != nil {
		return db.Dialect().Name()
	}
	return dialect.Invalid
}
