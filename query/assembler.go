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

// Sort is the single ordering a request may ask for.
type Sort struct {
	Field     string
	Direction string
}

// IsSet reports whether the request named a sort field.
func (s Sort) IsSet() bool { return s.Field != "" }

// Params are the request-scoped inputs of the assembler.
type Params struct {
	Relations []string
	Filter    Filter
	Sort      Sort
}

// Assembler holds what a resource declares once: relations to always
// eager-load, filter definitions and the hook run after generic filters.
type Assembler struct {
	Eager       []string
	Definitions Definitions
	BeforeQuery func(q *Query)
}

// Build turns sel, bound to the destination model, into the request query.
// Nothing is executed.
func (a Assembler) Build(sel *bun.SelectQuery, p Params) *Query {
	q := New(sel).With(a.Eager...).With(p.Relations...)

	if len(p.Filter) > 0 {
		a.Definitions.Apply(q, p.Filter)
	}

	if a.BeforeQuery != nil {
		a.BeforeQuery(q)
	}

	if p.Sort.IsSet() {
		dir := types.ParseSortDirection(p.Sort.Direction)
		if !dir.IsValid() {
			return q.Fail(fmt.Errorf("invalid sort order %q", p.Sort.Direction))
		}
		q.Reorder(p.Sort.Field, dir)
	}
	return q
}
