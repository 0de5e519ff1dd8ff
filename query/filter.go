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

	jsoniter "github.com/json-iterator/go"
	"github.com/tomoncle/crudgrid/types"
)

// Entry is one field of a filter request.
type Entry struct {
	Field string
	Value interface{}
}

// Filter is a filter request in the order the client wrote it.
type Filter []Entry

// NewFilter builds a filter from alternating field/value pairs.
func NewFilter(pairs ...interface{}) Filter {
	f := make(Filter, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		field, ok := pairs[i].(string)
		if !ok {
			continue
		}
		f = f.Set(field, pairs[i+1])
	}
	return f
}

// Get returns the value requested for field.
func (f Filter) Get(field string) (interface{}, bool) {
	for _, e := range f {
		if e.Field == field {
			return e.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of field, or appends it when absent.
func (f Filter) Set(field string, value interface{}) Filter {
	for i := range f {
		if f[i].Field == field {
			f[i].Value = value
			return f
		}
	}
	return append(f, Entry{Field: field, Value: value})
}

// UnmarshalJSON decodes a JSON object keeping its key order. A null or empty
// object yields an empty filter.
func (f *Filter) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ParseBytes(types.JSON, data)
	out := Filter{}
	if iter.WhatIsNext() == jsoniter.NilValue {
		iter.ReadNil()
		*f = out
		return nil
	}
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return fmt.Errorf("filter must be a JSON object")
	}
	iter.ReadMapCB(func(it *jsoniter.Iterator, field string) bool {
		out = out.Set(field, types.Normalize(it.Read()))
		return true
	})
	if iter.Error != nil {
		return fmt.Errorf("decode filter: %w", iter.Error)
	}
	*f = out
	return nil
}

// MarshalJSON encodes the filter as a JSON object in entry order.
func (f Filter) MarshalJSON() ([]byte, error) {
	stream := types.JSON.BorrowStream(nil)
	defer types.JSON.ReturnStream(stream)
	stream.WriteObjectStart()
	for i, e := range f {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(e.Field)
		stream.WriteVal(e.Value)
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// Definition is how one filter field is applied. The implementations are
// CustomFunc and Typed; a field missing from Definitions is handled
// implicitly.
type Definition interface {
	definition()
}

// CustomFunc takes full responsibility for one field. It receives the raw
// value, the whole filter request and the query to mutate.
type CustomFunc func(value interface{}, filter Filter, q *Query)

func (CustomFunc) definition() {}

// Custom wraps fn as a Definition.
func Custom(fn func(value interface{}, filter Filter, q *Query)) Definition {
	return CustomFunc(fn)
}

type typedDefinition struct{}

func (typedDefinition) definition() {}

// Typed marks a field as always using the datas/values form.
var Typed Definition = typedDefinition{}

// Definitions maps filter field names to their definitions.
type Definitions map[string]Definition

// Apply adds the conditions of every filter entry to q. Entries are visited
// in request order and each contributes an AND-ed clause, unless a custom
// definition decides otherwise.
func (d Definitions) Apply(q *Query, filter Filter) {
	for _, e := range filter {
		switch def := d[e.Field].(type) {
		case CustomFunc:
			if def != nil {
				def(e.Value, filter, q)
			}
		case typedDefinition:
			q.WhereTyped(e.Field, ParseShape(e.Value), And)
		default:
			if IsStructured(e.Value) {
				q.WhereTyped(e.Field, ParseShape(e.Value), And)
				continue
			}
			q.WhereEqual(e.Field, e.Value)
		}
	}
}
