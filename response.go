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
	"errors"

	"github.com/tomoncle/crudgrid/query"
	"github.com/tomoncle/crudgrid/types"
)

// ErrInvalidRequest marks errors caused by the request parameters rather
// than by storage.
var ErrInvalidRequest = errors.New("invalid request")

// Request carries the parameters of one grid call. A nil ID or Page means
// the parameter was absent.
type Request struct {
	ID        interface{}      `json:"id,omitempty"`
	Page      *int             `json:"page,omitempty"`
	Limit     int              `json:"limit,omitempty"`
	Sort      string           `json:"sort,omitempty"`
	Order     string           `json:"order,omitempty"`
	Relations []string         `json:"relations,omitempty"`
	Filter    query.Filter     `json:"filter,omitempty"`
	Body      types.JsonObject `json:"body,omitempty"`
}

// IDs returns the requested id as a list: an array id as is, a scalar as a
// single element.
func (r *Request) IDs() []interface{} {
	switch v := r.ID.(type) {
	case nil:
		return nil
	case []interface{}:
		return v
	default:
		return []interface{}{v}
	}
}

// Response is the envelope every operation answers with.
type Response struct {
	Status  bool        `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Total   *int        `json:"total,omitempty"`
}

func success(data interface{}) *Response {
	return &Response{Status: true, Data: data}
}

func failure(message string) *Response {
	return &Response{Status: false, Message: message}
}
