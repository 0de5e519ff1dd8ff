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

package router

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomoncle/crudgrid"
	"github.com/tomoncle/crudgrid/query"
	"github.com/tomoncle/crudgrid/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// wireRequest is the JSON body form of a grid request.
type wireRequest struct {
	ID        interface{}      `json:"id"`
	Page      interface{}      `json:"page"`
	Limit     interface{}      `json:"limit"`
	Sort      string           `json:"sort"`
	Order     string           `json:"order"`
	Relations interface{}      `json:"relations"`
	Filter    query.Filter     `json:"filter"`
	Body      types.JsonObject `json:"body"`
}

// DecodeRequest reads the grid parameters from the query string and the
// JSON body. A parameter present in the body wins over the query string.
func DecodeRequest(r *http.Request) (*crudgrid.Request, error) {
	req, err := fromQuery(r.URL.Query())
	if err != nil {
		return nil, err
	}
	if r.Body == nil || r.Method == http.MethodGet {
		return req, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return req, nil
	}
	var wire wireRequest
	if err := types.JSON.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if err := merge(req, &wire); err != nil {
		return nil, err
	}
	return req, nil
}

func fromQuery(values url.Values) (*crudgrid.Request, error) {
	req := &crudgrid.Request{
		Sort:  values.Get("sort"),
		Order: values.Get("order"),
	}

	if ids := multi(values, "id"); len(ids) > 1 || values.Has("id[]") {
		list := make([]interface{}, 0, len(ids))
		for _, id := range ids {
			list = append(list, scalar(id))
		}
		req.ID = list
	} else if len(ids) == 1 {
		req.ID = scalar(ids[0])
	}

	if values.Has("page") {
		page, err := strconv.Atoi(values.Get("page"))
		if err != nil {
			return nil, fmt.Errorf("page must be an integer")
		}
		req.Page = &page
	}
	if s := values.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("limit must be an integer")
		}
		req.Limit = limit
	}

	for _, v := range multi(values, "relations") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Relations = append(req.Relations, name)
			}
		}
	}

	if s := values.Get("filter"); s != "" {
		if err := types.JSON.Unmarshal([]byte(s), &req.Filter); err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
	}
	if s := values.Get("body"); s != "" {
		var body types.JsonObject
		if err := types.JSON.Unmarshal([]byte(s), &body); err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		req.Body = types.Normalize(body).(types.JsonObject)
	}
	return req, nil
}

// multi returns the values of key and of the key[] form.
func multi(values url.Values, key string) []string {
	out := append([]string{}, values[key]...)
	return append(out, values[key+"[]"]...)
}

// scalar keeps integral query values numeric so they compare as numbers.
func scalar(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func merge(req *crudgrid.Request, wire *wireRequest) error {
	if wire.ID != nil {
		req.ID = types.Normalize(wire.ID)
	}
	if wire.Page != nil {
		page, err := toInt(types.Normalize(wire.Page))
		if err != nil {
			return fmt.Errorf("page: %w", err)
		}
		req.Page = &page
	}
	if wire.Limit != nil {
		limit, err := toInt(types.Normalize(wire.Limit))
		if err != nil {
			return fmt.Errorf("limit: %w", err)
		}
		req.Limit = limit
	}
	if wire.Sort != "" {
		req.Sort = wire.Sort
	}
	if wire.Order != "" {
		req.Order = wire.Order
	}
	if wire.Relations != nil {
		relations, err := toStrings(wire.Relations)
		if err != nil {
			return fmt.Errorf("relations: %w", err)
		}
		req.Relations = relations
	}
	if wire.Filter != nil {
		req.Filter = wire.Filter
	}
	if wire.Body != nil {
		req.Body = types.Normalize(wire.Body).(types.JsonObject)
	}
	return nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

func toStrings(v interface{}) ([]string, error) {
	switch x := v.(type) {
	case string:
		var out []string
		for _, name := range strings.Split(x, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
		return out, nil
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected names, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected an array of names, got %T", v)
	}
}
