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

package types

import (
	"database/sql/driver"
	"errors"

	jsoniter "github.com/json-iterator/go"
)

// JSON is the codec shared by the wire format and the attribute overlay.
// Numbers decode as json.Number so Normalize can keep integers integral.
var JSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// JsonObject is a decoded JSON object. It is the update body of a grid and
// can also be stored in a JSON column.
type JsonObject map[string]interface{}

// Lookup returns the value stored under key.
func (j JsonObject) Lookup(key string) (interface{}, bool) {
	if j == nil {
		return nil, false
	}
	v, ok := j[key]
	return v, ok
}

// Without returns a shallow copy that omits the given keys.
func (j JsonObject) Without(keys ...string) JsonObject {
	out := make(JsonObject, len(j))
	for k, v := range j {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Value implements driver.Valuer for JsonObject.
func (j JsonObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return JSON.Marshal(j)
}

// Scan implements sql.Scanner for JsonObject.
func (j *JsonObject) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*j = make(JsonObject)
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("type assertion must be []byte or string")
	}
	var raw map[string]interface{}
	if err := JSON.Unmarshal(data, &raw); err != nil {
		return err
	}
	*j = Normalize(raw).(map[string]interface{})
	return nil
}

// number matches json.Number and jsoniter.Number alike.
type number interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

// Normalize walks a decoded JSON value and replaces decoded numbers with int64
// when the number is integral and float64 otherwise.
func Normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]interface{}:
		for k, e := range x {
			x[k] = Normalize(e)
		}
		return x
	case JsonObject:
		for k, e := range x {
			x[k] = Normalize(e)
		}
		return x
	case []interface{}:
		for i, e := range x {
			x[i] = Normalize(e)
		}
		return x
	default:
		return v
	}
}
