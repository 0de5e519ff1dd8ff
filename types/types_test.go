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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequest(t *testing.T) {
	p := NewPageRequest(3, 10)
	assert.Equal(t, 3, p.GetPage())
	assert.Equal(t, 10, p.GetPageSize())
	assert.Equal(t, 20, p.GetOffset())

	p = NewPageRequest(0, -1)
	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, DefaultPageSize, p.GetPageSize())
	assert.Zero(t, p.GetOffset())
}

func TestSortDirection(t *testing.T) {
	assert.Equal(t, SortAsc, ParseSortDirection(""))
	assert.Equal(t, SortAsc, ParseSortDirection(" ASC "))
	assert.Equal(t, SortDesc, ParseSortDirection("desc"))
	assert.Equal(t, SortIllegal, ParseSortDirection("down"))

	assert.True(t, SortDesc.IsValid())
	assert.False(t, SortIllegal.IsValid())
	assert.Equal(t, "DESC", SortDesc.Name())
	assert.Equal(t, IllegalName, SortIllegal.String())
	assert.Equal(t, "ascending", SortAsc.Desc())
}

func TestNormalize(t *testing.T) {
	var v interface{}
	require.NoError(t, JSON.Unmarshal([]byte(`{"i": 3, "f": 1.5, "a": [1, {"n": -2}], "s": "x"}`), &v))

	got := Normalize(v)
	assert.Equal(t, map[string]interface{}{
		"i": int64(3),
		"f": 1.5,
		"a": []interface{}{int64(1), map[string]interface{}{"n": int64(-2)}},
		"s": "x",
	}, got)

	assert.Equal(t, int64(9), Normalize(json.Number("9")))
	assert.Nil(t, Normalize(nil))
}

func TestJsonObject(t *testing.T) {
	obj := JsonObject{"a": 1, "b": 2}
	v, ok := obj.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = JsonObject(nil).Lookup("a")
	assert.False(t, ok)

	without := obj.Without("b", "missing")
	assert.Equal(t, JsonObject{"a": 1}, without)
	assert.Len(t, obj, 2)

	raw, err := JsonObject{"theme": "dark", "size": int64(2)}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme": "dark", "size": 2}`, string(raw.([]byte)))

	nilValue, err := JsonObject(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, nilValue)

	var scanned JsonObject
	require.NoError(t, scanned.Scan(`{"size": 2, "tags": ["x"]}`))
	assert.Equal(t, JsonObject{"size": int64(2), "tags": []interface{}{"x"}}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42))
	assert.Error(t, scanned.Scan([]byte("not json")))
}
