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

package database

import (
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = newModelRegistry()

// SQLModel is a model whose table is created on startup. Instance returns a
// Bun struct pointer; lower Priority values are created first, so pivot
// models sort after the tables they join.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry keeps one entry per model type.
type ModelRegistry interface {
	Register(models ...SQLModel)
	Models() []SQLModel
}

type modelRegistry struct {
	mu     sync.RWMutex
	index  map[reflect.Type]int
	models []SQLModel
}

func newModelRegistry() ModelRegistry {
	return &modelRegistry{index: make(map[reflect.Type]int)}
}

// Register adds models. A type registered again keeps its first position
// and takes the new priority.
func (r *modelRegistry) Register(models ...SQLModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range models {
		typ := reflect.TypeOf(m.Instance())
		if i, ok := r.index[typ]; ok {
			r.models[i] = m
			continue
		}
		r.index[typ] = len(r.models)
		r.models = append(r.models, m)
	}
}

// Models returns the models by ascending priority, registration order
// breaking ties.
func (r *modelRegistry) Models() []SQLModel {
	r.mu.RLock()
	result := append([]SQLModel(nil), r.models...)
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type tableModel struct {
	instance interface{}
	priority int
}

func (m tableModel) Instance() interface{} { return m.instance }
func (m tableModel) Priority() int         { return m.priority }

// NewModelAdapter pairs a Bun struct pointer, e.g. (*User)(nil), with its
// creation priority.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return tableModel{instance: instance, priority: priority}
}

// GetRegisteredModels returns the models of the default registry.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredModel adds models to the default registry.
func RegisteredModel(models ...SQLModel) {
	defaultRegistry.Register(models...)
}

// RegisteredModelInstances returns the struct pointers of the default
// registry in creation order.
func RegisteredModelInstances() []interface{} {
	models := GetRegisteredModels()
	out := make([]interface{}, 0, len(models))
	for _, m := range models {
		out = append(out, m.Instance())
	}
	return out
}
