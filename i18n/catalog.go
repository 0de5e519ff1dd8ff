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

package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when no locale is configured and as the fallback
// for keys missing from the active locale.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var embedded embed.FS

// Translator resolves message keys. Get returns the key itself, with
// placeholders replaced, when no message exists.
type Translator interface {
	Get(key string, params map[string]any) string
	Has(key string) bool
}

// Catalog holds the messages of every loaded locale.
type Catalog struct {
	mu       sync.RWMutex
	locale   string
	fallback string
	messages map[string]map[string]string
}

// NewCatalog returns an empty catalog translating into locale.
func NewCatalog(locale string) *Catalog {
	if locale == "" {
		locale = DefaultLocale
	}
	return &Catalog{
		locale:   locale,
		fallback: DefaultLocale,
		messages: make(map[string]map[string]string),
	}
}

// Default returns a catalog with the bundled locales loaded.
func Default(locale string) *Catalog {
	c := NewCatalog(locale)
	if err := c.LoadFS(embedded, "locales"); err != nil {
		panic(fmt.Sprintf("i18n: bundled locales: %v", err))
	}
	return c
}

// LoadFS loads every .yaml, .yml and .json file under dir. The file name
// without extension is the locale; later files override earlier keys.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read locale dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		switch ext {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read locale %s: %w", e.Name(), err)
		}
		if err := c.Load(strings.TrimSuffix(e.Name(), ext), data); err != nil {
			return fmt.Errorf("load locale %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Load merges a YAML or JSON document into locale. Nested objects are
// flattened into dotted keys, so {"error": {"reference": {"404": m}}}
// defines "error.reference.404".
func (c *Catalog) Load(locale string, data []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	flat := make(map[string]string)
	flatten("", doc, flat)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.messages[locale] == nil {
		c.messages[locale] = make(map[string]string, len(flat))
	}
	for k, v := range flat {
		c.messages[locale][k] = v
	}
	return nil
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case nil:
			continue
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// SetLocale changes the active locale.
func (c *Catalog) SetLocale(locale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locale = locale
}

func (c *Catalog) Locale() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locale
}

func (c *Catalog) lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if msg, ok := c.messages[c.locale][key]; ok {
		return msg, true
	}
	msg, ok := c.messages[c.fallback][key]
	return msg, ok
}

func (c *Catalog) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *Catalog) Get(key string, params map[string]any) string {
	msg, ok := c.lookup(key)
	if !ok {
		msg = key
	}
	return Replace(msg, params)
}

// Replace substitutes :name, :Name and :NAME in msg with params["name"],
// as is, capitalised and upper-cased. Longer names are replaced first.
func Replace(msg string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(msg, ":") {
		return msg
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	pairs := make([]string, 0, len(names)*6)
	for _, name := range names {
		value := fmt.Sprint(params[name])
		pairs = append(pairs,
			":"+strings.ToUpper(name), strings.ToUpper(value),
			":"+capitalize(name), capitalize(value),
			":"+name, value,
		)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
