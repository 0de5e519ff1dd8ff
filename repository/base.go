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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db    *bun.DB
	table *schema.Table
	pk     PrimaryKey
	index  []int
	pkKind reflect.Kind
}

// NewRepository returns a generic repository backed by the provided Bun DB.
// T must be a Bun model with exactly one primary key.
func NewRepository[T any](db *bun.DB) (Repository[T], error) {
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	table := db.Table(reflect.TypeOf((*T)(nil)).Elem())
	if len(table.PKs) != 1 {
		return nil, fmt.Errorf("%s: expected one primary key, found %d", table.TypeName, len(table.PKs))
	}
	pkType := table.PKs[0].StructField.Type
	if pkType.Kind() == reflect.Ptr {
		pkType = pkType.Elem()
	}
	return &baseRepositoryImpl[T]{
		db:     db,
		table:  table,
		pk:     primaryKey(table.PKs[0]),
		index:  table.PKs[0].Index,
		pkKind: pkType.Kind(),
	}, nil
}

func primaryKey(f *schema.Field) PrimaryKey {
	pk := PrimaryKey{Column: f.Name, Field: f.GoName, JSON: f.Name}
	if tag, ok := f.StructField.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			pk.JSON = name
		}
	}
	return pk
}

func (r *baseRepositoryImpl[T]) PrimaryKey() PrimaryKey { return r.pk }

func (r *baseRepositoryImpl[T]) Table() *schema.Table { return r.table }

// KeyOf returns the primary key value of entity.
func (r *baseRepositoryImpl[T]) KeyOf(entity *T) any {
	if entity == nil {
		return nil
	}
	return reflect.ValueOf(entity).Elem().FieldByIndex(r.index).Interface()
}

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, build Assemble) ([]*T, error) {
	entities := make([]*T, 0)
	sel := build(r.db.NewSelect().Model(&entities)).Build()
	if err := sel.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) FindOne(ctx context.Context, build Assemble, id any) (*T, error) {
	entity := new(T)
	sel := build(r.db.NewSelect().Model(entity)).
		WhereEqual(r.pk.Column, id).
		Build().
		Limit(1)
	if err := sel.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, build Assemble, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	entities := make([]*T, 0)
	sel := build(r.db.NewSelect().Model(&entities)).Build()

	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := sel.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	err = sel.
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

// UpsertWithTx updates the record stored under key with attrs, or inserts a
// new one when key is empty or matches nothing within scope. Attributes are
// keyed by the JSON names of T; unknown keys are ignored.
func (r *baseRepositoryImpl[T]) UpsertWithTx(ctx context.Context, tx *bun.Tx, scope Scope, key any, attrs types.JsonObject) (*T, error) {
	key, attrs, err := r.coerceKey(key, attrs)
	if err != nil {
		return nil, err
	}
	entity := new(T)
	found := false
	if !IsEmptyKey(key) {
		sel := tx.NewSelect().Model(entity)
		if scope != nil {
			sel = scope(sel)
		}
		err := sel.Where("?TableAlias.? = ?", bun.Ident(r.pk.Column), key).Limit(1).Scan(ctx)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("load %s: %w", r.table.TypeName, err)
		}
	}

	if err := overlay(entity, attrs); err != nil {
		return nil, fmt.Errorf("apply attributes to %s: %w", r.table.TypeName, err)
	}

	if found {
		if _, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx); err != nil {
			return nil, err
		}
		return entity, nil
	}
	if _, err := tx.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

// coerceKey converts a key sent as a string to the kind of the primary key
// field, in the key and in attrs. An empty string key is dropped from attrs
// so the insert assigns one.
func (r *baseRepositoryImpl[T]) coerceKey(key any, attrs types.JsonObject) (any, types.JsonObject, error) {
	text, ok := key.(string)
	if !ok {
		return key, attrs, nil
	}
	var (
		coerced any
		err     error
	)
	text = strings.TrimSpace(text)
	switch r.pkKind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if text != "" {
			coerced, err = strconv.ParseInt(text, 10, 64)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if text != "" {
			coerced, err = strconv.ParseUint(text, 10, 64)
		}
	default:
		return key, attrs, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: invalid %s %q", r.table.TypeName, r.pk.JSON, text)
	}
	if _, ok := attrs[r.pk.JSON]; ok {
		if coerced == nil {
			attrs = attrs.Without(r.pk.JSON)
		} else {
			attrs = attrs.Without()
			attrs[r.pk.JSON] = coerced
		}
	}
	return coerced, attrs, nil
}

// overlay writes attrs over the fields of entity through their JSON names.
func overlay[T any](entity *T, attrs types.JsonObject) error {
	if len(attrs) == 0 {
		return nil
	}
	b, err := types.JSON.Marshal(attrs)
	if err != nil {
		return err
	}
	return types.JSON.Unmarshal(b, entity)
}

// DeleteByIDs deletes the records whose primary key is one of ids and
// reports how many were removed. With a scope, only records the scope
// selects are eligible.
func (r *baseRepositoryImpl[T]) DeleteByIDs(ctx context.Context, scope Scope, ids ...any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	del := r.db.NewDelete().Model((*T)(nil))
	if scope == nil {
		del = del.Where("? IN (?)", bun.Ident(r.pk.Column), bun.In(ids))
	} else {
		eligible := scope(r.db.NewSelect().Model((*T)(nil))).
			ColumnExpr("?TableAlias.? AS ?", bun.Ident(r.pk.Column), bun.Ident("scoped_pk")).
			Where("?TableAlias.? IN (?)", bun.Ident(r.pk.Column), bun.In(ids))
		// the derived table lets mysql delete from a table it also selects
		del = del.Where("? IN (SELECT scoped.scoped_pk FROM (?) AS scoped)", bun.Ident(r.pk.Column), eligible)
	}
	res, err := del.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *baseRepositoryImpl[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &tx)
	})
}

// IsEmptyKey reports whether key cannot identify a stored record: nil, zero
// numbers, "", "0" and empty slices.
func IsEmptyKey(key any) bool {
	switch v := key.(type) {
	case nil:
		return true
	case string:
		return v == "" || v == "0"
	case bool:
		return !v
	case []interface{}:
		return len(v) == 0
	}
	rv := reflect.ValueOf(key)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
