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

	"github.com/tomoncle/crudgrid/query"
	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Assemble turns a select already bound to the destination model into the
// request query.
type Assemble func(sel *bun.SelectQuery) *query.Query

// Scope restricts the base select of a resource. It applies to reads, to
// the lookup of an update and to deletes.
type Scope func(sel *bun.SelectQuery) *bun.SelectQuery

// PrimaryKey names the single primary key column of an entity.
type PrimaryKey struct {
	Column string // SQL column
	Field  string // Go struct field
	JSON   string // key in request bodies
}

// QueryRepository executes assembled queries.
type QueryRepository[T any] interface {
	Find(ctx context.Context, build Assemble) ([]*T, error)

	// FindOne returns nil without error when no record matches.
	FindOne(ctx context.Context, build Assemble, id any) (*T, error)

	Page(ctx context.Context, build Assemble, page *types.PageRequest) (*types.Pagination[T], error)
}

// TransactionRepository defines writes executed within a transaction.
type TransactionRepository[T any] interface {
	UpsertWithTx(ctx context.Context, tx *bun.Tx, scope Scope, key any, attrs types.JsonObject) (*T, error)
	SyncPivotWithTx(ctx context.Context, tx *bun.Tx, pivot Pivot, owner any, ids []any) error
}

// Repository combines reads, transactional writes and bulk delete for one
// entity type.
type Repository[T any] interface {
	QueryRepository[T]
	TransactionRepository[T]
	DeleteByIDs(ctx context.Context, scope Scope, ids ...any) (int64, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx *bun.Tx) error) error
	PrimaryKey() PrimaryKey
	KeyOf(entity *T) any
	Table() *schema.Table
	NewSelect() *bun.SelectQuery
}
