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
	"fmt"

	"github.com/uptrace/bun"
)

// Pivot describes a many-to-many relation stored in a join table.
//
//	Attribute  - body key holding the related ids, e.g. "tags"
//	Table      - join table, e.g. "article_tags"
//	ForeignKey - join column pointing at the owner, e.g. "article_id"
//	RelatedKey - join column pointing at the related record, e.g. "tag_id"
type Pivot struct {
	Attribute  string
	Table      string
	ForeignKey string
	RelatedKey string
}

func (p Pivot) validate() error {
	if p.Table == "" || p.ForeignKey == "" || p.RelatedKey == "" {
		return fmt.Errorf("pivot %q: table, foreign key and related key are required", p.Attribute)
	}
	return nil
}

// SyncPivotWithTx makes the join rows of owner exactly ids. Rows for ids
// not listed are removed and missing ones inserted; existing rows are left
// alone. Nil and repeated ids are ignored.
func (r *baseRepositoryImpl[T]) SyncPivotWithTx(ctx context.Context, tx *bun.Tx, pivot Pivot, owner any, ids []any) error {
	if err := pivot.validate(); err != nil {
		return err
	}
	ids = uniqueIDs(ids)

	del := tx.NewDelete().
		TableExpr("?", bun.Ident(pivot.Table)).
		Where("? = ?", bun.Ident(pivot.ForeignKey), owner)
	if len(ids) > 0 {
		del = del.Where("? NOT IN (?)", bun.Ident(pivot.RelatedKey), bun.In(ids))
	}
	if _, err := del.Exec(ctx); err != nil {
		return fmt.Errorf("detach %s: %w", pivot.Table, err)
	}

	for _, id := range ids {
		exists, err := tx.NewSelect().
			TableExpr("?", bun.Ident(pivot.Table)).
			Where("? = ?", bun.Ident(pivot.ForeignKey), owner).
			Where("? = ?", bun.Ident(pivot.RelatedKey), id).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", pivot.Table, err)
		}
		if exists {
			continue
		}
		row := map[string]interface{}{
			pivot.ForeignKey: owner,
			pivot.RelatedKey: id,
		}
		if _, err := tx.NewInsert().Model(&row).TableExpr("?", bun.Ident(pivot.Table)).Exec(ctx); err != nil {
			return fmt.Errorf("attach %s: %w", pivot.Table, err)
		}
	}
	return nil
}

func uniqueIDs(ids []any) []any {
	seen := make(map[string]struct{}, len(ids))
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if id == nil {
			continue
		}
		k := fmt.Sprintf("%T:%v", id, id)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, id)
	}
	return out
}
