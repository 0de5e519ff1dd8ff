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

package main

import (
	"context"
	"strings"
	"time"

	"github.com/tomoncle/crudgrid"
	"github.com/tomoncle/crudgrid/database"
	"github.com/tomoncle/crudgrid/i18n"
	"github.com/tomoncle/crudgrid/query"
	"github.com/tomoncle/crudgrid/repository"
	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
)

type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:customer"`

	ID        int64            `bun:"id,pk,autoincrement" json:"id"`
	Name      string           `bun:"name,notnull" json:"name"`
	Email     string           `bun:"email,unique" json:"email"`
	City      string           `bun:"city" json:"city"`
	Age       int              `bun:"age" json:"age"`
	Active    bool             `bun:"active,notnull,default:true" json:"active"`
	Settings  types.JsonObject `bun:"settings,type:text" json:"settings"`
	CreatedAt time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	Groups    []*Group         `bun:"m2m:customer_groups,join:Customer=Group" json:"groups,omitempty"`
}

type Group struct {
	bun.BaseModel `bun:"table:groups,alias:grp"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

type CustomerGroup struct {
	bun.BaseModel `bun:"table:customer_groups,alias:cg"`

	CustomerID int64     `bun:"customer_id,pk"`
	Customer   *Customer `bun:"rel:belongs-to,join:customer_id=id"`
	GroupID    int64     `bun:"group_id,pk"`
	Group      *Group    `bun:"rel:belongs-to,join:group_id=id"`
}

func init() {
	database.RegisteredModel(
		database.NewModelAdapter((*Customer)(nil), 10),
		database.NewModelAdapter((*Group)(nil), 10),
		database.NewModelAdapter((*CustomerGroup)(nil), 20),
	)
}

// customers are listed by name. The "search" filter matches name or email,
// and "adult" keeps customers of age.
func customers(db *bun.DB, tr i18n.Translator) *crudgrid.Controller[Customer] {
	return crudgrid.NewController[Customer](
		crudgrid.WithDB[Customer](db),
		crudgrid.WithTranslator[Customer](tr),
		crudgrid.WithEager[Customer]("Groups"),
		crudgrid.WithPivots[Customer](repository.Pivot{
			Attribute:  "groups",
			Table:      "customer_groups",
			ForeignKey: "customer_id",
			RelatedKey: "group_id",
		}),
		crudgrid.WithFilters[Customer](query.Definitions{
			"city": query.Typed,
			"search": query.Custom(func(value interface{}, _ query.Filter, q *query.Query) {
				text, ok := value.(string)
				if !ok || text == "" {
					return
				}
				pattern := "%" + strings.ToLower(text) + "%"
				q.Bun().WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
					return sq.
						Where("LOWER(?TableAlias.name) LIKE ?", pattern).
						WhereOr("LOWER(?TableAlias.email) LIKE ?", pattern)
				})
			}),
			"adult": query.Custom(func(value interface{}, _ query.Filter, q *query.Query) {
				if b, ok := value.(bool); ok && b {
					q.Where("?TableAlias.age >= ?", 18)
				}
			}),
		}),
		crudgrid.WithBeforeQuery[Customer](func(q *query.Query, _ *crudgrid.Request) {
			q.OrderBy("name", types.SortAsc)
		}),
		crudgrid.WithBeforeUpdate[Customer](func(_ context.Context, req *crudgrid.Request) error {
			if email, ok := req.Body["email"].(string); ok {
				req.Body["email"] = strings.ToLower(strings.TrimSpace(email))
			}
			return nil
		}),
	)
}

func groups(db *bun.DB, tr i18n.Translator) *crudgrid.Controller[Group] {
	return crudgrid.NewController[Group](
		crudgrid.WithDB[Group](db),
		crudgrid.WithTranslator[Group](tr),
		crudgrid.WithFilters[Group](query.Definitions{"name": query.Typed}),
		crudgrid.WithRoutes[Group](true, false),
	)
}
