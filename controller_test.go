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

package crudgrid_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/crudgrid"
	"github.com/tomoncle/crudgrid/i18n"
	"github.com/tomoncle/crudgrid/internal/testutil"
	"github.com/tomoncle/crudgrid/query"
	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
)

func people(t *testing.T, resp *crudgrid.Response) []*testutil.Person {
	t.Helper()
	require.True(t, resp.Status, resp.Message)
	items, ok := resp.Data.([]*testutil.Person)
	require.True(t, ok, "unexpected data %T", resp.Data)
	return items
}

func names(items []*testutil.Person) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.Name)
	}
	return out
}

func intPtr(i int) *int { return &i }

func TestIndexListsAll(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPeople(t, db, 5)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	resp, err := c.Index(context.Background(), &crudgrid.Request{Sort: "id"})
	require.NoError(t, err)
	assert.Len(t, people(t, resp), 5)
	assert.Nil(t, resp.Total)
	assert.Equal(t, "Person", c.EntityName())
}

func TestFilterValuesAndDatasIntersect(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.Insert(t, db,
		&testutil.Person{Name: "a", Age: 20, City: "Paris"},
		&testutil.Person{Name: "b", Age: 30, City: "PARIS"},
		&testutil.Person{Name: "c", Age: 40, City: "Paris"},
		&testutil.Person{Name: "d", Age: 20, City: "Berlin"},
		&testutil.Person{Name: "e", Age: 30, City: "Saint-Parisien"},
	)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	filter := query.NewFilter(
		"age", map[string]interface{}{"values": []interface{}{int64(20), int64(30)}},
		"city", map[string]interface{}{"datas": []interface{}{"par"}},
	)
	resp, err := c.Index(context.Background(), &crudgrid.Request{Filter: filter, Sort: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "e"}, names(people(t, resp)))
}

func TestFilterRangeIsInclusive(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPeople(t, db, 6)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	filter := query.NewFilter("age", map[string]interface{}{
		"datas": []interface{}{[]interface{}{int64(20), int64(30)}},
	})
	resp, err := c.Index(context.Background(), &crudgrid.Request{Filter: filter})
	require.NoError(t, err)
	items := people(t, resp)
	assert.Len(t, items, 4)
	for _, p := range items {
		assert.Contains(t, []int{20, 30}, p.Age)
	}
}

func TestFilterWithoutElementsIsNoOp(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPeople(t, db, 6)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	filter := query.NewFilter(
		"age", map[string]interface{}{},
		"name", map[string]interface{}{"datas": []interface{}{}, "values": []interface{}{}},
		"city", "Lyon",
	)
	resp, err := c.Index(context.Background(), &crudgrid.Request{Filter: filter})
	require.NoError(t, err)
	assert.Len(t, people(t, resp), 2)
}

func TestCustomAndTypedFilters(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPeople(t, db, 9)

	var seen query.Filter
	c := crudgrid.NewController[testutil.Person](
		crudgrid.WithDB[testutil.Person](db),
		crudgrid.WithFilters[testutil.Person](query.Definitions{
			"older_than": query.Custom(func(value interface{}, filter query.Filter, q *query.Query) {
				seen = filter
				q.Where("?TableAlias.age > ?", value)
			}),
			"city": query.Typed,
		}),
	)

	filter := query.NewFilter("older_than", int64(25), "city", "Berlin")
	resp, err := c.Index(context.Background(), &crudgrid.Request{Filter: filter})
	require.NoError(t, err)
	items := people(t, resp)
	assert.Len(t, items, 3)
	for _, p := range items {
		assert.Equal(t, "Berlin", p.City)
	}
	assert.Equal(t, filter, seen)
}

func TestPaginate(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPeople(t, db, 25)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	resp, err := c.Index(context.Background(), &crudgrid.Request{Page: intPtr(2), Limit: 10, Sort: "id"})
	require.NoError(t, err)
	items := people(t, resp)
	require.Len(t, items, 10)
	assert.Equal(t, "person-11", items[0].Name)
	assert.Equal(t, "person-20", items[9].Name)
	require.NotNil(t, resp.Total)
	assert.Equal(t, 25, *resp.Total)

	resp, err = c.Index(context.Background(), &crudgrid.Request{Page: intPtr(4), Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, people(t, resp))
	assert.Equal(t, 25, *resp.Total)
}

func TestPaginateDefaultLimit(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPeople(t, db, types.DefaultPageSize+5)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	resp, err := c.Index(context.Background(), &crudgrid.Request{Page: intPtr(0)})
	require.NoError(t, err)
	assert.Len(t, people(t, resp), types.DefaultPageSize)
	assert.Equal(t, types.DefaultPageSize+5, *resp.Total)
}

func TestGetOne(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedPeople(t, db, 3)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	resp, err := c.Index(context.Background(), &crudgrid.Request{ID: seeded[1].ID})
	require.NoError(t, err)
	require.True(t, resp.Status)
	assert.Equal(t, "person-02", resp.Data.(*testutil.Person).Name)

	resp, err = c.Index(context.Background(), &crudgrid.Request{ID: int64(999)})
	require.NoError(t, err)
	assert.False(t, resp.Status)
	assert.Equal(t, "Not found", resp.Message)

	// filters narrow the lookup too
	resp, err = c.Index(context.Background(), &crudgrid.Request{
		ID:     seeded[1].ID,
		Filter: query.NewFilter("city", "Paris"),
	})
	require.NoError(t, err)
	assert.False(t, resp.Status)

	_, err = c.Index(context.Background(), &crudgrid.Request{ID: []interface{}{seeded[0].ID, seeded[1].ID}})
	require.Error(t, err)
	assert.ErrorIs(t, err, crudgrid.ErrInvalidRequest)
}

func TestEagerAndRequestedRelations(t *testing.T) {
	db := testutil.NewDB(t)
	_, _, articles := testutil.SeedArticles(t, db)
	c := crudgrid.NewController[testutil.Article](
		crudgrid.WithDB[testutil.Article](db),
		crudgrid.WithEager[testutil.Article]("Tags"),
	)

	resp, err := c.Index(context.Background(), &crudgrid.Request{
		ID:        articles[0].ID,
		Relations: []string{"Author", "Tags"},
	})
	require.NoError(t, err)
	require.True(t, resp.Status)
	article := resp.Data.(*testutil.Article)
	require.NotNil(t, article.Author)
	assert.Equal(t, "ada", article.Author.Name)
	require.Len(t, article.Tags, 1)
	assert.Equal(t, "t1", article.Tags[0].Name)
}

func TestBeforeQueryRunsBeforeRequestSort(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPeople(t, db, 4)
	c := crudgrid.NewController[testutil.Person](
		crudgrid.WithDB[testutil.Person](db),
		crudgrid.WithBeforeQuery[testutil.Person](func(q *query.Query, req *crudgrid.Request) {
			q.OrderBy("name", types.SortDesc)
		}),
	)

	resp, err := c.Index(context.Background(), &crudgrid.Request{})
	require.NoError(t, err)
	assert.Equal(t, "person-04", people(t, resp)[0].Name)

	resp, err = c.Index(context.Background(), &crudgrid.Request{Sort: "name", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, "person-01", people(t, resp)[0].Name)
}

func TestInvalidSortOrderFails(t *testing.T) {
	db := testutil.NewDB(t)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	_, err := c.Index(context.Background(), &crudgrid.Request{Sort: "name", Order: "sideways"})
	assert.Error(t, err)
}

func TestScope(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedPeople(t, db, 6)
	c := crudgrid.NewController[testutil.Person](
		crudgrid.WithDB[testutil.Person](db),
		crudgrid.WithScope[testutil.Person](func(sel *bun.SelectQuery) *bun.SelectQuery {
			return sel.Where("?TableAlias.city = ?", "Paris")
		}),
	)

	resp, err := c.Index(context.Background(), &crudgrid.Request{})
	require.NoError(t, err)
	assert.Len(t, people(t, resp), 2)

	berlin := seeded[1]
	require.Equal(t, "Berlin", berlin.City)
	out := c.Destroy(context.Background(), &crudgrid.Request{ID: berlin.ID})
	assert.False(t, out.Status)
	exists, err := db.NewSelect().Model((*testutil.Person)(nil)).Where("id = ?", berlin.ID).Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)

	out = c.Destroy(context.Background(), &crudgrid.Request{ID: seeded[0].ID})
	assert.True(t, out.Status)
}

func TestUpdateUpsert(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedPeople(t, db, 2)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))
	ctx := context.Background()

	resp, err := c.Update(ctx, &crudgrid.Request{Body: types.JsonObject{"id": seeded[0].ID, "name": "renamed"}})
	require.NoError(t, err)
	require.True(t, resp.Status)
	updated := resp.Data.(*testutil.Person)
	assert.Equal(t, seeded[0].ID, updated.ID)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, seeded[0].Age, updated.Age)
	assert.Equal(t, seeded[0].City, updated.City)

	body := types.JsonObject{"id": int64(100), "name": "created", "age": int64(50)}
	for i := 0; i < 2; i++ {
		resp, err = c.Update(ctx, &crudgrid.Request{Body: body.Without()})
		require.NoError(t, err)
		require.True(t, resp.Status)
		created := resp.Data.(*testutil.Person)
		assert.Equal(t, int64(100), created.ID)
		assert.Equal(t, 50, created.Age)
	}

	count, err := db.NewSelect().Model((*testutil.Person)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestUpdateWithStringKey(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedPeople(t, db, 2)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	resp, err := c.Update(context.Background(), &crudgrid.Request{Body: types.JsonObject{
		"id":   fmt.Sprint(seeded[1].ID),
		"name": "from the grid",
	}})
	require.NoError(t, err)
	require.True(t, resp.Status)
	updated := resp.Data.(*testutil.Person)
	assert.Equal(t, seeded[1].ID, updated.ID)
	assert.Equal(t, "from the grid", updated.Name)

	count, err := db.NewSelect().Model((*testutil.Person)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpdateWithoutKeyCreates(t *testing.T) {
	db := testutil.NewDB(t)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	resp, err := c.Update(context.Background(), &crudgrid.Request{Body: types.JsonObject{"name": "fresh", "email": nil}})
	require.NoError(t, err)
	created := resp.Data.(*testutil.Person)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "fresh", created.Name)
	assert.Nil(t, created.Email)
}

func TestUpdateHooks(t *testing.T) {
	db := testutil.NewDB(t)
	var after *testutil.Person
	var afterBody types.JsonObject
	c := crudgrid.NewController[testutil.Person](
		crudgrid.WithDB[testutil.Person](db),
		crudgrid.WithBeforeUpdate[testutil.Person](func(ctx context.Context, req *crudgrid.Request) error {
			req.Body["name"] = strings.ToUpper(req.Body["name"].(string))
			return nil
		}),
		crudgrid.WithAfterUpdate[testutil.Person](func(ctx context.Context, record *testutil.Person, body types.JsonObject) error {
			after = record
			afterBody = body
			return nil
		}),
	)

	resp, err := c.Update(context.Background(), &crudgrid.Request{Body: types.JsonObject{"name": "quiet"}})
	require.NoError(t, err)
	stored := resp.Data.(*testutil.Person)
	assert.Equal(t, "QUIET", stored.Name)
	require.NotNil(t, after)
	assert.Equal(t, stored.ID, after.ID)
	assert.Equal(t, "QUIET", afterBody["name"])
}

func TestBeforeUpdateErrorAborts(t *testing.T) {
	db := testutil.NewDB(t)
	refused := errors.New("refused")
	c := crudgrid.NewController[testutil.Person](
		crudgrid.WithDB[testutil.Person](db),
		crudgrid.WithBeforeUpdate[testutil.Person](func(ctx context.Context, req *crudgrid.Request) error {
			return refused
		}),
	)

	_, err := c.Update(context.Background(), &crudgrid.Request{Body: types.JsonObject{"name": "x"}})
	assert.ErrorIs(t, err, refused)
	count, err := db.NewSelect().Model((*testutil.Person)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateSyncsPivot(t *testing.T) {
	db := testutil.NewDB(t)
	_, tags, articles := testutil.SeedArticles(t, db)
	c := crudgrid.NewController[testutil.Article](
		crudgrid.WithDB[testutil.Article](db),
		crudgrid.WithEager[testutil.Article]("Tags"),
		crudgrid.WithPivots[testutil.Article](testutil.ArticleTags),
	)
	ctx := context.Background()
	owner := articles[0].ID

	resp, err := c.Update(ctx, &crudgrid.Request{Body: types.JsonObject{
		"id":   owner,
		"tags": []interface{}{tags[0].ID, tags[1].ID, tags[2].ID},
	}})
	require.NoError(t, err)
	assert.Len(t, resp.Data.(*testutil.Article).Tags, 3)
	assert.Equal(t, []int64{tags[0].ID, tags[1].ID, tags[2].ID}, testutil.PivotIDs(t, db, owner))

	resp, err = c.Update(ctx, &crudgrid.Request{Body: types.JsonObject{
		"id":    owner,
		"title": "retitled",
		"tags":  []interface{}{tags[1].ID, tags[2].ID},
	}})
	require.NoError(t, err)
	article := resp.Data.(*testutil.Article)
	assert.Equal(t, "retitled", article.Title)
	assert.Len(t, article.Tags, 2)
	assert.Equal(t, []int64{tags[1].ID, tags[2].ID}, testutil.PivotIDs(t, db, owner))

	// a body without the attribute leaves the relation alone
	_, err = c.Update(ctx, &crudgrid.Request{Body: types.JsonObject{"id": owner, "title": "again"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{tags[1].ID, tags[2].ID}, testutil.PivotIDs(t, db, owner))
}

func TestUpdatePivotFailureRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	_, _, articles := testutil.SeedArticles(t, db)
	c := crudgrid.NewController[testutil.Article](
		crudgrid.WithDB[testutil.Article](db),
		crudgrid.WithPivots[testutil.Article](testutil.ArticleTags),
	)

	_, err := c.Update(context.Background(), &crudgrid.Request{Body: types.JsonObject{
		"id":    articles[0].ID,
		"title": "never stored",
		"tags":  []interface{}{int64(404)},
	}})
	require.Error(t, err)

	var title string
	require.NoError(t, db.NewSelect().Model((*testutil.Article)(nil)).Column("title").
		Where("id = ?", articles[0].ID).Scan(context.Background(), &title))
	assert.Equal(t, "first", title)
}

func TestDestroy(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedPeople(t, db, 3)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))
	ctx := context.Background()

	_, err := db.NewDelete().Model((*testutil.Person)(nil)).
		Where("id IN (?)", bun.In([]int64{seeded[0].ID, seeded[2].ID})).Exec(ctx)
	require.NoError(t, err)

	resp := c.Destroy(ctx, &crudgrid.Request{ID: []interface{}{seeded[0].ID, seeded[1].ID, seeded[2].ID}})
	assert.True(t, resp.Status)
	assert.Empty(t, resp.Message)

	count, err := db.NewSelect().Model((*testutil.Person)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDestroyMissing(t *testing.T) {
	db := testutil.NewDB(t)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	resp := c.Destroy(context.Background(), &crudgrid.Request{ID: int64(999)})
	assert.False(t, resp.Status)
	assert.Equal(t, "The record does not exist or was already deleted", resp.Message)
}

func TestDestroyWithoutID(t *testing.T) {
	db := testutil.NewDB(t)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	for _, id := range []interface{}{nil, int64(0), "", "0", []interface{}{}} {
		resp := c.Destroy(context.Background(), &crudgrid.Request{ID: id})
		assert.Equal(t, &crudgrid.Response{Status: false}, resp, "id %#v", id)
	}
}

func TestDestroyReferencedRecord(t *testing.T) {
	db := testutil.NewDB(t)
	author, _, _ := testutil.SeedArticles(t, db)

	c := crudgrid.NewController[testutil.Author](crudgrid.WithDB[testutil.Author](db))
	resp := c.Destroy(context.Background(), &crudgrid.Request{ID: author.ID})
	assert.False(t, resp.Status)
	assert.Equal(t, "The record is still referenced by other records", resp.Message)

	catalog := i18n.NewCatalog("en")
	require.NoError(t, catalog.Load("en", []byte(`"Unhandled SQL error": "Database error :code"`)))
	c = crudgrid.NewController[testutil.Author](
		crudgrid.WithDB[testutil.Author](db),
		crudgrid.WithTranslator[testutil.Author](catalog),
	)
	resp = c.Destroy(context.Background(), &crudgrid.Request{ID: author.ID})
	assert.False(t, resp.Status)
	assert.Equal(t, "Database error 23503", resp.Message)
}

func TestDestroyUnclassifiedDatabaseFault(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedPeople(t, db, 1)
	c := crudgrid.NewController[testutil.Person](
		crudgrid.WithDB[testutil.Person](db),
		crudgrid.WithScope[testutil.Person](func(sel *bun.SelectQuery) *bun.SelectQuery {
			return sel.Where("age >>> ")
		}),
	)

	resp := c.Destroy(context.Background(), &crudgrid.Request{ID: seeded[0].ID})
	assert.False(t, resp.Status)
	assert.Equal(t, "Unhandled SQL error (code 1)", resp.Message)
}

func TestDestroyUnexpectedFault(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedPeople(t, db, 1)
	c := crudgrid.NewController[testutil.Person](crudgrid.WithDB[testutil.Person](db))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := c.Destroy(ctx, &crudgrid.Request{ID: seeded[0].ID})
	assert.False(t, resp.Status)
	assert.Equal(t, context.Canceled.Error(), resp.Message)

	count, err := db.NewSelect().Model((*testutil.Person)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRoutesFlags(t *testing.T) {
	c := crudgrid.NewController[testutil.Tag]()
	assert.True(t, c.RouteUpdate())
	assert.True(t, c.RouteDestroy())

	c = crudgrid.NewController[testutil.Tag](crudgrid.WithRoutes[testutil.Tag](true, false))
	assert.True(t, c.RouteUpdate())
	assert.False(t, c.RouteDestroy())
}

func TestRequestIDs(t *testing.T) {
	assert.Nil(t, (&crudgrid.Request{}).IDs())
	assert.Equal(t, []interface{}{int64(1)}, (&crudgrid.Request{ID: int64(1)}).IDs())
	assert.Equal(t, []interface{}{"a", "b"}, (&crudgrid.Request{ID: []interface{}{"a", "b"}}).IDs())
}
