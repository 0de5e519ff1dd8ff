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

package repository_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/crudgrid/internal/testutil"
	"github.com/tomoncle/crudgrid/query"
	"github.com/tomoncle/crudgrid/repository"
	"github.com/tomoncle/crudgrid/types"
	"github.com/uptrace/bun"
)

func plain(sel *bun.SelectQuery) *query.Query { return query.New(sel) }

func byID(sel *bun.SelectQuery) *query.Query {
	return query.New(sel).OrderBy("id", types.SortAsc)
}

func parisOnly(sel *bun.SelectQuery) *bun.SelectQuery {
	return sel.Where("?TableAlias.city = ?", "Paris")
}

func newPeopleRepo(t *testing.T) (repository.Repository[testutil.Person], *bun.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	repo, err := repository.NewRepository[testutil.Person](db)
	require.NoError(t, err)
	return repo, db
}

func TestNewRepository(t *testing.T) {
	_, err := repository.NewRepository[testutil.Person](nil)
	assert.Error(t, err)

	db := testutil.NewDB(t)
	_, err = repository.NewRepository[testutil.ArticleTag](db)
	assert.Error(t, err, "composite keys are rejected")

	repo, err := repository.NewRepository[testutil.Person](db)
	require.NoError(t, err)
	assert.Equal(t, repository.PrimaryKey{Column: "id", Field: "ID", JSON: "id"}, repo.PrimaryKey())
	assert.Equal(t, "people", repo.Table().Name)
	assert.Equal(t, int64(42), repo.KeyOf(&testutil.Person{ID: 42}))
	assert.Nil(t, repo.KeyOf(nil))
}

func TestFindAndFindOne(t *testing.T) {
	repo, db := newPeopleRepo(t)
	seeded := testutil.SeedPeople(t, db, 3)
	ctx := context.Background()

	all, err := repo.Find(ctx, byID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "person-01", all[0].Name)

	one, err := repo.FindOne(ctx, plain, seeded[2].ID)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "Lyon", one.City)

	missing, err := repo.FindOne(ctx, plain, int64(1000))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPage(t *testing.T) {
	repo, db := newPeopleRepo(t)
	ctx := context.Background()

	empty, err := repo.Page(ctx, byID, types.NewPageRequest(1, 10))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Items)

	testutil.SeedPeople(t, db, 25)
	p, err := repo.Page(ctx, byID, types.NewPageRequest(3, 10))
	require.NoError(t, err)
	assert.Equal(t, 25, p.Total)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 10, p.PageSize)
	require.Len(t, p.Items, 5)
	assert.Equal(t, "person-21", p.Items[0].Name)
}

func TestUpsertWithTx(t *testing.T) {
	repo, db := newPeopleRepo(t)
	seeded := testutil.SeedPeople(t, db, 2)
	ctx := context.Background()

	var updated, inserted *testutil.Person
	err := repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		var err error
		updated, err = repo.UpsertWithTx(ctx, tx, nil, seeded[1].ID, types.JsonObject{"age": int64(99), "unknown": true})
		if err != nil {
			return err
		}
		inserted, err = repo.UpsertWithTx(ctx, tx, nil, nil, types.JsonObject{"name": "new", "city": "Oslo"})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, seeded[1].ID, updated.ID)
	assert.Equal(t, 99, updated.Age)
	assert.Equal(t, "person-02", updated.Name)
	assert.NotZero(t, inserted.ID)

	stored, err := repo.FindOne(ctx, plain, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 99, stored.Age)
}

func TestUpsertWithStringKey(t *testing.T) {
	repo, db := newPeopleRepo(t)
	seeded := testutil.SeedPeople(t, db, 2)
	ctx := context.Background()
	key := strconv.FormatInt(seeded[1].ID, 10)

	var updated, inserted *testutil.Person
	err := repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		var err error
		body := types.JsonObject{"id": key, "age": int64(41)}
		updated, err = repo.UpsertWithTx(ctx, tx, nil, key, body)
		if err != nil {
			return err
		}
		assert.Equal(t, key, body["id"], "the caller's body is not modified")
		inserted, err = repo.UpsertWithTx(ctx, tx, nil, "", types.JsonObject{"id": "", "name": "blank"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, seeded[1].ID, updated.ID)
	assert.Equal(t, 41, updated.Age)
	assert.NotZero(t, inserted.ID)

	count, err := db.NewSelect().Model((*testutil.Person)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	err = repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		_, err := repo.UpsertWithTx(ctx, tx, nil, "two", types.JsonObject{"id": "two"})
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid id "two"`)
}

func TestUpsertOutsideScopeInserts(t *testing.T) {
	repo, db := newPeopleRepo(t)
	seeded := testutil.SeedPeople(t, db, 2)
	ctx := context.Background()

	// seeded[1] lives in Berlin, so the scoped lookup misses and the insert
	// collides with the existing key
	err := repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		_, err := repo.UpsertWithTx(ctx, tx, parisOnly, seeded[1].ID, types.JsonObject{"id": seeded[1].ID, "name": "x"})
		return err
	})
	assert.Error(t, err)
}

func TestRunInTxRollsBack(t *testing.T) {
	repo, db := newPeopleRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		if _, err := repo.UpsertWithTx(ctx, tx, nil, nil, types.JsonObject{"name": "ghost"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := db.NewSelect().Model((*testutil.Person)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteByIDs(t *testing.T) {
	repo, db := newPeopleRepo(t)
	seeded := testutil.SeedPeople(t, db, 6)
	ctx := context.Background()

	n, err := repo.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteByIDs(ctx, nil, seeded[0].ID, int64(999))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// only seeded[3] is in Paris
	n, err = repo.DeleteByIDs(ctx, parisOnly, seeded[1].ID, seeded[2].ID, seeded[3].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repo.Find(ctx, byID)
	require.NoError(t, err)
	assert.Len(t, left, 4)
}

func TestSyncPivotWithTx(t *testing.T) {
	db := testutil.NewDB(t)
	_, tags, articles := testutil.SeedArticles(t, db)
	repo, err := repository.NewRepository[testutil.Article](db)
	require.NoError(t, err)
	ctx := context.Background()
	owner := articles[0].ID

	sync := func(ids ...any) error {
		return repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
			return repo.SyncPivotWithTx(ctx, tx, testutil.ArticleTags, owner, ids)
		})
	}

	require.NoError(t, sync(tags[0].ID, tags[1].ID, tags[2].ID))
	assert.Equal(t, []int64{tags[0].ID, tags[1].ID, tags[2].ID}, testutil.PivotIDs(t, db, owner))

	require.NoError(t, sync(tags[1].ID, tags[2].ID))
	assert.Equal(t, []int64{tags[1].ID, tags[2].ID}, testutil.PivotIDs(t, db, owner))

	require.NoError(t, sync(tags[2].ID, nil, tags[2].ID))
	assert.Equal(t, []int64{tags[2].ID}, testutil.PivotIDs(t, db, owner))

	require.NoError(t, sync())
	assert.Empty(t, testutil.PivotIDs(t, db, owner))

	// the other article is untouched
	assert.Empty(t, testutil.PivotIDs(t, db, articles[1].ID))

	err = repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		return repo.SyncPivotWithTx(ctx, tx, repository.Pivot{Attribute: "tags"}, owner, nil)
	})
	assert.Error(t, err)
}

func TestIsEmptyKey(t *testing.T) {
	empty := []any{nil, 0, int64(0), uint(0), 0.0, "", "0", false, []interface{}{}, []int64{}, (*int)(nil)}
	for _, k := range empty {
		assert.True(t, repository.IsEmptyKey(k), "%#v", k)
	}
	present := []any{1, int64(7), "a", "00", true, []interface{}{nil}, []int64{1}}
	for _, k := range present {
		assert.False(t, repository.IsEmptyKey(k), "%#v", k)
	}
}
