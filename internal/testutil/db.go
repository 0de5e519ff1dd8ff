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

// Package testutil provides an in-memory SQLite database with fixture
// models and seed data for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/crudgrid/database"
	"github.com/uptrace/bun"
)

// NewDB returns a fresh in-memory SQLite database with foreign keys enabled
// and the fixture tables created. It is closed when the test ends.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()
	database.EnableBunSqlSilent(true)

	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DSN = "file::memory:"
	manager := database.NewDatabaseManager(cfg, database.SchemaConfig{EnableForeignKeys: true})
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })

	db := manager.GetDB()
	db.RegisterModel((*ArticleTag)(nil))
	require.NoError(t, database.CreateTables(context.Background(), db, true, Models()...))
	return db
}

// Insert stores every model in order.
func Insert(t testing.TB, db bun.IDB, models ...interface{}) {
	t.Helper()
	for _, m := range models {
		_, err := db.NewInsert().Model(m).Exec(context.Background())
		require.NoError(t, err)
	}
}

// SeedPeople inserts n people named person-01..person-n. Ages cycle through
// 20, 30, 40 and cities through Paris, Berlin, Lyon.
func SeedPeople(t testing.TB, db bun.IDB, n int) []*Person {
	t.Helper()
	ages := []int{20, 30, 40}
	cities := []string{"Paris", "Berlin", "Lyon"}
	people := make([]*Person, 0, n)
	for i := 0; i < n; i++ {
		people = append(people, &Person{
			Name: fmt.Sprintf("person-%02d", i+1),
			Age:  ages[i%len(ages)],
			City: cities[i%len(cities)],
		})
	}
	if n > 0 {
		_, err := db.NewInsert().Model(&people).Exec(context.Background())
		require.NoError(t, err)
	}
	return people
}

// SeedArticles inserts one author, tags t1..t3 and two articles. The first
// article is tagged with t1.
func SeedArticles(t testing.TB, db bun.IDB) (*Author, []*Tag, []*Article) {
	t.Helper()
	author := &Author{Name: "ada"}
	Insert(t, db, author)

	tags := []*Tag{{Name: "t1"}, {Name: "t2"}, {Name: "t3"}}
	_, err := db.NewInsert().Model(&tags).Exec(context.Background())
	require.NoError(t, err)

	articles := []*Article{
		{Title: "first", AuthorID: author.ID},
		{Title: "second", AuthorID: author.ID},
	}
	_, err = db.NewInsert().Model(&articles).Exec(context.Background())
	require.NoError(t, err)

	Insert(t, db, &ArticleTag{ArticleID: articles[0].ID, TagID: tags[0].ID})
	return author, tags, articles
}

// PivotIDs returns the tag ids attached to article, ascending.
func PivotIDs(t testing.TB, db bun.IDB, articleID int64) []int64 {
	t.Helper()
	var ids []int64
	err := db.NewSelect().
		Model((*ArticleTag)(nil)).
		Column("tag_id").
		Where("article_id = ?", articleID).
		Order("tag_id ASC").
		Scan(context.Background(), &ids)
	require.NoError(t, err)
	return ids
}
