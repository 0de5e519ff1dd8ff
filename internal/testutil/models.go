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

package testutil

import (
	"github.com/tomoncle/crudgrid/repository"
	"github.com/uptrace/bun"
)

type Person struct {
	bun.BaseModel `bun:"table:people,alias:person"`

	ID    int64   `bun:"id,pk,autoincrement" json:"id"`
	Name  string  `bun:"name,notnull" json:"name"`
	Age   int     `bun:"age" json:"age"`
	City  string  `bun:"city" json:"city"`
	Email *string `bun:"email" json:"email"`
}

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:author"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull" json:"name"`
}

type Article struct {
	bun.BaseModel `bun:"table:articles,alias:article"`

	ID       int64   `bun:"id,pk,autoincrement" json:"id"`
	Title    string  `bun:"title,notnull" json:"title"`
	AuthorID int64   `bun:"author_id" json:"author_id"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Tags     []*Tag  `bun:"m2m:article_tags,join:Article=Tag" json:"tags,omitempty"`
}

type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:tag"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

type ArticleTag struct {
	bun.BaseModel `bun:"table:article_tags,alias:at"`

	ArticleID int64    `bun:"article_id,pk" json:"article_id"`
	Article   *Article `bun:"rel:belongs-to,join:article_id=id"`
	TagID     int64    `bun:"tag_id,pk" json:"tag_id"`
	Tag       *Tag     `bun:"rel:belongs-to,join:tag_id=id"`
}

// ArticleTags is the pivot behind Article.Tags.
var ArticleTags = repository.Pivot{
	Attribute:  "tags",
	Table:      "article_tags",
	ForeignKey: "article_id",
	RelatedKey: "tag_id",
}

// Models lists every fixture model with referenced tables first.
func Models() []interface{} {
	return []interface{}{
		(*Person)(nil),
		(*Author)(nil),
		(*Article)(nil),
		(*Tag)(nil),
		(*ArticleTag)(nil),
	}
}
