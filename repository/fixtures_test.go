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
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	Age       int       `bun:"age"`
	Password  string    `bun:"password"`
	Posts     []*Post   `bun:"rel:has-many,join:id=user_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (User) Fillable() []string {
	return []string{"name", "email", "age"}
}

type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID     int64  `bun:"id,pk,autoincrement"`
	UserID int64  `bun:"user_id,notnull"`
	Title  string  `bun:"title"`
	Body   *string `bun:"body"`
	Author *User   `bun:"rel:belongs-to,join:user_id=id"`
}

type Setting struct {
	bun.BaseModel `bun:"table:settings"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name"`
	Value string `bun:"value"`
}

// Fillable locks every column against mass assignment.
func (Setting) Fillable() []string {
	return []string{}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{(*User)(nil), (*Post)(nil), (*Setting)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

func newRepo[T any](t *testing.T, db bun.IDB) Repository[T] {
	t.Helper()
	repo, err := NewRepository[T](db, WithLogger(database.NopLogger{}))
	require.NoError(t, err)
	return repo
}

// seedUsers inserts n users named user-01..user-nn with ages 21..20+n.
func seedUsers(t *testing.T, repo Repository[User], n int) {
	t.Helper()
	rows := make([]types.Attributes, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, types.Attributes{
			"name":  fmt.Sprintf("user-%02d", i),
			"email": fmt.Sprintf("user-%02d@example.com", i),
			"age":   20 + i,
		})
	}
	require.NoError(t, repo.Insert(context.Background(), rows...))
}

func createUser(t *testing.T, repo Repository[User], name string, age int) *User {
	t.Helper()
	user, err := repo.Create(context.Background(), types.Attributes{
		"name":  name,
		"email": name + "@example.com",
		"age":   age,
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}
