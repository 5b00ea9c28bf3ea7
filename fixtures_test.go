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

package repokit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/repokit/database"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	Role      string    `bun:"role"`
	Posts     []*Post   `bun:"rel:has-many,join:id=user_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (User) Fillable() []string {
	return []string{"name", "email"}
}

type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID     int64  `bun:"id,pk,autoincrement"`
	UserID int64  `bun:"user_id,notnull"`
	Title  string `bun:"title"`
}

// initTestDB opens a file backed SQLite database as the global connection
// and creates the fixture tables.
func initTestDB(t *testing.T) *bun.DB {
	t.Helper()
	database.InitLogger(database.NopLogger{})
	cfg := database.DefaultConfig()
	cfg.Connection.Type = "sqlite"
	cfg.Connection.DBName = filepath.Join(t.TempDir(), "repokit.db")

	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	ctx := context.Background()
	for _, model := range []interface{}{(*User)(nil), (*Post)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	return db
}
