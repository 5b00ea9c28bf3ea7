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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/repository"
	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun"
)

type account struct {
	bun.BaseModel `bun:"table:accounts"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Email string `bun:"email,unique"`
	Role  string `bun:"role"`
	Age   int    `bun:"age"`
}

type cliEnv struct {
	configPath string
	seedDir    string
	registry   *repository.ModelRegistry
}

// newCLIEnv writes a SQLite configuration, creates the accounts table and
// seeds two rows.
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	color.NoColor = true
	database.InitLogger(database.NopLogger{})
	for _, key := range []string{"DB_TYPE", "DB_HOST", "DB_NAME"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	dir := t.TempDir()
	env := &cliEnv{
		configPath: filepath.Join(dir, "database.yaml"),
		seedDir:    filepath.Join(dir, "seeds"),
		registry:   repository.NewModelRegistry(),
	}
	dbPath := filepath.Join(dir, "cli.db")
	config := fmt.Sprintf("connection:\n  type: sqlite\n  dbname: %s\nseed:\n  dir: %s\n", dbPath, env.seedDir)
	require.NoError(t, os.WriteFile(env.configPath, []byte(config), 0o600))

	_, err := repository.RegisterModel[account](env.registry, 1)
	require.NoError(t, err)

	cfg, err := database.LoadConfig(env.configPath)
	require.NoError(t, err)
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	ctx := context.Background()
	_, err = db.NewCreateTable().Model((*account)(nil)).Exec(ctx)
	require.NoError(t, err)
	repo, err := repository.NewRepository[account](db)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx,
		types.Attributes{"email": "root@example.com", "role": "admin", "age": 40},
		types.Attributes{"email": "guest@example.com", "role": "guest", "age": 20},
	))
	require.NoError(t, database.CloseDB())
	return env
}

func (e *cliEnv) run(args ...string) (string, error) {
	cmd := newCommand("repokit", e.registry)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := Execute(context.Background(), cmd)
	return out.String(), err
}

func TestModelsCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("models")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "account")
	assert.Contains(t, out, "accounts")

	out, err = env.run("models", "--json")
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "accounts", rows[0]["table"])

	empty := &cliEnv{configPath: env.configPath, registry: repository.NewModelRegistry()}
	out, err = empty.run("models")
	require.NoError(t, err)
	assert.Contains(t, out, "no models registered")
}

func TestCountCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("count", "accounts")
	require.NoError(t, err)
	assert.Equal(t, "account: 2\n", out)

	out, err = env.run("count", "account", "role=admin")
	require.NoError(t, err)
	assert.Equal(t, "account: 1\n", out)

	out, err = env.run("count", "accounts", "age:ge=30", "--json")
	require.NoError(t, err)
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, float64(1), res["count"])

	_, err = env.run("count", "comments")
	assert.ErrorIs(t, err, repository.ErrModelNotExist)

	_, err = env.run("count", "accounts", "role")
	assert.Error(t, err)

	_, err = env.run("count")
	assert.Error(t, err)
}

func TestSeedCommand(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.MkdirAll(env.seedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.seedDir, "001_accounts.yaml"),
		[]byte("model: account\nrows:\n  - email: new@example.com\n    role: guest\n"), 0o600))

	out, err := env.run("seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded account: 1 rows")

	out, err = env.run("count", "accounts", "role=guest")
	require.NoError(t, err)
	assert.Equal(t, "account: 2\n", out)

	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "accounts.yaml"),
		[]byte("model: accounts\nrows:\n  - email: other@example.com\n"), 0o600))
	out, err = env.run("seed", other)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded account: 1 rows")
}

func TestFailingCommandClosesDatabase(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("count", "accounts", "missing=1")
	require.Error(t, err)
	assert.Nil(t, database.GetDB())

	require.NoError(t, os.MkdirAll(env.seedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.seedDir, "001_comments.yaml"),
		[]byte("model: comments\nrows:\n  - body: hi\n"), 0o600))
	_, err = env.run("seed")
	assert.ErrorIs(t, err, repository.ErrModelNotExist)
	assert.Nil(t, database.GetDB())

	out, err := env.run("count", "accounts")
	require.NoError(t, err)
	assert.Equal(t, "account: 2\n", out)
	assert.Nil(t, database.GetDB())
}

func TestHealthCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("health")
	require.NoError(t, err)
	assert.Contains(t, out, "healthy")

	out, err = env.run("health", "--json")
	require.NoError(t, err)
	var status database.HealthStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.Healthy)

	broken := &cliEnv{configPath: filepath.Join(t.TempDir(), "missing.yaml"), registry: env.registry}
	_, err = broken.run("health")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseConditions(t *testing.T) {
	conds, err := ParseConditions([]string{"role=admin", "age:ge=30", "id:in=1,2", "email:like=%@example.com"})
	require.NoError(t, err)
	require.Len(t, conds, 4)
	assert.Equal(t, types.Eq("role", "admin"), conds[0])
	assert.Equal(t, types.OpGreaterOrEqual, conds[1].Operator)
	assert.Equal(t, []string{"1", "2"}, conds[2].Value)
	assert.Equal(t, types.OpLike, conds[3].Operator)

	conds, err = ParseConditions(nil)
	require.NoError(t, err)
	assert.Empty(t, conds)

	_, err = ParseConditions([]string{"role"})
	assert.Error(t, err)
	_, err = ParseConditions([]string{"age:between=1"})
	assert.ErrorIs(t, err, types.ErrInvalidCondition)
	_, err = ParseConditions([]string{"=1"})
	assert.ErrorIs(t, err, types.ErrInvalidCondition)
}
