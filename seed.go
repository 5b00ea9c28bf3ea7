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
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/tomoncle/repokit/database"
	"github.com/tomoncle/repokit/repository"
	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

const (
	commonEnvironment = "common"
	unorderedSeed     = 999
)

var seedOrderPattern = regexp.MustCompile(`^(\d+)_`)

// Seeder discovers YAML fixture files and inserts their rows through the
// model registry. Files directly under the root run first, then those under
// environments/<environment>, each group by numeric file prefix.
type Seeder struct {
	db          *bun.DB
	registry    *repository.ModelRegistry
	environment string
	rootPath    string
	logger      database.Logger
}

// SeedFile is the content of one fixture file.
type SeedFile struct {
	Model string             `yaml:"model"`
	Rows  []types.Attributes `yaml:"rows"`
}

// SeedFileInfo describes a fixture file to be loaded.
type SeedFileInfo struct {
	Path        string
	Name        string
	Order       int
	Environment string
}

// SeedResult contains the outcome of loading a single fixture file.
type SeedResult struct {
	File     string
	Model    string
	Rows     int
	Duration time.Duration
}

// NewSeeder creates a seeder over the default model registry.
func NewSeeder(db *bun.DB, environment string) *Seeder {
	return &Seeder{
		db:          db,
		registry:    repository.DefaultRegistry(),
		environment: environment,
		rootPath:    database.DefaultConfig().Seed.Dir,
		logger:      database.GetLogger(),
	}
}

// SetRootPath sets the directory fixtures are loaded from.
func (s *Seeder) SetRootPath(path string) *Seeder {
	s.rootPath = path
	return s
}

func (s *Seeder) SetRegistry(registry *repository.ModelRegistry) *Seeder {
	if registry != nil {
		s.registry = registry
	}
	return s
}

// Seed loads every fixture under dir into db using the default registry.
func Seed(ctx context.Context, db *bun.DB, dir string) ([]SeedResult, error) {
	return NewSeeder(db, "").SetRootPath(dir).Execute(ctx)
}

// Execute loads all discovered fixture files in order. Each file runs in its
// own transaction; the first failure stops seeding.
func (s *Seeder) Execute(ctx context.Context) ([]SeedResult, error) {
	s.logger.Info("Starting seeding", "environment", s.environment, "path", s.rootPath)

	files, err := s.GetSeedFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to get seed files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No seed files found")
		return nil, nil
	}

	results := make([]SeedResult, 0, len(files))
	for _, file := range files {
		result, err := s.executeFile(ctx, file)
		if err != nil {
			s.logger.Error("Seed file failed", "file", file.Path, "error", err)
			return results, fmt.Errorf("seed file %s: %w", file.Path, err)
		}
		results = append(results, result)
		s.logger.Info("Seed file loaded", "file", file.Path, "model", result.Model, "rows", result.Rows, "duration", result.Duration.String())
	}

	s.logger.Info("Seeding completed", "files", len(results))
	return results, nil
}

// GetSeedFiles returns fixture files from the root and environment dirs.
func (s *Seeder) GetSeedFiles() ([]SeedFileInfo, error) {
	files, err := s.filesFromDir(s.rootPath, commonEnvironment, false)
	if err != nil {
		return nil, err
	}

	if s.environment != "" {
		envPath := filepath.Join(s.rootPath, "environments", s.environment)
		if _, err := os.Stat(envPath); err == nil {
			envFiles, err := s.filesFromDir(envPath, s.environment, true)
			if err != nil {
				return nil, err
			}
			files = append(files, envFiles...)
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Environment != files[j].Environment {
			return files[i].Environment == commonEnvironment
		}
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func (s *Seeder) filesFromDir(dir, environment string, recursive bool) ([]SeedFileInfo, error) {
	var files []SeedFileInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSeedFile(d.Name()) {
			return nil
		}
		files = append(files, SeedFileInfo{
			Path:        path,
			Name:        d.Name(),
			Order:       parseSeedOrder(d.Name()),
			Environment: environment,
		})
		return nil
	})
	return files, err
}

func isSeedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func parseSeedOrder(filename string) int {
	matches := seedOrderPattern.FindStringSubmatch(filename)
	if len(matches) > 1 {
		if order, err := strconv.Atoi(matches[1]); err == nil {
			return order
		}
	}
	return unorderedSeed
}

func (s *Seeder) executeFile(ctx context.Context, file SeedFileInfo) (SeedResult, error) {
	start := time.Now()
	result := SeedResult{File: file.Path}

	content, err := os.ReadFile(file.Path)
	if err != nil {
		return result, fmt.Errorf("failed to read file: %w", err)
	}
	seed, err := s.parseSeedFile(file.Name, content)
	if err != nil {
		return result, err
	}
	handle, err := s.registry.Lookup(seed.Model)
	if err != nil {
		return result, err
	}
	result.Model = handle.Name()

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return handle.Insert(ctx, tx, seed.Rows...)
	})
	if err != nil {
		return result, err
	}
	result.Rows = len(seed.Rows)
	result.Duration = time.Since(start)
	return result, nil
}

// parseSeedFile renders content as a template over the environment, then
// decodes it.
func (s *Seeder) parseSeedFile(name string, content []byte) (*SeedFile, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		if key, value, ok := strings.Cut(env, "="); ok {
			envVars[key] = value
		}
	}
	envVars["ENVIRONMENT"] = s.environment
	envVars["TIMESTAMP"] = time.Now().Format("2006-01-02 15:04:05")

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envVars); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(buf.Bytes(), &seed); err != nil {
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}
	if strings.TrimSpace(seed.Model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	return &seed, nil
}
