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
	"strings"
	"unicode"

	"github.com/uptrace/bun"
)

// resolveRelation maps a user supplied relation path to the Go field names
// Bun expects. Each segment matches case-insensitively or by snake_case.
func (m *modelMeta) resolveRelation(path string) (string, error) {
	segments := strings.Split(path, ".")
	head := strings.TrimSpace(segments[0])
	for goName := range m.table.Relations {
		if strings.EqualFold(goName, head) || toSnake(goName) == strings.ToLower(head) {
			segments[0] = goName
			return strings.Join(segments, "."), nil
		}
	}
	return "", unknownRelationError(m.name, path)
}

// applyRelations adds eager loads to q, skipping duplicates. An unknown name
// is recorded on the query and returned by its Scan.
func (m *modelMeta) applyRelations(q *bun.SelectQuery, relations ...string) *bun.SelectQuery {
	seen := make(map[string]struct{}, len(relations))
	for _, rel := range relations {
		name, err := m.resolveRelation(rel)
		if err != nil {
			return q.Err(err)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		q = q.Relation(name)
	}
	return q
}

func toSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
