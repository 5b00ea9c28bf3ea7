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

package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
)

// Attributes maps column names to values. It is the input of the
// attribute based repository operations (Create, Fill, Update, Insert).
type Attributes map[string]interface{}

// Keys returns the attribute names in ascending order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Only returns a copy holding just the given columns.
func (a Attributes) Only(columns ...string) Attributes {
	out := make(Attributes, len(columns))
	for _, c := range columns {
		if v, ok := a[c]; ok {
			out[c] = v
		}
	}
	return out
}

// Except returns a copy without the given columns.
func (a Attributes) Except(columns ...string) Attributes {
	skip := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		skip[c] = struct{}{}
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		if _, ok := skip[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// Merge returns a copy of a overlaid with other. Values in other win.
func (a Attributes) Merge(other Attributes) Attributes {
	out := make(Attributes, len(a)+len(other))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Value implements driver.Valuer so Attributes can back a JSON column.
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for Attributes.
func (a *Attributes) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = make(Attributes)
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("type assertion must be []byte or string")
	}
}
