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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOperator(t *testing.T) {
	cases := map[string]Operator{
		"=":           OpEqual,
		"==":          OpEqual,
		"eq":          OpEqual,
		"<>":          OpNotEqual,
		"!=":          OpNotEqual,
		"<":           OpLessThan,
		"<=":          OpLessOrEqual,
		">":           OpGreaterThan,
		" >= ":        OpGreaterOrEqual,
		"like":        OpLike,
		"Not   Like":  OpNotLike,
		"not_like":    OpNotLike,
		"IN":          OpIn,
		"not in":      OpNotIn,
		"is null":     OpIsNull,
		"IS NOT NULL": OpIsNotNull,
		"is_not_null": OpIsNotNull,
		"between":     OpInvalid,
		"":            OpInvalid,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseOperator(in), in)
	}
}

func TestOperatorEnum(t *testing.T) {
	assert.True(t, OpLike.IsValid())
	assert.Equal(t, "LIKE", OpLike.String())
	assert.Equal(t, "like", OpLike.Name())
	assert.Equal(t, "not like", OpNotLike.Desc())
	assert.Equal(t, int(OpIn), OpIn.Number())

	assert.False(t, OpInvalid.IsValid())
	assert.Equal(t, IllegalValue, OpInvalid.Number())
	assert.Equal(t, IllegalName, OpInvalid.String())
	assert.Equal(t, IllegalDesc, OpInvalid.Desc())

	assert.True(t, OpIsNull.Unary())
	assert.False(t, OpEqual.Unary())
	assert.True(t, OpNotIn.Multi())
	assert.False(t, OpLike.Multi())
}
