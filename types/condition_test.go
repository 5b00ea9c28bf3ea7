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
	"github.com/stretchr/testify/require"
)

func TestConditionValidate(t *testing.T) {
	assert.NoError(t, Eq("email", "a@example.com").Validate())
	assert.NoError(t, Where("deleted_at", "is null", nil).Validate())
	assert.ErrorIs(t, Condition{Operator: OpEqual}.Validate(), ErrInvalidCondition)
	assert.ErrorIs(t, Where("age", "~", 1).Validate(), ErrInvalidCondition)
}

func TestConditionString(t *testing.T) {
	assert.Equal(t, "age >= 18", Where("age", ">=", 18).String())
	assert.Equal(t, "deleted_at IS NULL", Where("deleted_at", "is null", nil).String())
}

func TestConditionsFromAttributes(t *testing.T) {
	conds := ConditionsFromAttributes(Attributes{"name": "alice", "email": "a@example.com"})
	require.Len(t, conds, 2)
	assert.Equal(t, Eq("email", "a@example.com"), conds[0])
	assert.Equal(t, Eq("name", "alice"), conds[1])
	assert.NoError(t, conds.Validate())

	assert.Empty(t, ConditionsFromAttributes(nil))
}

func TestConditionsAnd(t *testing.T) {
	base := Conditions{Eq("a", 1)}
	more := base.And(Where("b", "<", 2))
	assert.Len(t, base, 1)
	require.Len(t, more, 2)
	assert.Equal(t, OpLessThan, more[1].Operator)

	assert.ErrorIs(t, more.And(Condition{}).Validate(), ErrInvalidCondition)
}
