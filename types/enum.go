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

import "strings"

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// Operator is a comparison operator usable in a Condition.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpLessThan
	OpLessOrEqual
	OpGreaterThan
	OpGreaterOrEqual
	OpLike
	OpNotLike
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
)

// OpInvalid is returned by ParseOperator for unknown operators.
const OpInvalid Operator = IllegalValue

var operatorNames = [...]string{
	OpEqual:          "eq",
	OpNotEqual:       "ne",
	OpLessThan:       "lt",
	OpLessOrEqual:    "le",
	OpGreaterThan:    "gt",
	OpGreaterOrEqual: "ge",
	OpLike:           "like",
	OpNotLike:        "not_like",
	OpIn:             "in",
	OpNotIn:          "not_in",
	OpIsNull:         "is_null",
	OpIsNotNull:      "is_not_null",
}

var operatorSymbols = [...]string{
	OpEqual:          "=",
	OpNotEqual:       "<>",
	OpLessThan:       "<",
	OpLessOrEqual:    "<=",
	OpGreaterThan:    ">",
	OpGreaterOrEqual: ">=",
	OpLike:           "LIKE",
	OpNotLike:        "NOT LIKE",
	OpIn:             "IN",
	OpNotIn:          "NOT IN",
	OpIsNull:         "IS NULL",
	OpIsNotNull:      "IS NOT NULL",
}

var operatorAliases = map[string]Operator{
	"!=": OpNotEqual,
	"==": OpEqual,
}

// ParseOperator parses an operator symbol such as ">=" or "like", or its
// short name such as "ge" or "not_like".
// Matching is case-insensitive and tolerant of surrounding whitespace.
func ParseOperator(s string) Operator {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if op, ok := operatorAliases[s]; ok {
		return op
	}
	for i, sym := range operatorSymbols {
		if sym == s || strings.ToUpper(operatorNames[i]) == s {
			return Operator(i)
		}
	}
	return OpInvalid
}

func (o Operator) IsValid() bool {
	return o >= OpEqual && o <= OpIsNotNull
}

func (o Operator) Number() int {
	if !o.IsValid() {
		return IllegalValue
	}
	return int(o)
}

// String returns the SQL keyword of the operator.
func (o Operator) String() string {
	if !o.IsValid() {
		return IllegalName
	}
	return operatorSymbols[o]
}

func (o Operator) Desc() string {
	if !o.IsValid() {
		return IllegalDesc
	}
	return strings.ReplaceAll(operatorNames[o], "_", " ")
}

func (o Operator) Name() string {
	if !o.IsValid() {
		return IllegalName
	}
	return operatorNames[o]
}

// Unary reports whether the operator takes no right-hand value.
func (o Operator) Unary() bool {
	return o == OpIsNull || o == OpIsNotNull
}

// Multi reports whether the operator expects a list of values.
func (o Operator) Multi() bool {
	return o == OpIn || o == OpNotIn
}

var _ BaseEnum = OpEqual
