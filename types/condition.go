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
	"errors"
	"fmt"
)

// ErrInvalidCondition is returned when a condition names no column or uses
// an unknown operator.
var ErrInvalidCondition = errors.New("invalid condition")

// Condition is a single "column operator value" predicate.
type Condition struct {
	Column   string
	Operator Operator
	Value    interface{}
}

// Eq builds an equality condition.
func Eq(column string, value interface{}) Condition {
	return Condition{Column: column, Operator: OpEqual, Value: value}
}

// Where builds a condition from the textual operator, e.g.
// Where("email", "like", "%gmail%").
func Where(column, operator string, value interface{}) Condition {
	return Condition{Column: column, Operator: ParseOperator(operator), Value: value}
}

// Validate checks the condition is well formed.
func (c Condition) Validate() error {
	if c.Column == "" {
		return fmt.Errorf("%w: empty column", ErrInvalidCondition)
	}
	if !c.Operator.IsValid() {
		return fmt.Errorf("%w: unknown operator for column %s", ErrInvalidCondition, c.Column)
	}
	return nil
}

func (c Condition) String() string {
	if c.Operator.Unary() {
		return fmt.Sprintf("%s %s", c.Column, c.Operator)
	}
	return fmt.Sprintf("%s %s %v", c.Column, c.Operator, c.Value)
}

// Conditions are combined with AND.
type Conditions []Condition

// ConditionsFromAttributes builds one equality condition per attribute,
// ordered by column name.
func ConditionsFromAttributes(attrs Attributes) Conditions {
	conds := make(Conditions, 0, len(attrs))
	for _, k := range attrs.Keys() {
		conds = append(conds, Eq(k, attrs[k]))
	}
	return conds
}

// And returns a copy with more conditions appended.
func (cs Conditions) And(more ...Condition) Conditions {
	out := make(Conditions, 0, len(cs)+len(more))
	out = append(out, cs...)
	return append(out, more...)
}

// Validate returns the first invalid condition error.
func (cs Conditions) Validate() error {
	for _, c := range cs {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
