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
	"reflect"
	"strings"

	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun"
)

func applyConditions(q *bun.SelectQuery, conditions types.Conditions) *bun.SelectQuery {
	if err := conditions.Validate(); err != nil {
		return q.Err(err)
	}
	for _, c := range conditions {
		column, args := columnExpr(c.Column)
		op := c.Operator
		if isNilValue(c.Value) {
			// col = NULL never matches.
			switch op {
			case types.OpEqual:
				op = types.OpIsNull
			case types.OpNotEqual:
				op = types.OpIsNotNull
			}
		}
		switch {
		case op.Unary():
			q = q.Where(column+" "+op.String(), args...)
		case op.Multi():
			if n, ok := listLen(c.Value); ok && n == 0 {
				if op == types.OpIn {
					q = q.Where("1 = 0")
				} else {
					q = q.Where("1 = 1")
				}
				continue
			}
			q = q.Where(column+" "+op.String()+" (?)", append(args, bun.In(c.Value))...)
		default:
			q = q.Where(column+" "+op.String()+" ?", append(args, c.Value)...)
		}
	}
	return q
}

func isNilValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// listLen reports the length of a slice or array value. A nil value counts
// as an empty list.
func listLen(v interface{}) (int, bool) {
	if v == nil {
		return 0, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}

// columnExpr qualifies bare column names with the model alias so joined
// relations cannot make them ambiguous.
func columnExpr(column string) (string, []interface{}) {
	if strings.Contains(column, ".") {
		return "?", []interface{}{bun.Ident(column)}
	}
	return "?TableAlias.?", []interface{}{bun.Ident(column)}
}

func applyOrders(q *bun.SelectQuery, pk string, orders []string) *bun.SelectQuery {
	if len(orders) == 0 {
		return q.OrderExpr("?TableAlias.? ASC", bun.Ident(pk))
	}
	return q.Order(orders...)
}
