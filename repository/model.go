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
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/tomoncle/repokit/types"
	"github.com/uptrace/bun/schema"
)

const (
	createdAtColumn = "created_at"
	updatedAtColumn = "updated_at"
)

var timeType = reflect.TypeOf(time.Time{})

// modelMeta is what a repository needs to know about T beyond the Bun table.
type modelMeta struct {
	name      string
	table     *schema.Table
	pk        *schema.Field
	columns   []string
	fillable  []string
	createdAt *schema.Field
	updatedAt *schema.Field
}

func resolveModel[T any](dialect schema.Dialect) (*modelMeta, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	name := typ.String()
	if typ.Kind() != reflect.Struct {
		return nil, invalidModelError(name, "kind is "+typ.Kind().String())
	}

	table := dialect.Tables().Get(typ)
	switch len(table.PKs) {
	case 0:
		return nil, invalidModelError(name, "no primary key")
	case 1:
	default:
		return nil, invalidModelError(name, "composite primary key")
	}

	meta := &modelMeta{
		name:  typ.Name(),
		table: table,
		pk:    table.PKs[0],
	}
	zero := reflect.New(typ).Elem()
	for _, field := range table.Fields {
		meta.columns = append(meta.columns, field.Name)
		if !field.IsPK {
			meta.fillable = append(meta.fillable, field.Name)
		}
		if !isTimeField(field.Value(zero).Type()) {
			continue
		}
		switch field.Name {
		case createdAtColumn:
			meta.createdAt = field
		case updatedAtColumn:
			meta.updatedAt = field
		}
	}
	if f, ok := reflect.New(typ).Interface().(Fillable); ok {
		// An explicit empty list disables mass assignment entirely.
		meta.fillable = append([]string{}, f.Fillable()...)
	}
	return meta, nil
}

func isTimeField(typ reflect.Type) bool {
	return typ == timeType || (typ.Kind() == reflect.Ptr && typ.Elem() == timeType)
}

// fill assigns the allowed keys of data to strct. Keys without a column are
// skipped.
func (m *modelMeta) fill(strct reflect.Value, data types.Attributes, allowed []string) error {
	if len(data) == 0 || len(allowed) == 0 {
		return nil
	}
	permitted := make(map[string]struct{}, len(allowed))
	for _, col := range allowed {
		permitted[col] = struct{}{}
	}
	for _, col := range data.Keys() {
		if _, ok := permitted[col]; !ok {
			continue
		}
		field, ok := m.table.FieldMap[col]
		if !ok {
			continue
		}
		if err := assign(field, strct, data[col]); err != nil {
			return fmt.Errorf("fill %s.%s: %w", m.name, col, err)
		}
	}
	return nil
}

// touch stamps updated_at, and created_at when creating and still zero.
func (m *modelMeta) touch(strct reflect.Value, creating bool) error {
	now := time.Now()
	if creating && m.createdAt != nil && m.createdAt.HasZeroValue(strct) {
		if err := assign(m.createdAt, strct, now); err != nil {
			return err
		}
	}
	if m.updatedAt != nil {
		return assign(m.updatedAt, strct, now)
	}
	return nil
}

func assign(field *schema.Field, strct reflect.Value, value interface{}) error {
	fv := field.Value(strct)
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(fv.Type()):
		fv.Set(v)
		return nil
	case fv.Kind() == reflect.Ptr && v.Type().AssignableTo(fv.Type().Elem()):
		ptr := reflect.New(fv.Type().Elem())
		ptr.Elem().Set(v)
		fv.Set(ptr)
		return nil
	case sameFamily(v.Kind(), fv.Kind()) && v.Type().ConvertibleTo(fv.Type()):
		if familyOf(v.Kind()) == numberFamily && !fitsNumber(v, fv.Type()) {
			return fmt.Errorf("value %v does not fit %s", value, fv.Type())
		}
		fv.Set(v.Convert(fv.Type()))
		return nil
	}
	return field.ScanWithCheck(fv, value)
}

type kindFamily int

const (
	otherFamily kindFamily = iota
	numberFamily
	stringFamily
	boolFamily
)

func familyOf(kind reflect.Kind) kindFamily {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return numberFamily
	case reflect.String:
		return stringFamily
	case reflect.Bool:
		return boolFamily
	}
	return otherFamily
}

// sameFamily limits reflect conversions to kinds of one family; int to
// string would otherwise produce a rune.
func sameFamily(a, b reflect.Kind) bool {
	fa := familyOf(a)
	return fa != otherFamily && fa == familyOf(b)
}

// fitsNumber reports whether converting v to typ keeps its value. Fractional
// floats do not fit integers, and out of range values fit nothing.
func fitsNumber(v reflect.Value, typ reflect.Type) bool {
	target := reflect.New(typ).Elem()
	switch {
	case isSigned(typ.Kind()):
		switch {
		case isSigned(v.Kind()):
			return !target.OverflowInt(v.Int())
		case isUnsigned(v.Kind()):
			return v.Uint() <= math.MaxInt64 && !target.OverflowInt(int64(v.Uint()))
		}
		f := v.Float()
		return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !target.OverflowInt(int64(f))
	case isUnsigned(typ.Kind()):
		switch {
		case isSigned(v.Kind()):
			return v.Int() >= 0 && !target.OverflowUint(uint64(v.Int()))
		case isUnsigned(v.Kind()):
			return !target.OverflowUint(v.Uint())
		}
		f := v.Float()
		return f >= 0 && f == math.Trunc(f) && f < math.MaxUint64 && !target.OverflowUint(uint64(f))
	case typ.Kind() == reflect.Float32 && (v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64):
		return !target.OverflowFloat(v.Float())
	}
	return true
}

func isSigned(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(kind reflect.Kind) bool {
	switch kind {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
