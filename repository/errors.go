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
	"errors"
	"fmt"
)

var (
	// ErrModelNotExist reports a model name unknown to the registry.
	ErrModelNotExist = errors.New("model does not exist")
	// ErrInvalidModel reports a type Bun cannot treat as a model with a
	// single primary key.
	ErrInvalidModel = errors.New("invalid model")
	// ErrModelNotFound reports a missing row for an id based operation.
	ErrModelNotFound = errors.New("model not found")
	// ErrUnknownRelation reports an eager load naming no relation of the model.
	ErrUnknownRelation = errors.New("unknown relation")
)

// RepositoryError carries the model a failure relates to. It unwraps to one
// of the sentinel errors above.
type RepositoryError struct {
	Model string
	Err   error
	msg   string
}

func (e *RepositoryError) Error() string {
	return e.msg
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

func modelNotExistError(name string) error {
	return &RepositoryError{
		Model: name,
		Err:   ErrModelNotExist,
		msg:   fmt.Sprintf("model %s does not exist", name),
	}
}

func invalidModelError(name, reason string) error {
	return &RepositoryError{
		Model: name,
		Err:   ErrInvalidModel,
		msg:   fmt.Sprintf("model %s must be a struct with a single primary key: %s", name, reason),
	}
}

func modelNotFoundError(name string, id interface{}) error {
	return &RepositoryError{
		Model: name,
		Err:   ErrModelNotFound,
		msg:   fmt.Sprintf("model %s not found: id=%v", name, id),
	}
}

func unknownRelationError(name, relation string) error {
	return &RepositoryError{
		Model: name,
		Err:   ErrUnknownRelation,
		msg:   fmt.Sprintf("model %s has no relation %q", name, relation),
	}
}
