/*
Copyright 2026 The Crossplane Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package resource contains the domain entity abstractions the seeder reads
// from model files and writes to a remote service.
package resource

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"dario.cat/mergo"
	"github.com/pkg/errors"
)

// FieldChildren is the JSON key under which an entity carries the model data
// of its children, keyed by child type.
const FieldChildren = "children"

// Fields used to identify an entity.
const (
	FieldID   = "id"
	FieldUUID = "uuid"
	FieldName = "name"
)

// An Entity is a domain object the seeder can create, look up and update.
type Entity interface {
	// GetKind returns the simple name of the entity's type.
	GetKind() string

	// GetField returns the value of the named field, and whether it is set.
	GetField(name string) (any, bool)

	// SetField sets the named field.
	SetField(name string, value any) error
}

// Children of an entity, keyed by child type. Each child is kept as the raw
// JSON it was declared with so it can be decoded once its type is known.
type Children map[string][]json.RawMessage

// A Parent is an entity that may carry children.
type Parent interface {
	Entity

	GetChildren() Children
	SetChildren(c Children)
}

// A Copier can produce a deep copy of itself.
type Copier interface {
	DeepCopyEntity() Entity
}

// DeepCopy returns a deep copy of the supplied entity. Entities that are not
// Copiers are copied through their JSON encoding.
func DeepCopy(e Entity) (Entity, error) {
	if c, ok := e.(Copier); ok {
		return c.DeepCopyEntity(), nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode entity to copy")
	}
	t := reflect.TypeOf(e)
	ptr := t.Kind() == reflect.Ptr
	if ptr {
		t = t.Elem()
	}
	v := reflect.New(t)
	if err := json.Unmarshal(data, v.Interface()); err != nil {
		return nil, errors.Wrap(err, "cannot decode entity copy")
	}
	if ptr {
		return v.Interface().(Entity), nil
	}
	return v.Elem().Interface().(Entity), nil
}

// A Merger merges the set fields of another entity onto itself.
type Merger interface {
	MergeFrom(src Entity) error
}

// Merge the set fields of src onto dst. Fields that are unset in src leave
// dst untouched.
func Merge(dst, src Entity) error {
	if m, ok := dst.(Merger); ok {
		return m.MergeFrom(src)
	}
	return errors.Wrap(mergo.Merge(dst, src, mergo.WithOverride), "cannot merge entity")
}

// IDOf returns the identifier of the supplied entity, preferring its id field
// and falling back to its uuid field.
func IDOf(e Entity) (string, bool) {
	for _, f := range []string{FieldID, FieldUUID} {
		v, ok := e.GetField(f)
		if !ok {
			continue
		}
		if s, ok := FormatValue(v); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// FormatValue renders a scalar field value as a string. It returns false for
// nil and for values that are not scalars.
func FormatValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t), true
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}
