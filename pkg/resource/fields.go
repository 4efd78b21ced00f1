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

package resource

import (
	"sort"

	"github.com/pkg/errors"
)

// A Field accesses one field of a typed entity T.
type Field[T any] struct {
	Get func(e *T) any
	Set func(e *T, v any) error
}

// Fields is a table of the accessible fields of a typed entity, keyed by the
// JSON name of each field. Typed entities implement GetField and SetField by
// delegating to their table.
type Fields[T any] map[string]Field[T]

// Get the named field of e.
func (f Fields[T]) Get(e *T, name string) (any, bool) {
	fd, ok := f[name]
	if !ok || fd.Get == nil {
		return nil, false
	}
	v := fd.Get(e)
	if v == nil {
		return nil, false
	}
	return v, true
}

// Set the named field of e.
func (f Fields[T]) Set(e *T, name string, v any) error {
	fd, ok := f[name]
	if !ok || fd.Set == nil {
		return errors.Errorf("field %q cannot be set", name)
	}
	return fd.Set(e, v)
}

// Names returns the sorted field names.
func (f Fields[T]) Names() []string {
	out := make([]string, 0, len(f))
	for n := range f {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// StringField returns a Field for a string member of T. Unset (empty) values
// read as absent.
func StringField[T any](ptr func(e *T) *string) Field[T] {
	return Field[T]{
		Get: func(e *T) any {
			if s := *ptr(e); s != "" {
				return s
			}
			return nil
		},
		Set: func(e *T, v any) error {
			s, ok := FormatValue(v)
			if !ok {
				return errors.Errorf("cannot use %T as string", v)
			}
			*ptr(e) = s
			return nil
		},
	}
}
