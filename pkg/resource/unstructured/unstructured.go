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

// Package unstructured contains an entity backed by a generic JSON object. It
// is used for every entity type that has no registered Go type.
package unstructured

import (
	"bytes"
	"encoding/json"
	"strings"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	kunstructured "k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/crossplane/model-seeder/pkg/resource"
)

// An Option modifies an unstructured entity.
type Option func(u *Unstructured)

// WithObject sets the fields of the unstructured entity.
func WithObject(o map[string]any) Option {
	return func(u *Unstructured) {
		u.Object = o
	}
}

// WithChildren sets the children of the unstructured entity.
func WithChildren(c resource.Children) Option {
	return func(u *Unstructured) {
		u.children = c
	}
}

// New returns a new unstructured entity of the supplied kind.
func New(kind string, opts ...Option) *Unstructured {
	u := &Unstructured{kind: kind, Object: make(map[string]any)}
	for _, f := range opts {
		f(u)
	}
	return u
}

// KindFor returns the resource.Kind of unstructured entities with the supplied
// name.
func KindFor(name string) resource.Kind {
	return resource.Kind{
		Name:           name,
		Class:          name,
		New:            func() resource.Entity { return New(name) },
		UpdateExcluded: sets.New(resource.FieldID),
		Identity:       sets.New(resource.FieldID, resource.FieldUUID, resource.FieldName),
	}
}

// An Unstructured entity. Its children are kept apart from its fields and are
// never serialized with it.
type Unstructured struct {
	kind     string
	Object   map[string]any
	children resource.Children
}

// GetKind returns the kind of this entity.
func (u *Unstructured) GetKind() string {
	return u.kind
}

// GetField returns the named field. Dotted names address nested fields.
func (u *Unstructured) GetField(name string) (any, bool) {
	v, ok, err := kunstructured.NestedFieldNoCopy(u.Object, strings.Split(name, ".")...)
	if err != nil || !ok || v == nil {
		return nil, false
	}
	return v, true
}

// SetField sets the named field. Dotted names address nested fields.
func (u *Unstructured) SetField(name string, value any) error {
	if u.Object == nil {
		u.Object = make(map[string]any)
	}
	v, err := normalize(value)
	if err != nil {
		return errors.Wrapf(err, "cannot set field %q", name)
	}
	return errors.Wrapf(kunstructured.SetNestedField(u.Object, v, strings.Split(name, ".")...), "cannot set field %q", name)
}

// GetChildren of this entity.
func (u *Unstructured) GetChildren() resource.Children {
	return u.children
}

// SetChildren of this entity.
func (u *Unstructured) SetChildren(c resource.Children) {
	u.children = c
}

// DeepCopyEntity returns a deep copy of this entity.
func (u *Unstructured) DeepCopyEntity() resource.Entity {
	out := &Unstructured{kind: u.kind}
	if u.Object != nil {
		out.Object = runtime.DeepCopyJSON(u.Object)
	}
	if u.children != nil {
		out.children = make(resource.Children, len(u.children))
		for t, c := range u.children {
			out.children[t] = append([]json.RawMessage(nil), c...)
		}
	}
	return out
}

// MergeFrom merges the fields of src onto this entity.
func (u *Unstructured) MergeFrom(src resource.Entity) error {
	s, ok := src.(*Unstructured)
	if !ok {
		data, err := json.Marshal(src)
		if err != nil {
			return errors.Wrap(err, "cannot encode merge source")
		}
		s = New(u.kind)
		if err := json.Unmarshal(data, s); err != nil {
			return errors.Wrap(err, "cannot decode merge source")
		}
	}
	if u.Object == nil {
		u.Object = make(map[string]any)
	}
	return errors.Wrap(mergo.Merge(&u.Object, runtime.DeepCopyJSON(s.Object), mergo.WithOverride), "cannot merge entity")
}

// MarshalJSON encodes the fields of this entity.
func (u *Unstructured) MarshalJSON() ([]byte, error) {
	if u.Object == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(u.Object)
}

// UnmarshalJSON replaces the fields of this entity. A children member, if
// present, replaces the entity's children.
func (u *Unstructured) UnmarshalJSON(data []byte) error {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	o := map[string]any{}
	if err := d.Decode(&o); err != nil {
		return errors.Wrap(err, "cannot decode unstructured entity")
	}
	if c, ok := o[resource.FieldChildren]; ok {
		delete(o, resource.FieldChildren)
		children, err := decodeChildren(c)
		if err != nil {
			return err
		}
		u.children = children
	}
	u.Object = o
	return nil
}

func decodeChildren(v any) (resource.Children, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode children")
	}
	c := resource.Children{}
	return c, errors.Wrap(json.Unmarshal(data, &c), "cannot decode children")
}

// normalize converts v into a value that can be stored in a JSON object.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int64, float64, json.Number:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case float32:
		return float64(t), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	var out any
	if err := d.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

var (
	_ resource.Parent = &Unstructured{}
	_ resource.Copier = &Unstructured{}
	_ resource.Merger = &Unstructured{}
)
