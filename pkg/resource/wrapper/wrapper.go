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

// Package wrapper contains the wrapper that carries one entity from a model
// file through reconciliation.
package wrapper

import (
	"encoding/json"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/crossplane/model-seeder/pkg/resource"
)

// Directives that may appear in a model entity. They steer reconciliation and
// are never sent to the remote API.
const (
	DirectiveUpdate    = "_update"
	DirectiveSubst     = "_subst"
	DirectiveJSONSubst = "_jsonSubst"
)

const (
	errDirectiveFmt = "directive %s must be a boolean"
	errDecode       = "cannot decode entity"
	errChildren     = "cannot decode children"
	errJSONSubst    = "cannot substitute variables in entity JSON"
)

// A JSONSubstFn transforms the raw JSON of an entity before it is decoded.
type JSONSubstFn func(raw map[string]any) (map[string]any, error)

// An Option configures a Wrapper.
type Option func(*options)

type options struct {
	jsonSubst JSONSubstFn
}

// WithJSONSubst sets the function applied to the raw JSON of entities that
// ask for JSON substitution.
func WithJSONSubst(fn JSONSubstFn) Option {
	return func(o *options) {
		o.jsonSubst = fn
	}
}

// A Wrapper pairs an entity with the raw JSON it was declared with. It
// satisfies resource.Parent by delegating to the entity.
type Wrapper struct {
	kind   resource.Kind
	raw    map[string]any
	entity resource.Entity

	children    resource.Children
	forceUpdate bool
	subst       bool
	jsonSubst   bool
}

// New returns a Wrapper for the supplied raw JSON object, decoded as the
// supplied kind. Directives are stripped from the raw JSON.
func New(k resource.Kind, raw map[string]any, opts ...Option) (*Wrapper, error) {
	o := &options{}
	for _, fn := range opts {
		fn(o)
	}

	raw = runtime.DeepCopyJSON(raw)
	w := &Wrapper{kind: k}

	var err error
	if w.forceUpdate, err = pop(raw, DirectiveUpdate); err != nil {
		return nil, err
	}
	if w.subst, err = pop(raw, DirectiveSubst); err != nil {
		return nil, err
	}
	if w.jsonSubst, err = pop(raw, DirectiveJSONSubst); err != nil {
		return nil, err
	}

	if w.jsonSubst && o.jsonSubst != nil {
		if raw, err = o.jsonSubst(raw); err != nil {
			return nil, errors.Wrap(err, errJSONSubst)
		}
	}
	w.raw = raw

	e, err := k.FromMap(w.Fields())
	if err != nil {
		return nil, errors.Wrap(err, errDecode)
	}
	if c, ok := raw[resource.FieldChildren]; ok {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, errors.Wrap(err, errChildren)
		}
		w.children = resource.Children{}
		if err := json.Unmarshal(data, &w.children); err != nil {
			return nil, errors.Wrap(err, errChildren)
		}
		if p, ok := e.(resource.Parent); ok {
			p.SetChildren(w.children)
		}
	}
	w.entity = e
	return w, nil
}

func pop(raw map[string]any, directive string) (bool, error) {
	v, ok := raw[directive]
	if !ok {
		return false, nil
	}
	delete(raw, directive)
	switch t := v.(type) {
	case bool:
		return t, nil
	case nil:
		return false, nil
	}
	return false, errors.Errorf(errDirectiveFmt, directive)
}

// Kind returns the kind of the wrapped entity.
func (w *Wrapper) Kind() resource.Kind { return w.kind }

// Raw returns the raw JSON the entity was declared with, minus directives.
func (w *Wrapper) Raw() map[string]any { return w.raw }

// Fields returns the raw JSON fields of the entity, without its children.
func (w *Wrapper) Fields() map[string]any {
	out := make(map[string]any, len(w.raw))
	for k, v := range w.raw {
		if k != resource.FieldChildren {
			out[k] = v
		}
	}
	return out
}

// Entity returns the wrapped entity.
func (w *Wrapper) Entity() resource.Entity { return w.entity }

// SetEntity replaces the wrapped entity.
func (w *Wrapper) SetEntity(e resource.Entity) { w.entity = e }

// ForceUpdate returns true if an existing entity must be updated even when
// updates are disabled.
func (w *Wrapper) ForceUpdate() bool { return w.forceUpdate }

// PerformSubstitutions returns true if the entity asks for variable
// substitution before it is sent.
func (w *Wrapper) PerformSubstitutions() bool { return w.subst }

// PerformJSONSubstitutions returns true if the entity asked for variable
// substitution in its raw JSON.
func (w *Wrapper) PerformJSONSubstitutions() bool { return w.jsonSubst }

// HasData returns true if the entity declares any field beyond those that
// merely identify it. Children never count as data. In strict mode identity
// fields are ignored too.
func (w *Wrapper) HasData(strict bool) bool {
	for k := range w.raw {
		if k == resource.FieldChildren {
			continue
		}
		if w.kind.UpdateExcluded.Has(k) {
			continue
		}
		if strict && w.kind.Identity.Has(k) {
			continue
		}
		return true
	}
	return false
}

// HasChildren returns true if the entity declares children.
func (w *Wrapper) HasChildren() bool {
	for _, c := range w.children {
		if len(c) > 0 {
			return true
		}
	}
	return false
}

// GetKind of the wrapped entity.
func (w *Wrapper) GetKind() string { return w.entity.GetKind() }

// GetField of the wrapped entity.
func (w *Wrapper) GetField(name string) (any, bool) { return w.entity.GetField(name) }

// SetField of the wrapped entity.
func (w *Wrapper) SetField(name string, value any) error { return w.entity.SetField(name, value) }

// GetChildren returns the children the entity was declared with.
func (w *Wrapper) GetChildren() resource.Children { return w.children }

// SetChildren of the wrapper and, if it can carry them, the wrapped entity.
func (w *Wrapper) SetChildren(c resource.Children) {
	w.children = c
	if p, ok := w.entity.(resource.Parent); ok {
		p.SetChildren(c)
	}
}

// MarshalJSON encodes the wrapped entity.
func (w *Wrapper) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.entity)
}

var _ resource.Parent = &Wrapper{}
