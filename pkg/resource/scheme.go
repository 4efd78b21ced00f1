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
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/sets"
)

// A Kind describes one domain entity type.
type Kind struct {
	// Name is the simple name of the type, e.g. "users".
	Name string

	// Class is the qualified name of the type, e.g. "example.users". A class
	// without a package is equal to its name.
	Class string

	// New returns an empty entity of this kind.
	New func() Entity

	// UpdateExcluded fields don't count as data when deciding whether an
	// existing entity should be updated.
	UpdateExcluded sets.Set[string]

	// Identity fields are additionally ignored in strict mode.
	Identity sets.Set[string]
}

// Package returns the package part of the kind's class, if any.
func (k Kind) Package() string {
	if i := strings.LastIndex(k.Class, "."); i >= 0 {
		return k.Class[:i]
	}
	return ""
}

// Decode a JSON object into a new entity of this kind.
func (k Kind) Decode(data []byte) (Entity, error) {
	e := k.New()
	if err := json.Unmarshal(data, e); err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s", k.Name)
	}
	return e, nil
}

// FromMap decodes a generic JSON object into a new entity of this kind.
func (k Kind) FromMap(m map[string]any) (Entity, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot encode %s", k.Name)
	}
	return k.Decode(data)
}

// A FallbackFn returns the kind used for classes that were never registered.
type FallbackFn func(name string) Kind

// A SchemeOption configures a Scheme.
type SchemeOption func(*Scheme)

// WithFallback sets the kind used for unregistered classes.
func WithFallback(fn FallbackFn) SchemeOption {
	return func(s *Scheme) {
		s.fallback = fn
	}
}

// WithKinds registers the supplied kinds.
func WithKinds(k ...Kind) SchemeOption {
	return func(s *Scheme) {
		for _, kind := range k {
			s.kinds[kind.Class] = kind
		}
	}
}

// A Scheme maps qualified class names to kinds.
type Scheme struct {
	mu       sync.RWMutex
	kinds    map[string]Kind
	fallback FallbackFn
}

// NewScheme returns a new Scheme.
func NewScheme(o ...SchemeOption) *Scheme {
	s := &Scheme{kinds: make(map[string]Kind)}
	for _, fn := range o {
		fn(s)
	}
	return s
}

// Register a kind under its class. A kind without a class is registered under
// its name.
func (s *Scheme) Register(k Kind) {
	if k.Class == "" {
		k.Class = k.Name
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds[k.Class] = k
}

// KindFor returns the kind of the supplied class. An empty class is looked up
// by the supplied type name. Unknown classes resolve to the fallback kind,
// named after the last segment of the class.
func (s *Scheme) KindFor(class, typ string) (Kind, error) {
	if class == "" {
		class = typ
	}
	s.mu.RLock()
	k, ok := s.kinds[class]
	s.mu.RUnlock()
	if ok {
		return k, nil
	}
	if s.fallback == nil {
		return Kind{}, errors.Errorf("no kind registered for class %q", class)
	}
	name := class
	if i := strings.LastIndex(class, "."); i >= 0 {
		name = class[i+1:]
	}
	k = s.fallback(name)
	k.Class = class
	return k, nil
}

// ChildClass derives the class of a child type declared by a parent of the
// supplied kind, i.e. the child type in the parent's package.
func ChildClass(parent Kind, childType string) string {
	if p := parent.Package(); p != "" {
		return p + "." + childType
	}
	return childType
}
