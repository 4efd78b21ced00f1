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

package listener

import (
	"bytes"
	"encoding/json"
	"reflect"
	"regexp"

	"github.com/pkg/errors"

	"github.com/crossplane/model-seeder/pkg/reconciler/seed"
	"github.com/crossplane/model-seeder/pkg/resource"
)

// Error strings.
const (
	errEncodeEntity = "cannot encode entity for substitution"
	errDecodeEntity = "cannot decode substituted entity"
)

var variable = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*\}`)

// A Substitution listener expands ${VAR} references in the string values of
// entities. Unknown variables and any other dollar signs are left as they are.
type Substitution struct {
	seed.NopListener
	vars map[string]string
}

// NewSubstitution returns a Listener that expands the supplied variables.
func NewSubstitution(vars map[string]string) *Substitution {
	return &Substitution{vars: vars}
}

// Subst returns a copy of the entity with variables expanded.
func (s *Substitution) Subst(e resource.Entity) (resource.Entity, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errEncodeEntity)
	}
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil {
		return nil, errors.Wrap(err, errEncodeEntity)
	}
	if data, err = json.Marshal(s.expand(v)); err != nil {
		return nil, errors.Wrap(err, errEncodeEntity)
	}

	out := blank(e)
	return out, errors.Wrap(json.Unmarshal(data, out), errDecodeEntity)
}

// JSONSubst returns the raw JSON with variables expanded.
func (s *Substitution) JSONSubst(raw map[string]any) (map[string]any, error) {
	m, _ := s.expand(raw).(map[string]any)
	return m, nil
}

func (s *Substitution) expand(v any) any {
	switch t := v.(type) {
	case string:
		return variable.ReplaceAllStringFunc(t, s.lookup)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = s.expand(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = s.expand(e)
		}
		return out
	}
	return v
}

// lookup returns the value of a ${VAR} reference, or the reference itself if
// the variable is unknown.
func (s *Substitution) lookup(ref string) string {
	if v, ok := s.vars[ref[2:len(ref)-1]]; ok {
		return v
	}
	return ref
}

// blank returns an entity of the same type as e to decode into. Entities
// that can copy themselves keep whatever JSON does not carry, like their
// children.
func blank(e resource.Entity) resource.Entity {
	if c, ok := e.(resource.Copier); ok {
		return c.DeepCopyEntity()
	}
	t := reflect.TypeOf(e)
	if t.Kind() == reflect.Ptr {
		return reflect.New(t.Elem()).Interface().(resource.Entity)
	}
	return reflect.New(t).Interface().(resource.Entity)
}

var _ seed.Listener = &Substitution{}
