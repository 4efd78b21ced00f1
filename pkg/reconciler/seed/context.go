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

package seed

import "github.com/crossplane/model-seeder/pkg/resource"

// A Context holds the resolved ancestors of an entity, keyed by simple type
// name, from the root down. Contexts are values; With returns a new one.
type Context struct {
	entries []entry
}

type entry struct {
	kind   string
	entity resource.Entity
}

// With returns a copy of the Context with the supplied entity appended. An
// earlier entity of the same kind is replaced.
func (c Context) With(kind string, e resource.Entity) Context {
	out := make([]entry, 0, len(c.entries)+1)
	for _, en := range c.entries {
		if en.kind != kind {
			out = append(out, en)
		}
	}
	return Context{entries: append(out, entry{kind: kind, entity: e})}
}

// Get the entity of the supplied kind.
func (c Context) Get(kind string) (resource.Entity, bool) {
	for _, en := range c.entries {
		if en.kind == kind {
			return en.entity, true
		}
	}
	return nil, false
}

// Kinds returns the kinds held, from the root down.
func (c Context) Kinds() []string {
	out := make([]string, len(c.entries))
	for i, en := range c.entries {
		out[i] = en.kind
	}
	return out
}

// Len returns the number of entities held.
func (c Context) Len() int { return len(c.entries) }

// Nearest returns the closest ancestor the supplied function matches.
func (c Context) Nearest(match func(kind string, e resource.Entity) bool) (resource.Entity, bool) {
	for i := len(c.entries) - 1; i >= 0; i-- {
		if match(c.entries[i].kind, c.entries[i].entity) {
			return c.entries[i].entity, true
		}
	}
	return nil, false
}
