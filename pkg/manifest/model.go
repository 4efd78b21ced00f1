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

// Package manifest resolves manifests and the models they name.
//
// A manifest is a JSON (or YAML) array of model names. Each model is either a
// JSON array of entity objects, or itself a manifest. Models are kept in the
// order the manifest declares them.
package manifest

import (
	"path"
	"strings"
)

// TagManifest is the type tag of models that are nested manifests.
const TagManifest = "manifest"

// A Model maps model names to their JSON, in declaration order.
type Model struct {
	names []string
	data  map[string][]byte
}

// NewModel returns an empty Model.
func NewModel() *Model {
	return &Model{data: make(map[string][]byte)}
}

// Set the JSON of the named model. Setting a name that is already present
// replaces its JSON but keeps its position.
func (m *Model) Set(name string, json []byte) {
	if _, ok := m.data[name]; !ok {
		m.names = append(m.names, name)
	}
	m.data[name] = json
}

// Get the JSON of the named model.
func (m *Model) Get(name string) ([]byte, bool) {
	d, ok := m.data[name]
	return d, ok
}

// Has returns true if the named model is present.
func (m *Model) Has(name string) bool {
	_, ok := m.data[name]
	return ok
}

// Names returns model names in declaration order.
func (m *Model) Names() []string {
	return append([]string(nil), m.names...)
}

// Len returns the number of models.
func (m *Model) Len() int { return len(m.names) }

// TypeTag derives the entity type tag from a model name by stripping any
// directory and cutting at the first underscore or dot, so that
// "dir/users_admin.json" has the tag "users".
func TypeTag(name string) string {
	base := path.Base(name)
	if i := strings.IndexAny(base, "_."); i >= 0 {
		return base[:i]
	}
	return base
}

// trimExt removes a known model file extension.
func trimExt(name string) string {
	for _, ext := range extensions {
		if ext != "" && strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
