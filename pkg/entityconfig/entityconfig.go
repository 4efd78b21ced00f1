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

// Package entityconfig contains the entity type configuration served by the
// remote API. A TypeConfig tells the seeder where entities of one type live,
// how to create and update them, and which children they may declare.
package entityconfig

import (
	"net/http"
	"strings"

	"github.com/crossplane/model-seeder/pkg/resource/reference"
)

// NotSupported marks an operation a type does not support.
const NotSupported = "NOT_SUPPORTED"

// Default methods.
const (
	DefaultCreateMethod = http.MethodPost
	DefaultUpdateMethod = http.MethodPut
)

// A TypeConfig describes one entity type of the remote API.
type TypeConfig struct {
	// Type is the type tag, e.g. "users".
	Type string `json:"type"`

	// EntityClass is the qualified name of the domain type, e.g.
	// "example.User".
	EntityClass string `json:"entityClass,omitempty"`

	// UpdateURI addresses a single existing entity. It is used both to look
	// an entity up and to update it.
	UpdateURI string `json:"updateUri,omitempty"`

	// CreateURI is where new entities are sent.
	CreateURI string `json:"createUri,omitempty"`

	CreateMethod string `json:"createMethod,omitempty"`
	UpdateMethod string `json:"updateMethod,omitempty"`

	// ParentField links entities of this type to an ancestor.
	ParentField *reference.ParentField `json:"parentField,omitempty"`

	// Children are the child types an entity of this type may declare,
	// keyed by child type name.
	Children map[string]*TypeConfig `json:"children,omitempty"`
}

// GetType returns the type tag.
func (c *TypeConfig) GetType() string { return c.Type }

// GetEntityClass returns the qualified name of the domain type.
func (c *TypeConfig) GetEntityClass() string { return c.EntityClass }

// GetCreateURI returns the create URI template.
func (c *TypeConfig) GetCreateURI() string { return c.CreateURI }

// GetUpdateURI returns the update URI template.
func (c *TypeConfig) GetUpdateURI() string { return c.UpdateURI }

// GetCreateMethod returns the HTTP method used to create entities.
func (c *TypeConfig) GetCreateMethod() string {
	if c.CreateMethod == "" {
		return DefaultCreateMethod
	}
	return strings.ToUpper(c.CreateMethod)
}

// GetUpdateMethod returns the HTTP method used to update entities.
func (c *TypeConfig) GetUpdateMethod() string {
	if c.UpdateMethod == "" {
		return DefaultUpdateMethod
	}
	return strings.ToUpper(c.UpdateMethod)
}

// GetParentField returns the parent reference, if any.
func (c *TypeConfig) GetParentField() *reference.ParentField { return c.ParentField }

// GetChildren returns the declared child types.
func (c *TypeConfig) GetChildren() map[string]*TypeConfig { return c.Children }

// GetChild returns the configuration of the named child type.
func (c *TypeConfig) GetChild(typ string) (*TypeConfig, bool) {
	cc, ok := c.Children[typ]
	if !ok || cc == nil {
		return nil, false
	}
	if cc.Type == "" {
		named := *cc
		named.Type = typ
		return &named, true
	}
	return cc, true
}

// SupportsChildren returns true if any child type is declared.
func (c *TypeConfig) SupportsChildren() bool { return len(c.Children) > 0 }

// UpdateSupported returns true if entities of this type can be looked up and
// updated.
func (c *TypeConfig) UpdateSupported() bool {
	return c.UpdateURI != "" && c.UpdateURI != NotSupported
}
