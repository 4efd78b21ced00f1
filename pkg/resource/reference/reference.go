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

// Package reference contains references from an entity to its ancestors.
package reference

import "strings"

// ReferencedTypeParent asks for the referenced type to be derived from the
// referencing field's own name.
const ReferencedTypeParent = "PARENT"

// DefaultReferencedField is the ancestor field used when none is named.
const DefaultReferencedField = "id"

// A ParentField is a reference from a field of a child entity to a field of
// one of its ancestors.
type ParentField struct {
	// Field of the child that receives the ancestor's value.
	Field string `json:"field"`

	// ReferencedType is the simple type name of the ancestor.
	ReferencedType string `json:"referencedType,omitempty"`

	// ReferencedField of the ancestor whose value is copied.
	ReferencedField string `json:"referencedField,omitempty"`
}

// TypeName returns the simple type name of the referenced ancestor.
func (p *ParentField) TypeName() string {
	if p.ReferencedType == "" || p.ReferencedType == ReferencedTypeParent {
		return p.Field
	}
	return p.ReferencedType
}

// FieldName returns the referenced field of the ancestor.
func (p *ParentField) FieldName() string {
	if p.ReferencedField == "" {
		return DefaultReferencedField
	}
	return p.ReferencedField
}

// Matches returns true if the supplied type name is the referenced type.
// Type names are compared case insensitively.
func (p *ParentField) Matches(typeName string) bool {
	return strings.EqualFold(p.TypeName(), typeName)
}
