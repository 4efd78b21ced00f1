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

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/crossplane/model-seeder/pkg/resource"
)

const errUnresolvedFmt = "cannot resolve %s in URI template %q"

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// ResolveTemplate resolves the placeholders of a URI template. Placeholders of
// the form {type.field} are read from the entity of that type in the supplied
// Context, then placeholders of the form {field} are read from the supplied
// entity. An unresolved {uuid} falls back to the entity's name field. Values
// are path escaped. The result always starts with a slash.
//
// It returns ErrNoID if {uuid} cannot be resolved, and a ConfigError if any
// other placeholder cannot be resolved.
func ResolveTemplate(tmpl string, ctx Context, e resource.Entity) (string, error) {
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		kind, field, ok := strings.Cut(m[1:len(m)-1], ".")
		if !ok {
			return m
		}
		p, ok := ctx.Get(kind)
		if !ok {
			return m
		}
		if s, ok := fieldValue(p, field); ok {
			return url.PathEscape(s)
		}
		return m
	})

	if e != nil {
		out = placeholder.ReplaceAllStringFunc(out, func(m string) string {
			name := m[1 : len(m)-1]
			if s, ok := fieldValue(e, name); ok {
				return url.PathEscape(s)
			}
			if name != resource.FieldUUID {
				return m
			}
			if s, ok := fieldValue(e, resource.FieldName); ok {
				return url.PathEscape(s)
			}
			return m
		})
	}

	if strings.Contains(out, "{"+resource.FieldUUID+"}") {
		return "", ErrNoID
	}
	if m := placeholder.FindString(out); m != "" {
		return "", newConfigError(errUnresolvedFmt, m, tmpl)
	}
	if !strings.HasPrefix(out, "/") {
		out = "/" + out
	}
	return out, nil
}

func fieldValue(e resource.Entity, name string) (string, bool) {
	v, ok := e.GetField(name)
	if !ok || v == nil {
		return "", false
	}
	if s, ok := resource.FormatValue(v); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}
