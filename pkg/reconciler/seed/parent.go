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
	"github.com/pkg/errors"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/resource"
)

const (
	errNoParentFmt      = "no ancestor of type %s found for parent field %s of type %s"
	errNoParentValueFmt = "ancestor of type %s has no field %s for parent field %s of type %s"
	errSetParentFmt     = "cannot set parent field %s of type %s"
)

// setParentFields copies the referenced field of the nearest matching
// ancestor onto the entity's parent field, if its type declares one.
func setParentFields(cfg *entityconfig.TypeConfig, e resource.Entity, ctx Context) error {
	pf := cfg.GetParentField()
	if pf == nil || pf.Field == "" {
		return nil
	}

	p, ok := ctx.Nearest(func(kind string, a resource.Entity) bool {
		return pf.Matches(kind) || pf.Matches(a.GetKind())
	})
	if !ok {
		return newConfigError(errNoParentFmt, pf.TypeName(), pf.Field, cfg.GetType())
	}
	v, ok := p.GetField(pf.FieldName())
	if !ok {
		return newConfigError(errNoParentValueFmt, pf.TypeName(), pf.FieldName(), pf.Field, cfg.GetType())
	}
	return errors.Wrapf(e.SetField(pf.Field, v), errSetParentFmt, pf.Field, cfg.GetType())
}
