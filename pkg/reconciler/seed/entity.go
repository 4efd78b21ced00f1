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
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/pkg/errors"

	"github.com/crossplane/model-seeder/pkg/cache"
	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/external/rest"
	"github.com/crossplane/model-seeder/pkg/logging"
	"github.com/crossplane/model-seeder/pkg/resource"
	"github.com/crossplane/model-seeder/pkg/resource/wrapper"
)

// Error strings.
const (
	errLookupURIFmt          = "cannot resolve lookup URI of type %s"
	errLookupFmt             = "cannot look up entity of type %s at %s"
	errUnexpectedStatusFmt   = "unexpected status %d looking up entity of type %s at %s"
	errDecodeExistingFmt     = "cannot decode existing entity of type %s"
	errMergeFmt              = "cannot merge entity of type %s onto existing entity"
	errSubstFmt              = "cannot substitute variables in entity of type %s"
	errNoCreateURIFmt        = "type %s has no create URI"
	errCreateURIFmt          = "cannot resolve create URI of type %s"
	errUpdateURIFmt          = "cannot resolve update URI of type %s"
	errMethodFmt             = "unsupported method %s for type %s"
	errCreateFmt             = "cannot create entity of type %s"
	errCreateWithChildrenFmt = "cannot create entity of type %s that declares children"
	errRecheckFmt            = "cannot create entity of type %s, and cannot check whether it exists: %v"
	errUpdateFmt             = "cannot update entity of type %s at %s"
	errDecodeResponseFmt     = "cannot decode response for entity of type %s"
	errChildrenFmt           = "cannot set up children of entity of type %s"
	errRememberFmt           = "cannot cache entity of type %s"
)

// createEntity reconciles one entity and then its children. It returns the
// entity as it is known to the remote API, or nil if reconciliation stops at
// this entity.
func (r *Reconciler) createEntity(ctx context.Context, c rest.Client, cfg *entityconfig.TypeConfig, w *wrapper.Wrapper, ectx Context) (resource.Entity, error) {
	log := r.log.WithValues("type", cfg.GetType())

	resolved, err := r.resolve(ctx, c, cfg, w, ectx, log)
	if err != nil || resolved == nil {
		return nil, err
	}

	if !w.HasChildren() {
		return resolved, errors.Wrapf(r.remember(c, resolved), errRememberFmt, cfg.GetType())
	}
	p, ok := resolved.(resource.Parent)
	if !ok {
		log.Info("Entity declares children but its kind cannot carry them", "kind", resolved.GetKind())
		return resolved, errors.Wrapf(r.remember(c, resolved), errRememberFmt, cfg.GetType())
	}
	p.SetChildren(w.GetChildren())
	if err := r.remember(c, resolved); err != nil {
		return nil, errors.Wrapf(err, errRememberFmt, cfg.GetType())
	}

	r.record(cfg, DecisionChildren)
	if err := r.createChildren(ctx, c, cfg, w.Kind(), p, ectx.With(resolved.GetKind(), resolved), log); err != nil {
		return nil, errors.Wrapf(err, errChildrenFmt, cfg.GetType())
	}
	return resolved, nil
}

func (r *Reconciler) remember(c rest.Client, e resource.Entity) error {
	if k, ok := cache.KeyFor(c.Endpoint(), e); ok {
		return r.cache.Add(k, e)
	}
	return nil
}

func (r *Reconciler) resolve(ctx context.Context, c rest.Client, cfg *entityconfig.TypeConfig, w *wrapper.Wrapper, ectx Context, log logging.Logger) (resource.Entity, error) {
	if !cfg.UpdateSupported() {
		log.Debug("Type cannot be looked up")
		r.record(cfg, DecisionNoUpdateURI)
		return r.create(ctx, c, cfg, w, ectx, log)
	}

	uri, err := ResolveTemplate(cfg.GetUpdateURI(), ectx, w)
	if IsNoID(err) {
		log.Debug("Entity has no identifier", "template", cfg.GetUpdateURI())
		return r.create(ctx, c, cfg, w, ectx, log)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errLookupURIFmt, cfg.GetType())
	}

	r.record(cfg, DecisionCheckingExistence)
	r.listener.PreLookup(w, uri)
	rsp, err := c.Get(ctx, uri)
	if err != nil {
		return nil, errors.Wrapf(err, errLookupFmt, cfg.GetType(), uri)
	}
	r.listener.PostLookup(w, uri, rsp.StatusCode)

	o := Observation{Verify: r.verify}
	switch rsp.StatusCode {
	case http.StatusOK:
		o.Exists = true
		o.Update = r.update
		o.HasData = w.HasData(r.strict)
		o.ForceUpdate = w.ForceUpdate()
	case http.StatusNotFound:
	default:
		return nil, errors.Errorf(errUnexpectedStatusFmt, rsp.StatusCode, cfg.GetType(), uri)
	}

	switch d := Decide(o); d {
	case DecisionReportCreation:
		r.record(cfg, d)
		log.Debug("Entity does not exist", "uri", uri)
		r.verifyLog.LogCreation(uri, w)
		return nil, nil
	case DecisionCreate:
		return r.create(ctx, c, cfg, w, ectx, log)
	case DecisionDiff:
		r.record(cfg, d)
		existing, err := r.wrap(w.Kind(), rsp.Body)
		if err != nil {
			return nil, errors.Wrapf(err, errDecodeExistingFmt, cfg.GetType())
		}
		if w.PerformSubstitutions() {
			if err := r.substitute(existing, w); err != nil {
				return nil, errors.Wrapf(err, errSubstFmt, cfg.GetType())
			}
		}
		r.verifyLog.LogDifference(uri, ectx, cfg, existing, w)
		return nil, nil
	case DecisionUpdate:
		r.record(cfg, d)
		return r.updateExisting(ctx, c, cfg, w, ectx, rsp.Body, log)
	default:
		r.record(cfg, d)
		log.Debug("Entity exists, leaving it as is", "uri", uri)
		e, err := w.Kind().Decode(rsp.Body)
		return e, errors.Wrapf(err, errDecodeExistingFmt, cfg.GetType())
	}
}

// substitute replaces the entities of the supplied wrappers with their
// substituted versions.
func (r *Reconciler) substitute(ws ...*wrapper.Wrapper) error {
	for _, w := range ws {
		e, err := r.listener.Subst(w.Entity())
		if err != nil {
			return err
		}
		w.SetEntity(e)
	}
	return nil
}

// updateExisting updates an entity that exists. The entity sent is the
// existing entity with the model's fields merged over it. If the existing
// entity was resolved before, the model's fields are merged onto the cached
// entity instead so that every branch builds on the same state. Each branch
// sends its own copy of the result.
func (r *Reconciler) updateExisting(ctx context.Context, c rest.Client, cfg *entityconfig.TypeConfig, w *wrapper.Wrapper, ectx Context, existing []byte, log logging.Logger) (resource.Entity, error) {
	if r.verify {
		log.Debug("Verify mode, not updating entity")
		return w.Entity(), nil
	}

	patch, err := json.Marshal(w.Fields())
	if err != nil {
		return nil, errors.Wrapf(err, errMergeFmt, cfg.GetType())
	}
	merged, err := jsonpatch.MergePatch(existing, patch)
	if err != nil {
		return nil, errors.Wrapf(err, errMergeFmt, cfg.GetType())
	}
	target, err := w.Kind().Decode(merged)
	if err != nil {
		return nil, errors.Wrapf(err, errDecodeExistingFmt, cfg.GetType())
	}

	if k, ok := cache.KeyFor(c.Endpoint(), target); ok {
		target, err = r.cache.Upsert(k, target, func(cached resource.Entity) error {
			return resource.Merge(cached, w.Entity())
		})
		if err != nil {
			return nil, errors.Wrapf(err, errMergeFmt, cfg.GetType())
		}
	}

	if w.PerformSubstitutions() {
		if target, err = r.listener.Subst(target); err != nil {
			return nil, errors.Wrapf(err, errSubstFmt, cfg.GetType())
		}
	}
	return r.updateEntity(ctx, c, cfg, w.Kind(), target, ectx, log)
}

func (r *Reconciler) updateEntity(ctx context.Context, c rest.Client, cfg *entityconfig.TypeConfig, kind resource.Kind, e resource.Entity, ectx Context, log logging.Logger) (resource.Entity, error) {
	method := cfg.GetUpdateMethod()
	if err := checkMethod(method, cfg); err != nil {
		return nil, err
	}
	uri, err := ResolveTemplate(cfg.GetUpdateURI(), ectx, e)
	if err != nil {
		return nil, errors.Wrapf(err, errUpdateURIFmt, cfg.GetType())
	}
	if err := setParentFields(cfg, e, ectx); err != nil {
		return nil, err
	}

	r.listener.PreUpdate(cfg, e)
	body, err := c.Send(ctx, method, uri, e)
	if err != nil {
		return nil, errors.Wrapf(err, errUpdateFmt, cfg.GetType(), uri)
	}
	updated, err := adopt(kind, body, e)
	if err != nil {
		return nil, errors.Wrapf(err, errDecodeResponseFmt, cfg.GetType())
	}
	r.listener.PostUpdate(cfg, e, updated)
	log.Info("Updated entity", "uri", uri)
	return updated, nil
}

func (r *Reconciler) create(ctx context.Context, c rest.Client, cfg *entityconfig.TypeConfig, w *wrapper.Wrapper, ectx Context, log logging.Logger) (resource.Entity, error) {
	r.record(cfg, DecisionCreate)
	if r.verify {
		log.Debug("Verify mode, not creating entity")
		return w.Entity(), nil
	}

	method := cfg.GetCreateMethod()
	if err := checkMethod(method, cfg); err != nil {
		return nil, err
	}
	if cfg.GetCreateURI() == "" || cfg.GetCreateURI() == entityconfig.NotSupported {
		return nil, newConfigError(errNoCreateURIFmt, cfg.GetType())
	}

	if w.PerformSubstitutions() {
		if err := r.substitute(w); err != nil {
			return nil, errors.Wrapf(err, errSubstFmt, cfg.GetType())
		}
	}
	e := w.Entity()

	uri, err := ResolveTemplate(cfg.GetCreateURI(), ectx, e)
	if err != nil {
		return nil, errors.Wrapf(err, errCreateURIFmt, cfg.GetType())
	}
	if err := setParentFields(cfg, e, ectx); err != nil {
		return nil, err
	}

	r.listener.PreCreate(cfg, e)
	body, err := c.Send(ctx, method, uri, e)
	if err != nil {
		return r.recoverCreate(ctx, c, cfg, w, ectx, err, log)
	}
	created, err := adopt(w.Kind(), body, e)
	if err != nil {
		return nil, errors.Wrapf(err, errDecodeResponseFmt, cfg.GetType())
	}
	r.listener.PostCreate(cfg, e, created)
	log.Info("Created entity", "uri", uri)
	return created, nil
}

// recoverCreate handles a failed create. An entity the remote API rejected
// may have been created by someone else in the meantime, in which case the
// existing entity is used.
func (r *Reconciler) recoverCreate(ctx context.Context, c rest.Client, cfg *entityconfig.TypeConfig, w *wrapper.Wrapper, ectx Context, cause error, log logging.Logger) (resource.Entity, error) {
	existing, found, err := r.lookup(ctx, c, cfg, w.Kind(), w.Entity(), ectx)

	if !rest.IsValidationError(cause) {
		log.Debug("Checked existence of entity that could not be created", "exists", found, "error", err)
		return nil, errors.Wrapf(cause, errCreateFmt, cfg.GetType())
	}
	if err != nil {
		log.Debug("Cannot check existence of rejected entity", "error", err)
		return nil, errors.Wrapf(cause, errRecheckFmt, cfg.GetType(), err)
	}
	if found {
		log.Info("Entity was rejected but exists, using existing entity", "status", rest.StatusCode(cause))
		return existing, nil
	}
	if !w.HasChildren() {
		log.Info("Warning: skipping entity the remote API rejected", "error", cause)
		return nil, nil
	}
	return nil, errors.Wrapf(cause, errCreateWithChildrenFmt, cfg.GetType())
}

func (r *Reconciler) lookup(ctx context.Context, c rest.Client, cfg *entityconfig.TypeConfig, kind resource.Kind, e resource.Entity, ectx Context) (resource.Entity, bool, error) {
	if !cfg.UpdateSupported() {
		return nil, false, nil
	}
	uri, err := ResolveTemplate(cfg.GetUpdateURI(), ectx, e)
	if IsNoID(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, errLookupURIFmt, cfg.GetType())
	}

	r.listener.PreLookup(e, uri)
	rsp, err := c.Get(ctx, uri)
	if err != nil {
		return nil, false, errors.Wrapf(err, errLookupFmt, cfg.GetType(), uri)
	}
	r.listener.PostLookup(e, uri, rsp.StatusCode)

	switch rsp.StatusCode {
	case http.StatusOK:
		existing, err := kind.Decode(rsp.Body)
		if err != nil {
			return nil, false, errors.Wrapf(err, errDecodeExistingFmt, cfg.GetType())
		}
		return existing, true, nil
	case http.StatusNotFound:
		return nil, false, nil
	}
	return nil, false, errors.Errorf(errUnexpectedStatusFmt, rsp.StatusCode, cfg.GetType(), uri)
}

func checkMethod(method string, cfg *entityconfig.TypeConfig) error {
	switch method {
	case http.MethodPut, http.MethodPost:
		return nil
	}
	return newConfigError(errMethodFmt, method, cfg.GetType())
}

// adopt returns the entity the remote API responded with, or the entity that
// was sent if the response has no body.
func adopt(kind resource.Kind, body []byte, sent resource.Entity) (resource.Entity, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return sent, nil
	}
	return kind.Decode(body)
}
