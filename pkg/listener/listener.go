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

// Package listener contains Listeners that observe or adjust a seed run.
package listener

import (
	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/logging"
	"github.com/crossplane/model-seeder/pkg/reconciler/seed"
	"github.com/crossplane/model-seeder/pkg/resource"
)

// A Logging listener logs every step of a run.
type Logging struct {
	seed.NopListener
	log logging.Logger
}

// NewLogging returns a Listener that logs to the supplied logger.
func NewLogging(l logging.Logger) *Logging {
	return &Logging{log: l}
}

// PreEntityConfig logs the lookup of an entity type configuration.
func (l *Logging) PreEntityConfig(typ string) {
	l.log.Debug("Getting entity config", "type", typ)
}

// PostEntityConfig logs a fetched entity type configuration.
func (l *Logging) PostEntityConfig(typ string, cfg *entityconfig.TypeConfig) {
	l.log.Debug("Got entity config", "type", typ, "update-uri", cfg.GetUpdateURI(), "create-uri", cfg.GetCreateURI())
}

// PreLookup logs an existence check.
func (l *Logging) PreLookup(e resource.Entity, uri string) {
	l.log.Debug("Looking up entity", "kind", e.GetKind(), "uri", uri)
}

// PostLookup logs the outcome of an existence check.
func (l *Logging) PostLookup(e resource.Entity, uri string, status int) {
	l.log.Debug("Looked up entity", "kind", e.GetKind(), "uri", uri, "status", status)
}

// PreCreate logs a create.
func (l *Logging) PreCreate(cfg *entityconfig.TypeConfig, e resource.Entity) {
	l.log.Debug("Creating entity", "type", cfg.GetType(), "id", id(e))
}

// PostCreate logs a created entity.
func (l *Logging) PostCreate(cfg *entityconfig.TypeConfig, _, created resource.Entity) {
	l.log.Info("Entity created", "type", cfg.GetType(), "id", id(created))
}

// PreUpdate logs an update.
func (l *Logging) PreUpdate(cfg *entityconfig.TypeConfig, e resource.Entity) {
	l.log.Debug("Updating entity", "type", cfg.GetType(), "id", id(e))
}

// PostUpdate logs an updated entity.
func (l *Logging) PostUpdate(cfg *entityconfig.TypeConfig, _, updated resource.Entity) {
	l.log.Info("Entity updated", "type", cfg.GetType(), "id", id(updated))
}

func id(e resource.Entity) string {
	if id, ok := resource.IDOf(e); ok {
		return id
	}
	if v, ok := e.GetField(resource.FieldName); ok {
		if s, ok := resource.FormatValue(v); ok {
			return s
		}
	}
	return ""
}

// A Chain calls several Listeners in order. Substitutions are applied by
// each Listener in turn, each seeing the output of the previous one.
type Chain []seed.Listener

// PreEntityConfig calls every Listener.
func (c Chain) PreEntityConfig(typ string) {
	for _, l := range c {
		l.PreEntityConfig(typ)
	}
}

// PostEntityConfig calls every Listener.
func (c Chain) PostEntityConfig(typ string, cfg *entityconfig.TypeConfig) {
	for _, l := range c {
		l.PostEntityConfig(typ, cfg)
	}
}

// PreLookup calls every Listener.
func (c Chain) PreLookup(e resource.Entity, uri string) {
	for _, l := range c {
		l.PreLookup(e, uri)
	}
}

// PostLookup calls every Listener.
func (c Chain) PostLookup(e resource.Entity, uri string, status int) {
	for _, l := range c {
		l.PostLookup(e, uri, status)
	}
}

// PreCreate calls every Listener.
func (c Chain) PreCreate(cfg *entityconfig.TypeConfig, e resource.Entity) {
	for _, l := range c {
		l.PreCreate(cfg, e)
	}
}

// PostCreate calls every Listener.
func (c Chain) PostCreate(cfg *entityconfig.TypeConfig, e, created resource.Entity) {
	for _, l := range c {
		l.PostCreate(cfg, e, created)
	}
}

// PreUpdate calls every Listener.
func (c Chain) PreUpdate(cfg *entityconfig.TypeConfig, e resource.Entity) {
	for _, l := range c {
		l.PreUpdate(cfg, e)
	}
}

// PostUpdate calls every Listener.
func (c Chain) PostUpdate(cfg *entityconfig.TypeConfig, e, updated resource.Entity) {
	for _, l := range c {
		l.PostUpdate(cfg, e, updated)
	}
}

// Subst calls every Listener, passing each the entity returned by the
// previous one.
func (c Chain) Subst(e resource.Entity) (resource.Entity, error) {
	var err error
	for _, l := range c {
		if e, err = l.Subst(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// JSONSubst calls every Listener, passing each the JSON returned by the
// previous one.
func (c Chain) JSONSubst(raw map[string]any) (map[string]any, error) {
	var err error
	for _, l := range c {
		if raw, err = l.JSONSubst(raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

var (
	_ seed.Listener = &Logging{}
	_ seed.Listener = Chain{}
)
