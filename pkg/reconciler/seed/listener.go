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
	"time"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/resource"
	"github.com/crossplane/model-seeder/pkg/resource/wrapper"
)

// A Listener is told about every step of a run. Listeners may be called
// concurrently from different child branches.
type Listener interface {
	PreEntityConfig(typ string)
	PostEntityConfig(typ string, cfg *entityconfig.TypeConfig)

	PreLookup(e resource.Entity, uri string)
	PostLookup(e resource.Entity, uri string, status int)

	PreCreate(cfg *entityconfig.TypeConfig, e resource.Entity)
	PostCreate(cfg *entityconfig.TypeConfig, e, created resource.Entity)

	PreUpdate(cfg *entityconfig.TypeConfig, e resource.Entity)
	PostUpdate(cfg *entityconfig.TypeConfig, e, updated resource.Entity)

	// Subst returns the entity with variables substituted. It is called for
	// entities with the _subst directive, before they are sent.
	Subst(e resource.Entity) (resource.Entity, error)

	// JSONSubst returns the raw JSON with variables substituted. It is
	// called for entities with the _jsonSubst directive, before they are
	// decoded.
	JSONSubst(raw map[string]any) (map[string]any, error)
}

// A NopListener does nothing.
type NopListener struct{}

// PreEntityConfig does nothing.
func (NopListener) PreEntityConfig(_ string) {}

// PostEntityConfig does nothing.
func (NopListener) PostEntityConfig(_ string, _ *entityconfig.TypeConfig) {}

// PreLookup does nothing.
func (NopListener) PreLookup(_ resource.Entity, _ string) {}

// PostLookup does nothing.
func (NopListener) PostLookup(_ resource.Entity, _ string, _ int) {}

// PreCreate does nothing.
func (NopListener) PreCreate(_ *entityconfig.TypeConfig, _ resource.Entity) {}

// PostCreate does nothing.
func (NopListener) PostCreate(_ *entityconfig.TypeConfig, _, _ resource.Entity) {}

// PreUpdate does nothing.
func (NopListener) PreUpdate(_ *entityconfig.TypeConfig, _ resource.Entity) {}

// PostUpdate does nothing.
func (NopListener) PostUpdate(_ *entityconfig.TypeConfig, _, _ resource.Entity) {}

// Subst returns the supplied entity.
func (NopListener) Subst(e resource.Entity) (resource.Entity, error) { return e, nil }

// JSONSubst returns the supplied JSON.
func (NopListener) JSONSubst(raw map[string]any) (map[string]any, error) { return raw, nil }

// A VerifyLog collects the findings of a verify run.
type VerifyLog interface {
	StartLog()

	// LogDifference is called for an existing entity whose model declares
	// data.
	LogDifference(uri string, ctx Context, cfg *entityconfig.TypeConfig, existing, requested *wrapper.Wrapper)

	// LogCreation is called for an entity that does not exist.
	LogCreation(uri string, e resource.Entity)

	EndLog() error
}

// A NopVerifyLog does nothing.
type NopVerifyLog struct{}

// StartLog does nothing.
func (NopVerifyLog) StartLog() {}

// LogDifference does nothing.
func (NopVerifyLog) LogDifference(_ string, _ Context, _ *entityconfig.TypeConfig, _, _ *wrapper.Wrapper) {
}

// LogCreation does nothing.
func (NopVerifyLog) LogCreation(_ string, _ resource.Entity) {}

// EndLog does nothing.
func (NopVerifyLog) EndLog() error { return nil }

// A MetricRecorder records what happened during a run.
type MetricRecorder interface {
	// RecordDecision records a decision taken for an entity of the supplied
	// type.
	RecordDecision(typ, decision string)

	// RecordChildBatch records a batch of children of the supplied type.
	RecordChildBatch(typ string, size int, took time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) RecordDecision(_, _ string)                                 {}
func (nopMetrics) RecordChildBatch(_ string, _ int, _ time.Duration, _ error) {}
