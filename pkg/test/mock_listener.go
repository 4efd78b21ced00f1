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

package test

import (
	"fmt"
	"sync"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/resource"
)

// A MockListener records the hooks it is called with. Substitutions are
// delegated to MockSubst and MockJSONSubst when set.
type MockListener struct {
	MockSubst     func(e resource.Entity) (resource.Entity, error)
	MockJSONSubst func(raw map[string]any) (map[string]any, error)

	mu     sync.Mutex
	events []string
}

func (l *MockListener) record(format string, a ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, a...))
}

// Events returns the recorded hooks, e.g. "PreCreate users".
func (l *MockListener) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// PreEntityConfig records the hook.
func (l *MockListener) PreEntityConfig(typ string) { l.record("PreEntityConfig %s", typ) }

// PostEntityConfig records the hook.
func (l *MockListener) PostEntityConfig(typ string, _ *entityconfig.TypeConfig) {
	l.record("PostEntityConfig %s", typ)
}

// PreLookup records the hook.
func (l *MockListener) PreLookup(_ resource.Entity, uri string) { l.record("PreLookup %s", uri) }

// PostLookup records the hook.
func (l *MockListener) PostLookup(_ resource.Entity, uri string, status int) {
	l.record("PostLookup %s %d", uri, status)
}

// PreCreate records the hook.
func (l *MockListener) PreCreate(cfg *entityconfig.TypeConfig, _ resource.Entity) {
	l.record("PreCreate %s", cfg.GetType())
}

// PostCreate records the hook.
func (l *MockListener) PostCreate(cfg *entityconfig.TypeConfig, _, _ resource.Entity) {
	l.record("PostCreate %s", cfg.GetType())
}

// PreUpdate records the hook.
func (l *MockListener) PreUpdate(cfg *entityconfig.TypeConfig, _ resource.Entity) {
	l.record("PreUpdate %s", cfg.GetType())
}

// PostUpdate records the hook.
func (l *MockListener) PostUpdate(cfg *entityconfig.TypeConfig, _, _ resource.Entity) {
	l.record("PostUpdate %s", cfg.GetType())
}

// Subst records the hook and calls MockSubst.
func (l *MockListener) Subst(e resource.Entity) (resource.Entity, error) {
	l.record("Subst %s", e.GetKind())
	if l.MockSubst != nil {
		return l.MockSubst(e)
	}
	return e, nil
}

// JSONSubst records the hook and calls MockJSONSubst.
func (l *MockListener) JSONSubst(raw map[string]any) (map[string]any, error) {
	l.record("JSONSubst")
	if l.MockJSONSubst != nil {
		return l.MockJSONSubst(raw)
	}
	return raw, nil
}
