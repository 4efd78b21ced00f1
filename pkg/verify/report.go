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

// Package verify reports what a verify run found.
package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/logging"
	"github.com/crossplane/model-seeder/pkg/reconciler/seed"
	"github.com/crossplane/model-seeder/pkg/resource"
	"github.com/crossplane/model-seeder/pkg/resource/wrapper"
)

// Error strings.
const (
	errEncode = "cannot encode entity"
	errPatch  = "cannot compute difference"
	errWrite  = "cannot write verify report"
)

// An EntryType distinguishes the findings of a verify run.
type EntryType string

// Entry types.
const (
	EntryCreation   EntryType = "Creation"
	EntryDifference EntryType = "Difference"
)

// An Entry is one finding of a verify run.
type Entry struct {
	Type EntryType
	Kind string
	URI  string

	// Patch is the JSON merge patch that would make the existing entity
	// match the model. Empty for creations.
	Patch string

	// Diff renders the difference between the existing entity and the
	// model, or the entity that would be created.
	Diff string
}

// A ReportOption configures a Report.
type ReportOption func(*Report)

// WithLogger specifies how the Report should log.
func WithLogger(l logging.Logger) ReportOption {
	return func(r *Report) {
		r.log = l
	}
}

// A Report writes the findings of a verify run to a writer as they are
// found. It is safe for concurrent use.
type Report struct {
	w   io.Writer
	log logging.Logger

	mu      sync.Mutex
	entries []Entry
	err     error
}

// NewReport returns a Report that writes to the supplied writer.
func NewReport(w io.Writer, o ...ReportOption) *Report {
	r := &Report{w: w, log: logging.NewNopLogger()}
	for _, fn := range o {
		fn(r)
	}
	return r
}

// StartLog starts a new report.
func (r *Report) StartLog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.err = nil
	r.printf("Verifying model\n")
}

// LogDifference records how an existing entity differs from its model. Only
// fields the model declares are compared, using the values of the wrapped
// entities so that substituted variables are compared as substituted. Nothing
// is recorded if they match.
func (r *Report) LogDifference(uri string, _ seed.Context, cfg *entityconfig.TypeConfig, existing, requested *wrapper.Wrapper) {
	want := restrict(fields(requested), requested.Fields())
	have := restrict(fields(existing), want)

	patch, err := mergePatch(have, want)
	if err != nil {
		r.log.Info("Cannot compare entity", "uri", uri, "error", err)
		return
	}
	if string(patch) == "{}" {
		r.log.Debug("Entity matches model", "uri", uri)
		return
	}

	e := Entry{
		Type:  EntryDifference,
		Kind:  cfg.GetType(),
		URI:   uri,
		Patch: string(patch),
		Diff:  cmp.Diff(have, want),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	r.printf("~ %s %s\n  patch: %s\n%s\n", e.Kind, e.URI, e.Patch, e.Diff)
}

// LogCreation records an entity that would be created.
func (r *Report) LogCreation(uri string, e resource.Entity) {
	data, err := json.MarshalIndent(e, "  ", "  ")
	if err != nil {
		r.log.Info("Cannot render entity", "uri", uri, "error", errors.Wrap(err, errEncode))
	}

	entry := Entry{Type: EntryCreation, Kind: e.GetKind(), URI: uri, Diff: string(data)}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	r.printf("+ %s %s\n  %s\n", entry.Kind, entry.URI, entry.Diff)
}

// EndLog completes the report with a summary. It returns the first error
// encountered writing the report.
func (r *Report) EndLog() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	created, differ := 0, 0
	for _, e := range r.entries {
		switch e.Type {
		case EntryCreation:
			created++
		case EntryDifference:
			differ++
		}
	}
	r.printf("%d to create, %d differ\n", created, differ)
	return errors.Wrap(r.err, errWrite)
}

// Entries returns the findings recorded so far.
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// printf must be called with mu held.
func (r *Report) printf(format string, a ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, a...)
}

// fields returns the JSON fields of the wrapped entity, or the raw fields of
// the wrapper if the entity cannot be encoded.
func fields(w *wrapper.Wrapper) map[string]any {
	data, err := json.Marshal(w.Entity())
	if err != nil {
		return w.Fields()
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return w.Fields()
	}
	return out
}

// restrict returns the fields of have that want declares. Nested objects are
// restricted too.
func restrict(have, want map[string]any) map[string]any {
	out := make(map[string]any, len(want))
	for k, wv := range want {
		hv, ok := have[k]
		if !ok {
			continue
		}
		hm, hok := hv.(map[string]any)
		wm, wok := wv.(map[string]any)
		if hok && wok {
			out[k] = restrict(hm, wm)
			continue
		}
		out[k] = hv
	}
	return out
}

func mergePatch(have, want map[string]any) ([]byte, error) {
	h, err := json.Marshal(have)
	if err != nil {
		return nil, errors.Wrap(err, errEncode)
	}
	w, err := json.Marshal(want)
	if err != nil {
		return nil, errors.Wrap(err, errEncode)
	}
	p, err := jsonpatch.CreateMergePatch(h, w)
	return p, errors.Wrap(err, errPatch)
}

var _ seed.VerifyLog = &Report{}
