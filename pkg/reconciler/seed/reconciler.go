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
	"path"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/clock"

	"github.com/crossplane/model-seeder/pkg/cache"
	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/external/rest"
	"github.com/crossplane/model-seeder/pkg/logging"
	"github.com/crossplane/model-seeder/pkg/manifest"
	"github.com/crossplane/model-seeder/pkg/resource"
	"github.com/crossplane/model-seeder/pkg/resource/unstructured"
	"github.com/crossplane/model-seeder/pkg/resource/wrapper"
)

const (
	// DefaultChildTimeout is how long a batch of children may take.
	DefaultChildTimeout = 30 * time.Minute

	maxDefaultConcurrency = 50
)

// Error strings.
const (
	errBuildModelFmt   = "cannot build model from manifest %s"
	errNestedFmt       = "cannot build nested manifest %s"
	errSetupModelFmt   = "cannot set up model %s"
	errEntityConfigFmt = "cannot get entity config of type %s"
	errKindFmt         = "cannot determine kind of type %s"
	errParseModelFmt   = "cannot parse model of type %s"
	errEntityFmt       = "cannot set up entity %d of type %s"
	errDecodeElement   = "cannot decode model element"
	errEndLog          = "cannot complete verify log"
)

var errNotObject = errors.New("model element is not a JSON object")

// DefaultMaxConcurrency returns the default bound on concurrent child
// requests: twice the available processors, but no more than 50.
func DefaultMaxConcurrency() int {
	return min(maxDefaultConcurrency, 2*runtime.GOMAXPROCS(0))
}

// A ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger specifies how the Reconciler should log messages.
func WithLogger(l logging.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		r.log = l
	}
}

// WithScheme specifies the kinds the Reconciler decodes entities as.
func WithScheme(s *resource.Scheme) ReconcilerOption {
	return func(r *Reconciler) {
		r.scheme = s
	}
}

// WithCache specifies the cache of resolved entities.
func WithCache(c *cache.Cache) ReconcilerOption {
	return func(r *Reconciler) {
		r.cache = c
	}
}

// WithListener specifies the Listener told about each step.
func WithListener(l Listener) ReconcilerOption {
	return func(r *Reconciler) {
		r.listener = l
	}
}

// WithVerifyLog specifies where verify mode reports its findings.
func WithVerifyLog(v VerifyLog) ReconcilerOption {
	return func(r *Reconciler) {
		r.verifyLog = v
	}
}

// WithMetrics specifies how the Reconciler records metrics.
func WithMetrics(m MetricRecorder) ReconcilerOption {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithClock specifies the clock child batch timeouts are measured on.
func WithClock(c clock.Clock) ReconcilerOption {
	return func(r *Reconciler) {
		r.clock = c
	}
}

// WithUpdate specifies whether existing entities that declare data are
// updated.
func WithUpdate(update bool) ReconcilerOption {
	return func(r *Reconciler) {
		r.update = update
	}
}

// WithVerify specifies whether the Reconciler only reports what it would do.
func WithVerify(verify bool) ReconcilerOption {
	return func(r *Reconciler) {
		r.verify = verify
	}
}

// WithStrict specifies whether identity fields are ignored when deciding
// whether an entity declares data.
func WithStrict(strict bool) ReconcilerOption {
	return func(r *Reconciler) {
		r.strict = strict
	}
}

// WithMaxConcurrency bounds the number of children reconciled concurrently.
// Values below one are ignored.
func WithMaxConcurrency(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxConcurrency = n
		}
	}
}

// WithChildTimeout specifies how long a batch of children may take. Values of
// zero or less are ignored.
func WithChildTimeout(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.childTimeout = d
		}
	}
}

// A Reconciler seeds a remote API with the entities of a model.
type Reconciler struct {
	client    rest.Client
	scheme    *resource.Scheme
	cache     *cache.Cache
	listener  Listener
	verifyLog VerifyLog
	metrics   MetricRecorder
	clock     clock.Clock
	log       logging.Logger

	update         bool
	verify         bool
	strict         bool
	maxConcurrency int
	childTimeout   time.Duration
}

// NewReconciler returns a Reconciler that seeds the API of the supplied
// client.
func NewReconciler(c rest.Client, o ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		client:         c,
		scheme:         resource.NewScheme(resource.WithFallback(unstructured.KindFor)),
		cache:          cache.New(),
		listener:       NopListener{},
		verifyLog:      NopVerifyLog{},
		metrics:        nopMetrics{},
		clock:          clock.RealClock{},
		log:            logging.NewNopLogger(),
		maxConcurrency: DefaultMaxConcurrency(),
		childTimeout:   DefaultChildTimeout,
	}
	for _, fn := range o {
		fn(r)
	}
	return r
}

// Run seeds the model named by the supplied manifest. Names in the manifest
// are resolved relative to the manifest's directory.
func (r *Reconciler) Run(ctx context.Context, res *manifest.Resolver, manifestPath string) error {
	res = res.Sub(path.Dir(manifestPath))
	m, err := res.BuildModel(path.Base(manifestPath))
	if err != nil {
		return errors.Wrapf(err, errBuildModelFmt, manifestPath)
	}

	r.verifyLog.StartLog()
	err = r.Setup(ctx, res, m)
	if lerr := r.verifyLog.EndLog(); lerr != nil && err == nil {
		err = errors.Wrap(lerr, errEndLog)
	}
	return err
}

// Setup seeds the supplied model. Nested manifests are resolved with the
// supplied resolver.
func (r *Reconciler) Setup(ctx context.Context, res *manifest.Resolver, m *manifest.Model) error {
	return r.setupModel(ctx, res, m, sets.New[string]())
}

func (r *Reconciler) setupModel(ctx context.Context, res *manifest.Resolver, m *manifest.Model, seen sets.Set[string]) error {
	for _, name := range m.Names() {
		key := res.Path(name)
		if seen.Has(key) {
			r.log.Debug("Skipping model that was already included", "model", key)
			continue
		}
		seen.Insert(key)

		data, _ := m.Get(name)
		tag := manifest.TypeTag(name)
		if tag == manifest.TagManifest || manifest.IsManifest(data) {
			nested, err := res.BuildModel(name)
			if err != nil {
				r.log.Info("Cannot build nested manifest", "model", key, "endpoint", r.client.Endpoint(), "error", err)
				return errors.Wrapf(err, errNestedFmt, key)
			}
			if err := r.setupModel(ctx, res.Sub(path.Dir(name)), nested, seen); err != nil {
				return err
			}
			continue
		}

		if err := r.setupJSON(ctx, tag, data); err != nil {
			r.log.Info("Cannot set up model", "model", key, "endpoint", r.client.Endpoint(), "error", err)
			return errors.Wrapf(err, errSetupModelFmt, key)
		}
	}
	return nil
}

func (r *Reconciler) setupJSON(ctx context.Context, typ string, data []byte) error {
	log := r.log.WithValues("type", typ)

	r.listener.PreEntityConfig(typ)
	cfg, err := r.client.EntityConfig(ctx, typ)
	if err != nil {
		return errors.Wrapf(err, errEntityConfigFmt, typ)
	}
	r.listener.PostEntityConfig(typ, cfg)

	kind, err := r.scheme.KindFor(cfg.GetEntityClass(), typ)
	if err != nil {
		return errors.Wrapf(err, errKindFmt, typ)
	}

	items := []json.RawMessage{}
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrapf(err, errParseModelFmt, typ)
	}
	log.Debug("Setting up entities", "count", len(items))

	for i, item := range items {
		w, err := r.wrap(kind, item)
		if errors.Is(err, errNotObject) {
			log.Info("Skipping model element that is not an object", "index", i)
			continue
		}
		if err != nil {
			return errors.Wrapf(err, errEntityFmt, i, typ)
		}
		if _, err := r.createEntity(ctx, r.client, cfg, w, Context{}); err != nil {
			return errors.Wrapf(err, errEntityFmt, i, typ)
		}
	}
	return nil
}

func (r *Reconciler) wrap(kind resource.Kind, item json.RawMessage) (*wrapper.Wrapper, error) {
	d := json.NewDecoder(bytes.NewReader(item))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil {
		return nil, errors.Wrap(err, errDecodeElement)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return wrapper.New(kind, m, wrapper.WithJSONSubst(r.listener.JSONSubst))
}

func (r *Reconciler) record(cfg *entityconfig.TypeConfig, d Decision) {
	r.metrics.RecordDecision(cfg.GetType(), string(d))
}
