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
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/external/rest"
	"github.com/crossplane/model-seeder/pkg/logging"
	"github.com/crossplane/model-seeder/pkg/resource"
)

// Error strings.
const (
	errUndeclaredChildFmt = "child type %s is not declared by type %s"
	errChildKindFmt       = "cannot determine kind of child type %s"
	errChildBatchFmt      = "cannot set up children of type %s"
	errChildFmt           = "child %d"
	errChildTimeoutFmt    = "timed out after %s waiting for %d children of type %s"
)

// createChildren reconciles the children of a resolved parent, one batch per
// child type.
func (r *Reconciler) createChildren(ctx context.Context, c rest.Client, cfg *entityconfig.TypeConfig, parent resource.Kind, p resource.Parent, ectx Context, log logging.Logger) error {
	children := p.GetChildren()

	types := make([]string, 0, len(children))
	for t := range children {
		if _, ok := cfg.GetChild(t); !ok {
			return newConfigError(errUndeclaredChildFmt, t, cfg.GetType())
		}
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		items := children[t]
		if len(items) == 0 {
			continue
		}
		ccfg, _ := cfg.GetChild(t)
		class := ccfg.GetEntityClass()
		if class == "" {
			class = resource.ChildClass(parent, t)
		}
		kind, err := r.scheme.KindFor(class, t)
		if err != nil {
			return errors.Wrapf(err, errChildKindFmt, t)
		}
		if err := r.createBatch(ctx, c, ccfg, kind, items, ectx, log.WithValues("child-type", t)); err != nil {
			return errors.Wrapf(err, errChildBatchFmt, t)
		}
	}
	return nil
}

// createBatch reconciles children of one type concurrently. At most
// maxConcurrency children are in flight at once. Each child works on its own
// clone of the client. The batch fails if any child fails, or if it takes
// longer than the child timeout. Children still in flight after a timeout are
// not cancelled.
func (r *Reconciler) createBatch(ctx context.Context, c rest.Client, cfg *entityconfig.TypeConfig, kind resource.Kind, items []json.RawMessage, ectx Context, log logging.Logger) error {
	start := r.clock.Now()
	sem := semaphore.NewWeighted(int64(min(len(items), r.maxConcurrency)))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(i int, err error) {
		log.Info("Cannot set up child entity", "index", i, "error", err)
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, errors.Wrapf(err, errChildFmt, i))
	}

	for i, item := range items {
		wg.Add(1)
		go func(i int, item json.RawMessage) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				fail(i, err)
				return
			}
			defer sem.Release(1)

			w, err := r.wrap(kind, item)
			if errors.Is(err, errNotObject) {
				log.Info("Skipping child that is not an object", "index", i)
				return
			}
			if err != nil {
				fail(i, err)
				return
			}
			if _, err := r.createEntity(ctx, c.Clone(), cfg, w, ectx); err != nil {
				fail(i, err)
			}
		}(i, item)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	t := r.clock.NewTimer(r.childTimeout)
	defer t.Stop()

	select {
	case <-done:
	case <-t.C():
		err := errors.Errorf(errChildTimeoutFmt, r.childTimeout, len(items), cfg.GetType())
		r.metrics.RecordChildBatch(cfg.GetType(), len(items), r.clock.Since(start), err)
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	var err error
	if agg := utilerrors.NewAggregate(errs); agg != nil {
		err = agg
	}
	r.metrics.RecordChildBatch(cfg.GetType(), len(items), r.clock.Since(start), err)
	return err
}
