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

// Package cache contains the cache of entities resolved during a run.
package cache

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/crossplane/model-seeder/pkg/resource"
)

const errCopy = "cannot copy cached entity"

// A Key identifies a resolved entity. Endpoint is the base URL of the remote
// API the entity was resolved against, so clones of one client share entries.
type Key struct {
	Endpoint string
	Kind     string
	ID       string
}

// KeyFor returns the key of the supplied entity. It returns false if the
// entity has no identifier.
func KeyFor(endpoint string, e resource.Entity) (Key, bool) {
	id, ok := resource.IDOf(e)
	if !ok {
		return Key{}, false
	}
	return Key{Endpoint: endpoint, Kind: e.GetKind(), ID: id}, true
}

// A MergeFn merges an entity onto one that is already cached.
type MergeFn func(cached resource.Entity) error

// Cache of resolved entities. Entries are never evicted; a Cache lives for
// one run.
//
// Cached entities are only touched while the cache lock is held. Entities
// passed in are copied before they are stored, and entities handed out are
// private copies the caller may modify.
type Cache struct {
	// mu protects the entries map and the entities in it.
	mu sync.Mutex

	entries map[Key]resource.Entity
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]resource.Entity)}
}

// Get a copy of the entity with the supplied key.
func (c *Cache) Get(k Key) (resource.Entity, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.entries[k]
	if !ok {
		return nil, false, nil
	}
	e, err := resource.DeepCopy(cached)
	return e, err == nil, errors.Wrap(err, errCopy)
}

// Add a copy of the supplied entity, replacing any entity with the same key.
func (c *Cache) Add(k Key, e resource.Entity) error {
	cp, err := resource.DeepCopy(e)
	if err != nil {
		return errors.Wrap(err, errCopy)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = cp
	return nil
}

// GetOrAdd returns a copy of the cached entity with the supplied key and true
// if there is one. Otherwise it adds a copy of the supplied entity and
// returns the supplied entity with false.
func (c *Cache) GetOrAdd(k Key, e resource.Entity) (resource.Entity, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.entries[k]; ok {
		cp, err := resource.DeepCopy(cached)
		return cp, err == nil, errors.Wrap(err, errCopy)
	}
	cp, err := resource.DeepCopy(e)
	if err != nil {
		return nil, false, errors.Wrap(err, errCopy)
	}
	c.entries[k] = cp
	return e, false, nil
}

// Upsert adds a copy of the supplied entity and returns it if none is cached
// under its key. Otherwise it calls merge with the cached entity while holding
// the cache lock and returns a copy of the result.
func (c *Cache) Upsert(k Key, e resource.Entity, merge MergeFn) (resource.Entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.entries[k]
	if !ok {
		cp, err := resource.DeepCopy(e)
		if err != nil {
			return nil, errors.Wrap(err, errCopy)
		}
		c.entries[k] = cp
		return e, nil
	}
	if err := merge(cached); err != nil {
		return nil, err
	}
	cp, err := resource.DeepCopy(cached)
	return cp, errors.Wrap(err, errCopy)
}

// Len returns the number of cached entities.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
