// Copyright 2025 reco Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
)

// InMemory is an in-process cache storage for embedded deployments and tests.
type InMemory struct {
	cache *ttlcache.Cache[string, []byte]
}

func newInMemory() *InMemory {
	c := ttlcache.New[string, []byte](
		ttlcache.WithDisableTouchOnHit[string, []byte]())
	go c.Start()
	return &InMemory{cache: c}
}

// Ping does nothing.
func (m *InMemory) Ping() error {
	return nil
}

// Close stops the expiration worker.
func (m *InMemory) Close() error {
	m.cache.Stop()
	return nil
}

// Purge removes all cached values.
func (m *InMemory) Purge() error {
	m.cache.DeleteAll()
	return nil
}

// Get returns the value of a key.
func (m *InMemory) Get(_ context.Context, key string) ([]byte, error) {
	item := m.cache.Get(key)
	if item == nil {
		return nil, errors.Annotate(ErrObjectNotExist, key)
	}
	return item.Value(), nil
}

// Set the value of a key with a time-to-live.
func (m *InMemory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	m.cache.Set(key, value, ttl)
	return nil
}

// Delete a key.
func (m *InMemory) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
