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
	"encoding/json"
	"strings"
	"time"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/reco-io/reco/base/log"
	"github.com/reco-io/reco/storage"
)

const (
	// ItemUserMatrix is the fixed key of the serialized item-to-user score matrix.
	ItemUserMatrix = "matrix:item-user"
)

var (
	ErrObjectNotExist = errors.NotFoundf("object")
	ErrNoDatabase     = errors.NotAssignedf("database")
)

// Database is the cache storage capability consumed by the recommendation
// engine: a key-value store with per-key expiry.
type Database interface {
	Ping() error
	Close() error
	Purge() error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Open a connection to a cache storage.
func Open(path string) (Database, error) {
	switch {
	case strings.HasPrefix(path, storage.RedisPrefix), strings.HasPrefix(path, storage.RedissPrefix):
		return openRedis(path)
	case strings.HasPrefix(path, storage.InMemoryPrefix):
		return newInMemory(), nil
	case path == "":
		return &NoDatabase{}, nil
	}
	return nil, errors.Errorf("unknown cache storage: %s", log.RedactDBURL(path))
}

// Memoize returns the value cached under key, rebuilding it with build on a
// miss. Read and decode failures count as misses; write failures are logged
// and the freshly built value is returned anyway.
func Memoize[T any](ctx context.Context, db Database, key string, ttl time.Duration, build func(ctx context.Context) (T, error)) (T, error) {
	var value T
	payload, err := db.Get(ctx, key)
	if err == nil {
		if err = json.Unmarshal(payload, &value); err == nil {
			HitTotalVec.WithLabelValues(key).Inc()
			return value, nil
		}
		log.Logger().Warn("failed to decode cached object", zap.String("key", key), zap.Error(err))
	} else if !errors.Is(err, ErrObjectNotExist) {
		log.Logger().Warn("failed to read cache", zap.String("key", key), zap.Error(err))
	}
	MissTotalVec.WithLabelValues(key).Inc()
	value, err = build(ctx)
	if err != nil {
		return value, errors.Trace(err)
	}
	if payload, err = json.Marshal(value); err != nil {
		return value, errors.Trace(err)
	}
	if err = db.Set(ctx, key, payload, ttl); err != nil {
		log.Logger().Warn("failed to write cache", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
