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

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

// Redis cache storage.
type Redis struct {
	client *redis.Client
}

func openRedis(path string) (*Redis, error) {
	opt, err := redis.ParseURL(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Redis{client: redis.NewClient(opt)}, nil
}

// Ping the Redis server.
func (r *Redis) Ping() error {
	return r.client.Ping(context.Background()).Err()
}

// Close the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Purge removes all keys in the current Redis database.
func (r *Redis) Purge() error {
	return r.client.FlushDB(context.Background()).Err()
}

// Get returns the value of a key from Redis.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Annotate(ErrObjectNotExist, key)
		}
		return nil, errors.Trace(err)
	}
	return val, nil
}

// Set the value of a key in Redis with a time-to-live.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Trace(r.client.Set(ctx, key, value, ttl).Err())
}

// Delete a key from Redis.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return errors.Trace(r.client.Del(ctx, key).Err())
}
