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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte(text), 0644)
	assert.NoError(t, err)
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[database]
data_store = "mongodb://localhost:27017/reco"
cache_store = "redis://localhost:6379/0"
table_prefix = "reco_"

[recommend]
matrix_cache_ttl = "120s"
popular_rating_threshold = 8.0
default_n = 20

[server]
api_key = "secret"
http_host = "0.0.0.0"
http_port = 8080
`)
	conf, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017/reco", conf.Database.DataStore)
	assert.Equal(t, "redis://localhost:6379/0", conf.Database.CacheStore)
	assert.Equal(t, "reco_", conf.Database.TablePrefix)
	assert.Equal(t, 120*time.Second, conf.Recommend.MatrixCacheTTL)
	assert.Equal(t, 8.0, conf.Recommend.PopularRatingThreshold)
	assert.Equal(t, 20, conf.Recommend.DefaultN)
	assert.Equal(t, "secret", conf.Server.APIKey)
	assert.Equal(t, "0.0.0.0", conf.Server.HttpHost)
	assert.Equal(t, 8080, conf.Server.HttpPort)
}

func TestLoadConfigDefault(t *testing.T) {
	path := writeConfig(t, `
[database]
data_store = "inmemory://"
cache_store = "inmemory://"
`)
	conf, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "reco_", conf.Database.TablePrefix)
	assert.Equal(t, 300*time.Second, conf.Recommend.MatrixCacheTTL)
	assert.Equal(t, 7.0, conf.Recommend.PopularRatingThreshold)
	assert.Equal(t, 10, conf.Recommend.DefaultN)
	assert.Equal(t, "127.0.0.1", conf.Server.HttpHost)
	assert.Equal(t, 8087, conf.Server.HttpPort)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("RECO_DATABASE_CACHE_STORE", "redis://1.2.3.4:6379")
	t.Setenv("RECO_RECOMMEND_DEFAULT_N", "5")
	path := writeConfig(t, `
[database]
data_store = "mongodb://localhost:27017/reco"
cache_store = "inmemory://"
`)
	conf, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "redis://1.2.3.4:6379", conf.Database.CacheStore)
	assert.Equal(t, 5, conf.Recommend.DefaultN)
}

func TestValidate(t *testing.T) {
	conf := GetDefaultConfig()
	conf.Database.DataStore = "mongodb://localhost:27017/reco"
	conf.Database.CacheStore = "inmemory://"
	assert.NoError(t, conf.Validate())
	// embedded development deployment
	conf.Database.DataStore = "inmemory://"
	assert.NoError(t, conf.Validate())
	// unknown data store scheme
	conf.Database.DataStore = "cassandra://localhost"
	assert.Error(t, conf.Validate())
	conf.Database.DataStore = "mongodb://localhost:27017/reco"
	// unknown cache store scheme
	conf.Database.CacheStore = "memcached://localhost"
	assert.Error(t, conf.Validate())
	conf.Database.CacheStore = "inmemory://"
	// non-positive TTL
	conf.Recommend.MatrixCacheTTL = 0
	assert.Error(t, conf.Validate())
}
