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
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"

	"github.com/reco-io/reco/storage"
)

var dataStorePrefixes = []string{
	storage.MongoPrefix,
	storage.MongoSrvPrefix,
	storage.MySQLPrefix,
	storage.PostgresPrefix,
	storage.PostgreSQLPrefix,
	storage.InMemoryPrefix,
}

var cacheStorePrefixes = []string{
	storage.RedisPrefix,
	storage.RedissPrefix,
	storage.InMemoryPrefix,
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Validate checks the configuration against the supported storage schemes and
// value ranges.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("data_store", func(fl validator.FieldLevel) bool {
		return hasAnyPrefix(fl.Field().String(), dataStorePrefixes)
	}); err != nil {
		return errors.Trace(err)
	}
	if err := validate.RegisterValidation("cache_store", func(fl validator.FieldLevel) bool {
		return hasAnyPrefix(fl.Field().String(), cacheStorePrefixes)
	}); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(validate.Struct(config))
}
