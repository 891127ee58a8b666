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
	"time"

	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for the recommender.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Server    ServerConfig    `mapstructure:"server"`
}

type DatabaseConfig struct {
	// DataStore holds catalog items and the feedback event log.
	DataStore string `mapstructure:"data_store" validate:"required,data_store"`
	// CacheStore holds the serialized score matrix.
	CacheStore  string `mapstructure:"cache_store" validate:"required,cache_store"`
	TablePrefix string `mapstructure:"table_prefix"`
}

type RecommendConfig struct {
	// MatrixCacheTTL bounds the staleness of the cached score matrix. New
	// feedback is not reflected in recommendations until the entry expires.
	MatrixCacheTTL         time.Duration `mapstructure:"matrix_cache_ttl" validate:"gt=0"`
	PopularRatingThreshold float64       `mapstructure:"popular_rating_threshold" validate:"gte=0,lte=10"`
	DefaultN               int           `mapstructure:"default_n" validate:"gt=0"`
}

type ServerConfig struct {
	APIKey   string `mapstructure:"api_key"`
	HttpHost string `mapstructure:"http_host"`
	HttpPort int    `mapstructure:"http_port" validate:"gte=0"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			TablePrefix: "reco_",
		},
		Recommend: RecommendConfig{
			MatrixCacheTTL:         300 * time.Second,
			PopularRatingThreshold: 7,
			DefaultN:               10,
		},
		Server: ServerConfig{
			HttpHost: "127.0.0.1",
			HttpPort: 8087,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	v.SetDefault("database.table_prefix", defaultConfig.Database.TablePrefix)
	v.SetDefault("recommend.matrix_cache_ttl", defaultConfig.Recommend.MatrixCacheTTL)
	v.SetDefault("recommend.popular_rating_threshold", defaultConfig.Recommend.PopularRatingThreshold)
	v.SetDefault("recommend.default_n", defaultConfig.Recommend.DefaultN)
	v.SetDefault("server.http_host", defaultConfig.Server.HttpHost)
	v.SetDefault("server.http_port", defaultConfig.Server.HttpPort)
}

// LoadConfig loads and validates configuration from a TOML file. Every key can
// be overridden by a RECO_* environment variable.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("reco")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
