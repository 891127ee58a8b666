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

package main

import (
	"fmt"
	_ "net/http/pprof"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reco-io/reco/base/log"
	"github.com/reco-io/reco/cmd/version"
	"github.com/reco-io/reco/config"
	"github.com/reco-io/reco/server"
	"github.com/reco-io/reco/storage/cache"
	"github.com/reco-io/reco/storage/data"
)

var recoCommand = &cobra.Command{
	Use:   "reco",
	Short: "The reco recommender service.",
	Run: func(cmd *cobra.Command, args []string) {
		// show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)
		// load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		// open data store
		log.Logger().Info("connect data store",
			zap.String("database", log.RedactDBURL(conf.Database.DataStore)))
		dataClient, err := data.Open(conf.Database.DataStore, conf.Database.TablePrefix)
		if err != nil {
			log.Logger().Fatal("failed to connect data store", zap.Error(err))
		}
		if err = dataClient.Init(); err != nil {
			log.Logger().Fatal("failed to initialize data store", zap.Error(err))
		}
		// open cache store
		log.Logger().Info("connect cache store",
			zap.String("database", log.RedactDBURL(conf.Database.CacheStore)))
		cacheClient, err := cache.Open(conf.Database.CacheStore)
		if err != nil {
			log.Logger().Fatal("failed to connect cache store", zap.Error(err))
		}
		// start server
		s := server.NewRestServer(conf, dataClient, cacheClient)
		s.StartHttpServer()
	},
}

func init() {
	log.AddFlags(recoCommand.PersistentFlags())
	recoCommand.PersistentFlags().BoolP("version", "v", false, "reco version")
	recoCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	recoCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
}

func main() {
	if err := recoCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
