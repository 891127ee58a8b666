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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/suite"

	"github.com/reco-io/reco/base/log"
	"github.com/reco-io/reco/config"
	"github.com/reco-io/reco/logics"
	"github.com/reco-io/reco/storage/cache"
	"github.com/reco-io/reco/storage/data"
)

const apiKey = "test_api_key"

type ServerTestSuite struct {
	suite.Suite
	RestServer
	handler *restful.Container
}

func (suite *ServerTestSuite) SetupSuite() {
	log.CloseLogger()
	var err error
	suite.DataClient, err = data.Open("inmemory://", "")
	suite.NoError(err)
	suite.CacheClient, err = cache.Open("inmemory://")
	suite.NoError(err)
	suite.NoError(suite.DataClient.Init())

	suite.WebService = new(restful.WebService)
	suite.CreateWebService()
	suite.handler = restful.NewContainer()
	suite.handler.Add(suite.WebService)
}

func (suite *ServerTestSuite) TearDownSuite() {
	suite.NoError(suite.DataClient.Close())
	suite.NoError(suite.CacheClient.Close())
}

func (suite *ServerTestSuite) SetupTest() {
	suite.NoError(suite.DataClient.Purge())
	suite.NoError(suite.CacheClient.Purge())
	suite.Config = config.GetDefaultConfig()
	suite.Config.Server.APIKey = apiKey
	suite.Recommender = logics.NewRecommender(suite.Config, suite.DataClient, suite.CacheClient)
}

func (suite *ServerTestSuite) marshal(v interface{}) string {
	s, err := json.Marshal(v)
	suite.NoError(err)
	return string(s)
}

func (suite *ServerTestSuite) TestItems() {
	t := suite.T()
	timestamp := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	items := []data.Item{
		{ItemId: "1", Rating: 8.5, Categories: []string{"drama"}, Timestamp: timestamp},
		{ItemId: "2", Rating: 6.0, Timestamp: timestamp},
		{ItemId: "3", Rating: 9.1, Labels: []string{"new"}, Timestamp: timestamp},
	}
	apitest.New().
		Handler(suite.handler).
		Post("/api/item").
		Header("X-API-Key", apiKey).
		JSON(items[0]).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"RowAffected":1}`).
		End()
	apitest.New().
		Handler(suite.handler).
		Post("/api/items").
		Header("X-API-Key", apiKey).
		JSON(items[1:]).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"RowAffected":2}`).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/item/1").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal(items[0])).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/items").
		Header("X-API-Key", apiKey).
		Query("n", "2").
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal(ItemIterator{Cursor: "2", Items: items[:2]})).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/items").
		Header("X-API-Key", apiKey).
		Query("n", "2").
		Query("cursor", "2").
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal(ItemIterator{Cursor: "", Items: items[2:]})).
		End()
	apitest.New().
		Handler(suite.handler).
		Delete("/api/item/1").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"RowAffected":1}`).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/item/1").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusNotFound).
		End()
	// empty item id is rejected
	apitest.New().
		Handler(suite.handler).
		Post("/api/item").
		Header("X-API-Key", apiKey).
		JSON(data.Item{Rating: 5}).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func (suite *ServerTestSuite) TestFeedback() {
	t := suite.T()
	timestamp := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	feedback := []data.Feedback{
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeRating, UserId: "alice", ItemId: "1"}, Rating: 8, Timestamp: timestamp},
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeLike, UserId: "alice", ItemId: "2"}, Timestamp: timestamp},
	}
	apitest.New().
		Handler(suite.handler).
		Post("/api/feedback").
		Header("X-API-Key", apiKey).
		JSON(feedback).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"RowAffected":2}`).
		End()
	// POST does not overwrite
	updated := feedback[0]
	updated.Rating = 2
	apitest.New().
		Handler(suite.handler).
		Post("/api/feedback").
		Header("X-API-Key", apiKey).
		JSON([]data.Feedback{updated}).
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/feedback/alice").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal([]data.Feedback{feedback[1], feedback[0]})).
		End()
	// PUT overwrites
	apitest.New().
		Handler(suite.handler).
		Put("/api/feedback").
		Header("X-API-Key", apiKey).
		JSON([]data.Feedback{updated}).
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/feedback/alice").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal([]data.Feedback{feedback[1], updated})).
		End()
	apitest.New().
		Handler(suite.handler).
		Delete("/api/feedback/alice/1").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"RowAffected":1}`).
		End()
	// feedback without identifiers is rejected
	apitest.New().
		Handler(suite.handler).
		Post("/api/feedback").
		Header("X-API-Key", apiKey).
		JSON([]data.Feedback{{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeLike, UserId: "alice"}}}).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

// seedRecommendData inserts a small catalog and enough feedback for
// collaborative filtering around user u1.
func (suite *ServerTestSuite) seedRecommendData() map[string]data.Item {
	ctx := context.Background()
	items := []data.Item{
		{ItemId: "m1", Rating: 8},
		{ItemId: "m2", Rating: 7.5},
		{ItemId: "m3", Rating: 6},
		{ItemId: "m4", Rating: 7},
		{ItemId: "m5", Rating: 5},
		{ItemId: "m6", Rating: 9.5},
		{ItemId: "m7", Rating: 9.9, IsHidden: true},
	}
	suite.NoError(suite.DataClient.BatchInsertItems(ctx, items))
	timestamp := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	feedback := []data.Feedback{
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeRating, UserId: "u1", ItemId: "m1"}, Rating: 8},
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeRating, UserId: "u1", ItemId: "m2"}, Rating: 10},
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeRating, UserId: "u1", ItemId: "m3"}, Rating: 8},
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeRating, UserId: "u2", ItemId: "m1"}, Rating: 10},
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeRating, UserId: "u2", ItemId: "m2"}, Rating: 6},
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypePurchase, UserId: "u2", ItemId: "m4"}},
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeLike, UserId: "u3", ItemId: "m1"}},
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypeRating, UserId: "u3", ItemId: "m3"}, Rating: 9},
		{FeedbackKey: data.FeedbackKey{FeedbackType: data.FeedbackTypePurchase, UserId: "u3", ItemId: "m5"}},
	}
	for i := range feedback {
		feedback[i].Timestamp = timestamp.Add(time.Duration(i) * time.Minute)
	}
	suite.NoError(suite.DataClient.BatchInsertFeedback(ctx, feedback, true))
	byId := make(map[string]data.Item)
	for _, item := range items {
		byId[item.ItemId] = item
	}
	return byId
}

func (suite *ServerTestSuite) TestRecommend() {
	t := suite.T()
	items := suite.seedRecommendData()
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/u1").
		Header("X-API-Key", apiKey).
		Query("strategy", "user-based").
		Query("n", "2").
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal([]data.Item{items["m4"], items["m5"]})).
		End()
	// hybrid is the default strategy, backfilled with popular items
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/u1").
		Header("X-API-Key", apiKey).
		Query("n", "4").
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal([]data.Item{items["m4"], items["m5"], items["m6"], items["m1"]})).
		End()
	// unknown users receive popular items
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/stranger").
		Header("X-API-Key", apiKey).
		Query("n", "3").
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal([]data.Item{items["m6"], items["m1"], items["m2"]})).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/recommend/u1").
		Header("X-API-Key", apiKey).
		Query("strategy", "nonsense").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func (suite *ServerTestSuite) TestSimilar() {
	t := suite.T()
	items := suite.seedRecommendData()
	apitest.New().
		Handler(suite.handler).
		Get("/api/item/m1/similar").
		Header("X-API-Key", apiKey).
		Query("n", "2").
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal([]data.Item{items["m2"], items["m3"]})).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/item/unknown/similar").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusOK).
		Body(`null`).
		End()
}

func (suite *ServerTestSuite) TestPopular() {
	t := suite.T()
	items := suite.seedRecommendData()
	// hidden items never surface
	apitest.New().
		Handler(suite.handler).
		Get("/api/popular").
		Header("X-API-Key", apiKey).
		Query("n", "3").
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal([]data.Item{items["m6"], items["m1"], items["m2"]})).
		End()
}

func (suite *ServerTestSuite) TestAuth() {
	t := suite.T()
	apitest.New().
		Handler(suite.handler).
		Get("/api/popular").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/popular").
		Header("X-API-Key", "wrong_key").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
