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
	"fmt"
	"net/http"
	"strconv"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/reco-io/reco/base/log"
	"github.com/reco-io/reco/config"
	"github.com/reco-io/reco/logics"
	"github.com/reco-io/reco/storage/cache"
	"github.com/reco-io/reco/storage/data"
)

// RestServer implements the REST API server.
type RestServer struct {
	DataClient  data.Database
	CacheClient cache.Database
	Config      *config.Config
	Recommender *logics.Recommender
	HttpHost    string
	HttpPort    int
	WebService  *restful.WebService
}

// NewRestServer creates a REST API server on the given stores.
func NewRestServer(cfg *config.Config, dataClient data.Database, cacheClient cache.Database) *RestServer {
	return &RestServer{
		DataClient:  dataClient,
		CacheClient: cacheClient,
		Config:      cfg,
		Recommender: logics.NewRecommender(cfg, dataClient, cacheClient),
		HttpHost:    cfg.Server.HttpHost,
		HttpPort:    cfg.Server.HttpPort,
		WebService:  new(restful.WebService),
	}
}

// StartHttpServer starts the REST API server.
func (s *RestServer) StartHttpServer() {
	// register restful APIs
	s.CreateWebService()
	restful.DefaultContainer.Add(s.WebService)
	// register swagger
	specConfig := restfulspec.Config{
		WebServices: restful.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}
	restful.DefaultContainer.Add(restfulspec.NewOpenAPIService(specConfig))
	// register prometheus
	http.Handle("/metrics", promhttp.Handler())

	log.Logger().Info("start http server",
		zap.String("url", fmt.Sprintf("http://%s:%d", s.HttpHost, s.HttpPort)))
	log.Logger().Fatal("failed to start http server",
		zap.Error(http.ListenAndServe(fmt.Sprintf("%s:%d", s.HttpHost, s.HttpPort), nil)))
}

func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	if route := req.SelectedRoutePath(); route != "" {
		RestAPIRequestSecondsVec.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
	log.ResponseLogger(resp).Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
		zap.Int("status_code", resp.StatusCode()))
}

// CreateWebService creates web service.
func (s *RestServer) CreateWebService() {
	ws := s.WebService
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(LogFilter)

	/* Interactions with data store */

	// Insert an item
	ws.Route(ws.POST("/item").To(s.insertItem).
		Doc("Insert an item.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"item"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Reads(data.Item{}).
		Writes(Success{}))
	// Insert items
	ws.Route(ws.POST("/items").To(s.insertItems).
		Doc("Insert items.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"item"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Reads([]data.Item{}).
		Writes(Success{}))
	// Get items
	ws.Route(ws.GET("/items").To(s.getItems).
		Doc("Get items.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"item"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("int")).
		Param(ws.QueryParameter("cursor", "cursor for next page").DataType("string")).
		Writes(ItemIterator{}))
	// Get an item
	ws.Route(ws.GET("/item/{item-id}").To(s.getItem).
		Doc("Get an item.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"item"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Param(ws.PathParameter("item-id", "identifier of the item").DataType("string")).
		Writes(data.Item{}))
	// Delete an item
	ws.Route(ws.DELETE("/item/{item-id}").To(s.deleteItem).
		Doc("Delete an item and its feedback.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"item"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Param(ws.PathParameter("item-id", "identifier of the item").DataType("string")).
		Writes(Success{}))

	// Insert feedback
	ws.Route(ws.POST("/feedback").To(s.insertFeedback).
		Doc("Insert feedback. Existing feedback will not be overwritten.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"feedback"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Reads([]data.Feedback{}).
		Writes(Success{}))
	// Put feedback
	ws.Route(ws.PUT("/feedback").To(s.putFeedback).
		Doc("Insert feedback. Existing feedback will be overwritten.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"feedback"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Reads([]data.Feedback{}).
		Writes(Success{}))
	// Get feedback by user
	ws.Route(ws.GET("/feedback/{user-id}").To(s.getUserFeedback).
		Doc("Get feedback by user id.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"feedback"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("string")).
		Writes([]data.Feedback{}))
	// Delete feedback by user and item
	ws.Route(ws.DELETE("/feedback/{user-id}/{item-id}").To(s.deleteUserItemFeedback).
		Doc("Delete feedback between a user and an item.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"feedback"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("string")).
		Param(ws.PathParameter("item-id", "identifier of the item").DataType("string")).
		Writes(Success{}))

	/* Recommendation APIs */

	// Get recommendations for a user
	ws.Route(ws.GET("/recommend/{user-id}").To(s.getRecommend).
		Doc("Get recommendations for a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("string")).
		Param(ws.QueryParameter("strategy", "strategy of recommendation (user-based, item-based or hybrid)").DataType("string")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("int")).
		Writes([]data.Item{}))
	// Get similar items
	ws.Route(ws.GET("/item/{item-id}/similar").To(s.getSimilar).
		Doc("Get items similar to an item.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Param(ws.PathParameter("item-id", "identifier of the item").DataType("string")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("int")).
		Writes([]data.Item{}))
	// Get popular items
	ws.Route(ws.GET("/popular").To(s.getPopular).
		Doc("Get popular items.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("int")).
		Writes([]data.Item{}))
}

// ParseInt parses an integer query parameter, returning fallback when the
// parameter is absent.
func ParseInt(request *restful.Request, name string, fallback int) (value int, err error) {
	valueString := request.QueryParameter(name)
	value, err = strconv.Atoi(valueString)
	if err != nil && valueString == "" {
		value = fallback
		err = nil
	}
	return
}

// Success is the returned data structure for data insert operations.
type Success struct {
	RowAffected int
}

// ItemIterator is the iterator for items.
type ItemIterator struct {
	Cursor string
	Items  []data.Item
}

func (s *RestServer) getRecommend(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	userId := request.PathParameter("user-id")
	strategy := request.QueryParameter("strategy")
	if strategy == "" {
		strategy = logics.StrategyHybrid
	}
	n, err := ParseInt(request, "n", s.Config.Recommend.DefaultN)
	if err != nil {
		BadRequest(response, err)
		return
	}
	items, err := s.Recommender.GetRecommendations(request.Request.Context(), userId, strategy, n)
	if err != nil {
		if errors.Is(err, logics.ErrInvalidStrategy) {
			BadRequest(response, err)
		} else {
			InternalServerError(response, err)
		}
		return
	}
	RecommendationsTotalVec.WithLabelValues(strategy).Inc()
	Ok(response, items)
}

func (s *RestServer) getSimilar(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	itemId := request.PathParameter("item-id")
	n, err := ParseInt(request, "n", s.Config.Recommend.DefaultN)
	if err != nil {
		BadRequest(response, err)
		return
	}
	items, err := s.Recommender.GetSimilarItems(request.Request.Context(), itemId, n)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, items)
}

func (s *RestServer) getPopular(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	n, err := ParseInt(request, "n", s.Config.Recommend.DefaultN)
	if err != nil {
		BadRequest(response, err)
		return
	}
	Ok(response, s.Recommender.GetPopularItems(request.Request.Context(), n))
}

func (s *RestServer) insertItem(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	item := new(data.Item)
	if err := request.ReadEntity(item); err != nil {
		BadRequest(response, err)
		return
	}
	if item.ItemId == "" {
		BadRequest(response, errors.NotValidf("empty item id"))
		return
	}
	if err := s.DataClient.BatchInsertItems(request.Request.Context(), []data.Item{*item}); err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: 1})
}

func (s *RestServer) insertItems(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	items := new([]data.Item)
	if err := request.ReadEntity(items); err != nil {
		BadRequest(response, err)
		return
	}
	for _, item := range *items {
		if item.ItemId == "" {
			BadRequest(response, errors.NotValidf("empty item id"))
			return
		}
	}
	if err := s.DataClient.BatchInsertItems(request.Request.Context(), *items); err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: len(*items)})
}

func (s *RestServer) getItems(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	cursor := request.QueryParameter("cursor")
	n, err := ParseInt(request, "n", s.Config.Recommend.DefaultN)
	if err != nil {
		BadRequest(response, err)
		return
	}
	cursor, items, err := s.DataClient.GetItems(request.Request.Context(), cursor, n)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, ItemIterator{Cursor: cursor, Items: items})
}

func (s *RestServer) getItem(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	itemId := request.PathParameter("item-id")
	item, err := s.DataClient.GetItem(request.Request.Context(), itemId)
	if err != nil {
		if errors.Is(err, data.ErrItemNotExist) {
			PageNotFound(response, err)
		} else {
			InternalServerError(response, err)
		}
		return
	}
	Ok(response, item)
}

func (s *RestServer) deleteItem(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	itemId := request.PathParameter("item-id")
	if err := s.DataClient.DeleteItem(request.Request.Context(), itemId); err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: 1})
}

func (s *RestServer) insertFeedback(request *restful.Request, response *restful.Response) {
	s.saveFeedback(request, response, false)
}

func (s *RestServer) putFeedback(request *restful.Request, response *restful.Response) {
	s.saveFeedback(request, response, true)
}

func (s *RestServer) saveFeedback(request *restful.Request, response *restful.Response, overwrite bool) {
	if !s.auth(request, response) {
		return
	}
	feedback := new([]data.Feedback)
	if err := request.ReadEntity(feedback); err != nil {
		BadRequest(response, err)
		return
	}
	for _, f := range *feedback {
		if f.FeedbackType == "" || f.UserId == "" || f.ItemId == "" {
			BadRequest(response, errors.NotValidf("feedback missing identifiers"))
			return
		}
	}
	if err := s.DataClient.BatchInsertFeedback(request.Request.Context(), *feedback, overwrite); err != nil {
		InternalServerError(response, err)
		return
	}
	FeedbackInsertedTotal.Add(float64(len(*feedback)))
	Ok(response, Success{RowAffected: len(*feedback)})
}

func (s *RestServer) getUserFeedback(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	userId := request.PathParameter("user-id")
	feedback, err := s.DataClient.GetUserFeedback(request.Request.Context(), userId)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, feedback)
}

func (s *RestServer) deleteUserItemFeedback(request *restful.Request, response *restful.Response) {
	if !s.auth(request, response) {
		return
	}
	userId := request.PathParameter("user-id")
	itemId := request.PathParameter("item-id")
	deleteCount, err := s.DataClient.DeleteUserItemFeedback(request.Request.Context(), userId, itemId)
	if err != nil {
		InternalServerError(response, err)
		return
	}
	Ok(response, Success{RowAffected: deleteCount})
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.Logger().Error("bad request", zap.Error(err))
	if err = response.WriteError(http.StatusBadRequest, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}

// InternalServerError returns an internal server error.
func InternalServerError(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.Logger().Error("internal server error", zap.Error(err))
	if err = response.WriteError(http.StatusInternalServerError, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteError(http.StatusNotFound, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content interface{}) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteAsJson(content); err != nil {
		log.Logger().Error("failed to write json", zap.Error(err))
	}
}

func (s *RestServer) auth(request *restful.Request, response *restful.Response) bool {
	if s.Config.Server.APIKey == "" {
		return true
	}
	apikey := request.HeaderParameter("X-API-Key")
	if apikey == s.Config.Server.APIKey {
		return true
	}
	log.Logger().Error("unauthorized", zap.String("X-API-Key", apikey))
	if err := response.WriteError(http.StatusUnauthorized, fmt.Errorf("unauthorized")); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
	return false
}
