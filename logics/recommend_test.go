// Copyright 2025 reco Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logics

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/reco-io/reco/config"
	"github.com/reco-io/reco/storage/cache"
	"github.com/reco-io/reco/storage/data"
)

func newTestRecommender(t *testing.T) *Recommender {
	dataClient, err := data.Open("inmemory://", "")
	assert.NoError(t, err)
	cacheClient, err := cache.Open("inmemory://")
	assert.NoError(t, err)

	ctx := context.Background()
	err = dataClient.BatchInsertItems(ctx, []data.Item{
		{ItemId: "m1", Rating: 8},
		{ItemId: "m2", Rating: 7.5},
		{ItemId: "m3", Rating: 6},
		{ItemId: "m4", Rating: 7},
		{ItemId: "m5", Rating: 5},
		{ItemId: "m6", Rating: 9.5},
		{ItemId: "m7", Rating: 9.9, IsHidden: true},
	})
	assert.NoError(t, err)
	err = dataClient.BatchInsertFeedback(ctx, []data.Feedback{
		feedbackAt(data.FeedbackTypeRating, "u1", "m1", 8, 0),
		feedbackAt(data.FeedbackTypeRating, "u1", "m2", 10, time.Minute),
		feedbackAt(data.FeedbackTypeRating, "u1", "m3", 8, 2*time.Minute),
		feedbackAt(data.FeedbackTypeRating, "u2", "m1", 10, 3*time.Minute),
		feedbackAt(data.FeedbackTypeRating, "u2", "m2", 6, 4*time.Minute),
		feedbackAt(data.FeedbackTypePurchase, "u2", "m4", 0, 5*time.Minute),
		feedbackAt(data.FeedbackTypeLike, "u3", "m1", 0, 6*time.Minute),
		feedbackAt(data.FeedbackTypeRating, "u3", "m3", 9, 7*time.Minute),
		feedbackAt(data.FeedbackTypePurchase, "u3", "m5", 0, 8*time.Minute),
		// cold start user with only two relevant events
		feedbackAt(data.FeedbackTypeRating, "uc", "m1", 9, 9*time.Minute),
		feedbackAt(data.FeedbackTypeLike, "uc", "m2", 0, 10*time.Minute),
		feedbackAt(data.FeedbackTypeView, "uc", "m3", 0, 11*time.Minute),
	}, true)
	assert.NoError(t, err)

	return NewRecommender(config.GetDefaultConfig(), dataClient, cacheClient)
}

func itemIds(items []data.Item) []string {
	return lo.Map(items, func(item data.Item, _ int) string {
		return item.ItemId
	})
}

func TestGetRecommendationsUserBased(t *testing.T) {
	r := newTestRecommender(t)
	items, err := r.GetRecommendations(context.Background(), "u1", StrategyUserBased, 2)
	assert.NoError(t, err)
	assert.Equal(t, []string{"m4", "m5"}, itemIds(items))
}

func TestGetRecommendationsItemBased(t *testing.T) {
	r := newTestRecommender(t)
	items, err := r.GetRecommendations(context.Background(), "u1", StrategyItemBased, 2)
	assert.NoError(t, err)
	assert.Equal(t, []string{"m5", "m4"}, itemIds(items))
}

func TestGetRecommendationsHybrid(t *testing.T) {
	r := newTestRecommender(t)
	items, err := r.GetRecommendations(context.Background(), "u1", StrategyHybrid, 4)
	assert.NoError(t, err)
	// both halves merge without duplicates, then popular items backfill
	assert.Equal(t, []string{"m4", "m5", "m6", "m1"}, itemIds(items))
}

func TestGetRecommendationsColdStart(t *testing.T) {
	r := newTestRecommender(t)
	ctx := context.Background()
	// views carry no weight, so uc has only two relevant events
	for _, strategy := range []string{StrategyUserBased, StrategyItemBased, StrategyHybrid} {
		items, err := r.GetRecommendations(ctx, "uc", strategy, 3)
		assert.NoError(t, err)
		assert.Equal(t, []string{"m6", "m1", "m2"}, itemIds(items))
	}
	// unknown users fall back as well
	items, err := r.GetRecommendations(ctx, "stranger", StrategyHybrid, 3)
	assert.NoError(t, err)
	assert.Equal(t, []string{"m6", "m1", "m2"}, itemIds(items))
}

func TestGetRecommendationsInvalidStrategy(t *testing.T) {
	r := newTestRecommender(t)
	_, err := r.GetRecommendations(context.Background(), "u1", "nonsense", 10)
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

type failingStrategy struct{}

func (failingStrategy) Name() string {
	return StrategyItemBased
}

func (failingStrategy) Recommend(context.Context, string, int) ([]string, error) {
	return nil, errors.New("strategy exploded")
}

func TestGetRecommendationsHybridIsolatesFailure(t *testing.T) {
	r := newTestRecommender(t)
	r.strategies[StrategyItemBased] = failingStrategy{}
	items, err := r.GetRecommendations(context.Background(), "u1", StrategyHybrid, 4)
	assert.NoError(t, err)
	// the user-based half survives, popular items fill the rest
	assert.Equal(t, []string{"m4", "m5", "m6", "m1"}, itemIds(items))
}

func TestGetRecommendationsSingleStrategyDegrades(t *testing.T) {
	r := newTestRecommender(t)
	r.strategies[StrategyItemBased] = failingStrategy{}
	items, err := r.GetRecommendations(context.Background(), "u1", StrategyItemBased, 3)
	assert.NoError(t, err)
	// a failed strategy degrades to popular items instead of an error
	assert.Equal(t, []string{"m6", "m1", "m2"}, itemIds(items))
}

func TestGetSimilarItems(t *testing.T) {
	r := newTestRecommender(t)
	ctx := context.Background()
	items, err := r.GetSimilarItems(ctx, "m1", 2)
	assert.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3"}, itemIds(items))

	items, err = r.GetSimilarItems(ctx, "unknown", 10)
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetPopularItems(t *testing.T) {
	r := newTestRecommender(t)
	items := r.GetPopularItems(context.Background(), 3)
	// hidden items never surface
	assert.Equal(t, []string{"m6", "m1", "m2"}, itemIds(items))
}

func TestGetRecommendationsDefaultLimit(t *testing.T) {
	r := newTestRecommender(t)
	items, err := r.GetRecommendations(context.Background(), "u1", StrategyUserBased, 0)
	assert.NoError(t, err)
	// collaborative candidates first, then popular backfill, capped at the
	// default budget and free of duplicates
	assert.LessOrEqual(t, len(items), r.cfg.Recommend.DefaultN)
	ids := itemIds(items)
	assert.Equal(t, lo.Uniq(ids), ids)
	assert.Equal(t, []string{"m4", "m5"}, ids[:2])
}
