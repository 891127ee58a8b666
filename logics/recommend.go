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
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/reco-io/reco/base/log"
	"github.com/reco-io/reco/config"
	"github.com/reco-io/reco/storage/cache"
	"github.com/reco-io/reco/storage/data"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Strategy names accepted by GetRecommendations.
const (
	StrategyUserBased = "user-based"
	StrategyItemBased = "item-based"
	StrategyHybrid    = "hybrid"
)

// coldStartThreshold is the minimum number of relevant feedback events a user
// needs before collaborative filtering is attempted.
const coldStartThreshold = 3

// ErrInvalidStrategy is returned when the requested strategy name is unknown.
var ErrInvalidStrategy = errors.NotValidf("recommendation strategy")

// Strategy generates a ranked list of item ids for a user.
type Strategy interface {
	Name() string
	Recommend(ctx context.Context, userId string, n int) ([]string, error)
}

// Recommender orchestrates collaborative filtering strategies over the event
// log and catalog. Strategy failures and store failures degrade to shorter or
// empty results, never to a failed request; only an unknown strategy name is
// reported to the caller.
type Recommender struct {
	cfg        *config.Config
	dataClient data.Database
	matrices   *MatrixProvider
	strategies map[string]Strategy
}

// NewRecommender creates a Recommender backed by the given stores.
func NewRecommender(cfg *config.Config, dataClient data.Database, cacheClient cache.Database) *Recommender {
	matrices := NewMatrixProvider(dataClient, cacheClient, cfg.Recommend.MatrixCacheTTL)
	return &Recommender{
		cfg:        cfg,
		dataClient: dataClient,
		matrices:   matrices,
		strategies: map[string]Strategy{
			StrategyUserBased: NewUserBased(matrices),
			StrategyItemBased: NewItemBased(matrices),
		},
	}
}

// GetRecommendations returns at most n catalog items ranked for the user.
// Users with fewer than three relevant feedback events receive popular items.
// The hybrid strategy runs both filters concurrently and interleaves their
// halves, a single failed strategy contributing nothing. Short rankings are
// backfilled with popular items the ranking does not already contain.
func (r *Recommender) GetRecommendations(ctx context.Context, userId, strategyName string, n int) ([]data.Item, error) {
	if n <= 0 {
		n = r.cfg.Recommend.DefaultN
	}
	if strategyName != StrategyHybrid {
		if _, exist := r.strategies[strategyName]; !exist {
			return nil, errors.Annotatef(ErrInvalidStrategy, "%q", strategyName)
		}
	}
	start := time.Now()
	count, err := r.dataClient.CountUserFeedback(ctx, userId, data.RelevantFeedbackTypes...)
	if err != nil {
		log.Logger().Error("failed to count user feedback",
			zap.String("user_id", userId), zap.Error(err))
		count = 0
	}
	if count < coldStartThreshold {
		log.Logger().Debug("cold start user, falling back to popular items",
			zap.String("user_id", userId), zap.Int("feedback_count", count))
		return r.popularItems(ctx, n, nil), nil
	}
	var itemIds []string
	if strategyName == StrategyHybrid {
		itemIds = r.hybrid(ctx, userId, n)
	} else {
		itemIds = r.runStrategy(ctx, r.strategies[strategyName], userId, n)
	}
	if len(itemIds) < n {
		itemIds = append(itemIds, lo.Map(r.popularItems(ctx, n-len(itemIds), itemIds), func(item data.Item, _ int) string {
			return item.ItemId
		})...)
	}
	items := r.resolveItems(ctx, itemIds)
	log.Logger().Debug("generated recommendations",
		zap.String("user_id", userId),
		zap.String("strategy", strategyName),
		zap.Int("count", len(items)),
		zap.Duration("elapsed", time.Since(start)))
	return items, nil
}

// GetSimilarItems returns at most n catalog items most similar to the given
// item. Unknown items yield an empty result.
func (r *Recommender) GetSimilarItems(ctx context.Context, itemId string, n int) ([]data.Item, error) {
	if n <= 0 {
		n = r.cfg.Recommend.DefaultN
	}
	matrix, err := r.matrices.ItemUserMatrix(ctx)
	if err != nil {
		log.Logger().Error("failed to load item matrix",
			zap.String("item_id", itemId), zap.Error(err))
		return nil, nil
	}
	target, exist := matrix[itemId]
	if !exist {
		return nil, nil
	}
	similar := topSimilar(matrix, itemId, target, n)
	itemIds := lo.Map(similar, func(s scored, _ int) string {
		return s.id
	})
	return r.resolveItems(ctx, itemIds), nil
}

// GetPopularItems returns at most n visible catalog items at or above the
// configured rating threshold, best rated first.
func (r *Recommender) GetPopularItems(ctx context.Context, n int) []data.Item {
	if n <= 0 {
		n = r.cfg.Recommend.DefaultN
	}
	return r.popularItems(ctx, n, nil)
}

// hybrid fans out to both strategies, each asked for half of the budget, and
// merges the user-based half before the item-based half with duplicates
// removed. A failed strategy contributes an empty half.
func (r *Recommender) hybrid(ctx context.Context, userId string, n int) []string {
	half := (n + 1) / 2
	halves := make([][]string, 2)
	var wg sync.WaitGroup
	for i, name := range []string{StrategyUserBased, StrategyItemBased} {
		wg.Add(1)
		go func(i int, strategy Strategy) {
			defer wg.Done()
			halves[i] = r.runStrategy(ctx, strategy, userId, half)
		}(i, r.strategies[name])
	}
	wg.Wait()
	merged := lo.Uniq(append(halves[0], halves[1]...))
	if len(merged) > n {
		merged = merged[:n]
	}
	return merged
}

// runStrategy executes one strategy, converting failure into an empty result.
func (r *Recommender) runStrategy(ctx context.Context, strategy Strategy, userId string, n int) []string {
	itemIds, err := strategy.Recommend(ctx, userId, n)
	if err != nil {
		log.Logger().Error("recommendation strategy failed",
			zap.String("strategy", strategy.Name()),
			zap.String("user_id", userId),
			zap.Error(err))
		return nil
	}
	return itemIds
}

// popularItems loads top rated visible items, skipping any id in exclude.
// Failures degrade to an empty result.
func (r *Recommender) popularItems(ctx context.Context, n int, exclude []string) []data.Item {
	if n <= 0 {
		return nil
	}
	excluded := mapset.NewSet(exclude...)
	items, err := r.dataClient.GetItemsAboveRating(ctx, r.cfg.Recommend.PopularRatingThreshold, n+excluded.Cardinality())
	if err != nil {
		log.Logger().Error("failed to load popular items", zap.Error(err))
		return nil
	}
	items = lo.Filter(items, func(item data.Item, _ int) bool {
		return !excluded.Contains(item.ItemId)
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// resolveItems loads catalog entries for the ranked ids, preserving ranking
// order. Ids no longer in the catalog are dropped.
func (r *Recommender) resolveItems(ctx context.Context, itemIds []string) []data.Item {
	if len(itemIds) == 0 {
		return nil
	}
	items, err := r.dataClient.BatchGetItems(ctx, itemIds)
	if err != nil {
		log.Logger().Error("failed to resolve recommended items", zap.Error(err))
		return nil
	}
	byId := lo.SliceToMap(items, func(item data.Item) (string, data.Item) {
		return item.ItemId, item
	})
	resolved := make([]data.Item, 0, len(itemIds))
	for _, itemId := range itemIds {
		if item, exist := byId[itemId]; exist {
			resolved = append(resolved, item)
		}
	}
	return resolved
}
