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
	"sort"
	"time"

	"github.com/juju/errors"
	"github.com/reco-io/reco/storage/cache"
	"github.com/reco-io/reco/storage/data"
)

// ScoreMatrix maps an entity id to the ids it is paired with and the score of
// each pairing. The same type serves both orientations, user to item and item
// to user, and its JSON form is the cache wire format.
type ScoreMatrix map[string]map[string]float64

const (
	likeScore     = 5
	purchaseScore = 4
)

// feedbackScore converts a feedback event to its matrix weight. Events of
// types that carry no preference signal, and rating events with values outside
// [1, 10], contribute nothing.
func feedbackScore(f data.Feedback) (float64, bool) {
	switch f.FeedbackType {
	case data.FeedbackTypeRating:
		if f.Rating < 1 || f.Rating > 10 {
			return 0, false
		}
		return f.Rating / 2, true
	case data.FeedbackTypeLike:
		return likeScore, true
	case data.FeedbackTypePurchase:
		return purchaseScore, true
	default:
		return 0, false
	}
}

// BuildUserItemMatrix folds feedback events into a user-to-item score matrix.
// Events are applied in timestamp order so a (user, item) pair keeps a single
// score, the one from its latest weighted event. Events missing a user id or
// item id are skipped.
func BuildUserItemMatrix(feedback []data.Feedback) ScoreMatrix {
	sorted := make([]data.Feedback, len(feedback))
	copy(sorted, feedback)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	matrix := make(ScoreMatrix)
	for _, f := range sorted {
		if f.UserId == "" || f.ItemId == "" {
			continue
		}
		score, ok := feedbackScore(f)
		if !ok {
			continue
		}
		if _, exist := matrix[f.UserId]; !exist {
			matrix[f.UserId] = make(map[string]float64)
		}
		matrix[f.UserId][f.ItemId] = score
	}
	return matrix
}

// Transpose swaps the orientation of the matrix, so that m[a][b] == t[b][a]
// for every scored pair.
func (m ScoreMatrix) Transpose() ScoreMatrix {
	t := make(ScoreMatrix)
	for rowId, row := range m {
		for colId, score := range row {
			if _, exist := t[colId]; !exist {
				t[colId] = make(map[string]float64)
			}
			t[colId][rowId] = score
		}
	}
	return t
}

// MatrixProvider loads score matrices from the event log, memoizing the
// item-to-user orientation in the cache store under a fixed key. The
// user-to-item orientation is derived by transposing the same snapshot, so the
// two views always agree.
type MatrixProvider struct {
	dataClient  data.Database
	cacheClient cache.Database
	ttl         time.Duration
}

// NewMatrixProvider creates a MatrixProvider.
func NewMatrixProvider(dataClient data.Database, cacheClient cache.Database, ttl time.Duration) *MatrixProvider {
	return &MatrixProvider{
		dataClient:  dataClient,
		cacheClient: cacheClient,
		ttl:         ttl,
	}
}

// ItemUserMatrix returns the item-to-user score matrix, rebuilding it from the
// event log on a cache miss.
func (p *MatrixProvider) ItemUserMatrix(ctx context.Context) (ScoreMatrix, error) {
	return cache.Memoize(ctx, p.cacheClient, cache.ItemUserMatrix, p.ttl,
		func(ctx context.Context) (ScoreMatrix, error) {
			feedback, err := p.dataClient.GetFeedback(ctx, data.RelevantFeedbackTypes...)
			if err != nil {
				return nil, errors.Trace(err)
			}
			return BuildUserItemMatrix(feedback).Transpose(), nil
		})
}

// UserItemMatrix returns the user-to-item score matrix derived from the same
// snapshot as ItemUserMatrix.
func (p *MatrixProvider) UserItemMatrix(ctx context.Context) (ScoreMatrix, error) {
	matrix, err := p.ItemUserMatrix(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return matrix.Transpose(), nil
}
