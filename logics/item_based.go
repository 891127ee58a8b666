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

	"github.com/juju/errors"
)

// numNeighborItems is how many similar items each scored item contributes.
const numNeighborItems = 20

// ItemBased recommends items similar to the ones the target user already
// scored, weighting each candidate by item similarity times the user's score
// for the anchor item. Items the user already scored are excluded.
type ItemBased struct {
	matrices *MatrixProvider
}

// NewItemBased creates an item-based collaborative filtering strategy.
func NewItemBased(matrices *MatrixProvider) *ItemBased {
	return &ItemBased{matrices: matrices}
}

// Name returns the strategy name.
func (s *ItemBased) Name() string {
	return StrategyItemBased
}

// Recommend returns at most n item ids ranked for the user.
func (s *ItemBased) Recommend(ctx context.Context, userId string, n int) ([]string, error) {
	itemMatrix, err := s.matrices.ItemUserMatrix(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	userVector, exist := itemMatrix.Transpose()[userId]
	if !exist {
		return nil, nil
	}
	candidates := make(map[string]float64)
	for anchorId, anchorScore := range userVector {
		for _, similar := range topSimilar(itemMatrix, anchorId, itemMatrix[anchorId], numNeighborItems) {
			if _, seen := userVector[similar.id]; !seen {
				candidates[similar.id] += similar.score * anchorScore
			}
		}
	}
	return rankCandidates(candidates, n), nil
}
