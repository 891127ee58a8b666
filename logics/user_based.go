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

// numNeighborUsers is how many similar users contribute candidates.
const numNeighborUsers = 10

// UserBased recommends items scored by the users most similar to the target
// user, weighting each candidate by neighbor similarity times the neighbor's
// score. Items the target user already scored are excluded.
type UserBased struct {
	matrices *MatrixProvider
}

// NewUserBased creates a user-based collaborative filtering strategy.
func NewUserBased(matrices *MatrixProvider) *UserBased {
	return &UserBased{matrices: matrices}
}

// Name returns the strategy name.
func (s *UserBased) Name() string {
	return StrategyUserBased
}

// Recommend returns at most n item ids ranked for the user.
func (s *UserBased) Recommend(ctx context.Context, userId string, n int) ([]string, error) {
	matrix, err := s.matrices.UserItemMatrix(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	userVector, exist := matrix[userId]
	if !exist {
		return nil, nil
	}
	candidates := make(map[string]float64)
	for _, neighbor := range topSimilar(matrix, userId, userVector, numNeighborUsers) {
		for itemId, score := range matrix[neighbor.id] {
			if _, seen := userVector[itemId]; !seen {
				candidates[itemId] += neighbor.score * score
			}
		}
	}
	return rankCandidates(candidates, n), nil
}
