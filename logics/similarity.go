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
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two sparse score
// vectors. The dot product runs over the intersection of dimensions while the
// norms run over each full vector, which damps similarity against entities
// with many scores outside the overlap. Vectors with no overlap or zero norm
// yield 0.
func CosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}
	var dot float64
	overlap := false
	for id, x := range small {
		if y, exist := large[id]; exist {
			dot += x * y
			overlap = true
		}
	}
	if !overlap {
		return 0
	}
	var normA, normB float64
	for _, x := range a {
		normA += x * x
	}
	for _, y := range b {
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type scored struct {
	id    string
	score float64
}

// topSimilar ranks the rows of matrix by cosine similarity to the target
// vector, keeping at most n rows with positive similarity. Rows with equal
// similarity order by ascending id so results are deterministic. The target id
// itself is excluded.
func topSimilar(matrix ScoreMatrix, targetId string, target map[string]float64, n int) []scored {
	ids := make([]string, 0, len(matrix))
	for id := range matrix {
		if id != targetId {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	similar := make([]scored, 0, len(ids))
	for _, id := range ids {
		if similarity := CosineSimilarity(target, matrix[id]); similarity > 0 {
			similar = append(similar, scored{id: id, score: similarity})
		}
	}
	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].score > similar[j].score
	})
	if len(similar) > n {
		similar = similar[:n]
	}
	return similar
}

// rankCandidates orders accumulated candidate scores descending, breaking ties
// by ascending id, and keeps at most n ids.
func rankCandidates(candidates map[string]float64, n int) []string {
	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sort.SliceStable(ids, func(i, j int) bool {
		return candidates[ids[i]] > candidates[ids[j]]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}
