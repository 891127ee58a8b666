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

package data

import (
	"context"
	"sort"
	"sync"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// InMemory is a process-local data storage for development and testing. It
// mirrors the upsert and query semantics of the SQL and MongoDB storages.
type InMemory struct {
	mu       sync.RWMutex
	items    map[string]Item
	feedback map[FeedbackKey]Feedback
}

// NewInMemory creates an in-memory data storage.
func NewInMemory() *InMemory {
	return &InMemory{
		items:    make(map[string]Item),
		feedback: make(map[FeedbackKey]Feedback),
	}
}

// Init the in-memory storage. A no-op.
func (m *InMemory) Init() error {
	return nil
}

// Ping the in-memory storage. A no-op.
func (m *InMemory) Ping() error {
	return nil
}

// Close the in-memory storage. A no-op.
func (m *InMemory) Close() error {
	return nil
}

// Purge all items and feedback.
func (m *InMemory) Purge() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]Item)
	m.feedback = make(map[FeedbackKey]Feedback)
	return nil
}

func (m *InMemory) BatchInsertItems(_ context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.items[item.ItemId] = item
	}
	return nil
}

func (m *InMemory) BatchGetItems(_ context.Context, itemIds []string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]Item, 0, len(itemIds))
	for _, itemId := range lo.Uniq(itemIds) {
		if item, exist := m.items[itemId]; exist {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ItemId < items[j].ItemId
	})
	return items, nil
}

func (m *InMemory) GetItem(_ context.Context, itemId string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, exist := m.items[itemId]
	if !exist {
		return Item{}, errors.Annotate(ErrItemNotExist, itemId)
	}
	return item, nil
}

func (m *InMemory) DeleteItem(_ context.Context, itemId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, itemId)
	for key := range m.feedback {
		if key.ItemId == itemId {
			delete(m.feedback, key)
		}
	}
	return nil
}

func (m *InMemory) GetItems(_ context.Context, cursor string, n int) (string, []Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	itemIds := lo.Keys(m.items)
	sort.Strings(itemIds)
	items := make([]Item, 0, n)
	for _, itemId := range itemIds {
		if cursor != "" && itemId <= cursor {
			continue
		}
		items = append(items, m.items[itemId])
		if len(items) == n {
			return itemId, items, nil
		}
	}
	return "", items, nil
}

func (m *InMemory) GetItemsAboveRating(_ context.Context, threshold float64, n int) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]Item, 0, len(m.items))
	for _, item := range m.items {
		if !item.IsHidden && item.Rating >= threshold {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Rating != items[j].Rating {
			return items[i].Rating > items[j].Rating
		}
		return items[i].ItemId < items[j].ItemId
	})
	if len(items) > n {
		items = items[:n]
	}
	return items, nil
}

func (m *InMemory) BatchInsertFeedback(_ context.Context, feedback []Feedback, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range feedback {
		if f.UserId == "" || f.ItemId == "" {
			continue
		}
		if _, exist := m.feedback[f.FeedbackKey]; exist && !overwrite {
			continue
		}
		m.feedback[f.FeedbackKey] = f
	}
	return nil
}

func (m *InMemory) GetFeedback(_ context.Context, feedbackTypes ...string) ([]Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterFeedback(func(FeedbackKey) bool { return true }, feedbackTypes), nil
}

func (m *InMemory) GetUserFeedback(_ context.Context, userId string, feedbackTypes ...string) ([]Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterFeedback(func(key FeedbackKey) bool {
		return key.UserId == userId
	}, feedbackTypes), nil
}

func (m *InMemory) CountUserFeedback(_ context.Context, userId string, feedbackTypes ...string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.filterFeedback(func(key FeedbackKey) bool {
		return key.UserId == userId
	}, feedbackTypes)), nil
}

func (m *InMemory) DeleteUserItemFeedback(_ context.Context, userId, itemId string, feedbackTypes ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for key := range m.feedback {
		if key.UserId != userId || key.ItemId != itemId {
			continue
		}
		if len(feedbackTypes) > 0 && !lo.Contains(feedbackTypes, key.FeedbackType) {
			continue
		}
		delete(m.feedback, key)
		count++
	}
	return count, nil
}

// filterFeedback collects feedback matching the predicate and type filter in a
// deterministic order. Callers must hold the lock.
func (m *InMemory) filterFeedback(match func(FeedbackKey) bool, feedbackTypes []string) []Feedback {
	feedback := make([]Feedback, 0, len(m.feedback))
	for key, f := range m.feedback {
		if !match(key) {
			continue
		}
		if len(feedbackTypes) > 0 && !lo.Contains(feedbackTypes, key.FeedbackType) {
			continue
		}
		feedback = append(feedback, f)
	}
	sort.Slice(feedback, func(i, j int) bool {
		a, b := feedback[i].FeedbackKey, feedback[j].FeedbackKey
		if a.FeedbackType != b.FeedbackType {
			return a.FeedbackType < b.FeedbackType
		}
		if a.UserId != b.UserId {
			return a.UserId < b.UserId
		}
		return a.ItemId < b.ItemId
	})
	return feedback
}
