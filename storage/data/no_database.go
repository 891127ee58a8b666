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

import "context"

// NoDatabase means no data storage is configured.
type NoDatabase struct{}

func (NoDatabase) Init() error {
	return ErrNoDatabase
}

func (NoDatabase) Ping() error {
	return ErrNoDatabase
}

func (NoDatabase) Close() error {
	return ErrNoDatabase
}

func (NoDatabase) Purge() error {
	return ErrNoDatabase
}

func (NoDatabase) BatchInsertItems(_ context.Context, _ []Item) error {
	return ErrNoDatabase
}

func (NoDatabase) BatchGetItems(_ context.Context, _ []string) ([]Item, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) GetItem(_ context.Context, _ string) (Item, error) {
	return Item{}, ErrNoDatabase
}

func (NoDatabase) DeleteItem(_ context.Context, _ string) error {
	return ErrNoDatabase
}

func (NoDatabase) GetItems(_ context.Context, _ string, _ int) (string, []Item, error) {
	return "", nil, ErrNoDatabase
}

func (NoDatabase) GetItemsAboveRating(_ context.Context, _ float64, _ int) ([]Item, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) BatchInsertFeedback(_ context.Context, _ []Feedback, _ bool) error {
	return ErrNoDatabase
}

func (NoDatabase) GetFeedback(_ context.Context, _ ...string) ([]Feedback, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) GetUserFeedback(_ context.Context, _ string, _ ...string) ([]Feedback, error) {
	return nil, ErrNoDatabase
}

func (NoDatabase) CountUserFeedback(_ context.Context, _ string, _ ...string) (int, error) {
	return 0, ErrNoDatabase
}

func (NoDatabase) DeleteUserItemFeedback(_ context.Context, _, _ string, _ ...string) (int, error) {
	return 0, ErrNoDatabase
}
