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
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/reco-io/reco/base/log"
	"github.com/reco-io/reco/storage"
)

const (
	FeedbackTypeView      = "view"
	FeedbackTypeLike      = "like"
	FeedbackTypeDislike   = "dislike"
	FeedbackTypePurchase  = "purchase"
	FeedbackTypeRating    = "rating"
	FeedbackTypeWatchlist = "watchlist"
)

// RelevantFeedbackTypes are the feedback types carrying numeric signal for
// the score matrix. Views, dislikes and watchlist adds are recorded but
// contribute no weight to recommendations.
var RelevantFeedbackTypes = []string{FeedbackTypeRating, FeedbackTypeLike, FeedbackTypePurchase}

var (
	ErrItemNotExist = errors.NotFoundf("item")
	ErrNoDatabase   = errors.NotAssignedf("database")
)

// Item stores meta data about a catalog item.
type Item struct {
	ItemId     string    `gorm:"column:item_id;primaryKey"`
	IsHidden   bool      `gorm:"column:is_hidden"`
	Categories []string  `gorm:"column:categories;serializer:json"`
	Timestamp  time.Time `gorm:"column:time_stamp"`
	Labels     []string  `gorm:"column:labels;serializer:json"`
	Rating     float64   `gorm:"column:rating"`
	Comment    string    `gorm:"column:comment"`
}

// FeedbackKey identifies a feedback event.
type FeedbackKey struct {
	FeedbackType string `gorm:"column:feedback_type"`
	UserId       string `gorm:"column:user_id"`
	ItemId       string `gorm:"column:item_id"`
}

// Feedback stores a feedback event.
type Feedback struct {
	FeedbackKey `gorm:"embedded"`
	Rating      float64   `gorm:"column:rating"`
	Timestamp   time.Time `gorm:"column:time_stamp"`
	Comment     string    `gorm:"column:comment"`
}

// Database is the storage for catalog items and the feedback event log.
type Database interface {
	Init() error
	Ping() error
	Close() error
	Purge() error
	BatchInsertItems(ctx context.Context, items []Item) error
	BatchGetItems(ctx context.Context, itemIds []string) ([]Item, error)
	GetItem(ctx context.Context, itemId string) (Item, error)
	DeleteItem(ctx context.Context, itemId string) error
	GetItems(ctx context.Context, cursor string, n int) (string, []Item, error)
	GetItemsAboveRating(ctx context.Context, threshold float64, n int) ([]Item, error)
	BatchInsertFeedback(ctx context.Context, feedback []Feedback, overwrite bool) error
	GetFeedback(ctx context.Context, feedbackTypes ...string) ([]Feedback, error)
	GetUserFeedback(ctx context.Context, userId string, feedbackTypes ...string) ([]Feedback, error)
	CountUserFeedback(ctx context.Context, userId string, feedbackTypes ...string) (int, error)
	DeleteUserItemFeedback(ctx context.Context, userId, itemId string, feedbackTypes ...string) (int, error)
}

// Open a connection to a data storage.
func Open(path, tablePrefix string) (Database, error) {
	switch {
	case strings.HasPrefix(path, storage.MongoPrefix), strings.HasPrefix(path, storage.MongoSrvPrefix):
		return openMongoDB(path, tablePrefix)
	case strings.HasPrefix(path, storage.MySQLPrefix):
		return openMySQL(path[len(storage.MySQLPrefix):], tablePrefix)
	case strings.HasPrefix(path, storage.PostgresPrefix), strings.HasPrefix(path, storage.PostgreSQLPrefix):
		return openPostgres(path, tablePrefix)
	case strings.HasPrefix(path, storage.InMemoryPrefix):
		return NewInMemory(), nil
	case path == "":
		return &NoDatabase{}, nil
	}
	return nil, errors.Errorf("unknown data storage: %s", log.RedactDBURL(path))
}
