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
	"database/sql"
	"time"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reco-io/reco/storage"
)

// SQLDriver is the type of dialect.
type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
)

// SQLDatabase is the data storage based on MySQL or PostgreSQL.
type SQLDatabase struct {
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
	prefix storage.TablePrefix
}

func openMySQL(dsn, tablePrefix string) (*SQLDatabase, error) {
	// probe isolation variable name
	isolationVarName, err := storage.ProbeMySQLIsolationVariableName(dsn)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// append parameters
	dsn, err = storage.AppendMySQLParams(dsn, map[string]string{
		"sql_mode":       "'ONLY_FULL_GROUP_BY,STRICT_TRANS_TABLES,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION'",
		isolationVarName: "'READ-UNCOMMITTED'",
		"parseTime":      "true",
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	gormDB, err := gorm.Open(mysql.Open(dsn), storage.NewGORMConfig(tablePrefix))
	if err != nil {
		return nil, errors.Trace(err)
	}
	client, err := gormDB.DB()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &SQLDatabase{
		gormDB: gormDB,
		client: client,
		driver: MySQL,
		prefix: storage.TablePrefix(tablePrefix),
	}, nil
}

func openPostgres(path, tablePrefix string) (*SQLDatabase, error) {
	// append parameters
	path, err := storage.AppendURLParams(path, []lo.Tuple2[string, string]{
		{A: "application_name", B: "reco"},
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	gormDB, err := gorm.Open(postgres.Open(path), storage.NewGORMConfig(tablePrefix))
	if err != nil {
		return nil, errors.Trace(err)
	}
	client, err := gormDB.DB()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &SQLDatabase{
		gormDB: gormDB,
		client: client,
		driver: Postgres,
		prefix: storage.TablePrefix(tablePrefix),
	}, nil
}

// Init tables and indices in the SQL database.
func (d *SQLDatabase) Init() error {
	switch d.driver {
	case MySQL:
		type Items struct {
			ItemId     string    `gorm:"column:item_id;type:varchar(256) not null;primaryKey"`
			IsHidden   bool      `gorm:"column:is_hidden;type:bool not null"`
			Categories []string  `gorm:"column:categories;type:json;serializer:json"`
			Timestamp  time.Time `gorm:"column:time_stamp;type:datetime not null"`
			Labels     []string  `gorm:"column:labels;type:json;serializer:json"`
			Rating     float64   `gorm:"column:rating;type:double not null;index:rating_index"`
			Comment    string    `gorm:"column:comment;type:text not null"`
		}
		type Feedback struct {
			FeedbackType string    `gorm:"column:feedback_type;type:varchar(256) not null;primaryKey"`
			UserId       string    `gorm:"column:user_id;type:varchar(256) not null;primaryKey;index:user_id_index"`
			ItemId       string    `gorm:"column:item_id;type:varchar(256) not null;primaryKey;index:item_id_index"`
			Rating       float64   `gorm:"column:rating;type:double not null"`
			Timestamp    time.Time `gorm:"column:time_stamp;type:datetime not null"`
			Comment      string    `gorm:"column:comment;type:text not null"`
		}
		if err := d.gormDB.Set("gorm:table_options", "ENGINE=InnoDB").AutoMigrate(Items{}, Feedback{}); err != nil {
			return errors.Trace(err)
		}
	case Postgres:
		type Items struct {
			ItemId     string    `gorm:"column:item_id;type:varchar(256) not null;primaryKey"`
			IsHidden   bool      `gorm:"column:is_hidden;type:bool not null default false"`
			Categories []string  `gorm:"column:categories;type:json;serializer:json"`
			Timestamp  time.Time `gorm:"column:time_stamp;type:timestamptz not null default '0001-01-01'"`
			Labels     []string  `gorm:"column:labels;type:json;serializer:json"`
			Rating     float64   `gorm:"column:rating;type:double precision not null default 0;index:rating_index"`
			Comment    string    `gorm:"column:comment;type:text not null default ''"`
		}
		type Feedback struct {
			FeedbackType string    `gorm:"column:feedback_type;type:varchar(256) not null;primaryKey"`
			UserId       string    `gorm:"column:user_id;type:varchar(256) not null;primaryKey;index:user_id_index"`
			ItemId       string    `gorm:"column:item_id;type:varchar(256) not null;primaryKey;index:item_id_index"`
			Rating       float64   `gorm:"column:rating;type:double precision not null default 0"`
			Timestamp    time.Time `gorm:"column:time_stamp;type:timestamptz not null default '0001-01-01'"`
			Comment      string    `gorm:"column:comment;type:text not null default ''"`
		}
		if err := d.gormDB.AutoMigrate(Items{}, Feedback{}); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Ping the SQL database.
func (d *SQLDatabase) Ping() error {
	return d.client.Ping()
}

// Close the SQL database connection.
func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

// Purge all items and feedback.
func (d *SQLDatabase) Purge() error {
	for _, tableName := range []string{d.prefix.ItemsTable(), d.prefix.FeedbackTable()} {
		if err := d.gormDB.Exec("DELETE FROM " + tableName).Error; err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (d *SQLDatabase) BatchInsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	err := d.gormDB.WithContext(ctx).Table(d.prefix.ItemsTable()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			UpdateAll: true,
		}).Create(items).Error
	return errors.Trace(err)
}

func (d *SQLDatabase) BatchGetItems(ctx context.Context, itemIds []string) ([]Item, error) {
	if len(itemIds) == 0 {
		return nil, nil
	}
	var items []Item
	err := d.gormDB.WithContext(ctx).Table(d.prefix.ItemsTable()).
		Where("item_id IN ?", itemIds).Find(&items).Error
	return items, errors.Trace(err)
}

func (d *SQLDatabase) GetItem(ctx context.Context, itemId string) (Item, error) {
	var item Item
	err := d.gormDB.WithContext(ctx).Table(d.prefix.ItemsTable()).
		Where("item_id = ?", itemId).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Item{}, errors.Annotate(ErrItemNotExist, itemId)
	}
	return item, errors.Trace(err)
}

func (d *SQLDatabase) DeleteItem(ctx context.Context, itemId string) error {
	if err := d.gormDB.WithContext(ctx).Table(d.prefix.ItemsTable()).
		Where("item_id = ?", itemId).Delete(&Item{}).Error; err != nil {
		return errors.Trace(err)
	}
	err := d.gormDB.WithContext(ctx).Table(d.prefix.FeedbackTable()).
		Where("item_id = ?", itemId).Delete(&Feedback{}).Error
	return errors.Trace(err)
}

func (d *SQLDatabase) GetItems(ctx context.Context, cursor string, n int) (string, []Item, error) {
	tx := d.gormDB.WithContext(ctx).Table(d.prefix.ItemsTable())
	if cursor != "" {
		tx = tx.Where("item_id > ?", cursor)
	}
	var items []Item
	if err := tx.Order("item_id").Limit(n).Find(&items).Error; err != nil {
		return "", nil, errors.Trace(err)
	}
	if len(items) == n {
		return items[n-1].ItemId, items, nil
	}
	return "", items, nil
}

func (d *SQLDatabase) GetItemsAboveRating(ctx context.Context, threshold float64, n int) ([]Item, error) {
	var items []Item
	err := d.gormDB.WithContext(ctx).Table(d.prefix.ItemsTable()).
		Where("is_hidden = ? AND rating >= ?", false, threshold).
		Order("rating DESC, item_id").Limit(n).Find(&items).Error
	return items, errors.Trace(err)
}

func (d *SQLDatabase) BatchInsertFeedback(ctx context.Context, feedback []Feedback, overwrite bool) error {
	rows := make([]Feedback, 0, len(feedback))
	for _, f := range feedback {
		if f.UserId != "" && f.ItemId != "" {
			rows = append(rows, f)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "feedback_type"}, {Name: "user_id"}, {Name: "item_id"}},
	}
	if overwrite {
		onConflict.UpdateAll = true
	} else {
		onConflict.DoNothing = true
	}
	err := d.gormDB.WithContext(ctx).Table(d.prefix.FeedbackTable()).
		Clauses(onConflict).Create(rows).Error
	return errors.Trace(err)
}

func (d *SQLDatabase) GetFeedback(ctx context.Context, feedbackTypes ...string) ([]Feedback, error) {
	tx := d.gormDB.WithContext(ctx).Table(d.prefix.FeedbackTable())
	if len(feedbackTypes) > 0 {
		tx = tx.Where("feedback_type IN ?", feedbackTypes)
	}
	var feedback []Feedback
	err := tx.Find(&feedback).Error
	return feedback, errors.Trace(err)
}

func (d *SQLDatabase) GetUserFeedback(ctx context.Context, userId string, feedbackTypes ...string) ([]Feedback, error) {
	tx := d.gormDB.WithContext(ctx).Table(d.prefix.FeedbackTable()).
		Where("user_id = ?", userId)
	if len(feedbackTypes) > 0 {
		tx = tx.Where("feedback_type IN ?", feedbackTypes)
	}
	var feedback []Feedback
	err := tx.Find(&feedback).Error
	return feedback, errors.Trace(err)
}

func (d *SQLDatabase) CountUserFeedback(ctx context.Context, userId string, feedbackTypes ...string) (int, error) {
	tx := d.gormDB.WithContext(ctx).Table(d.prefix.FeedbackTable()).
		Where("user_id = ?", userId)
	if len(feedbackTypes) > 0 {
		tx = tx.Where("feedback_type IN ?", feedbackTypes)
	}
	var count int64
	err := tx.Count(&count).Error
	return int(count), errors.Trace(err)
}

func (d *SQLDatabase) DeleteUserItemFeedback(ctx context.Context, userId, itemId string, feedbackTypes ...string) (int, error) {
	tx := d.gormDB.WithContext(ctx).Table(d.prefix.FeedbackTable()).
		Where("user_id = ? AND item_id = ?", userId, itemId)
	if len(feedbackTypes) > 0 {
		tx = tx.Where("feedback_type IN ?", feedbackTypes)
	}
	result := tx.Delete(&Feedback{})
	return int(result.RowsAffected), errors.Trace(result.Error)
}
