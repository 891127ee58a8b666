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

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/reco-io/reco/storage"
)

// MongoDB is the data storage based on MongoDB.
type MongoDB struct {
	client *mongo.Client
	dbName string
	prefix storage.TablePrefix
}

func openMongoDB(path, tablePrefix string) (*MongoDB, error) {
	ctx := context.Background()
	cs, err := connstring.ParseAndValidate(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(path))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &MongoDB{
		client: client,
		dbName: cs.Database,
		prefix: storage.TablePrefix(tablePrefix),
	}, nil
}

// Init collections and indices in MongoDB.
func (db *MongoDB) Init() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	// create collections
	collections, err := d.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return errors.Trace(err)
	}
	existed := make(map[string]bool)
	for _, collectionName := range collections {
		existed[collectionName] = true
	}
	for _, collectionName := range []string{db.prefix.ItemsTable(), db.prefix.FeedbackTable()} {
		if !existed[collectionName] {
			if err = d.CreateCollection(ctx, collectionName); err != nil {
				return errors.Trace(err)
			}
		}
	}
	// create indices
	_, err = d.Collection(db.prefix.ItemsTable()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"itemid": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Trace(err)
	}
	_, err = d.Collection(db.prefix.ItemsTable()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ishidden", Value: 1}, {Key: "rating", Value: -1}},
	})
	if err != nil {
		return errors.Trace(err)
	}
	_, err = d.Collection(db.prefix.FeedbackTable()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"feedbackkey": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Trace(err)
	}
	for _, key := range []string{"feedbackkey.userid", "feedbackkey.itemid"} {
		_, err = d.Collection(db.prefix.FeedbackTable()).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.M{key: 1},
		})
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Ping the MongoDB server.
func (db *MongoDB) Ping() error {
	return db.client.Ping(context.Background(), nil)
}

// Close the MongoDB connection.
func (db *MongoDB) Close() error {
	return db.client.Disconnect(context.Background())
}

// Purge all items and feedback.
func (db *MongoDB) Purge() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	for _, collectionName := range []string{db.prefix.ItemsTable(), db.prefix.FeedbackTable()} {
		if _, err := d.Collection(collectionName).DeleteMany(ctx, bson.D{}); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (db *MongoDB) BatchInsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	c := db.client.Database(db.dbName).Collection(db.prefix.ItemsTable())
	var models []mongo.WriteModel
	for _, item := range items {
		models = append(models, mongo.NewReplaceOneModel().
			SetUpsert(true).
			SetFilter(bson.M{"itemid": item.ItemId}).
			SetReplacement(item))
	}
	_, err := c.BulkWrite(ctx, models)
	return errors.Trace(err)
}

func (db *MongoDB) BatchGetItems(ctx context.Context, itemIds []string) ([]Item, error) {
	if len(itemIds) == 0 {
		return nil, nil
	}
	c := db.client.Database(db.dbName).Collection(db.prefix.ItemsTable())
	r, err := c.Find(ctx, bson.M{"itemid": bson.M{"$in": itemIds}})
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var items []Item
	for r.Next(ctx) {
		var item Item
		if err = r.Decode(&item); err != nil {
			return nil, errors.Trace(err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (db *MongoDB) GetItem(ctx context.Context, itemId string) (Item, error) {
	c := db.client.Database(db.dbName).Collection(db.prefix.ItemsTable())
	r := c.FindOne(ctx, bson.M{"itemid": itemId})
	if errors.Is(r.Err(), mongo.ErrNoDocuments) {
		return Item{}, errors.Annotate(ErrItemNotExist, itemId)
	} else if r.Err() != nil {
		return Item{}, errors.Trace(r.Err())
	}
	var item Item
	if err := r.Decode(&item); err != nil {
		return Item{}, errors.Trace(err)
	}
	return item, nil
}

func (db *MongoDB) DeleteItem(ctx context.Context, itemId string) error {
	d := db.client.Database(db.dbName)
	if _, err := d.Collection(db.prefix.ItemsTable()).DeleteOne(ctx, bson.M{"itemid": itemId}); err != nil {
		return errors.Trace(err)
	}
	_, err := d.Collection(db.prefix.FeedbackTable()).DeleteMany(ctx, bson.M{"feedbackkey.itemid": itemId})
	return errors.Trace(err)
}

func (db *MongoDB) GetItems(ctx context.Context, cursor string, n int) (string, []Item, error) {
	c := db.client.Database(db.dbName).Collection(db.prefix.ItemsTable())
	opt := options.Find().SetLimit(int64(n)).SetSort(bson.M{"itemid": 1})
	filter := bson.M{}
	if cursor != "" {
		filter["itemid"] = bson.M{"$gt": cursor}
	}
	r, err := c.Find(ctx, filter, opt)
	if err != nil {
		return "", nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var items []Item
	for r.Next(ctx) {
		var item Item
		if err = r.Decode(&item); err != nil {
			return "", nil, errors.Trace(err)
		}
		items = append(items, item)
	}
	if len(items) == n {
		return items[n-1].ItemId, items, nil
	}
	return "", items, nil
}

func (db *MongoDB) GetItemsAboveRating(ctx context.Context, threshold float64, n int) ([]Item, error) {
	c := db.client.Database(db.dbName).Collection(db.prefix.ItemsTable())
	opt := options.Find().SetLimit(int64(n)).
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "itemid", Value: 1}})
	r, err := c.Find(ctx, bson.M{"ishidden": false, "rating": bson.M{"$gte": threshold}}, opt)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var items []Item
	for r.Next(ctx) {
		var item Item
		if err = r.Decode(&item); err != nil {
			return nil, errors.Trace(err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (db *MongoDB) BatchInsertFeedback(ctx context.Context, feedback []Feedback, overwrite bool) error {
	if len(feedback) == 0 {
		return nil
	}
	c := db.client.Database(db.dbName).Collection(db.prefix.FeedbackTable())
	var models []mongo.WriteModel
	for _, f := range feedback {
		if f.UserId == "" || f.ItemId == "" {
			continue
		}
		if overwrite {
			models = append(models, mongo.NewReplaceOneModel().
				SetUpsert(true).
				SetFilter(bson.M{"feedbackkey": f.FeedbackKey}).
				SetReplacement(f))
		} else {
			models = append(models, mongo.NewUpdateOneModel().
				SetUpsert(true).
				SetFilter(bson.M{"feedbackkey": f.FeedbackKey}).
				SetUpdate(bson.M{"$setOnInsert": f}))
		}
	}
	if len(models) == 0 {
		return nil
	}
	_, err := c.BulkWrite(ctx, models)
	return errors.Trace(err)
}

func (db *MongoDB) GetFeedback(ctx context.Context, feedbackTypes ...string) ([]Feedback, error) {
	c := db.client.Database(db.dbName).Collection(db.prefix.FeedbackTable())
	filter := bson.M{}
	if len(feedbackTypes) > 0 {
		filter["feedbackkey.feedbacktype"] = bson.M{"$in": feedbackTypes}
	}
	r, err := c.Find(ctx, filter)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var feedback []Feedback
	for r.Next(ctx) {
		var f Feedback
		if err = r.Decode(&f); err != nil {
			return nil, errors.Trace(err)
		}
		feedback = append(feedback, f)
	}
	return feedback, nil
}

func (db *MongoDB) GetUserFeedback(ctx context.Context, userId string, feedbackTypes ...string) ([]Feedback, error) {
	c := db.client.Database(db.dbName).Collection(db.prefix.FeedbackTable())
	filter := bson.M{"feedbackkey.userid": userId}
	if len(feedbackTypes) > 0 {
		filter["feedbackkey.feedbacktype"] = bson.M{"$in": feedbackTypes}
	}
	r, err := c.Find(ctx, filter)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close(ctx)
	var feedback []Feedback
	for r.Next(ctx) {
		var f Feedback
		if err = r.Decode(&f); err != nil {
			return nil, errors.Trace(err)
		}
		feedback = append(feedback, f)
	}
	return feedback, nil
}

func (db *MongoDB) CountUserFeedback(ctx context.Context, userId string, feedbackTypes ...string) (int, error) {
	c := db.client.Database(db.dbName).Collection(db.prefix.FeedbackTable())
	filter := bson.M{"feedbackkey.userid": userId}
	if len(feedbackTypes) > 0 {
		filter["feedbackkey.feedbacktype"] = bson.M{"$in": feedbackTypes}
	}
	count, err := c.CountDocuments(ctx, filter)
	return int(count), errors.Trace(err)
}

func (db *MongoDB) DeleteUserItemFeedback(ctx context.Context, userId, itemId string, feedbackTypes ...string) (int, error) {
	c := db.client.Database(db.dbName).Collection(db.prefix.FeedbackTable())
	filter := bson.M{"feedbackkey.userid": userId, "feedbackkey.itemid": itemId}
	if len(feedbackTypes) > 0 {
		filter["feedbackkey.feedbacktype"] = bson.M{"$in": feedbackTypes}
	}
	r, err := c.DeleteMany(ctx, filter)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return int(r.DeletedCount), nil
}
