package store

import (
	"context"

	"TradeYa/data/database"
	"TradeYa/module/notify/model"
	"TradeYa/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultListLimit = 50

// MongoStore 通知的 Mongo 实现
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: database.Collection(db, model.Notification{})}
}

// EnsureIndexes (user_id, created_at) 列表查询；notify_id 唯一
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "notify_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return errs.WrapMsg(err, "create notifications indexes")
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, n *model.Notification) error {
	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		return errs.ErrDatabase.WrapMsg("insert notification", "user_id", n.UserID, "err", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, userID string, limit int64) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	cur, err := s.coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("list notifications", "user_id", userID, "err", err)
	}
	defer cur.Close(ctx)

	var out []*model.Notification
	for cur.Next(ctx) {
		var n model.Notification
		if err := cur.Decode(&n); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("decode notification", "err", err)
		}
		out = append(out, &n)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("cursor", "err", err)
	}
	return out, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, userID, notifyID string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID, "notify_id": notifyID},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return errs.ErrDatabase.WrapMsg("mark notification read", "notify_id", notifyID, "err", err)
	}
	return nil
}

func (s *MongoStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, errs.ErrDatabase.WrapMsg("count unread", "user_id", userID, "err", err)
	}
	return n, nil
}

var _ Store = (*MongoStore)(nil)
