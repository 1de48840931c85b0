package store

import (
	"context"
	"errors"

	"TradeYa/data/database/utils/tx"
	"TradeYa/module/connections/model"
	"TradeYa/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore 连接目录的 Mongo 实现
type MongoStore struct {
	userColl *mongo.Collection
	connColl *mongo.Collection
	sentColl *mongo.Collection
	tx       tx.Tx
}

func NewMongoStore(db *mongo.Database, mtx tx.Tx) *MongoStore {
	return &MongoStore{
		userColl: db.Collection("users"),
		connColl: db.Collection(model.TableConnections),
		sentColl: db.Collection(model.TableSentRequests),
		tx:       mtx,
	}
}

// EnsureIndexes (owner_id, conn_id) 唯一；(owner_id, user_id) 用于对端查询
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "conn_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "user_id", Value: 1}},
		},
	}
	if _, err := s.connColl.Indexes().CreateMany(ctx, models); err != nil {
		return errs.WrapMsg(err, "create connections indexes")
	}
	if _, err := s.sentColl.Indexes().CreateMany(ctx, models); err != nil {
		return errs.WrapMsg(err, "create sent_requests indexes")
	}
	return nil
}

func (s *MongoStore) UserExists(ctx context.Context, userID string) (bool, error) {
	n, err := s.userColl.CountDocuments(ctx, bson.M{"user_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, errs.ErrDatabase.WrapMsg("count user", "user_id", userID, "err", err)
	}
	return n > 0, nil
}

func (s *MongoStore) GetConnection(ctx context.Context, ownerID, connID string) (*model.Connection, error) {
	return s.getOne(ctx, s.connColl, bson.M{"owner_id": ownerID, "conn_id": connID})
}

func (s *MongoStore) GetSentRequest(ctx context.Context, ownerID, connID string) (*model.Connection, error) {
	return s.getOne(ctx, s.sentColl, bson.M{"owner_id": ownerID, "conn_id": connID})
}

func (s *MongoStore) FindConnectionWith(ctx context.Context, ownerID, otherUserID string) (*model.Connection, error) {
	return s.getOne(ctx, s.connColl, bson.M{"owner_id": ownerID, "user_id": otherUserID})
}

func (s *MongoStore) FindSentRequestTo(ctx context.Context, ownerID, otherUserID string) (*model.Connection, error) {
	return s.getOne(ctx, s.sentColl, bson.M{"owner_id": ownerID, "user_id": otherUserID})
}

func (s *MongoStore) getOne(ctx context.Context, coll *mongo.Collection, filter bson.M) (*model.Connection, error) {
	var c model.Connection
	err := coll.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("find connection", "err", err)
	}
	return &c, nil
}

func (s *MongoStore) ListConnections(ctx context.Context, ownerID string) ([]*model.Connection, error) {
	return s.list(ctx, s.connColl, ownerID)
}

func (s *MongoStore) ListSentRequests(ctx context.Context, ownerID string) ([]*model.Connection, error) {
	return s.list(ctx, s.sentColl, ownerID)
}

func (s *MongoStore) list(ctx context.Context, coll *mongo.Collection, ownerID string) ([]*model.Connection, error) {
	cur, err := coll.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("list connections", "owner_id", ownerID, "err", err)
	}
	defer cur.Close(ctx)

	var out []*model.Connection
	for cur.Next(ctx) {
		var c model.Connection
		if err := cur.Decode(&c); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("decode connection", "err", err)
		}
		out = append(out, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("cursor", "err", err)
	}
	return out, nil
}

func (s *MongoStore) PutConnection(ctx context.Context, c *model.Connection) error {
	return s.put(ctx, s.connColl, c)
}

func (s *MongoStore) PutSentRequest(ctx context.Context, c *model.Connection) error {
	return s.put(ctx, s.sentColl, c)
}

func (s *MongoStore) put(ctx context.Context, coll *mongo.Collection, c *model.Connection) error {
	filter := bson.M{"owner_id": c.OwnerID, "conn_id": c.ConnID}
	update := bson.M{"$set": bson.M{
		"user_id":      c.UserID,
		"from_user_id": c.FromUserID,
		"to_user_id":   c.ToUserID,
		"status":       c.Status,
		"timestamp":    c.Timestamp,
	}}
	_, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return errs.ErrDatabase.WrapMsg("put connection", "conn_id", c.ConnID, "err", err)
	}
	return nil
}

func (s *MongoStore) DeleteConnection(ctx context.Context, ownerID, connID string) error {
	return s.delete(ctx, s.connColl, ownerID, connID)
}

func (s *MongoStore) DeleteSentRequest(ctx context.Context, ownerID, connID string) error {
	return s.delete(ctx, s.sentColl, ownerID, connID)
}

func (s *MongoStore) delete(ctx context.Context, coll *mongo.Collection, ownerID, connID string) error {
	// DeleteOne 对不存在的目标不报错，天然幂等
	_, err := coll.DeleteOne(ctx, bson.M{"owner_id": ownerID, "conn_id": connID})
	if err != nil {
		return errs.ErrDatabase.WrapMsg("delete connection", "conn_id", connID, "err", err)
	}
	return nil
}

func (s *MongoStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.Transaction(ctx, fn)
}

var _ Store = (*MongoStore)(nil)
