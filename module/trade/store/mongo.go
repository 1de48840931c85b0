package store

import (
	"context"
	"errors"

	"TradeYa/data/database"
	"TradeYa/module/trade/model"
	"TradeYa/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultListLimit = 50

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: database.Collection(db, model.Trade{})}
}

// EnsureIndexes trade_id 唯一；(status, offered_skill) 撮合检索；参与方检索
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trade_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "offered_skill", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "creator_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "participant_id", Value: 1}},
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return errs.WrapMsg(err, "create trades indexes")
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, t *model.Trade) error {
	if _, err := s.coll.InsertOne(ctx, t); err != nil {
		return errs.ErrDatabase.WrapMsg("insert trade", "trade_id", t.TradeID, "err", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, tradeID string) (*model.Trade, error) {
	var t model.Trade
	err := s.coll.FindOne(ctx, bson.M{"trade_id": tradeID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("find trade", "trade_id", tradeID, "err", err)
	}
	return &t, nil
}

func (s *MongoStore) ListOpen(ctx context.Context, skill string, limit int64) ([]*model.Trade, error) {
	filter := bson.M{"status": model.StatusOpen}
	if skill != "" {
		filter["offered_skill"] = skill
	}
	return s.list(ctx, filter, limit)
}

func (s *MongoStore) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Trade, error) {
	filter := bson.M{"$or": []bson.M{
		{"creator_id": userID},
		{"participant_id": userID},
	}}
	return s.list(ctx, filter, limit)
}

func (s *MongoStore) list(ctx context.Context, filter bson.M, limit int64) ([]*model.Trade, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	cur, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("list trades", "err", err)
	}
	defer cur.Close(ctx)

	var out []*model.Trade
	for cur.Next(ctx) {
		var t model.Trade
		if err := cur.Decode(&t); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("decode trade", "err", err)
		}
		out = append(out, &t)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("cursor", "err", err)
	}
	return out, nil
}

// UpdateStatus 条件更新：filter 带上期望的当前状态，并发迁移只有一个赢
func (s *MongoStore) UpdateStatus(ctx context.Context, tradeID, fromStatus string, t *model.Trade) (bool, error) {
	update := bson.M{"$set": bson.M{
		"status":                t.Status,
		"participant_id":        t.ParticipantID,
		"creator_confirmed":     t.CreatorConfirmed,
		"participant_confirmed": t.ParticipantConfirmed,
		"updated_at":            t.UpdatedAt,
	}}
	res, err := s.coll.UpdateOne(ctx, bson.M{"trade_id": tradeID, "status": fromStatus}, update)
	if err != nil {
		return false, errs.ErrDatabase.WrapMsg("update trade status", "trade_id", tradeID, "err", err)
	}
	return res.MatchedCount > 0, nil
}

var _ Store = (*MongoStore)(nil)
