package store

import (
	"context"
	"errors"
	"time"

	"TradeYa/data/database"
	"TradeYa/module/gamification/model"
	"TradeYa/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: database.Collection(db, model.XPAccount{})}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return errs.WrapMsg(err, "create xp_accounts indexes")
	}
	return nil
}

// AddXP $inc + upsert 拿回累加后的值，再把等级写回去。
// 等级写回用 xp 条件更新，并发时以最新 xp 算出的等级为准。
func (s *MongoStore) AddXP(ctx context.Context, userID string, delta int64) (*model.XPAccount, error) {
	now := time.Now()
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$inc": bson.M{"xp": delta},
		"$set": bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var acc model.XPAccount
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&acc); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("add xp", "user_id", userID, "err", err)
	}

	level := model.LevelFor(acc.XP)
	if level != acc.Level {
		if _, err := s.coll.UpdateOne(ctx,
			bson.M{"user_id": userID, "xp": acc.XP},
			bson.M{"$set": bson.M{"level": level}}); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("update level", "user_id", userID, "err", err)
		}
		acc.Level = level
	}
	return &acc, nil
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*model.XPAccount, error) {
	var acc model.XPAccount
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&acc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("find xp account", "user_id", userID, "err", err)
	}
	return &acc, nil
}

var _ Store = (*MongoStore)(nil)
