package store

import (
	"context"
	"errors"

	"TradeYa/data/database"
	"TradeYa/module/collaboration/model"
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
	return &MongoStore{coll: database.Collection(db, model.Collaboration{})}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "collab_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "creator_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "roles.filled_by", Value: 1}},
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return errs.WrapMsg(err, "create collaborations indexes")
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, c *model.Collaboration) error {
	if _, err := s.coll.InsertOne(ctx, c); err != nil {
		return errs.ErrDatabase.WrapMsg("insert collaboration", "collab_id", c.CollabID, "err", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, collabID string) (*model.Collaboration, error) {
	var c model.Collaboration
	err := s.coll.FindOne(ctx, bson.M{"collab_id": collabID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("find collaboration", "collab_id", collabID, "err", err)
	}
	return &c, nil
}

func (s *MongoStore) ListOpen(ctx context.Context, limit int64) ([]*model.Collaboration, error) {
	return s.list(ctx, bson.M{"status": model.StatusOpen}, limit)
}

func (s *MongoStore) ListByUser(ctx context.Context, userID string, limit int64) ([]*model.Collaboration, error) {
	filter := bson.M{"$or": []bson.M{
		{"creator_id": userID},
		{"roles.filled_by": userID},
	}}
	return s.list(ctx, filter, limit)
}

func (s *MongoStore) list(ctx context.Context, filter bson.M, limit int64) ([]*model.Collaboration, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	cur, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("list collaborations", "err", err)
	}
	defer cur.Close(ctx)

	var out []*model.Collaboration
	for cur.Next(ctx) {
		var c model.Collaboration
		if err := cur.Decode(&c); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("decode collaboration", "err", err)
		}
		out = append(out, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("cursor", "err", err)
	}
	return out, nil
}

// Replace version 匹配才替换；写入时 version 自增
func (s *MongoStore) Replace(ctx context.Context, c *model.Collaboration, expectVersion int64) (bool, error) {
	update := bson.M{
		"$set": bson.M{
			"roles":      c.Roles,
			"status":     c.Status,
			"updated_at": c.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"collab_id": c.CollabID, "version": expectVersion}, update)
	if err != nil {
		return false, errs.ErrDatabase.WrapMsg("replace collaboration", "collab_id", c.CollabID, "err", err)
	}
	return res.MatchedCount > 0, nil
}

var _ Store = (*MongoStore)(nil)
