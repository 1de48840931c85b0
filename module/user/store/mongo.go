package store

import (
	"context"
	"errors"

	"TradeYa/data/database"
	"TradeYa/data/database/mgo/mongoutil"
	"TradeYa/module/user/model"
	"TradeYa/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultSearchLimit = 20

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: database.Collection(db, model.User{})}
}

// EnsureIndexes user_id 与 email 唯一；skills_offered 做多键索引
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "skills_offered", Value: 1}},
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return errs.WrapMsg(err, "create users indexes")
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, u *model.User) error {
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongoutil.IsDup(err) {
			return errs.ErrDuplicateKey.WithDetail("email already registered").Wrap()
		}
		return errs.ErrDatabase.WrapMsg("insert user", "email", u.Email, "err", err)
	}
	return nil
}

func (s *MongoStore) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return s.getOne(ctx, bson.M{"user_id": userID})
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) getOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("find user", "err", err)
	}
	return &u, nil
}

func (s *MongoStore) Update(ctx context.Context, u *model.User) error {
	update := bson.M{"$set": bson.M{
		"display_name":   u.DisplayName,
		"bio":            u.Bio,
		"avatar_url":     u.AvatarURL,
		"skills_offered": u.SkillsOffered,
		"skills_wanted":  u.SkillsWanted,
		"updated_at":     u.UpdatedAt,
	}}
	res, err := s.coll.UpdateOne(ctx, bson.M{"user_id": u.UserID}, update)
	if err != nil {
		return errs.ErrDatabase.WrapMsg("update user", "user_id", u.UserID, "err", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrUserNotFound.Wrap()
	}
	return nil
}

func (s *MongoStore) SearchBySkill(ctx context.Context, skill string, limit int64) ([]*model.User, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	cur, err := s.coll.Find(ctx, bson.M{"skills_offered": skill}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("search users", "skill", skill, "err", err)
	}
	defer cur.Close(ctx)

	var out []*model.User
	for cur.Next(ctx) {
		var u model.User
		if err := cur.Decode(&u); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("decode user", "err", err)
		}
		out = append(out, &u)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("cursor", "err", err)
	}
	return out, nil
}

var _ Store = (*MongoStore)(nil)
