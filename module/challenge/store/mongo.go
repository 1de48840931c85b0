package store

import (
	"context"
	"errors"
	"time"

	"TradeYa/data/database"
	"TradeYa/module/challenge/model"
	"TradeYa/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultListLimit = 50

type MongoStore struct {
	chColl   *mongo.Collection
	partColl *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		chColl:   database.Collection(db, model.Challenge{}),
		partColl: database.Collection(db, model.Participation{}),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	chModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "challenge_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "end_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "template_id", Value: 1}, {Key: "status", Value: 1}},
		},
	}
	if _, err := s.chColl.Indexes().CreateMany(ctx, chModels); err != nil {
		return errs.WrapMsg(err, "create challenges indexes")
	}
	partModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "challenge_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.partColl.Indexes().CreateMany(ctx, partModels); err != nil {
		return errs.WrapMsg(err, "create participations indexes")
	}
	return nil
}

func (s *MongoStore) InsertChallenge(ctx context.Context, c *model.Challenge) error {
	if _, err := s.chColl.InsertOne(ctx, c); err != nil {
		return errs.ErrDatabase.WrapMsg("insert challenge", "challenge_id", c.ChallengeID, "err", err)
	}
	return nil
}

func (s *MongoStore) GetChallenge(ctx context.Context, challengeID string) (*model.Challenge, error) {
	var c model.Challenge
	err := s.chColl.FindOne(ctx, bson.M{"challenge_id": challengeID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("find challenge", "challenge_id", challengeID, "err", err)
	}
	return &c, nil
}

func (s *MongoStore) ListActive(ctx context.Context, limit int64) ([]*model.Challenge, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	cur, err := s.chColl.Find(ctx, bson.M{"status": model.ChallengeActive},
		options.Find().SetSort(bson.D{{Key: "end_at", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("list active challenges", "err", err)
	}
	return decodeChallenges(ctx, cur)
}

// CloseExpired 先查后关；关失败的条目下个周期再收
func (s *MongoStore) CloseExpired(ctx context.Context, now time.Time) ([]*model.Challenge, error) {
	filter := bson.M{"status": model.ChallengeActive, "end_at": bson.M{"$lte": now}}
	cur, err := s.chColl.Find(ctx, filter)
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("find expired challenges", "err", err)
	}
	expired, err := decodeChallenges(ctx, cur)
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(expired))
	for _, c := range expired {
		ids = append(ids, c.ChallengeID)
		c.Status = model.ChallengeClosed
	}
	_, err = s.chColl.UpdateMany(ctx,
		bson.M{"challenge_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": model.ChallengeClosed}})
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("close expired challenges", "err", err)
	}
	return expired, nil
}

func (s *MongoStore) ActiveByTemplate(ctx context.Context, templateID string) (*model.Challenge, error) {
	var c model.Challenge
	err := s.chColl.FindOne(ctx,
		bson.M{"template_id": templateID, "status": model.ChallengeActive}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("find active by template", "template_id", templateID, "err", err)
	}
	return &c, nil
}

func decodeChallenges(ctx context.Context, cur *mongo.Cursor) ([]*model.Challenge, error) {
	defer cur.Close(ctx)
	var out []*model.Challenge
	for cur.Next(ctx) {
		var c model.Challenge
		if err := cur.Decode(&c); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("decode challenge", "err", err)
		}
		out = append(out, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("cursor", "err", err)
	}
	return out, nil
}

func (s *MongoStore) InsertParticipation(ctx context.Context, p *model.Participation) error {
	if _, err := s.partColl.InsertOne(ctx, p); err != nil {
		return errs.ErrDatabase.WrapMsg("insert participation", "challenge_id", p.ChallengeID, "err", err)
	}
	return nil
}

func (s *MongoStore) GetParticipation(ctx context.Context, challengeID, userID string) (*model.Participation, error) {
	var p model.Participation
	err := s.partColl.FindOne(ctx,
		bson.M{"challenge_id": challengeID, "user_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("find participation", "err", err)
	}
	return &p, nil
}

func (s *MongoStore) UpdateParticipation(ctx context.Context, p *model.Participation) error {
	update := bson.M{"$set": bson.M{
		"status":         p.Status,
		"submission_url": p.SubmissionURL,
		"notes":          p.Notes,
		"submitted_at":   p.SubmittedAt,
	}}
	_, err := s.partColl.UpdateOne(ctx,
		bson.M{"challenge_id": p.ChallengeID, "user_id": p.UserID}, update)
	if err != nil {
		return errs.ErrDatabase.WrapMsg("update participation", "challenge_id", p.ChallengeID, "err", err)
	}
	return nil
}

func (s *MongoStore) ListParticipants(ctx context.Context, challengeID string, limit int64) ([]*model.Participation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	cur, err := s.partColl.Find(ctx, bson.M{"challenge_id": challengeID},
		options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("list participants", "challenge_id", challengeID, "err", err)
	}
	defer cur.Close(ctx)

	var out []*model.Participation
	for cur.Next(ctx) {
		var p model.Participation
		if err := cur.Decode(&p); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("decode participation", "err", err)
		}
		out = append(out, &p)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("cursor", "err", err)
	}
	return out, nil
}

var _ Store = (*MongoStore)(nil)
