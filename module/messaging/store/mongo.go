package store

import (
	"context"
	"time"

	"TradeYa/data/database"
	"TradeYa/module/messaging/model"
	"TradeYa/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultPageSize = 50

type MongoStore struct {
	convColl *mongo.Collection
	msgColl  *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		convColl: database.Collection(db, model.Conversation{}),
		msgColl:  database.Collection(db, model.Message{}),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	convModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "conv_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "members", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	}
	if _, err := s.convColl.Indexes().CreateMany(ctx, convModels); err != nil {
		return errs.WrapMsg(err, "create conversations indexes")
	}
	msgModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "conv_id", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.msgColl.Indexes().CreateMany(ctx, msgModels); err != nil {
		return errs.WrapMsg(err, "create messages indexes")
	}
	return nil
}

// NextSeq FindOneAndUpdate + $inc 拿号；upsert 把会话文档一并建出来。
// (conv_id, seq) 唯一索引兜底：拿号即占号，重复写直接失败。
func (s *MongoStore) NextSeq(ctx context.Context, convID string, members []string) (int64, error) {
	filter := bson.M{"conv_id": convID}
	update := bson.M{
		"$inc":         bson.M{"last_seq": 1},
		"$set":         bson.M{"updated_at": time.Now()},
		"$setOnInsert": bson.M{"members": members},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var conv model.Conversation
	if err := s.convColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conv); err != nil {
		return 0, errs.ErrDatabase.WrapMsg("next seq", "conv_id", convID, "err", err)
	}
	return conv.LastSeq, nil
}

func (s *MongoStore) InsertMessage(ctx context.Context, m *model.Message) error {
	if _, err := s.msgColl.InsertOne(ctx, m); err != nil {
		return errs.ErrDatabase.WrapMsg("insert message", "conv_id", m.ConvID, "seq", m.Seq, "err", err)
	}
	return nil
}

func (s *MongoStore) ListMessages(ctx context.Context, convID string, afterSeq int64, limit int64) ([]*model.Message, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	cur, err := s.msgColl.Find(ctx,
		bson.M{"conv_id": convID, "seq": bson.M{"$gt": afterSeq}},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("list messages", "conv_id", convID, "err", err)
	}
	defer cur.Close(ctx)

	var out []*model.Message
	for cur.Next(ctx) {
		var m model.Message
		if err := cur.Decode(&m); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("decode message", "err", err)
		}
		out = append(out, &m)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("cursor", "err", err)
	}
	return out, nil
}

func (s *MongoStore) ListConversations(ctx context.Context, userID string, limit int64) ([]*model.Conversation, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	cur, err := s.convColl.Find(ctx,
		bson.M{"members": userID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, errs.ErrDatabase.WrapMsg("list conversations", "user_id", userID, "err", err)
	}
	defer cur.Close(ctx)

	var out []*model.Conversation
	for cur.Next(ctx) {
		var c model.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, errs.ErrDatabase.WrapMsg("decode conversation", "err", err)
		}
		out = append(out, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.ErrDatabase.WrapMsg("cursor", "err", err)
	}
	return out, nil
}

// SetReadSeq $max 保证水位只前进，乱序的 markRead 不会回退
func (s *MongoStore) SetReadSeq(ctx context.Context, convID, userID string, seq int64) error {
	_, err := s.convColl.UpdateOne(ctx,
		bson.M{"conv_id": convID},
		bson.M{"$max": bson.M{"read_seq." + userID: seq}})
	if err != nil {
		return errs.ErrDatabase.WrapMsg("set read seq", "conv_id", convID, "user_id", userID, "err", err)
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
