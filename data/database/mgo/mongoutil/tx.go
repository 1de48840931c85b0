package mongoutil

import (
	"context"

	"TradeYa/data/database/utils/tx"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTx struct {
	client  *mongo.Client
	support bool // 单机部署不支持多文档事务
}

// NewMongoTx 探测部署形态并返回事务句柄。
// 副本集/分片集群下走真正的多文档事务；单机则退化为直接执行。
func NewMongoTx(ctx context.Context, client *mongo.Client) (tx.Tx, error) {
	mtx := &mongoTx{client: client}
	mtx.support = probeTransactions(ctx, client)
	return mtx, nil
}

func probeTransactions(ctx context.Context, client *mongo.Client) bool {
	sess, err := client.StartSession()
	if err != nil {
		return false
	}
	defer sess.EndSession(ctx)
	if err := sess.StartTransaction(); err != nil {
		return false
	}
	_ = sess.AbortTransaction(ctx)
	return true
}

func (m *mongoTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.support {
		return fn(ctx)
	}
	sess, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}
