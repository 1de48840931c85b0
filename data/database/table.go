package database

import "go.mongodb.org/mongo-driver/mongo"

// Table 所有落 Mongo 的业务模型都实现它：模型自己声明表名，
// store 层据此取集合。
type Table interface {
	GetTableName() string
}

func Collection(db *mongo.Database, t Table) *mongo.Collection {
	return db.Collection(t.GetTableName())
}
