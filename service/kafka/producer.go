package kafka

import (
	"github.com/Shopify/sarama"
)

var Producer sarama.SyncProducer

// InitSyncProducerFromClient 从全局 client 建同步生产者
func InitSyncProducerFromClient() error {
	p, err := sarama.NewSyncProducerFromClient(KafkaClient)
	if err != nil {
		return err
	}
	Producer = p
	return nil
}

// SendSync 同步发送；key 用于分区路由（同 key 有序）
func SendSync(topic, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	_, _, err := Producer.SendMessage(msg)
	return err
}
