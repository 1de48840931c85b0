package kafka

import (
	"context"

	"TradeYa/logger"

	"github.com/Shopify/sarama"
)

type ConsumerGroupHandler struct{}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer group setup")
	return nil
}

func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer group cleanup")
	return nil
}

func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		handler, err := GetHandler(msg.Topic)
		if err != nil {
			logger.Errorf("no handler for topic %s: %v", msg.Topic, err)
		} else if err := handler(msg.Topic, msg.Key, msg.Value); err != nil {
			// 处理失败也推进 offset：活动事件允许丢，不允许卡死分区
			logger.Errorf("handler error for topic %s: %v", msg.Topic, err)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

// StartConsumerGroup 阻塞消费；放在 goroutine 里调用，ctx 取消后退出
func StartConsumerGroup(ctx context.Context, brokers []string, groupID string, topics []string) error {
	config := BuildBaseConfig()

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return err
	}
	defer group.Close()

	go func() {
		for err := range group.Errors() {
			logger.Errorf("consumer group error: %v", err)
		}
	}()

	handler := &ConsumerGroupHandler{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := group.Consume(ctx, topics, handler); err != nil {
			logger.Errorf("consume error: %v", err)
		}
	}
}
