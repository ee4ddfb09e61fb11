package event

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"shop/internal/domain/model"

	"github.com/segmentio/kafka-go"
)

// 注文イベントをKafkaへ書く。キーは注文IDなので同じ注文の順序は保たれる。
type KafkaOrderPublisher struct {
	w       *kafka.Writer
	timeout time.Duration
}

func NewKafkaOrderPublisher(brokers []string, topic string) *KafkaOrderPublisher {
	return &KafkaOrderPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		timeout: 5 * time.Second,
	}
}

func (p *KafkaOrderPublisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	msg, err := orderEventMessage(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.w.WriteMessages(ctx, msg)
}

func (p *KafkaOrderPublisher) Close() error {
	return p.w.Close()
}

func orderEventMessage(ev model.OrderEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}, nil
}

// ブローカー未設定のときに使う
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, model.OrderEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
