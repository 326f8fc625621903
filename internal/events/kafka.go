package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter публикует события заказов в топик, ключом сообщения служит продавец,
// так события одного продавца попадают в одну партицию.
type KafkaWriter struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter покрывает методы kafka.Writer, которые мы используем
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// batchTimeout ограничивает, сколько запрос ждёт накопления пачки.
// У kafka.Writer по умолчанию это секунда на каждый синхронный WriteMessages.
const batchTimeout = 10 * time.Millisecond

// NewKafkaWriter создаёт писателя, brokers задаются списком host:port через запятую.
func NewKafkaWriter(brokers string, topic string) *KafkaWriter {
	var addrs []string
	for _, a := range strings.Split(brokers, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			addrs = append(addrs, a)
		}
	}
	return &KafkaWriter{writer: &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}}
}

// NewKafkaWriterWith оборачивает готового писателя, в тестах это фейк.
func NewKafkaWriterWith(w kafkaMessageWriter) *KafkaWriter {
	return &KafkaWriter{writer: w}
}

func (k *KafkaWriter) Publish(ctx context.Context, e OrderEvent) error {
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.SellerID), Value: b})
}

func (k *KafkaWriter) Close() error { return k.writer.Close() }
