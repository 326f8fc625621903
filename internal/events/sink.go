package events

import (
	"fmt"

	"github.com/linemk/campuskart/internal/config"
)

const (
	SinkNone  = "none"
	SinkFile  = "file"
	SinkKafka = "kafka"
)

// NewPublisher собирает приёмник событий по конфигу.
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Sink {
	case "", SinkNone:
		return NopPublisher{}, nil
	case SinkFile:
		return NewFileWriter(cfg.Dir, "orders.jsonl")
	case SinkKafka:
		if cfg.Brokers == "" || cfg.Topic == "" {
			return nil, fmt.Errorf("kafka sink requires brokers and topic")
		}
		return NewKafkaWriter(cfg.Brokers, cfg.Topic), nil
	default:
		return nil, fmt.Errorf("unknown events sink %q", cfg.Sink)
	}
}
