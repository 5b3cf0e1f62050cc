package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	obs "github.com/mohammed-shakir/geometry-operators/internal/core/observability"
)

// Publisher announces registry changes. Sends are synchronous so the caller
// knows whether peers will hear about the change.
type Publisher struct {
	prod   sarama.SyncProducer
	topic  string
	source string
	now    func() time.Time
}

func NewPublisher(brokers []string, topic, source string) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3

	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("invalidation: create producer: %w", err)
	}
	return NewWithProducer(prod, topic, source), nil
}

func NewWithProducer(prod sarama.SyncProducer, topic, source string) *Publisher {
	return &Publisher{prod: prod, topic: topic, source: source, now: time.Now}
}

// Notify publishes op for wkid keyed by the wkid, so events for one
// identifier stay ordered within a partition.
func (p *Publisher) Notify(ctx context.Context, op string, wkid int) error {
	ev := Event{Version: 1, Op: op, WKID: wkid, TS: p.now().UTC(), Source: p.source}
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalidation: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("invalidation: marshal: %w", err)
	}
	_, _, err = p.prod.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.Itoa(wkid)),
		Value: sarama.ByteEncoder(b),
	})
	obs.ObserveInvalidation("out", err)
	if err != nil {
		return fmt.Errorf("invalidation: send wkid %d: %w", wkid, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("invalidation: close producer: %w", err)
	}
	return nil
}
