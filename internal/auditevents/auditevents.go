// Package auditevents publishes one Kafka event per evaluated operation
// request.
package auditevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
)

type Event struct {
	Fingerprint string    `json:"request_fingerprint"`
	Operator    string    `json:"operator"`
	Depth       int       `json:"depth"`
	Outcome     string    `json:"outcome"`
	Items       int       `json:"items"`
	DurationMS  float64   `json:"duration_ms"`
	TS          time.Time `json:"ts"`
}

// Fingerprint hashes the canonical JSON form of req, so identical requests
// share a fingerprint without the event carrying any geometry.
func Fingerprint(req *model.Request) string {
	b, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64(b), 16)
}

type Publisher struct {
	topic   string
	events  chan Event
	prod    sarama.AsyncProducer
	log     *slog.Logger
	stopped chan struct{}
	errDone chan struct{}
}

func NewPublisher(brokers []string, topic string, queueSize int, log *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("auditevents: create async producer: %w", err)
	}
	return NewWithProducer(prod, topic, queueSize, log), nil
}

// NewWithProducer publishes through an existing producer, which the
// Publisher then owns.
func NewWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, log *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		events:  make(chan Event, queueSize),
		prod:    prod,
		log:     log,
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.log.Warn("audit event marshal failed", "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.Fingerprint),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		defer close(p.errDone)
		for err := range p.prod.Errors() {
			if err != nil {
				p.log.Warn("audit producer error", "err", err)
			}
		}
	}()

	return p
}

// Publish never blocks the request path; a full queue drops the event.
func (p *Publisher) Publish(ev Event) {
	select {
	case p.events <- ev:
	default:
	}
}

func (p *Publisher) Close() error {
	close(p.events)
	<-p.stopped

	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("auditevents: close producer: %w", err)
	}
	<-p.errDone
	return nil
}
