// Package kafkaconsumer applies spatial reference invalidation events to the
// local frame cache.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	obs "github.com/mohammed-shakir/geometry-operators/internal/core/observability"
	"github.com/mohammed-shakir/geometry-operators/internal/invalidation"
	mylog "github.com/mohammed-shakir/geometry-operators/internal/logger"
)

// Forgetter drops any cached definition for wkid.
type Forgetter interface {
	Forget(wkid int)
}

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
}

func (c Config) withDefaults() Config {
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 30 * time.Second
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = 3 * time.Second
	}
	if c.RebalanceTimeout <= 0 {
		c.RebalanceTimeout = 30 * time.Second
	}
	return c
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	cache  Forgetter
}

func New(cfg Config, logger *slog.Logger, cache Forgetter) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{cfg: cfg.withDefaults(), logger: logger, cache: cache}
}

// Start consumes until ctx is done. Consumer group errors are logged and the
// group rejoins after a pause.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil {
		return errors.New("kafkaconsumer: missing frame cache")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	ctx = mylog.WithComponent(ctx, "sr_invalidation")

	c.logger.InfoContext(ctx, "spatial reference invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		if err := group.Consume(ctx, []string{c.cfg.Topic}, c); err != nil && ctx.Err() == nil {
			c.logger.ErrorContext(ctx, "consumer error", "err", err, "topic", c.cfg.Topic)
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
		}
		if ctx.Err() != nil {
			c.logger.InfoContext(ctx, "spatial reference invalidation consumer shutting down")
			return nil
		}
	}
}

func (c *Consumer) Setup(sess sarama.ConsumerGroupSession) error {
	c.logger.Info("invalidation partitions assigned",
		"claims", sess.Claims(), "generation", sess.GenerationID())
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim applies one partition in offset order, marking each message
// once it has been applied.
func (c *Consumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.ProcessOne(ctx, msg); err != nil {
				return fmt.Errorf("partition %d offset %d: %w", msg.Partition, msg.Offset, err)
			}
			sess.MarkMessage(msg, "")
		}
	}
}

// ProcessOne applies one message. Malformed events are logged and skipped so
// they cannot stall the partition.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	err := json.Unmarshal(msg.Value, &ev)
	if err == nil {
		err = ev.Validate()
	}
	if err != nil {
		obs.ObserveInvalidation("in", err)
		c.logger.WarnContext(ctx, "skipping invalidation event",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}

	c.cache.Forget(ev.WKID)
	obs.ObserveInvalidation("in", nil)
	c.logger.DebugContext(ctx, "spatial reference invalidated",
		"wkid", ev.WKID, "op", ev.Op, "source", ev.Source)
	return nil
}
