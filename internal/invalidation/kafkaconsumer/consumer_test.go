package kafkaconsumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/geometry-operators/internal/invalidation"
)

type fakeCache struct {
	mu     sync.Mutex
	forgot []int
}

func (f *fakeCache) Forget(wkid int) {
	f.mu.Lock()
	f.forgot = append(f.forgot, wkid)
	f.mu.Unlock()
}

type sess struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *sess) Claims() map[string][]int32 { return nil }
func (s *sess) MemberID() string           { return "" }
func (s *sess) GenerationID() int32        { return 0 }
func (s *sess) MarkMessage(m *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	s.marked = append(s.marked, m.Offset)
	s.mu.Unlock()
}
func (s *sess) ResetOffset(_ string, _ int32, _ int64, _ string) {}
func (s *sess) MarkOffset(_ string, _ int32, _ int64, _ string)  {}
func (s *sess) Context() context.Context                         { return s.ctx }
func (s *sess) Errors() <-chan error                             { return nil }
func (s *sess) Commit()                                          {}

type claim struct {
	part int32
	msgs chan *sarama.ConsumerMessage
}

func (c *claim) Topic() string                            { return "spatial-ref-updates" }
func (c *claim) Partition() int32                         { return c.part }
func (c *claim) InitialOffset() int64                     { return 0 }
func (c *claim) HighWaterMarkOffset() int64               { return 0 }
func (c *claim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func eventBytes(wkid int) []byte {
	b, _ := json.Marshal(invalidation.Event{
		Version: 1, Op: invalidation.OpRegister, WKID: wkid, TS: time.Now().UTC(), Source: "geo-2",
	})
	return b
}

func newConsumerForTest(fc Forgetter) *Consumer {
	cfg := Config{Brokers: []string{"x"}, Topic: "spatial-ref-updates", GroupID: "g"}
	return New(cfg, slog.Default(), fc)
}

func TestSinglePartition_OrderAndMarkAfterWork(t *testing.T) {
	fc := &fakeCache{}
	c := newConsumerForTest(fc)

	s := &sess{ctx: t.Context()}
	ch := make(chan *sarama.ConsumerMessage, 2)
	ch <- &sarama.ConsumerMessage{Topic: "spatial-ref-updates", Offset: 10, Value: eventBytes(990001)}
	ch <- &sarama.ConsumerMessage{Topic: "spatial-ref-updates", Offset: 11, Value: eventBytes(990002)}
	close(ch)

	if err := c.ConsumeClaim(s, &claim{msgs: ch}); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}
	if len(s.marked) != 2 || s.marked[0] != 10 || s.marked[1] != 11 {
		t.Fatalf("marked offsets=%v want [10 11]", s.marked)
	}
	if len(fc.forgot) != 2 || fc.forgot[0] != 990001 || fc.forgot[1] != 990002 {
		t.Fatalf("forgot=%v", fc.forgot)
	}
}

func TestMalformedEvent_SkippedAndMarked(t *testing.T) {
	fc := &fakeCache{}
	c := newConsumerForTest(fc)
	s := &sess{ctx: t.Context()}

	bad, _ := json.Marshal(invalidation.Event{Version: 1, Op: "rename", WKID: 5, TS: time.Now()})
	ch := make(chan *sarama.ConsumerMessage, 3)
	ch <- &sarama.ConsumerMessage{Offset: 1, Value: []byte("{not json")}
	ch <- &sarama.ConsumerMessage{Offset: 2, Value: bad}
	ch <- &sarama.ConsumerMessage{Offset: 3, Value: eventBytes(990003)}
	close(ch)

	if err := c.ConsumeClaim(s, &claim{msgs: ch}); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}
	if len(s.marked) != 3 {
		t.Fatalf("marked=%v want all three", s.marked)
	}
	if len(fc.forgot) != 1 || fc.forgot[0] != 990003 {
		t.Fatalf("forgot=%v", fc.forgot)
	}
}

func TestMultiPartition_Parallel(t *testing.T) {
	fc := &fakeCache{}
	c := newConsumerForTest(fc)
	s := &sess{ctx: t.Context()}

	p0 := make(chan *sarama.ConsumerMessage, 2)
	p1 := make(chan *sarama.ConsumerMessage, 2)
	p0 <- &sarama.ConsumerMessage{Partition: 0, Offset: 1, Value: eventBytes(1)}
	p0 <- &sarama.ConsumerMessage{Partition: 0, Offset: 2, Value: eventBytes(2)}
	p1 <- &sarama.ConsumerMessage{Partition: 1, Offset: 1, Value: eventBytes(3)}
	p1 <- &sarama.ConsumerMessage{Partition: 1, Offset: 2, Value: eventBytes(4)}
	close(p0)
	close(p1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = c.ConsumeClaim(s, &claim{part: 0, msgs: p0}) }()
	go func() { defer wg.Done(); _ = c.ConsumeClaim(s, &claim{part: 1, msgs: p1}) }()
	wg.Wait()

	if len(s.marked) != 4 || len(fc.forgot) != 4 {
		t.Fatalf("marked=%v forgot=%v", s.marked, fc.forgot)
	}
}

func TestStart_RequiresCache(t *testing.T) {
	if err := New(Config{}, nil, nil).Start(context.Background()); err == nil {
		t.Fatalf("expected error without a cache")
	}
}
