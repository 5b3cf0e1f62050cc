package auditevents

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
)

func TestPublisher_WritesJSONEvents(t *testing.T) {
	prod := mocks.NewAsyncProducer(t, nil)
	var got []Event
	for range 2 {
		prod.ExpectInputWithCheckerFunctionAndSucceed(func(b []byte) error {
			var ev Event
			if err := json.Unmarshal(b, &ev); err != nil {
				return fmt.Errorf("bad event %q: %w", b, err)
			}
			got = append(got, ev)
			return nil
		})
	}

	p := NewWithProducer(prod, "geometry-operations", 4, nil)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.Publish(Event{Fingerprint: "abc", Operator: "Buffer", Depth: 2, Outcome: "ok", Items: 3, TS: ts})
	p.Publish(Event{Fingerprint: "def", Operator: "Cut", Depth: 1, Outcome: "invalid_argument", TS: ts})
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("events=%d want 2", len(got))
	}
	if got[0].Operator != "Buffer" || got[0].Items != 3 || !got[0].TS.Equal(ts) {
		t.Fatalf("first event %+v", got[0])
	}
	if got[1].Outcome != "invalid_argument" {
		t.Fatalf("second event %+v", got[1])
	}
}

func TestFingerprint_StableAndDistinct(t *testing.T) {
	a := &model.Request{Operator: model.OpBuffer, BufferParams: &model.BufferParams{Distances: []float64{1}}}
	b := &model.Request{Operator: model.OpBuffer, BufferParams: &model.BufferParams{Distances: []float64{2}}}
	if Fingerprint(a) == "" || Fingerprint(a) != Fingerprint(a) {
		t.Fatalf("fingerprint should be stable, got %q", Fingerprint(a))
	}
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("different requests share a fingerprint")
	}
}
