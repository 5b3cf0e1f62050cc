package invalidation

import (
	"testing"
	"time"
)

func mustTS() time.Time { return time.Date(2025, 10, 26, 12, 30, 45, 0, time.UTC) }

func TestEvent_Validate_HappyPath(t *testing.T) {
	for _, op := range []string{OpRegister, OpDelete} {
		ev := Event{Version: 1, Op: op, WKID: 990001, TS: mustTS(), Source: "geo-1"}
		if err := ev.Validate(); err != nil {
			t.Fatalf("%s: unexpected: %v", op, err)
		}
	}
}

func TestEvent_Validate_Rejects(t *testing.T) {
	cases := map[string]Event{
		"version":   {Version: 2, Op: OpRegister, WKID: 1, TS: mustTS()},
		"op":        {Version: 1, Op: "update", WKID: 1, TS: mustTS()},
		"wkid":      {Version: 1, Op: OpRegister, WKID: 0, TS: mustTS()},
		"ts":        {Version: 1, Op: OpRegister, WKID: 1},
		"multiline": {Version: 1, Op: OpRegister, WKID: 1, TS: mustTS(), Source: "a\nb"},
	}
	for name, ev := range cases {
		if err := ev.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
