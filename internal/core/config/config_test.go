package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "GRPC_ADDR", "MAX_REQUEST_DEPTH", "SR_MISMATCH_POLICY", "KAFKA_BROKERS", "SR_INVALIDATION_ENABLED", "SR_INVALIDATION_TOPIC", "SR_INVALIDATION_GROUP"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8090" || cfg.GRPCAddr != ":9000" {
		t.Fatalf("addrs=%q,%q", cfg.HTTPAddr, cfg.GRPCAddr)
	}
	if cfg.MaxRequestDepth != 32 {
		t.Fatalf("depth=%d want 32", cfg.MaxRequestDepth)
	}
	if cfg.MismatchPolicy != MismatchOverride {
		t.Fatalf("policy=%q want override", cfg.MismatchPolicy)
	}
	if cfg.Invalidation.Enabled || cfg.Invalidation.Topic != "spatial-ref-updates" || cfg.Invalidation.GroupID == "geometry-operators-" {
		t.Fatalf("invalidation=%+v", cfg.Invalidation)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("shutdown=%v", cfg.ShutdownTimeout)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MAX_REQUEST_DEPTH", "0")
	t.Setenv("SR_MISMATCH_POLICY", " Reject ")
	t.Setenv("AUDIT_ENABLED", "yes")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("STREAM_FLUSH_EVERY", "-3")

	cfg := FromEnv()
	if cfg.MaxRequestDepth != 1 {
		t.Fatalf("depth=%d want clamp to 1", cfg.MaxRequestDepth)
	}
	if cfg.MismatchPolicy != MismatchReject {
		t.Fatalf("policy=%q", cfg.MismatchPolicy)
	}
	if !cfg.Audit.Enabled {
		t.Fatalf("audit should be enabled")
	}
	if diff := cmp.Diff([]string{"k1:9092", "k2:9092"}, cfg.Audit.BrokerList()); diff != "" {
		t.Fatalf("brokers (-want +got):\n%s", diff)
	}
	if cfg.StreamFlushEvery != 1 {
		t.Fatalf("flush=%d want 1", cfg.StreamFlushEvery)
	}
}

func TestParseMismatchPolicy_UnknownFallsBack(t *testing.T) {
	if got := ParseMismatchPolicy("explode"); got != MismatchOverride {
		t.Fatalf("got %q", got)
	}
	if got := ParseMismatchPolicy("warn"); got != MismatchWarn {
		t.Fatalf("got %q", got)
	}
}
