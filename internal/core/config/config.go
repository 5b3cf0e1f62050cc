package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type MismatchPolicy string

const (
	MismatchOverride MismatchPolicy = "override"
	MismatchWarn     MismatchPolicy = "warn"
	MismatchReject   MismatchPolicy = "reject"
)

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type LogCfg struct {
	Level   string
	Console bool
	SampleN int
}

type RegistryCfg struct {
	Enabled   bool
	RedisAddr string
	KeyPrefix string
	OpTimeout time.Duration
}

type AuditCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	Queue   int
}

// InvalidationCfg fans registry changes out to every instance. Each instance
// needs its own consumer group so that all of them see every event.
type InvalidationCfg struct {
	Enabled bool
	Topic   string
	GroupID string
}

type Config struct {
	HTTPAddr         string
	GRPCAddr         string
	Metrics          MetricsCfg
	Log              LogCfg
	MaxRequestDepth  int
	MismatchPolicy   MismatchPolicy
	SRCacheSize      int
	Registry         RegistryCfg
	Audit            AuditCfg
	Invalidation     InvalidationCfg
	StreamFlushEvery int
	ShutdownTimeout  time.Duration
}

func FromEnv() Config {
	depth := getint("MAX_REQUEST_DEPTH", 32)
	if depth < 1 {
		depth = 1
	}
	flush := getint("STREAM_FLUSH_EVERY", 1)
	if flush < 1 {
		flush = 1
	}

	return Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8090"),
		GRPCAddr: getenv("GRPC_ADDR", ":9000"),
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", false),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
		Log: LogCfg{
			Level:   getenv("LOG_LEVEL", "info"),
			Console: getbool("LOG_CONSOLE", false),
			SampleN: getint("LOG_SAMPLE_N", 0),
		},
		MaxRequestDepth: depth,
		MismatchPolicy:  ParseMismatchPolicy(getenv("SR_MISMATCH_POLICY", string(MismatchOverride))),
		SRCacheSize:     getint("SR_CACHE_SIZE", 256),
		Registry: RegistryCfg{
			Enabled:   getbool("SR_REGISTRY_ENABLED", false),
			RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
			KeyPrefix: getenv("SR_REGISTRY_PREFIX", "sr:"),
			OpTimeout: getduration("SR_REGISTRY_TIMEOUT", 250*time.Millisecond),
		},
		Audit: AuditCfg{
			Enabled: getbool("AUDIT_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("AUDIT_TOPIC", "geometry-operations"),
			Queue:   getint("AUDIT_QUEUE", 1024),
		},
		Invalidation: InvalidationCfg{
			Enabled: getbool("SR_INVALIDATION_ENABLED", false),
			Topic:   getenv("SR_INVALIDATION_TOPIC", "spatial-ref-updates"),
			GroupID: getenv("SR_INVALIDATION_GROUP", "geometry-operators-"+hostname()),
		},
		StreamFlushEvery: flush,
		ShutdownTimeout:  getduration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// unknown values fall back to override
func ParseMismatchPolicy(s string) MismatchPolicy {
	switch MismatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case MismatchWarn:
		return MismatchWarn
	case MismatchReject:
		return MismatchReject
	default:
		return MismatchOverride
	}
}

// splits a comma separated broker list, dropping blanks
func (a AuditCfg) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(a.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "local"
	}
	return h
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
