// Package registry keeps custom spatial reference definitions in Redis so every
// replica resolves the same identifiers.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/mohammed-shakir/geometry-operators/internal/core/observability"
)

type Option func(*settings)

type settings struct {
	ro        redis.Options
	keyPrefix string
	opTimeout time.Duration
	validate  func(string) error
}

func WithPoolSize(n int) Option {
	return func(s *settings) { s.ro.PoolSize = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(s *settings) { s.ro.DialTimeout = d }
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *settings) { s.ro.ReadTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *settings) { s.ro.WriteTimeout = d }
}

func WithKeyPrefix(p string) Option {
	return func(s *settings) { s.keyPrefix = p }
}

// WithOpTimeout bounds each registry call independently of the caller's deadline.
func WithOpTimeout(d time.Duration) Option {
	return func(s *settings) { s.opTimeout = d }
}

// WithValidator rejects definitions before they are stored.
func WithValidator(fn func(def string) error) Option {
	return func(s *settings) { s.validate = fn }
}

var ErrInvalidWKID = errors.New("wkid must be positive")

type Registry struct {
	rdb       *redis.Client
	hash      string
	opTimeout time.Duration
	validate  func(string) error
}

func New(ctx context.Context, addr string, opts ...Option) (*Registry, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	s := settings{
		ro: redis.Options{
			Addr:         addr,
			PoolSize:     16,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			MaintNotificationsConfig: &maintnotifications.Config{
				Mode: maintnotifications.ModeDisabled,
			},
		},
		keyPrefix: "sr:",
	}
	for _, f := range opts {
		f(&s)
	}

	rdb := redis.NewClient(&s.ro)

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	observability.ObserveRegistryOp("ping", err, time.Since(start).Seconds())
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Registry{
		rdb:       rdb,
		hash:      s.keyPrefix + "definitions",
		opTimeout: s.opTimeout,
		validate:  s.validate,
	}, nil
}

func (r *Registry) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

// Lookup returns the stored definition for wkid.
func (r *Registry) Lookup(ctx context.Context, wkid int) (string, bool, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	start := time.Now()
	def, err := r.rdb.HGet(ctx, r.hash, strconv.Itoa(wkid)).Result()
	if errors.Is(err, redis.Nil) {
		observability.ObserveRegistryOp("lookup", nil, time.Since(start).Seconds())
		return "", false, nil
	}
	observability.ObserveRegistryOp("lookup", err, time.Since(start).Seconds())
	if err != nil {
		return "", false, fmt.Errorf("redis HGET %s %d: %w", r.hash, wkid, err)
	}
	return def, true, nil
}

func (r *Registry) Put(ctx context.Context, wkid int, def string) error {
	if wkid <= 0 {
		return ErrInvalidWKID
	}
	def = strings.TrimSpace(def)
	if def == "" {
		return errors.New("definition is empty")
	}
	if r.validate != nil {
		if err := r.validate(def); err != nil {
			return fmt.Errorf("wkid %d: %w", wkid, err)
		}
	}

	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.rdb.HSet(ctx, r.hash, strconv.Itoa(wkid), def).Err()
	observability.ObserveRegistryOp("put", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis HSET %s %d: %w", r.hash, wkid, err)
	}
	return nil
}

// Delete reports whether a definition was removed.
func (r *Registry) Delete(ctx context.Context, wkid int) (bool, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	start := time.Now()
	n, err := r.rdb.HDel(ctx, r.hash, strconv.Itoa(wkid)).Result()
	observability.ObserveRegistryOp("delete", err, time.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("redis HDEL %s %d: %w", r.hash, wkid, err)
	}
	return n > 0, nil
}

type Entry struct {
	WKID       int    `json:"wkid"`
	Definition string `json:"definition"`
}

// List returns every stored definition ordered by wkid. Fields that are not
// integers are skipped.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	start := time.Now()
	all, err := r.rdb.HGetAll(ctx, r.hash).Result()
	observability.ObserveRegistryOp("list", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", r.hash, err)
	}
	out := make([]Entry, 0, len(all))
	for k, v := range all {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out = append(out, Entry{WKID: id, Definition: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WKID < out[j].WKID })
	return out, nil
}

func (r *Registry) Ping(ctx context.Context) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	start := time.Now()
	err := r.rdb.Ping(ctx).Err()
	observability.ObserveRegistryOp("ping", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Registry) Close() error {
	if err := r.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
