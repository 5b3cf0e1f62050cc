package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Dial retries New with exponential backoff until it succeeds, maxWait
// elapses, or ctx is done.
func Dial(ctx context.Context, log *slog.Logger, addr string, maxWait time.Duration, opts ...Option) (*Registry, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = maxWait

	var reg *Registry
	err := backoff.RetryNotify(
		func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			r, err := New(attemptCtx, addr, opts...)
			if err != nil {
				return err
			}
			reg = r
			return nil
		},
		backoff.WithContext(bo, ctx),
		func(err error, d time.Duration) {
			log.Warn("spatial reference registry unavailable", "addr", addr, "err", err, "retry_in", d)
		},
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}
