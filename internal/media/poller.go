package media

import (
	"context"
	"errors"
	"time"

	"cineboard/internal/services"
)

const defaultPollInterval = 5 * time.Second

var errPollTimeout = errors.New("poll timeout elapsed")

// Poller waits for a long-running job by invoking a check function on an
// interval. The zero value polls every 5 seconds with no deadline.
type Poller struct {
	Interval time.Duration
	// Timeout bounds the whole wait; zero waits until ctx is done.
	Timeout time.Duration
	// Backoff multiplies the interval after each check; values <= 1 keep it fixed.
	Backoff     float64
	MaxInterval time.Duration
	// Sleep replaces the timer-based wait (tests).
	Sleep func(ctx context.Context, d time.Duration) error
}

// Wait sleeps one interval, then calls check until it reports done, returns an
// error, the timeout elapses (services.ErrTimeout), or ctx is cancelled.
func (p Poller) Wait(ctx context.Context, check func(context.Context) (bool, error)) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.Timeout, errPollTimeout)
		defer cancel()
	}

	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	for {
		if err := p.sleep(ctx, interval); err != nil {
			return p.translate(ctx, err)
		}
		done, err := check(ctx)
		if err != nil {
			return p.translate(ctx, err)
		}
		if done {
			return nil
		}
		interval = p.next(interval)
	}
}

func (p Poller) next(interval time.Duration) time.Duration {
	if p.Backoff <= 1 {
		return interval
	}
	grown := time.Duration(float64(interval) * p.Backoff)
	if p.MaxInterval > 0 && grown > p.MaxInterval {
		return p.MaxInterval
	}
	return grown
}

func (p Poller) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		if err := p.Sleep(ctx, d); err != nil {
			return err
		}
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p Poller) translate(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), errPollTimeout) {
		return services.Wrap(services.ErrTimeout, stageName, "poll", "job did not finish within "+p.Timeout.String(), nil)
	}
	return err
}
