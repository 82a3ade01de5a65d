package dom

import (
	"context"
	"errors"
	"time"
)

const (
	// timeoutGrowth scales each retry's attempt timeout.
	timeoutGrowth = 1.5
	// timeoutCap bounds how far the growth can take it.
	timeoutCap = 10 * time.Second
)

// errAttemptTimeout separates an exhausted attempt from outer
// cancellation inside the retry loop.
var errAttemptTimeout = errors.New("attempt timed out")

// WaitFor blocks until sels resolves to a valid element. Zero cfg
// fields take the engine defaults. Each attempt checks immediately,
// then races a mutation watcher and a poll loop against the attempt
// timeout; timed-out attempts retry with the timeout scaled by 1.5 and
// capped at 10s until the retry budget runs out, which yields a
// NotFoundError.
func (e *Engine) WaitFor(ctx context.Context, sels SelectorSet, cfg WaitConfig) (*Element, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = e.set.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = e.set.MaxRetries
	}
	if cfg.MaxRetries < 0 || !e.set.Retries {
		cfg.MaxRetries = 0
	}

	timeout := cfg.Timeout
	attempts := 0
	for attempt := cfg.Retry; ; attempt++ {
		attempts++
		el, err := e.waitOnce(ctx, sels, cfg, timeout)
		if err == nil {
			return el, nil
		}
		if !errors.Is(err, errAttemptTimeout) {
			return nil, err
		}
		if attempt >= cfg.MaxRetries {
			return nil, &NotFoundError{Attempts: attempts, Selectors: sels}
		}
		timeout = scaleTimeout(timeout)
		e.log.Logf("waiter: retry %d/%d with timeout %s", attempt+1, cfg.MaxRetries, timeout)
	}
}

func scaleTimeout(d time.Duration) time.Duration {
	scaled := time.Duration(float64(d) * timeoutGrowth)
	if scaled > timeoutCap {
		scaled = timeoutCap
	}
	return scaled
}

// waitOnce runs one bounded attempt. Everything it starts hangs off
// the attempt context, so a resolution on any path tears the rest
// down before returning.
func (e *Engine) waitOnce(ctx context.Context, sels SelectorSet, cfg WaitConfig, timeout time.Duration) (*Element, error) {
	// The element may already be there.
	el, err := e.FindBest(ctx, sels, cfg)
	if err != nil {
		return nil, err
	}
	if el != nil {
		return el, nil
	}

	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var mutations <-chan struct{}
	if e.set.MutationObserve {
		mutations = e.watchMutations(actx)
	}

	// The poll timer starts on PollInitial and switches to the steady
	// PollInterval cadence after the first tick.
	var firstPoll <-chan time.Time
	var ticks <-chan time.Time
	if e.set.Polling {
		initial := time.NewTimer(e.set.PollInitial)
		defer initial.Stop()
		firstPoll = initial.C
	}

	for {
		select {
		case <-actx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errAttemptTimeout
		case <-mutations:
		case <-firstPoll:
			firstPoll = nil
			ticker := time.NewTicker(e.set.PollInterval)
			defer ticker.Stop()
			ticks = ticker.C
		case <-ticks:
		}

		el, err := e.FindBest(actx, sels, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errAttemptTimeout
		}
		if el != nil {
			return el, nil
		}
	}
}

// watchMutations feeds a signal per mutation burst. The channel is
// buffered and never closed; the goroutine exits with ctx, and extra
// signals are coalesced by the non-blocking send.
func (e *Engine) watchMutations(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		for ctx.Err() == nil {
			fired, err := e.page.WaitMutation(ctx, e.set.MutationWindow)
			if err != nil {
				return
			}
			if !fired {
				continue
			}
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	return ch
}
