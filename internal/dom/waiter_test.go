package dom_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/ytmark/internal/dom"
	"github.com/v0xg/ytmark/internal/dom/domtest"
)

// fastSettings shrinks every duration so wait behavior is observable
// without slowing the suite down.
func fastSettings() dom.Settings {
	set := dom.DefaultSettings()
	set.Timeout = 50 * time.Millisecond
	set.ActionDelay = 0
	set.StepDelay = 0
	set.PollInitial = 5 * time.Millisecond
	set.PollInterval = 10 * time.Millisecond
	set.MutationWindow = 20 * time.Millisecond
	return set
}

func noWatchers(t *testing.T, page *domtest.FakePage) {
	t.Helper()
	assert.Eventually(t, func() bool { return page.ActiveWaits() == 0 },
		500*time.Millisecond, 5*time.Millisecond, "mutation watcher left running")
}

func TestWaitForReturnsImmediately(t *testing.T) {
	page := domtest.NewFakePage()
	page.SetElements("#target", button("e1", ""))

	eng := dom.NewEngine(page, fastSettings(), t)
	start := time.Now()
	el, err := eng.WaitFor(context.Background(), dom.SelectorSet{"#target"}, eng.Wait())
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "e1", el.Handle)
	assert.Less(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, 1, page.QueryCount("#target"), "no waiting machinery for an element already present")
	assert.Equal(t, 0, page.ActiveWaits())
}

func TestWaitForResolvesOnMutation(t *testing.T) {
	set := fastSettings()
	set.Polling = false
	set.Timeout = 2 * time.Second

	page := domtest.NewFakePage()
	eng := dom.NewEngine(page, set, t)

	go func() {
		time.Sleep(15 * time.Millisecond)
		page.SetElements("#late", button("e1", ""))
		page.FireMutation()
	}()

	el, err := eng.WaitFor(context.Background(), dom.SelectorSet{"#late"}, eng.Wait())
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "e1", el.Handle)
	noWatchers(t, page)
}

func TestWaitForResolvesByPolling(t *testing.T) {
	set := fastSettings()
	set.MutationObserve = false
	set.Timeout = 2 * time.Second

	page := domtest.NewFakePage()
	eng := dom.NewEngine(page, set, t)

	go func() {
		time.Sleep(12 * time.Millisecond)
		page.SetElements("#late", button("e1", ""))
	}()

	el, err := eng.WaitFor(context.Background(), dom.SelectorSet{"#late"}, eng.Wait())
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.GreaterOrEqual(t, page.QueryCount("#late"), 2, "expected the immediate check plus at least one poll")
}

func TestWaitForRetryBudget(t *testing.T) {
	set := fastSettings()
	set.Polling = false
	set.MutationObserve = false

	page := domtest.NewFakePage()
	eng := dom.NewEngine(page, set, t)

	cfg := eng.Wait()
	cfg.Timeout = 15 * time.Millisecond
	cfg.MaxRetries = 2

	start := time.Now()
	_, err := eng.WaitFor(context.Background(), dom.SelectorSet{"#missing"}, cfg)
	elapsed := time.Since(start)

	var nf *dom.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 3, nf.Attempts)
	assert.Equal(t, 3, page.QueryCount("#missing"))
	assert.Contains(t, err.Error(), "#missing")
	// 15ms, then 22.5ms, then 33.75ms of attempt timeouts.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestWaitForRetriesDisabledGlobally(t *testing.T) {
	set := fastSettings()
	set.Polling = false
	set.MutationObserve = false
	set.Retries = false

	page := domtest.NewFakePage()
	eng := dom.NewEngine(page, set, t)

	cfg := eng.Wait()
	cfg.Timeout = 10 * time.Millisecond
	cfg.MaxRetries = 5

	_, err := eng.WaitFor(context.Background(), dom.SelectorSet{"#missing"}, cfg)
	var nf *dom.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 1, nf.Attempts)
}

func TestWaitForNegativeMaxRetriesMeansSingleAttempt(t *testing.T) {
	set := fastSettings()
	set.Polling = false
	set.MutationObserve = false

	page := domtest.NewFakePage()
	eng := dom.NewEngine(page, set, t)

	cfg := eng.Wait()
	cfg.Timeout = 10 * time.Millisecond
	cfg.MaxRetries = -1

	_, err := eng.WaitFor(context.Background(), dom.SelectorSet{"#missing"}, cfg)
	var nf *dom.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 1, nf.Attempts)
}

func TestWaitForResumedBudgetRunsFewerAttempts(t *testing.T) {
	set := fastSettings()
	set.Polling = false
	set.MutationObserve = false

	page := domtest.NewFakePage()
	eng := dom.NewEngine(page, set, t)

	cfg := eng.Wait()
	cfg.Timeout = 10 * time.Millisecond
	cfg.MaxRetries = 2
	cfg.Retry = 1 // one attempt already spent elsewhere

	_, err := eng.WaitFor(context.Background(), dom.SelectorSet{"#missing"}, cfg)
	var nf *dom.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 2, nf.Attempts)
}

func TestWaitForTearsDownAfterResolve(t *testing.T) {
	set := fastSettings()
	set.Timeout = 2 * time.Second

	page := domtest.NewFakePage()
	eng := dom.NewEngine(page, set, t)

	go func() {
		time.Sleep(10 * time.Millisecond)
		page.SetElements("#late", button("e1", ""))
		page.FireMutation()
	}()

	el, err := eng.WaitFor(context.Background(), dom.SelectorSet{"#late"}, eng.Wait())
	require.NoError(t, err)
	require.NotNil(t, el)

	noWatchers(t, page)
	settled := page.QueryCount("#late")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, page.QueryCount("#late"), "poll loop kept running after resolution")
}

func TestWaitForPropagatesCancellation(t *testing.T) {
	set := fastSettings()
	set.Timeout = 2 * time.Second

	page := domtest.NewFakePage()
	eng := dom.NewEngine(page, set, t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := eng.WaitFor(ctx, dom.SelectorSet{"#missing"}, eng.Wait())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var nf *dom.NotFoundError
	assert.False(t, errors.As(err, &nf), "cancellation must not be reported as not-found")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	noWatchers(t, page)
}
