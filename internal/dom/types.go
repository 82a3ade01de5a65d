// Package dom locates elements on a live page, waits for them to
// appear and runs ordered click sequences against them. It talks to
// the page through the Page interface, so the engine itself never
// depends on a concrete browser.
package dom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SelectorSet is an ordered list of CSS selectors for one semantic
// target. Order encodes preference: the first selector that yields a
// valid element wins, later entries are fallbacks for older layouts.
type SelectorSet []string

// TextPatternSet holds case-insensitive substrings used to confirm an
// element is the intended target and not a lookalike.
type TextPatternSet []string

// Match reports whether text contains at least one of the patterns.
// An empty set matches everything.
func (p TextPatternSet) Match(text string) bool {
	if len(p) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, pat := range p {
		if strings.Contains(lower, strings.ToLower(pat)) {
			return true
		}
	}
	return false
}

// Element is a snapshot of one live DOM element. Handle is an opaque
// mark the page assigned at query time; it stays addressable for as
// long as the element remains attached to the document.
type Element struct {
	Handle   string
	Tag      string
	Text     string
	Visible  bool
	Disabled bool
	Attrs    map[string]string
}

// Attr returns the named attribute, or "" when the element has none.
func (e *Element) Attr(name string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}

// Page is the surface of a live page the engine drives. It is
// implemented over CDP by the browser package and by a scripted fake
// for tests.
type Page interface {
	// Query returns every element matching selector, in document
	// order. Selectors the page cannot parse fail with ErrBadSelector.
	Query(ctx context.Context, selector string) ([]Element, error)

	// QueryWithin is Query scoped to the subtree of the element tagged
	// by handle.
	QueryWithin(ctx context.Context, handle, selector string) ([]Element, error)

	// Closest walks up from the element tagged by handle and returns
	// the first ancestor whose tag name is in tags, giving up after
	// maxDepth levels. It returns nil when no such ancestor exists.
	Closest(ctx context.Context, handle string, tags []string, maxDepth int) (*Element, error)

	// WaitMutation blocks until the next DOM mutation burst, at most
	// window. It reports whether a mutation fired.
	WaitMutation(ctx context.Context, window time.Duration) (bool, error)

	// Click clicks the element tagged by handle. A handle whose
	// element left the document fails with ErrStaleElement.
	Click(ctx context.Context, handle string) error
}

// Logger receives engine diagnostics. *testing.T satisfies it.
type Logger interface {
	Logf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...interface{}) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

var (
	// ErrBadSelector marks a selector the page could not parse.
	ErrBadSelector = errors.New("invalid selector")

	// ErrStaleElement marks a handle whose element left the document.
	ErrStaleElement = errors.New("stale element")
)

// NotFoundError is returned by WaitFor once every attempt has timed
// out without a valid match.
type NotFoundError struct {
	Attempts  int
	Selectors SelectorSet
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("element not found after %d attempts (selectors: %s)",
		e.Attempts, strings.Join(e.Selectors, ", "))
}

// StepError reports which step of a sequence failed and why.
type StepError struct {
	Index int // 1-based
	Total int
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d/%d %q failed: %v", e.Index, e.Total, e.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// WaitConfig tunes a single locate-or-wait call.
type WaitConfig struct {
	// Timeout bounds one attempt. Zero takes the engine default.
	Timeout time.Duration
	// Retry is the current attempt index. Callers resuming a
	// half-spent budget pass the attempts already consumed.
	Retry int
	// MaxRetries is how many extra attempts follow a timed-out one.
	// Zero takes the engine default, negative disables retries.
	MaxRetries int
	// ValidateVisibility rejects elements without a rendered box.
	ValidateVisibility bool
	// ValidateInteractable rejects disabled elements.
	ValidateInteractable bool
	// TextPatterns, when set, must match the element text.
	TextPatterns TextPatternSet
}

// ActionFunc acts on a resolved element. The zero value of Step.Action
// clicks the element.
type ActionFunc func(ctx context.Context, page Page, el *Element) error

// Step is one wait-then-act unit of a sequence.
type Step struct {
	Name      string
	Selectors SelectorSet
	// Element, when set, is acted on directly and no waiting happens.
	Element *Element
	// Wait overrides the engine defaults for this step.
	Wait *WaitConfig
	// Action replaces the default click.
	Action ActionFunc
	// DelayAfter is the settle pause before the next step. Zero takes
	// the engine default. The pause is skipped after the final step
	// and after a failed one.
	DelayAfter time.Duration
	// Optional steps log their failure and let the sequence continue.
	Optional bool
}

// Settings carries the engine-wide timing and strategy defaults.
type Settings struct {
	Timeout        time.Duration // per-attempt element wait
	MaxRetries     int           // extra attempts after the first timeout
	ActionDelay    time.Duration // settle pause between resolving and acting
	StepDelay      time.Duration // default pause between sequence steps
	PollInitial    time.Duration // first re-check while waiting
	PollInterval   time.Duration // re-check cadence after the first
	MutationWindow time.Duration // page-side observer watchdog

	Polling            bool
	MutationObserve    bool
	ValidateVisibility bool
	Retries            bool
}

// DefaultSettings returns the timing profile the automation ships with.
func DefaultSettings() Settings {
	return Settings{
		Timeout:            5 * time.Second,
		MaxRetries:         2,
		ActionDelay:        100 * time.Millisecond,
		StepDelay:          200 * time.Millisecond,
		PollInitial:        100 * time.Millisecond,
		PollInterval:       250 * time.Millisecond,
		MutationWindow:     time.Second,
		Polling:            true,
		MutationObserve:    true,
		ValidateVisibility: true,
		Retries:            true,
	}
}

// Engine drives one page: locating elements, waiting for them and
// running step sequences. Engines are cheap; make one per page.
type Engine struct {
	page Page
	set  Settings
	log  Logger
}

// NewEngine builds an engine over page. A nil logger discards output.
func NewEngine(page Page, set Settings, log Logger) *Engine {
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{page: page, set: set, log: log}
}

// Wait returns a WaitConfig primed with the engine defaults, ready for
// per-call tweaks.
func (e *Engine) Wait() WaitConfig {
	return WaitConfig{
		Timeout:              e.set.Timeout,
		MaxRetries:           e.set.MaxRetries,
		ValidateVisibility:   e.set.ValidateVisibility,
		ValidateInteractable: true,
	}
}
