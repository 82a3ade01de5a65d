// Package domtest provides a scripted dom.Page so engine behavior can
// be tested without a browser.
package domtest

import (
	"context"
	"sync"
	"time"

	"github.com/v0xg/ytmark/internal/dom"
)

type ancestor struct {
	el    dom.Element
	depth int
}

// FakePage implements dom.Page from scripted results. All methods are
// safe for concurrent use; tests mutate the script mid-run to simulate
// a page changing under the automation.
type FakePage struct {
	mu        sync.Mutex
	results   map[string][]dom.Element
	queryErr  map[string]error
	within    map[string]map[string][]dom.Element
	ancestors map[string]ancestor
	clickErr  map[string]error

	queries     []string
	clicks      []string
	activeWaits int

	mutations chan struct{}

	// OnClick, when set, runs after every recorded click. Tests use it
	// to mutate the script the way a real page reacts to input.
	OnClick func(handle string)
}

// NewFakePage returns an empty page: every query matches nothing.
func NewFakePage() *FakePage {
	return &FakePage{
		results:   map[string][]dom.Element{},
		queryErr:  map[string]error{},
		within:    map[string]map[string][]dom.Element{},
		ancestors: map[string]ancestor{},
		clickErr:  map[string]error{},
		mutations: make(chan struct{}, 16),
	}
}

// SetElements scripts the result of Query(selector).
func (f *FakePage) SetElements(selector string, els ...dom.Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[selector] = els
}

// SetQueryError makes Query(selector) fail with err.
func (f *FakePage) SetQueryError(selector string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryErr[selector] = err
}

// SetWithin scripts the result of QueryWithin(handle, selector).
func (f *FakePage) SetWithin(handle, selector string, els ...dom.Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.within[handle] == nil {
		f.within[handle] = map[string][]dom.Element{}
	}
	f.within[handle][selector] = els
}

// SetAncestor scripts the container Closest finds for handle, depth
// levels up.
func (f *FakePage) SetAncestor(handle string, el dom.Element, depth int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ancestors[handle] = ancestor{el: el, depth: depth}
}

// SetClickError makes Click(handle) fail with err.
func (f *FakePage) SetClickError(handle string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clickErr[handle] = err
}

// FireMutation wakes the next (or a currently blocked) WaitMutation.
func (f *FakePage) FireMutation() {
	select {
	case f.mutations <- struct{}{}:
	default:
	}
}

// Queries returns every selector passed to Query so far.
func (f *FakePage) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}

// QueryCount returns how many times selector has been queried.
func (f *FakePage) QueryCount(selector string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.queries {
		if q == selector {
			n++
		}
	}
	return n
}

// Clicks returns the handles clicked so far, in order.
func (f *FakePage) Clicks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.clicks))
	copy(out, f.clicks)
	return out
}

// ActiveWaits returns how many WaitMutation calls are in flight.
func (f *FakePage) ActiveWaits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeWaits
}

// Query implements dom.Page.
func (f *FakePage) Query(ctx context.Context, selector string) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, selector)
	if err := f.queryErr[selector]; err != nil {
		return nil, err
	}
	els := f.results[selector]
	out := make([]dom.Element, len(els))
	copy(out, els)
	return out, nil
}

// QueryWithin implements dom.Page.
func (f *FakePage) QueryWithin(ctx context.Context, handle, selector string) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	els := f.within[handle][selector]
	out := make([]dom.Element, len(els))
	copy(out, els)
	return out, nil
}

// Closest implements dom.Page.
func (f *FakePage) Closest(ctx context.Context, handle string, tags []string, maxDepth int) (*dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.ancestors[handle]
	if !ok || a.depth > maxDepth {
		return nil, nil
	}
	for _, tag := range tags {
		if a.el.Tag == tag {
			cp := a.el
			return &cp, nil
		}
	}
	return nil, nil
}

// WaitMutation implements dom.Page.
func (f *FakePage) WaitMutation(ctx context.Context, window time.Duration) (bool, error) {
	f.mu.Lock()
	f.activeWaits++
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.activeWaits--
		f.mu.Unlock()
	}()

	t := time.NewTimer(window)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-f.mutations:
		return true, nil
	case <-t.C:
		return false, nil
	}
}

// Click implements dom.Page.
func (f *FakePage) Click(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.clicks = append(f.clicks, handle)
	err := f.clickErr[handle]
	hook := f.OnClick
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(handle)
	}
	return nil
}
