package dom

import (
	"context"
	"errors"
)

// FindBest resolves sels to the first element, in selector order then
// document order, that passes every check cfg requests. It returns nil
// with a nil error when nothing matches right now. Malformed selectors
// are logged and skipped so one stale entry in a selector table never
// takes the whole scan down.
func (e *Engine) FindBest(ctx context.Context, sels SelectorSet, cfg WaitConfig) (*Element, error) {
	for _, sel := range sels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := e.page.Query(ctx, sel)
		if err != nil {
			if errors.Is(err, ErrBadSelector) {
				e.log.Logf("locator: skipping invalid selector %q", sel)
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.log.Logf("locator: query %q: %v", sel, err)
			continue
		}
		for i := range matches {
			if e.valid(&matches[i], cfg) {
				return &matches[i], nil
			}
		}
	}
	return nil, nil
}

// valid applies the checks cfg requests. All of them must pass.
func (e *Engine) valid(el *Element, cfg WaitConfig) bool {
	if cfg.ValidateVisibility && !el.Visible {
		return false
	}
	if cfg.ValidateInteractable && el.Disabled {
		return false
	}
	return cfg.TextPatterns.Match(el.Text)
}
