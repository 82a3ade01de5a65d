package dom_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/ytmark/internal/dom"
	"github.com/v0xg/ytmark/internal/dom/domtest"
)

func button(handle, text string) dom.Element {
	return dom.Element{Handle: handle, Tag: "button", Text: text, Visible: true}
}

func TestFindBestPrefersSelectorOrder(t *testing.T) {
	page := domtest.NewFakePage()
	page.SetElements("#primary", button("p1", "Primary"))
	page.SetElements(".fallback", button("f1", "Fallback"))

	eng := dom.NewEngine(page, dom.DefaultSettings(), t)
	el, err := eng.FindBest(context.Background(), dom.SelectorSet{"#primary", ".fallback"}, eng.Wait())
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "p1", el.Handle)
}

func TestFindBestFallsThroughInvalidMatches(t *testing.T) {
	page := domtest.NewFakePage()
	page.SetElements("#primary", dom.Element{Handle: "p1", Tag: "button", Visible: false})
	page.SetElements(".fallback", button("f1", ""))

	eng := dom.NewEngine(page, dom.DefaultSettings(), t)
	el, err := eng.FindBest(context.Background(), dom.SelectorSet{"#primary", ".fallback"}, eng.Wait())
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "f1", el.Handle)
}

func TestFindBestUsesDocumentOrderWithinSelector(t *testing.T) {
	page := domtest.NewFakePage()
	page.SetElements("button",
		dom.Element{Handle: "b1", Tag: "button", Visible: false},
		button("b2", ""),
		button("b3", ""),
	)

	eng := dom.NewEngine(page, dom.DefaultSettings(), t)
	el, err := eng.FindBest(context.Background(), dom.SelectorSet{"button"}, eng.Wait())
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "b2", el.Handle)
}

func TestFindBestValidation(t *testing.T) {
	tests := []struct {
		name     string
		el       dom.Element
		patterns dom.TextPatternSet
		tweak    func(*dom.WaitConfig)
		found    bool
	}{
		{
			name:  "visible enabled element passes",
			el:    button("e1", "Not interested"),
			found: true,
		},
		{
			name:  "hidden element rejected",
			el:    dom.Element{Handle: "e1", Tag: "button", Visible: false},
			found: false,
		},
		{
			name:  "disabled element rejected",
			el:    dom.Element{Handle: "e1", Tag: "button", Visible: true, Disabled: true},
			found: false,
		},
		{
			name:     "text pattern mismatch rejected",
			el:       button("e1", "Save to Watch later"),
			patterns: dom.TextPatternSet{"not interested"},
			found:    false,
		},
		{
			name:     "text pattern matches case-insensitively",
			el:       button("e1", "NOT Interested"),
			patterns: dom.TextPatternSet{"not interested"},
			found:    true,
		},
		{
			name:     "any one pattern suffices",
			el:       button("e1", "I have already watched the video"),
			patterns: dom.TextPatternSet{"already watched", "watched the video"},
			found:    true,
		},
		{
			name:     "all requested checks must pass",
			el:       dom.Element{Handle: "e1", Tag: "button", Text: "Submit", Visible: true, Disabled: true},
			patterns: dom.TextPatternSet{"submit"},
			found:    false,
		},
		{
			name:  "visibility check can be switched off",
			el:    dom.Element{Handle: "e1", Tag: "button", Visible: false},
			tweak: func(c *dom.WaitConfig) { c.ValidateVisibility = false },
			found: true,
		},
		{
			name:  "interactable check can be switched off",
			el:    dom.Element{Handle: "e1", Tag: "button", Visible: true, Disabled: true},
			tweak: func(c *dom.WaitConfig) { c.ValidateInteractable = false },
			found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := domtest.NewFakePage()
			page.SetElements("#target", tt.el)

			eng := dom.NewEngine(page, dom.DefaultSettings(), t)
			cfg := eng.Wait()
			cfg.TextPatterns = tt.patterns
			if tt.tweak != nil {
				tt.tweak(&cfg)
			}

			el, err := eng.FindBest(context.Background(), dom.SelectorSet{"#target"}, cfg)
			require.NoError(t, err)
			if tt.found {
				require.NotNil(t, el)
				assert.Equal(t, "e1", el.Handle)
			} else {
				assert.Nil(t, el)
			}
		})
	}
}

func TestFindBestSkipsInvalidSelector(t *testing.T) {
	page := domtest.NewFakePage()
	page.SetQueryError("div[unclosed", fmt.Errorf("%w: div[unclosed", dom.ErrBadSelector))
	page.SetElements("#ok", button("ok1", ""))

	eng := dom.NewEngine(page, dom.DefaultSettings(), t)
	el, err := eng.FindBest(context.Background(), dom.SelectorSet{"div[unclosed", "#ok"}, eng.Wait())
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "ok1", el.Handle)
}

func TestFindBestSkipsFailingQuery(t *testing.T) {
	page := domtest.NewFakePage()
	page.SetQueryError("#flaky", errors.New("page went away"))
	page.SetElements("#ok", button("ok1", ""))

	eng := dom.NewEngine(page, dom.DefaultSettings(), t)
	el, err := eng.FindBest(context.Background(), dom.SelectorSet{"#flaky", "#ok"}, eng.Wait())
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "ok1", el.Handle)
}

func TestFindBestNoMatch(t *testing.T) {
	page := domtest.NewFakePage()

	eng := dom.NewEngine(page, dom.DefaultSettings(), t)
	el, err := eng.FindBest(context.Background(), dom.SelectorSet{"#a", "#b"}, eng.Wait())
	require.NoError(t, err)
	assert.Nil(t, el)
	assert.Equal(t, []string{"#a", "#b"}, page.Queries())
}

func TestFindBestHonorsContext(t *testing.T) {
	page := domtest.NewFakePage()
	page.SetElements("#target", button("e1", ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := dom.NewEngine(page, dom.DefaultSettings(), t)
	_, err := eng.FindBest(ctx, dom.SelectorSet{"#target"}, eng.Wait())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextPatternSetMatch(t *testing.T) {
	tests := []struct {
		name     string
		patterns dom.TextPatternSet
		text     string
		want     bool
	}{
		{"empty set matches everything", nil, "anything at all", true},
		{"empty set matches empty text", nil, "", true},
		{"substring match", dom.TextPatternSet{"tell us why"}, "Tell us why you weren't interested", true},
		{"mixed case pattern", dom.TextPatternSet{"Already WATCHED"}, "already watched", true},
		{"no match", dom.TextPatternSet{"submit"}, "Cancel", false},
		{"empty text never matches a non-empty set", dom.TextPatternSet{"submit"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.patterns.Match(tt.text))
		})
	}
}
