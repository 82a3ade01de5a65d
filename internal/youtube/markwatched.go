package youtube

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/v0xg/ytmark/internal/config"
	"github.com/v0xg/ytmark/internal/dom"
)

// ErrBusy means a mark-as-watched run is already in flight on this
// page. Runs walk a multi-step menu flow; interleaving two of them
// would leave the first one clicking into the second one's dialogs.
var ErrBusy = errors.New("a mark-as-watched run is already in flight")

// ErrVideoNotOnPage means no container tile for the video could be
// located on the current listing page.
var ErrVideoNotOnPage = errors.New("video not found on page")

// Marker drives the mark-as-watched flow on one listing page.
type Marker struct {
	mu     sync.Mutex
	engine *dom.Engine
	finder *Finder
	cfg    *config.Config
	log    dom.Logger
}

// NewMarker builds a marker over page. A nil logger discards output.
func NewMarker(page dom.Page, cfg *config.Config, log dom.Logger) *Marker {
	if log == nil {
		log = dom.NopLogger()
	}
	return &Marker{
		engine: dom.NewEngine(page, cfg.DOMSettings(), log),
		finder: NewFinder(page, cfg, log),
		cfg:    cfg,
		log:    log,
	}
}

// DismissConsent clicks through a consent dialog when one is up. Pages
// without one are left untouched.
func (m *Marker) DismissConsent(ctx context.Context) {
	dismissConsent(ctx, m.engine, m.cfg)
}

// MarkWatched locates the referenced video on the current page and
// walks YouTube's feedback flow to record it as already watched:
// menu, "Not interested", "Tell us why", the "Already watched" reason,
// submit. The flow aborts on the first failed transition so a half
// open dialog is never submitted. Concurrent calls are rejected with
// ErrBusy before they touch the page.
func (m *Marker) MarkWatched(ctx context.Context, videoRef string) error {
	if !m.mu.TryLock() {
		return ErrBusy
	}
	defer m.mu.Unlock()

	id, err := ParseVideoID(videoRef)
	if err != nil {
		return err
	}

	run := uuid.NewString()[:8]
	m.log.Logf("run %s: marking %s as already watched", run, id)

	container, err := m.finder.VideoByID(ctx, id)
	if err != nil {
		return fmt.Errorf("locate video %s: %w", id, err)
	}
	if container == nil {
		return fmt.Errorf("%w: %s", ErrVideoNotOnPage, id)
	}

	menu, err := m.finder.MenuButton(ctx, container)
	if err != nil {
		return fmt.Errorf("locate menu button for %s: %w", id, err)
	}
	if menu == nil {
		return fmt.Errorf("no menu button in the container of %s", id)
	}

	if err := m.engine.Run(ctx, m.steps(menu)); err != nil {
		return fmt.Errorf("mark as watched did not complete: %w", err)
	}

	m.log.Logf("run %s: %s marked as already watched", run, id)
	return nil
}

// steps assembles the five-transition sequence. The menu button is
// already resolved, so the first step acts immediately; the menu popup
// renders fast and gets a shorter wait budget than page content.
func (m *Marker) steps(menu *dom.Element) []dom.Step {
	t := m.cfg.Targets

	notInterested := m.engine.Wait()
	notInterested.Timeout = m.cfg.Timeouts.MenuLoad.Std()
	notInterested.TextPatterns = t.NotInterested.TextPatterns

	tellUsWhy := m.engine.Wait()
	tellUsWhy.TextPatterns = t.TellUsWhy.TextPatterns

	alreadyWatched := m.engine.Wait()
	alreadyWatched.TextPatterns = t.AlreadyWatched.TextPatterns

	submit := m.engine.Wait()
	submit.TextPatterns = t.Submit.TextPatterns

	return []dom.Step{
		{Name: "open video menu", Element: menu},
		{Name: `choose "Not interested"`, Selectors: t.NotInterested.Selectors, Wait: &notInterested},
		{Name: `open "Tell us why"`, Selectors: t.TellUsWhy.Selectors, Wait: &tellUsWhy},
		{Name: `choose "Already watched"`, Selectors: t.AlreadyWatched.Selectors, Wait: &alreadyWatched},
		{Name: "submit feedback", Selectors: t.Submit.Selectors, Wait: &submit},
	}
}

// dismissConsent runs the optional consent step shared by every flow
// that lands on a cold YouTube page.
func dismissConsent(ctx context.Context, engine *dom.Engine, cfg *config.Config) {
	wait := engine.Wait()
	wait.Timeout = cfg.Timeouts.ConsentWait.Std()
	wait.MaxRetries = -1
	wait.TextPatterns = cfg.Targets.ConsentDismiss.TextPatterns

	_ = engine.Run(ctx, []dom.Step{{
		Name:      "dismiss consent dialog",
		Selectors: cfg.Targets.ConsentDismiss.Selectors,
		Wait:      &wait,
		Optional:  true,
	}})
}
