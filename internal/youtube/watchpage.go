package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/v0xg/ytmark/internal/config"
	"github.com/v0xg/ytmark/internal/dom"
)

// VideoMeta carries what an open watch page reveals about a video.
type VideoMeta struct {
	ID          string
	URL         string
	Title       string
	Channel     string
	Description string
}

// WatchPage scrapes an open watch page for metadata and transcript.
type WatchPage struct {
	page   dom.Page
	engine *dom.Engine
	cfg    *config.Config
	log    dom.Logger
}

// NewWatchPage builds a scraper over page. A nil logger discards
// output.
func NewWatchPage(page dom.Page, cfg *config.Config, log dom.Logger) *WatchPage {
	if log == nil {
		log = dom.NopLogger()
	}
	return &WatchPage{
		page:   page,
		engine: dom.NewEngine(page, cfg.DOMSettings(), log),
		cfg:    cfg,
		log:    log,
	}
}

// DismissConsent clicks through a consent dialog when one is up.
func (w *WatchPage) DismissConsent(ctx context.Context) {
	dismissConsent(ctx, w.engine, w.cfg)
}

// Metadata waits for the title to render and collects the channel name
// when it is there. A watch page without a title is treated as broken.
func (w *WatchPage) Metadata(ctx context.Context, id string) (*VideoMeta, error) {
	title, err := w.engine.WaitFor(ctx, w.cfg.Targets.VideoTitle.Selectors, w.engine.Wait())
	if err != nil {
		return nil, fmt.Errorf("video title: %w", err)
	}

	meta := &VideoMeta{ID: id, URL: WatchURL(id), Title: title.Text}

	channel := w.engine.Wait()
	channel.Timeout = w.cfg.Timeouts.MenuLoad.Std()
	channel.MaxRetries = -1
	if ch, err := w.engine.WaitFor(ctx, w.cfg.Targets.ChannelName.Selectors, channel); err == nil {
		meta.Channel = ch.Text
	}
	return meta, nil
}

// Transcript opens the transcript panel and concatenates its segments.
// The description is expanded first because current layouts bury the
// transcript button inside the collapsed description.
func (w *WatchPage) Transcript(ctx context.Context) (string, error) {
	expand := w.engine.Wait()
	expand.Timeout = w.cfg.Timeouts.MenuLoad.Std()
	expand.MaxRetries = -1
	expand.TextPatterns = w.cfg.Targets.DescriptionMore.TextPatterns

	show := w.engine.Wait()
	show.TextPatterns = w.cfg.Targets.ShowTranscript.TextPatterns

	steps := []dom.Step{
		{Name: "expand description", Selectors: w.cfg.Targets.DescriptionMore.Selectors, Wait: &expand, Optional: true},
		{Name: "open transcript panel", Selectors: w.cfg.Targets.ShowTranscript.Selectors, Wait: &show},
	}
	if err := w.engine.Run(ctx, steps); err != nil {
		return "", fmt.Errorf("transcript panel: %w", err)
	}

	// Segments stream in after the panel opens; wait for the first one
	// before collecting them all.
	if _, err := w.engine.WaitFor(ctx, w.cfg.Targets.TranscriptSegment.Selectors, w.engine.Wait()); err != nil {
		return "", fmt.Errorf("transcript segments: %w", err)
	}

	var parts []string
	for _, sel := range w.cfg.Targets.TranscriptSegment.Selectors {
		els, err := w.page.Query(ctx, sel)
		if err != nil || len(els) == 0 {
			continue
		}
		for i := range els {
			if t := strings.TrimSpace(els[i].Text); t != "" {
				parts = append(parts, t)
			}
		}
		break
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("transcript panel opened but no segments rendered")
	}
	return strings.Join(parts, " "), nil
}

// Description reads the description text when it is on the page.
// Summaries fall back to it for videos without a transcript.
func (w *WatchPage) Description(ctx context.Context) string {
	for _, sel := range w.cfg.Targets.DescriptionText.Selectors {
		els, err := w.page.Query(ctx, sel)
		if err != nil {
			continue
		}
		for i := range els {
			if t := strings.TrimSpace(els[i].Text); t != "" {
				return t
			}
		}
	}
	return ""
}
