package youtube_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/ytmark/internal/config"
	"github.com/v0xg/ytmark/internal/dom"
	"github.com/v0xg/ytmark/internal/dom/domtest"
	"github.com/v0xg/ytmark/internal/youtube"
)

const testID = "dQw4w9WgXcQ"

// testConfig shrinks every timing knob so flow tests finish fast.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timeouts.ElementWait = config.Duration(200 * time.Millisecond)
	cfg.Timeouts.MenuLoad = config.Duration(200 * time.Millisecond)
	cfg.Timeouts.ConsentWait = config.Duration(20 * time.Millisecond)
	cfg.Timeouts.ActionDelay = config.Duration(time.Millisecond)
	cfg.Timeouts.StepDelay = config.Duration(time.Millisecond)
	cfg.Timeouts.PollInitial = config.Duration(5 * time.Millisecond)
	cfg.Timeouts.PollInterval = config.Duration(10 * time.Millisecond)
	cfg.Timeouts.MaxRetries = 0
	return cfg
}

// markablePage scripts a listing page holding the test video, its menu
// button, and a script that reveals each dialog stage as the previous
// one is clicked, the way YouTube's UI behaves.
func markablePage(cfg *config.Config) *domtest.FakePage {
	page := domtest.NewFakePage()

	page.SetElements(`ytd-rich-item-renderer[data-video-id]`,
		tile("c1", "ytd-rich-item-renderer", map[string]string{"data-video-id": testID}))
	page.SetWithin("c1", cfg.Containers.MenuButtons["ytd-rich-item-renderer"][0],
		menuButtonEl("menu1", "More actions"))

	t := cfg.Targets
	page.OnClick = func(handle string) {
		switch handle {
		case "menu1":
			page.SetElements(t.NotInterested.Selectors[0], dom.Element{
				Handle: "ni1", Tag: "ytd-menu-service-item-renderer",
				Text: "Not interested", Visible: true,
			})
		case "ni1":
			page.SetElements(t.TellUsWhy.Selectors[0], dom.Element{
				Handle: "tw1", Tag: "button", Text: "Tell us why", Visible: true,
			})
		case "tw1":
			page.SetElements(t.AlreadyWatched.Selectors[0], dom.Element{
				Handle: "aw1", Tag: "tp-yt-paper-checkbox",
				Text: "I've already watched the video", Visible: true,
			})
		case "aw1":
			page.SetElements(t.Submit.Selectors[0], dom.Element{
				Handle: "sub1", Tag: "button", Text: "Submit", Visible: true,
			})
		}
		page.FireMutation()
	}
	return page
}

func TestMarkWatchedHappyPath(t *testing.T) {
	cfg := testConfig()
	page := markablePage(cfg)

	marker := youtube.NewMarker(page, cfg, t)
	err := marker.MarkWatched(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, []string{"menu1", "ni1", "tw1", "aw1", "sub1"}, page.Clicks())
}

func TestMarkWatchedAcceptsWatchURL(t *testing.T) {
	cfg := testConfig()
	page := markablePage(cfg)

	marker := youtube.NewMarker(page, cfg, t)
	err := marker.MarkWatched(context.Background(), youtube.WatchURL(testID))
	require.NoError(t, err)
	assert.Equal(t, []string{"menu1", "ni1", "tw1", "aw1", "sub1"}, page.Clicks())
}

func TestMarkWatchedAbortsWhenDialogBreaks(t *testing.T) {
	cfg := testConfig()
	page := markablePage(cfg)

	// The notification with "Tell us why" never shows up.
	base := page.OnClick
	page.OnClick = func(handle string) {
		if handle == "ni1" {
			return
		}
		base(handle)
	}

	marker := youtube.NewMarker(page, cfg, t)
	err := marker.MarkWatched(context.Background(), testID)

	var se *dom.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Index)
	assert.Equal(t, 5, se.Total)
	assert.Equal(t, []string{"menu1", "ni1"}, page.Clicks(),
		"later transitions must never run once one fails")
}

func TestMarkWatchedRejectsConcurrentRuns(t *testing.T) {
	cfg := testConfig()
	page := markablePage(cfg)

	release := make(chan struct{})
	base := page.OnClick
	page.OnClick = func(handle string) {
		if handle == "menu1" {
			<-release
		}
		base(handle)
	}

	marker := youtube.NewMarker(page, cfg, t)

	done := make(chan error, 1)
	go func() {
		done <- marker.MarkWatched(context.Background(), testID)
	}()

	require.Eventually(t, func() bool { return len(page.Clicks()) >= 1 },
		time.Second, 5*time.Millisecond, "first run never reached the menu click")

	clicksBefore := len(page.Clicks())
	err := marker.MarkWatched(context.Background(), testID)
	assert.ErrorIs(t, err, youtube.ErrBusy)
	assert.Equal(t, clicksBefore, len(page.Clicks()), "a rejected run must not touch the page")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"menu1", "ni1", "tw1", "aw1", "sub1"}, page.Clicks())
}

func TestMarkWatchedVideoNotOnPage(t *testing.T) {
	cfg := testConfig()
	page := domtest.NewFakePage()

	marker := youtube.NewMarker(page, cfg, t)
	err := marker.MarkWatched(context.Background(), testID)
	assert.ErrorIs(t, err, youtube.ErrVideoNotOnPage)
	assert.Empty(t, page.Clicks())
}

func TestMarkWatchedRejectsBadReference(t *testing.T) {
	cfg := testConfig()
	page := domtest.NewFakePage()

	marker := youtube.NewMarker(page, cfg, t)
	err := marker.MarkWatched(context.Background(), "not a video")
	require.Error(t, err)
	assert.Empty(t, page.Queries(), "nothing should be looked up for an unparseable reference")
}

func TestMarkWatchedNoMenuButton(t *testing.T) {
	cfg := testConfig()
	page := domtest.NewFakePage()
	page.SetElements(`ytd-rich-item-renderer[data-video-id]`,
		tile("c1", "ytd-rich-item-renderer", map[string]string{"data-video-id": testID}))

	marker := youtube.NewMarker(page, cfg, t)
	err := marker.MarkWatched(context.Background(), testID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "menu button")
	assert.Empty(t, page.Clicks())
}

func TestDismissConsentClicksDialog(t *testing.T) {
	cfg := testConfig()
	page := domtest.NewFakePage()
	page.SetElements(cfg.Targets.ConsentDismiss.Selectors[0], dom.Element{
		Handle: "con1", Tag: "button", Text: "Reject all", Visible: true,
	})

	marker := youtube.NewMarker(page, cfg, t)
	marker.DismissConsent(context.Background())
	assert.Equal(t, []string{"con1"}, page.Clicks())
}

func TestDismissConsentWithoutDialog(t *testing.T) {
	cfg := testConfig()
	page := domtest.NewFakePage()

	marker := youtube.NewMarker(page, cfg, t)
	marker.DismissConsent(context.Background())
	assert.Empty(t, page.Clicks())
}
