// Package browser owns the Chromium session: launching, opening tabs
// and the CDP-backed implementation of dom.Page.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures the browser session
type Options struct {
	Width      int
	Height     int
	Headless   bool
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	Timeout    time.Duration
}

// Browser wraps the Rod browser for reuse across tabs
type Browser struct {
	browser *rod.Browser
	opts    Options
}

// Launch starts a local Chromium and connects to it
func Launch(opts Options) (*Browser, error) {
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 720
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(opts.Headless)

	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("chromium launch failed: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser connect failed: %w", err)
	}

	return &Browser{browser: b, opts: opts}, nil
}

// Close cleans up browser resources
func (b *Browser) Close() {
	if b.browser != nil {
		b.browser.Close()
	}
}

// Open navigates a fresh tab to url and waits for it to settle
func (b *Browser) Open(ctx context.Context, url string) (*Page, error) {
	tab, err := b.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	tab = tab.Context(ctx)

	if err := tab.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.opts.Width,
		Height:            b.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	p := &Page{page: tab, loadTimeout: b.opts.Timeout}
	if err := p.settle(); err != nil {
		return nil, err
	}
	return p, nil
}
