package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/v0xg/ytmark/internal/config"
	"github.com/v0xg/ytmark/internal/dom"
)

// Finder locates one video's container tile and its overflow menu
// button on a page listing many videos.
type Finder struct {
	page dom.Page
	cfg  *config.Config
	log  dom.Logger
}

// NewFinder builds a finder over page. A nil logger discards output.
func NewFinder(page dom.Page, cfg *config.Config, log dom.Logger) *Finder {
	if log == nil {
		log = dom.NopLogger()
	}
	return &Finder{page: page, cfg: cfg, log: log}
}

// VideoByID resolves the container tile of the video with id. Three
// strategies run in order, cheapest first; a failing strategy is
// logged and the next one tried. A nil result with a nil error means
// the video is not on the page.
func (f *Finder) VideoByID(ctx context.Context, id string) (*dom.Element, error) {
	strategies := []struct {
		name string
		run  func(context.Context, string) (*dom.Element, error)
	}{
		{"data attribute", f.byDataAttribute},
		{"link traversal", f.byLinkTraversal},
		{"content scan", f.byContentScan},
	}

	for _, s := range strategies {
		el, err := s.run(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.log.Logf("finder: %s strategy failed: %v", s.name, err)
			continue
		}
		if el != nil {
			f.log.Logf("finder: video %s found via %s", id, s.name)
			return el, nil
		}
	}
	return nil, nil
}

// byDataAttribute checks containers that carry the video id directly.
func (f *Finder) byDataAttribute(ctx context.Context, id string) (*dom.Element, error) {
	for _, tag := range f.cfg.Containers.Tags {
		els, err := f.page.Query(ctx, tag+"[data-video-id]")
		if err != nil {
			return nil, err
		}
		for i := range els {
			ok, err := f.containerMatches(ctx, &els[i], id)
			if err != nil {
				return nil, err
			}
			if ok {
				return &els[i], nil
			}
		}
	}
	return nil, nil
}

// hrefPatterns yields the anchor selectors that embed a video id.
func hrefPatterns(id string) []string {
	return []string{
		fmt.Sprintf(`a[href*="watch?v=%s"]`, id),
		fmt.Sprintf(`a[href*="watch/%s"]`, id),
		fmt.Sprintf(`a[href*="/v/%s"]`, id),
		fmt.Sprintf(`a[href*="youtu.be/%s"]`, id),
	}
}

// byLinkTraversal finds an anchor pointing at the video and walks up
// to the nearest known container tag.
func (f *Finder) byLinkTraversal(ctx context.Context, id string) (*dom.Element, error) {
	for _, sel := range hrefPatterns(id) {
		anchors, err := f.page.Query(ctx, sel)
		if err != nil {
			return nil, err
		}
		for i := range anchors {
			container, err := f.page.Closest(ctx, anchors[i].Handle,
				f.cfg.Containers.Tags, f.cfg.Containers.MaxAncestorDepth)
			if err != nil {
				return nil, err
			}
			if container == nil {
				continue
			}
			ok, err := f.containerMatches(ctx, container, id)
			if err != nil {
				return nil, err
			}
			if ok {
				return container, nil
			}
		}
	}
	return nil, nil
}

// byContentScan walks every known container and inspects each one.
// Slowest strategy, runs last.
func (f *Finder) byContentScan(ctx context.Context, id string) (*dom.Element, error) {
	for _, tag := range f.cfg.Containers.Tags {
		els, err := f.page.Query(ctx, tag)
		if err != nil {
			return nil, err
		}
		for i := range els {
			ok, err := f.containerMatches(ctx, &els[i], id)
			if err != nil {
				return nil, err
			}
			if ok {
				return &els[i], nil
			}
		}
	}
	return nil, nil
}

// containerMatches confirms a container really is the requested video:
// by its own data attribute first, else by any watch link inside it.
// Every strategy funnels through this check, so a stray match (an id
// mentioned in a title, a neighboring tile) can't slip past.
func (f *Finder) containerMatches(ctx context.Context, el *dom.Element, id string) (bool, error) {
	if el.Attr("data-video-id") == id {
		return true, nil
	}
	links, err := f.page.QueryWithin(ctx, el.Handle, "a[href]")
	if err != nil {
		return false, err
	}
	for i := range links {
		if IDFromLink(links[i].Attr("href")) == id {
			return true, nil
		}
	}
	return false, nil
}

// MenuButton resolves the overflow menu trigger inside container. Tag
// specific selectors run first, then the universal ones, then two
// broad sweeps over anything button-like.
func (f *Finder) MenuButton(ctx context.Context, container *dom.Element) (*dom.Element, error) {
	sels := append(dom.SelectorSet{}, f.cfg.Containers.MenuButtons[container.Tag]...)
	sels = append(sels, f.cfg.Containers.UniversalMenu...)

	seen := make(map[string]bool, len(sels))
	for _, sel := range sels {
		if seen[sel] {
			continue
		}
		seen[sel] = true

		el, err := f.menuIn(ctx, container, sel)
		if err != nil {
			return nil, err
		}
		if el != nil {
			return el, nil
		}
	}

	for _, sel := range []string{`button, [role="button"]`, `yt-icon-button, ytd-menu-renderer`} {
		el, err := f.menuIn(ctx, container, sel)
		if err != nil {
			return nil, err
		}
		if el != nil {
			return el, nil
		}
	}
	return nil, nil
}

// menuIn scans one selector inside container for a valid menu button.
func (f *Finder) menuIn(ctx context.Context, container *dom.Element, sel string) (*dom.Element, error) {
	els, err := f.page.QueryWithin(ctx, container.Handle, sel)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.log.Logf("finder: menu selector %q: %v", sel, err)
		return nil, nil
	}
	for i := range els {
		ok, err := f.isMenuButton(ctx, &els[i])
		if err != nil {
			return nil, err
		}
		if ok {
			return &els[i], nil
		}
	}
	return nil, nil
}

// isMenuButton accepts visible, enabled controls that either advertise
// a menu through their label or class, or wrap a recognizable overflow
// icon.
func (f *Finder) isMenuButton(ctx context.Context, el *dom.Element) (bool, error) {
	if !el.Visible || el.Disabled {
		return false, nil
	}

	label := strings.ToLower(el.Attr("aria-label"))
	if label != "" && f.cfg.Containers.MenuLabels.Match(label) {
		return true, nil
	}

	class := strings.ToLower(el.Attr("class"))
	if strings.Contains(class, "menu") || strings.Contains(class, "dropdown") {
		return true, nil
	}

	if !buttonLike(el) {
		return false, nil
	}
	icons, err := f.page.QueryWithin(ctx, el.Handle, "yt-icon, svg, iron-icon")
	if err != nil {
		return false, err
	}
	return len(icons) > 0, nil
}

func buttonLike(el *dom.Element) bool {
	if el.Tag == "button" || el.Tag == "yt-icon-button" {
		return true
	}
	return el.Attr("role") == "button"
}
