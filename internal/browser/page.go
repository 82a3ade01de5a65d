package browser

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/nfnt/resize"
	"github.com/ysmood/gson"

	"github.com/v0xg/ytmark/internal/dom"
)

// markAttr tags elements the automation has looked at. Handles handed
// out through dom.Page are values of this attribute.
const markAttr = "data-ytm-handle"

// maxTextLen bounds the text carried back per element; container tiles
// can hold entire video descriptions.
const maxTextLen = 400

// Page drives one tab and implements dom.Page over CDP.
type Page struct {
	page        *rod.Page
	loadTimeout time.Duration
}

// settle waits for load plus a bounded network-idle window. Use a
// timeout so persistent connections (WebSockets, polling) can't hang us.
func (p *Page) settle() error {
	if err := p.page.Timeout(p.loadTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("page load: %w", err)
	}
	p.page.Timeout(5 * time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	return nil
}

// Close closes the tab
func (p *Page) Close() {
	p.page.Close()
}

func (p *Page) eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

func (p *Page) evalPromise(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Evaluate(rod.Eval(js, args...).ByPromise())
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// describeJS serializes an element the way dom.Element expects, tagging
// it with a reusable handle on first sight. Only untagged nodes get
// written to, so the mutation observer isn't fed by our own marks.
const describeJS = `
	function describe(el, mark, maxText) {
		let handle = el.getAttribute(mark);
		if (!handle) {
			window.__ytmSeq = (window.__ytmSeq || 0) + 1;
			handle = 'e' + window.__ytmSeq;
			el.setAttribute(mark, handle);
		}
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		const visible = rect.width > 0 && rect.height > 0 &&
			style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0';
		const attrs = {};
		for (const a of el.attributes) attrs[a.name] = a.value;
		let text = (el.textContent || '').trim().replace(/\s+/g, ' ');
		if (text.length > maxText) text = text.slice(0, maxText);
		return {
			handle: handle,
			tag: el.tagName.toLowerCase(),
			text: text,
			visible: visible,
			disabled: !!el.disabled || el.getAttribute('aria-disabled') === 'true',
			attrs: attrs
		};
	}`

var queryJS = `(sel, mark, maxText) => {` + describeJS + `
	let nodes;
	try {
		nodes = document.querySelectorAll(sel);
	} catch (err) {
		return { invalid: true };
	}
	const out = [];
	for (const el of nodes) out.push(describe(el, mark, maxText));
	return { elements: out };
}`

var queryWithinJS = `(rootSel, sel, mark, maxText) => {` + describeJS + `
	const root = document.querySelector(rootSel);
	if (!root) return { elements: [] };
	let nodes;
	try {
		nodes = root.querySelectorAll(sel);
	} catch (err) {
		return { invalid: true };
	}
	const out = [];
	for (const el of nodes) out.push(describe(el, mark, maxText));
	return { elements: out };
}`

var closestJS = `(fromSel, tags, maxDepth, mark, maxText) => {` + describeJS + `
	const el = document.querySelector(fromSel);
	if (!el) return null;
	const want = new Set(tags);
	let cur = el.parentElement;
	for (let depth = 1; cur && depth <= maxDepth; depth++) {
		if (want.has(cur.tagName.toLowerCase())) return describe(cur, mark, maxText);
		cur = cur.parentElement;
	}
	return null;
}`

// mutationJS resolves true on the first mutation burst that isn't our
// own mark writes, or false once the watchdog window passes. The
// observer always disconnects itself, so a severed CDP await can't
// leak observers into the page.
var mutationJS = `(mark, ms) => new Promise(resolve => {
	let done = false;
	const obs = new MutationObserver(records => {
		for (const rec of records) {
			if (rec.type === 'attributes' && rec.attributeName === mark) continue;
			done = true;
			obs.disconnect();
			clearTimeout(watchdog);
			resolve(true);
			return;
		}
	});
	const watchdog = setTimeout(() => {
		if (!done) {
			obs.disconnect();
			resolve(false);
		}
	}, ms);
	obs.observe(document.body, { childList: true, subtree: true, attributes: true });
})`

var clickJS = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.scrollIntoView({ block: 'center', inline: 'center' });
	if (typeof el.click === 'function') {
		el.click();
	} else {
		el.dispatchEvent(new MouseEvent('click', { bubbles: true, cancelable: true, view: window }));
	}
	return true;
}`

var clearMarksJS = `(mark) => {
	const nodes = document.querySelectorAll('[' + mark + ']');
	for (const el of nodes) el.removeAttribute(mark);
	return nodes.length;
}`

func handleSelector(handle string) string {
	return fmt.Sprintf("[%s=%q]", markAttr, handle)
}

func elementFrom(v gson.JSON) dom.Element {
	el := dom.Element{
		Handle:   v.Get("handle").String(),
		Tag:      v.Get("tag").String(),
		Text:     v.Get("text").String(),
		Visible:  v.Get("visible").Bool(),
		Disabled: v.Get("disabled").Bool(),
	}
	attrs := v.Get("attrs").Map()
	if len(attrs) > 0 {
		el.Attrs = make(map[string]string, len(attrs))
		for name, av := range attrs {
			el.Attrs[name] = av.String()
		}
	}
	return el
}

func elementsFrom(v gson.JSON) []dom.Element {
	var els []dom.Element
	for _, item := range v.Get("elements").Arr() {
		els = append(els, elementFrom(item))
	}
	return els
}

// Query implements dom.Page
func (p *Page) Query(ctx context.Context, selector string) ([]dom.Element, error) {
	v, err := p.eval(ctx, queryJS, selector, markAttr, maxTextLen)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if !v.Get("invalid").Nil() {
		return nil, fmt.Errorf("%w: %q", dom.ErrBadSelector, selector)
	}
	return elementsFrom(v), nil
}

// QueryWithin implements dom.Page
func (p *Page) QueryWithin(ctx context.Context, handle, selector string) ([]dom.Element, error) {
	v, err := p.eval(ctx, queryWithinJS, handleSelector(handle), selector, markAttr, maxTextLen)
	if err != nil {
		return nil, fmt.Errorf("query %q within %s: %w", selector, handle, err)
	}
	if !v.Get("invalid").Nil() {
		return nil, fmt.Errorf("%w: %q", dom.ErrBadSelector, selector)
	}
	return elementsFrom(v), nil
}

// Closest implements dom.Page
func (p *Page) Closest(ctx context.Context, handle string, tags []string, maxDepth int) (*dom.Element, error) {
	v, err := p.eval(ctx, closestJS, handleSelector(handle), tags, maxDepth, markAttr, maxTextLen)
	if err != nil {
		return nil, fmt.Errorf("closest from %s: %w", handle, err)
	}
	if v.Nil() {
		return nil, nil
	}
	el := elementFrom(v)
	return &el, nil
}

// WaitMutation implements dom.Page
func (p *Page) WaitMutation(ctx context.Context, window time.Duration) (bool, error) {
	v, err := p.evalPromise(ctx, mutationJS, markAttr, window.Milliseconds())
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

// Click implements dom.Page with a scripted click, the way a content
// script drives the page. Custom elements like tp-yt-paper-item don't
// all implement HTMLElement.click, hence the MouseEvent fallback.
func (p *Page) Click(ctx context.Context, handle string) error {
	v, err := p.eval(ctx, clickJS, handleSelector(handle))
	if err != nil {
		return fmt.Errorf("click %s: %w", handle, err)
	}
	if !v.Bool() {
		return fmt.Errorf("%w: %s", dom.ErrStaleElement, handle)
	}
	return nil
}

// ClearMarks strips every handle attribute a session left behind and
// reports how many elements were touched.
func (p *Page) ClearMarks(ctx context.Context) (int, error) {
	v, err := p.eval(ctx, clearMarksJS, markAttr)
	if err != nil {
		return 0, fmt.Errorf("clear marks: %w", err)
	}
	return v.Int(), nil
}

// Screenshot writes a PNG of the viewport to path, downscaled when
// wider than maxWidth (0 keeps the original size).
func (p *Page) Screenshot(ctx context.Context, path string, maxWidth uint) error {
	data, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("screenshot decode: %w", err)
	}
	if maxWidth > 0 && uint(img.Bounds().Dx()) > maxWidth {
		img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("screenshot encode: %w", err)
	}
	return nil
}
