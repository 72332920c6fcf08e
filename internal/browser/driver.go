// Package browser wraps a scriptable browser session behind an explicit
// driver abstraction. Sessions are scoped resources: every NewSession
// call must be paired with a deferred Close so the underlying browser is
// released on all exit paths.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Driver launches browser sessions with a consistent configuration.
type Driver struct {
	headless       bool
	navTimeout     time.Duration
	blockResources bool
	logger         *zap.Logger
}

// NewDriver creates a driver. navTimeout bounds each navigation and
// script evaluation; its firing is a per-item failure, never fatal.
func NewDriver(headless bool, navTimeout time.Duration, blockResources bool, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if navTimeout <= 0 {
		navTimeout = 45 * time.Second
	}
	return &Driver{
		headless:       headless,
		navTimeout:     navTimeout,
		blockResources: blockResources,
		logger:         logger,
	}
}

// Session is one exclusively-owned browser tab.
type Session struct {
	ctx        context.Context
	navTimeout time.Duration
	cancels    []context.CancelFunc
	closeOnce  sync.Once
	logger     *zap.Logger
}

// NewSession launches a browser tab with the given fingerprint applied.
// The caller owns the session for the lifetime of its adapter invocation
// and must defer Close.
func (d *Driver) NewSession(ctx context.Context, fp FingerprintProfile) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", fp.AcceptLanguage),
		chromedp.UserAgent(fp.UserAgent),
		chromedp.WindowSize(fp.Width, fp.Height),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:        tabCtx,
		navTimeout: d.navTimeout,
		cancels:    []context.CancelFunc{cancelTab, cancelAlloc},
		logger:     d.logger,
	}

	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(fp.Width), int64(fp.Height)),
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": fp.AcceptLanguage,
		}),
	}
	if d.blockResources {
		actions = append(actions, fetch.Enable())
		s.blockNonEssential()
	}

	if err := s.run(actions...); err != nil {
		s.Close()
		return nil, fmt.Errorf("launch session: %w", err)
	}

	return s, nil
}

// blockNonEssential fails image, font, stylesheet and media requests
// before they hit the network. Less bandwidth, smaller detection surface.
func (s *Session) blockNonEssential() {
	tabCtx := s.ctx
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			switch e.ResourceType {
			case network.ResourceTypeImage, network.ResourceTypeFont,
				network.ResourceTypeStylesheet, network.ResourceTypeMedia:
				_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			default:
				_ = fetch.ContinueRequest(e.RequestID).Do(execCtx)
			}
		}()
	})
}

// Close releases the browser. Safe to call multiple times and on every
// exit path.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, cancel := range s.cancels {
			cancel()
		}
	})
}

// Navigate loads a URL and waits for the body to be ready.
func (s *Session) Navigate(url string) error {
	return s.run(
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// HTML returns the current serialized DOM.
func (s *Session) HTML() (string, error) {
	var html string
	err := s.run(chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// ScrollToBottom scrolls the page and reports whether the document grew
// since the previous call, for scroll-until-stable listing discovery.
func (s *Session) ScrollToBottom(prevHeight int64) (int64, bool, error) {
	var height int64
	err := s.run(
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`, &height),
		chromedp.Sleep(500*time.Millisecond),
	)
	if err != nil {
		return prevHeight, false, err
	}
	return height, height > prevHeight, nil
}

// Evaluate runs a script and decodes its result into out.
func (s *Session) Evaluate(script string, out interface{}) error {
	return s.run(chromedp.Evaluate(script, out))
}

// Text returns the visible text of the first node matching sel, or empty
// if none exists.
func (s *Session) Text(sel string) (string, error) {
	var text string
	err := s.run(chromedp.Evaluate(fmt.Sprintf(
		`(() => { const n = document.querySelector(%q); return n ? n.innerText : ""; })()`, sel), &text))
	return strings.TrimSpace(text), err
}

// SendKeys types into the first node matching sel.
func (s *Session) SendKeys(sel, value string) error {
	return s.run(chromedp.SendKeys(sel, value, chromedp.ByQuery))
}

// Click clicks the first node matching sel.
func (s *Session) Click(sel string) error {
	return s.run(chromedp.Click(sel, chromedp.ByQuery))
}

func (s *Session) run(actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}
