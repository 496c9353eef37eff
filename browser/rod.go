package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/datewatch/config"
	"github.com/use-agent/datewatch/models"
	"github.com/ysmood/gson"
)

// RodRenderer owns one Chromium process and hands out a fresh incognito
// context for every Open. The process is relaunched between polls once it
// has failed too often, served too many pages or grown too old.
type RodRenderer struct {
	cfg    config.BrowserConfig
	timing config.TimingConfig

	mu        sync.Mutex
	browser   *rod.Browser
	health    *health
	openPages int
}

// NewRodRenderer launches the browser.
func NewRodRenderer(cfg config.BrowserConfig, timing config.TimingConfig) (*RodRenderer, error) {
	b, err := launch(cfg)
	if err != nil {
		return nil, err
	}
	return &RodRenderer{browser: b, health: newHealth(time.Now()), cfg: cfg, timing: timing}, nil
}

func launch(cfg config.BrowserConfig) (*rod.Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Fingerprint flags ────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-accelerated-2d-canvas"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.ViewportWidth, cfg.ViewportHeight))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewMonitorError(models.ErrCodeRenderFailed, "", "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewMonitorError(models.ErrCodeRenderFailed, "", "failed to connect to browser", err)
	}
	return b, nil
}

// OpenPages reports the number of browsing contexts not yet closed.
func (r *RodRenderer) OpenPages() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openPages
}

// Close kills the browser process.
func (r *RodRenderer) Close() error {
	slog.Info("renderer shutting down: closing browser")
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.browser.Close()
}

// current returns the live browser, relaunching it first when it is due
// for retirement and no page is still open on it.
func (r *RodRenderer) current() (*rod.Browser, *health) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openPages > 0 || !r.health.exhausted(time.Now()) {
		return r.browser, r.health
	}

	slog.Info("recycling browser process")
	b, err := launch(r.cfg)
	if err != nil {
		slog.Warn("browser relaunch failed, keeping the old process", "error", err)
		return r.browser, r.health
	}
	if err := r.browser.Close(); err != nil {
		slog.Debug("old browser close failed", "error", err)
	}
	r.browser = b
	r.health = newHealth(time.Now())
	return r.browser, r.health
}

// Open creates an incognito context, normalises its fingerprint, navigates
// to target and waits for the page to settle.
//
// Order matters: stealth JS, extra headers and request hijacking only apply
// to navigations that happen after they are installed, and the idle waiter
// must be registered before Navigate or it misses in-flight requests.
func (r *RodRenderer) Open(ctx context.Context, target string) (Page, error) {
	b, h := r.current()
	incognito, err := b.Incognito()
	if err != nil {
		h.record(false)
		return nil, models.NewMonitorError(models.ErrCodeRenderFailed, "", "failed to create browser context", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		h.record(false)
		return nil, models.NewMonitorError(models.ErrCodeRenderFailed, "", "failed to create page", err)
	}

	r.mu.Lock()
	r.openPages++
	r.mu.Unlock()

	rp := &rodPage{
		page:      page,
		incognito: incognito,
		onClose: func() {
			r.mu.Lock()
			r.openPages--
			r.mu.Unlock()
		},
	}

	if err := r.load(ctx, rp, target); err != nil {
		_ = rp.Close()
		h.record(false)
		return nil, err
	}
	h.record(true)
	return rp, nil
}

func (r *RodRenderer) load(ctx context.Context, rp *rodPage, target string) error {
	page := rp.page

	// ── 1. Fingerprint normalisation ──────────────────────────────────
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.cfg.ViewportWidth,
		Height:            r.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("failed to set viewport", "error", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      r.cfg.UserAgent,
		AcceptLanguage: r.cfg.AcceptLanguage,
	}); err != nil {
		slog.Warn("failed to set user agent", "error", err)
	}
	if r.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	if u, err := url.Parse(target); err == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(page)
	}

	// ── 2. Resource blocking ──────────────────────────────────────────
	rp.router = setupHijack(page, r.cfg.BlockedResourceTypes, r.cfg.BlockAds)

	// ── 3. Navigate under the navigation deadline ─────────────────────
	navCtx, cancel := context.WithTimeout(ctx, r.timing.NavigationTimeout)
	defer cancel()
	p := page.Context(navCtx)

	// WaitRequestIdle uses the Fetch domain, which conflicts with
	// HijackRequests. Fall back to DOM stability when hijacking.
	var waitIdle func()
	if rp.router == nil {
		waitIdle = p.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	}

	if err := p.Navigate(target); err != nil {
		return categorizeError(err, "navigation failed")
	}
	if waitIdle != nil {
		waitIdle()
	} else if err := p.WaitDOMStable(500*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	if err := navCtx.Err(); err != nil {
		return categorizeError(err, "page did not settle before the navigation timeout")
	}

	// ── 4. Late client-side rendering ─────────────────────────────────
	if err := Settle(ctx, r.timing.LoadSettle); err != nil {
		return categorizeError(err, "interrupted while waiting for content")
	}
	return nil
}

// rodPage is one incognito context holding one page.
type rodPage struct {
	page      *rod.Page
	incognito *rod.Browser
	router    *rod.HijackRouter
	onClose   func()
	closeOnce sync.Once
	closeErr  error
}

func (p *rodPage) Document(ctx context.Context) (*goquery.Document, error) {
	raw, err := p.page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return ParseDocument(raw)
}

func (p *rodPage) Frames(ctx context.Context) ([]Frame, error) {
	els, err := p.page.Context(ctx).Elements("iframe")
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	frames := make([]Frame, len(els))
	for i, el := range els {
		frames[i] = &rodFrame{el: el, index: i}
	}
	return frames, nil
}

func (p *rodPage) FindByText(ctx context.Context, selector, text string) (Element, error) {
	el, err := p.page.Context(ctx).ElementR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return nil, fmt.Errorf("find %s with text %q: %w", selector, text, err)
	}
	return &rodElement{el: el}, nil
}

// Close stops request hijacking, closes the page and disposes the incognito
// context. Only the first call has any effect.
func (p *rodPage) Close() error {
	p.closeOnce.Do(func() {
		if p.router != nil {
			_ = p.router.Stop()
		}
		if err := p.page.Close(); err != nil {
			slog.Debug("page close failed", "error", err)
		}
		p.closeErr = p.incognito.Close()
		if p.onClose != nil {
			p.onClose()
		}
	})
	return p.closeErr
}

type rodFrame struct {
	el    *rod.Element
	index int
}

func (f *rodFrame) Index() int { return f.index }

func (f *rodFrame) Document(ctx context.Context) (*goquery.Document, error) {
	var raw string
	// Out-of-process frames make rod panic instead of returning an error.
	err := rod.Try(func() {
		fp := f.el.Context(ctx).MustFrame()
		raw = fp.Context(ctx).MustHTML()
	})
	if err != nil {
		return nil, models.NewMonitorError(models.ErrCodeFrameAccess, "",
			fmt.Sprintf("frame %d has no accessible document", f.index), err)
	}
	return ParseDocument(raw)
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// categorizeError wraps raw renderer errors into typed MonitorErrors.
func categorizeError(err error, msg string) *models.MonitorError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewMonitorError(models.ErrCodeRenderTimeout, "", msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewMonitorError(models.ErrCodeRenderTimeout, "", "render canceled", err)
	default:
		return models.NewMonitorError(models.ErrCodeRenderFailed, "", msg, err)
	}
}
