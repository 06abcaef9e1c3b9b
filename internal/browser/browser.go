// Package browser implements dom.Document on a live Chromium page driven
// over the DevTools protocol.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/jakopako/pinpoint/internal/log"
	"github.com/jakopako/pinpoint/internal/recorder"
	"github.com/jakopako/pinpoint/internal/utils"
)

// Config configures the browser.
type Config struct {
	Headless       bool   `yaml:"headless" env:"PINPOINT_BROWSER_HEADLESS" env-default:"true"`
	WindowWidth    int    `yaml:"window_width" env:"PINPOINT_BROWSER_WINDOW_WIDTH" env-default:"1920"`
	WindowHeight   int    `yaml:"window_height" env:"PINPOINT_BROWSER_WINDOW_HEIGHT" env-default:"1080"`
	UserAgent      string `yaml:"user_agent" env:"PINPOINT_BROWSER_USER_AGENT"`
	PageLoadWaitMS int    `yaml:"page_load_wait_ms" env:"PINPOINT_BROWSER_PAGE_LOAD_WAIT_MS" env-default:"2000"`
	DebugDir       string `yaml:"debug_dir" env:"PINPOINT_BROWSER_DEBUG_DIR"`
}

// Browser owns a Chromium process. Pages opened from it share the process.
type Browser struct {
	*Config
	allocContext context.Context
	cancelAlloc  context.CancelFunc
}

func New(cfg *Config) *Browser {
	if cfg.WindowWidth == 0 || cfg.WindowHeight == 0 {
		cfg.WindowWidth, cfg.WindowHeight = 1920, 1080 // desktop view
	}
	if cfg.PageLoadWaitMS == 0 {
		cfg.PageLoadWaitMS = 2000
	}
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocContext, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Browser{
		Config:       cfg,
		allocContext: allocContext,
		cancelAlloc:  cancelAlloc,
	}
}

// Cancel shuts the browser down.
func (b *Browser) Cancel() {
	b.cancelAlloc()
}

// PageOption configures a page opened by Open.
type PageOption func(*Page)

// WithConsole routes the console output of the page to c. Install any
// recorder on c before passing it, console events are delivered as soon
// as the page starts loading.
func WithConsole(c *recorder.Console) PageOption {
	return func(p *Page) {
		p.console = c
	}
}

// Open opens urlStr in a new tab and waits for the page to settle.
func (b *Browser) Open(ctx context.Context, urlStr string, opts ...PageOption) (*Page, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("component", "browser"), slog.String("url", urlStr))
	logger.Debug("opening page", slog.String("user-agent", b.UserAgent))

	tabCtx, cancel := chromedp.NewContext(b.allocContext)
	p := &Page{
		ctx:      tabCtx,
		cancel:   cancel,
		url:      urlStr,
		elements: map[cdp.BackendNodeID]*Element{},
		logger:   logger,
	}
	for _, o := range opts {
		o(p)
	}
	if p.console == nil {
		p.console = recorder.NewConsole(logger)
	}
	chromedp.ListenTarget(tabCtx, p.onEvent)

	actions := []chromedp.Action{}
	if log.Debug {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			protocolVersion, product, revision, userAgent, jsVersion, err := cdpbrowser.GetVersion().Do(ctx)
			if err != nil {
				logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
				return nil
			}
			logger.Debug(fmt.Sprintf("chrome version: protocolVersion=%s, product=%s, revision=%s, userAgent=%s, jsVersion=%s",
				protocolVersion, product, revision, userAgent, jsVersion))
			return nil
		}))
	}
	sleepTime := time.Duration(b.PageLoadWaitMS) * time.Millisecond
	actions = append(actions,
		chromedp.Navigate(urlStr),
		chromedp.Sleep(sleepTime),
	)
	logger.Debug(fmt.Sprintf("appended chrome actions: Navigate, Sleep(%v)", sleepTime))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("error while opening %s: %w", urlStr, err)
	}
	if log.Debug {
		if err := b.writeDebugScreenshot(tabCtx, urlStr, logger); err != nil {
			logger.Warn(fmt.Sprintf("could not write debug screenshot: %v", err))
		}
	}
	return p, nil
}

func (b *Browser) writeDebugScreenshot(ctx context.Context, urlStr string, logger *slog.Logger) error {
	if b.DebugDir != "" {
		if err := os.MkdirAll(b.DebugDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create debug directory: %v", err)
		}
	}
	u, _ := url.Parse(urlStr)
	host := "page"
	if u != nil && u.Host != "" {
		host = u.Host
	}
	r, err := utils.RandomString(host)
	if err != nil {
		return err
	}
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return err
	}
	filename := path.Join(b.DebugDir, fmt.Sprintf("%s.png", r))
	logger.Debug(fmt.Sprintf("writing screenshot to file %s", filename))
	return os.WriteFile(filename, buf, 0644)
}
