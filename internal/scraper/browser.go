package scraper

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"vehiclescraper/internal/logger"
)

// Browser is a running headless browser owned by one scrape call.
type Browser interface {
	OpenTab(ctx context.Context) (Tab, error)
	Close() error
}

// Tab is a single page in a Browser.
type Tab interface {
	// Navigate loads url and waits for the load event.
	Navigate(url string, timeout time.Duration) error
	// WaitForAny returns once any selector matches or the timeout expires.
	WaitForAny(selectors []string, timeout time.Duration) error
	// ClickFirst clicks whichever selector appears first and reports whether
	// anything was clicked. All selectors share one timeout.
	ClickFirst(selectors []string, timeout time.Duration) bool
	// Text returns the rendered text of the body.
	Text() (string, error)
	HTML() (string, error)
	// Strings evaluates a script that returns an array of strings.
	Strings(js string) ([]string, error)
	Close() error
}

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	ChromeBin string
	Headless  bool
	UserAgent string
}

// Launcher starts a browser. Tests replace it to run without Chromium.
type Launcher func(ctx context.Context, opts LaunchOptions) (Browser, error)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LaunchRod starts Chromium through rod with flags suited to small
// containers.
func LaunchRod(ctx context.Context, opts LaunchOptions) (Browser, error) {
	log := logger.ForComponent("browser")

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-extensions").
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("window-size", "1280,800").
		Set("user-agent", ua)

	if bin := findChromiumPath(opts.ChromeBin); bin != "" {
		log.Debug().Str("path", bin).Msg("using chromium binary")
		l = l.Bin(bin)
	}

	if isDockerEnvironment() {
		log.Debug().Msg("container environment detected, using single-process mode")
		l = l.Set("disable-setuid-sandbox").
			Set("no-first-run").
			Set("disable-default-apps").
			Set("single-process")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, err
	}
	return &rodBrowser{browser: b, launcher: l}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (b *rodBrowser) OpenTab(ctx context.Context) (Tab, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, err
	}
	return &rodTab{page: page.Context(ctx)}, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	return err
}

type rodTab struct {
	page *rod.Page
}

func (t *rodTab) Navigate(url string, timeout time.Duration) error {
	p := t.page.Timeout(timeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (t *rodTab) WaitForAny(selectors []string, timeout time.Duration) error {
	if len(selectors) == 0 {
		return nil
	}
	p := t.page.Timeout(timeout)
	defer p.CancelTimeout()

	race := p.Race()
	for _, sel := range selectors {
		race = race.Element(sel)
	}
	_, err := race.Do()
	return err
}

func (t *rodTab) ClickFirst(selectors []string, timeout time.Duration) bool {
	if len(selectors) == 0 {
		return false
	}
	p := t.page.Timeout(timeout)
	defer p.CancelTimeout()

	race := p.Race()
	for _, sel := range selectors {
		race = race.Element(sel)
	}
	el, err := race.Do()
	if err != nil || el == nil {
		return false
	}
	return el.Click(proto.InputMouseButtonLeft, 1) == nil
}

func (t *rodTab) Text() (string, error) {
	res, err := t.page.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (t *rodTab) HTML() (string, error) {
	return t.page.HTML()
}

func (t *rodTab) Strings(js string) ([]string, error) {
	res, err := t.page.Eval(js)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, v := range res.Value.Arr() {
		if s := strings.TrimSpace(v.Str()); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *rodTab) Close() error {
	return t.page.Close()
}

// findChromiumPath looks for Chromium/Chrome binary in common locations
func findChromiumPath(configured string) string {
	for _, candidate := range []string{configured, os.Getenv("CHROME_BIN")} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
		"/opt/google/chrome/chrome",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	if path, ok := launcher.LookPath(); ok {
		return path
	}
	return ""
}

// isDockerEnvironment checks if running inside Docker
func isDockerEnvironment() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		return strings.Contains(string(data), "docker") || strings.Contains(string(data), "containerd")
	}
	return false
}
