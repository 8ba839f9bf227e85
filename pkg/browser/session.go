package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/retry"
	"xscraper/pkg/store"
)

// Evaluator runs a JavaScript function in the current page and returns its
// string result. A lost execution context is reported as a transient error.
type Evaluator interface {
	Evaluate(ctx context.Context, script string) (string, error)
}

// Options configures a browser session
type Options struct {
	Headless          bool
	RemoteURL         string
	UserAgent         string
	AcceptLanguage    string
	CookieFile        string
	NavigationTimeout time.Duration
	NavigationRetries int
	Username          string
	Password          string
}

// OptionsFromConfig maps the browser config section onto session options
func OptionsFromConfig(c config.BrowserConfig) Options {
	return Options{
		Headless:          c.Headless,
		RemoteURL:         c.RemoteURL,
		UserAgent:         c.UserAgent,
		AcceptLanguage:    c.AcceptLanguage,
		CookieFile:        c.CookieFile,
		NavigationTimeout: c.NavigationTimeout,
		NavigationRetries: c.NavigationRetries,
		Username:          c.Username,
		Password:          c.Password,
	}
}

// Session is one Chrome instance with a single stealth page
type Session struct {
	opts     Options
	logger   logger.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewSession launches Chrome (or connects to RemoteURL), opens a stealth
// page and restores saved cookies
func NewSession(ctx context.Context, opts Options, log logger.Logger) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}
	s := &Session{opts: opts, logger: log.WithField("component", "browser")}

	controlURL := opts.RemoteURL
	if controlURL == "" {
		l := launcher.New().
			Headless(opts.Headless).
			NoSandbox(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		s.launcher = l
		controlURL = u
		s.logger.InfoWithFields("Launched local chrome", map[string]interface{}{
			"headless": opts.Headless,
		})
	} else {
		s.logger.InfoWithFields("Connecting to remote chrome", map[string]interface{}{
			"url": controlURL,
		})
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		s.cleanupLauncher()
		return nil, fmt.Errorf("connect chrome: %w", err)
	}
	s.browser = b

	page, err := stealth.Page(b)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page = page

	if opts.UserAgent != "" || opts.AcceptLanguage != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      opts.UserAgent,
			AcceptLanguage: opts.AcceptLanguage,
		}); err != nil {
			s.logger.WithError(err).Warn("Failed to set user agent")
		}
	}

	if err := s.restoreCookies(); err != nil {
		s.logger.WithError(err).Warn("Failed to restore cookies")
	}
	return s, nil
}

// Evaluate runs script in the page
func (s *Session) Evaluate(ctx context.Context, script string) (string, error) {
	res, err := s.page.Context(ctx).Eval(script)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if IsContextLost(err) {
			return "", errs.Transient("evaluate", err)
		}
		return "", fmt.Errorf("evaluate: %w", err)
	}
	return res.Value.Str(), nil
}

// IsContextLost reports errors raised when the page navigated or re-rendered
// underneath an evaluation
func IsContextLost(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, cdp.ErrCtxNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"execution context was destroyed",
		"cannot find context",
		"context was destroyed",
		"detached",
		"target closed",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Open navigates to target and waits for the feed to render, retrying
// failed navigations
func (s *Session) Open(ctx context.Context, target string) error {
	cfg := &retry.Config{
		MaxAttempts: s.opts.NavigationRetries,
		Backoff:     retry.DefaultExponentialBackoff(),
		RetryIf: func(error) bool {
			return ctx.Err() == nil
		},
		Logger: s.logger,
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	return retry.Do(ctx, func(ctx context.Context) error {
		navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
		defer cancel()

		page := s.page.Context(navCtx)
		if err := page.Navigate(target); err != nil {
			return fmt.Errorf("navigate %s: %w", target, err)
		}
		if err := page.WaitLoad(); err != nil {
			s.logger.WithError(err).WarnWithFields("Page load wait failed", map[string]interface{}{
				"url": target,
			})
		}

		s.dismissConsent(navCtx)
		return s.waitForFeed(navCtx)
	}, cfg)
}

func (s *Session) dismissConsent(ctx context.Context) {
	if _, err := s.page.Context(ctx).Timeout(5 * time.Second).Element(ConsentButton); err != nil {
		return
	}
	clicked, err := s.Evaluate(ctx, dismissConsentScript)
	if err == nil && clicked == "true" {
		s.logger.Debug("Dismissed consent dialog")
	}
}

func (s *Session) waitForFeed(ctx context.Context) error {
	race := s.page.Context(ctx).Timeout(15 * time.Second).Race()
	for _, sel := range FirstPostSelectors {
		race = race.Element(sel)
	}
	for _, sel := range FeedFallbackSelectors {
		race = race.Element(sel)
	}
	if _, err := race.Do(); err != nil {
		return fmt.Errorf("wait for feed: %w", err)
	}
	return nil
}

// EnsureLogin signs in with the configured credentials when no session
// cookie was restored. Without credentials it continues anonymously.
func (s *Session) EnsureLogin(ctx context.Context) error {
	if s.hasSessionCookie() {
		s.logger.Debug("Reusing saved session")
		return nil
	}
	if s.opts.Username == "" || s.opts.Password == "" {
		s.logger.Warn("No saved session and no credentials, continuing logged out")
		return nil
	}
	if err := s.login(ctx); err != nil {
		return fmt.Errorf("login as %s: %w", s.opts.Username, err)
	}
	return s.SaveCookies()
}

func (s *Session) login(ctx context.Context) error {
	page := s.page.Context(ctx)
	if err := page.Navigate(loginURL); err != nil {
		return err
	}
	_ = page.WaitLoad()

	userInput, err := page.Timeout(15 * time.Second).Element(LoginUserInput)
	if err != nil {
		return fmt.Errorf("username field: %w", err)
	}
	if err := userInput.Input(s.opts.Username); err != nil {
		return err
	}
	if err := page.Keyboard.Press(input.Enter); err != nil {
		return err
	}

	passInput, err := page.Timeout(15 * time.Second).Element(LoginPassInput)
	if err != nil {
		return fmt.Errorf("password field: %w", err)
	}
	if err := passInput.Input(s.opts.Password); err != nil {
		return err
	}
	if err := page.Keyboard.Press(input.Enter); err != nil {
		return err
	}

	if _, err := page.Timeout(30 * time.Second).Element(LoggedInSideNav); err != nil {
		return fmt.Errorf("home timeline did not appear: %w", err)
	}
	s.logger.InfoWithFields("Logged in", map[string]interface{}{
		"username": s.opts.Username,
	})
	return nil
}

func (s *Session) hasSessionCookie() bool {
	cookies, err := s.browser.GetCookies()
	if err != nil {
		return false
	}
	for _, c := range cookies {
		if c.Name == "auth_token" && c.Value != "" {
			return true
		}
	}
	return false
}

func (s *Session) restoreCookies() error {
	if s.opts.CookieFile == "" {
		return nil
	}
	cookies, err := LoadCookieFile(s.opts.CookieFile)
	if err != nil || len(cookies) == 0 {
		return err
	}
	if err := s.browser.SetCookies(proto.CookiesToParams(cookies)); err != nil {
		return err
	}
	s.logger.DebugWithFields("Restored cookies", map[string]interface{}{
		"file":  s.opts.CookieFile,
		"count": len(cookies),
	})
	return nil
}

// SaveCookies writes the browser cookies to the cookie file
func (s *Session) SaveCookies() error {
	if s.opts.CookieFile == "" {
		return nil
	}
	cookies, err := s.browser.GetCookies()
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}
	return SaveCookieFile(s.opts.CookieFile, cookies)
}

// LoadCookieFile reads a saved cookie jar. A missing file yields no cookies.
func LoadCookieFile(path string) ([]*proto.NetworkCookie, error) {
	var cookies []*proto.NetworkCookie
	if err := store.ReadJSON(path, &cookies); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cookie file %s: %w", path, err)
	}
	return cookies, nil
}

// SaveCookieFile atomically writes a cookie jar
func SaveCookieFile(path string, cookies []*proto.NetworkCookie) error {
	return store.WriteJSON(path, cookies)
}

// Close closes the browser and removes a locally launched Chrome
func (s *Session) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	s.cleanupLauncher()
	return err
}

func (s *Session) cleanupLauncher() {
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
}
