package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog/log"
)

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultIdleWindow        = 500 * time.Millisecond
	defaultIdleBudget        = 15 * time.Second
	profilePrefix            = "mediascribe_profile_"
)

// RodLauncher starts a fresh headless Chromium per session with its own
// temporary profile directory.
type RodLauncher struct {
	// Bin is the browser binary. Empty uses launcher.LookPath or a download.
	Bin string
	// NoSandbox disables the Chromium sandbox (needed in most containers).
	NoSandbox bool
	// Stealth opens pages through go-rod/stealth.
	Stealth bool
	// NavigationTimeout bounds navigation and the load event.
	NavigationTimeout time.Duration
	// IdleWindow is how long the network must stay quiet to count as idle.
	IdleWindow time.Duration
	// IdleBudget caps the wait for network idle.
	IdleBudget time.Duration
}

// Launch starts the browser process and connects to it.
func (l *RodLauncher) Launch(ctx context.Context) (Session, error) {
	dir, err := os.MkdirTemp("", profilePrefix)
	if err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	ln := launcher.New().
		Context(ctx).
		Headless(true).
		Leakless(true).
		UserDataDir(dir).
		Set("disable-gpu").
		NoSandbox(l.NoSandbox)
	bin := l.Bin
	if bin == "" {
		if path, ok := launcher.LookPath(); ok {
			bin = path
		}
	}
	if bin != "" {
		ln = ln.Bin(bin)
	}

	s := &rodSession{launcher: ln, profileDir: dir, cfg: *l}
	controlURL, err := ln.Launch()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("launch: %w", err)
	}
	s.launched = true
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	s.browser = browser
	log.Debug().Str("bin", bin).Str("profile", dir).Msg("browser launched")
	return s, nil
}

type rodSession struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	profileDir string
	cfg        RodLauncher
	// launched is set once the process started; Cleanup blocks until it exits.
	launched bool
}

func (s *rodSession) newPage() (*rod.Page, error) {
	if s.cfg.Stealth {
		return stealth.Page(s.browser)
	}
	return s.browser.Page(proto.TargetCreateTarget{})
}

func (s *rodSession) Render(ctx context.Context, url string) (string, error) {
	if s.browser == nil {
		return "", errors.New("browser not connected")
	}
	page, err := s.newPage()
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	page = page.Context(ctx)

	navTimeout := orDefault(s.cfg.NavigationTimeout, defaultNavigationTimeout)
	idleWindow := orDefault(s.cfg.IdleWindow, defaultIdleWindow)
	idleBudget := orDefault(s.cfg.IdleBudget, defaultIdleBudget)

	// Arm the idle waiter before navigating so early requests are tracked.
	idle := page.Timeout(idleBudget)
	defer idle.CancelTimeout()
	waitIdle := idle.WaitRequestIdle(idleWindow, nil, nil, nil)

	nav := page.Timeout(navTimeout)
	defer nav.CancelTimeout()
	if err := nav.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}
	// Quiescence is a heuristic: an expired idle budget still captures the page.
	waitIdle()

	markup, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("capture html: %w", err)
	}
	return markup, nil
}

// Close closes the browser, kills the process and removes the profile.
func (s *rodSession) Close() error {
	var errs []error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browser = nil
	}
	if s.launcher != nil && s.launched {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	s.launcher = nil
	if s.profileDir != "" {
		if err := os.RemoveAll(s.profileDir); err != nil {
			errs = append(errs, fmt.Errorf("remove profile: %w", err))
		}
		s.profileDir = ""
	}
	return errors.Join(errs...)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
