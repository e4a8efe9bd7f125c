// Package capture renders the server-side calendar page in headless
// Chromium and saves it as a PNG, for sharing a schedule outside the app.
package capture

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	"socialsync/internal/calendar"
	appLog "socialsync/internal/log"
)

// Default viewport; wide enough for the seven-column month grid.
const (
	DefaultWidth   = 1440
	DefaultHeight  = 1024
	DefaultTimeout = 30 * time.Second
)

// readySelector matches the calendar root once the page has rendered.
const readySelector = `[data-ready="true"]`

// Options controls one snapshot.
type Options struct {
	// BaseURL is the dashboard root, e.g. "http://127.0.0.1:8080".
	BaseURL string
	// Mode and Date pick the view; empty values mean the current month.
	Mode calendar.Mode
	Date string
	// Token, when set, is sent as the session cookie so the snapshot shows
	// the signed-in organization instead of demo data.
	Token string

	OutputPath string
	Width      int
	Height     int
	Timeout    time.Duration
}

func (o *Options) normalize() error {
	if o.BaseURL == "" {
		return fmt.Errorf("capture: base URL is required")
	}
	if o.OutputPath == "" {
		return fmt.Errorf("capture: output path is required")
	}
	if o.Mode != "" {
		m, err := calendar.ParseMode(string(o.Mode))
		if err != nil {
			return err
		}
		o.Mode = m
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// PageURL is the /calendar URL the snapshot loads.
func (o Options) PageURL() (string, error) {
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return "", fmt.Errorf("capture: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("capture: base URL must be http or https, got %q", o.BaseURL)
	}
	u.Path = "/calendar"
	q := url.Values{}
	if o.Mode != "" {
		q.Set("mode", string(o.Mode))
	}
	if o.Date != "" {
		q.Set("date", o.Date)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Snapshot opens the calendar page in headless Chromium, waits for
// data-ready="true" and writes a full-page PNG to opts.OutputPath.
func Snapshot(parent context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}
	pageURL, err := opts.PageURL()
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if opts.Token != "" {
		tasks = append(tasks, setSessionCookie(opts.BaseURL, opts.Token))
	}
	tasks = append(tasks,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("calendar snapshot saved",
		"url", pageURL,
		"path", opts.OutputPath,
		"bytes", len(png),
		"elapsed", time.Since(start).String(),
	)
	return nil
}
