package capture

import (
	"context"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// SessionCookie must match the cookie the web server reads.
const SessionCookie = "socialsync_session"

func setSessionCookie(baseURL, token string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookie(SessionCookie, token).
			WithURL(baseURL).
			WithHTTPOnly(true).
			Do(ctx)
	})
}
