package gladstone

import (
	"context"
	"fmt"
	"strings"
	"time"

	cdpstorage "github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// Gladstone councils gate their availability APIs behind a browser-issued
// token. A headless browser drives the public booking page once per pipeline
// run; the token is then injected into every request of that run and never
// shared across runs.

// TokenSource acquires an authorization token.
type TokenSource func(ctx context.Context) (string, error)

// CookieTokenSource extracts a named cookie (Tower Hamlets stores its JWT in
// a "jwt" cookie) after loading the booking page.
func CookieTokenSource(bookingURL, cookieName string) TokenSource {
	return func(ctx context.Context) (string, error) {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
			append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("ignore-certificate-errors", true))...)
		defer cancelAlloc()
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
		defer cancelBrowser()

		var token string
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(bookingURL),
			chromedp.Sleep(3*time.Second),
			chromedp.ActionFunc(func(ctx context.Context) error {
				cookies, err := cdpstorage.GetCookies().Do(ctx)
				if err != nil {
					return err
				}
				for _, cookie := range cookies {
					if strings.EqualFold(cookie.Name, cookieName) {
						token = cookie.Value
						return nil
					}
				}
				return fmt.Errorf("cookie %q not found after page load", cookieName)
			}),
		)
		if err != nil {
			return "", fmt.Errorf("acquire %s cookie from %s: %w", cookieName, bookingURL, err)
		}
		return token, nil
	}
}

// LocalStorageTokenSource reads a token from the page's localStorage
// (Southwark) and prefixes it for bearer auth.
func LocalStorageTokenSource(bookingURL, storageKey string) TokenSource {
	return func(ctx context.Context) (string, error) {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
			chromedp.DefaultExecAllocatorOptions[:]...)
		defer cancelAlloc()
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
		defer cancelBrowser()

		var token string
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(bookingURL),
			chromedp.Sleep(3*time.Second),
			chromedp.Evaluate(fmt.Sprintf("window.localStorage.getItem(%q) || ''", storageKey), &token),
		)
		if err != nil {
			return "", fmt.Errorf("acquire token from %s: %w", bookingURL, err)
		}
		if token == "" {
			return "", fmt.Errorf("localStorage key %q empty after page load", storageKey)
		}
		return "Bearer " + token, nil
	}
}
