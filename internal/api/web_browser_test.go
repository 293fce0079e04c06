//go:build e2e

package api

import (
	"context"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary found")
}

// TestWebKeypad_Browser drives the keypad page in headless Chrome.
func TestWebKeypad_Browser(t *testing.T) {
	findChrome(t)

	srv, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(480, 800),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer allocCancel()
	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	require.NoError(t, chromedp.Run(ctx,
		chromedp.Navigate(ts.URL+"/web/"),
		chromedp.WaitVisible("output.display", chromedp.ByQuery),
	))

	press := func(label string) chromedp.Action {
		return chromedp.Click(`button[value="`+label+`"]`, chromedp.ByQuery)
	}

	var display string
	require.NoError(t, chromedp.Run(ctx,
		press("1"), chromedp.WaitVisible("output.display", chromedp.ByQuery),
		press("2"), chromedp.WaitVisible("output.display", chromedp.ByQuery),
		press("÷"), chromedp.WaitVisible("output.display", chromedp.ByQuery),
		press("8"), chromedp.WaitVisible("output.display", chromedp.ByQuery),
		press("="), chromedp.WaitVisible("output.display", chromedp.ByQuery),
		chromedp.Text("output.display", &display, chromedp.ByQuery),
	))
	assert.Equal(t, "1.5", strings.TrimSpace(display))
}
