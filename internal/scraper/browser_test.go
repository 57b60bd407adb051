package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const consentPage = `<html><head><title>listing</title></head><body>
<button id="onetrust-accept-btn-handler" onclick="document.title='accepted'">Accept</button>
</body></html>`

const plainPage = `<html><head><title>listing</title></head><body><h1>2017 Ford Transit</h1></body></html>`

// This test requires a local Chromium or Chrome binary
// If none is installed, the test will be skipped
func TestRodTabClickFirst(t *testing.T) {
	if findChromiumPath("") == "" {
		t.Skip("Chromium is not available, skipping test")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Path == "/consent" {
			_, _ = w.Write([]byte(consentPage))
			return
		}
		_, _ = w.Write([]byte(plainPage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b, err := LaunchRod(ctx, LaunchOptions{Headless: true})
	require.NoError(t, err)
	defer b.Close()

	tab, err := b.OpenTab(ctx)
	require.NoError(t, err)
	defer tab.Close()

	const timeout = 500 * time.Millisecond

	t.Run("no banner waits one timeout", func(t *testing.T) {
		require.NoError(t, tab.Navigate(srv.URL+"/plain", 10*time.Second))

		start := time.Now()
		assert.False(t, tab.ClickFirst(cookieSelectors, timeout))
		assert.Less(t, time.Since(start), 3*timeout)
	})

	t.Run("banner is clicked", func(t *testing.T) {
		require.NoError(t, tab.Navigate(srv.URL+"/consent", 10*time.Second))

		assert.True(t, tab.ClickFirst(cookieSelectors, timeout))
		title, err := tab.Strings(`() => [document.title]`)
		require.NoError(t, err)
		assert.Equal(t, []string{"accepted"}, title)
	})
}
