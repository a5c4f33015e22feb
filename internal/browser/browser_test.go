package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/contact-extractor/internal/dom"
)

const livePage = `<!DOCTYPE html>
<html><body style="font-size:16px">
<ul id="results">
	<li><a href="/in/jane-doe?trk=x">Jane Doe</a><div>Data Analyst at Acme</div></li>
</ul>
<button aria-label="Next" onclick="document.getElementById('results').innerHTML = '&lt;li&gt;&lt;a href=&quot;/in/max&quot;&gt;Max Mustermann&lt;/a&gt;&lt;/li&gt;'">Next</button>
</body></html>`

func findChrome(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("Skipping browser test: Chrome not installed")
	return ""
}

func TestPage_Live(t *testing.T) {
	chromePath := findChrome(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(livePage))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	page, err := Launch(ctx, Options{Headless: true, ChromePath: chromePath})
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(ctx, server.URL+"/search"))

	html, pageURL, err := page.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/search", pageURL)

	doc, err := dom.ParseString(html, pageURL)
	require.NoError(t, err)
	links := doc.ProfileLinks(doc.Root())
	require.Equal(t, 1, links.Length())
	assert.Equal(t, server.URL+"/in/jane-doe?trk=x", doc.Href(links))
	assert.Equal(t, 16.0, dom.FontSize(links))

	height, err := page.ScrollHeight(ctx)
	require.NoError(t, err)
	assert.Greater(t, height, 0.0)
	require.NoError(t, page.ScrollTo(ctx, height))

	id, found, err := page.Query(ctx, `button[aria-label*="Next"]`)
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, page.ScrollIntoView(ctx, id))
	require.NoError(t, page.Click(ctx, id))

	n, err := page.CountMatches(ctx, `a[href*="/in/max"]`)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = page.Click(ctx, "999999")
	assert.True(t, errors.Is(err, dom.ErrNodeNotFound))
}
