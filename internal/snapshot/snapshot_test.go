package snapshot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/contact-extractor/internal/dom"
)

const firstPage = `<html data-cx-url="https://www.linkedin.com/search/results/people/?page=1"><body data-cx-height="2400">
<ul><li><a href="/in/jane-doe">Jane Doe</a><div>Data Analyst at Acme</div></li></ul>
<button aria-label="Next">Next</button>
</body></html>`

const secondPage = `<html><body>
<ul><li><a href="/in/max">Max Mustermann</a></li></ul>
</body></html>`

func TestPage_Replay(t *testing.T) {
	ctx := context.Background()
	page, err := New([]Source{{Name: "1", HTML: firstPage}, {Name: "2", URL: "https://example.com/p2", HTML: secondPage}}, nil)
	require.NoError(t, err)

	html, pageURL, err := page.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/search/results/people/?page=1", pageURL)
	assert.Contains(t, html, "jane-doe")
	assert.Contains(t, html, dom.AttrID)

	height, err := page.ScrollHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2400.0, height)

	n, err := page.CountMatches(ctx, `a[href*="/in/"]`)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	id, found, err := page.Query(ctx, `button[aria-label*="Next"]:not([disabled])`)
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, page.ScrollIntoView(ctx, id))
	require.NoError(t, page.Click(ctx, id))
	assert.Equal(t, 1, page.Index())
	assert.Equal(t, []string{id}, page.Clicks())

	html, pageURL, err = page.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/p2", pageURL)
	assert.Contains(t, html, "Max Mustermann")

	height, err = page.ScrollHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultScrollHeight, height)

	_, found, err = page.Query(ctx, `button[aria-label*="Next"]`)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPage_ClickPastLastSnapshot(t *testing.T) {
	ctx := context.Background()
	page, err := New([]Source{{Name: "1", HTML: firstPage}}, nil)
	require.NoError(t, err)

	id, found, err := page.Query(ctx, "button")
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, page.Click(ctx, id))

	n, err := page.CountMatches(ctx, `a[href*="/in/"]`)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPage_UnknownNode(t *testing.T) {
	page, err := New([]Source{{Name: "1", HTML: firstPage}}, nil)
	require.NoError(t, err)

	err = page.Click(context.Background(), "99999")
	assert.True(t, errors.Is(err, dom.ErrNodeNotFound))
	err = page.ScrollIntoView(context.Background(), "99999")
	assert.True(t, errors.Is(err, dom.ErrNodeNotFound))
}

func TestPage_RecordsScrolls(t *testing.T) {
	page, err := New([]Source{{Name: "1", HTML: firstPage}}, nil)
	require.NoError(t, err)

	require.NoError(t, page.ScrollTo(context.Background(), 800))
	require.NoError(t, page.ScrollTo(context.Background(), 0))
	assert.Equal(t, []float64{800, 0}, page.Scrolls())
}

func TestPage_CancelledContext(t *testing.T) {
	page, err := New([]Source{{Name: "1", HTML: firstPage}}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = page.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page-02.html"), []byte(secondPage), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page-01.html"), []byte(firstPage), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	sources, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "page-01.html", sources[0].Name)
	assert.Equal(t, "page-02.html", sources[1].Name)
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoadURLs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Path == "/1" {
			_, _ = w.Write([]byte(firstPage))
			return
		}
		_, _ = w.Write([]byte(secondPage))
	}))
	defer server.Close()

	sources, err := LoadURLs(context.Background(), []string{server.URL + "/1", server.URL + "/2"}, nil)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, server.URL+"/1", sources[0].URL)
	assert.Contains(t, sources[1].HTML, "Max Mustermann")
}
