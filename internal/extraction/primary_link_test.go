package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPrimaryLink(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantHref string
	}{
		{
			name:     "no links",
			body:     `<div id="c"><span>Nothing here to select</span></div>`,
			wantHref: "",
		},
		{
			name:     "single link returned as is",
			body:     `<div id="c"><a href="/in/solo">x</a></div>`,
			wantHref: "/in/solo",
		},
		{
			name: "name beats connection summary",
			body: `<div id="c">
				<a href="/in/mutual">Sam and 5 others</a>
				<a href="/in/jane">Jane Doe</a>
			</div>`,
			wantHref: "/in/jane",
		},
		{
			name: "higher link wins",
			body: `<div id="c">
				<a href="/in/low" data-cx-top="400">Jane Doe</a>
				<a href="/in/high" data-cx-top="20">Jane Doe</a>
			</div>`,
			wantHref: "/in/high",
		},
		{
			name: "larger font wins",
			body: `<div id="c">
				<a href="/in/small" data-cx-font="12px">Jane Doe</a>
				<a href="/in/large" data-cx-font="20px">Jane Doe</a>
			</div>`,
			wantHref: "/in/large",
		},
		{
			name: "tie goes to first in document order",
			body: `<div id="c">
				<a href="/in/first">Alex Smith</a>
				<a href="/in/second">Alex Smith</a>
			</div>`,
			wantHref: "/in/first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, tt.body)
			link := SelectPrimaryLink(doc, doc.Find("#c"))
			if tt.wantHref == "" {
				assert.Nil(t, link)
				return
			}
			require.NotNil(t, link)
			href, _ := link.Attr("href")
			assert.Equal(t, tt.wantHref, href)
		})
	}
}

func TestScoreLink(t *testing.T) {
	doc := parseDoc(t, `
		<a id="name" href="/in/a">Jane Doe</a>
		<a id="artifact" href="/in/b">Jane and 5 others</a>
		<a id="badge" href="/in/c" data-cx-top="100" data-cx-font="10">Jo</a>
		<a id="far" href="/in/d" data-cx-top="900">Jane Doe</a>`)

	assert.InDelta(t, 74.0, ScoreLink(doc.Find("#name")), 1e-9)
	assert.InDelta(t, 54.0, ScoreLink(doc.Find("#artifact")), 1e-9)
	// no name bonus, 50-10 position, 10 font, penalty for short text
	assert.InDelta(t, 30.0, ScoreLink(doc.Find("#badge")), 1e-9)
	// position bonus floors at zero
	assert.InDelta(t, 24.0, ScoreLink(doc.Find("#far")), 1e-9)
}
