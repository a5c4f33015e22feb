package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSString_EscapesSelectors(t *testing.T) {
	assert.Equal(t, `"button[aria-label*=\"Next\"]:not([disabled])"`, jsString(`button[aria-label*="Next"]:not([disabled])`))
	assert.Equal(t, `"\u003c/script\u003e"`, jsString(`</script>`))
}

func TestQueryJS(t *testing.T) {
	js := queryJS(`a[href*="/in/"]`)
	assert.Contains(t, js, `document.querySelector("a[href*=\"/in/\"]")`)
	assert.Contains(t, js, "const cxID")
}

func TestActivationScripts(t *testing.T) {
	assert.Contains(t, clickJS("42"), `document.querySelector("[data-cx-id=\"42\"]")`)
	assert.Contains(t, clickJS("42"), "el.click()")
	assert.Contains(t, scrollIntoViewJS("7"), "block: 'center'")
}

func TestScrollToJS(t *testing.T) {
	assert.Equal(t, "window.scrollTo(0, 1233.3)", scrollToJS(1233.333))
	assert.Equal(t, "window.scrollTo(0, 0.0)", scrollToJS(0))
}

func TestCountJS(t *testing.T) {
	assert.Equal(t, `document.querySelectorAll(".next").length`, countJS(".next"))
}
