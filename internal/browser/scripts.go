package browser

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jonathan/contact-extractor/internal/dom"
)

// idHelperJS defines cxID, which returns the data-cx-id of an element and
// assigns the next free one when it has none.
const idHelperJS = `
const cxID = (el) => {
	if (!el.hasAttribute('data-cx-id')) {
		if (!window.__cxNext) {
			let next = 1;
			for (const e of document.querySelectorAll('[data-cx-id]')) {
				const n = parseInt(e.getAttribute('data-cx-id'), 10);
				if (n >= next) next = n + 1;
			}
			window.__cxNext = next;
		}
		el.setAttribute('data-cx-id', String(window.__cxNext++));
	}
	return el.getAttribute('data-cx-id');
};
`

// annotateJS writes layout annotations onto every element and returns the
// page URL and markup.
const annotateJS = `(() => {` + idHelperJS + `
	for (const el of document.querySelectorAll('*')) {
		cxID(el);
		const r = el.getBoundingClientRect();
		el.setAttribute('data-cx-top', String(r.top + window.scrollY));
		el.setAttribute('data-cx-left', String(r.left + window.scrollX));
		el.setAttribute('data-cx-height', String(r.height));
		el.setAttribute('data-cx-font', window.getComputedStyle(el).fontSize);
		if (el.tagName === 'A' && el.href) el.setAttribute('data-cx-href', el.href);
	}
	document.documentElement.setAttribute('data-cx-url', location.href);
	return {url: location.href, html: document.documentElement.outerHTML};
})()`

const scrollHeightJS = `Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement.scrollHeight)`

// snapshotResult is the value returned by annotateJS.
type snapshotResult struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

func scrollToJS(y float64) string {
	return "window.scrollTo(0, " + strconv.FormatFloat(y, 'f', 1, 64) + ")"
}

func queryJS(selector string) string {
	return fmt.Sprintf(`(() => {%s
	const el = document.querySelector(%s);
	return el ? cxID(el) : "";
})()`, idHelperJS, jsString(selector))
}

func countJS(selector string) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
}

func byIDSelector(id string) string {
	return fmt.Sprintf(`[%s=%q]`, dom.AttrID, id)
}

func scrollIntoViewJS(id string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.scrollIntoView({behavior: 'smooth', block: 'center'});
	return true;
})()`, jsString(byIDSelector(id)))
}

func clickJS(id string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.click();
	return true;
})()`, jsString(byIDSelector(id)))
}
