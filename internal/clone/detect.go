package clone

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minVisibleText is the amount of body text below which a page is treated
// as a client-rendered shell.
const minVisibleText = 200

var shellRoots = []string{"#root", "#app", "#__next", "#__nuxt"}

// looksLikeShell reports whether the HTML is an SPA shell whose content only
// appears once scripts run.
func looksLikeShell(page string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return false
	}

	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	if len(strings.Join(strings.Fields(body.Text()), " ")) >= minVisibleText {
		return false
	}

	for _, sel := range shellRoots {
		if root := doc.Find(sel); root.Length() > 0 && strings.TrimSpace(root.Text()) == "" {
			return true
		}
	}
	return doc.Find("body script").Length() > 0
}
