package clone

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// untouchedSchemes are reference forms that must never be resolved
// against the page URL.
var untouchedSchemes = []string{"mailto:", "tel:", "javascript:", "data:", "about:", "#"}

// Sanitize strips executable content from page and rewrites link, img and
// anchor references to absolute URLs against base.
func Sanitize(page string, base *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	stripExecutable(doc)

	doc.Find("link, img, a").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"href", "src"} {
			if v, ok := s.Attr(attr); ok {
				s.SetAttr(attr, absolutize(base, v))
			}
		}
	})
	doc.Find("img[srcset], source[srcset]").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("srcset")
		s.SetAttr("srcset", absolutizeSrcset(base, v))
	})

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return out, nil
}

// StripScripts removes executable content without touching references.
func StripScripts(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	stripExecutable(doc)
	return doc.Html()
}

func stripExecutable(doc *goquery.Document) {
	doc.Find("script, noscript").Remove()

	// inline event handlers run as script too
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		kept := node.Attr[:0]
		for _, a := range node.Attr {
			if !strings.HasPrefix(strings.ToLower(a.Key), "on") {
				kept = append(kept, a)
			}
		}
		node.Attr = kept
	})
}

func absolutize(base *url.URL, v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return v
	}
	lower := strings.ToLower(trimmed)
	for _, p := range untouchedSchemes {
		if strings.HasPrefix(lower, p) {
			return v
		}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return v
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return v
	}
	return abs.String()
}

// absolutizeSrcset rewrites each "url [descriptor]" candidate of a srcset.
func absolutizeSrcset(base *url.URL, v string) string {
	parts := strings.Split(v, ",")
	for i, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		fields[0] = absolutize(base, fields[0])
		parts[i] = strings.Join(fields, " ")
	}
	return strings.Join(parts, ", ")
}
