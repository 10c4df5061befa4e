// Package analysis extracts the few design tokens of a partner page that the
// player can adapt to.
package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MrSnakeDoc/demogen/internal/domain"
)

type Tokens struct {
	ThemeColor      string   `json:"themeColor,omitempty"`
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	FontFamilies    []string `json:"fontFamilies,omitempty"`
	ColorType       string   `json:"colorType"`
}

const maxFonts = 5

var (
	backgroundRe = regexp.MustCompile(`(?i)background(?:-color)?\s*:\s*([^;}]+)`)
	fontFamilyRe = regexp.MustCompile(`(?i)font-family\s*:\s*([^;}]+)`)
	bodyRuleRe   = regexp.MustCompile(`(?is)(?:^|[},\s])(?:html|body)\s*\{([^}]*)\}`)
	hexColorRe   = regexp.MustCompile(`#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})\b`)
	rgbColorRe   = regexp.MustCompile(`(?i)rgba?\(\s*(\d{1,3})[\s,]+(\d{1,3})[\s,]+(\d{1,3})`)
)

var namedColors = map[string][3]int{
	"white": {255, 255, 255},
	"black": {0, 0, 0},
	"#fff":  {255, 255, 255},
	"#000":  {0, 0, 0},
}

// Analyze never fails: missing tokens are left empty and ColorType falls back
// to light.
func Analyze(html string) Tokens {
	t := Tokens{ColorType: domain.ColorLight}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return t
	}

	if c, ok := doc.Find(`meta[name="theme-color"]`).First().Attr("content"); ok {
		t.ThemeColor = strings.TrimSpace(c)
	}

	// Inline styles on html/body win over stylesheet rules.
	var decls []string
	doc.Find("body, html").Each(func(_ int, s *goquery.Selection) {
		if st, ok := s.Attr("style"); ok {
			decls = append(decls, st)
		}
	})
	var sheets []string
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		sheets = append(sheets, s.Text())
	})
	for _, css := range sheets {
		for _, m := range bodyRuleRe.FindAllStringSubmatch(css, -1) {
			decls = append(decls, m[1])
		}
	}

	for _, d := range decls {
		if m := backgroundRe.FindStringSubmatch(d); m != nil {
			if c := firstColor(m[1]); c != "" {
				t.BackgroundColor = c
				break
			}
		}
	}

	t.FontFamilies = fonts(append(decls, sheets...))

	if rgb, ok := parseColor(t.BackgroundColor); ok && luminance(rgb) < 0.5 {
		t.ColorType = domain.ColorDark
	}
	return t
}

func firstColor(v string) string {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important"))
	if m := hexColorRe.FindString(v); m != "" {
		return strings.ToLower(m)
	}
	if m := rgbColorRe.FindString(v); m != "" {
		return strings.ToLower(m) + ")"
	}
	for _, word := range strings.Fields(strings.ToLower(v)) {
		if _, ok := namedColors[word]; ok {
			return word
		}
	}
	return ""
}

func fonts(blocks []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, b := range blocks {
		for _, m := range fontFamilyRe.FindAllStringSubmatch(b, -1) {
			for _, f := range strings.Split(m[1], ",") {
				f = strings.Trim(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(f), "!important")), `"'`)
				key := strings.ToLower(f)
				if f == "" || seen[key] || strings.HasPrefix(key, "var(") || key == "inherit" {
					continue
				}
				seen[key] = true
				out = append(out, f)
				if len(out) == maxFonts {
					return out
				}
			}
		}
	}
	return out
}

func parseColor(c string) ([3]int, bool) {
	if rgb, ok := namedColors[c]; ok {
		return rgb, true
	}
	if m := rgbColorRe.FindStringSubmatch(c); m != nil {
		var rgb [3]int
		for i := range rgb {
			n, _ := strconv.Atoi(m[i+1])
			rgb[i] = min(n, 255)
		}
		return rgb, true
	}
	if strings.HasPrefix(c, "#") {
		h := c[1:]
		if len(h) == 3 {
			h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
		}
		if len(h) != 6 {
			return [3]int{}, false
		}
		var rgb [3]int
		for i := range rgb {
			n, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
			if err != nil {
				return [3]int{}, false
			}
			rgb[i] = int(n)
		}
		return rgb, true
	}
	return [3]int{}, false
}

// luminance is the perceived brightness in [0,1].
func luminance(rgb [3]int) float64 {
	return (0.299*float64(rgb[0]) + 0.587*float64(rgb[1]) + 0.114*float64(rgb[2])) / 255
}
