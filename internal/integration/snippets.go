// Package integration produces what a partner installs: copy-paste snippets
// and WordPress plugin builds.
package integration

import (
	"bytes"
	"encoding/json"
	"html/template"
	"strings"

	"github.com/MrSnakeDoc/demogen/internal/domain"
)

var htmlSnippetTmpl = template.Must(template.New("snippet").Parse(
	`<script src="{{.ScriptURL}}" defer></script>
<audio-player publication="{{.Publication}}" playertype="{{.PlayerType}}" colortype="{{.ColorType}}"></audio-player>
`))

type snippetData struct {
	ScriptURL   string
	Publication string
	PlayerType  string
	ColorType   string
}

func dataFor(demo *domain.DemoConfig, scriptURL string) snippetData {
	cfg := demo.PlayerConfig
	cfg.Normalize()
	return snippetData{
		ScriptURL:   scriptURL,
		Publication: demo.Publication,
		PlayerType:  cfg.PlayerType(),
		ColorType:   cfg.ColorType,
	}
}

// HTMLSnippet returns the bootstrap script tag followed by the custom element.
func HTMLSnippet(demo *domain.DemoConfig, scriptURL string) (string, error) {
	var buf bytes.Buffer
	if err := htmlSnippetTmpl.Execute(&buf, dataFor(demo, scriptURL)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ReactSnippet returns the JSX usage of the player component.
func ReactSnippet(demo *domain.DemoConfig) string {
	d := dataFor(demo, "")

	var b strings.Builder
	b.WriteString("<AudioPlayer\n")
	for _, attr := range [][2]string{
		{"publication", d.Publication},
		{"playerType", d.PlayerType},
		{"colorType", d.ColorType},
	} {
		b.WriteString("  ")
		b.WriteString(attr[0])
		b.WriteString("=")
		b.WriteString(jsxString(attr[1]))
		b.WriteString("\n")
	}
	b.WriteString("/>\n")
	return b.String()
}

// jsxString quotes v as a JSX attribute value. Values JSX cannot hold in a
// plain string literal become a JS expression.
func jsxString(v string) string {
	if !strings.ContainsAny(v, "\"{}<>\\\n") {
		return `"` + v + `"`
	}
	raw, _ := json.Marshal(v)
	return "{" + string(raw) + "}"
}
