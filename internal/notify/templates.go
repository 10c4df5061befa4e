package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/MrSnakeDoc/demogen/internal/domain"
)

var installTmpl = template.Must(template.New("install").Parse(`<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h2>Player installed on {{.Demo.Publication}}</h2>
<p>The audio player pinged back from a live page.</p>
<table cellpadding="4">
<tr><td><b>Website</b></td><td><a href="{{.Demo.WebsiteURL}}">{{.Demo.WebsiteURL}}</a></td></tr>
<tr><td><b>Publication</b></td><td>{{.Demo.Publication}}</td></tr>
<tr><td><b>Installed at</b></td><td>{{.InstalledAt}}</td></tr>
<tr><td><b>Demo views</b></td><td>{{.Demo.ViewCount}}</td></tr>
<tr><td><b>Demo</b></td><td><a href="{{.DemoURL}}">{{.DemoURL}}</a></td></tr>
</table>
</body></html>`))

// InstallMessage renders the staff notification for a confirmed install.
func InstallMessage(demo *domain.DemoConfig, publicBaseURL string, to []string) (Message, error) {
	installed := ""
	if demo.InstalledAt != nil {
		installed = demo.InstalledAt.UTC().Format(time.RFC1123)
	}

	var buf bytes.Buffer
	err := installTmpl.Execute(&buf, struct {
		Demo        *domain.DemoConfig
		InstalledAt string
		DemoURL     string
	}{
		Demo:        demo,
		InstalledAt: installed,
		DemoURL:     publicBaseURL + "/demo/" + demo.ID,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render install email: %w", err)
	}

	return Message{
		Subject: fmt.Sprintf("[demogen] %s installed the audio player", demo.Publication),
		HTML:    buf.String(),
		To:      to,
	}, nil
}
