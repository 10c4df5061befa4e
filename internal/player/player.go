// Package player renders the bootstrap script embedded in partner pages.
package player

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"
)

const (
	Tag = "audio-player"
	// StoragePrefix keys the localStorage flag that keeps the install ping
	// to one per browser and publication.
	StoragePrefix = "demogen_installed_"
	// DemoAttr marks players injected into demo renders. They never send the
	// install ping.
	DemoAttr    = "data-demogen-demo"
	frameHeight = 96
	cacheMaxAge = time.Hour
)

//go:embed player.js.tmpl
var scriptSource string

var scriptTmpl = template.Must(template.New("player.js").Parse(scriptSource))

// Script is the rendered bootstrap, built once at startup.
type Script struct {
	body []byte
	etag string
}

func NewScript(publicBaseURL, playerOrigin string) (*Script, error) {
	var buf bytes.Buffer
	err := scriptTmpl.Execute(&buf, struct {
		PublicBaseURL string
		PlayerOrigin  string
		StoragePrefix string
		Tag           string
		DemoAttr      string
		FrameHeight   int
	}{
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		PlayerOrigin:  strings.TrimRight(playerOrigin, "/"),
		StoragePrefix: StoragePrefix,
		Tag:           Tag,
		DemoAttr:      DemoAttr,
		FrameHeight:   frameHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("render player script: %w", err)
	}

	sum := sha256.Sum256(buf.Bytes())
	return &Script{
		body: buf.Bytes(),
		etag: `"` + hex.EncodeToString(sum[:8]) + `"`,
	}, nil
}

func (s *Script) Bytes() []byte { return s.body }

func (s *Script) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheMaxAge.Seconds())))
	w.Header().Set("ETag", s.etag)
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Header.Get("If-None-Match") == s.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	_, _ = w.Write(s.body)
}

// HourBucket is the cache-busting token the script computes client side.
func HourBucket(t time.Time) int64 {
	return t.Unix() / 3600
}

// ScriptURL returns the versioned URL of the bootstrap script.
func ScriptURL(publicBaseURL string, t time.Time) string {
	return fmt.Sprintf("%s/player.js?v=%d", strings.TrimRight(publicBaseURL, "/"), HourBucket(t))
}
