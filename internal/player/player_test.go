package player

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScript(t *testing.T) {
	s, err := NewScript("https://demogen.test/", "https://player.test")
	require.NoError(t, err)

	js := string(s.Bytes())
	assert.Contains(t, js, `var API_BASE = "https://demogen.test";`)
	assert.Contains(t, js, `var PLAYER_ORIGIN = "https://player.test";`)
	assert.Contains(t, js, `var STORAGE_PREFIX = "demogen_installed_";`)
	assert.Contains(t, js, `querySelectorAll("audio-player")`)
	assert.Contains(t, js, `"/api/installs/confirm"`)
	assert.Contains(t, js, "Math.floor(Date.now() / 3600000)")
}

func TestNewScriptSkipsPingOnDemoRenders(t *testing.T) {
	s, err := NewScript("https://demogen.test", "https://player.test")
	require.NoError(t, err)

	js := string(s.Bytes())
	assert.Contains(t, js, `var DEMO_ATTR = "data-demogen-demo";`)
	assert.Contains(t, js, `new URL(API_BASE).origin === window.location.origin`)
	assert.Contains(t, js, `if (publication && !el.hasAttribute(DEMO_ATTR) && !servedByDemogen()) {`)
}

func TestNewScriptEscapesValues(t *testing.T) {
	s, err := NewScript(`https://x.test/"+alert(1)+"`, "https://player.test")
	require.NoError(t, err)
	assert.NotContains(t, string(s.Bytes()), `"+alert(1)+"`)
}

func TestScriptServeHTTP(t *testing.T) {
	s, err := NewScript("https://demogen.test", "https://player.test")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/player.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Equal(t, s.Bytes(), rec.Body.Bytes())

	req := httptest.NewRequest(http.MethodGet, "/player.js", nil)
	req.Header.Set("If-None-Match", rec.Header().Get("ETag"))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHourBucket(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, HourBucket(base), HourBucket(base.Add(59*time.Minute)))
	assert.Equal(t, HourBucket(base)+1, HourBucket(base.Add(time.Hour)))
	assert.Equal(t, base.Unix()/3600, HourBucket(base))

	assert.Equal(t,
		"https://demogen.test/player.js?v="+itoa(HourBucket(base)),
		ScriptURL("https://demogen.test/", base))
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
