package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/logger"
)

type sheetCall struct {
	Method string
	Path   string
	Body   string
}

// fakeSheets answers the three Values endpoints the tracker uses.
type fakeSheets struct {
	mu    sync.Mutex
	keys  [][]interface{}
	calls []sheetCall
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, sheetCall{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	keys := f.keys
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Demos!A:A", "values": keys})
	case strings.HasSuffix(r.URL.Path, ":append"):
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1"})
	case r.Method == http.MethodPut:
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "updatedRows": 1})
	default:
		http.NotFound(w, r)
	}
}

func newTestTracker(t *testing.T, f *fakeSheets) Tracker {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	tr, err := NewTracker(context.Background(),
		SheetsSettings{SpreadsheetID: "sheet-1", Tab: "Demos"},
		logger.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return tr
}

func testDemo(installed bool) *domain.DemoConfig {
	d := &domain.DemoConfig{
		ID:           "demo-2",
		WebsiteURL:   "https://site.example.com",
		Publication:  "site",
		PlayerConfig: domain.PlayerConfig{Design: domain.DesignA},
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if installed {
		at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		d.IsInstalled, d.InstalledAt = true, &at
	}
	return d
}

func TestNewTrackerDisabled(t *testing.T) {
	tr, err := NewTracker(context.Background(), SheetsSettings{}, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NopTracker{}, tr)
	assert.NoError(t, tr.AppendDemo(context.Background(), testDemo(false)))
	assert.NoError(t, tr.MarkInstalled(context.Background(), testDemo(true)))
}

func TestSheetsTrackerAppend(t *testing.T) {
	f := &fakeSheets{}
	tr := newTestTracker(t, f)

	require.NoError(t, tr.AppendDemo(context.Background(), testDemo(false)))

	require.Len(t, f.calls, 1)
	assert.Equal(t, http.MethodPost, f.calls[0].Method)
	assert.True(t, strings.HasSuffix(f.calls[0].Path, ":append"), f.calls[0].Path)
	assert.Contains(t, f.calls[0].Body, `"demo-2"`)
	assert.Contains(t, f.calls[0].Body, `"not installed"`)
}

func TestSheetsTrackerMarkInstalledUpdatesRow(t *testing.T) {
	f := &fakeSheets{keys: [][]interface{}{{"id"}, {"demo-1"}, {"demo-2"}}}
	tr := newTestTracker(t, f)

	require.NoError(t, tr.MarkInstalled(context.Background(), testDemo(true)))

	require.Len(t, f.calls, 2)
	update := f.calls[1]
	assert.Equal(t, http.MethodPut, update.Method)
	assert.Contains(t, update.Path, "F3:G3")
	assert.Contains(t, update.Body, `"installed"`)
	assert.Contains(t, update.Body, "2026-02-01T12:00:00Z")
}

func TestSheetsTrackerMarkInstalledAppendsMissingRow(t *testing.T) {
	f := &fakeSheets{keys: [][]interface{}{{"id"}, {"other"}}}
	tr := newTestTracker(t, f)

	require.NoError(t, tr.MarkInstalled(context.Background(), testDemo(true)))

	require.Len(t, f.calls, 2)
	assert.True(t, strings.HasSuffix(f.calls[1].Path, ":append"))
	assert.Contains(t, f.calls[1].Body, `"installed"`)
}

func TestSheetsTrackerSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	tr, err := NewTracker(context.Background(),
		SheetsSettings{SpreadsheetID: "sheet-1"},
		logger.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	assert.Error(t, tr.MarkInstalled(context.Background(), testDemo(true)))
	assert.Error(t, tr.AppendDemo(context.Background(), testDemo(false)))
}
