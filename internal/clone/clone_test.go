package clone

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/demogen/internal/llm"
	"github.com/MrSnakeDoc/demogen/internal/logger"
)

const articlePage = `<!DOCTYPE html><html><head>
<link rel="stylesheet" href="/css/site.css">
<script src="/js/app.js"></script>
</head><body onload="track()">
<h1>Title</h1>
<noscript><img src="/pixel.gif"></noscript>
<img src="img/lead.jpg" srcset="img/lead-1x.jpg 1x, /img/lead-2x.jpg 2x">
<p>` + loremText + `</p>
<a href="../about">About</a>
<a href="mailto:desk@news.ext">Mail</a>
<a href="tel:+33100000000">Call</a>
<a href="#comments">Comments</a>
<a href="https://cdn.ext/x">CDN</a>
<script>alert(1)</script>
</body></html>`

const loremText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat."

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSanitize(t *testing.T) {
	out, err := Sanitize(articlePage, mustURL(t, "https://news.ext/section/article"))
	require.NoError(t, err)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<noscript")
	assert.NotContains(t, out, "onload")

	assert.Contains(t, out, `href="https://news.ext/css/site.css"`)
	assert.Contains(t, out, `src="https://news.ext/section/img/lead.jpg"`)
	assert.Contains(t, out, `srcset="https://news.ext/section/img/lead-1x.jpg 1x, https://news.ext/img/lead-2x.jpg 2x"`)
	assert.Contains(t, out, `href="https://news.ext/about"`)
	assert.Contains(t, out, `href="mailto:desk@news.ext"`)
	assert.Contains(t, out, `href="tel:+33100000000"`)
	assert.Contains(t, out, `href="#comments"`)
	assert.Contains(t, out, `href="https://cdn.ext/x"`)
	assert.Contains(t, out, "<h1>Title</h1>")
}

func TestAbsolutizeLeavesUnparsable(t *testing.T) {
	base := mustURL(t, "https://news.ext/a/")
	assert.Equal(t, "http://[::1", absolutize(base, "http://[::1"))
	assert.Equal(t, "", absolutize(base, ""))
	assert.Equal(t, "JavaScript:void(0)", absolutize(base, "JavaScript:void(0)"))
	assert.Equal(t, "https://news.ext/a/b.png", absolutize(base, "b.png"))
	assert.Equal(t, "https://img.ext/c.png", absolutize(base, "//img.ext/c.png"))
}

func TestFetcherSendsBrowserHeaders(t *testing.T) {
	var ua, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua, accept = r.UserAgent(), r.Header.Get("Accept")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	page, err := NewFetcher().Fetch(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Contains(t, ua, "Mozilla/5.0")
	assert.Contains(t, accept, "text/html")
	assert.Equal(t, srv.URL+"/article", page.URL.String())
	assert.False(t, page.Rendered)
}

func TestFetcherErrors(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		for _, raw := range []string{"", "news.ext/article", "ftp://news.ext", "/relative"} {
			_, err := NewFetcher().Fetch(context.Background(), raw)
			assert.ErrorIs(t, err, ErrInvalidURL, raw)
		}
	})

	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		_, err := NewFetcher().Fetch(context.Background(), srv.URL)
		require.ErrorIs(t, err, ErrFetch)
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	})

	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		_, err := NewFetcher().Fetch(context.Background(), addr)
		require.ErrorIs(t, err, ErrFetch)
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Zero(t, fe.StatusCode)
	})
}

type fakeRenderer struct {
	html  string
	err   error
	calls int
}

func (f *fakeRenderer) Render(context.Context, string) (string, error) {
	f.calls++
	return f.html, f.err
}

func TestFetcherBrowserFallback(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer blocked.Close()

	shell := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="root"></div><script src="/app.js"></script></body></html>`))
	}))
	defer shell.Close()

	t.Run("blocked status is rendered", func(t *testing.T) {
		r := &fakeRenderer{html: "<html><body>rendered</body></html>"}
		page, err := NewFetcher(WithRenderer(r)).Fetch(context.Background(), blocked.URL)
		require.NoError(t, err)
		assert.True(t, page.Rendered)
		assert.Equal(t, 1, r.calls)
	})

	t.Run("blocked without renderer", func(t *testing.T) {
		_, err := NewFetcher().Fetch(context.Background(), blocked.URL)
		assert.ErrorIs(t, err, ErrFetch)
	})

	t.Run("renderer failure keeps http error", func(t *testing.T) {
		r := &fakeRenderer{err: errors.New("chrome crashed")}
		_, err := NewFetcher(WithRenderer(r)).Fetch(context.Background(), blocked.URL)
		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusForbidden, fe.StatusCode)
	})

	t.Run("app shell is rendered", func(t *testing.T) {
		r := &fakeRenderer{html: "<html><body>" + loremText + "</body></html>"}
		page, err := NewFetcher(WithRenderer(r)).Fetch(context.Background(), shell.URL)
		require.NoError(t, err)
		assert.True(t, page.Rendered)
	})

	t.Run("app shell kept when render fails", func(t *testing.T) {
		r := &fakeRenderer{err: errors.New("timeout")}
		page, err := NewFetcher(WithRenderer(r)).Fetch(context.Background(), shell.URL)
		require.NoError(t, err)
		assert.False(t, page.Rendered)
		assert.Contains(t, page.HTML, `id="root"`)
	})
}

func TestLooksLikeShell(t *testing.T) {
	assert.True(t, looksLikeShell(`<html><body><div id="app"></div><script src="x.js"></script></body></html>`))
	assert.False(t, looksLikeShell(articlePage))
	assert.False(t, looksLikeShell(`<html><body><p>short static page</p></body></html>`))
}

// textLLM returns a canned text completion.
type textLLM struct {
	text string
	err  error
}

func (f textLLM) GenerateJSON(context.Context, llm.Request, any) error { return errors.New("unused") }
func (f textLLM) GenerateText(context.Context, llm.Request) (string, error) {
	return f.text, f.err
}

type staticFetcher struct{ page *Page }

func (s staticFetcher) Fetch(context.Context, string) (*Page, error) { return s.page, nil }

func TestBuilder(t *testing.T) {
	page := &Page{URL: mustURL(t, "https://news.ext/a"), HTML: articlePage}

	t.Run("without inliner", func(t *testing.T) {
		c, err := NewBuilder(staticFetcher{page}, nil, logger.NewNop()).Build(context.Background(), "https://news.ext/a")
		require.NoError(t, err)
		assert.False(t, c.Inlined)
		assert.NotContains(t, c.HTML, "<script")
		assert.Equal(t, "https://news.ext/a", c.SourceURL)
	})

	t.Run("inliner output is re-sanitized", func(t *testing.T) {
		inl := NewInliner(textLLM{text: "```html\n<html><head><style>h1{color:red}</style><script>evil()</script></head><body><h1>T</h1></body></html>\n```"})
		c, err := NewBuilder(staticFetcher{page}, inl, logger.NewNop()).Build(context.Background(), "https://news.ext/a")
		require.NoError(t, err)
		assert.True(t, c.Inlined)
		assert.Contains(t, c.HTML, "h1{color:red}")
		assert.NotContains(t, c.HTML, "evil()")
	})

	t.Run("inliner failure is distinct from fetch failure", func(t *testing.T) {
		inl := NewInliner(textLLM{err: llm.ErrEmptyCompletion})
		_, err := NewBuilder(staticFetcher{page}, inl, logger.NewNop()).Build(context.Background(), "https://news.ext/a")
		assert.ErrorIs(t, err, ErrInline)
		assert.False(t, errors.Is(err, ErrFetch))
	})

	t.Run("inliner garbage", func(t *testing.T) {
		inl := NewInliner(textLLM{text: "Sorry, I cannot do that."})
		_, err := NewBuilder(staticFetcher{page}, inl, logger.NewNop()).Build(context.Background(), "https://news.ext/a")
		assert.ErrorIs(t, err, ErrInline)
	})
}

func TestTrimCodeFence(t *testing.T) {
	assert.Equal(t, "<html></html>", trimCodeFence("```html\n<html></html>\n```"))
	assert.Equal(t, "<html></html>", trimCodeFence(" <html></html> "))
	assert.True(t, strings.HasPrefix(trimCodeFence("```\n<p>x</p>```"), "<p>"))
}
