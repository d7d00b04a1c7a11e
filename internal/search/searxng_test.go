package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/young1lin/zaatar/internal/config"
	"github.com/young1lin/zaatar/internal/models"
	"github.com/young1lin/zaatar/internal/upstream"
)

func newTestProvider(baseURL, engines string, safeSearch int) *SearXNGProvider {
	return NewSearXNGProvider(&config.SearXNGConfig{
		BaseURL:    baseURL,
		Engines:    engines,
		SafeSearch: safeSearch,
		Timeout:    5,
	}, 10)
}

func TestBuildParams(t *testing.T) {
	t.Run("Basic query", func(t *testing.T) {
		p := newTestProvider("http://searxng", "", 0)
		params := p.BuildParams(models.SearchRequest{Query: "golang", Count: 5})

		if params.Get("q") != "golang" {
			t.Errorf("Expected q 'golang', got %q", params.Get("q"))
		}
		if params.Get("format") != "json" {
			t.Errorf("Expected format json, got %q", params.Get("format"))
		}
		if params.Get("safesearch") != "0" {
			t.Errorf("Expected safesearch 0, got %q", params.Get("safesearch"))
		}
		for _, key := range []string{"engines", "language", "time_range"} {
			if params.Has(key) {
				t.Errorf("Expected no %s param, got %q", key, params.Get(key))
			}
		}
	})

	t.Run("Configured engines and safesearch", func(t *testing.T) {
		p := newTestProvider("http://searxng", "google,duckduckgo", 2)
		params := p.BuildParams(models.SearchRequest{Query: "q"})

		if params.Get("engines") != "google,duckduckgo" {
			t.Errorf("Expected engines list, got %q", params.Get("engines"))
		}
		if params.Get("safesearch") != "2" {
			t.Errorf("Expected safesearch 2, got %q", params.Get("safesearch"))
		}
	})

	t.Run("Language and freshness", func(t *testing.T) {
		p := newTestProvider("http://searxng", "", 0)
		params := p.BuildParams(models.SearchRequest{Query: "q", SearchLang: "de", Freshness: "pw"})

		if params.Get("language") != "de" {
			t.Errorf("Expected language de, got %q", params.Get("language"))
		}
		if params.Get("time_range") != "week" {
			t.Errorf("Expected time_range week, got %q", params.Get("time_range"))
		}
	})

	t.Run("Country and ui_lang are not forwarded", func(t *testing.T) {
		p := newTestProvider("http://searxng", "", 0)
		params := p.BuildParams(models.SearchRequest{Query: "q", Country: "US", UILang: "en-US"})

		if len(params) != 3 {
			t.Errorf("Expected only q, format and safesearch, got %v", params)
		}
	})
}

func TestTimeRange(t *testing.T) {
	tests := map[string]string{
		"pd":      "day",
		"pw":      "week",
		"pm":      "month",
		"py":      "year",
		"":        "",
		"PD":      "",
		"day":     "",
		"2024":    "",
		"pd ":     "",
		"unknown": "",
	}

	for in, want := range tests {
		if got := TimeRange(in); got != want {
			t.Errorf("TimeRange(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSearch(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Expected path /search, got %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()

		w.Header().Set("Content-Type", "application/json")
		results := ""
		for i := 0; i < 15; i++ {
			if i > 0 {
				results += ","
			}
			results += fmt.Sprintf(`{"title":"Result %d","url":"https://example.com/%d","content":"Snippet %d","engine":"google"}`, i, i, i)
		}
		fmt.Fprintf(w, `{"query":"test","results":[%s]}`, results)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL+"/", "", 1)

	t.Run("Truncates to requested count", func(t *testing.T) {
		resp, err := p.Search(context.Background(), models.SearchRequest{Query: "test", Count: 3, Freshness: "pd"})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(resp.Web.Results) != 3 {
			t.Fatalf("Expected 3 results, got %d", len(resp.Web.Results))
		}
		first := resp.Web.Results[0]
		if first.Title != "Result 0" || first.URL != "https://example.com/0" || first.Description != "Snippet 0" {
			t.Errorf("Unexpected first result: %+v", first)
		}
		if gotQuery.Get("time_range") != "day" {
			t.Errorf("Expected time_range day, got %q", gotQuery.Get("time_range"))
		}
		if resp.Summary != nil {
			t.Error("Expected no summary from search provider")
		}
	})

	t.Run("Caps at configured maximum", func(t *testing.T) {
		resp, err := p.Search(context.Background(), models.SearchRequest{Query: "test", Count: 50})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(resp.Web.Results) != 10 {
			t.Errorf("Expected 10 results, got %d", len(resp.Web.Results))
		}
	})
}

func TestSearchMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"url":"https://a.example"},{"title":"B","content":null},{}]}`))
	}))
	defer srv.Close()

	resp, err := newTestProvider(srv.URL, "", 0).Search(context.Background(), models.SearchRequest{Query: "q", Count: 5})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := []models.SearchResult{
		{URL: "https://a.example"},
		{Title: "B"},
		{},
	}
	if len(resp.Web.Results) != len(want) {
		t.Fatalf("Expected %d results, got %d", len(want), len(resp.Web.Results))
	}
	for i, w := range want {
		if resp.Web.Results[i] != w {
			t.Errorf("Result %d: got %+v, want %+v", i, resp.Web.Results[i], w)
		}
	}
}

func TestSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":"nothing"}`))
	}))
	defer srv.Close()

	resp, err := newTestProvider(srv.URL, "", 0).Search(context.Background(), models.SearchRequest{Query: "nothing", Count: 5})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.Web.Results == nil || len(resp.Web.Results) != 0 {
		t.Errorf("Expected empty non-nil results, got %#v", resp.Web.Results)
	}
}

func TestSearchErrors(t *testing.T) {
	t.Run("Upstream status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL, "", 0).Search(context.Background(), models.SearchRequest{Query: "q", Count: 1})
		var httpErr *upstream.HTTPError
		if !errors.As(err, &httpErr) {
			t.Fatalf("Expected HTTPError, got %v", err)
		}
		if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.Service != upstream.SearchEngine {
			t.Errorf("Unexpected error: %+v", httpErr)
		}
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		addr := srv.URL
		srv.Close()

		_, err := newTestProvider(addr, "", 0).Search(context.Background(), models.SearchRequest{Query: "q", Count: 1})
		var connErr *upstream.ConnectError
		if !errors.As(err, &connErr) {
			t.Fatalf("Expected ConnectError, got %v", err)
		}
	})

	t.Run("Malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL, "", 0).Search(context.Background(), models.SearchRequest{Query: "q", Count: 1})
		var decodeErr *upstream.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("Expected DecodeError, got %v", err)
		}
	})
}
