package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/young1lin/zaatar/internal/config"
	"github.com/young1lin/zaatar/internal/extract"
	"github.com/young1lin/zaatar/internal/models"
	"github.com/young1lin/zaatar/internal/upstream"
	"github.com/young1lin/zaatar/pkg/logger"
)

// allowedSchemes blocks file:// and other local-resource schemes
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// SchemeError is returned before any network access when the URL is not
// plain http or https.
type SchemeError struct {
	Scheme string
}

func (e *SchemeError) Error() string {
	return fmt.Sprintf("URL scheme '%s' not allowed. Use http or https.", e.Scheme)
}

// URLError is returned for URLs that parse but cannot be fetched.
type URLError struct {
	URL    string
	Reason string
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid URL '%s': %s", e.URL, e.Reason)
}

// Fetcher retrieves web pages and extracts their readable content
type Fetcher struct {
	client    *upstream.Client
	userAgent string
	maxChars  int
	timeout   int
}

// NewFetcher creates a fetcher from the fetch configuration
func NewFetcher(cfg *config.FetchConfig) *Fetcher {
	client := upstream.NewClient(upstream.TargetSite, config.Seconds(cfg.Timeout))
	client.MaxBodyBytes = cfg.MaxBodyBytes

	return &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		maxChars:  cfg.MaxChars,
		timeout:   cfg.Timeout,
	}
}

// ValidateURL parses rawURL and checks its scheme.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, &URLError{URL: rawURL, Reason: "cannot be parsed"}
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return nil, &SchemeError{Scheme: u.Scheme}
	}
	if u.Host == "" {
		return nil, &URLError{URL: rawURL, Reason: "missing host"}
	}
	return u, nil
}

// Fetch downloads req.URL, extracts it and truncates the result.
func (f *Fetcher) Fetch(ctx context.Context, req models.FetchRequest) (*models.FetchResponse, error) {
	log := logger.FromContext(ctx, "fetch")

	target, err := ValidateURL(req.URL)
	if err != nil {
		return nil, err
	}

	mode := req.ExtractMode
	if mode == "" {
		mode = models.ExtractMarkdown
	}
	maxChars := f.maxChars
	if req.MaxChars != nil {
		maxChars = *req.MaxChars
	}

	log.Debug("fetching url",
		zap.String("url", req.URL),
		zap.String("mode", string(mode)),
		zap.Int("max_chars", maxChars),
	)

	callCtx, cancel := upstream.WithTimeout(ctx, config.Seconds(f.timeout))
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	body, resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	// Relative links resolve against the page we ended up on
	base := target
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	content := extract.ExtractWithURL(string(body), mode, base)
	content = Truncate(content, maxChars)

	log.Debug("fetch completed",
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("body_bytes", len(body)),
		zap.Int("content_length", utf8.RuneCountInString(content)),
	)

	return &models.FetchResponse{
		URL:           req.URL,
		Content:       content,
		ExtractMode:   mode,
		ContentLength: utf8.RuneCountInString(content),
	}, nil
}

// Truncate keeps the first limit characters of s. A limit <= 0 keeps everything.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
