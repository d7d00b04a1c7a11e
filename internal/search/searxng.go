package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/young1lin/zaatar/internal/config"
	"github.com/young1lin/zaatar/internal/models"
	"github.com/young1lin/zaatar/internal/upstream"
	"github.com/young1lin/zaatar/pkg/logger"
)

// freshnessToTimeRange maps the public freshness codes onto SearXNG time ranges
var freshnessToTimeRange = map[string]string{
	"pd": "day",
	"pw": "week",
	"pm": "month",
	"py": "year",
}

// SearXNGProvider implements Provider against a SearXNG instance
type SearXNGProvider struct {
	baseURL    string
	engines    string
	safeSearch int
	maxCount   int
	timeout    int
	client     *upstream.Client
}

// NewSearXNGProvider creates a SearXNG provider. maxCount caps every
// request regardless of what the caller asks for.
func NewSearXNGProvider(cfg *config.SearXNGConfig, maxCount int) *SearXNGProvider {
	return &SearXNGProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		engines:    cfg.Engines,
		safeSearch: cfg.SafeSearch,
		maxCount:   maxCount,
		timeout:    cfg.Timeout,
		client:     upstream.NewClient(upstream.SearchEngine, config.Seconds(cfg.Timeout)),
	}
}

// Name returns the provider name
func (p *SearXNGProvider) Name() string {
	return upstream.SearchEngine
}

// searxngResponse is the subset of the SearXNG JSON format we read.
// Missing keys decode to empty strings.
type searxngResponse struct {
	Query   string          `json:"query,omitempty"`
	Results []searxngResult `json:"results,omitempty"`
}

type searxngResult struct {
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
	Content string  `json:"content,omitempty"`
	Engine  string  `json:"engine,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// TimeRange returns the SearXNG time_range for a freshness code, or "" for
// unknown codes.
func TimeRange(freshness string) string {
	return freshnessToTimeRange[freshness]
}

// BuildParams maps a request onto SearXNG query parameters. Country and UI
// language are accepted by the API but not forwarded.
func (p *SearXNGProvider) BuildParams(req models.SearchRequest) url.Values {
	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("format", "json")
	params.Set("safesearch", strconv.Itoa(p.safeSearch))

	if p.engines != "" {
		params.Set("engines", p.engines)
	}
	if req.SearchLang != "" {
		params.Set("language", req.SearchLang)
	}
	if timeRange := TimeRange(req.Freshness); timeRange != "" {
		params.Set("time_range", timeRange)
	}
	return params
}

// Search performs a search query using SearXNG
func (p *SearXNGProvider) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	log := logger.FromContext(ctx, "searxng")

	count := req.Count
	if count <= 0 || count > p.maxCount {
		count = p.maxCount
	}

	params := p.BuildParams(req)
	endpoint := fmt.Sprintf("%s/search?%s", p.baseURL, params.Encode())

	log.Debug("searxng request",
		zap.String("url", p.baseURL+"/search"),
		zap.String("params", params.Encode()),
	)

	callCtx, cancel := upstream.WithTimeout(ctx, config.Seconds(p.timeout))
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	var raw searxngResponse
	if err := p.client.DoJSON(httpReq, &raw); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, min(count, len(raw.Results)))
	for _, r := range raw.Results {
		if len(results) == count {
			break
		}
		results = append(results, models.SearchResult{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Content,
		})
	}

	log.Info("searxng search completed",
		zap.String("query", req.Query),
		zap.Int("upstream_count", len(raw.Results)),
		zap.Int("result_count", len(results)),
	)

	return &models.SearchResponse{
		Web: models.SearchResultsWeb{Results: results},
	}, nil
}
