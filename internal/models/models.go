package models

// ExtractMode selects how fetched HTML is rendered
type ExtractMode string

const (
	ExtractMarkdown ExtractMode = "markdown"
	ExtractText     ExtractMode = "text"
)

// SearchRequest represents the query parameters of /web_search
type SearchRequest struct {
	Query      string
	Count      int
	Country    string // Accepted for API compatibility, not forwarded upstream
	SearchLang string
	UILang     string // Accepted for API compatibility, not forwarded upstream
	Freshness  string // "pd", "pw", "pm" or "py"; anything else is ignored
	Summarize  bool
}

// SearchResult represents a single search result
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// SearchResultsWeb wraps the result list
type SearchResultsWeb struct {
	Results []SearchResult `json:"results"`
}

// SearchResponse is the /web_search response body
type SearchResponse struct {
	Web     SearchResultsWeb `json:"web"`
	Summary *string          `json:"summary,omitempty"`
}

// FetchRequest represents the query parameters of /web_fetch
type FetchRequest struct {
	URL         string
	ExtractMode ExtractMode
	MaxChars    *int // nil means the configured default, <= 0 disables truncation
}

// FetchResponse is the /web_fetch response body
type FetchResponse struct {
	URL           string      `json:"url"`
	Content       string      `json:"content"`
	ExtractMode   ExtractMode `json:"extract_mode"`
	ContentLength int         `json:"content_length"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the /health response body
type HealthResponse struct {
	Status    string `json:"status"`
	Ready     bool   `json:"ready"`
	Timestamp int64  `json:"timestamp"`
}
