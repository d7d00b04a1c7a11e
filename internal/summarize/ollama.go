package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/young1lin/zaatar/internal/config"
	"github.com/young1lin/zaatar/internal/models"
	"github.com/young1lin/zaatar/internal/upstream"
	"github.com/young1lin/zaatar/pkg/logger"
)

// SystemPrompt instructs the model to stay within the supplied results
const SystemPrompt = "You are a search summarization assistant. " +
	"Given a user's search query and a list of search results (title, URL, description), " +
	"synthesize a concise, accurate summary that answers the query. " +
	"Cite relevant URLs inline using markdown links. " +
	"Do not invent information beyond what the search results provide."

// OllamaClient talks to an Ollama server
type OllamaClient struct {
	baseURL     string
	model       string
	timeout     int
	pullTimeout int
	client      *upstream.Client
	pullClient  *upstream.Client
}

// NewOllamaClient creates a client from the Ollama configuration
func NewOllamaClient(cfg *config.OllamaConfig) *OllamaClient {
	return &OllamaClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		pullTimeout: cfg.PullTimeout,
		client:      upstream.NewClient(upstream.Inference, config.Seconds(cfg.Timeout)),
		pullClient:  upstream.NewClient(upstream.Inference, config.Seconds(cfg.PullTimeout)),
	}
}

// Model returns the configured model name
func (c *OllamaClient) Model() string {
	return c.model
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model,omitempty"`
	Response string `json:"response,omitempty"`
	Done     bool   `json:"done,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name,omitempty"`
		Model string `json:"model,omitempty"`
	} `json:"models,omitempty"`
}

type pullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type pullResponse struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BuildPrompt renders the query and results into a single prompt
func BuildPrompt(query string, results []models.SearchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search query: %s\n\n", query)
	sb.WriteString("Search results:\n")
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- [%s](%s): %s", r.Title, r.URL, r.Description)
	}
	sb.WriteString("\n\nProvide a concise summary answering the query based on these results.")
	return sb.String()
}

// Summarize asks the model to answer query from results. The returned
// text is trimmed and may be empty.
func (c *OllamaClient) Summarize(ctx context.Context, query string, results []models.SearchResult) (string, error) {
	log := logger.FromContext(ctx, "ollama")

	payload := generateRequest{
		Model:  c.model,
		Prompt: BuildPrompt(query, results),
		System: SystemPrompt,
		Stream: false,
	}

	log.Debug("requesting summarization",
		zap.String("model", c.model),
		zap.Int("result_count", len(results)),
	)

	var resp generateResponse
	if err := c.postJSON(ctx, c.client, c.timeout, "/api/generate", payload, &resp); err != nil {
		return "", err
	}

	summary := strings.TrimSpace(resp.Response)
	log.Debug("summarization completed", zap.Int("summary_length", len(summary)))
	return summary, nil
}

// IsModelAvailable reports whether name is already present locally
func (c *OllamaClient) IsModelAvailable(ctx context.Context, name string) (bool, error) {
	callCtx, cancel := upstream.WithTimeout(ctx, config.Seconds(c.timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	var tags tagsResponse
	if err := c.client.DoJSON(req, &tags); err != nil {
		return false, err
	}

	for _, m := range tags.Models {
		if sameModel(m.Model, name) || sameModel(m.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// EnsureModelAvailable pulls name unless it is already present. Pulls can
// download several gigabytes, so they run under the pull timeout.
func (c *OllamaClient) EnsureModelAvailable(ctx context.Context, name string) error {
	log := logger.FromContext(ctx, "ollama")

	available, err := c.IsModelAvailable(ctx, name)
	if err != nil {
		return err
	}
	if available {
		log.Info("ollama model already available", zap.String("model", name))
		return nil
	}

	log.Info("pulling ollama model",
		zap.String("model", name),
		zap.String("base_url", c.baseURL),
	)

	var resp pullResponse
	if err := c.postJSON(ctx, c.pullClient, c.pullTimeout, "/api/pull", pullRequest{Model: name, Stream: false}, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("pull %s: %s", name, resp.Error)
	}

	log.Info("ollama model ready", zap.String("model", name), zap.String("status", resp.Status))
	return nil
}

func (c *OllamaClient) postJSON(ctx context.Context, client *upstream.Client, timeout int, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	callCtx, cancel := upstream.WithTimeout(ctx, config.Seconds(timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return client.DoJSON(req, out)
}

// sameModel treats "llama3" and "llama3:latest" as the same model
func sameModel(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return withTag(a) == withTag(b)
}

func withTag(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}
