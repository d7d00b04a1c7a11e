package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/young1lin/zaatar/internal/models"
)

// handleWebSearch runs search and, when asked and there is something to
// summarize, summarization. A summarization failure discards the results:
// the caller gets both or neither.
func (h *Handler) handleWebSearch(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	req, err := h.parseSearchRequest(r.URL.Query())
	if err != nil {
		h.handleFailure(w, err, log)
		return
	}

	log = log.With(zap.String("query", req.Query))
	log.Debug("parsed search request",
		zap.Int("count", req.Count),
		zap.String("freshness", req.Freshness),
		zap.String("search_lang", req.SearchLang),
		zap.Bool("summarize", req.Summarize),
	)

	resp, err := h.searcher.Search(r.Context(), req)
	if err != nil {
		h.handleFailure(w, err, log)
		return
	}

	if req.Summarize && len(resp.Web.Results) > 0 {
		summary, err := h.summarizer.Summarize(r.Context(), req.Query, resp.Web.Results)
		if err != nil {
			h.handleFailure(w, err, log)
			return
		}
		resp.Summary = &summary
	}

	log.Info("search completed",
		zap.Int("result_count", len(resp.Web.Results)),
		zap.Bool("summarized", resp.Summary != nil),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) parseSearchRequest(q url.Values) (models.SearchRequest, error) {
	req := models.SearchRequest{
		Query:      strings.TrimSpace(q.Get("query")),
		Count:      h.config.Search.DefaultCount,
		Country:    q.Get("country"),
		SearchLang: q.Get("search_lang"),
		UILang:     q.Get("ui_lang"),
		Freshness:  q.Get("freshness"),
	}

	if req.Query == "" {
		return req, invalid("query is required")
	}

	if raw := q.Get("count"); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return req, invalid("count must be an integer")
		}
		req.Count = count
	}
	if maxCount := h.config.Search.MaxCount; req.Count < 1 || req.Count > maxCount {
		return req, invalid("count must be between 1 and %d", maxCount)
	}

	if raw := q.Get("summarize"); raw != "" {
		summarize, err := parseBool(raw)
		if err != nil {
			return req, invalid("summarize must be a boolean")
		}
		req.Summarize = summarize
	}

	return req, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
