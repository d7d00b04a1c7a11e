package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/young1lin/zaatar/internal/extract"
	"github.com/young1lin/zaatar/internal/models"
)

// handleWebFetch fetches a page and returns its extracted content
func (h *Handler) handleWebFetch(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	req, err := parseFetchRequest(r.URL.Query())
	if err != nil {
		h.handleFailure(w, err, log)
		return
	}

	log = log.With(zap.String("url", req.URL))

	resp, err := h.fetcher.Fetch(r.Context(), req)
	if err != nil {
		h.handleFailure(w, err, log)
		return
	}

	log.Info("fetch completed",
		zap.String("extract_mode", string(resp.ExtractMode)),
		zap.Int("content_length", resp.ContentLength),
	)
	writeJSON(w, http.StatusOK, resp)
}

func parseFetchRequest(q url.Values) (models.FetchRequest, error) {
	req := models.FetchRequest{URL: strings.TrimSpace(q.Get("url"))}
	if req.URL == "" {
		return req, invalid("url is required")
	}

	mode, err := extract.ParseMode(q.Get("extractMode"))
	if err != nil {
		return req, invalid("%s", err.Error())
	}
	req.ExtractMode = mode

	if raw := q.Get("maxChars"); raw != "" {
		maxChars, err := strconv.Atoi(raw)
		if err != nil {
			return req, invalid("maxChars must be an integer")
		}
		req.MaxChars = &maxChars
	}

	return req, nil
}
