package handler

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/young1lin/zaatar/internal/fetch"
	"github.com/young1lin/zaatar/internal/upstream"
)

// validationError marks malformed or missing input. It never reaches an upstream.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// upstreamMessages are the user-facing texts per upstream service
type upstreamMessages struct {
	status      string // formatted with the remote status code
	unavailable string
	invalid     string
}

var messagesByService = map[string]upstreamMessages{
	upstream.SearchEngine: {
		status:      "Search engine error: %d",
		unavailable: "Search engine unavailable",
		invalid:     "Search engine returned an invalid response",
	},
	upstream.Inference: {
		status:      "Summarization error: %d",
		unavailable: "Summarization service unavailable",
		invalid:     "Summarization service returned an invalid response",
	},
	upstream.TargetSite: {
		status:      "Upstream error: %d",
		unavailable: "Cannot connect to target URL",
		invalid:     "Target URL returned an invalid response",
	},
}

// classify maps an error onto a status code and a message that is safe to
// return. Internal details stay in the logs.
func classify(err error) (int, string) {
	var (
		valErr    *validationError
		schemeErr *fetch.SchemeError
		urlErr    *fetch.URLError
		httpErr   *upstream.HTTPError
		connErr   *upstream.ConnectError
		decodeErr *upstream.DecodeError
	)

	switch {
	case errors.As(err, &valErr):
		return http.StatusUnprocessableEntity, valErr.msg
	case errors.As(err, &schemeErr):
		return http.StatusBadRequest, schemeErr.Error()
	case errors.As(err, &urlErr):
		return http.StatusBadRequest, urlErr.Error()
	case errors.As(err, &httpErr):
		return http.StatusBadGateway, fmt.Sprintf(messagesFor(httpErr.Service).status, httpErr.StatusCode)
	case errors.As(err, &connErr):
		return http.StatusBadGateway, messagesFor(connErr.Service).unavailable
	case errors.As(err, &decodeErr):
		return http.StatusBadGateway, messagesFor(decodeErr.Service).invalid
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func messagesFor(service string) upstreamMessages {
	if m, ok := messagesByService[service]; ok {
		return m
	}
	return upstreamMessages{
		status:      "Upstream error: %d",
		unavailable: "Upstream service unavailable",
		invalid:     "Upstream service returned an invalid response",
	}
}

// handleFailure logs err in full and writes its classified envelope
func (h *Handler) handleFailure(w http.ResponseWriter, err error, log *zap.Logger) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err), zap.Int("status", status))
	}
	h.handleError(w, status, message, log)
}
