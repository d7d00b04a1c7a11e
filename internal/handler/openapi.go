package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func queryParam(name, typ, description string, required bool, extra map[string]any) map[string]any {
	schema := map[string]any{"type": typ}
	for k, v := range extra {
		schema[k] = v
	}
	return map[string]any{
		"name":        name,
		"in":          "query",
		"required":    required,
		"description": description,
		"schema":      schema,
	}
}

func errorResponse(description string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
			},
		},
	}
}

func jsonResponse(description, schema string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/" + schema},
			},
		},
	}
}

func stringProp() map[string]any { return map[string]any{"type": "string"} }

// openAPIDocument describes the public routes as an OpenAPI 3 document
func (h *Handler) openAPIDocument() map[string]any {
	maxCount := h.config.Search.MaxCount

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       "Zaatar Search API",
			"version":     h.version,
			"description": "Web search and fetch API backed by SearXNG, with optional Ollama summaries",
		},
		"tags": []any{
			map[string]any{"name": "Search", "description": "Web search operations"},
			map[string]any{"name": "Fetch", "description": "Web content fetch operations"},
		},
		"paths": map[string]any{
			"/web_search": map[string]any{
				"get": map[string]any{
					"tags":        []any{"Search"},
					"summary":     "Search the web",
					"description": "Search the web using the SearXNG metasearch engine. Optionally summarize results with a local LLM.",
					"parameters": []any{
						queryParam("query", "string", "Search terms", true, nil),
						queryParam("count", "integer", "Number of results to return", false, map[string]any{
							"minimum": 1, "maximum": maxCount, "default": h.config.Search.DefaultCount,
						}),
						queryParam("country", "string", "2-letter country code", false, nil),
						queryParam("search_lang", "string", "ISO language code for search results", false, nil),
						queryParam("ui_lang", "string", "ISO language code for UI", false, nil),
						queryParam("freshness", "string", `Freshness filter: "pd" (past day), "pw" (past week), "pm" (past month), "py" (past year)`, false, nil),
						queryParam("summarize", "boolean", "Summarize the results with the configured model", false, map[string]any{"default": false}),
					},
					"responses": map[string]any{
						"200": jsonResponse("Search results", "SearchResponse"),
						"422": errorResponse("Invalid query parameters"),
						"502": errorResponse("Search engine or summarization service failure"),
					},
				},
			},
			"/web_fetch": map[string]any{
				"get": map[string]any{
					"tags":        []any{"Fetch"},
					"summary":     "Fetch web content",
					"description": "Fetch a URL and extract readable content as markdown or text",
					"parameters": []any{
						queryParam("url", "string", "URL to fetch (http or https)", true, nil),
						queryParam("extractMode", "string", `Extraction mode: "markdown" or "text"`, false, map[string]any{
							"enum": []any{"markdown", "text"}, "default": "markdown",
						}),
						queryParam("maxChars", "integer", fmt.Sprintf("Maximum characters to return (default: %d, <= 0 disables truncation)", h.config.Fetch.MaxChars), false, nil),
					},
					"responses": map[string]any{
						"200": jsonResponse("Extracted content", "FetchResponse"),
						"400": errorResponse("URL scheme not allowed"),
						"422": errorResponse("Invalid query parameters"),
						"502": errorResponse("Target site unreachable or returned an error"),
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"SearchResult": map[string]any{
					"type":     "object",
					"required": []any{"title", "url", "description"},
					"properties": map[string]any{
						"title":       stringProp(),
						"url":         stringProp(),
						"description": stringProp(),
					},
				},
				"SearchResponse": map[string]any{
					"type":     "object",
					"required": []any{"web"},
					"properties": map[string]any{
						"web": map[string]any{
							"type":     "object",
							"required": []any{"results"},
							"properties": map[string]any{
								"results": map[string]any{
									"type":  "array",
									"items": map[string]any{"$ref": "#/components/schemas/SearchResult"},
								},
							},
						},
						"summary": stringProp(),
					},
				},
				"FetchResponse": map[string]any{
					"type":     "object",
					"required": []any{"url", "content", "extract_mode", "content_length"},
					"properties": map[string]any{
						"url":            stringProp(),
						"content":        stringProp(),
						"extract_mode":   stringProp(),
						"content_length": map[string]any{"type": "integer"},
					},
				},
				"ErrorResponse": map[string]any{
					"type":       "object",
					"required":   []any{"error"},
					"properties": map[string]any{"error": stringProp()},
				},
			},
		},
	}
}

func (h *Handler) handleOpenAPIJSON(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	writeJSON(w, http.StatusOK, h.openAPIDocument())
}

func (h *Handler) handleOpenAPIYAML(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	out, err := yaml.Marshal(h.openAPIDocument())
	if err != nil {
		log.Error("failed to render openapi yaml", zap.Error(err))
		h.handleError(w, http.StatusInternalServerError, "Internal server error", log)
		return
	}
	w.Header().Set("Content-Type", "text/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Zaatar Search API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function () {
      SwaggerUIBundle({ url: "/openapi/openapi.json", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
`

func (h *Handler) handleOpenAPIUI(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(swaggerPage))
}
