// Package api exposes the analysis engine over HTTP and WebSocket. The
// handlers are thin: they enforce transport limits, translate boundary
// faults into status codes, and leave all language work to the analyzer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/antibyte/lexana/pkg/analyzer"
	"github.com/antibyte/lexana/pkg/auth"
	"github.com/antibyte/lexana/pkg/configuration"
	"github.com/antibyte/lexana/pkg/detector"
	"github.com/antibyte/lexana/pkg/history"
	"github.com/antibyte/lexana/pkg/logger"
)

// Handler bundles the HTTP endpoints with their dependencies. The history
// store may be nil when request logging is disabled in the configuration.
type Handler struct {
	store *history.Store
}

// NewHandler creates the API handler set.
func NewHandler(store *history.Store) *Handler {
	return &Handler{store: store}
}

// AnalyzeRequest is the body of POST /api/analyze and /api/detect.
type AnalyzeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

type errorResponse struct {
	Error     string                  `json:"error"`
	Supported []analyzer.LanguageInfo `json:"supported_languages,omitempty"`
	Detection *detector.Result        `json:"detection,omitempty"`
}

func maxRequestBody() int64 {
	return int64(configuration.GetInt("Limits", "max_request_body_kb", 1024)) * 1024
}

func maxSourceSize() int {
	return configuration.GetInt("Limits", "max_source_size_kb", 512) * 1024
}

// HandleAnalyze runs a full tokenization request.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := analyzer.Analyze(req.Code, req.Language)
	if err != nil {
		if errors.Is(err, analyzer.ErrUnsupportedLanguage) {
			// Reject at the boundary but tell the client what the
			// detector would have picked.
			detection := analyzer.Detect(req.Code)
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:     "Unsupported language: " + req.Language,
				Supported: analyzer.Languages(),
				Detection: &detection,
			})
			return
		}
		logger.APIError("analyze failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Analysis failed"})
		return
	}

	h.recordHistory(r, result)
	writeJSON(w, http.StatusOK, result)
}

// HandleDetect runs language detection only.
func (h *Handler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analyzer.Detect(req.Code))
}

// HandleLanguages returns the static language registry.
func (h *Handler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"languages": analyzer.Languages(),
	})
}

// HandleHistory returns the logged analyses of the calling session. Wrap
// with auth.RequireSession when registering.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "History is disabled"})
		return
	}

	sessionID := auth.SessionIDFromContext(r.Context())
	pageSize := configuration.GetInt("Database", "history_page_size", 50)
	entries, err := h.store.RecentBySession(sessionID, pageSize)
	if err != nil {
		logger.APIError("history query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "History unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"entries":    entries,
	})
}

// HandleClearHistory wipes the log. Requires the admin credential via
// HTTP basic auth.
func (h *Handler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "History is disabled"})
		return
	}

	_, password, ok := r.BasicAuth()
	if !ok || !h.store.VerifyAdminPassword(password) {
		logger.SecurityWarn("history clear rejected for %s: bad admin credential", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	removed, err := h.store.Clear()
	if err != nil {
		logger.APIError("history clear failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "History unavailable"})
		return
	}
	logger.APIInfo("history cleared by admin, %d entries removed", removed)
	writeJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}

// decodeRequest enforces the transport limits shared by the analyze and
// detect endpoints. A false return means the response is already written.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (AnalyzeRequest, bool) {
	var req AnalyzeRequest

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return req, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody())
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.APIWarn("bad request body from %s: %v", r.RemoteAddr, err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return req, false
	}

	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No source code provided"})
		return req, false
	}
	if len(req.Code) > maxSourceSize() {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Source code too large"})
		return req, false
	}
	return req, true
}

// recordHistory logs a finished analysis when the store is active. The
// session ID comes from an optional token; unauthenticated requests are
// logged as anonymous. Failures only produce a log line - history is a
// convenience, never part of the analysis contract.
func (h *Handler) recordHistory(r *http.Request, result *analyzer.Result) {
	if h.store == nil {
		return
	}

	sessionID := "anonymous"
	if tokenString, err := auth.ExtractTokenFromRequest(r); err == nil {
		if claims, err := auth.ValidateSessionToken(tokenString); err == nil {
			sessionID = claims.SessionID
		}
	}

	entry := history.Entry{
		ID:          result.RequestID,
		SessionID:   sessionID,
		Language:    string(result.Language),
		Confidence:  result.Confidence,
		TotalTokens: result.Stats.Total,
		ErrorCount:  result.Stats.ErrorCount,
	}
	if err := h.store.Record(entry); err != nil {
		logger.APIWarn("history record failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.APIError("response encoding failed: %v", err)
	}
}
