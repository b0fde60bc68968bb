// Integration tests exercising the full HTTP stack: session creation,
// authenticated history access and the analysis endpoints wired together
// the way main.go wires them.
package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/antibyte/lexana/pkg/api"
	"github.com/antibyte/lexana/pkg/auth"
	"github.com/antibyte/lexana/pkg/history"
)

// newTestServer assembles the route table like main.go does.
func newTestServer(t *testing.T) (*httptest.Server, *history.Store) {
	t.Helper()

	store, err := history.Open(filepath.Join(t.TempDir(), "integration.db"))
	if err != nil {
		t.Fatalf("Failed to open history store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", handler.HandleAnalyze)
	mux.HandleFunc("/api/detect", handler.HandleDetect)
	mux.HandleFunc("/api/languages", handler.HandleLanguages)
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			handler.HandleClearHistory(w, r)
			return
		}
		auth.RequireSession(handler.HandleHistory)(w, r)
	})
	mux.HandleFunc("/api/auth/session", auth.HandleCreateSession)
	mux.HandleFunc("/api/auth/validate", auth.HandleValidateSession)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func postJSON(t *testing.T, url, token string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req, err := http.NewRequest("POST", url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func createSession(t *testing.T, baseURL string) (string, string) {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/auth/session", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Session creation failed with %d", resp.StatusCode)
	}

	var session struct {
		SessionID string `json:"session_id"`
		Token     string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("Failed to decode session response: %v", err)
	}
	return session.SessionID, session.Token
}

func TestAnalyzeEndToEnd(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/analyze", "", map[string]string{
		"code":     "int x = 089;",
		"language": "c",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Language string `json:"language"`
		Tokens   []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"tokens"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Stats struct {
			Total      int `json:"total"`
			ErrorCount int `json:"error_count"`
		} `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if result.Language != "c" {
		t.Errorf("Expected language c, got %s", result.Language)
	}
	if result.Stats.ErrorCount != 1 || len(result.Errors) != 1 {
		t.Errorf("Expected exactly one lexical error, got stats=%d errors=%d",
			result.Stats.ErrorCount, len(result.Errors))
	}
	if result.Stats.Total != len(result.Tokens) {
		t.Errorf("Stats total %d != %d tokens", result.Stats.Total, len(result.Tokens))
	}
}

func TestSessionHistoryFlow(t *testing.T) {
	server, _ := newTestServer(t)
	sessionID, token := createSession(t, server.URL)

	// Two analyses under the session, one anonymous.
	for _, tok := range []string{token, token, ""} {
		resp := postJSON(t, server.URL+"/api/analyze", tok, map[string]string{
			"code": "def f():\n    return 1\n",
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Analyze failed with %d", resp.StatusCode)
		}
	}

	// History requires the token.
	req, _ := http.NewRequest("GET", server.URL+"/api/history", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("History request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest("GET", server.URL+"/api/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("History request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 with token, got %d", resp.StatusCode)
	}

	var page struct {
		SessionID string `json:"session_id"`
		Entries   []struct {
			Language string `json:"language"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	if page.SessionID != sessionID {
		t.Errorf("Expected session %s, got %s", sessionID, page.SessionID)
	}
	// Only the two authenticated analyses belong to this session.
	if len(page.Entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(page.Entries))
	}
	for _, e := range page.Entries {
		if e.Language != "python" {
			t.Errorf("Expected python entries, got %s", e.Language)
		}
	}
}

func TestDetectEndToEnd(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/detect", "", map[string]string{
		"code": "#include <stdio.h>\nint main(void) { printf(\"hi\"); }\n",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var verdict struct {
		Language string         `json:"detected_language"`
		Scores   map[string]int `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		t.Fatalf("Failed to decode verdict: %v", err)
	}
	if verdict.Language != "c" {
		t.Errorf("Expected c, got %s", verdict.Language)
	}
	if len(verdict.Scores) != 3 {
		t.Errorf("Expected 3 scores, got %v", verdict.Scores)
	}
}

func TestAdminHistoryClear(t *testing.T) {
	server, store := newTestServer(t)
	if err := store.SetAdminPassword("integration-secret"); err != nil {
		t.Fatalf("SetAdminPassword failed: %v", err)
	}

	resp := postJSON(t, server.URL+"/api/analyze", "", map[string]string{
		"code": "x = 1\n", "language": "python",
	})
	resp.Body.Close()

	// Wrong credential is rejected.
	req, _ := http.NewRequest("DELETE", server.URL+"/api/history", nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Clear request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for wrong credential, got %d", resp.StatusCode)
	}

	// Correct credential wipes the log.
	req, _ = http.NewRequest("DELETE", server.URL+"/api/history", nil)
	req.SetBasicAuth("admin", "integration-secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Clear request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty history after clear, got %d entries", len(entries))
	}
}

func TestUnsupportedLanguageRejectedAtBoundary(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/analyze", "", map[string]string{
		"code": "print(1)", "language": "ruby",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", resp.StatusCode)
	}

	var body struct {
		Error     string `json:"error"`
		Supported []struct {
			ID string `json:"id"`
		} `json:"supported_languages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if len(body.Supported) != 3 {
		t.Errorf("Expected the supported language list, got %+v", body.Supported)
	}
}
