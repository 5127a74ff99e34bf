package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/honeypot-engine/internal/callback"
	"github.com/rawblock/honeypot-engine/internal/detect"
	"github.com/rawblock/honeypot-engine/internal/engage"
	"github.com/rawblock/honeypot-engine/internal/intel"
	"github.com/rawblock/honeypot-engine/internal/quality"
	"github.com/rawblock/honeypot-engine/internal/session"
)

const testKey = "test-api-key"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Callback deliveries go to a throwaway local endpoint so no test
	// ever reaches the real evaluation URL.
	sinkSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(sinkSrv.Close)

	tracker := quality.NewTracker()
	audit := callback.NewAuditor("")
	hub := NewHub()
	go hub.Run()

	return SetupRouter(Deps{
		APIKey:     testKey,
		Sessions:   session.NewStore(),
		Scorer:     detect.NewScorer(),
		Extractor:  intel.NewExtractor(),
		Watchlist:  intel.NewWatchlist(),
		Tracker:    tracker,
		Controller: engage.NewController(tracker),
		Dispatcher: callback.NewDispatcher(sinkSrv.URL, audit, nil, nil),
		Audit:      audit,
		WSHub:      hub,
	})
}

func postHoneypot(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/honeypot", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHoneypot_MissingAPIKeyRejected(t *testing.T) {
	r := newTestRouter(t)

	w := postHoneypot(r, "", `{"sessionId":"s1","message":{"sender":"scammer","text":"hi"}}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["detail"] != "Missing API key. Please provide the 'x-api-key' header." {
		t.Fatalf("unexpected detail: %q", body["detail"])
	}
}

func TestHoneypot_WrongAPIKeyRejected(t *testing.T) {
	r := newTestRouter(t)

	w := postHoneypot(r, "not-the-key", `{"sessionId":"s1","message":{"sender":"scammer","text":"hi"}}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid API key.") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestHoneypot_MalformedBodyReturns422(t *testing.T) {
	r := newTestRouter(t)

	w := postHoneypot(r, testKey, `{"sessionId": not json`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "detail") {
		t.Fatalf("expected validation detail, got: %s", w.Body.String())
	}
}

func TestHoneypot_GreetingGetsInCharacterReply(t *testing.T) {
	r := newTestRouter(t)

	w := postHoneypot(r, testKey, `{"sessionId":"s-greet","message":{"sender":"scammer","text":"Hi"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
		Reply  string `json:"reply"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Status != "success" || resp.Reply == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHoneypot_MissingSessionIDGetsBenignReply(t *testing.T) {
	r := newTestRouter(t)

	w := postHoneypot(r, testKey, `{"message":{"sender":"scammer","text":"hello"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Reply  string `json:"reply"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Reply != benignReply {
		t.Fatalf("expected benign reply, got %q", resp.Reply)
	}
}

func TestStatusEndpoint_OpenAndVersioned(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["status"] != "online" || body["service"] != serviceName {
		t.Fatalf("unexpected status body: %v", body)
	}
}

func TestHealthEndpoint_Open(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "activeSessions") {
		t.Fatalf("unexpected health body: %s", w.Body.String())
	}
}

func TestSessionEndpoint_UnknownSessionIs404(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/never-seen", nil)
	req.Header.Set("x-api-key", testKey)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHoneypot_ScamTurnReflectedInSessionState(t *testing.T) {
	r := newTestRouter(t)

	w := postHoneypot(r, testKey,
		`{"sessionId":"s-scam","message":{"sender":"scammer","text":"URGENT: share the 6 digit OTP or your SBI account will be suspended today"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s-scam", nil)
	req.Header.Set("x-api-key", testKey)
	sw := httptest.NewRecorder()
	r.ServeHTTP(sw, req)

	if sw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", sw.Code)
	}
	var state struct {
		ScamDetected bool    `json:"scamDetected"`
		TurnCount    int     `json:"turnCount"`
		Score        float64 `json:"cumulativeScore"`
	}
	if err := json.Unmarshal(sw.Body.Bytes(), &state); err != nil {
		t.Fatalf("bad session body: %v", err)
	}
	if !state.ScamDetected || state.TurnCount != 1 || state.Score < detect.ScamThreshold {
		t.Fatalf("unexpected session state: %+v", state)
	}
}

func TestWatchlistEndpoint_RequiresKey(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/watchlist", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	req.Header.Set("x-api-key", testKey)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", w.Code)
	}
}
