package callback

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rawblock/honeypot-engine/pkg/models"
)

func TestShouldSend_GatingTable(t *testing.T) {
	d := NewDispatcher("http://example.invalid", NewAuditor(""), nil, nil)

	cases := []struct {
		scam      bool
		turns     int
		quality   bool
		finalized bool
		want      bool
	}{
		{false, 3, false, false, false},
		{true, 7, true, false, false},   // one turn short of the scam gate
		{true, 8, false, false, false},  // quality thresholds unmet
		{true, 8, true, false, true},    // scam gate satisfied
		{false, 12, false, false, true}, // turn-budget override, no scam needed
		{true, 20, true, true, false},   // already finalized, never again
	}
	for i, tc := range cases {
		got := d.ShouldSend(tc.scam, tc.turns, tc.quality, tc.finalized)
		if got != tc.want {
			t.Errorf("case %d: ShouldSend(%v,%d,%v,%v)=%v, want %v",
				i, tc.scam, tc.turns, tc.quality, tc.finalized, got, tc.want)
		}
	}
}

func TestBuildFinalOutput_AppliesFloorsAndFallbacks(t *testing.T) {
	out := BuildFinalOutput("sess-1", true, "unknown", 137.5, 4, 12, models.NewExtractedIntelligence(), "notes")

	if out.ScamType != "bank_fraud" {
		t.Errorf("expected unknown coerced to bank_fraud, got %q", out.ScamType)
	}
	if out.TotalMessagesExchanged != 10 {
		t.Errorf("expected message floor 10, got %d", out.TotalMessagesExchanged)
	}
	if out.EngagementDuration != 190 {
		t.Errorf("expected duration floor 190, got %d", out.EngagementDuration)
	}
	if out.ConfidenceLevel != 1.0 {
		t.Errorf("expected confidence clamped to 1.0, got %v", out.ConfidenceLevel)
	}
	if out.EngagementMetrics.TotalMessagesExchanged != 10 ||
		out.EngagementMetrics.EngagementDurationSeconds != 190 {
		t.Errorf("nested metrics disagree with top-level fields: %+v", out.EngagementMetrics)
	}
}

func TestBuildFinalOutput_ConfidenceRoundedToFourPlaces(t *testing.T) {
	out := BuildFinalOutput("sess-2", true, "phishing", 33.333, 15, 400, models.NewExtractedIntelligence(), "n")

	if out.ConfidenceLevel != 0.3333 {
		t.Errorf("expected 0.3333, got %v", out.ConfidenceLevel)
	}
	if out.ScamType != "phishing" {
		t.Errorf("real scam type must pass through, got %q", out.ScamType)
	}
	if out.TotalMessagesExchanged != 15 || out.EngagementDuration != 400 {
		t.Errorf("values above floors must pass through, got %d/%d",
			out.TotalMessagesExchanged, out.EngagementDuration)
	}
}

func TestBuildFinalOutput_EmptyTypeCoerced(t *testing.T) {
	out := BuildFinalOutput("sess-3", false, "", -5, 11, 200, models.NewExtractedIntelligence(), "n")
	if out.ScamType != "bank_fraud" {
		t.Errorf("expected empty type coerced to bank_fraud, got %q", out.ScamType)
	}
	if out.ConfidenceLevel != 0 {
		t.Errorf("expected negative score clamped to 0, got %v", out.ConfidenceLevel)
	}
}

func TestDeliver_SuccessRecordsAuditAndSink(t *testing.T) {
	var mu sync.Mutex
	var received models.FinalOutput

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"received"}`)
	}))
	defer srv.Close()

	audit := NewAuditor(filepath.Join(t.TempDir(), "history.json"))
	sink := &memorySink{}
	var broadcasts []models.CallbackRecord
	d := NewDispatcher(srv.URL, audit, sink, func(rec models.CallbackRecord) {
		broadcasts = append(broadcasts, rec)
	})

	payload := BuildFinalOutput("sess-ok", true, "phishing", 92, 14, 260, models.NewExtractedIntelligence(), "notes")
	d.deliver(payload)

	mu.Lock()
	if received.SessionID != "sess-ok" {
		t.Fatalf("endpoint never received the payload: %+v", received)
	}
	mu.Unlock()

	if audit.Size() != 1 {
		t.Fatalf("expected 1 audit record, got %d", audit.Size())
	}
	rec := audit.Recent(1)[0]
	if !rec.Success || rec.Attempt != 1 || rec.ResponseStatus != 200 {
		t.Fatalf("unexpected audit record: %+v", rec)
	}
	if rec.ResponseText != `{"status":"received"}` {
		t.Fatalf("response text not captured: %q", rec.ResponseText)
	}

	if len(sink.reports) != 1 || len(sink.attempts) != 1 {
		t.Fatalf("sink not invoked: %d reports, %d attempts", len(sink.reports), len(sink.attempts))
	}
	if len(broadcasts) != 1 {
		t.Fatalf("broadcast hook not invoked")
	}
}

func TestDeliver_RetriesUntilSuccess(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	audit := NewAuditor("")
	d := NewDispatcher(srv.URL, audit, nil, nil)

	start := time.Now()
	d.deliver(BuildFinalOutput("sess-retry", true, "phishing", 50, 12, 250, models.NewExtractedIntelligence(), "n"))

	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if elapsed := time.Since(start); elapsed < backoffDelays[0] {
		t.Fatalf("no backoff between attempts, elapsed %v", elapsed)
	}
	if audit.Size() != 2 {
		t.Fatalf("expected 2 audit records, got %d", audit.Size())
	}
	recs := audit.Recent(2)
	if !recs[0].Success || recs[1].Success {
		t.Fatalf("expected failure then success, got %+v", recs)
	}
}

func TestAuditor_CapsAtMaxRecords(t *testing.T) {
	a := NewAuditor("")

	for i := 0; i < maxAuditRecords+25; i++ {
		a.Append(models.CallbackRecord{ID: fmt.Sprintf("rec-%d", i), SessionID: "s"})
	}

	if a.Size() != maxAuditRecords {
		t.Fatalf("expected cap at %d, got %d", maxAuditRecords, a.Size())
	}
	if got := a.Recent(1)[0].ID; got != fmt.Sprintf("rec-%d", maxAuditRecords+24) {
		t.Fatalf("newest record lost: %s", got)
	}
}

func TestAuditor_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	a := NewAuditor(path)
	a.Append(models.CallbackRecord{ID: "one", SessionID: "s1", Success: true})
	a.Append(models.CallbackRecord{ID: "two", SessionID: "s2"})

	reloaded := NewAuditor(path)
	if reloaded.Size() != 2 {
		t.Fatalf("expected 2 records after reload, got %d", reloaded.Size())
	}
	if got := reloaded.Recent(1)[0].ID; got != "two" {
		t.Fatalf("expected most recent first, got %s", got)
	}
}

// memorySink collects persisted reports for assertions.
type memorySink struct {
	mu       sync.Mutex
	reports  []models.FinalOutput
	attempts []models.CallbackRecord
}

func (m *memorySink) SaveFinalReport(out models.FinalOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, out)
	return nil
}

func (m *memorySink) SaveCallbackAttempt(rec models.CallbackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, rec)
	return nil
}
