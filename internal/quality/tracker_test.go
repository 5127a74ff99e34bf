package quality

import (
	"strings"
	"testing"

	"github.com/rawblock/honeypot-engine/pkg/models"
)

func meetAllThresholds(t *Tracker, sessionID string) {
	for i := 0; i < MinTurnCount; i++ {
		t.RecordTurn(sessionID)
	}
	for i := 0; i < MinQuestionsAsked; i++ {
		t.RecordQuestion(sessionID, "what is your employee id?")
	}
	for i := 0; i < MinInvestigativeQuestions; i++ {
		t.RecordInvestigative(sessionID)
	}
	for _, f := range []string{"urgency", "otp_request", "payment_request", "suspension", "legal_threat"} {
		t.RecordRedFlag(sessionID, f)
	}
	for i := 0; i < MinElicitationAttempts; i++ {
		t.RecordElicitation(sessionID)
	}
}

func TestTracker_ThresholdsStartUnmet(t *testing.T) {
	tr := NewTracker()

	if tr.ThresholdsMet("fresh") {
		t.Fatalf("fresh session reports thresholds met")
	}
	missing := tr.MissingThresholds("fresh")
	want := map[string]int{
		"turns":         MinTurnCount,
		"questions":     MinQuestionsAsked,
		"investigative": MinInvestigativeQuestions,
		"red_flags":     MinRedFlags,
		"elicitation":   MinElicitationAttempts,
	}
	for k, v := range want {
		if missing[k] != v {
			t.Errorf("missing[%s]=%d, want %d", k, missing[k], v)
		}
	}
}

func TestTracker_ThresholdsMetAfterRecording(t *testing.T) {
	tr := NewTracker()
	meetAllThresholds(tr, "done")

	if !tr.ThresholdsMet("done") {
		t.Fatalf("thresholds not met after recording, missing=%v", tr.MissingThresholds("done"))
	}
	if got := tr.ProbingResponse("done", nil, 3, models.NewExtractedIntelligence()); got != "" {
		t.Fatalf("probe emitted after thresholds met: %q", got)
	}
}

func TestTracker_RecordQuestionIgnoresStatements(t *testing.T) {
	tr := NewTracker()

	tr.RecordQuestion("s", "I will check with my son first.")
	tr.RecordQuestion("s", "Which branch are you calling from?")

	if got := tr.Metrics("s").QuestionsAsked; got != 1 {
		t.Fatalf("expected 1 question, got %d", got)
	}
}

func TestTracker_RedFlagTypesCollapse(t *testing.T) {
	tr := NewTracker()

	tr.RecordRedFlag("s", "urgency")
	tr.RecordRedFlag("s", "urgency")
	tr.RecordRedFlag("s", "otp_request")

	if got := len(tr.Metrics("s").RedFlags); got != 2 {
		t.Fatalf("expected 2 distinct red flags, got %d", got)
	}
}

func TestProbingResponse_SingleProbeCountsInvestigative(t *testing.T) {
	tr := NewTracker()
	// One turn recorded: half the turn budget is not spent yet, so the
	// probe is single-purpose and lands on the investigative branch.
	tr.RecordTurn("s1")

	resp := tr.ProbingResponse("s1", []string{"urgency"}, 1, models.NewExtractedIntelligence())
	if resp == "" {
		t.Fatalf("expected a probe for an unmet session")
	}

	m := tr.Metrics("s1")
	if m.InvestigativeQuestions != 1 {
		t.Fatalf("expected 1 investigative question, got %d", m.InvestigativeQuestions)
	}
	if strings.Contains(resp, "?") && m.QuestionsAsked != 1 {
		t.Fatalf("question-shaped probe not counted, metrics=%+v", m)
	}
}

func TestProbingResponse_CompoundAfterHalfTurnBudget(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < MinTurnCount/2; i++ {
		tr.RecordTurn("s2")
	}

	resp := tr.ProbingResponse("s2", []string{"otp_request", "urgency"}, 3, models.NewExtractedIntelligence())
	if resp == "" {
		t.Fatalf("expected a compound probe")
	}

	joined := false
	for _, c := range compoundConnectors {
		if strings.Contains(resp, c) {
			joined = true
			break
		}
	}
	if !joined {
		t.Fatalf("compound probe has no connector: %q", resp)
	}

	m := tr.Metrics("s2")
	if m.InvestigativeQuestions != 1 || m.ElicitationAttempts != 1 {
		t.Fatalf("compound probe should close several gaps at once, metrics=%+v", m)
	}
	if len(m.RedFlags) != 1 {
		t.Fatalf("compound probe should acknowledge one red flag, got %v", m.RedFlags)
	}
}

func TestProbingResponse_ElicitationSkipsObtainedIntelClasses(t *testing.T) {
	tr := NewTracker()
	// Leave only elicitation (and turns) unmet so the probe must come
	// from the elicitation pool.
	tr.RecordTurn("s3")
	for i := 0; i < MinQuestionsAsked; i++ {
		tr.RecordQuestion("s3", "is that so?")
	}
	for i := 0; i < MinInvestigativeQuestions; i++ {
		tr.RecordInvestigative("s3")
	}
	for _, f := range []string{"urgency", "otp_request", "payment_request", "suspension", "legal_threat"} {
		tr.RecordRedFlag("s3", f)
	}

	intel := models.NewExtractedIntelligence()
	intel.UpiIDs = []string{"fraud@paytm"}

	for i := 0; i < 10; i++ {
		resp := tr.ProbingResponse("s3", nil, 3, intel)
		if resp == "" {
			break
		}
		if strings.Contains(strings.ToLower(resp), "upi") {
			t.Fatalf("probe asked for an already-obtained class: %q", resp)
		}
	}
}

func TestProbingResponse_RotatesTemplatesWithoutRepetition(t *testing.T) {
	tr := NewTracker()
	tr.RecordTurn("s4")

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		resp := tr.ProbingResponse("s4", nil, 1, models.NewExtractedIntelligence())
		if resp == "" {
			t.Fatalf("probe dried up on iteration %d", i)
		}
		if seen[resp] {
			t.Fatalf("template repeated while pool not exhausted: %q", resp)
		}
		seen[resp] = true
	}
}

func TestIntelExclusionKeywords_EmptyIntelExcludesNothing(t *testing.T) {
	if got := IntelExclusionKeywords(models.NewExtractedIntelligence()); len(got) != 0 {
		t.Fatalf("expected no exclusions for empty intel, got %v", got)
	}
}

func TestRedFlagKey_DefaultsToUrgency(t *testing.T) {
	if got := RedFlagKey("account_suspension"); got != "suspension" {
		t.Fatalf("expected suspension, got %q", got)
	}
	if got := RedFlagKey("never_heard_of_this"); got != "urgency" {
		t.Fatalf("expected urgency default, got %q", got)
	}
}

func TestTracker_ResetSessionClearsState(t *testing.T) {
	tr := NewTracker()
	meetAllThresholds(tr, "gone")
	tr.ResetSession("gone")

	if tr.ThresholdsMet("gone") {
		t.Fatalf("state survived reset")
	}
}
