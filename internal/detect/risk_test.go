package detect

import "testing"

func TestAnalyze_PureGreetingFirstMessageScoresZero(t *testing.T) {
	s := NewScorer()

	score, isScam := s.Analyze("Hello", "sess-greet")
	if score != 0 {
		t.Fatalf("expected score=0 for pure greeting, got %.1f", score)
	}
	if isScam {
		t.Fatalf("expected scamDetected=false for pure greeting")
	}
}

func TestAnalyze_GreetingOnlySuppressedOnFirstTurn(t *testing.T) {
	s := NewScorer()

	// Turn 1 greeting scores zero, but the same text later still goes
	// through the layers (and scores zero anyway, being harmless).
	s.Analyze("hi", "sess-g2")
	score, _ := s.Analyze("Share your OTP right now, account will be suspended", "sess-g2")
	if score <= 0 {
		t.Fatalf("expected positive score on turn 2, got %.1f", score)
	}
}

func TestAnalyze_CompoundOtpPhishCrossesThresholdInOneTurn(t *testing.T) {
	s := NewScorer()
	msg := "URGENT: share the 6 digit OTP to unblock your account within 2 hours or it will be suspended."

	score, isScam := s.Analyze(msg, "sess-otp")
	if score < ScamThreshold {
		t.Fatalf("expected score >= %.0f, got %.1f", ScamThreshold, score)
	}
	if !isScam {
		t.Fatalf("expected scamDetected=true")
	}

	p := s.Profile("sess-otp")
	for _, want := range []string{"urgency", "otp_request", "account_suspension"} {
		if !p.TriggeredSignals[want] {
			t.Errorf("expected signal %q to fire, got %v", want, p.Signals())
		}
	}
	if p.ScamType != "phishing" {
		t.Errorf("expected scamType phishing, got %q", p.ScamType)
	}
}

func TestAnalyze_GreetingThenEscalation(t *testing.T) {
	s := NewScorer()

	score, isScam := s.Analyze("Hello", "sess-esc")
	if score != 0 || isScam {
		t.Fatalf("turn 1: expected (0,false), got (%.1f,%v)", score, isScam)
	}

	score, isScam = s.Analyze("This is CBI inspector. Transfer ₹50000 immediately or arrest warrant will be issued.", "sess-esc")
	if score < ScamThreshold {
		t.Fatalf("turn 2: expected score >= %.0f, got %.1f", ScamThreshold, score)
	}
	if !isScam {
		t.Fatalf("turn 2: expected scamDetected=true")
	}

	p := s.Profile("sess-esc")
	for _, want := range []string{"authority_impersonation", "legal_threat", "payment_request", "urgency"} {
		if !p.TriggeredSignals[want] {
			t.Errorf("expected signal %q, got %v", want, p.Signals())
		}
	}
}

func TestAnalyze_CumulativeScoreIsMonotonic(t *testing.T) {
	s := NewScorer()
	msgs := []string{
		"Hello",
		"Your account will be suspended today",
		"ok",
		"Share the OTP immediately",
		"thanks",
		"Pay the processing fee via UPI now",
	}

	prev := 0.0
	for i, m := range msgs {
		score, _ := s.Analyze(m, "sess-mono")
		if score < prev {
			t.Fatalf("turn %d: score decreased from %.1f to %.1f", i+1, prev, score)
		}
		prev = score
	}
}

func TestAnalyze_ScamLatchNeverRollsBack(t *testing.T) {
	s := NewScorer()

	_, isScam := s.Analyze("URGENT: share the 6 digit OTP or your account will be suspended. This is SBI bank security.", "sess-latch")
	if !isScam {
		t.Fatalf("expected latch after compound message")
	}

	// Harmless followups keep the latch set.
	for _, m := range []string{"ok", "thank you", "good day"} {
		if _, still := s.Analyze(m, "sess-latch"); !still {
			t.Fatalf("latch rolled back after %q", m)
		}
	}
}

func TestAnalyze_RepeatBonusRewardsPersistentTactic(t *testing.T) {
	s := NewScorer()

	s.Analyze("send the otp please", "sess-repeat")
	p1 := s.Profile("sess-repeat")
	s.Analyze("I need that otp now", "sess-repeat")
	p2 := s.Profile("sess-repeat")

	gain := p2.CumulativeScore - p1.CumulativeScore
	if gain <= p2.TurnScores[1] {
		t.Fatalf("expected second otp turn to add a repeat bonus, gain=%.1f raw=%.1f", gain, p2.TurnScores[1])
	}
}

func TestAnalyze_AuxiliaryVerbWillNeverFiresRomanceLayer(t *testing.T) {
	s := NewScorer()

	// "will" as a plain auxiliary verb must not register the romance
	// layer; only testament/inheritance phrasing does. A mislabelled
	// romance signal would outrank otp_request in classification.
	s.Analyze("your account will be closed and your card will be blocked, share otp", "sess-will")
	p := s.Profile("sess-will")
	if p.TriggeredSignals["romance_scam"] {
		t.Fatalf("bare auxiliary verb fired romance_scam, got %v", p.Signals())
	}

	s.Analyze("you are the beneficiary of an inheritance worth million dollars", "sess-will2")
	p = s.Profile("sess-will2")
	if !p.TriggeredSignals["romance_scam"] {
		t.Fatalf("inheritance phrasing should fire romance_scam, got %v", p.Signals())
	}
}

func TestClassify_CourierOutranksBroadCoreSignals(t *testing.T) {
	s := NewScorer()
	msg := "FedEx customs seized your parcel with drugs. Pay the fine immediately or police case will be filed against you."

	_, isScam := s.Analyze(msg, "sess-courier")
	if !isScam {
		t.Fatalf("expected scam latch for courier threat message")
	}
	if got := s.ScamType("sess-courier"); got != "courier" {
		t.Fatalf("expected scamType=courier, got %q", got)
	}
}

func TestAnalyze_EmptyMessageIsNoOp(t *testing.T) {
	s := NewScorer()
	s.Analyze("your account is suspended, share otp", "sess-empty")
	before := s.Profile("sess-empty")

	score, _ := s.Analyze("   ", "sess-empty")
	after := s.Profile("sess-empty")

	if score != before.CumulativeScore || after.MessageCount != before.MessageCount {
		t.Fatalf("blank input mutated state: %.1f→%.1f msgs %d→%d",
			before.CumulativeScore, score, before.MessageCount, after.MessageCount)
	}
}
