package detect

import (
	"sort"
	"strings"
	"sync"
)

// Risk Scoring Engine — Cumulative Per-Session Threat Assessment
//
// Scores every scammer message through the 20 signal layers and
// accumulates risk per session. Matching patterns contribute weighted
// points; compound signals earn escalation bonuses; persistent tactics
// earn repeat bonuses. Once the cumulative score crosses ScamThreshold
// the session latches scam-detected and is classified into a scam type.
//
// The cumulative score is nondecreasing by construction: per-turn
// contributions are always >= 0 and nothing ever subtracts.
//
// Concurrency: profile access is serialized by a single mutex. The
// pattern layers themselves are immutable after package init.

// ScamThreshold is the cumulative score at which a session is latched
// as a confirmed scam. Deliberately low so compound first messages
// cross it in one turn.
const ScamThreshold = 40.0

// escalationBonuses rewards N distinct signal categories having fired
// for the session. The largest entry with key <= N applies.
var escalationBonuses = []struct {
	categories int
	bonus      float64
}{
	{8, 100},
	{7, 85},
	{6, 72},
	{5, 60},
	{4, 45},
	{3, 28},
	{2, 10},
}

// Profile is the per-session risk accumulation state.
type Profile struct {
	CumulativeScore  float64         `json:"cumulativeScore"`
	TurnScores       []float64       `json:"turnScores"`
	TriggeredSignals map[string]bool `json:"-"`
	SignalCounts     map[string]int  `json:"signalCounts"`
	ScamDetected     bool            `json:"scamDetected"`
	ScamType         string          `json:"scamType"`
	MessageCount     int             `json:"messageCount"`
}

// Signals returns the triggered signal names, sorted.
func (p *Profile) Signals() []string {
	out := make([]string, 0, len(p.TriggeredSignals))
	for s := range p.TriggeredSignals {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Scorer accumulates risk profiles per session.
type Scorer struct {
	mu       sync.Mutex
	profiles map[string]*Profile
}

// NewScorer creates an empty risk scorer.
func NewScorer() *Scorer {
	return &Scorer{profiles: make(map[string]*Profile)}
}

// Analyze scores one scammer message and returns the session's
// cumulative score and scam-detected latch.
//
// Pipeline:
//  1. Empty messages return current state untouched.
//  2. A pure greeting on the first message scores zero.
//  3. Every layer sums the weights of its matching patterns.
//  4. Escalation bonus for the distinct-category count.
//  5. Repeat bonus for categories firing across multiple turns.
//  6. Threshold check latches scamDetected and classifies the type.
func (s *Scorer) Analyze(text, sessionID string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profileLocked(sessionID)

	if strings.TrimSpace(text) == "" {
		return p.CumulativeScore, p.ScamDetected
	}

	p.MessageCount++

	if p.MessageCount == 1 && isPureGreeting(text) {
		p.TurnScores = append(p.TurnScores, 0)
		return 0, false
	}

	turnScore := 0.0
	turnSignals := make(map[string]bool)

	for _, layer := range allLayers {
		layerScore := 0.0
		for _, wp := range layer.patterns {
			if wp.re.MatchString(text) {
				layerScore += wp.weight
			}
		}
		if layerScore > 0 {
			turnScore += layerScore
			turnSignals[layer.name] = true
			p.SignalCounts[layer.name]++
		}
	}

	for sig := range turnSignals {
		p.TriggeredSignals[sig] = true
	}

	escalation := 0.0
	for _, eb := range escalationBonuses {
		if len(p.TriggeredSignals) >= eb.categories {
			escalation = eb.bonus
			break
		}
	}

	repeat := 0.0
	for _, count := range p.SignalCounts {
		switch {
		case count == 2:
			repeat += 6
		case count >= 3:
			repeat += 12
		}
	}

	p.TurnScores = append(p.TurnScores, turnScore)
	p.CumulativeScore += turnScore + escalation + repeat

	if p.CumulativeScore >= ScamThreshold && !p.ScamDetected {
		p.ScamDetected = true
		p.ScamType = classify(p.TriggeredSignals)
	}

	return p.CumulativeScore, p.ScamDetected
}

// Profile returns a snapshot copy of the session's risk profile.
func (s *Scorer) Profile(sessionID string) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profileLocked(sessionID)
	snap := Profile{
		CumulativeScore:  p.CumulativeScore,
		TurnScores:       append([]float64(nil), p.TurnScores...),
		TriggeredSignals: make(map[string]bool, len(p.TriggeredSignals)),
		SignalCounts:     make(map[string]int, len(p.SignalCounts)),
		ScamDetected:     p.ScamDetected,
		ScamType:         p.ScamType,
		MessageCount:     p.MessageCount,
	}
	for k := range p.TriggeredSignals {
		snap.TriggeredSignals[k] = true
	}
	for k, v := range p.SignalCounts {
		snap.SignalCounts[k] = v
	}
	return snap
}

// TriggeredSignals returns the sorted signal names that have fired.
func (s *Scorer) TriggeredSignals(sessionID string) []string {
	p := s.Profile(sessionID)
	return p.Signals()
}

// ScamType returns the classified label, "unknown" until latched.
func (s *Scorer) ScamType(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileLocked(sessionID).ScamType
}

// Reset discards all risk state for a session.
func (s *Scorer) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, sessionID)
}

func (s *Scorer) profileLocked(sessionID string) *Profile {
	p, ok := s.profiles[sessionID]
	if !ok {
		p = &Profile{
			TriggeredSignals: make(map[string]bool),
			SignalCounts:     make(map[string]int),
			ScamType:         "unknown",
		}
		s.profiles[sessionID] = p
	}
	return p
}

func isPureGreeting(text string) bool {
	stripped := strings.TrimSpace(text)
	for _, re := range greetingOnly {
		if re.MatchString(stripped) {
			return true
		}
	}
	return false
}

// classify picks the most specific scam-type label from the triggered
// signals. Priority runs from the unambiguous auxiliary layers down to
// the broad core ones; first match wins.
func classify(signals map[string]bool) string {
	switch {
	case signals["courier"]:
		return "courier"
	case signals["investment"]:
		return "investment"
	case signals["tech_support"]:
		return "tech_support"
	case signals["job_fraud"]:
		return "job_fraud"
	case signals["loan_fraud"]:
		return "loan_fraud"
	case signals["insurance_fraud"]:
		return "insurance_fraud"
	case signals["romance_scam"]:
		return "impersonation"
	case signals["upi_specific"]:
		return "upi_fraud"
	case signals["prize_lure"]:
		return "lottery"
	case signals["authority_impersonation"]:
		return "impersonation"
	case signals["otp_request"], signals["suspicious_url"]:
		return "phishing"
	case signals["account_suspension"], signals["payment_request"]:
		return "bank_fraud"
	case signals["legal_threat"]:
		return "impersonation"
	case signals["identity_theft"]:
		return "phishing"
	}
	return "unknown"
}
