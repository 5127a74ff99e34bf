package quality

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rawblock/honeypot-engine/pkg/models"
)

// Engagement Quality Threshold Tracker
//
// Tracks per-session conversation quality and holds finalization back
// until every threshold is met:
//
//	turn count              >= 8
//	questions asked         >= 5
//	investigative questions >= 3
//	red flags identified    >= 5
//	elicitation attempts    >= 5
//
// When several categories are still missing and half the turn budget
// is gone, the tracker switches to compound probing: a red-flag
// observation, an investigative question and an elicitation request
// stitched into one reply so 2-3 gaps close in a single turn.

const (
	MinTurnCount              = 8
	MinQuestionsAsked         = 5
	MinInvestigativeQuestions = 3
	MinRedFlags               = 5
	MinElicitationAttempts    = 5
)

// Metrics is the public per-session quality snapshot.
type Metrics struct {
	TurnCount              int      `json:"turnCount"`
	QuestionsAsked         int      `json:"questionsAsked"`
	InvestigativeQuestions int      `json:"investigativeQuestions"`
	RedFlags               []string `json:"redFlags"`
	ElicitationAttempts    int      `json:"elicitationAttempts"`
}

type sessionQuality struct {
	turnCount              int
	questionsAsked         int
	investigativeQuestions int
	redFlags               map[string]bool
	elicitationAttempts    int
	usedTemplates          map[string]bool
}

// Tracker is the process-wide quality accumulator.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*sessionQuality
	rng      *rand.Rand
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[string]*sessionQuality),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (t *Tracker) sessionLocked(sessionID string) *sessionQuality {
	q, ok := t.sessions[sessionID]
	if !ok {
		q = &sessionQuality{
			redFlags:      make(map[string]bool),
			usedTemplates: make(map[string]bool),
		}
		t.sessions[sessionID] = q
	}
	return q
}

// RecordTurn counts one conversation turn.
func (t *Tracker) RecordTurn(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionLocked(sessionID).turnCount++
}

// RecordQuestion counts the response when it contains a question.
func (t *Tracker) RecordQuestion(sessionID, response string) {
	if !strings.Contains(response, "?") {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionLocked(sessionID).questionsAsked++
}

// RecordInvestigative counts one investigative question.
func (t *Tracker) RecordInvestigative(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionLocked(sessionID).investigativeQuestions++
}

// RecordRedFlag notes one acknowledged scam indicator. Duplicate flag
// types collapse to a single entry.
func (t *Tracker) RecordRedFlag(sessionID, flagType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionLocked(sessionID).redFlags[flagType] = true
}

// RecordElicitation counts one intelligence-extraction attempt.
func (t *Tracker) RecordElicitation(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionLocked(sessionID).elicitationAttempts++
}

// Metrics returns the session's quality snapshot.
func (t *Tracker) Metrics(sessionID string) Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.sessionLocked(sessionID)
	flags := make([]string, 0, len(q.redFlags))
	for f := range q.redFlags {
		flags = append(flags, f)
	}
	return Metrics{
		TurnCount:              q.turnCount,
		QuestionsAsked:         q.questionsAsked,
		InvestigativeQuestions: q.investigativeQuestions,
		RedFlags:               flags,
		ElicitationAttempts:    q.elicitationAttempts,
	}
}

// ThresholdsMet reports whether every quality threshold is satisfied.
func (t *Tracker) ThresholdsMet(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.sessionLocked(sessionID)
	return q.turnCount >= MinTurnCount &&
		q.questionsAsked >= MinQuestionsAsked &&
		q.investigativeQuestions >= MinInvestigativeQuestions &&
		len(q.redFlags) >= MinRedFlags &&
		q.elicitationAttempts >= MinElicitationAttempts
}

// MissingThresholds returns the unmet thresholds and the shortfall for
// each.
func (t *Tracker) MissingThresholds(sessionID string) map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.missingLocked(t.sessionLocked(sessionID))
}

// ResetSession clears all quality state for a session.
func (t *Tracker) ResetSession(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}

// ProbingResponse generates a reply aimed at the session's missing
// thresholds, or "" when they are all met.
//
// With two or more categories still missing after half the turn
// budget, it builds a compound probe tackling several gaps at once;
// otherwise it issues a single-purpose probe in priority order:
// investigative question, red-flag observation, elicitation request.
// Elicitation templates that ask for intel classes already obtained
// are filtered out first.
func (t *Tracker) ProbingResponse(sessionID string, detectedSignals []string, stage int, intel models.ExtractedIntelligence) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.sessionLocked(sessionID)
	missing := t.missingLocked(q)
	if len(missing) == 0 {
		return ""
	}

	categoriesMissing := len(missing)
	if _, ok := missing["turns"]; ok {
		categoriesMissing--
	}
	urgency := categoriesMissing >= 2 && q.turnCount >= MinTurnCount/2

	filteredElicitation := filterTemplatesByIntel(elicitationTemplates, intel)

	if urgency {
		return t.compoundProbeLocked(q, missing, detectedSignals, stage, filteredElicitation)
	}

	if missing["investigative"] > 0 {
		resp := t.pickUnusedLocked(investigativeTemplates, q)
		q.investigativeQuestions++
		t.countQuestionLocked(q, resp)
		return resp
	}

	if missing["red_flags"] > 0 {
		if resp, ok := t.redFlagLineLocked(q, detectedSignals); ok {
			t.countQuestionLocked(q, resp)
			return resp
		}
	}

	if missing["elicitation"] > 0 && stage >= 3 {
		resp := t.pickUnusedLocked(filteredElicitation, q)
		q.elicitationAttempts++
		t.countQuestionLocked(q, resp)
		return resp
	}

	resp := t.pickUnusedLocked(investigativeTemplates, q)
	q.investigativeQuestions++
	t.countQuestionLocked(q, resp)
	return resp
}

func (t *Tracker) missingLocked(q *sessionQuality) map[string]int {
	missing := make(map[string]int)
	if q.turnCount < MinTurnCount {
		missing["turns"] = MinTurnCount - q.turnCount
	}
	if q.questionsAsked < MinQuestionsAsked {
		missing["questions"] = MinQuestionsAsked - q.questionsAsked
	}
	if q.investigativeQuestions < MinInvestigativeQuestions {
		missing["investigative"] = MinInvestigativeQuestions - q.investigativeQuestions
	}
	if len(q.redFlags) < MinRedFlags {
		missing["red_flags"] = MinRedFlags - len(q.redFlags)
	}
	if q.elicitationAttempts < MinElicitationAttempts {
		missing["elicitation"] = MinElicitationAttempts - q.elicitationAttempts
	}
	return missing
}

// compoundProbeLocked stitches a red-flag observation, an investigative
// question and an elicitation request into one reply.
func (t *Tracker) compoundProbeLocked(q *sessionQuality, missing map[string]int, detectedSignals []string, stage int, filteredElicitation []string) string {
	var parts []string

	if missing["red_flags"] > 0 {
		if line, ok := t.redFlagLineLocked(q, detectedSignals); ok {
			parts = append(parts, line)
		}
	}

	if missing["investigative"] > 0 {
		parts = append(parts, t.pickUnusedLocked(investigativeTemplates, q))
		q.investigativeQuestions++
	}

	if missing["elicitation"] > 0 && stage >= 2 {
		parts = append(parts, t.pickUnusedLocked(filteredElicitation, q))
		q.elicitationAttempts++
	}

	if len(parts) == 0 {
		resp := t.pickUnusedLocked(investigativeTemplates, q)
		q.investigativeQuestions++
		t.countQuestionLocked(q, resp)
		return resp
	}

	resp := parts[0]
	for _, extra := range parts[1:] {
		connector := compoundConnectors[t.rng.Intn(len(compoundConnectors))]
		resp += connector + lowerFirst(extra)
	}
	t.countQuestionLocked(q, resp)
	return resp
}

// redFlagLineLocked voices suspicion about a detected signal not yet
// acknowledged in this session.
func (t *Tracker) redFlagLineLocked(q *sessionQuality, detectedSignals []string) (string, bool) {
	var unreferenced []string
	for _, sig := range detectedSignals {
		key, ok := signalRedFlagKeys[sig]
		if !ok {
			key = "urgency"
		}
		if !q.redFlags[key] {
			unreferenced = append(unreferenced, key)
		}
	}
	if len(unreferenced) == 0 {
		return "", false
	}

	key := unreferenced[t.rng.Intn(len(unreferenced))]
	pool := redFlagTemplates[key]
	line := pool[t.rng.Intn(len(pool))]
	q.redFlags[key] = true
	return line, true
}

// pickUnusedLocked rotates through a pool without repetition, falling
// back to a random pick once every template has been used.
func (t *Tracker) pickUnusedLocked(pool []string, q *sessionQuality) string {
	var available []string
	for _, tmpl := range pool {
		if !q.usedTemplates[tmpl] {
			available = append(available, tmpl)
		}
	}
	if len(available) == 0 {
		return pool[t.rng.Intn(len(pool))]
	}
	pick := available[t.rng.Intn(len(available))]
	q.usedTemplates[pick] = true
	return pick
}

func (t *Tracker) countQuestionLocked(q *sessionQuality, resp string) {
	if strings.Contains(resp, "?") {
		q.questionsAsked++
	}
}

// IntelExclusionKeywords returns the ask-keywords for every intel
// class the session has already obtained.
func IntelExclusionKeywords(intel models.ExtractedIntelligence) []string {
	var exclude []string
	if len(intel.PhoneNumbers) > 0 {
		exclude = append(exclude, intelKeywords["phoneNumbers"]...)
	}
	if len(intel.UpiIDs) > 0 {
		exclude = append(exclude, intelKeywords["upiIds"]...)
	}
	if len(intel.BankAccounts) > 0 {
		exclude = append(exclude, intelKeywords["bankAccounts"]...)
	}
	if len(intel.EmailAddresses) > 0 {
		exclude = append(exclude, intelKeywords["emailAddresses"]...)
	}
	return exclude
}

// RedFlagKey maps a detector signal or tactic label to its red-flag
// template key, defaulting to "urgency".
func RedFlagKey(signal string) string {
	if key, ok := signalRedFlagKeys[signal]; ok {
		return key
	}
	return "urgency"
}

// filterTemplatesByIntel drops templates asking for intel classes the
// session already holds. Falls back to the full pool rather than
// returning nothing.
func filterTemplatesByIntel(templates []string, intel models.ExtractedIntelligence) []string {
	exclude := IntelExclusionKeywords(intel)
	if len(exclude) == 0 {
		return templates
	}

	var filtered []string
	for _, tmpl := range templates {
		lower := strings.ToLower(tmpl)
		asks := false
		for _, kw := range exclude {
			if strings.Contains(lower, kw) {
				asks = true
				break
			}
		}
		if !asks {
			filtered = append(filtered, tmpl)
		}
	}
	if len(filtered) == 0 {
		return templates
	}
	return filtered
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
