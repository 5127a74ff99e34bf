package engage

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rawblock/honeypot-engine/internal/quality"
	"github.com/rawblock/honeypot-engine/pkg/models"
)

// Adaptive Engagement Controller
//
// Five-stage persona conversation controller. Goals:
//
//  1. Maximise turn count.
//  2. Proactively extract intelligence from the scammer.
//  3. Sound human and non-repetitive.
//  4. Never reveal detection status or use accusatory language.
//
// Stages:
//
//	1  confused but curious       (low risk, early messages)
//	2  verifying authenticity     (moderate risk, asking for proof)
//	3  concerned and cautious     (higher risk, expressing worry)
//	4  cooperative but probing    (scam latched, playing along)
//	5  extraction-focused         (max intel gathering)

type sessionContext struct {
	stage        int
	history      []string
	tactics      map[string]bool
	used         map[string]bool
	lastTheme    string
	lastTactic   string
	tacticStreak int
	intel        models.ExtractedIntelligence
}

// Controller generates victim-persona replies per session.
type Controller struct {
	mu      sync.Mutex
	ctxs    map[string]*sessionContext
	quality *quality.Tracker
	intents *IntentModel
	rng     *rand.Rand
}

// NewController wires the controller to the shared quality tracker.
func NewController(tracker *quality.Tracker) *Controller {
	return &Controller{
		ctxs:    make(map[string]*sessionContext),
		quality: tracker,
		intents: NewIntentModel(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Controller) ctxLocked(sessionID string) *sessionContext {
	ctx, ok := c.ctxs[sessionID]
	if !ok {
		ctx = &sessionContext{
			stage:   1,
			tactics: make(map[string]bool),
			used:    make(map[string]bool),
			intel:   models.NewExtractedIntelligence(),
		}
		c.ctxs[sessionID] = ctx
	}
	return ctx
}

// GetStage returns the session's current engagement stage.
func (c *Controller) GetStage(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctxLocked(sessionID).stage
}

// SetExtractedIntel hands the latest extraction snapshot to the
// controller so replies stop asking for identifiers it already holds.
func (c *Controller) SetExtractedIntel(sessionID string, intel models.ExtractedIntelligence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctxLocked(sessionID).intel = intel
}

// Reset discards all engagement state for a session.
func (c *Controller) Reset(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ctxs, sessionID)
}

// GetReply produces the next persona reply for a scammer message.
//
// Order of play: tactic detection, stage update, quality-forced
// probing, pool selection, anti-repetition and theme filtering,
// emit-time hardening, quality accounting.
func (c *Controller) GetReply(sessionID, message string, msgCount int, riskScore float64, isScam bool, scamType string, detectedSignals []string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := c.ctxLocked(sessionID)

	tactics := detectTactics(message)
	c.intents.Augment(message, tactics)
	for t := range tactics {
		ctx.tactics[t] = true
	}

	if pt := primaryTactic(tactics); pt != "" && pt == ctx.lastTactic {
		ctx.tacticStreak++
	} else if pt != "" {
		ctx.lastTactic = pt
		ctx.tacticStreak = 1
	} else {
		ctx.tacticStreak = 0
	}

	stage := computeStage(riskScore, msgCount, isScam)
	ctx.stage = stage

	c.quality.RecordTurn(sessionID)

	if reply, ok := c.forcedProbeLocked(ctx, sessionID, detectedSignals, stage, msgCount, isScam); ok {
		return reply
	}

	pool := c.selectPoolLocked(tactics, stage, msgCount)

	// Keep the conversation alive while the turn count is still low.
	if isScam && msgCount < 10 && stage >= 3 && msgCount < 8 && c.rng.Float64() < 0.4 {
		pool = continuationPool
	}

	if ctx.tacticStreak >= 3 {
		blended := append(append([]string{}, pool...), stallingPool...)
		blended = append(blended, techConfusionPool...)
		if stage >= 3 {
			blended = append(blended, continuationPool...)
		}
		pool = blended
	}

	pool = filterRedundantAsks(pool, ctx.intel)

	reply := c.pickLocked(pool, ctx)
	reply = c.postProcessLocked(reply, isScam, msgCount)

	c.recordQualityLocked(ctx, sessionID, reply, stage, detectedSignals)

	ctx.history = append(ctx.history, reply)
	ctx.lastTheme = themeOf(reply)
	return reply
}

// computeStage maps score and turn count onto the 1..5 persona stage.
func computeStage(riskScore float64, msgCount int, isScam bool) int {
	if !isScam && riskScore < 30 {
		if msgCount <= 3 {
			return 1
		}
		return 2
	}
	if riskScore < 50 {
		return 2
	}
	if riskScore < 80 {
		if msgCount <= 5 {
			return 3
		}
		return 4
	}
	if msgCount >= 6 {
		return 5
	}
	return 4
}

// forcedProbeLocked asks the quality tracker for a threshold-closing
// reply when the scam is latched and thresholds are still short.
func (c *Controller) forcedProbeLocked(ctx *sessionContext, sessionID string, detectedSignals []string, stage, msgCount int, isScam bool) (string, bool) {
	if !isScam {
		return "", false
	}

	missing := c.quality.MissingThresholds(sessionID)
	categories := len(missing)
	if _, ok := missing["turns"]; ok {
		categories--
	}
	metrics := c.quality.Metrics(sessionID)
	if msgCount < 3 && !(categories >= 2 && metrics.TurnCount >= quality.MinTurnCount/2) {
		return "", false
	}

	probe := c.quality.ProbingResponse(sessionID, detectedSignals, stage, ctx.intel)
	if probe == "" {
		return "", false
	}

	reply := c.postProcessLocked(probe, isScam, msgCount)
	c.recordRedFlagsLocked(ctx, sessionID, detectedSignals)
	ctx.history = append(ctx.history, reply)
	ctx.lastTheme = themeOf(reply)
	return reply, true
}

// selectPoolLocked picks the response pool: intent overrides first,
// then the stage pools with their stalling/continuation mixes.
func (c *Controller) selectPoolLocked(tactics map[string]bool, stage, msgCount int) []string {
	switch {
	case tactics["otp_request"]:
		return otpPool
	case tactics["account_request"]:
		return accountPool
	case tactics["credential"]:
		return techConfusionPool
	case tactics["courier"]:
		return courierPool
	case tactics["tech_support"]:
		return techSupportPool
	case tactics["job_fraud"]:
		return jobPool
	case tactics["investment"]:
		return investmentPool
	case tactics["identity_theft"]:
		return identityPool
	case tactics["threat"], tactics["digital_arrest"]:
		return threatPool
	case tactics["payment_lure"]:
		return paymentLurePool
	case tactics["verification"], tactics["urgency"]:
		if msgCount <= 2 {
			return accountCompromisePool
		}
		if c.rng.Float64() < 0.6 {
			return stage3Pool
		}
		return accountCompromisePool
	case tactics["payment_request"]:
		if stage >= 4 {
			return stage5Pool
		}
		if stage >= 3 {
			return stage4Pool
		}
		return stage3Pool
	}

	switch stage {
	case 1:
		return stage1Pool
	case 2:
		return stage2Pool
	case 3:
		return stage3Pool
	case 4:
		if c.rng.Float64() < 0.25 {
			return stallingPool
		}
		return stage4Pool
	default:
		if c.rng.Float64() < 0.2 {
			return continuationPool
		}
		return stage5Pool
	}
}

// filterRedundantAsks drops pool items asking for intel classes
// already obtained, keeping at least three candidates.
func filterRedundantAsks(pool []string, intel models.ExtractedIntelligence) []string {
	exclude := quality.IntelExclusionKeywords(intel)
	if len(exclude) == 0 {
		return pool
	}

	var filtered []string
	for _, item := range pool {
		lower := strings.ToLower(item)
		asks := false
		for _, kw := range exclude {
			if strings.Contains(lower, kw) {
				asks = true
				break
			}
		}
		if !asks {
			filtered = append(filtered, item)
		}
	}
	if len(filtered) < 3 {
		return pool
	}
	return filtered
}

// pickLocked applies anti-repetition and theme diversity, then picks
// uniformly from what is left.
func (c *Controller) pickLocked(pool []string, ctx *sessionContext) string {
	available := make([]string, 0, len(pool))
	for _, item := range pool {
		if !ctx.used[item] {
			available = append(available, item)
		}
	}
	if len(available) == 0 {
		available = pool
	}

	if ctx.lastTheme != "" && ctx.lastTheme != "general" {
		diverse := make([]string, 0, len(available))
		for _, item := range available {
			if themeOf(item) != ctx.lastTheme {
				diverse = append(diverse, item)
			}
		}
		if len(diverse) >= 3 {
			available = diverse
		}
	}

	choice := available[c.rng.Intn(len(available))]
	ctx.used[choice] = true
	return choice
}

// postProcessLocked appends a suspicion line and an identifier ask
// when the chosen reply carries neither.
func (c *Controller) postProcessLocked(reply string, isScam bool, msgCount int) string {
	if isScam && !containsAny(reply, redFlagLexicon) {
		connector := replyConnectors[c.rng.Intn(len(replyConnectors))]
		reply += connector + lowerFirst(redFlagAppends[c.rng.Intn(len(redFlagAppends))])
	}
	if msgCount >= 2 && !containsAny(reply, elicitationLexicon) {
		connector := replyConnectors[c.rng.Intn(len(replyConnectors))]
		reply += connector + lowerFirst(elicitationAppends[c.rng.Intn(len(elicitationAppends))])
	}
	return reply
}

func (c *Controller) recordQualityLocked(ctx *sessionContext, sessionID, reply string, stage int, detectedSignals []string) {
	c.quality.RecordQuestion(sessionID, reply)
	if containsAny(reply, investigativeLexicon) {
		c.quality.RecordInvestigative(sessionID)
	}
	if containsAny(reply, elicitationLexicon) || (stage >= 4 && strings.Contains(reply, "?")) {
		c.quality.RecordElicitation(sessionID)
	}
	c.recordRedFlagsLocked(ctx, sessionID, detectedSignals)
}

func (c *Controller) recordRedFlagsLocked(ctx *sessionContext, sessionID string, detectedSignals []string) {
	for _, sig := range detectedSignals {
		c.quality.RecordRedFlag(sessionID, quality.RedFlagKey(sig))
	}
	for t := range ctx.tactics {
		c.quality.RecordRedFlag(sessionID, quality.RedFlagKey(t))
	}
}

// GenerateAgentNotes builds the pipe-delimited behavioural summary for
// the final report. Never empty.
func (c *Controller) GenerateAgentNotes(sessionID string, signals []string, scamType string, intel models.ExtractedIntelligence, totalMsgs, durationSeconds int) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := c.ctxLocked(sessionID)
	var parts []string

	parts = append(parts, "Classification: "+titleLabel(scamType))

	if len(signals) > 0 {
		labels := make([]string, 0, len(signals))
		for _, s := range signals {
			labels = append(labels, strings.ReplaceAll(s, "_", " "))
		}
		sort.Strings(labels)
		parts = append(parts, "Detected signals: "+strings.Join(labels, ", "))
	}

	parts = append(parts, fmt.Sprintf("Messages exchanged: %d", totalMsgs))
	parts = append(parts, fmt.Sprintf("Engagement duration: %ds", durationSeconds))

	var intelItems []string
	for _, class := range []struct {
		label string
		items []string
	}{
		{"phoneNumbers", intel.PhoneNumbers},
		{"bankAccounts", intel.BankAccounts},
		{"upiIds", intel.UpiIDs},
		{"URLs", intel.PhishingLinks},
		{"Emails", intel.EmailAddresses},
	} {
		if len(class.items) > 0 {
			intelItems = append(intelItems, fmt.Sprintf("%d %s", len(class.items), class.label))
		}
	}
	if len(intelItems) > 0 {
		parts = append(parts, "Extracted intelligence: "+strings.Join(intelItems, ", "))
	} else {
		parts = append(parts, "No actionable intelligence extracted; scammer did not share concrete identifiers.")
	}

	if fakeIDs := len(intel.CaseIDs) + len(intel.PolicyNumbers) + len(intel.OrderNumbers); fakeIDs > 0 {
		parts = append(parts, fmt.Sprintf("Fake reference IDs quoted: %d", fakeIDs))
	}

	if len(ctx.tactics) > 0 {
		tacticList := make([]string, 0, len(ctx.tactics))
		for t := range ctx.tactics {
			tacticList = append(tacticList, t)
		}
		sort.Strings(tacticList)
		parts = append(parts, "Scammer tactics observed: "+strings.Join(tacticList, ", "))
	}

	parts = append(parts, fmt.Sprintf("Agent engagement reached stage %d/5", ctx.stage))

	return strings.Join(parts, " | ")
}

func titleLabel(label string) string {
	words := strings.Split(strings.ReplaceAll(label, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
