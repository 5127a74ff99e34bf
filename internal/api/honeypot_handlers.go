package api

import (
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/honeypot-engine/internal/callback"
	"github.com/rawblock/honeypot-engine/internal/detect"
	"github.com/rawblock/honeypot-engine/internal/intel"
	"github.com/rawblock/honeypot-engine/pkg/models"
)

// POST /honeypot pipeline.
//
// Per turn: store the message, score it, extract intelligence, pick a
// persona reply, then check callback gating. The endpoint follows an
// always-200 policy past authentication: internal failures degrade to
// a generic in-character reply and never leak state to the caller.

const (
	serviceName    = "agentic-honeypot"
	serviceVersion = "2.1.0"

	// Replies for degraded paths. Both stay in persona.
	benignReply   = "Sorry, I didn't catch that. Could you please repeat?"
	fallbackReply = "Sorry, could you explain that again?"

	handlerDeadline = 1800 * time.Millisecond
	jitterFloor     = 400 * time.Millisecond
	jitterSpan      = 600 * time.Millisecond
	minJitter       = 20 * time.Millisecond
)

func (h *APIHandler) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (h *APIHandler) handleHoneypot(c *gin.Context) {
	start := time.Now()

	var req models.HoneypotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"detail": []gin.H{{
				"loc":  []string{"body"},
				"msg":  err.Error(),
				"type": "value_error.jsondecode",
			}},
		})
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Honeypot] Recovered pipeline panic: %v", r)
			if !c.Writer.Written() {
				h.respond(c, start, fallbackReply)
			}
		}
	}()

	sessionID := strings.TrimSpace(req.SessionID)
	text := strings.TrimSpace(req.Message.Text)

	if sessionID == "" || text == "" {
		if sessionID != "" {
			h.sessions.Ensure(sessionID)
		}
		h.respond(c, start, benignReply)
		return
	}

	fresh := !h.sessions.Has(sessionID)
	h.sessions.Ensure(sessionID)
	h.replayHistory(sessionID, req.ConversationHistory, fresh)

	h.sessions.AddMessage(sessionID, "scammer", text)

	alreadyConfirmed := h.sessions.IsScamConfirmed(sessionID)
	score, isScam := h.scorer.Analyze(text, sessionID)
	if isScam {
		h.sessions.MarkScamConfirmed(sessionID)
		if !alreadyConfirmed && h.wsHub != nil {
			h.wsHub.BroadcastEvent("scam_detected", gin.H{
				"sessionId": sessionID,
				"score":     score,
				"scamType":  h.scorer.ScamType(sessionID),
			})
		}
	}
	scamConfirmed := h.sessions.IsScamConfirmed(sessionID)

	intelSnap := h.extractor.Extract(text, sessionID)
	h.controller.SetExtractedIntel(sessionID, intelSnap)

	for _, hit := range h.watchlist.RecordIntel(sessionID,
		intelSnap.PhoneNumbers, intelSnap.UpiIDs, intelSnap.BankAccounts) {
		log.Printf("[Watchlist] Repeat offender %s (%s) seen in %d sessions",
			hit.Value, hit.Category, hit.Sessions)
		if h.wsHub != nil {
			h.wsHub.BroadcastEvent("watchlist_hit", hit)
		}
	}

	profile := h.scorer.Profile(sessionID)
	signals := profile.Signals()
	turnCount := h.sessions.TurnCount(sessionID)

	reply := h.controller.GetReply(sessionID, text, turnCount, score,
		scamConfirmed, profile.ScamType, signals)
	if reply == "" {
		reply = fallbackReply
	}
	h.sessions.AddMessage(sessionID, "agent", reply)

	h.maybeFinalize(sessionID, scamConfirmed, turnCount, profile, intelSnap, signals)

	h.respond(c, start, reply)
}

// replayHistory feeds caller-supplied prior turns through extraction,
// and through scoring only when the session is fresh to this process
// (a restart must not double-score turns it already saw).
func (h *APIHandler) replayHistory(sessionID string, history []models.Message, fresh bool) {
	for _, m := range history {
		if m.Sender != "" && m.Sender != "scammer" {
			continue
		}
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		h.extractor.Extract(text, sessionID)
		if fresh {
			if _, isScam := h.scorer.Analyze(text, sessionID); isScam {
				h.sessions.MarkScamConfirmed(sessionID)
			}
		}
	}
}

// maybeFinalize runs the callback gate and, for exactly one winning
// turn per session, hands the final report to the dispatcher.
func (h *APIHandler) maybeFinalize(sessionID string, scamConfirmed bool, turnCount int, profile detect.Profile, intelSnap models.ExtractedIntelligence, signals []string) {
	qualityMet := h.tracker.ThresholdsMet(sessionID)
	if !h.dispatcher.ShouldSend(scamConfirmed, turnCount, qualityMet, h.sessions.IsFinalized(sessionID)) {
		return
	}
	if !h.sessions.MarkFinalized(sessionID) {
		return
	}

	totalMsgs := h.sessions.TotalMessagesExchanged(sessionID)
	duration := h.sessions.EngagementDuration(sessionID)
	notes := h.controller.GenerateAgentNotes(sessionID, signals, profile.ScamType,
		intelSnap, totalMsgs, duration)

	payload := callback.BuildFinalOutput(sessionID, scamConfirmed, profile.ScamType,
		profile.CumulativeScore, totalMsgs, duration, intelSnap, notes)

	log.Printf("[Honeypot] Finalizing session %s (turns=%d, type=%s, confidence=%.4f)",
		sessionID, turnCount, payload.ScamType, payload.ConfidenceLevel)
	h.dispatcher.SendAsync(payload)
}

// respond applies the human-typing jitter window, then writes the only
// response shape the endpoint ever returns.
func (h *APIHandler) respond(c *gin.Context, start time.Time, reply string) {
	target := jitterFloor + time.Duration(rand.Int63n(int64(jitterSpan)))
	elapsed := time.Since(start)

	remaining := target - elapsed
	if budget := handlerDeadline - elapsed; remaining > budget {
		remaining = budget
	}
	if remaining > minJitter {
		select {
		case <-time.After(remaining):
		case <-c.Request.Context().Done():
		}
	}

	c.JSON(http.StatusOK, models.HoneypotResponse{Status: "success", Reply: reply})
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"activeSessions":  h.sessions.Count(),
		"callbackRecords": h.audit.Size(),
		"dbConnected":     h.dbStore != nil,
	})
}

func (h *APIHandler) handleGetSession(c *gin.Context) {
	id := c.Param("id")
	if !h.sessions.Has(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}

	profile := h.scorer.Profile(id)
	c.JSON(http.StatusOK, gin.H{
		"sessionId":       id,
		"turnCount":       h.sessions.TurnCount(id),
		"messageCount":    h.sessions.MessageCount(id, ""),
		"stage":           h.controller.GetStage(id),
		"cumulativeScore": profile.CumulativeScore,
		"scamDetected":    h.sessions.IsScamConfirmed(id),
		"scamType":        profile.ScamType,
		"signals":         profile.Signals(),
		"quality":         h.tracker.Metrics(id),
		"intelligence":    h.extractor.Intelligence(id),
		"finalized":       h.sessions.IsFinalized(id),
	})
}

func (h *APIHandler) handleWatchlist(c *gin.Context) {
	offenders := h.watchlist.RepeatOffenders()
	if offenders == nil {
		offenders = []intel.WatchedIdentifier{}
	}
	c.JSON(http.StatusOK, gin.H{
		"tracked":         h.watchlist.Size(),
		"repeatOffenders": offenders,
	})
}

func (h *APIHandler) handleRecentCallbacks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"records": h.audit.Recent(50)})
}

func (h *APIHandler) handleRecentReports(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not configured"})
		return
	}
	reports, err := h.dbStore.RecentReports(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
