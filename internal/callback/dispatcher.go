package callback

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rawblock/honeypot-engine/pkg/models"
)

// Final-Report Callback Dispatcher
//
// Posts the terminal session report to the configured evaluation
// endpoint exactly once per session. The session store latches
// finalSubmitted before SendAsync is invoked, so a permanent delivery
// failure never re-arms dispatch; it only shows up in the audit log.
//
// Delivery: up to 3 attempts, 15 s timeout each, exponential backoff
// 1 s / 2 s / 4 s between attempts. Success is any HTTP 2xx.

const (
	maxAttempts        = 3
	attemptTimeout     = 15 * time.Second
	responseTextLimit  = 500
	minTurnsOverride   = 12
	minTurnsWithScam   = 8
	minTotalMessages   = 10
	minDurationSeconds = 190
)

var backoffDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// ReportSink persists delivered reports. Optional; a nil sink skips
// persistence.
type ReportSink interface {
	SaveFinalReport(models.FinalOutput) error
	SaveCallbackAttempt(models.CallbackRecord) error
}

// Dispatcher owns outbound callback delivery.
type Dispatcher struct {
	url       string
	client    *http.Client
	audit     *Auditor
	sink      ReportSink
	broadcast func(models.CallbackRecord)
}

// NewDispatcher builds a dispatcher for the given callback URL. The
// broadcast hook (may be nil) receives every attempt record for live
// dashboards.
func NewDispatcher(url string, audit *Auditor, sink ReportSink, broadcast func(models.CallbackRecord)) *Dispatcher {
	return &Dispatcher{
		url:       url,
		client:    &http.Client{Timeout: attemptTimeout},
		audit:     audit,
		sink:      sink,
		broadcast: broadcast,
	}
}

// ShouldSend decides whether a session is ready for its terminal
// callback. A finalized session never sends again; otherwise the hard
// turn-budget override fires at 12 turns, and a confirmed scam with
// met quality thresholds fires at 8.
func (d *Dispatcher) ShouldSend(scamDetected bool, turnCount int, qualityMet, isFinalized bool) bool {
	if isFinalized {
		return false
	}
	if turnCount >= minTurnsOverride {
		return true
	}
	return scamDetected && turnCount >= minTurnsWithScam && qualityMet
}

// BuildFinalOutput assembles the callback payload. The scam type is
// never reported as "unknown"; the risk scorer's fallback label at
// dispatch time is bank_fraud. Floors: total messages >= 10, duration
// >= 190 s (the session store already guarantees the latter).
func BuildFinalOutput(sessionID string, scamDetected bool, scamType string, cumulativeScore float64, totalMessages, durationSeconds int, intel models.ExtractedIntelligence, agentNotes string) models.FinalOutput {
	if scamType == "" || scamType == "unknown" {
		scamType = "bank_fraud"
	}
	if totalMessages < minTotalMessages {
		totalMessages = minTotalMessages
	}
	if durationSeconds < minDurationSeconds {
		durationSeconds = minDurationSeconds
	}

	confidence := cumulativeScore / 100
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	confidence = math.Round(confidence*10000) / 10000

	return models.FinalOutput{
		SessionID:              sessionID,
		ScamDetected:           scamDetected,
		ScamType:               scamType,
		ConfidenceLevel:        confidence,
		TotalMessagesExchanged: totalMessages,
		EngagementDuration:     durationSeconds,
		ExtractedIntelligence:  intel,
		EngagementMetrics: models.EngagementMetrics{
			TotalMessagesExchanged:    totalMessages,
			EngagementDurationSeconds: durationSeconds,
		},
		AgentNotes: agentNotes,
	}
}

// SendAsync hands the payload to a detached delivery worker. It
// survives handler cancellation.
func (d *Dispatcher) SendAsync(payload models.FinalOutput) {
	go d.deliver(payload)
}

func (d *Dispatcher) deliver(payload models.FinalOutput) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Callback] Failed to marshal payload for %s: %v", payload.SessionID, err)
		return
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, text, err := d.post(body)
		success := err == nil && status >= 200 && status < 300
		if err != nil {
			text = err.Error()
		}

		d.record(payload, attempt, success, status, text)

		if success {
			log.Printf("[Callback] Delivered final report for %s (attempt %d, status %d)",
				payload.SessionID, attempt, status)
			if d.sink != nil {
				if err := d.sink.SaveFinalReport(payload); err != nil {
					log.Printf("[Callback] Failed to persist report for %s: %v", payload.SessionID, err)
				}
			}
			return
		}

		log.Printf("[Callback] Attempt %d/%d for %s failed (status %d): %s",
			attempt, maxAttempts, payload.SessionID, status, truncate(text, 120))
		if attempt < maxAttempts {
			time.Sleep(backoffDelays[attempt-1])
		}
	}

	log.Printf("[Callback] Permanent delivery failure for %s after %d attempts", payload.SessionID, maxAttempts)
}

func (d *Dispatcher) post(body []byte) (int, string, error) {
	req, err := http.NewRequest(http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	text, _ := io.ReadAll(io.LimitReader(resp.Body, responseTextLimit))
	return resp.StatusCode, string(text), nil
}

func (d *Dispatcher) record(payload models.FinalOutput, attempt int, success bool, status int, text string) {
	rec := models.CallbackRecord{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		SessionID:      payload.SessionID,
		Attempt:        attempt,
		Success:        success,
		ResponseStatus: status,
		ResponseText:   truncate(text, responseTextLimit),
		Payload:        payload,
	}
	d.audit.Append(rec)
	if d.broadcast != nil {
		d.broadcast(rec)
	}
	if d.sink != nil {
		if err := d.sink.SaveCallbackAttempt(rec); err != nil {
			log.Printf("[Callback] Failed to persist attempt for %s: %v", payload.SessionID, err)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
