package models

import "encoding/json"

// Message is a single chat turn inside a conversation.
// Sender defaults to "scammer" when the caller omits it.
type Message struct {
	Sender    string        `json:"sender"`
	Text      string        `json:"text"`
	Timestamp FlexTimestamp `json:"timestamp,omitempty"`
}

// Metadata carries optional channel and locale context from the caller.
// Purely informational; it never changes pipeline behavior.
type Metadata struct {
	Channel  string `json:"channel"`
	Language string `json:"language"`
	Locale   string `json:"locale"`
}

// HoneypotRequest is the POST /honeypot payload. Unknown fields are
// ignored; epoch-int timestamps are coerced to strings on decode.
type HoneypotRequest struct {
	SessionID           string        `json:"sessionId"`
	Message             Message       `json:"message"`
	ConversationHistory []Message     `json:"conversationHistory"`
	Metadata            *Metadata     `json:"metadata"`
	Timestamp           FlexTimestamp `json:"timestamp,omitempty"`
}

// HoneypotResponse is the only shape ever returned to the caller:
// status plus the agent reply. No internal state leaks here.
type HoneypotResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// FlexTimestamp accepts both string and integer (epoch) JSON values
// and normalizes to a string.
type FlexTimestamp string

func (t *FlexTimestamp) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = FlexTimestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = FlexTimestamp(n.String())
	return nil
}

// ExtractedIntelligence holds the eight identifier classes elicited from
// the scammer during the engagement. Arrays are always present (never
// null) in serialized output.
type ExtractedIntelligence struct {
	PhoneNumbers   []string `json:"phoneNumbers"`
	BankAccounts   []string `json:"bankAccounts"`
	UpiIDs         []string `json:"upiIds"`
	PhishingLinks  []string `json:"phishingLinks"`
	EmailAddresses []string `json:"emailAddresses"`
	CaseIDs        []string `json:"caseIds"`
	PolicyNumbers  []string `json:"policyNumbers"`
	OrderNumbers   []string `json:"orderNumbers"`
}

// NewExtractedIntelligence returns an intelligence record with all eight
// arrays initialized, so JSON output carries [] rather than null.
func NewExtractedIntelligence() ExtractedIntelligence {
	return ExtractedIntelligence{
		PhoneNumbers:   []string{},
		BankAccounts:   []string{},
		UpiIDs:         []string{},
		PhishingLinks:  []string{},
		EmailAddresses: []string{},
		CaseIDs:        []string{},
		PolicyNumbers:  []string{},
		OrderNumbers:   []string{},
	}
}

// IsEmpty reports whether no identifier of any class has been captured.
func (e ExtractedIntelligence) IsEmpty() bool {
	return len(e.PhoneNumbers) == 0 && len(e.BankAccounts) == 0 &&
		len(e.UpiIDs) == 0 && len(e.PhishingLinks) == 0 &&
		len(e.EmailAddresses) == 0 && len(e.CaseIDs) == 0 &&
		len(e.PolicyNumbers) == 0 && len(e.OrderNumbers) == 0
}

// EngagementMetrics quantifies how long the honeypot held the scammer.
type EngagementMetrics struct {
	TotalMessagesExchanged    int `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int `json:"engagementDurationSeconds"`
}

// FinalOutput is the terminal callback payload posted to the evaluation
// endpoint once per session.
type FinalOutput struct {
	SessionID              string                `json:"sessionId"`
	ScamDetected           bool                  `json:"scamDetected"`
	ScamType               string                `json:"scamType"`
	ConfidenceLevel        float64               `json:"confidenceLevel"`
	TotalMessagesExchanged int                   `json:"totalMessagesExchanged"`
	EngagementDuration     int                   `json:"engagementDurationSeconds"`
	ExtractedIntelligence  ExtractedIntelligence `json:"extractedIntelligence"`
	EngagementMetrics      EngagementMetrics     `json:"engagementMetrics"`
	AgentNotes             string                `json:"agentNotes"`
}

// CallbackRecord is one audit entry for a callback POST attempt. The
// on-disk history keeps the most recent 1000 records.
type CallbackRecord struct {
	ID             string      `json:"id"`
	Timestamp      string      `json:"timestamp"`
	SessionID      string      `json:"sessionId"`
	Attempt        int         `json:"attempt"`
	Success        bool        `json:"success"`
	ResponseStatus int         `json:"responseStatus"`
	ResponseText   string      `json:"responseText"`
	Payload        FinalOutput `json:"payload"`
}
