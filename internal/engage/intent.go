package engage

import (
	"sort"
	"strings"
)

// Lexical intent model. Stands in for a pluggable neural reranker: it
// scores the scammer's message against per-intent vocabularies and
// feeds high-confidence intents back into tactic selection. Fully
// deterministic so replies stay reproducible under test.

const intentThreshold = 0.35

type intentVocab struct {
	label string
	terms []string
}

var intentVocabs = []intentVocab{
	{"otp_request", []string{"otp", "code", "one time", "sms", "6 digit", "share the code"}},
	{"account_request", []string{"account", "passbook", "ifsc", "branch", "beneficiary"}},
	{"threat", []string{"arrest", "police", "warrant", "jail", "court", "legal action", "fir"}},
	{"payment_lure", []string{"won", "prize", "lottery", "refund", "cashback", "claim"}},
	{"payment_request", []string{"transfer", "pay", "upi", "amount", "fees", "deposit"}},
	{"courier", []string{"parcel", "courier", "customs", "shipment", "package", "seized"}},
	{"tech_support", []string{"virus", "computer", "remote", "install", "screen share"}},
	{"job_fraud", []string{"job", "salary", "work from home", "task", "hiring", "income"}},
	{"investment", []string{"invest", "returns", "profit", "trading", "scheme", "double"}},
	{"identity_theft", []string{"aadhaar", "pan", "documents", "identity", "kyc", "details"}},
}

// IntentModel scores messages against the intent vocabularies.
type IntentModel struct{}

// NewIntentModel creates the lexical intent model.
func NewIntentModel() *IntentModel {
	return &IntentModel{}
}

// Infer returns a probability per intent label. A single vocabulary
// hit is enough to clear the augmentation threshold; more hits
// asymptotically approach 1.
func (im *IntentModel) Infer(message string) map[string]float64 {
	m := strings.ToLower(message)
	probs := make(map[string]float64, len(intentVocabs))
	for _, iv := range intentVocabs {
		matched := 0.0
		for _, term := range iv.terms {
			if strings.Contains(m, term) {
				matched++
			}
		}
		probs[iv.label] = matched / (matched + 1.5)
	}
	return probs
}

// Augment adds intents above the confidence threshold to the tactic
// set and returns the added labels, sorted.
func (im *IntentModel) Augment(message string, tactics map[string]bool) []string {
	var added []string
	for label, p := range im.Infer(message) {
		if p > intentThreshold && !tactics[label] {
			tactics[label] = true
			added = append(added, label)
		}
	}
	sort.Strings(added)
	return added
}
