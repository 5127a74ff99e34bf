package engage

import "strings"

// Tactic detection for response-pool selection. This is deliberately
// lighter than the risk-scoring layers: a flat keyword scan whose only
// job is to pick the right persona pool for the next reply.

type tacticCheck struct {
	keywords []string
	label    string
}

var tacticChecks = []tacticCheck{
	{[]string{"urgent", "immediate", "hurry", "quickly", "jaldi", "minutes left"}, "urgency"},
	{[]string{"verify", "kyc", "update", "confirm", "suspend", "block"}, "verification"},
	{[]string{"refund", "prize", "won", "reward", "cashback", "lottery", "winner"}, "payment_lure"},
	{[]string{"police", "legal", "arrest", "court", "case", "warrant", "cbi", "ed", "jail"}, "threat"},
	{[]string{"upi", "transfer", "pay", "send", "paytm", "phonepe", "gpay", "bhim"}, "payment_request"},
	{[]string{"video call", "digital arrest", "stay on call", "don't disconnect"}, "digital_arrest"},
	{[]string{"parcel", "courier", "package", "customs", "drugs", "contraband"}, "courier"},
	{[]string{"otp", "one time password", "verification code", "6 digit"}, "otp_request"},
	{[]string{"account number", "bank account", "a/c number", "a/c no"}, "account_request"},
	{[]string{"password", "pin", "cvv", "card number", "debit card", "credit card"}, "credential"},
	{[]string{"virus", "malware", "microsoft", "remote access", "anydesk", "teamviewer", "tech support", "hacked"}, "tech_support"},
	{[]string{"work from home", "part time job", "job offer", "salary", "earn daily", "per day", "registration fee", "telegram task", "hiring"}, "job_fraud"},
	{[]string{"investment", "returns", "trading", "stock tips", "crypto", "double your", "guaranteed profit"}, "investment"},
	{[]string{"aadhaar", "aadhar", "pan card", "pan number", "identity proof", "id proof", "date of birth"}, "identity_theft"},
}

// detectTactics scans one scammer message and returns the matched
// tactic labels.
func detectTactics(message string) map[string]bool {
	m := strings.ToLower(message)
	tactics := make(map[string]bool)
	for _, check := range tacticChecks {
		for _, kw := range check.keywords {
			if strings.Contains(m, kw) {
				tactics[check.label] = true
				break
			}
		}
	}
	return tactics
}

// tacticPriority orders labels for picking the turn's primary tactic,
// matching the pool-selection priority.
var tacticPriority = []string{
	"otp_request",
	"account_request",
	"credential",
	"courier",
	"tech_support",
	"job_fraud",
	"investment",
	"identity_theft",
	"threat",
	"digital_arrest",
	"payment_lure",
	"verification",
	"urgency",
	"payment_request",
}

// primaryTactic picks the highest-priority label out of a turn's
// detected tactics, or "" when none matched.
func primaryTactic(tactics map[string]bool) string {
	for _, label := range tacticPriority {
		if tactics[label] {
			return label
		}
	}
	return ""
}
