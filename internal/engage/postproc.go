package engage

import "strings"

// Emit-time reply hardening. Once the scam latch is set every reply
// should voice at least one in-character suspicion, and from the
// second turn on it should ask for at least one concrete identifier.
// Replies that already do so pass through untouched.

// redFlagLexicon marks a reply as already voicing suspicion.
var redFlagLexicon = []string{
	"suspicious", "fraud", "scam", "worried", "concerns me", "nervous",
	"uncomfortable", "doesn't sound right", "verify first", "my son",
	"my family", "scared", "urgency", "pressure", "too good to be true",
	"warning",
}

// elicitationLexicon marks a reply as already asking for an identifier.
var elicitationLexicon = []string{
	"give me", "tell me", "share the", "account number", "phone number",
	"upi id", "reference number", "case id", "note down", "spell",
	"repeat", "beneficiary", "ifsc",
}

var redFlagAppends = []string{
	"I must say, this whole thing is making me a little nervous.",
	"Something about this doesn't sound right to me, I hope you understand.",
	"My son always tells me to verify first before doing anything on the phone.",
	"All this pressure is honestly making me worried.",
	"This is all a bit suspicious, no? Please don't mind me asking.",
	"I am a little uncomfortable doing this so fast, please bear with me.",
	"An offer like this sounds too good to be true, that's what concerns me.",
	"All this urgency is making me uneasy, I have to be careful at my age.",
}

var elicitationAppends = []string{
	"Give me your direct phone number also, in case this call drops.",
	"Tell me the reference number once more so I can note it down.",
	"Share the UPI ID again slowly, I am writing with a pen.",
	"Spell the account number for me one digit at a time.",
	"Repeat the case ID please, my hearing is not so good.",
	"Tell me the beneficiary name exactly as the bank shows it.",
	"Give me the IFSC code also while we are at it.",
	"What phone number should I save yours as? Tell me slowly.",
}

var replyConnectors = []string{
	" Also, ",
	" And one more thing, ",
	" By the way, ",
	" Oh, and ",
	" Before I forget, ",
}

// investigativeLexicon marks a reply as an identity-probing question
// for quality accounting.
var investigativeLexicon = []string{
	"employee id", "reference number", "registration number", "department",
	"badge", "designation", "supervisor", "case number", "complaint number",
	"letterhead", "toll-free", "official website", "who is this",
	"introduce yourself", "full name", "verify",
}

func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Theme tagging for reply diversity: consecutive replies should not
// ask for the same thing twice.

type themeRule struct {
	theme    string
	keywords []string
}

var themeRules = []themeRule{
	{"asks_phone", []string{"callback number", "phone number", "contact number", "number should i call", "what number"}},
	{"asks_account", []string{"account number", "upi id", "upi", "ifsc", "beneficiary", "bank account", "transfer to"}},
	{"asks_id", []string{"employee id", "reference number", "case reference", "case number", "badge", "designation", "complaint number", "department id", "registration number"}},
	{"stalls", []string{"hold on", "one minute", "one moment", "one second", "wait", "let me", "be right back", "5 minutes"}},
}

func themeOf(reply string) string {
	lower := strings.ToLower(reply)
	for _, rule := range themeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.theme
			}
		}
	}
	return "general"
}
