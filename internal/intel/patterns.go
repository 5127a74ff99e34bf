package intel

import "regexp"

// Extraction pattern corpus. Eight identifier classes, each with a
// class-specific canonicalizer so deduplication stays stable across
// format variations (a phone sent three ways lands in the store once).

// ─── Phone numbers ───────────────────────────────────────────────────
// Indian mobile, landline, toll-free and WhatsApp formats. Patterns
// with a capture group prefer the group over the whole match.

var phonePatterns = []*regexp.Regexp{
	// International format with +91
	regexp.MustCompile(`\+91[\s\-]?[6-9]\d{9}\b`),
	regexp.MustCompile(`\+91[\s\-]?[6-9]\d{4}[\s\-]\d{5}`),
	regexp.MustCompile(`\+91[\s\-]?[6-9]\d{2}[\s\-]\d{3}[\s\-]\d{4}`),
	regexp.MustCompile(`\(\+91\)[\s\-]?[6-9]\d{9}`),
	regexp.MustCompile(`\+91[\s\-]?\([6-9]\d{2}\)[\s\-]?\d{3}[\s\-]?\d{4}`),
	// Country code without +
	regexp.MustCompile(`\b91[\s\-]?[6-9]\d{9}\b`),
	regexp.MustCompile(`\b91[\s\-]?[6-9]\d{4}[\s\-]\d{5}\b`),
	// Domestic format with 0
	regexp.MustCompile(`\b0[6-9]\d{9}\b`),
	regexp.MustCompile(`\b0[6-9]\d{4}[\s\-]\d{5}\b`),
	// Bare 10-digit mobile
	regexp.MustCompile(`\b[6-9]\d{9}\b`),
	regexp.MustCompile(`\b[6-9]\d{4}[\s\-]\d{5}\b`),
	regexp.MustCompile(`\b[6-9]\d{3}[\s\-]\d{6}\b`),
	regexp.MustCompile(`\b[6-9]\d{2}[\s\-]\d{3}[\s\-]\d{4}\b`),
	// Toll-free numbers
	regexp.MustCompile(`\b1800[\s\-]?\d{3}[\s\-]?\d{4,5}\b`),
	regexp.MustCompile(`\b1860[\s\-]?\d{3}[\s\-]?\d{4,5}\b`),
	// Landline with STD code
	regexp.MustCompile(`\b0\d{2,4}[\s\-]?\d{6,8}\b`),
	// WhatsApp formatted
	regexp.MustCompile(`\bwa\.me/(\+?91)?[6-9]\d{9}\b`),
	// Digit-spaced evasion format
	regexp.MustCompile(`\b[6-9]\s\d\s\d\s\d\s\d\s\d\s\d\s\d\s\d\s\d\b`),
	// Contextual extraction after call/contact keywords
	regexp.MustCompile(`(?i)(?:call|phone|mobile|contact|whatsapp|number|no|reach)\s*(?:me\s*)?(?:at|on|:|\-)?\s*(?:\+?91[\s\-]?)?([6-9]\d{9})`),
	regexp.MustCompile(`(?i)(?:call|phone|mobile|contact|whatsapp|number|no|reach)\s*(?:me\s*)?(?:at|on|:|\-)?\s*(?:\+?91[\s\-]?)?([6-9]\d{4}[\s\-]\d{5})`),
}

// phoneClean strips everything that is not a digit from raw phone
// matches, including wa.me/ prefixes.
var phoneClean = regexp.MustCompile(`[\s\-+()wa.me/]`)

// ─── Bank accounts ───────────────────────────────────────────────────

var bankAccountPattern = regexp.MustCompile(`\b\d{9,18}\b`)

var contextualBankPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:account|a/c|acct|acc)\s*(?:no|number|num|#)?[\s:.#\-]*(\d{6,18})`),
	regexp.MustCompile(`(?i)(?:bank\s*(?:account|a/c))\s*(?:no|number|num|#)?[\s:.#\-]*(\d{6,18})`),
	regexp.MustCompile(`(?i)(?:transfer\s*to|deposit\s*to|send\s*to|credit\s*to)\s*(?:account\s*)?(\d{9,18})`),
	regexp.MustCompile(`(?i)(?:beneficiary|payee|receiver)\s*(?:account|a/c)?\s*(?:no|number)?[\s:.#\-]*(\d{9,18})`),
	regexp.MustCompile(`(?i)(?:savings?|current|fixed\s*deposit|fd)\s*(?:account|a/c)\s*(?:no|number)?[\s:.#\-]*(\d{9,18})`),
	regexp.MustCompile(`(?i)(?:account\s*(?:holder|name|details))\s*.{0,30}(\d{9,18})`),
}

var bankClean = regexp.MustCompile(`[\s\-]`)

// ─── UPI IDs ─────────────────────────────────────────────────────────
// The source dialect used a negative lookahead to stop local@provider
// matching the front of a real domain. RE2 has no lookahead, so the
// extractor re-checks the character after each match instead: a match
// followed by ".x" or "-x" (x alphanumeric) is a domain, not a VPA.

var upiPattern = regexp.MustCompile(`[\w.\-]{2,}@[a-zA-Z][a-zA-Z0-9]{1,30}`)

var contextualUpiPattern = regexp.MustCompile(`(?i)(?:upi\s*(?:id|address|handle|vpa)|pay\s*to|send\s*to|transfer\s*to)\s*[\s:.#\-]*([\w.\-]{2,}@[a-zA-Z][a-zA-Z0-9]{1,30})`)

// ─── Emails ──────────────────────────────────────────────────────────

var emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)

// ─── URLs / phishing links ───────────────────────────────────────────

var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?i)https?://[^\\s<>\"{}|\\\\^`\\[\\]]+"),
	regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|rb\.gy|is\.gd|cutt\.ly|shorturl\.at|ow\.ly|tiny\.cc|v\.gd|s\.id|clck\.ru|rebrand\.ly)/[a-zA-Z0-9\-_]+`),
	regexp.MustCompile(`(?i)\bwa\.me/[0-9]+`),
	regexp.MustCompile(`(?i)\bt\.me/[a-zA-Z0-9_]+`),
	regexp.MustCompile(`(?i)\b[a-z0-9]{4,}\.(?:xyz|top|online|site|work|click|live|club|fun|icu|buzz|ooo|rest|cam|loan|win|bid)[^\s]*`),
	regexp.MustCompile(`(?i)\b(?:forms?\.google\.com|docs\.google\.com)/[^\s]+`),
	regexp.MustCompile(`(?i)\b(?:play\.google\.com|apps\.apple\.com)/[^\s]+`),
	regexp.MustCompile(`(?i)\b[a-z0-9\-]+(?:bank|secure|verify|update|login|account|pay|refund|claim)[a-z0-9\-]*\.(?:com|in|org|net|co\.in)/[^\s]*`),
}

var urlTrailingPunct = regexp.MustCompile(`[.,;:!?\)\]>]+$`)

// ─── Case IDs ────────────────────────────────────────────────────────

var caseIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:case\s*id|case\s*no|case\s*number|complaint\s*id|complaint\s*no|cid)[:\s#\-\.]*([A-Z0-9][A-Z0-9\-/]{2,20})\b`),
	regexp.MustCompile(`(?i)(?:reference\s*(?:no|number|id)|ref\s*(?:no|id|#))[:\s#\-\.]*#?([A-Z0-9][A-Z0-9\-/]{2,20})\b`),
	regexp.MustCompile(`(?i)(?:ticket\s*(?:no|id|number)|fir\s*(?:no|number|id))[:\s#\-\.]*([A-Z0-9][A-Z0-9\-/]{2,20})\b`),
	regexp.MustCompile(`(?i)\b(?:X|C|T|R)-\d{3,8}\b`),
	regexp.MustCompile(`(?i)\bCID-?[A-Z0-9]{4,12}\b`),
	regexp.MustCompile(`(?i)\b(FRD-[A-Z0-9\-]{5,20})\b`),
	regexp.MustCompile(`(?i)\b(CBI-[A-Z0-9\-]{5,25})\b`),
	regexp.MustCompile(`(?i)\b(FIR-[A-Z0-9\-]{5,25})\b`),
	regexp.MustCompile(`(?i)\b(REFUND-[A-Z0-9\-]{3,15})\b`),
	regexp.MustCompile(`(?i)\b(NCB-[A-Z0-9\-]{4,20})\b`),
	regexp.MustCompile(`(?i)\b(ED-[A-Z0-9\-]{4,20})\b`),
	regexp.MustCompile(`(?i)\b(CYBER-[A-Z0-9\-]{4,20})\b`),
	regexp.MustCompile(`(?i)\b(ITR-[A-Z0-9\-]{4,15})\b`),
	regexp.MustCompile(`(?i)\b(DRI-[A-Z0-9\-]{4,20})\b`),
	regexp.MustCompile(`(?i)\b[A-Z]{2,5}-\d{4}-[A-Z0-9\-]{3,15}\b`),
	// Broad multi-segment agency IDs: DXB-VISA-2025-4567 and friends
	regexp.MustCompile(`(?i)\b([A-Z]{2,10}-[A-Z0-9]{2,12}-[A-Z0-9\-]{4,25})\b`),
}

// policyPrefixes mark IDs that belong in policyNumbers, never caseIds.
var policyPrefixes = []string{"POL-", "INS-", "POLICY-", "P-", "LIC-"}

// ─── Policy numbers ──────────────────────────────────────────────────

var policyNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:policy\s*(?:no|number|id|#)|insurance\s*(?:id|no|number|policy))(?:\s*(?:is|:))?\s*[:\s#\-\.]*([A-Z]{0,5}-?[A-Z0-9\-]{3,20})\b`),
	regexp.MustCompile(`(?i)(?:lic\s*(?:policy|no|number)|policy\s*code)(?:\s*(?:is|:))?\s*[:\s#\-\.]*([A-Z0-9\-]{4,18})\b`),
	regexp.MustCompile(`(?i)\b(?:P|INS|POL)-[A-Z0-9\-]{4,20}\b`),
	regexp.MustCompile(`(?i)\bPOLICY-?[A-Z0-9]{4,12}\b`),
	regexp.MustCompile(`(?i)\b(?:LIC-[A-Z]{2,5}-\d{4}-[A-Z0-9\-]{4,12})\b`),
}

// compactPolicyPattern needs the source dialect's (?![-]\d) lookahead;
// the extractor rejects matches followed by a dash and a digit instead.
var compactPolicyPattern = regexp.MustCompile(`(?i)\b(?:P|INS|POL)-?\d{4,10}\b`)

// ─── Order numbers ───────────────────────────────────────────────────

var orderNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:order\s*(?:id|no|number|#)|order\s*ref(?:erence)?)[:\s#\-\.]+([A-Z]{0,4}-?\d{4,16})\b`),
	regexp.MustCompile(`(?i)(?:txn\s*(?:ref|id|no)\b|transaction\s*(?:id|no|number)\b)[:\s#\-\.]+([A-Z]{0,3}-?[A-Z0-9]{4,16})\b`),
	regexp.MustCompile(`(?i)\b(?:ORD|TRN)-?[A-Z0-9]{3,12}\b`),
	regexp.MustCompile(`(?i)\bTXN?-?\d{3,12}\b`),
	regexp.MustCompile(`(?i)(?:shipment\s*id|parcel\s*id|courier\s*(?:id|ref))[:\s#\-\.]+([A-Z0-9\-]{4,18})\b`),
	regexp.MustCompile(`(?i)\b(ORD-[A-Z]{2,4}-[A-Z0-9\-]{4,20})\b`),
	regexp.MustCompile(`(?i)\b(AMZ-[A-Z0-9\-]{6,20})\b`),
	regexp.MustCompile(`(?i)\b(FLK-[A-Z0-9\-]{6,20})\b`),
	regexp.MustCompile(`(?i)\b(SHIP-[A-Z0-9\-]{4,15})\b`),
	regexp.MustCompile(`(?i)order\s+([A-Z0-9\-]{8,25})\b`),
	regexp.MustCompile(`(?i)\b([A-Z]{2,5}-[A-Z]{2,5}-\d{4}-\d{4,12})\b`),
}

// ─── UPI provider / email domain sets ────────────────────────────────

// upiProviders is the curated handle set for Indian UPI VPAs.
var upiProviders = map[string]bool{
	"paytm": true, "ybl": true, "okaxis": true, "oksbi": true,
	"okhdfcbank": true, "okicici": true, "axl": true, "ibl": true,
	"upi": true, "apl": true, "rapl": true, "waaxis": true,
	"wahdfcbank": true, "waicici": true, "wasbi": true, "ikwik": true,
	"freecharge": true, "airtel": true, "jio": true, "pingpay": true,
	"slice": true, "amazonpay": true, "postpe": true, "axisb": true,
	"sbi": true, "hdfc": true, "icici": true, "kotak": true,
	"indus": true, "federal": true, "idbi": true, "pnb": true,
	"bob": true, "union": true, "canara": true, "boi": true,
	"cbi": true, "iob": true, "jupiter": true, "fi": true,
	"groww": true, "cred": true, "bharatpe": true, "navi": true,
	"mobikwik": true, "yesbank": true, "rbl": true, "dbs": true,
	"hsbc": true, "scb": true, "citi": true, "barodapay": true,
	"aubank": true, "bandhan": true, "payzapp": true, "phonepe": true,
	"gpay": true, "googlepay": true, "fam": true, "equitas": true,
	"dlb": true, "kvb": true, "tmb": true, "lvb": true,
	"dcb": true, "jkb": true, "ujjivan": true, "suryoday": true,
	"esaf": true, "utkarsh": true, "shivalik": true, "fino": true,
	"airtelpaymentsbank": true, "paytmpaymentsbank": true,
	"jiomoney": true, "myicici": true, "oxigen": true, "ola": true,
	"hdfcbank": true, "icicibank": true, "axisbank": true,
	"kotakbank": true, "sbibank": true, "pnbbank": true,
	"bobbank": true, "canarabank": true, "unionbank": true,
	"boibank": true, "centralbank": true, "iobbank": true,
	"indianbank": true, "mairtel": true, "yespay": true,
	"rblbank": true, "dbsbank": true,
	"fakebank": true, "fakeupi": true,
}

// emailDomainPrefixes are mailbox providers that must never be treated
// as UPI handles.
var emailDomainPrefixes = []string{
	"gmail", "yahoo", "hotmail", "outlook", "live", "rediffmail",
	"protonmail", "aol", "icloud", "zoho", "yandex", "mail",
	"msn", "me", "pm", "tutanota",
}
