package intel

import (
	"sort"
	"strings"
	"sync"

	"github.com/rawblock/honeypot-engine/pkg/models"
)

// Intelligence Extraction Engine
//
// Pulls actionable identifiers out of scammer messages with regex
// matching plus canonical normalization:
//
//   phones         → +91XXXXXXXXXX (toll-free kept as raw digits)
//   bank accounts  → digits only, spaces/dashes stripped
//   UPI IDs        → lowercase
//   emails         → lowercase
//   URLs           → trailing punctuation stripped
//   case/policy/order IDs → uppercase
//
// Everything is deduplicated per session in set storage; the public
// view is sorted ascending. Sets only grow.

type sessionIntel struct {
	phoneNumbers   map[string]bool
	bankAccounts   map[string]bool
	upiIDs         map[string]bool
	phishingLinks  map[string]bool
	emailAddresses map[string]bool
	caseIDs        map[string]bool
	policyNumbers  map[string]bool
	orderNumbers   map[string]bool
}

func newSessionIntel() *sessionIntel {
	return &sessionIntel{
		phoneNumbers:   make(map[string]bool),
		bankAccounts:   make(map[string]bool),
		upiIDs:         make(map[string]bool),
		phishingLinks:  make(map[string]bool),
		emailAddresses: make(map[string]bool),
		caseIDs:        make(map[string]bool),
		policyNumbers:  make(map[string]bool),
		orderNumbers:   make(map[string]bool),
	}
}

// Extractor is the process-wide intelligence accumulator.
type Extractor struct {
	mu    sync.Mutex
	store map[string]*sessionIntel
}

// NewExtractor creates an empty extractor.
func NewExtractor() *Extractor {
	return &Extractor{store: make(map[string]*sessionIntel)}
}

// Extract runs every pipeline over text, merges the results into the
// session's store and returns the sorted deduplicated view. Empty or
// whitespace input is a no-op.
func (x *Extractor) Extract(text, sessionID string) models.ExtractedIntelligence {
	x.mu.Lock()
	defer x.mu.Unlock()

	data := x.ensureLocked(sessionID)
	if strings.TrimSpace(text) != "" {
		extractPhones(text, data)
		extractBankAccounts(text, data)
		extractUpiIDs(text, data)
		extractEmails(text, data)
		extractURLs(text, data)
		extractCaseIDs(text, data)
		extractPolicyNumbers(text, data)
		extractOrderNumbers(text, data)
	}
	return snapshot(data)
}

// Intelligence returns the current view without extracting anything.
func (x *Extractor) Intelligence(sessionID string) models.ExtractedIntelligence {
	x.mu.Lock()
	defer x.mu.Unlock()
	return snapshot(x.ensureLocked(sessionID))
}

// HasIntelligence reports whether any identifier has been captured.
func (x *Extractor) HasIntelligence(sessionID string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	d := x.ensureLocked(sessionID)
	return len(d.phoneNumbers) > 0 || len(d.bankAccounts) > 0 ||
		len(d.upiIDs) > 0 || len(d.phishingLinks) > 0 ||
		len(d.emailAddresses) > 0 || len(d.caseIDs) > 0 ||
		len(d.policyNumbers) > 0 || len(d.orderNumbers) > 0
}

// Reset discards all intelligence for a session.
func (x *Extractor) Reset(sessionID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.store, sessionID)
}

func (x *Extractor) ensureLocked(sessionID string) *sessionIntel {
	d, ok := x.store[sessionID]
	if !ok {
		d = newSessionIntel()
		x.store[sessionID] = d
	}
	return d
}

func snapshot(d *sessionIntel) models.ExtractedIntelligence {
	return models.ExtractedIntelligence{
		PhoneNumbers:   sortedKeys(d.phoneNumbers),
		BankAccounts:   sortedKeys(d.bankAccounts),
		UpiIDs:         sortedKeys(d.upiIDs),
		PhishingLinks:  sortedKeys(d.phishingLinks),
		EmailAddresses: sortedKeys(d.emailAddresses),
		CaseIDs:        sortedKeys(d.caseIDs),
		PolicyNumbers:  sortedKeys(d.policyNumbers),
		OrderNumbers:   sortedKeys(d.orderNumbers),
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ─── Class pipelines ─────────────────────────────────────────────────

func extractPhones(text string, d *sessionIntel) {
	for _, re := range phonePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			raw := strings.TrimSpace(m[0])
			if len(m) > 1 && m[1] != "" {
				raw = strings.TrimSpace(m[1])
			}

			cleaned := phoneClean.ReplaceAllString(raw, "")

			if strings.HasPrefix(cleaned, "91") && len(cleaned) == 12 {
				cleaned = cleaned[2:]
			} else if strings.HasPrefix(cleaned, "0") && len(cleaned) == 11 {
				cleaned = cleaned[1:]
			}

			if len(cleaned) == 10 && cleaned[0] >= '6' && cleaned[0] <= '9' {
				d.phoneNumbers["+91"+cleaned] = true
			}

			if strings.HasPrefix(cleaned, "1800") || strings.HasPrefix(cleaned, "1860") {
				d.phoneNumbers[cleaned] = true
			}
		}
	}
}

func extractBankAccounts(text string, d *sessionIntel) {
	insert := func(raw string) {
		canonical := bankClean.ReplaceAllString(raw, "")
		n := len(canonical)
		// Phone-shaped 10-digit runs belong to the phone pipeline.
		if n == 10 && canonical[0] >= '6' && canonical[0] <= '9' {
			return
		}
		// Bare years (2024 etc) never qualify.
		if n == 4 && strings.HasPrefix(canonical, "20") {
			return
		}
		d.bankAccounts[canonical] = true
	}

	for _, m := range bankAccountPattern.FindAllString(text, -1) {
		if len(m) >= 9 && len(m) <= 18 {
			insert(m)
		}
	}
	for _, re := range contextualBankPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m[1]) >= 6 && len(m[1]) <= 18 {
				insert(m[1])
			}
		}
	}
}

// upiDomainContinues reports whether the text right after a candidate
// VPA extends the domain (".x" or "-x" with x alphanumeric). Such a
// match is the front of a real domain name, not a UPI handle.
func upiDomainContinues(text string, end int) bool {
	rest := text[end:]
	if len(rest) < 2 {
		return false
	}
	if rest[0] != '.' && rest[0] != '-' {
		return false
	}
	c := rest[1]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func validUpi(candidate string) bool {
	at := strings.LastIndex(candidate, "@")
	if at < 2 {
		return false
	}
	domain := strings.ToLower(candidate[at+1:])

	for _, ed := range emailDomainPrefixes {
		if strings.HasPrefix(domain, ed) {
			return false
		}
	}
	if upiProviders[domain] {
		return true
	}
	return !strings.Contains(domain, ".") && len(domain) <= 15
}

func extractUpiIDs(text string, d *sessionIntel) {
	for _, loc := range upiPattern.FindAllStringIndex(text, -1) {
		if upiDomainContinues(text, loc[1]) {
			continue
		}
		candidate := text[loc[0]:loc[1]]
		if validUpi(candidate) {
			d.upiIDs[strings.ToLower(candidate)] = true
		}
	}

	for _, loc := range contextualUpiPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		if start < 0 || upiDomainContinues(text, end) {
			continue
		}
		candidate := text[start:end]
		if len(candidate) >= 5 && validUpi(candidate) {
			d.upiIDs[strings.ToLower(candidate)] = true
		}
	}
}

func extractEmails(text string, d *sessionIntel) {
	for _, m := range emailPattern.FindAllString(text, -1) {
		at := strings.LastIndex(m, "@")
		domain := strings.ToLower(m[at+1:])

		base := domain
		if i := strings.Index(domain, "."); i >= 0 {
			base = domain[:i]
		}
		if upiProviders[base] {
			continue
		}
		d.emailAddresses[strings.ToLower(m)] = true
	}
}

func extractURLs(text string, d *sessionIntel) {
	for _, re := range urlPatterns {
		for _, m := range re.FindAllString(text, -1) {
			cleaned := urlTrailingPunct.ReplaceAllString(m, "")
			if len(cleaned) > 5 {
				d.phishingLinks[cleaned] = true
			}
		}
	}
}

func extractCaseIDs(text string, d *sessionIntel) {
	for _, re := range caseIDPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			raw := strings.TrimSpace(pickGroup(m))
			if len(raw) < 3 {
				continue
			}
			upper := strings.ToUpper(raw)
			if hasPolicyPrefix(upper) {
				continue
			}
			d.caseIDs[upper] = true
		}
	}
}

func extractPolicyNumbers(text string, d *sessionIntel) {
	for _, re := range policyNumberPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			raw := strings.TrimSpace(pickGroup(m))
			if len(raw) >= 3 {
				d.policyNumbers[strings.ToUpper(raw)] = true
			}
		}
	}
	for _, loc := range compactPolicyPattern.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		if len(rest) >= 2 && rest[0] == '-' && rest[1] >= '0' && rest[1] <= '9' {
			continue
		}
		raw := text[loc[0]:loc[1]]
		if len(raw) >= 3 {
			d.policyNumbers[strings.ToUpper(raw)] = true
		}
	}
}

func extractOrderNumbers(text string, d *sessionIntel) {
	for _, re := range orderNumberPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			raw := strings.TrimSpace(pickGroup(m))
			if len(raw) >= 3 {
				d.orderNumbers[strings.ToUpper(raw)] = true
			}
		}
	}
}

// pickGroup mirrors findall semantics: the capture group when one
// exists and matched, otherwise the whole match.
func pickGroup(m []string) string {
	if len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return m[0]
}

func hasPolicyPrefix(upper string) bool {
	for _, p := range policyPrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}
