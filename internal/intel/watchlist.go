package intel

import (
	"sort"
	"sync"
	"time"
)

// Repeat-Offender Watchlist
//
// Cross-session monitoring of extracted identifiers. Every phone
// number, UPI VPA and bank account captured by the extractor is
// recorded here; an identifier that shows up in two or more distinct
// sessions is a repeat offender and raises a hit the moment the
// second session reports it.
//
// Performance: O(1) lookup using map-based sets.
// Concurrency: sync.RWMutex allows concurrent reads on the query path
// while recording is serialized.

// WatchedIdentifier holds cross-session metadata for one identifier.
type WatchedIdentifier struct {
	Value     string    `json:"value"`
	Category  string    `json:"category"` // phone/upi/bank_account
	FirstSeen time.Time `json:"firstSeen"`
	Sessions  int       `json:"sessions"`
}

// WatchlistHit fires when an identifier crosses the repeat threshold.
type WatchlistHit struct {
	Value    string `json:"value"`
	Category string `json:"category"`
	Sessions int    `json:"sessions"`
}

type watchEntry struct {
	category  string
	firstSeen time.Time
	sessions  map[string]bool
}

// Watchlist is a concurrent-safe identifier monitoring engine.
type Watchlist struct {
	mu      sync.RWMutex
	entries map[string]*watchEntry
}

// NewWatchlist creates a new empty watchlist.
func NewWatchlist() *Watchlist {
	return &Watchlist{entries: make(map[string]*watchEntry)}
}

// Record notes that value was seen in sessionID. It returns a hit when
// this record is the one that crosses the two-session threshold, and
// on every later session after that.
func (w *Watchlist) Record(category, value, sessionID string) *WatchlistHit {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := w.entries[value]
	if !ok {
		e = &watchEntry{
			category:  category,
			firstSeen: time.Now(),
			sessions:  make(map[string]bool),
		}
		w.entries[value] = e
	}
	if e.sessions[sessionID] {
		return nil
	}
	e.sessions[sessionID] = true

	if len(e.sessions) >= 2 {
		return &WatchlistHit{Value: value, Category: category, Sessions: len(e.sessions)}
	}
	return nil
}

// RecordIntel feeds one session's phone/UPI/account identifiers through
// Record and returns all hits raised.
func (w *Watchlist) RecordIntel(sessionID string, phones, upiIDs, accounts []string) []WatchlistHit {
	var hits []WatchlistHit
	for _, v := range phones {
		if h := w.Record("phone", v, sessionID); h != nil {
			hits = append(hits, *h)
		}
	}
	for _, v := range upiIDs {
		if h := w.Record("upi", v, sessionID); h != nil {
			hits = append(hits, *h)
		}
	}
	for _, v := range accounts {
		if h := w.Record("bank_account", v, sessionID); h != nil {
			hits = append(hits, *h)
		}
	}
	return hits
}

// IsRepeatOffender reports whether value was seen in 2+ sessions.
func (w *Watchlist) IsRepeatOffender(value string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	e, ok := w.entries[value]
	return ok && len(e.sessions) >= 2
}

// RepeatOffenders returns all identifiers seen across 2+ sessions,
// sorted by value.
func (w *Watchlist) RepeatOffenders() []WatchedIdentifier {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var list []WatchedIdentifier
	for v, e := range w.entries {
		if len(e.sessions) >= 2 {
			list = append(list, WatchedIdentifier{
				Value:     v,
				Category:  e.category,
				FirstSeen: e.firstSeen,
				Sessions:  len(e.sessions),
			})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Value < list[j].Value })
	return list
}

// Size returns the number of tracked identifiers.
func (w *Watchlist) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entries)
}
