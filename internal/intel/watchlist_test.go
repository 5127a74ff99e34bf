package intel

import (
	"sync"
	"testing"
)

func TestWatchlist_HitFiresOnSecondDistinctSession(t *testing.T) {
	w := NewWatchlist()

	if hit := w.Record("phone", "+919876543210", "sess-a"); hit != nil {
		t.Fatalf("first session should not raise a hit, got %+v", hit)
	}
	if w.IsRepeatOffender("+919876543210") {
		t.Fatalf("single-session identifier marked repeat offender")
	}

	hit := w.Record("phone", "+919876543210", "sess-b")
	if hit == nil {
		t.Fatalf("expected hit on second distinct session")
	}
	if hit.Sessions != 2 || hit.Category != "phone" {
		t.Fatalf("unexpected hit payload: %+v", hit)
	}
	if !w.IsRepeatOffender("+919876543210") {
		t.Fatalf("expected repeat offender after two sessions")
	}
}

func TestWatchlist_SameSessionNeverRaisesHit(t *testing.T) {
	w := NewWatchlist()

	w.Record("upi", "fraud@paytm", "sess-a")
	if hit := w.Record("upi", "fraud@paytm", "sess-a"); hit != nil {
		t.Fatalf("duplicate within one session raised a hit: %+v", hit)
	}
	if w.IsRepeatOffender("fraud@paytm") {
		t.Fatalf("one session with repeats must not qualify as repeat offender")
	}
}

func TestWatchlist_RecordIntelCollectsHitsAcrossCategories(t *testing.T) {
	w := NewWatchlist()

	w.RecordIntel("sess-1", []string{"+919812345678"}, []string{"fraud@ybl"}, []string{"123456789012"})
	hits := w.RecordIntel("sess-2", []string{"+919812345678"}, []string{"fraud@ybl"}, nil)

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	if w.IsRepeatOffender("123456789012") {
		t.Fatalf("account seen in one session flagged as repeat offender")
	}
}

func TestWatchlist_RepeatOffendersSortedByValue(t *testing.T) {
	w := NewWatchlist()

	for _, sess := range []string{"s1", "s2"} {
		w.Record("upi", "zeta@paytm", sess)
		w.Record("upi", "alpha@ybl", sess)
		w.Record("phone", "+919999999999", sess)
	}
	w.Record("bank_account", "555566667777", "s1")

	list := w.RepeatOffenders()
	if len(list) != 3 {
		t.Fatalf("expected 3 repeat offenders, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Value > list[i].Value {
			t.Fatalf("list not sorted: %q before %q", list[i-1].Value, list[i].Value)
		}
	}
	if w.Size() != 4 {
		t.Fatalf("expected 4 tracked identifiers, got %d", w.Size())
	}
}

func TestWatchlist_ConcurrentRecordsAreSafe(t *testing.T) {
	w := NewWatchlist()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sess := string(rune('a' + n))
			for j := 0; j < 50; j++ {
				w.Record("phone", "+918888888888", "sess-"+sess)
			}
		}(i)
	}
	wg.Wait()

	if !w.IsRepeatOffender("+918888888888") {
		t.Fatalf("expected repeat offender after 8 sessions")
	}
	list := w.RepeatOffenders()
	if len(list) != 1 || list[0].Sessions != 8 {
		t.Fatalf("expected one entry with 8 sessions, got %+v", list)
	}
}
