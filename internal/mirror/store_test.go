// internal/mirror/store_test.go
package mirror

import (
	"sync"
	"testing"
	"time"

	"github.com/marketdeck/marketdeck/internal/core"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStore_GetNeverFetched(t *testing.T) {
	s := NewStore(nil)

	e := s.Get(core.MarketDataKey("RELIANCE.NS"))

	if e.Status != StatusIdle {
		t.Errorf("expected status %q, got %q", StatusIdle, e.Status)
	}
	if e.Value != nil {
		t.Errorf("expected nil value, got %v", e.Value)
	}
	if e.Err != nil {
		t.Errorf("expected nil error, got %v", e.Err)
	}
	if !e.LastUpdated.IsZero() {
		t.Errorf("expected zero LastUpdated, got %v", e.LastUpdated)
	}
	if s.Len() != 0 {
		t.Errorf("Get should not create entries, have %d", s.Len())
	}
}

func TestStore_SetReady(t *testing.T) {
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	s := NewStore(nil)
	s.now = fixedClock(now)

	key := core.MarketDataKey("INFY.NS")
	quote := core.Quote{Symbol: "INFY.NS", Price: 1520.5}
	s.SetReady(key, quote)

	e := s.Get(key)
	if e.Status != StatusReady {
		t.Fatalf("expected status %q, got %q", StatusReady, e.Status)
	}
	got, ok := e.Value.(core.Quote)
	if !ok {
		t.Fatalf("expected a core.Quote value, got %T", e.Value)
	}
	if got.Price != 1520.5 {
		t.Errorf("expected price 1520.5, got %v", got.Price)
	}
	if e.Err != nil {
		t.Errorf("ready entry must carry no error, got %v", e.Err)
	}
	if !e.LastUpdated.Equal(now) {
		t.Errorf("expected LastUpdated %v, got %v", now, e.LastUpdated)
	}
}

func TestStore_SetReadyClearsError(t *testing.T) {
	s := NewStore(nil)
	key := core.MarketDataKey("TCS.NS")

	s.SetDegraded(key, core.Quote{Symbol: "TCS.NS", Price: 3900}, core.ErrNetwork)
	s.SetReady(key, core.Quote{Symbol: "TCS.NS", Price: 3905})

	e := s.Get(key)
	if e.Status != StatusReady {
		t.Errorf("expected status %q, got %q", StatusReady, e.Status)
	}
	if e.Err != nil {
		t.Errorf("recovery must clear the error, got %v", e.Err)
	}
}

func TestStore_SetDegraded(t *testing.T) {
	s := NewStore(nil)
	key := core.MarketDataKey("RELIANCE.NS")

	s.SetDegraded(key, core.Quote{Symbol: "RELIANCE.NS", Price: 2500}, core.ErrNetwork)

	e := s.Get(key)
	if e.Status != StatusDegraded {
		t.Fatalf("expected status %q, got %q", StatusDegraded, e.Status)
	}
	if !e.HasValue() {
		t.Error("degraded entry must still hold a value")
	}
	if e.Err == nil {
		t.Error("degraded entry must record the underlying error")
	}
}

func TestStore_SetFailedRetainsLastGood(t *testing.T) {
	first := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	s := NewStore(nil)
	s.now = fixedClock(first)

	key := core.SignalsKey("HDFCBANK.NS")
	signals := []core.Signal{{Symbol: "HDFCBANK.NS", Type: core.SignalBuy, Confidence: 0.7}}
	s.SetReady(key, signals)

	s.now = fixedClock(first.Add(30 * time.Second))
	s.SetFailed(key, core.HTTPError(503))

	e := s.Get(key)
	if e.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, e.Status)
	}
	if e.Value == nil {
		t.Fatal("failed entry must retain the last known-good value")
	}
	got, ok := e.Value.([]core.Signal)
	if !ok || len(got) != 1 {
		t.Fatalf("retained value corrupted: %v", e.Value)
	}
	if e.Err == nil {
		t.Error("failed entry must record the error")
	}
	if !e.LastUpdated.Equal(first) {
		t.Errorf("LastUpdated must still name the good data's arrival, got %v", e.LastUpdated)
	}
}

func TestStore_MarkLoading(t *testing.T) {
	s := NewStore(nil)
	key := core.MarketDataKey("WIPRO.NS")

	s.MarkLoading(key)
	if got := s.Get(key).Status; got != StatusLoading {
		t.Errorf("first fetch should show %q, got %q", StatusLoading, got)
	}

	s.SetReady(key, core.Quote{Symbol: "WIPRO.NS", Price: 450})
	s.MarkLoading(key)
	if got := s.Get(key).Status; got != StatusReady {
		t.Errorf("refresh must not blank an entry with data, got %q", got)
	}
}

func TestStore_SubscribeNotifiesSynchronously(t *testing.T) {
	s := NewStore(nil)
	key := core.MarketDataKey("RELIANCE.NS")

	var seen []Entry
	unsubscribe := s.Subscribe(key, func(e Entry) {
		seen = append(seen, e)
	})

	s.SetReady(key, core.Quote{Symbol: "RELIANCE.NS", Price: 2510})
	if len(seen) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(seen))
	}
	if seen[0].Status != StatusReady {
		t.Errorf("expected notified status %q, got %q", StatusReady, seen[0].Status)
	}

	unsubscribe()
	s.SetReady(key, core.Quote{Symbol: "RELIANCE.NS", Price: 2512})
	if len(seen) != 1 {
		t.Errorf("unsubscribed listener still notified, have %d events", len(seen))
	}
}

func TestStore_SubscribeOtherKeyNotNotified(t *testing.T) {
	s := NewStore(nil)

	var calls int
	defer s.Subscribe(core.MarketDataKey("TCS.NS"), func(Entry) { calls++ })()

	s.SetReady(core.MarketDataKey("INFY.NS"), core.Quote{Symbol: "INFY.NS", Price: 1500})
	if calls != 0 {
		t.Errorf("listener for another key fired %d times", calls)
	}
}

func TestStore_SubscribeAll(t *testing.T) {
	s := NewStore(nil)

	var keys []string
	unsubscribe := s.SubscribeAll(func(e Entry) {
		keys = append(keys, e.Key.String())
	})

	s.SetReady(core.MarketDataKey("INFY.NS"), core.Quote{Symbol: "INFY.NS", Price: 1500})
	s.SetFailed(core.SignalsKey("INFY.NS"), core.ErrNetwork)
	if len(keys) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(keys))
	}

	unsubscribe()
	s.SetReady(core.MarketDataKey("TCS.NS"), core.Quote{Symbol: "TCS.NS", Price: 3900})
	if len(keys) != 2 {
		t.Errorf("unsubscribed global listener still notified, have %d events", len(keys))
	}
}

func TestStore_ListenerPanicDoesNotStarvePeers(t *testing.T) {
	s := NewStore(nil)
	key := core.MarketDataKey("RELIANCE.NS")

	s.Subscribe(key, func(Entry) { panic("render bug") })
	var survived bool
	s.Subscribe(key, func(Entry) { survived = true })

	s.SetReady(key, core.Quote{Symbol: "RELIANCE.NS", Price: 2500})

	if !survived {
		t.Error("second listener must still run after the first panicked")
	}
	if got := s.Get(key).Status; got != StatusReady {
		t.Errorf("store state corrupted by listener panic: %q", got)
	}
}

func TestStore_SnapshotSorted(t *testing.T) {
	s := NewStore(nil)
	s.SetReady(core.SignalsKey("TCS.NS"), []core.Signal{})
	s.SetReady(core.MarketDataKey("INFY.NS"), core.Quote{Symbol: "INFY.NS", Price: 1500})
	s.SetReady(core.CandlesKey("INFY.NS", "5m"), []core.Candle{})

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i-1].Key.String() >= snap[i].Key.String() {
			t.Errorf("snapshot out of order at %d: %q >= %q",
				i, snap[i-1].Key.String(), snap[i].Key.String())
		}
	}
}

func TestStore_Evict(t *testing.T) {
	s := NewStore(nil)
	key := core.MarketDataKey("INFY.NS")
	s.SetReady(key, core.Quote{Symbol: "INFY.NS", Price: 1500})

	var last Entry
	defer s.SubscribeAll(func(e Entry) { last = e })()

	s.Evict(key)

	if got := s.Get(key).Status; got != StatusIdle {
		t.Errorf("evicted key should read as %q, got %q", StatusIdle, got)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, have %d entries", s.Len())
	}
	if last.Status != StatusIdle {
		t.Errorf("eviction should notify with an idle entry, got %q", last.Status)
	}

	// Evicting an absent key is a no-op and must not notify.
	last = Entry{Status: "sentinel"}
	s.Evict(key)
	if last.Status != "sentinel" {
		t.Error("evicting an absent key must not notify")
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore(nil)
	key := core.MarketDataKey("RELIANCE.NS")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(price float64) {
			defer wg.Done()
			s.SetReady(key, core.Quote{Symbol: "RELIANCE.NS", Price: price})
		}(2400 + float64(i))
	}
	wg.Wait()

	e := s.Get(key)
	if e.Status != StatusReady {
		t.Fatalf("expected status %q, got %q", StatusReady, e.Status)
	}
	q, ok := e.Value.(core.Quote)
	if !ok {
		t.Fatalf("expected a core.Quote, got %T", e.Value)
	}
	if q.Price < 2400 || q.Price > 2449 {
		t.Errorf("price outside written range: %v", q.Price)
	}
}
