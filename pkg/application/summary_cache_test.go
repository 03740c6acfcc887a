package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/feedback/pkg/application"
	"github.com/felixgeelhaar/feedback/pkg/domain/summary"
)

func TestSummaryCache_Resolve(t *testing.T) {
	b := newFakeBackend()
	c := application.NewSummaryCache(b, time.Second, nil)

	if got := c.Entry(1).Status; got != summary.StatusUnset {
		t.Fatalf("initial status = %q", got)
	}

	entry, err := c.Summarize(context.Background(), 1)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if entry.Status != summary.StatusResolved || entry.Text != "A short summary." {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if got := c.Snapshot()[1]; got != "A short summary." {
		t.Errorf("snapshot = %q", got)
	}
}

func TestSummaryCache_LoadingIsVisibleBeforeFetch(t *testing.T) {
	b := newFakeBackend()
	b.SummaryGate = make(chan struct{})
	c := application.NewSummaryCache(b, time.Second, nil)

	started, err := c.Request(7)
	if err != nil || !started {
		t.Fatalf("Request = %v, %v", started, err)
	}
	if got := c.Snapshot()[7]; got != summary.LoadingText {
		t.Errorf("snapshot during load = %q, want %q", got, summary.LoadingText)
	}
	if again, _ := c.Request(7); again {
		t.Error("second Request while loading must report false")
	}

	done := make(chan summary.Entry)
	go func() {
		e, _ := c.Fetch(context.Background(), 7)
		done <- e
	}()
	close(b.SummaryGate)

	if e := <-done; e.Status != summary.StatusResolved {
		t.Errorf("status after fetch = %q", e.Status)
	}
}

func TestSummaryCache_DeduplicatesConcurrentRequests(t *testing.T) {
	b := newFakeBackend()
	b.SummaryGate = make(chan struct{})
	c := application.NewSummaryCache(b, 5*time.Second, nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]summary.Entry, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Summarize(context.Background(), 3)
		}(i)
	}

	// Wait until the first fetch is outstanding before releasing it.
	deadline := time.Now().Add(2 * time.Second)
	for b.summarizeCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(b.SummaryGate)
	wg.Wait()

	if n := b.summarizeCalls.Load(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
	for i, r := range results {
		if r.Status != summary.StatusResolved {
			t.Errorf("caller %d got %+v", i, r)
		}
	}
}

func TestSummaryCache_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *fakeBackend)
	}{
		{"backend error", func(b *fakeBackend) { b.SummaryErr = errors.New("model offline") }},
		{"empty summary", func(b *fakeBackend) { b.SummaryText = "   " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			tt.setup(b)
			c := application.NewSummaryCache(b, time.Second, nil)

			entry, err := c.Summarize(context.Background(), 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if entry.Status != summary.StatusFailed {
				t.Errorf("status = %q, want failed", entry.Status)
			}
			if got := c.Snapshot()[1]; got != summary.FailedText {
				t.Errorf("snapshot = %q, want %q", got, summary.FailedText)
			}
		})
	}
}

func TestSummaryCache_RetryAfterTerminal(t *testing.T) {
	b := newFakeBackend()
	b.SummaryErr = errors.New("first attempt fails")
	c := application.NewSummaryCache(b, time.Second, nil)
	ctx := context.Background()

	if _, err := c.Summarize(ctx, 1); err == nil {
		t.Fatal("expected first attempt to fail")
	}

	b.mu.Lock()
	b.SummaryErr = nil
	b.mu.Unlock()

	entry, err := c.Summarize(ctx, 1)
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if entry.Status != summary.StatusResolved {
		t.Errorf("status = %q", entry.Status)
	}
	if n := b.summarizeCalls.Load(); n != 2 {
		t.Errorf("backend calls = %d, want 2", n)
	}
}

func TestSummaryCache_ResetDropsLateResult(t *testing.T) {
	b := newFakeBackend()
	b.SummaryGate = make(chan struct{})
	c := application.NewSummaryCache(b, 5*time.Second, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Summarize(context.Background(), 1)
		errc <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for b.summarizeCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	c.Reset()
	close(b.SummaryGate)

	if err := <-errc; !errors.Is(err, application.ErrSessionChanged) {
		t.Fatalf("expected ErrSessionChanged, got %v", err)
	}
	if snap := c.Snapshot(); len(snap) != 0 {
		t.Errorf("late result leaked into reset cache: %v", snap)
	}
}

func TestSummaryCache_Timeout(t *testing.T) {
	b := newFakeBackend()
	b.SummaryGate = make(chan struct{})
	defer close(b.SummaryGate)
	c := application.NewSummaryCache(b, 20*time.Millisecond, nil)

	entry, err := c.Summarize(context.Background(), 1)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if entry.Status != summary.StatusFailed {
		t.Errorf("status = %q, want failed", entry.Status)
	}
}

func TestSummaryCache_OnChange(t *testing.T) {
	b := newFakeBackend()
	c := application.NewSummaryCache(b, time.Second, nil)

	var mu sync.Mutex
	var seen []summary.Status
	c.OnChange(func(_ int, e summary.Entry) {
		mu.Lock()
		seen = append(seen, e.Status)
		mu.Unlock()
	})

	if _, err := c.Summarize(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != summary.StatusLoading || seen[1] != summary.StatusResolved {
		t.Errorf("transitions = %v", seen)
	}
}
