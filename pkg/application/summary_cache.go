package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/feedback/pkg/domain/summary"
	"github.com/felixgeelhaar/fortify/timeout"
	"golang.org/x/sync/singleflight"
)

// DefaultSummaryTimeout bounds a single summary generation.
const DefaultSummaryTimeout = 60 * time.Second

type summaryEntry struct {
	machine *summary.Machine
	text    string
}

// SummaryCache holds the per-item summaries of the current session. Each item
// runs its own state machine; duplicate requests for an item that is already
// loading join the outstanding fetch instead of starting another one.
type SummaryCache struct {
	summarizer Summarizer
	timeout    time.Duration
	logger     *slog.Logger
	group      singleflight.Group

	mu       sync.Mutex
	entries  map[int]*summaryEntry
	gen      uint64
	onChange func(id int, entry summary.Entry)
}

func NewSummaryCache(summarizer Summarizer, timeout time.Duration, logger *slog.Logger) *SummaryCache {
	if timeout <= 0 {
		timeout = DefaultSummaryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryCache{
		summarizer: summarizer,
		timeout:    timeout,
		logger:     logger,
		entries:    make(map[int]*summaryEntry),
	}
}

// OnChange registers fn to be called after an entry changes state. fn runs
// without the cache lock held.
func (c *SummaryCache) OnChange(fn func(id int, entry summary.Entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Request moves id into loading. It returns false when a fetch for id is
// already outstanding. The loading state is visible to Entry and Snapshot
// as soon as Request returns.
func (c *SummaryCache) Request(id int) (bool, error) {
	c.mu.Lock()
	e, err := c.entryLocked(id)
	if err != nil {
		c.mu.Unlock()
		return false, err
	}
	if e.machine.Current().IsInFlight() {
		c.mu.Unlock()
		return false, nil
	}
	if err := e.machine.Transition(summary.EventRequest); err != nil {
		c.mu.Unlock()
		return false, err
	}
	e.text = ""
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify(id, summary.Entry{Status: summary.StatusLoading})
	}
	return true, nil
}

// Summarize requests a summary for id and waits for it. Concurrent calls for
// the same id share one backend request. The returned entry is resolved or
// failed; the error explains a failure.
func (c *SummaryCache) Summarize(ctx context.Context, id int) (summary.Entry, error) {
	if _, err := c.Request(id); err != nil {
		return summary.Entry{}, err
	}
	return c.Fetch(ctx, id)
}

// Fetch runs, or joins, the backend request for an id in loading. An id that
// is not loading returns its current entry without a request.
func (c *SummaryCache) Fetch(ctx context.Context, id int) (summary.Entry, error) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	key := fmt.Sprintf("%d/%d", gen, id)
	v, err, shared := c.group.Do(key, func() (any, error) {
		if entry, loading := c.loadingEntry(id, gen); !loading {
			return entry, nil
		}

		t := timeout.New[string](timeout.Config{DefaultTimeout: c.timeout})
		text, err := t.Execute(ctx, c.timeout, func(ctx context.Context) (string, error) {
			return c.summarizer.Summarize(ctx, id)
		})
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty summary")
		}
		return c.settle(id, gen, text, err)
	})
	if shared {
		c.logger.Debug("joined in-flight summary", "id", id)
	}

	entry, _ := v.(summary.Entry)
	return entry, err
}

// loadingEntry reports whether id is still loading in generation gen, and
// returns its current entry otherwise.
func (c *SummaryCache) loadingEntry(id int, gen uint64) (summary.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return summary.Entry{}, false
	}
	e, ok := c.entries[id]
	if !ok {
		return summary.Entry{Status: summary.StatusUnset}, false
	}
	if e.machine.Current().IsInFlight() {
		return summary.Entry{}, true
	}
	return summary.Entry{Status: e.machine.Current(), Text: e.text}, false
}

// settle records the outcome, unless the cache was reset since the fetch
// started.
func (c *SummaryCache) settle(id int, gen uint64, text string, fetchErr error) (summary.Entry, error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("dropped summary from previous session", "id", id)
		return summary.Entry{}, ErrSessionChanged
	}

	e, err := c.entryLocked(id)
	if err != nil {
		c.mu.Unlock()
		return summary.Entry{}, err
	}

	entry := summary.Entry{Status: summary.StatusResolved, Text: text}
	event := summary.EventResolve
	if fetchErr != nil {
		entry = summary.Entry{Status: summary.StatusFailed}
		event = summary.EventFail
		text = ""
	}
	if err := e.machine.Transition(event); err != nil {
		c.mu.Unlock()
		return summary.Entry{}, err
	}
	e.text = text
	notify := c.onChange
	c.mu.Unlock()

	if fetchErr != nil {
		c.logger.Warn("summary failed", "id", id, "error", fetchErr)
	}
	if notify != nil {
		notify(id, entry)
	}
	return entry, fetchErr
}

func (c *SummaryCache) entryLocked(id int) (*summaryEntry, error) {
	if e, ok := c.entries[id]; ok {
		return e, nil
	}
	m, err := summary.NewMachine(id)
	if err != nil {
		return nil, err
	}
	e := &summaryEntry{machine: m}
	c.entries[id] = e
	return e, nil
}

// Entry returns the current entry for id.
func (c *SummaryCache) Entry(id int) summary.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return summary.Entry{Status: summary.StatusUnset}
	}
	return summary.Entry{Status: e.machine.Current(), Text: e.text}
}

// Snapshot returns the display text of every non-unset entry.
func (c *SummaryCache) Snapshot() map[int]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]string, len(c.entries))
	for id, e := range c.entries {
		entry := summary.Entry{Status: e.machine.Current(), Text: e.text}
		if text := entry.Display(); text != "" {
			out[id] = text
		}
	}
	return out
}

// Reset forgets every entry. Fetches still outstanding are discarded when
// they complete.
func (c *SummaryCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[int]*summaryEntry)
}
