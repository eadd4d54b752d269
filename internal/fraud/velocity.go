package fraud

import (
	"context"
	"sync"
	"time"
)

// VelocityTracker maintains a sliding window of recent transaction
// timestamps per user. One instance is shared by all concurrent scoring
// calls; each user's window has its own lock so calls for different
// users never contend.
type VelocityTracker struct {
	windows sync.Map // map[string]*userWindow
	window  time.Duration
}

type userWindow struct {
	mu     sync.Mutex
	stamps []time.Time
}

// NewVelocityTracker creates a tracker with the given sliding window.
func NewVelocityTracker(window time.Duration) *VelocityTracker {
	if window <= 0 {
		window = DefaultVelocityWindow
	}
	return &VelocityTracker{window: window}
}

// RecordAndCount prunes the user's history to instants strictly after
// now-window, appends now, and returns the resulting count (inclusive
// of the entry just added). Unknown users start with an empty history.
//
// The prune-append-store sequence is atomic per user. Callers must
// invoke this exactly once per analysis: recording is irreversible and
// a second call for the same transaction double-counts velocity.
func (t *VelocityTracker) RecordAndCount(userID string, now time.Time) int {
	for {
		w := t.getWindow(userID)
		w.mu.Lock()
		// The sweeper may have removed this window between LoadOrStore
		// and Lock. It deletes under the window lock, so once we hold
		// the lock a map check tells us whether we raced; retry if so.
		if cur, ok := t.windows.Load(userID); !ok || cur != any(w) {
			w.mu.Unlock()
			continue
		}

		cutoff := now.Add(-t.window)
		kept := w.stamps[:0]
		for _, ts := range w.stamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		w.stamps = append(kept, now)
		n := len(w.stamps)
		w.mu.Unlock()
		return n
	}
}

// TrackedUsers returns the number of users currently holding a window,
// including windows whose entries have all aged out. Used for metrics
// and by the sweeper.
func (t *VelocityTracker) TrackedUsers() int {
	n := 0
	t.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Sweep removes windows whose newest entry is older than the tracking
// window, so users with no recent activity don't accumulate forever.
// Returns the number of windows removed.
func (t *VelocityTracker) Sweep(now time.Time) int {
	cutoff := now.Add(-t.window)
	removed := 0
	t.windows.Range(func(key, value any) bool {
		w := value.(*userWindow)
		w.mu.Lock()
		stale := len(w.stamps) == 0 || !w.stamps[len(w.stamps)-1].After(cutoff)
		if stale {
			// Empty the window before dropping the map entry so a
			// concurrent RecordAndCount holding the old pointer starts
			// from a clean history.
			w.stamps = nil
			t.windows.Delete(key)
			removed++
		}
		w.mu.Unlock()
		return true
	})
	return removed
}

// RunSweeper sweeps stale windows on the given interval until ctx is
// cancelled. Call in a goroutine.
func (t *VelocityTracker) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep(time.Now())
		}
	}
}

func (t *VelocityTracker) getWindow(userID string) *userWindow {
	v, _ := t.windows.LoadOrStore(userID, &userWindow{})
	return v.(*userWindow)
}
