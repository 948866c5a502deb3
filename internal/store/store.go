package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fleetglass/fleetglass/internal/metrics"
	"github.com/fleetglass/fleetglass/internal/telemetry"
)

// subscriberBuffer is the per-subscriber frame queue depth. Small on purpose:
// a subscriber that falls this far behind is shedding load, not buffering it.
const subscriberBuffer = 4

// ageInterval is how often the background loop refreshes the snapshot-age gauge.
const ageInterval = 5 * time.Second

// Store is the thread-safe holder of the current telemetry snapshot.
// It is the only state shared between the watcher, the push sessions and the
// REST handlers.
type Store struct {
	clock clockwork.Clock

	mu          sync.RWMutex
	snap        telemetry.Snapshot
	frame       []byte
	lastUpdate  time.Time
	fileModTime time.Time

	// Listener registration is guarded separately so fan-out and
	// subscription never contend with snapshot reads.
	lmu       sync.RWMutex
	listeners map[chan []byte]struct{}
}

// New creates an empty Store stamping update times from clock.
func New(clock clockwork.Clock) *Store {
	return &Store{
		clock:     clock,
		listeners: make(map[chan []byte]struct{}),
	}
}

// Update replaces the current snapshot and frame and stamps lastUpdate in a
// single critical section, then fans the frame out to all subscribers
// registered before fan-out begins. Delivery is best-effort: a full
// subscriber queue drops this frame for that subscriber only.
func (s *Store) Update(snap telemetry.Snapshot, frame []byte) {
	s.mu.Lock()
	s.snap = snap
	s.frame = frame
	s.lastUpdate = s.clock.Now()
	s.mu.Unlock()

	s.broadcast(frame)
	metrics.UpdatesTotal.Inc()
	metrics.SnapshotAge.Set(0)
}

// broadcast enqueues frame into every registered channel without blocking.
// It runs outside the snapshot critical section so a slow fan-out never
// stalls concurrent updates or reads.
func (s *Store) broadcast(frame []byte) {
	s.lmu.RLock()
	targets := make([]chan []byte, 0, len(s.listeners))
	for ch := range s.listeners {
		targets = append(targets, ch)
	}
	s.lmu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- frame:
		default:
			// Queue full — this subscriber skips the frame and stays
			// registered. The next delivered frame carries the full state.
			metrics.FramesDropped.Inc()
		}
	}
}

// Get returns a deep copy of the current snapshot, or nil before the first
// successful update. Callers may mutate the result freely.
func (s *Store) Get() telemetry.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Frame returns the canonical serialized form of the current snapshot, or
// nil before the first update. The returned slice must not be modified.
func (s *Store) Frame() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// LastUpdate returns when the snapshot was last replaced, zero if never.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// FileModTime returns the last recorded modification time of the telemetry file.
func (s *Store) FileModTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileModTime
}

// SetFileModTime records the modification time the watcher observed. Used to
// coalesce duplicate OS notifications for a single write.
func (s *Store) SetFileModTime(t time.Time) {
	s.mu.Lock()
	s.fileModTime = t
	s.mu.Unlock()
}

// Subscribe registers and returns a new subscriber channel. The caller owns
// the channel and must call Unsubscribe when done with it.
func (s *Store) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	s.lmu.Lock()
	s.listeners[ch] = struct{}{}
	s.lmu.Unlock()
	metrics.Subscribers.Inc()
	return ch
}

// Unsubscribe removes ch from the registration set. Removing an unknown or
// already-removed channel is a no-op.
func (s *Store) Unsubscribe(ch chan []byte) {
	s.lmu.Lock()
	_, ok := s.listeners[ch]
	if ok {
		delete(s.listeners, ch)
	}
	s.lmu.Unlock()
	if ok {
		metrics.Subscribers.Dec()
	}
}

// SubscriberCount returns the number of currently registered subscriber channels.
func (s *Store) SubscriberCount() int {
	s.lmu.RLock()
	defer s.lmu.RUnlock()
	return len(s.listeners)
}

// Run refreshes the snapshot-age gauge periodically. Blocks until ctx is
// cancelled.
func (s *Store) Run(ctx context.Context) {
	t := s.clock.NewTicker(ageInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			if lu := s.LastUpdate(); !lu.IsZero() {
				metrics.SnapshotAge.Set(s.clock.Since(lu).Seconds())
			}
		}
	}
}
