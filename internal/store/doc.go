// Package store manages the single in-memory telemetry snapshot and its
// fan-out to push subscribers.
//
// Store holds exactly one current Snapshot together with its canonical
// serialized frame, the wall-clock time of the last successful update and the
// last observed file modification time. Update replaces all snapshot state in
// one critical section, then enqueues the frame into every registered
// subscriber channel without blocking: a subscriber whose queue (depth 4) is
// full misses that frame and nothing else — since every frame carries the
// complete latest state, the next delivered frame makes it consistent again.
//
// Subscribe/Unsubscribe manage the registration set. Channels are owned by
// their sessions; the store never closes them.
package store
