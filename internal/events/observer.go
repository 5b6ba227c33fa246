package events

import (
	"sync"

	"github.com/finsight-labs/conclave/internal/core"
	"github.com/finsight-labs/conclave/internal/logging"
)

// Observer receives a session snapshot on every phase or progress change.
type Observer func(snapshot core.SessionSnapshot)

// ObserverList is an explicit register/unregister/notify abstraction over
// progress callbacks. A panicking observer is caught and logged, never
// allowed to abort the session that notified it.
type ObserverList struct {
	mu        sync.RWMutex
	nextID    int
	observers map[int]Observer
	logger    *logging.Logger
}

// NewObserverList creates an empty observer list.
func NewObserverList(logger *logging.Logger) *ObserverList {
	return &ObserverList{
		observers: make(map[int]Observer),
		logger:    logger,
	}
}

// Register adds an observer and returns its handle for Unregister.
func (o *ObserverList) Register(fn Observer) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	o.observers[o.nextID] = fn
	return o.nextID
}

// Unregister removes an observer by handle.
func (o *ObserverList) Unregister(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.observers, id)
}

// Len returns the number of registered observers.
func (o *ObserverList) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.observers)
}

// Notify invokes every observer with the snapshot, isolating failures.
func (o *ObserverList) Notify(snapshot core.SessionSnapshot) {
	o.mu.RLock()
	observers := make([]Observer, 0, len(o.observers))
	for _, fn := range o.observers {
		observers = append(observers, fn)
	}
	o.mu.RUnlock()

	for _, fn := range observers {
		o.safeNotify(fn, snapshot)
	}
}

func (o *ObserverList) safeNotify(fn Observer, snapshot core.SessionSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("observer panicked",
				"session_id", snapshot.SessionID,
				"panic", r,
			)
		}
	}()
	fn(snapshot)
}
