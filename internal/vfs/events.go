package vfs

// EventType identifies a repository change event.
type EventType string

const (
	EventCreate  EventType = "create"
	EventDelete  EventType = "delete"
	EventRestore EventType = "restore"
	EventRename  EventType = "rename"
	EventMove    EventType = "move"
	EventRead    EventType = "read"
	EventWrite   EventType = "write"
	EventRefresh EventType = "refresh"
)

// Event is pushed to listeners after a repository operation has been applied
// and persisted. Item is a clone of the affected item, or nil for events
// without a single subject (refresh, hard delete).
type Event struct {
	Type      EventType
	Item      *Item
	Timestamp int64
}

// Listener receives repository change events. Listeners are invoked after
// the repository releases its internal lock, so a listener may call back
// into the repository.
type Listener func(Event)

// subscribe registers a listener and returns its token.
func (r *Repository) subscribe(l Listener) int {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.nextSub++
	r.subs[r.nextSub] = l
	return r.nextSub
}

// Subscribe registers a listener for change events and returns an
// unsubscribe function. No ordering is guaranteed between listeners.
func (r *Repository) Subscribe(l Listener) (unsubscribe func()) {
	token := r.subscribe(l)
	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subs, token)
	}
}

// emit dispatches an event to all listeners. Must be called without r.mu
// held; the listener set is copied first so listeners may unsubscribe or
// re-enter the repository while being notified.
func (r *Repository) emit(typ EventType, item *Item) {
	r.subMu.Lock()
	listeners := make([]Listener, 0, len(r.subs))
	for _, l := range r.subs {
		listeners = append(listeners, l)
	}
	r.subMu.Unlock()

	ev := Event{Type: typ, Item: item, Timestamp: r.clock.Now().UnixMilli()}
	for _, l := range listeners {
		l(ev)
	}
}
