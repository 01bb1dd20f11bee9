package pubsub

import "slices"

// Wildcard is the reserved path whose subscribers receive every notification.
const Wildcard = "*"

// Callback receives a change notification for one path.
type Callback func(newValue, oldValue any, path string)

// PanicHandler is invoked when a callback panics during Notify.
type PanicHandler func(path string, recovered any)

type subscription struct {
	id int
	cb Callback
}

// Bus is a synchronous, path-keyed observer registry.
//
// Unlike Broker, delivery happens on the caller's goroutine before Notify
// returns. Bus is not safe for concurrent use.
type Bus struct {
	subs    map[string][]subscription
	nextID  int
	onPanic PanicHandler
}

// NewBus creates an empty bus. onPanic may be nil.
func NewBus(onPanic PanicHandler) *Bus {
	return &Bus{
		subs:    make(map[string][]subscription),
		onPanic: onPanic,
	}
}

// Subscribe registers cb under path and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(path string, cb Callback) func() {
	b.nextID++
	id := b.nextID
	b.subs[path] = append(b.subs[path], subscription{id: id, cb: cb})

	return func() {
		list := b.subs[path]
		idx := slices.IndexFunc(list, func(s subscription) bool { return s.id == id })
		if idx < 0 {
			return
		}
		list = slices.Delete(slices.Clone(list), idx, idx+1)
		if len(list) == 0 {
			delete(b.subs, path)
			return
		}
		b.subs[path] = list
	}
}

// Notify calls every callback registered at path in registration order,
// then every wildcard callback. A panicking callback is reported to the
// panic handler and does not stop the remaining callbacks.
func (b *Bus) Notify(path string, newValue, oldValue any) {
	// Snapshot the lists so subscribe/unsubscribe inside a callback only
	// affects later notifications.
	direct := b.subs[path]
	var wild []subscription
	if path != Wildcard {
		wild = b.subs[Wildcard]
	}

	for _, s := range direct {
		b.invoke(s.cb, path, newValue, oldValue)
	}
	for _, s := range wild {
		b.invoke(s.cb, path, newValue, oldValue)
	}
}

// SubscriberCount returns the number of callbacks registered at path.
func (b *Bus) SubscriberCount(path string) int {
	return len(b.subs[path])
}

func (b *Bus) invoke(cb Callback, path string, newValue, oldValue any) {
	defer func() {
		if r := recover(); r != nil && b.onPanic != nil {
			b.onPanic(path, r)
		}
	}()
	cb(newValue, oldValue, path)
}
