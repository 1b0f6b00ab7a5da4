package database

import (
	"sync"
)

// Notifier fans out change signals per collection to in-process listeners.
// Each listener has a one-slot buffer: signals coalesce while a listener is busy,
// so writers never block and a listener always re-reads the newest state.
type Notifier struct {
	mu        sync.Mutex
	listeners map[string]map[int]chan struct{}
	nextID    int
	closed    bool
}

func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[string]map[int]chan struct{})}
}

// Listen registers a listener for collection. The returned cancel func is idempotent.
func (n *Notifier) Listen(collection string) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan struct{}, 1)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	if n.listeners[collection] == nil {
		n.listeners[collection] = make(map[int]chan struct{})
	}
	n.listeners[collection][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if l, ok := n.listeners[collection][id]; ok {
				delete(n.listeners[collection], id)
				close(l)
			}
		})
	}
	return ch, cancel
}

// Notify signals every listener of the given collections.
func (n *Notifier) Notify(collections ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, c := range collections {
		for _, ch := range n.listeners[c] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Close closes every listener channel; later Listen calls get a closed channel.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for _, byID := range n.listeners {
		for id, ch := range byID {
			delete(byID, id)
			close(ch)
		}
	}
}
