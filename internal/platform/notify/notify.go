// Package notify calls registered callbacks in registration order.
package notify

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

type Subscription uint64

type entry struct {
	id Subscription
	fn func()
}

type Notifier struct {
	name string

	mu     sync.Mutex
	nextID Subscription
	subs   []entry
}

func New(name string) *Notifier {
	return &Notifier{name: name}
}

func (n *Notifier) Name() string { return n.name }

func (n *Notifier) Subscribe(fn func()) Subscription {
	if fn == nil {
		panic("notify: nil callback")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.subs = append(n.subs, entry{id: n.nextID, fn: fn})
	return n.nextID
}

func (n *Notifier) Unsubscribe(s Subscription) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, e := range n.subs {
		if e.id == s {
			subs := make([]entry, 0, len(n.subs)-1)
			subs = append(subs, n.subs[:i]...)
			n.subs = append(subs, n.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Notify runs on a snapshot; panics are recovered and combined.
func (n *Notifier) Notify() error {
	n.mu.Lock()
	subs := n.subs
	n.mu.Unlock()

	var errs error
	for _, e := range subs {
		errs = multierr.Append(errs, n.call(e))
	}
	return errs
}

func (n *Notifier) call(e entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: subscriber %d panicked: %v", n.name, e.id, r)
		}
	}()
	e.fn()
	return nil
}
