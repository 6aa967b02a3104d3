// Package status implements the console's transient status messages.
//
// A Region shows one message at a time and hides it after a duration. It
// owns a single pending timer: every Show, ShowFor or Hide cancels whatever
// dismissal was scheduled before, so an old timer can never hide a newer
// message.
package status

import (
	"sync"
	"time"
)

// Kind is the style of a status message.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
	Warning Kind = "warning"
)

// Message is what a region currently displays.
type Message struct {
	Text    string
	Kind    Kind
	Visible bool
}

// NotifyFunc receives every change of a region.
type NotifyFunc func(name string, msg Message)

// Region is a named status area with a single-slot dismiss timer.
type Region struct {
	name   string
	ttl    time.Duration
	notify NotifyFunc

	mu    sync.Mutex
	msg   Message
	gen   uint64
	timer *time.Timer
}

// NewRegion creates a region that hides messages after ttl.
// notify may be nil.
func NewRegion(name string, ttl time.Duration, notify NotifyFunc) *Region {
	return &Region{name: name, ttl: ttl, notify: notify}
}

// Name returns the region name.
func (r *Region) Name() string {
	return r.name
}

// Show displays text for the region's default duration.
func (r *Region) Show(text string, kind Kind) {
	r.ShowFor(text, kind, r.ttl)
}

// ShowFor displays text for d, replacing any current message.
// A non-positive d keeps the message until the next call.
func (r *Region) ShowFor(text string, kind Kind, d time.Duration) {
	r.mu.Lock()
	r.stopLocked()
	r.gen++
	gen := r.gen
	r.msg = Message{Text: text, Kind: kind, Visible: true}
	msg := r.msg
	if d > 0 {
		r.timer = time.AfterFunc(d, func() { r.expire(gen) })
	}
	r.mu.Unlock()

	r.publish(msg)
}

// Hide hides the current message immediately.
func (r *Region) Hide() {
	r.mu.Lock()
	r.stopLocked()
	r.gen++
	r.msg.Visible = false
	msg := r.msg
	r.mu.Unlock()

	r.publish(msg)
}

// Current returns the message on display.
func (r *Region) Current() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msg
}

func (r *Region) expire(gen uint64) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	r.msg.Visible = false
	msg := r.msg
	r.mu.Unlock()

	r.publish(msg)
}

func (r *Region) stopLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Region) publish(msg Message) {
	if r.notify != nil {
		r.notify(r.name, msg)
	}
}
