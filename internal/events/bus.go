// Package events carries lifecycle events between the pipeline and its
// observers: a small typed in-process bus, plus an optional JetStream
// publisher for external consumers.
package events

import (
	"sync"
)

// Event is the union of lifecycle notifications published by the pipeline.
type Event interface {
	Kind() string
}

// BuildStarted fires when a render begins.
type BuildStarted struct {
	SiteID  int64
	Version int
}

func (BuildStarted) Kind() string { return "build.started" }

// BuildCompleted fires when a render finishes, successfully or not.
type BuildCompleted struct {
	SiteID     int64
	Version    int
	OutputPath string
	Success    bool
	Error      string
}

func (BuildCompleted) Kind() string { return "build.completed" }

// DeployStarted fires when an upload begins.
type DeployStarted struct {
	SiteID int64
	Domain string
}

func (DeployStarted) Kind() string { return "deploy.started" }

// DeployCompleted fires after the symlink flip (or a failed attempt).
type DeployCompleted struct {
	SiteID  int64
	Domain  string
	Release string
	Success bool
	Error   string
}

func (DeployCompleted) Kind() string { return "deploy.completed" }

// RolledBack fires when the current symlink is repointed backwards.
type RolledBack struct {
	SiteID        int64
	Domain        string
	TargetVersion int
}

func (RolledBack) Kind() string { return "deploy.rolled_back" }

// GenerationCompleted fires when a content batch finishes.
type GenerationCompleted struct {
	SiteID    int64
	Succeeded int
	Failed    int
}

func (GenerationCompleted) Kind() string { return "generation.completed" }

// Bus is a small in-process fan-out for Events. Publish never blocks: a
// subscriber that has fallen behind drops events rather than stalling the
// pipeline. Not durable; wire the JetStream publisher for that.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a buffered subscription. The returned cancel func
// closes the channel and removes the subscription.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber with buffer space.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Close shuts the bus down and closes all subscription channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
