package sync

import "github.com/quaylabs/tidesync/internal/notify"

// Action is the pending work recorded for a key within one debounce window.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// Aggregator collapses bursts of change events into one pending action per
// key. It is owned by a single goroutine; there is no locking because there is
// exactly one producer and one consumer, the event loop itself.
//
// Entries are last-arrival-wins, not last-source-commit-wins: concurrent
// writers to the same key inside one window can be recorded out of commit
// order. This is a known limitation; re-reading authoritative state at apply
// time keeps the outcome convergent regardless.
type Aggregator struct {
	pending map[string]Action
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{pending: map[string]Action{}}
}

// Add records the latest-seen action for the event's key, overwriting any
// prior entry for the same key.
func (a *Aggregator) Add(event notify.Event) {
	if event.Operation == notify.OpDelete {
		a.pending[event.Key] = ActionDelete
		return
	}
	a.pending[event.Key] = ActionUpsert
}

// Len reports the number of pending keys.
func (a *Aggregator) Len() int {
	return len(a.pending)
}

// Flush hands over the accumulated actions and resets the aggregator.
func (a *Aggregator) Flush() map[string]Action {
	out := a.pending
	a.pending = map[string]Action{}
	return out
}
