package workflow

import (
	"cineboard/internal/session"
	"cineboard/internal/storyboard"
)

const subscriberBuffer = 64

// Update is published after every accepted session event.
type Update struct {
	Event         string           `json:"event"`
	Phase         storyboard.Phase `json:"phase"`
	ChangedScenes []int            `json:"changedScenes,omitempty"`
	State         session.State    `json:"state"`
}

// Subscribe returns a channel of updates and a function that ends the
// subscription. A slow subscriber loses its oldest pending updates; the
// newest one always carries the full state.
func (o *Orchestrator) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	o.mu.Unlock()

	unsubscribe := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if sub, ok := o.subs[id]; ok {
			close(sub)
			delete(o.subs, id)
		}
	}
	return ch, unsubscribe
}

func (o *Orchestrator) publishLocked(ev session.Event, state session.State, changed []int) {
	if len(o.subs) == 0 {
		return
	}
	for _, ch := range o.subs {
		update := Update{
			Event:         session.EventName(ev),
			Phase:         state.Phase,
			ChangedScenes: append([]int(nil), changed...),
			State:         state.Clone(),
		}
		select {
		case ch <- update:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- update:
		default:
		}
	}
}
