package window

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// EventKind discriminates the Event union.
type EventKind int

const (
	// EventCloseRequested is emitted when the user asks the window to close.
	EventCloseRequested EventKind = iota

	// EventKeyPressed is emitted for key presses and repeats. Key is set.
	EventKeyPressed

	// EventResized is emitted when the framebuffer changes size. Width and Height are set.
	EventResized

	// EventScaleFactorChanged is emitted when the content scale changes, for example when the
	// window moves to a display with a different density. Width and Height carry the new
	// framebuffer size.
	EventScaleFactorChanged

	// EventRedrawRequested is emitted once per poll after RequestRedraw was called.
	EventRedrawRequested

	// EventAllEventsProcessed is always the last event of a poll.
	EventAllEventsProcessed
)

func (k EventKind) String() string {
	switch k {
	case EventCloseRequested:
		return "CloseRequested"
	case EventKeyPressed:
		return "KeyPressed"
	case EventResized:
		return "Resized"
	case EventScaleFactorChanged:
		return "ScaleFactorChanged"
	case EventRedrawRequested:
		return "RedrawRequested"
	case EventAllEventsProcessed:
		return "AllEventsProcessed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one window or input event. Only the fields documented on its Kind are set.
type Event struct {
	Kind   EventKind
	Key    common.KeyCode
	Width  int
	Height int
}

// eventQueue collects events raised by platform callbacks between two polls.
// It is only touched from the thread that polls the window.
type eventQueue struct {
	pending []Event
	redraw  bool
}

func (q *eventQueue) push(e Event) {
	q.pending = append(q.pending, e)
}

func (q *eventQueue) requestRedraw() {
	q.redraw = true
}

// drain returns the queued events followed by a pending redraw, if any, and the
// end-of-batch marker. The queue is empty afterwards.
func (q *eventQueue) drain() []Event {
	out := q.pending
	q.pending = nil
	if q.redraw {
		q.redraw = false
		out = append(out, Event{Kind: EventRedrawRequested})
	}
	return append(out, Event{Kind: EventAllEventsProcessed})
}
