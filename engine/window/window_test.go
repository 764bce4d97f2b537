package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/stretchr/testify/assert"
)

func TestDrainEndsWithAllEventsProcessed(t *testing.T) {
	var q eventQueue
	assert.Equal(t, []Event{{Kind: EventAllEventsProcessed}}, q.drain())
}

func TestDrainPreservesArrivalOrder(t *testing.T) {
	var q eventQueue
	q.push(Event{Kind: EventResized, Width: 800, Height: 600})
	q.push(Event{Kind: EventKeyPressed, Key: common.KeyEscape})
	q.requestRedraw()
	q.push(Event{Kind: EventCloseRequested})

	got := q.drain()
	assert.Equal(t, []Event{
		{Kind: EventResized, Width: 800, Height: 600},
		{Kind: EventKeyPressed, Key: common.KeyEscape},
		{Kind: EventCloseRequested},
		{Kind: EventRedrawRequested},
		{Kind: EventAllEventsProcessed},
	}, got)
}

func TestRedrawRequestsCoalesce(t *testing.T) {
	var q eventQueue
	q.requestRedraw()
	q.requestRedraw()
	q.requestRedraw()

	got := q.drain()
	assert.Equal(t, []Event{{Kind: EventRedrawRequested}, {Kind: EventAllEventsProcessed}}, got)

	assert.Equal(t, []Event{{Kind: EventAllEventsProcessed}}, q.drain(), "redraw must not repeat without a new request")
}

func TestDrainEmptiesQueue(t *testing.T) {
	var q eventQueue
	q.push(Event{Kind: EventKeyPressed, Key: common.KeySpace})
	q.drain()
	assert.Empty(t, q.pending)
	assert.False(t, q.redraw)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "CloseRequested", EventCloseRequested.String())
	assert.Equal(t, "AllEventsProcessed", EventAllEventsProcessed.String())
	assert.Equal(t, "EventKind(42)", EventKind(42).String())
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720, resizable: true}
	for _, opt := range []WindowBuilderOption{
		WithTitle("demo"),
		WithWidth(640),
		WithHeight(0),
		WithMinSize(100, 50),
		WithMaxSize(1920, -1),
		WithResizable(false),
	} {
		opt(w)
	}
	assert.Equal(t, "demo", w.title)
	assert.Equal(t, 640, w.width)
	assert.Equal(t, 720, w.height, "non-positive heights are ignored")
	assert.Equal(t, 100, w.minWidth)
	assert.Equal(t, 50, w.minHeight)
	assert.Equal(t, 1920, w.maxWidth)
	assert.Equal(t, -1, w.maxHeight)
	assert.False(t, w.resizable)
	w2, h2 := w.Size()
	assert.Equal(t, 640, w2)
	assert.Equal(t, 720, h2)
}
