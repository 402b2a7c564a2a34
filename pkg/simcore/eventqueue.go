package simcore

import "container/heap"

// Action is a callback scheduled to run at a specific virtual time.
type Action func()

// event pairs a virtual time with the action to run at that time. seq
// breaks ties between events scheduled for the same virtual time in
// insertion order (FIFO among equal-time events), per the simulator's
// ordering guarantee.
type event struct {
	time   float64
	seq    uint64
	action Action
}

// eventHeap is a container/heap.Interface over []*event, ordered by
// (time, seq) ascending so the earliest-scheduled, earliest-inserted
// event is always at the root.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// EventQueue is a min-heap of (virtualTime, action) pairs, earliest
// first, with FIFO tie-break among events scheduled for the same
// virtual time.
type EventQueue struct {
	h       eventHeap
	nextSeq uint64
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{h: make(eventHeap, 0)}
}

// Push enqueues action to run at the given virtual time.
func (q *EventQueue) Push(t float64, action Action) {
	heap.Push(&q.h, &event{time: t, seq: q.nextSeq, action: action})
	q.nextSeq++
}

// Len reports the number of pending events.
func (q *EventQueue) Len() int { return q.h.Len() }

// Pop removes and returns the earliest-scheduled event. It panics if the
// queue is empty; callers must check Len() first.
func (q *EventQueue) Pop() (t float64, action Action) {
	e := heap.Pop(&q.h).(*event)
	return e.time, e.action
}
