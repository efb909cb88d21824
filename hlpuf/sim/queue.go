package sim

import "container/heap"

// An event is a scheduled callback. Events fire in order of time, and in
// order of scheduling among events due at the same time.
type event struct {
	at  Time
	seq uint64
	fn  func() error
}

type eventQueue []*event

func (q eventQueue) Len() int {
	return len(q)
}

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *eventQueue) Push(x interface{}) {
	*q = append(*q, x.(*event))
}

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[0 : n-1]
	return ev
}

func (q *eventQueue) enqueue(ev *event) {
	heap.Push(q, ev)
}

func (q *eventQueue) dequeue() *event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*event)
}
