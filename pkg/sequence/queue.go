package sequence

import "container/heap"

// CostItem is an entry of a CostQueue. The handle stays valid until the item
// is dequeued and can be passed to Update to re-prioritize it.
type CostItem[T any] struct {
	Value T
	Cost  float32
	index int
}

// Queued reports whether the item is still waiting in its queue.
func (it *CostItem[T]) Queued() bool {
	return it.index >= 0
}

type costHeap[T any] struct {
	items []*CostItem[T]
}

func (h *costHeap[T]) Len() int {
	return len(h.items)
}

func (h *costHeap[T]) Less(i, j int) bool {
	return h.items[i].Cost < h.items[j].Cost
}

func (h *costHeap[T]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *costHeap[T]) Push(x any) {
	item := x.(*CostItem[T])
	item.index = len(h.items)
	h.items = append(h.items, item)
}

func (h *costHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	h.items = old[0 : n-1]
	return item
}

// CostQueue is a min-heap keyed by cost, the open list of graph searches.
type CostQueue[T any] struct {
	h costHeap[T]
}

func NewCostQueue[T any]() *CostQueue[T] {
	q := &CostQueue[T]{}
	heap.Init(&q.h)
	return q
}

func (q *CostQueue[T]) Enqueue(value T, cost float32) *CostItem[T] {
	item := &CostItem[T]{
		Value: value,
		Cost:  cost,
	}
	heap.Push(&q.h, item)
	return item
}

// Dequeue removes the cheapest item.
func (q *CostQueue[T]) Dequeue() (T, bool) {
	if q.h.Len() == 0 {
		var zero T
		return zero, false
	}
	item := heap.Pop(&q.h).(*CostItem[T])
	return item.Value, true
}

func (q *CostQueue[T]) Peek() (T, bool) {
	if q.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.h.items[0].Value, true
}

// Update changes the value and cost of a queued item. Items that already left
// the queue are ignored.
func (q *CostQueue[T]) Update(item *CostItem[T], value T, cost float32) {
	if item.index < 0 {
		return
	}
	item.Value = value
	item.Cost = cost
	heap.Fix(&q.h, item.index)
}

func (q *CostQueue[T]) Len() int {
	return q.h.Len()
}

func (q *CostQueue[T]) IsEmpty() bool {
	return q.h.Len() == 0
}
