package allocation

import (
	"github.com/eapache/queue"
	"github.com/vkngwrapper/hostmem/heap"
)

// Scope owns a group of Allocations and frees all of them, oldest first, when Release is
// called. It is meant to be deferred:
//
//	scope := allocation.NewScope(nil)
//	defer scope.Release()
//
// Allocations in a scope may still be freed or transferred out with IntoRaw individually;
// Release skips them. A Scope is not safe for concurrent use.
type Scope struct {
	heap  *heap.Heap
	owned *queue.Queue
}

// NewScope creates a scope whose New and Zeroed claim regions from h. A nil h means
// heap.Default.
func NewScope(h *heap.Heap) *Scope {
	if h == nil {
		h = heap.Default()
	}

	return &Scope{
		heap:  h,
		owned: queue.New(),
	}
}

// New claims an uninitialized region and adds it to the scope
func (s *Scope) New(size, alignment uint) (*Allocation, error) {
	a, err := NewWithHeap(s.heap, size, alignment)
	if err != nil {
		return nil, err
	}

	s.owned.Add(a)
	return a, nil
}

// Zeroed claims a zero-initialized region and adds it to the scope
func (s *Scope) Zeroed(size, alignment uint) (*Allocation, error) {
	a, err := ZeroedWithHeap(s.heap, size, alignment)
	if err != nil {
		return nil, err
	}

	s.owned.Add(a)
	return a, nil
}

// Adopt adds an existing Allocation, from any heap, to the scope
func (s *Scope) Adopt(a *Allocation) {
	s.owned.Add(a)
}

// Len returns the number of allocations the scope is holding, including any already freed
// individually
func (s *Scope) Len() int {
	return s.owned.Length()
}

// Release frees every allocation in the scope. The scope can be reused afterward.
func (s *Scope) Release() {
	for s.owned.Length() > 0 {
		s.owned.Remove().(*Allocation).Free()
	}
}
