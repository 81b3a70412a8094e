package allocation

import (
	"unsafe"

	"github.com/vkngwrapper/hostmem/heap"
	"github.com/vkngwrapper/hostmem/memutils"
)

// New claims an uninitialized region of size bytes aligned to alignment from heap.Default
func New(size, alignment uint) (*Allocation, error) {
	return NewWithHeap(heap.Default(), size, alignment)
}

// Zeroed claims a region of size bytes aligned to alignment from heap.Default, with every
// byte set to zero
func Zeroed(size, alignment uint) (*Allocation, error) {
	return ZeroedWithHeap(heap.Default(), size, alignment)
}

// NewWithHeap claims an uninitialized region of size bytes aligned to alignment from h. A nil
// h means heap.Default.
func NewWithHeap(h *heap.Heap, size, alignment uint) (*Allocation, error) {
	if h == nil {
		h = heap.Default()
	}

	ptr, err := h.Allocate(size, alignment)
	if err != nil {
		return nil, err
	}

	a := newAllocation(h, ptr, size, alignment)
	memutils.DebugValidate(a)

	return a, nil
}

// ZeroedWithHeap claims a region of size bytes aligned to alignment from h, with every byte set
// to zero. A nil h means heap.Default.
func ZeroedWithHeap(h *heap.Heap, size, alignment uint) (*Allocation, error) {
	if h == nil {
		h = heap.Default()
	}

	ptr, err := h.AllocateZeroed(size, alignment)
	if err != nil {
		return nil, err
	}

	a := newAllocation(h, ptr, size, alignment)
	memutils.DebugValidate(a)

	return a, nil
}

// FromRaw takes ownership of a region claimed from heap.Default. See FromRawWithHeap.
func FromRaw(ptr unsafe.Pointer, size, alignment uint) *Allocation {
	return FromRawWithHeap(heap.Default(), ptr, size, alignment)
}

// FromRawWithHeap takes ownership of a region previously claimed from h, typically one handed
// out by IntoRaw. Nothing is checked: the caller asserts that (ptr, size, alignment) exactly
// describes a live region of h that nothing else owns. If it does not, the behavior of the
// returned Allocation is undefined. A nil h means heap.Default.
func FromRawWithHeap(h *heap.Heap, ptr unsafe.Pointer, size, alignment uint) *Allocation {
	if h == nil {
		h = heap.Default()
	}

	return newAllocation(h, ptr, size, alignment)
}
