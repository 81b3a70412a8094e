package allocation

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/vkngwrapper/hostmem/heap"
	"github.com/vkngwrapper/hostmem/memutils"
)

// noCopy trips go vet's copylocks check: copying an Allocation by value would duplicate
// ownership of its region
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Allocation owns exactly one region of memory claimed from a heap.Heap and releases it exactly
// once, through Free or through a Scope. IntoRaw hands the release obligation to the caller
// instead. An Allocation that becomes unreachable while it still owns its region is reported to
// its heap as a leak (see heap.Heap.ReportLeak) and its region is never released, since byte
// views of the region may outlive the Allocation itself.
//
// An Allocation is not safe for concurrent use. Once released or transferred out with IntoRaw,
// Resize, ResizeInPlace, Duplicate and IntoRaw panic; Free does nothing.
type Allocation struct {
	noCopy noCopy

	ptr       unsafe.Pointer
	size      uint
	alignment uint
	heap      *heap.Heap
	finalizer bool
}

func newAllocation(h *heap.Heap, ptr unsafe.Pointer, size, alignment uint) *Allocation {
	a := &Allocation{
		ptr:       ptr,
		size:      size,
		alignment: alignment,
		heap:      h,
	}

	// Finalizers run on their own goroutine
	if h.UsesMutex() {
		a.finalizer = true
		runtime.SetFinalizer(a, (*Allocation).reportLeak)
	}

	return a
}

// Pointer returns the address of the first byte of the region, or nil once the region has been
// released. The address is invalidated by Resize and by release.
func (a *Allocation) Pointer() unsafe.Pointer { return a.ptr }

// Bytes returns a mutable view of the whole region, or nil once the region has been released.
// The same lifetime rules as Pointer apply.
func (a *Allocation) Bytes() []byte {
	if a.ptr == nil {
		return nil
	}

	return unsafe.Slice((*byte)(a.ptr), int(a.size))
}

// Size returns the length of the region in bytes
func (a *Allocation) Size() uint { return a.size }

// Alignment returns the alignment of the region in bytes
func (a *Allocation) Alignment() uint { return a.alignment }

// Heap returns the heap this region will be released to
func (a *Allocation) Heap() *heap.Heap { return a.heap }

// IsLive returns false once the region has been released or transferred out with IntoRaw
func (a *Allocation) IsLive() bool { return a.ptr != nil }

func (a *Allocation) String() string {
	return fmt.Sprintf("Allocation{ptr: %p, size: %d, alignment: %d}", a.ptr, a.size, a.alignment)
}

// Validate reports whether this Allocation's recorded state is consistent with a live region
func (a *Allocation) Validate() error {
	if a.ptr == nil {
		return errors.New("allocation does not own a region")
	}
	if a.size == 0 {
		return errors.New("allocation has a size of zero")
	}
	if a.size > memutils.MaxLength {
		return errors.Errorf("allocation size %d exceeds the maximum of %d", a.size, memutils.MaxLength)
	}
	if !memutils.IsPow2(a.alignment) {
		return errors.Errorf("allocation alignment %d is not a power of two", a.alignment)
	}
	if !memutils.IsAligned(uintptr(a.ptr), a.alignment) {
		return errors.Errorf("allocation address %p is not aligned to %d", a.ptr, a.alignment)
	}

	return nil
}

func (a *Allocation) mustBeLive(operation string) {
	if a.ptr == nil {
		panic(fmt.Sprintf("attempted to %s an allocation that no longer owns a region", operation))
	}
}

func (a *Allocation) disarm() {
	if a.finalizer {
		a.finalizer = false
		runtime.SetFinalizer(a, nil)
	}
}

func (a *Allocation) reportLeak() {
	if a.ptr != nil {
		a.heap.ReportLeak(a.ptr, a.size, a.alignment)
	}
}

func (a *Allocation) release() {
	if a.ptr == nil {
		return
	}

	ptr := a.ptr
	a.ptr = nil
	a.heap.Deallocate(ptr, a.size, a.alignment)
}

// Free releases the region back to its heap. Only the first call has any effect, and calling
// Free after IntoRaw does nothing, so it is always safe to defer.
func (a *Allocation) Free() {
	a.disarm()
	a.release()
}

// IntoRaw gives up ownership of the region without releasing it and returns its address,
// length and alignment. The caller becomes responsible for releasing it, either through
// heap.Heap.Deallocate on the same heap or by handing the triple back to FromRaw.
func (a *Allocation) IntoRaw() (unsafe.Pointer, uint, uint) {
	a.mustBeLive("IntoRaw")
	a.disarm()

	ptr := a.ptr
	a.ptr = nil

	return ptr, a.size, a.alignment
}

// Resize moves, grows or shrinks the region to newSize bytes, preserving its leading bytes. On
// success the region's address may change, invalidating earlier results of Pointer and Bytes.
// On failure the Allocation is unchanged and still owns its original region. Alignment never
// changes.
func (a *Allocation) Resize(newSize uint) error {
	a.mustBeLive("Resize")

	ptr, err := a.heap.Reallocate(a.ptr, a.size, newSize, a.alignment)
	if err != nil {
		return err
	}

	a.ptr = ptr
	a.size = newSize
	memutils.DebugValidate(a)

	return nil
}

// ResizeInPlace asks for the region to be resized to newSize bytes without moving it. The
// region's size afterward is whatever the allocator could manage, which may be anywhere from
// unchanged to newSize; check Size. Only an invalid newSize is an error.
func (a *Allocation) ResizeInPlace(newSize uint) error {
	a.mustBeLive("ResizeInPlace")

	achieved, err := a.heap.ReallocateInPlace(a.ptr, a.size, newSize, a.alignment)
	if err != nil {
		return err
	}

	a.size = achieved
	memutils.DebugValidate(a)

	return nil
}

// Duplicate claims a new region from the same heap with this region's size and alignment, and
// copies this region's contents into it
func (a *Allocation) Duplicate() (*Allocation, error) {
	a.mustBeLive("Duplicate")

	duplicate, err := NewWithHeap(a.heap, a.size, a.alignment)
	if err != nil {
		return nil, err
	}

	copy(duplicate.Bytes(), a.Bytes())
	runtime.KeepAlive(a)

	return duplicate, nil
}
