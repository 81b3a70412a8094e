package heap

import (
	"sync"
	"unsafe"

	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/hostmem/memutils"
)

// GoAllocator serves regions out of ordinary Go byte slices. Each slice is over-allocated by
// alignment-1 bytes so an aligned start can always be found inside it, and is kept reachable
// in a registry keyed by that start until the region is deallocated. The Go collector does not
// move heap objects, so a region's address is stable for its whole lifetime.
//
// Go memory is always zeroed, so Allocate and AllocateZeroed are the same operation. Requests
// the Go runtime rejects as too large are refused; true exhaustion of the process is fatal in
// Go and cannot be reported.
type GoAllocator struct {
	mutex sync.Mutex
	live  *swiss.Map[uintptr, []byte]
}

func NewGoAllocator() *GoAllocator {
	return &GoAllocator{
		live: swiss.NewMap[uintptr, []byte](64),
	}
}

// LiveRegions returns the number of regions this allocator is currently pinning
func (a *GoAllocator) LiveRegions() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.live.Count()
}

func (a *GoAllocator) Allocate(length, alignment uint) unsafe.Pointer {
	return a.AllocateZeroed(length, alignment)
}

func (a *GoAllocator) AllocateZeroed(length, alignment uint) unsafe.Pointer {
	padding := alignment - 1
	if length > memutils.MaxLength-padding {
		return nil
	}

	backing, ok := makeBacking(length + padding)
	if !ok {
		return nil
	}

	base := unsafe.Pointer(unsafe.SliceData(backing))
	offset := memutils.AlignUp(uint(uintptr(base)), alignment) - uint(uintptr(base))
	ptr := unsafe.Add(base, offset)

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.live.Put(uintptr(ptr), backing)
	return ptr
}

func makeBacking(size uint) (backing []byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			backing, ok = nil, false
		}
	}()

	return make([]byte, size), true
}

func (a *GoAllocator) Reallocate(ptr unsafe.Pointer, oldLength, newLength, alignment uint) unsafe.Pointer {
	if a.ReallocateInPlace(ptr, oldLength, newLength, alignment) == newLength {
		return ptr
	}

	newPtr := a.AllocateZeroed(newLength, alignment)
	if newPtr == nil {
		return nil
	}

	preserved := int(min(oldLength, newLength))
	copy(unsafe.Slice((*byte)(newPtr), preserved), unsafe.Slice((*byte)(ptr), preserved))
	a.Deallocate(ptr, oldLength, alignment)

	return newPtr
}

// ReallocateInPlace shrinks freely and grows into whatever spare room the backing slice has
// past the region's end. The backing slice itself never changes, so a grow may be partial.
func (a *GoAllocator) ReallocateInPlace(ptr unsafe.Pointer, oldLength, newLength, alignment uint) uint {
	a.mutex.Lock()
	backing, ok := a.live.Get(uintptr(ptr))
	a.mutex.Unlock()

	if !ok {
		return oldLength
	}

	offset := uint(uintptr(ptr) - uintptr(unsafe.Pointer(unsafe.SliceData(backing))))
	available := uint(len(backing)) - offset

	return min(newLength, available)
}

func (a *GoAllocator) Deallocate(ptr unsafe.Pointer, length, alignment uint) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.live.Delete(uintptr(ptr))
}
