//go:build cgo

package heap

/*
#include <stdlib.h>
#include <string.h>

// C.malloc is replaced by cgo with a helper that crashes instead of returning NULL,
// so every libc entry point is reached through a wrapper of our own.
static void *hostmem_malloc(size_t length) {
	return malloc(length);
}

static void *hostmem_calloc(size_t length) {
	return calloc(1, length);
}

static void *hostmem_realloc(void *ptr, size_t length) {
	return realloc(ptr, length);
}

static void *hostmem_memalign(size_t alignment, size_t length) {
	void *ptr = NULL;
	if (posix_memalign(&ptr, alignment, length) != 0) {
		return NULL;
	}
	return ptr;
}
*/
import "C"

import "unsafe"

// mallocAlignment is the alignment libc malloc guarantees for any request at least this large
const mallocAlignment = 2 * uint(unsafe.Sizeof(uintptr(0)))

// SystemAllocator fronts the C library's allocator. Requests libc malloc already aligns
// sufficiently go to malloc, calloc and realloc; everything else goes through posix_memalign,
// and over-aligned reallocation is a fresh allocation plus a copy.
//
// In-place resizing supports shrinking only: free does not need to know a region's length, so
// a shrunk region is released correctly.
type SystemAllocator struct{}

// NewSystemAllocator returns the allocator Default uses: libc when cgo is available, a
// GoAllocator otherwise
func NewSystemAllocator() *SystemAllocator {
	return &SystemAllocator{}
}

func mallocAligned(length, alignment uint) bool {
	return alignment <= mallocAlignment && alignment <= length
}

func (a *SystemAllocator) memalign(length, alignment uint) unsafe.Pointer {
	// posix_memalign rejects alignments smaller than a pointer
	alignment = max(alignment, uint(unsafe.Sizeof(uintptr(0))))
	return C.hostmem_memalign(C.size_t(alignment), C.size_t(length))
}

func (a *SystemAllocator) Allocate(length, alignment uint) unsafe.Pointer {
	if mallocAligned(length, alignment) {
		return C.hostmem_malloc(C.size_t(length))
	}

	return a.memalign(length, alignment)
}

func (a *SystemAllocator) AllocateZeroed(length, alignment uint) unsafe.Pointer {
	if mallocAligned(length, alignment) {
		return C.hostmem_calloc(C.size_t(length))
	}

	ptr := a.memalign(length, alignment)
	if ptr != nil {
		C.memset(ptr, 0, C.size_t(length))
	}
	return ptr
}

func (a *SystemAllocator) Reallocate(ptr unsafe.Pointer, oldLength, newLength, alignment uint) unsafe.Pointer {
	if mallocAligned(newLength, alignment) {
		return C.hostmem_realloc(ptr, C.size_t(newLength))
	}

	newPtr := a.memalign(newLength, alignment)
	if newPtr == nil {
		return nil
	}

	C.memcpy(newPtr, ptr, C.size_t(min(oldLength, newLength)))
	C.free(ptr)

	return newPtr
}

func (a *SystemAllocator) ReallocateInPlace(ptr unsafe.Pointer, oldLength, newLength, alignment uint) uint {
	if newLength <= oldLength {
		return newLength
	}

	return oldLength
}

func (a *SystemAllocator) Deallocate(ptr unsafe.Pointer, length, alignment uint) {
	C.free(ptr)
}
