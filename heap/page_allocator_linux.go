//go:build linux

package heap

import (
	"unsafe"

	"github.com/vkngwrapper/hostmem/memutils"
	"golang.org/x/sys/unix"
)

const (
	pageProtection = unix.PROT_READ | unix.PROT_WRITE
	pageFlags      = unix.MAP_PRIVATE | unix.MAP_ANONYMOUS
)

// PageAllocator maps every region as its own private anonymous mapping, rounded up to whole
// pages. It suits large, long-lived regions: the kernel hands back zeroed pages, mremap lets
// regions grow and shrink without copying, and in-place growth can always claim the unused
// tail of the region's last page even when the pages after it are taken.
//
// Alignments above the page size are met by over-mapping and trimming the excess.
type PageAllocator struct {
	pageSize uint
}

func NewPageAllocator() *PageAllocator {
	return &PageAllocator{pageSize: uint(unix.Getpagesize())}
}

// PageSize returns the granularity of every mapping this allocator makes
func (a *PageAllocator) PageSize() uint { return a.pageSize }

func (a *PageAllocator) mappedLength(length uint) (uint, bool) {
	if length > memutils.MaxLength-(a.pageSize-1) {
		return 0, false
	}

	return memutils.AlignUp(length, a.pageSize), true
}

func (a *PageAllocator) Allocate(length, alignment uint) unsafe.Pointer {
	mapped, ok := a.mappedLength(length)
	if !ok {
		return nil
	}

	if alignment <= a.pageSize {
		ptr, err := unix.MmapPtr(-1, 0, nil, uintptr(mapped), pageProtection, pageFlags)
		if err != nil {
			return nil
		}
		return ptr
	}

	excess := alignment - a.pageSize
	if mapped > memutils.MaxLength-excess {
		return nil
	}

	ptr, err := unix.MmapPtr(-1, 0, nil, uintptr(mapped+excess), pageProtection, pageFlags)
	if err != nil {
		return nil
	}

	base := uint(uintptr(ptr))
	lead := memutils.AlignUp(base, alignment) - base
	aligned := unsafe.Add(ptr, lead)

	if lead > 0 {
		_ = unix.MunmapPtr(ptr, uintptr(lead))
	}
	if trail := excess - lead; trail > 0 {
		_ = unix.MunmapPtr(unsafe.Add(aligned, mapped), uintptr(trail))
	}

	return aligned
}

func (a *PageAllocator) AllocateZeroed(length, alignment uint) unsafe.Pointer {
	return a.Allocate(length, alignment)
}

func (a *PageAllocator) Reallocate(ptr unsafe.Pointer, oldLength, newLength, alignment uint) unsafe.Pointer {
	if a.ReallocateInPlace(ptr, oldLength, newLength, alignment) == newLength {
		return ptr
	}

	newMapped, ok := a.mappedLength(newLength)
	if !ok {
		return nil
	}
	oldMapped, _ := a.mappedLength(oldLength)

	// The kernel only promises page alignment for a moved mapping
	if alignment <= a.pageSize {
		newPtr, err := unix.MremapPtr(ptr, uintptr(oldMapped), nil, uintptr(newMapped), unix.MREMAP_MAYMOVE)
		if err != nil {
			return nil
		}
		return newPtr
	}

	newPtr := a.Allocate(newLength, alignment)
	if newPtr == nil {
		return nil
	}

	preserved := int(min(oldLength, newLength))
	copy(unsafe.Slice((*byte)(newPtr), preserved), unsafe.Slice((*byte)(ptr), preserved))
	a.Deallocate(ptr, oldLength, alignment)

	return newPtr
}

func (a *PageAllocator) ReallocateInPlace(ptr unsafe.Pointer, oldLength, newLength, alignment uint) uint {
	oldMapped, _ := a.mappedLength(oldLength)
	newMapped, ok := a.mappedLength(newLength)
	if !ok {
		return min(newLength, oldMapped)
	}

	switch {
	case newMapped == oldMapped:
		return newLength
	case newMapped < oldMapped:
		err := unix.MunmapPtr(unsafe.Add(ptr, newMapped), uintptr(oldMapped-newMapped))
		if err != nil {
			return oldLength
		}
		return newLength
	}

	_, err := unix.MremapPtr(ptr, uintptr(oldMapped), nil, uintptr(newMapped), 0)
	if err != nil {
		// The rest of the last page is still ours
		return oldMapped
	}

	return newLength
}

func (a *PageAllocator) Deallocate(ptr unsafe.Pointer, length, alignment uint) {
	mapped, _ := a.mappedLength(length)
	_ = unix.MunmapPtr(ptr, uintptr(mapped))
}
