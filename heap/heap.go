package heap

import (
	"fmt"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/hostmem/internal/utils"
	"github.com/vkngwrapper/hostmem/memutils"
	"golang.org/x/exp/slog"
)

// Heap validates memory requests and delegates them to an Allocator, translating refusals into
// memutils.ErrNotEnoughMemory. It is the only place where region invariants are enforced:
// every region a Heap hands out is nonzero in length, at most memutils.MaxLength bytes long
// and aligned to a power of two.
//
// A Heap does not track individual regions. Deallocate trusts its caller completely.
type Heap struct {
	logger      *slog.Logger
	allocator   Allocator
	createFlags CreateFlags
	sizeLimit   uint
	callbacks   memoryCallbacks

	mutex    utils.OptionalRWMutex
	reserved uint
	stats    memutils.DetailedStatistics
}

// Allocator returns the raw memory capability behind this heap
func (h *Heap) Allocator() Allocator { return h.allocator }

// UsesMutex returns false if this heap was created with HeapCreateExternallySynchronized
func (h *Heap) UsesMutex() bool { return h.mutex.UseMutex }

// Allocate claims an uninitialized region of length bytes aligned to alignment
func (h *Heap) Allocate(length, alignment uint) (unsafe.Pointer, error) {
	h.logger.Debug("Heap::Allocate", slog.Uint64("Length", uint64(length)), slog.Uint64("Alignment", uint64(alignment)))

	return h.allocate(length, alignment, false)
}

// AllocateZeroed claims a region of length bytes aligned to alignment, with every byte set to zero
func (h *Heap) AllocateZeroed(length, alignment uint) (unsafe.Pointer, error) {
	h.logger.Debug("Heap::AllocateZeroed", slog.Uint64("Length", uint64(length)), slog.Uint64("Alignment", uint64(alignment)))

	return h.allocate(length, alignment, true)
}

func (h *Heap) allocate(length, alignment uint, zeroed bool) (unsafe.Pointer, error) {
	err := h.validate(length, alignment)
	if err != nil {
		return nil, err
	}

	if !h.reserve(length) {
		return nil, h.refuseLimit(length)
	}

	var ptr unsafe.Pointer
	if zeroed {
		ptr = h.allocator.AllocateZeroed(length+memutils.DebugMargin, alignment)
	} else {
		ptr = h.allocator.Allocate(length+memutils.DebugMargin, alignment)
	}

	if ptr == nil {
		h.unreserve(length, true)
		h.logger.Debug("    Heap::allocate FAILED")
		return nil, cerrors.Wrapf(memutils.ErrNotEnoughMemory, "allocator refused %d bytes aligned to %d", length, alignment)
	}

	memutils.WriteMagicValue(ptr, length)

	h.mutex.Lock()
	h.reserved -= length
	h.stats.AddAllocation(int(length))
	h.mutex.Unlock()

	h.callbacks.Allocate(ptr, length, alignment)

	return ptr, nil
}

// Reallocate moves, grows or shrinks the region described by (ptr, oldLength, alignment) to
// newLength bytes, preserving the leading min(oldLength, newLength) bytes. On success the
// returned pointer replaces ptr, which must not be used again. On failure the original region
// is still live and unchanged.
func (h *Heap) Reallocate(ptr unsafe.Pointer, oldLength, newLength, alignment uint) (unsafe.Pointer, error) {
	h.logger.Debug("Heap::Reallocate",
		slog.Uint64("OldLength", uint64(oldLength)),
		slog.Uint64("NewLength", uint64(newLength)),
		slog.Uint64("Alignment", uint64(alignment)),
	)

	err := h.validate(newLength, alignment)
	if err != nil {
		return nil, err
	}

	h.checkCorruption(ptr, oldLength)

	var growth uint
	if newLength > oldLength {
		growth = newLength - oldLength
	}

	if !h.reserve(growth) {
		return nil, h.refuseLimit(growth)
	}

	newPtr := h.allocator.Reallocate(ptr, oldLength+memutils.DebugMargin, newLength+memutils.DebugMargin, alignment)
	if newPtr == nil {
		h.unreserve(growth, true)
		h.logger.Debug("    Heap::Reallocate FAILED")
		return nil, cerrors.Wrapf(memutils.ErrNotEnoughMemory, "allocator refused to resize %d bytes to %d bytes aligned to %d", oldLength, newLength, alignment)
	}

	memutils.WriteMagicValue(newPtr, newLength)

	h.mutex.Lock()
	h.reserved -= growth
	h.stats.ResizeAllocation(int(oldLength), int(newLength))
	h.stats.Reallocations++
	h.mutex.Unlock()

	h.callbacks.Free(ptr, oldLength, alignment)
	h.callbacks.Allocate(newPtr, newLength, alignment)

	return newPtr, nil
}

// ReallocateInPlace asks the allocator to resize the region described by
// (ptr, oldLength, alignment) to newLength bytes without moving it, and returns the length the
// region now has. The allocator may grant less growth than was requested, or none at all, and
// that is not an error: the only failures are validation failures. The region's address
// never changes.
func (h *Heap) ReallocateInPlace(ptr unsafe.Pointer, oldLength, newLength, alignment uint) (uint, error) {
	h.logger.Debug("Heap::ReallocateInPlace",
		slog.Uint64("OldLength", uint64(oldLength)),
		slog.Uint64("NewLength", uint64(newLength)),
		slog.Uint64("Alignment", uint64(alignment)),
	)

	err := h.validate(newLength, alignment)
	if err != nil {
		return oldLength, err
	}

	if newLength == oldLength {
		return oldLength, nil
	}

	h.checkCorruption(ptr, oldLength)

	requested := newLength
	var growth uint
	if newLength > oldLength {
		growth = h.reserveUpTo(newLength - oldLength)
		requested = oldLength + growth
		if growth == 0 {
			h.logger.Debug("    Heap::ReallocateInPlace no headroom under size limit")
			return oldLength, nil
		}
	}

	rawLength := h.allocator.ReallocateInPlace(ptr, oldLength+memutils.DebugMargin, requested+memutils.DebugMargin, alignment)
	if rawLength <= memutils.DebugMargin || rawLength-memutils.DebugMargin > max(oldLength, requested) {
		panic(cerrors.AssertionFailedf("allocator resized a region in place from %d bytes to %d bytes when %d bytes were requested",
			oldLength+memutils.DebugMargin, rawLength, requested+memutils.DebugMargin))
	}
	achieved := rawLength - memutils.DebugMargin

	if achieved != oldLength {
		memutils.WriteMagicValue(ptr, achieved)
	}

	h.mutex.Lock()
	h.reserved -= growth
	if achieved != oldLength {
		h.stats.ResizeAllocation(int(oldLength), int(achieved))
		h.stats.InPlaceReallocations++
	}
	h.mutex.Unlock()

	if achieved != oldLength {
		h.callbacks.Free(ptr, oldLength, alignment)
		h.callbacks.Allocate(ptr, achieved, alignment)
	}

	return achieved, nil
}

// Deallocate releases the region described by (ptr, length, alignment). The triple must
// exactly describe a live region claimed from this heap: anything else is undefined behavior.
// A nil ptr is ignored.
func (h *Heap) Deallocate(ptr unsafe.Pointer, length, alignment uint) {
	h.logger.Debug("Heap::Deallocate", slog.Uint64("Length", uint64(length)), slog.Uint64("Alignment", uint64(alignment)))

	if ptr == nil {
		return
	}

	h.checkCorruption(ptr, length)
	h.callbacks.Free(ptr, length, alignment)
	h.allocator.Deallocate(ptr, length+memutils.DebugMargin, alignment)

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.stats.RemoveAllocation(int(length))
}

// ReportLeak records that the owner of the region described by (ptr, length, alignment) became
// unreachable without releasing it. The region is not released: something may still be
// addressing it.
func (h *Heap) ReportLeak(ptr unsafe.Pointer, length, alignment uint) {
	h.logger.Warn("Heap::ReportLeak region was never released",
		slog.String("Pointer", fmt.Sprintf("%p", ptr)),
		slog.Uint64("Length", uint64(length)),
		slog.Uint64("Alignment", uint64(alignment)),
	)

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.stats.LeakedAllocations++
}

func (h *Heap) validate(length, alignment uint) error {
	err := Validate(length, alignment)
	if err == nil && length > memutils.MaxLength-memutils.DebugMargin {
		err = cerrors.Wrapf(memutils.ErrNotEnoughMemory, "requested length %d leaves no room for the debug margin", length)
	}

	if err != nil {
		h.mutex.Lock()
		h.stats.RejectedRequests++
		h.mutex.Unlock()
	}

	return err
}

// reserve sets aside length bytes of the size limit for a request in flight. It returns false,
// reserving nothing, if doing so would exceed the limit.
func (h *Heap) reserve(length uint) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if length > h.headroom() {
		return false
	}

	h.reserved += length
	return true
}

// reserveUpTo sets aside as much of length bytes as the size limit allows and returns the
// amount reserved.
func (h *Heap) reserveUpTo(length uint) uint {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	length = min(length, h.headroom())
	h.reserved += length
	return length
}

func (h *Heap) headroom() uint {
	if h.sizeLimit == 0 {
		return memutils.MaxLength
	}

	committed := uint(h.stats.AllocationBytes) + h.reserved
	if committed >= h.sizeLimit {
		return 0
	}

	return h.sizeLimit - committed
}

func (h *Heap) unreserve(length uint, refused bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.reserved -= length
	if refused {
		h.stats.RefusedRequests++
	}
}

func (h *Heap) refuseLimit(length uint) error {
	h.unreserve(0, true)
	h.logger.Debug("    Heap request exceeds size limit", slog.Uint64("Length", uint64(length)), slog.Uint64("SizeLimit", uint64(h.sizeLimit)))

	return cerrors.Wrapf(memutils.ErrNotEnoughMemory, "%d more bytes would exceed the heap size limit of %d", length, h.sizeLimit)
}

func (h *Heap) checkCorruption(ptr unsafe.Pointer, length uint) {
	if !memutils.ValidateMagicValue(ptr, length) {
		panic(cerrors.AssertionFailedf("memory corruption detected directly after region %p of %d bytes", ptr, length))
	}
}
