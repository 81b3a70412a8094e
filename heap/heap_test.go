package heap_test

import (
	"fmt"
	"testing"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/hostmem/heap"
	"github.com/vkngwrapper/hostmem/heap/mocks"
	"github.com/vkngwrapper/hostmem/memutils"
	"go.uber.org/mock/gomock"
)

// raw is the length the allocator is asked for when the heap is asked for length
func raw(length uint) uint {
	return length + memutils.DebugMargin
}

func buffer(length uint) ([]byte, unsafe.Pointer) {
	data := make([]byte, raw(length))
	return data, unsafe.Pointer(&data[0])
}

func statistics(h *heap.Heap) memutils.DetailedStatistics {
	var stats memutils.DetailedStatistics
	h.CalculateStatistics(&stats)
	return stats
}

func TestHeapRejectsBeforeAllocator(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{})

	_, ptr := buffer(8)

	_, err := h.Allocate(0, 8)
	require.ErrorIs(t, err, memutils.ErrZeroLength)

	_, err = h.AllocateZeroed(0, 3)
	require.ErrorIs(t, err, memutils.ErrZeroLength)

	_, err = h.Allocate(16, 0)
	require.ErrorIs(t, err, memutils.ErrBadAlignment)

	_, err = h.AllocateZeroed(16, 6)
	require.ErrorIs(t, err, memutils.ErrBadAlignment)

	_, err = h.Allocate(memutils.MaxLength+1, 8)
	require.ErrorIs(t, err, memutils.ErrNotEnoughMemory)

	_, err = h.Reallocate(ptr, 8, 0, 8)
	require.ErrorIs(t, err, memutils.ErrZeroLength)

	_, err = h.Reallocate(ptr, 8, 16, 5)
	require.ErrorIs(t, err, memutils.ErrBadAlignment)

	length, err := h.ReallocateInPlace(ptr, 8, 0, 8)
	require.ErrorIs(t, err, memutils.ErrZeroLength)
	require.Equal(t, uint(8), length)

	stats := statistics(h)
	require.Equal(t, 8, stats.RejectedRequests)
	require.Equal(t, 0, stats.RefusedRequests)
	require.Equal(t, 0, stats.AllocationCount)
}

func TestHeapAllocateRefused(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{})

	allocator.EXPECT().Allocate(raw(16), uint(8)).Return(unsafe.Pointer(nil))
	allocator.EXPECT().AllocateZeroed(raw(32), uint(4)).Return(unsafe.Pointer(nil))

	ptr, err := h.Allocate(16, 8)
	require.ErrorIs(t, err, memutils.ErrNotEnoughMemory)
	require.Nil(t, ptr)

	ptr, err = h.AllocateZeroed(32, 4)
	require.ErrorIs(t, err, memutils.ErrNotEnoughMemory)
	require.Nil(t, ptr)

	stats := statistics(h)
	require.Equal(t, 2, stats.RefusedRequests)
	require.Equal(t, 0, stats.AllocationCount)
	require.Equal(t, 0, stats.TotalAllocations)
}

func TestHeapAllocateAndDeallocate(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{})

	_, region := buffer(16)
	_, zeroedRegion := buffer(32)

	allocator.EXPECT().Allocate(raw(16), uint(8)).Return(region)
	allocator.EXPECT().AllocateZeroed(raw(32), uint(4)).Return(zeroedRegion)

	ptr, err := h.Allocate(16, 8)
	require.NoError(t, err)
	require.Equal(t, region, ptr)

	zeroedPtr, err := h.AllocateZeroed(32, 4)
	require.NoError(t, err)
	require.Equal(t, zeroedRegion, zeroedPtr)

	stats := statistics(h)
	require.Equal(t, 2, stats.AllocationCount)
	require.Equal(t, 48, stats.AllocationBytes)
	require.Equal(t, 2, stats.TotalAllocations)

	allocator.EXPECT().Deallocate(region, raw(16), uint(8))
	allocator.EXPECT().Deallocate(zeroedRegion, raw(32), uint(4))

	h.Deallocate(ptr, 16, 8)
	h.Deallocate(zeroedPtr, 32, 4)
	h.Deallocate(nil, 32, 4)

	stats = statistics(h)
	require.Equal(t, 0, stats.AllocationCount)
	require.Equal(t, 0, stats.AllocationBytes)
	require.Equal(t, 48, stats.PeakAllocationBytes)
}

func TestHeapReallocateFailureLeavesRegion(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{})

	data, region := buffer(8)
	allocator.EXPECT().Allocate(raw(8), uint(4)).Return(region)

	ptr, err := h.Allocate(8, 4)
	require.NoError(t, err)
	copy(data, "abcdefgh")

	allocator.EXPECT().Reallocate(region, raw(8), raw(4096), uint(4)).Return(unsafe.Pointer(nil))

	newPtr, err := h.Reallocate(ptr, 8, 4096, 4)
	require.ErrorIs(t, err, memutils.ErrNotEnoughMemory)
	require.Nil(t, newPtr)
	require.Equal(t, "abcdefgh", string(data[:8]))

	stats := statistics(h)
	require.Equal(t, 1, stats.AllocationCount)
	require.Equal(t, 8, stats.AllocationBytes)
	require.Equal(t, 1, stats.RefusedRequests)
	require.Equal(t, 0, stats.Reallocations)
}

func TestHeapReallocateMoves(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{})

	_, region := buffer(8)
	_, moved := buffer(4096)

	allocator.EXPECT().Allocate(raw(8), uint(4)).Return(region)
	allocator.EXPECT().Reallocate(region, raw(8), raw(4096), uint(4)).Return(moved)

	ptr, err := h.Allocate(8, 4)
	require.NoError(t, err)

	ptr, err = h.Reallocate(ptr, 8, 4096, 4)
	require.NoError(t, err)
	require.Equal(t, moved, ptr)

	stats := statistics(h)
	require.Equal(t, 1, stats.AllocationCount)
	require.Equal(t, 4096, stats.AllocationBytes)
	require.Equal(t, 1, stats.Reallocations)
}

func TestHeapReallocateInPlacePartial(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{})

	_, region := buffer(32)

	allocator.EXPECT().Allocate(raw(16), uint(8)).Return(region)
	allocator.EXPECT().ReallocateInPlace(region, raw(16), raw(64), uint(8)).Return(raw(24))

	ptr, err := h.Allocate(16, 8)
	require.NoError(t, err)

	length, err := h.ReallocateInPlace(ptr, 16, 64, 8)
	require.NoError(t, err)
	require.Equal(t, uint(24), length)

	stats := statistics(h)
	require.Equal(t, 24, stats.AllocationBytes)
	require.Equal(t, 1, stats.InPlaceReallocations)
}

func TestHeapReallocateInPlaceUnsupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{})

	_, region := buffer(16)

	allocator.EXPECT().Allocate(raw(16), uint(8)).Return(region)
	allocator.EXPECT().ReallocateInPlace(region, raw(16), raw(64), uint(8)).Return(raw(16))

	ptr, err := h.Allocate(16, 8)
	require.NoError(t, err)

	length, err := h.ReallocateInPlace(ptr, 16, 64, 8)
	require.NoError(t, err)
	require.Equal(t, uint(16), length)

	// Same length never reaches the allocator
	length, err = h.ReallocateInPlace(ptr, 16, 16, 8)
	require.NoError(t, err)
	require.Equal(t, uint(16), length)

	stats := statistics(h)
	require.Equal(t, 16, stats.AllocationBytes)
	require.Equal(t, 0, stats.InPlaceReallocations)
}

func TestHeapReallocateInPlaceContractViolation(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{})

	_, region := buffer(64)

	allocator.EXPECT().Allocate(raw(16), uint(8)).Return(region)
	allocator.EXPECT().ReallocateInPlace(region, raw(16), raw(32), uint(8)).Return(raw(64))

	ptr, err := h.Allocate(16, 8)
	require.NoError(t, err)

	var recovered interface{}
	func() {
		defer func() { recovered = recover() }()
		_, _ = h.ReallocateInPlace(ptr, 16, 32, 8)
	}()

	err, ok := recovered.(error)
	require.True(t, ok)
	require.True(t, cerrors.HasAssertionFailure(err))
	require.Contains(t, err.Error(), "resized a region in place")
}

func TestHeapSizeLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{
		SizeLimit: 32,
	})

	_, region := buffer(32)

	allocator.EXPECT().Allocate(raw(16), uint(8)).Return(region)

	ptr, err := h.Allocate(16, 8)
	require.NoError(t, err)

	// Refused without consulting the allocator
	_, err = h.Allocate(17, 8)
	require.ErrorIs(t, err, memutils.ErrNotEnoughMemory)

	_, err = h.Reallocate(ptr, 16, 64, 8)
	require.ErrorIs(t, err, memutils.ErrNotEnoughMemory)

	// In-place growth is clamped to the headroom
	allocator.EXPECT().ReallocateInPlace(region, raw(16), raw(32), uint(8)).Return(raw(32))

	length, err := h.ReallocateInPlace(ptr, 16, 64, 8)
	require.NoError(t, err)
	require.Equal(t, uint(32), length)

	// No headroom left at all
	length, err = h.ReallocateInPlace(ptr, 32, 64, 8)
	require.NoError(t, err)
	require.Equal(t, uint(32), length)

	stats := statistics(h)
	require.Equal(t, 32, stats.AllocationBytes)
	require.Equal(t, 2, stats.RefusedRequests)

	allocator.EXPECT().ReallocateInPlace(region, raw(32), raw(8), uint(8)).Return(raw(8))

	length, err = h.ReallocateInPlace(ptr, 32, 8, 8)
	require.NoError(t, err)
	require.Equal(t, uint(8), length)
	require.Equal(t, 8, statistics(h).AllocationBytes)
}

func TestHeapCallbacks(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)

	var events []string
	var h *heap.Heap
	h = heap.New(nil, allocator, heap.CreateOptions{
		MemoryCallbackOptions: &heap.MemoryCallbackOptions{
			Allocate: func(callbackHeap *heap.Heap, ptr unsafe.Pointer, length uint, alignment uint, userData interface{}) {
				require.Same(t, h, callbackHeap)
				events = append(events, fmt.Sprintf("%s allocate %d/%d", userData, length, alignment))
			},
			Free: func(callbackHeap *heap.Heap, ptr unsafe.Pointer, length uint, alignment uint, userData interface{}) {
				require.Same(t, h, callbackHeap)
				events = append(events, fmt.Sprintf("%s free %d/%d", userData, length, alignment))
			},
			UserData: "test",
		},
	})

	_, region := buffer(16)
	_, moved := buffer(64)

	allocator.EXPECT().Allocate(raw(16), uint(8)).Return(region)
	allocator.EXPECT().Reallocate(region, raw(16), raw(64), uint(8)).Return(moved)
	allocator.EXPECT().ReallocateInPlace(moved, raw(64), raw(32), uint(8)).Return(raw(32))
	allocator.EXPECT().Deallocate(moved, raw(32), uint(8))

	ptr, err := h.Allocate(16, 8)
	require.NoError(t, err)

	ptr, err = h.Reallocate(ptr, 16, 64, 8)
	require.NoError(t, err)

	_, err = h.ReallocateInPlace(ptr, 64, 32, 8)
	require.NoError(t, err)

	h.Deallocate(ptr, 32, 8)

	require.Equal(t, []string{
		"test allocate 16/8",
		"test free 16/8",
		"test allocate 64/8",
		"test free 64/8",
		"test allocate 32/8",
		"test free 32/8",
	}, events)
}

func TestHeapBuildStatsString(t *testing.T) {
	ctrl := gomock.NewController(t)
	allocator := mocks.NewMockAllocator(ctrl)
	h := heap.New(nil, allocator, heap.CreateOptions{
		Flags:     heap.HeapCreateExternallySynchronized,
		SizeLimit: 1024,
	})
	require.False(t, h.UsesMutex())

	_, region := buffer(16)
	allocator.EXPECT().Allocate(raw(16), uint(8)).Return(region)

	_, err := h.Allocate(16, 8)
	require.NoError(t, err)

	_, err = h.Allocate(0, 8)
	require.Error(t, err)

	require.JSONEq(t, fmt.Sprintf(`{
		"Flags": "HeapCreateExternallySynchronized",
		"SizeLimit": 1024,
		"DebugMargin": %d,
		"Live": {
			"Allocations": 1,
			"Bytes": 16,
			"PeakBytes": 16
		},
		"Total": {
			"Allocations": 1,
			"Reallocations": 0,
			"InPlaceReallocations": 0,
			"RejectedRequests": 1,
			"RefusedRequests": 0,
			"LeakedAllocations": 0
		}
	}`, memutils.DebugMargin), h.BuildStatsString())
}

func TestCreateFlagsString(t *testing.T) {
	require.Equal(t, "None", heap.CreateFlags(0).String())
	require.Equal(t, "HeapCreateExternallySynchronized", heap.HeapCreateExternallySynchronized.String())
	require.Equal(t, "HeapCreateExternallySynchronized|Unknown", (heap.HeapCreateExternallySynchronized | 4).String())
}

func TestDefaultHeap(t *testing.T) {
	h := heap.Default()
	require.Same(t, h, heap.Default())
	require.True(t, h.UsesMutex())

	ptr, err := h.AllocateZeroed(64, 64)
	require.NoError(t, err)
	require.True(t, memutils.IsAligned(uintptr(ptr), 64))
	require.Equal(t, make([]byte, 64), unsafe.Slice((*byte)(ptr), 64))

	h.Deallocate(ptr, 64, 64)
}
