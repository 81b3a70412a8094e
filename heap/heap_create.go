package heap

import (
	"io"
	"math/bits"
	"strings"
	"sync"

	"github.com/vkngwrapper/hostmem/internal/utils"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific heap behaviors to activate or deactivate
type CreateFlags int32

var createFlagsMapping = make(map[CreateFlags]string)

func (f CreateFlags) Register(str string) {
	createFlagsMapping[f] = str
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for remaining := uint32(f); remaining != 0; remaining &= remaining - 1 {
		flag := CreateFlags(1 << bits.TrailingZeros32(remaining))
		name, ok := createFlagsMapping[flag]
		if !ok {
			name = "Unknown"
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

const (
	// HeapCreateExternallySynchronized ensures that this heap will not be synchronized internally.
	// The consumer must guarantee it is used from only one goroutine at a time or is synchronized
	// by some other mechanism. Allocations made from an externally synchronized heap are never
	// released by the garbage collector, since finalizers run on their own goroutine.
	HeapCreateExternallySynchronized CreateFlags = 1 << iota
)

func init() {
	HeapCreateExternallySynchronized.Register("HeapCreateExternallySynchronized")
}

// CreateOptions contains optional settings when creating a heap
type CreateOptions struct {
	// Flags indicates specific heap behaviors to activate or deactivate
	Flags CreateFlags

	// SizeLimit is the maximum number of bytes that may be live in this heap at once. 0 means no
	// limit. The limit is enforced at runtime: requests that would exceed it fail with
	// memutils.ErrNotEnoughMemory without the Allocator being consulted, and in-place growth is
	// clamped to whatever headroom remains.
	SizeLimit uint

	// MemoryCallbackOptions is an optional set of callbacks that will be executed when regions are
	// claimed from or released to the Allocator
	MemoryCallbackOptions *MemoryCallbackOptions
}

// New creates a new Heap
//
// logger - Receives debug traces of every heap operation. If nil, output is discarded.
//
// allocator - The raw memory capability to front. If nil, NewSystemAllocator is used.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, allocator Allocator, options CreateOptions) *Heap {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if allocator == nil {
		allocator = NewSystemAllocator()
	}

	heap := &Heap{
		logger:      logger,
		allocator:   allocator,
		createFlags: options.Flags,
		sizeLimit:   options.SizeLimit,
		mutex: utils.OptionalRWMutex{
			UseMutex: options.Flags&HeapCreateExternallySynchronized == 0,
		},
	}
	heap.callbacks = memoryCallbacks{
		Callbacks: options.MemoryCallbackOptions,
		Heap:      heap,
	}

	return heap
}

var defaultHeap struct {
	once sync.Once
	heap *Heap
}

// Default returns the process-wide Heap over NewSystemAllocator, creating it on first use
func Default() *Heap {
	defaultHeap.once.Do(func() {
		defaultHeap.heap = New(nil, NewSystemAllocator(), CreateOptions{})
	})

	return defaultHeap.heap
}
