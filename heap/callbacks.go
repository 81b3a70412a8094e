package heap

import "unsafe"

type AllocateHostMemoryCallback func(
	heap *Heap,
	ptr unsafe.Pointer,
	length uint,
	alignment uint,
	userData interface{},
)

type FreeHostMemoryCallback func(
	heap *Heap,
	ptr unsafe.Pointer,
	length uint,
	alignment uint,
	userData interface{},
)

// MemoryCallbackOptions are informational callbacks fired whenever a Heap claims or releases a
// region. A moving or in-place reallocation is reported as a Free of the old region followed by
// an Allocate of the new one.
type MemoryCallbackOptions struct {
	Allocate AllocateHostMemoryCallback
	Free     FreeHostMemoryCallback
	UserData interface{}
}

type memoryCallbacks struct {
	Callbacks *MemoryCallbackOptions
	Heap      *Heap
}

func (c *memoryCallbacks) Allocate(
	ptr unsafe.Pointer,
	length uint,
	alignment uint,
) {
	if c.Callbacks != nil && c.Callbacks.Allocate != nil {
		c.Callbacks.Allocate(c.Heap, ptr, length, alignment, c.Callbacks.UserData)
	}
}

func (c *memoryCallbacks) Free(
	ptr unsafe.Pointer,
	length uint,
	alignment uint,
) {
	if c.Callbacks != nil && c.Callbacks.Free != nil {
		c.Callbacks.Free(c.Heap, ptr, length, alignment, c.Callbacks.UserData)
	}
}
