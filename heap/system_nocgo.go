//go:build !cgo

package heap

// SystemAllocator is a GoAllocator when cgo is unavailable
type SystemAllocator = GoAllocator

// NewSystemAllocator returns the allocator Default uses: libc when cgo is available, a
// GoAllocator otherwise
func NewSystemAllocator() *SystemAllocator {
	return NewGoAllocator()
}
