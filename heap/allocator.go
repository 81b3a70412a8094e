package heap

import "unsafe"

//go:generate mockgen -source allocator.go -destination mocks/allocator.go -package mocks

// Allocator is the raw memory capability a Heap fronts. Implementations perform no validation
// of their own: the Heap guarantees that every length passed in is nonzero and at most
// memutils.MaxLength, and that every alignment is a power of two.
//
// Allocate, AllocateZeroed and Reallocate indicate refusal by returning nil. A refused
// Reallocate must leave the original region untouched.
//
// ReallocateInPlace never moves the region. It returns the length the region now has, which
// is oldLength if nothing could be done and may fall short of newLength when a grow could
// only be partially satisfied. Shrinking requests should be honored exactly.
//
// Deallocate is only ever called with a triple describing a live region. Implementations may
// assume this.
type Allocator interface {
	Allocate(length, alignment uint) unsafe.Pointer
	AllocateZeroed(length, alignment uint) unsafe.Pointer
	Reallocate(ptr unsafe.Pointer, oldLength, newLength, alignment uint) unsafe.Pointer
	ReallocateInPlace(ptr unsafe.Pointer, oldLength, newLength, alignment uint) uint
	Deallocate(ptr unsafe.Pointer, length, alignment uint)
}
