package memutils

import "github.com/pkg/errors"

var (
	// ErrZeroLength is returned when a memory request asks for zero bytes. It is rejected before the
	// underlying allocator is ever consulted.
	ErrZeroLength error = errors.New("allocation length must be nonzero")

	// ErrBadAlignment is returned from CheckPow2 or any memory request whose alignment is not a power
	// of two. Zero is not a power of two.
	ErrBadAlignment error = errors.New("alignment must be a power of two")

	// ErrNotEnoughMemory is returned when a validated memory request is refused by the underlying
	// allocator, or when the requested length exceeds MaxLength. The two cases are deliberately
	// not distinguished.
	ErrNotEnoughMemory error = errors.New("out of memory")
)
