package heap

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/hostmem/memutils"
)

// Validate checks a (length, alignment) pair without side effects. Length is checked before
// alignment, and alignment is only checked once the length has passed.
//
// A zero length fails with memutils.ErrZeroLength. A length above memutils.MaxLength fails
// with memutils.ErrNotEnoughMemory. An alignment that is not a power of two, zero included,
// fails with memutils.ErrBadAlignment.
func Validate(length, alignment uint) error {
	if length == 0 {
		return cerrors.WithStack(memutils.ErrZeroLength)
	}

	if length > memutils.MaxLength {
		return cerrors.Wrapf(memutils.ErrNotEnoughMemory, "requested length %d exceeds the maximum of %d", length, memutils.MaxLength)
	}

	return memutils.CheckPow2(alignment, "alignment")
}
