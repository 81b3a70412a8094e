package memutils

import (
	"math"

	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// MaxLength is the largest region length, in bytes, that can ever be requested. Anything larger
// could not be addressed by a signed offset on this platform.
const MaxLength uint = math.MaxInt

// IsPow2 returns true if number is a power of two. Zero is not.
func IsPow2[T constraints.Unsigned](number T) bool {
	return number != 0 && number&(number-1) == 0
}

// CheckPow2 returns an error wrapping ErrBadAlignment if number is not a power of two
func CheckPow2[T constraints.Unsigned](number T, name string) error {
	if !IsPow2(number) {
		return cerrors.Wrapf(ErrBadAlignment, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two. The
// caller is responsible for ensuring the result does not overflow.
func AlignUp(value uint, alignment uint) uint {
	return (value + alignment - 1) & ^(alignment - 1)
}

// AlignDown rounds value down to a multiple of alignment, which must be a power of two.
func AlignDown(value uint, alignment uint) uint {
	return value & ^(alignment - 1)
}

// IsAligned returns true if the address is a multiple of alignment
func IsAligned(address uintptr, alignment uint) bool {
	return address&uintptr(alignment-1) == 0
}
