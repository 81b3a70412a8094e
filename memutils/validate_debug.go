//go:build debug_mem_utils

package memutils

import "unsafe"

const (
	// DebugMargin is the number of guard bytes the heap places directly after every region it hands
	// out. The guard is checked whenever the region is reallocated or released.
	DebugMargin uint = 16
	// corruptionDetectionMagicValue is a 4-byte pattern repeated across the guard bytes
	corruptionDetectionMagicValue uint32 = 0x7F84E666
)

func magicByte(index uint) byte {
	return byte(corruptionDetectionMagicValue >> (8 * (index % 4)))
}

// WriteMagicValue writes an easy-to-identify marker across DebugMargin bytes at the provided pointer and offset.
// This method no-ops unless the debug_mem_utils build tag is present.
func WriteMagicValue(data unsafe.Pointer, offset uint) {
	dest := unsafe.Slice((*byte)(unsafe.Add(data, offset)), DebugMargin)
	for i := range dest {
		dest[i] = magicByte(uint(i))
	}
}

// ValidateMagicValue verifies that the easy-to-identify marker written by WriteMagicValue is still present.
// It returns true if the value is still present and false otherwise.
// This method no-ops unless the debug_mem_utils build tag is present.
func ValidateMagicValue(data unsafe.Pointer, offset uint) bool {
	source := unsafe.Slice((*byte)(unsafe.Add(data, offset)), DebugMargin)
	for i, b := range source {
		if b != magicByte(uint(i)) {
			return false
		}
	}

	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}
