package memutils

// Statistics describes the regions currently live in a heap
type Statistics struct {
	AllocationCount int
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.AllocationCount = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.AllocationCount += other.AllocationCount
	s.AllocationBytes += other.AllocationBytes
}

// AddAllocation records a newly claimed region of the provided size
func (s *Statistics) AddAllocation(size int) {
	s.AllocationCount++
	s.AllocationBytes += size
}

// RemoveAllocation records the release of a region of the provided size
func (s *Statistics) RemoveAllocation(size int) {
	s.AllocationCount--
	s.AllocationBytes -= size
}

// DetailedStatistics adds lifetime counters to Statistics. Live counts are only ever as accurate
// as the ownership discipline of the callers: a region that is leaked is still counted as live.
type DetailedStatistics struct {
	Statistics
	// PeakAllocationBytes is the high-water mark of AllocationBytes
	PeakAllocationBytes int
	// TotalAllocations counts every region ever claimed through Allocate or AllocateZeroed
	TotalAllocations int
	// Reallocations counts successful Reallocate calls, whether or not the region moved
	Reallocations int
	// InPlaceReallocations counts in-place resizes that changed the region's length
	InPlaceReallocations int
	// RejectedRequests counts requests that failed validation before reaching the allocator
	RejectedRequests int
	// RefusedRequests counts validated requests the allocator (or size limit) refused
	RefusedRequests int
	// LeakedAllocations counts regions reported unreachable by their owner while still live
	LeakedAllocations int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.PeakAllocationBytes = 0
	s.TotalAllocations = 0
	s.Reallocations = 0
	s.InPlaceReallocations = 0
	s.RejectedRequests = 0
	s.RefusedRequests = 0
	s.LeakedAllocations = 0
}

// AddAllocation records a newly claimed region and updates the high-water mark
func (s *DetailedStatistics) AddAllocation(size int) {
	s.Statistics.AddAllocation(size)
	s.TotalAllocations++

	if s.AllocationBytes > s.PeakAllocationBytes {
		s.PeakAllocationBytes = s.AllocationBytes
	}
}

// ResizeAllocation records a region changing size from oldSize to newSize without being released
func (s *DetailedStatistics) ResizeAllocation(oldSize, newSize int) {
	s.AllocationBytes += newSize - oldSize

	if s.AllocationBytes > s.PeakAllocationBytes {
		s.PeakAllocationBytes = s.AllocationBytes
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.TotalAllocations += other.TotalAllocations
	s.Reallocations += other.Reallocations
	s.InPlaceReallocations += other.InPlaceReallocations
	s.RejectedRequests += other.RejectedRequests
	s.RefusedRequests += other.RefusedRequests
	s.LeakedAllocations += other.LeakedAllocations

	if other.PeakAllocationBytes > s.PeakAllocationBytes {
		s.PeakAllocationBytes = other.PeakAllocationBytes
	}
}
