package heap

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/hostmem/memutils"
)

// CalculateStatistics adds this heap's counters to stats
func (h *Heap) CalculateStatistics(stats *memutils.DetailedStatistics) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	stats.AddDetailedStatistics(&h.stats)
}

// BuildStatsString returns a json document describing this heap's configuration and counters
func (h *Heap) BuildStatsString() string {
	h.logger.Debug("Heap::BuildStatsString")

	var stats memutils.DetailedStatistics
	h.CalculateStatistics(&stats)

	writer := jwriter.NewWriter()
	objState := writer.Object()

	objState.Name("Flags").String(h.createFlags.String())
	objState.Name("SizeLimit").Int(int(h.sizeLimit))
	objState.Name("DebugMargin").Int(int(memutils.DebugMargin))

	liveObj := objState.Name("Live").Object()
	liveObj.Name("Allocations").Int(stats.AllocationCount)
	liveObj.Name("Bytes").Int(stats.AllocationBytes)
	liveObj.Name("PeakBytes").Int(stats.PeakAllocationBytes)
	liveObj.End()

	totalObj := objState.Name("Total").Object()
	totalObj.Name("Allocations").Int(stats.TotalAllocations)
	totalObj.Name("Reallocations").Int(stats.Reallocations)
	totalObj.Name("InPlaceReallocations").Int(stats.InPlaceReallocations)
	totalObj.Name("RejectedRequests").Int(stats.RejectedRequests)
	totalObj.Name("RefusedRequests").Int(stats.RefusedRequests)
	totalObj.Name("LeakedAllocations").Int(stats.LeakedAllocations)
	totalObj.End()

	objState.End()

	return string(writer.Bytes())
}
