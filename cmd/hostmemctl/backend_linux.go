//go:build linux

package main

import "github.com/vkngwrapper/hostmem/heap"

func init() {
	backends["page"] = func() heap.Allocator { return heap.NewPageAllocator() }
}
