package main

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/vkngwrapper/hostmem/heap"
)

var backends = map[string]func() heap.Allocator{
	"go":     func() heap.Allocator { return heap.NewGoAllocator() },
	"system": func() heap.Allocator { return heap.NewSystemAllocator() },
}

func backendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func newBackend(name string) (heap.Allocator, error) {
	create, ok := backends[name]
	if !ok {
		return nil, errors.Errorf("unknown backend %q, expected one of %v", name, backendNames())
	}

	return create(), nil
}
