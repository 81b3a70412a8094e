package main

import (
	"fmt"
	"math"

	cerrors "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/hostmem/allocation"
	"github.com/vkngwrapper/hostmem/heap"
	"github.com/vkngwrapper/hostmem/memutils"
)

var (
	exerciseBackend   string
	exerciseCount     int
	exerciseSize      uint
	exerciseAlignment uint
	exerciseGrowth    uint
	exerciseLimit     uint
	exerciseUnsynced  bool
)

func init() {
	cmd := newExerciseCmd()
	cmd.Flags().StringVar(&exerciseBackend, "backend", "go", "Allocator backend to drive")
	cmd.Flags().IntVar(&exerciseCount, "count", 16, "Number of allocations to make")
	cmd.Flags().UintVar(&exerciseSize, "size", 64, "Initial length of each allocation")
	cmd.Flags().UintVar(&exerciseAlignment, "alignment", 16, "Alignment of each allocation")
	cmd.Flags().UintVar(&exerciseGrowth, "growth", 4, "Factor each allocation is resized by")
	cmd.Flags().UintVar(&exerciseLimit, "limit", 0, "Heap size limit in bytes, 0 for none")
	cmd.Flags().BoolVar(&exerciseUnsynced, "unsynchronized", false, "Create the heap externally synchronized")
	rootCmd.AddCommand(cmd)
}

func newExerciseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Run an allocation workload and print heap statistics",
		Long: `The exercise command claims a batch of zeroed allocations from a fresh heap,
fills them, resizes each one, shrinks each back in place, duplicates one, and
releases everything. Refused requests are counted rather than treated as
failures, so the command can be used to observe size limits.

Example:
  hostmemctl exercise --backend page --size 3000 --growth 3
  hostmemctl exercise --limit 4096 --count 64`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExercise(cmd)
		},
	}
	return cmd
}

func runExercise(cmd *cobra.Command) error {
	if exerciseGrowth == 0 {
		return cerrors.New("--growth must be at least 1")
	}
	if exerciseSize != 0 && exerciseGrowth > math.MaxUint/exerciseSize {
		return cerrors.Newf("--size %d times --growth %d overflows", exerciseSize, exerciseGrowth)
	}

	allocator, err := newBackend(exerciseBackend)
	if err != nil {
		return err
	}

	var flags heap.CreateFlags
	if exerciseUnsynced {
		flags |= heap.HeapCreateExternallySynchronized
	}

	h := heap.New(newLogger(cmd.ErrOrStderr()), allocator, heap.CreateOptions{
		Flags:     flags,
		SizeLimit: exerciseLimit,
	})

	err = exercise(h, exerciseCount, exerciseSize, exerciseAlignment, exerciseGrowth)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), h.BuildStatsString())
	return nil
}

// exercise runs the workload against h. Requests the heap refuses for lack of memory are
// skipped; any other failure ends the run.
func exercise(h *heap.Heap, count int, size, alignment, growth uint) error {
	scope := allocation.NewScope(h)
	defer scope.Release()

	var live []*allocation.Allocation
	for i := 0; i < count; i++ {
		a, err := scope.Zeroed(size, alignment)
		if cerrors.Is(err, memutils.ErrNotEnoughMemory) {
			continue
		} else if err != nil {
			return err
		}

		data := a.Bytes()
		for j := range data {
			data[j] = byte(i)
		}
		live = append(live, a)
	}

	for i, a := range live {
		err := a.Resize(size * growth)
		if err != nil && !cerrors.Is(err, memutils.ErrNotEnoughMemory) {
			return err
		}

		if a.Bytes()[0] != byte(i) {
			return cerrors.AssertionFailedf("allocation %d lost its contents while resizing", i)
		}

		err = a.ResizeInPlace(size)
		if err != nil {
			return err
		}
	}

	if len(live) > 0 {
		duplicate, err := live[0].Duplicate()
		if err == nil {
			scope.Adopt(duplicate)
		} else if !cerrors.Is(err, memutils.ErrNotEnoughMemory) {
			return err
		}
	}

	return nil
}
