package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/hostmem/heap"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <length> <alignment>",
		Short: "Check a memory request without allocating",
		Long: `The validate command reports whether a heap would accept a request of the
given length and alignment, and if not, why it would be rejected.

Example:
  hostmemctl validate 4096 64
  hostmemctl validate 0 8`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args)
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	length, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid length %q", args[0])
	}

	alignment, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid alignment %q", args[1])
	}

	err = heap.Validate(uint(length), uint(alignment))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d bytes aligned to %d\n", length, alignment)
	return nil
}
