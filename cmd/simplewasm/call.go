package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call FILE FUNC [ARGS...]",
		Short: "Call an i32 export and print its result",
		Example: `  simplewasm call simple.wasm add 2 3
  simplewasm call simple.wasm mem_stuff 5
  simplewasm call simple.wasm add -7 3`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, name := args[0], args[1]

			callArgs, err := parseI32Args(args[2:])
			if err != nil {
				return err
			}

			data, err := readModule(path)
			if err != nil {
				return err
			}
			eng, err := a.newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close(ctx)

			mod, err := eng.Load(ctx, data)
			if err != nil {
				return err
			}
			inst, err := mod.Instantiate(ctx)
			if err != nil {
				return err
			}
			defer inst.Close(ctx)

			result, err := inst.CallI32(ctx, name, callArgs...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
	// Everything after FILE is positional, so negative arguments are not
	// read as shorthand flags.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// parseI32Args converts command line arguments to i32 values.
func parseI32Args(args []string) ([]int32, error) {
	out := make([]int32, len(args))
	for i, s := range args {
		v, err := parseI32(s)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
