package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/simple-wasm/inspect"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		section string
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Describe the sections, exports and custom sections of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readModule(args[0])
			if err != nil {
				return err
			}
			report, err := inspect.Describe(data, section)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return report.Render(w, !plain && isTerminal(w))
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "only list custom sections matching this glob")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors")
	return cmd
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
