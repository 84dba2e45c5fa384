package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "List the form fields inferred from an HTML fragment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fragment, err := a.readFragment(cmd, args, &src)
			if err != nil {
				return err
			}
			svc := a.service("")
			id, err := session(cmd.Context(), svc, fragment)
			if err != nil {
				return err
			}
			result, err := svc.Inspect(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result.Fields)
			}
			fmt.Fprintln(out, result.Summary)
			for _, f := range result.Fields {
				fmt.Fprintf(out, "  %s\n", f.Describe())
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the field specs as JSON")
	return cmd
}
