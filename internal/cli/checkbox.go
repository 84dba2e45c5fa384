package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Bahjat/formfill/internal/csvtable"
	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/platform/errs"
	"github.com/Bahjat/formfill/internal/rowgen"
)

func newCheckboxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkbox",
		Short: "Inspect checkbox groups and generate checkbox records",
	}
	cmd.AddCommand(newCheckboxInspectCmd(a), newCheckboxGenerateCmd(a))
	return cmd
}

func newCheckboxInspectCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "Report checkbox groups with their sizes, ticked counts and labels",
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
			groups, err := svc.Checkboxes(cmd.Context(), id)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), groups)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "name\tinspected\tselected\tlabels")
			for _, g := range groups {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", g.Name, g.InspectedCount, g.SelectedCount, strings.Join(g.Labels, " | "))
			}
			return tw.Flush()
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the groups as JSON")
	return cmd
}

func newCheckboxGenerateCmd(a *app) *cobra.Command {
	var (
		groups  []string
		records int
		table   bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate fieldName,options,selected records for checkbox groups",
		Long: `generate produces records for one or more checkbox groups given as
name:inspected[:selected]. A selected count of 0 ticks each box with
probability 0.3; a positive count ticks exactly that many.`,
		Example: `  formfill checkbox generate --group terms:3:1 --records 5
  formfill checkbox generate --group color:4 --group size:3:2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs := make([]rowgen.CheckboxSpec, 0, len(groups))
			for _, g := range groups {
				spec, err := parseGroup(g)
				if err != nil {
					return err
				}
				spec.Records = max(records, 1)
				specs = append(specs, spec)
			}
			if len(specs) == 0 {
				specs = append(specs, rowgen.CheckboxSpec{InspectedCount: 1, Records: max(records, 1)})
			}

			keys := rowgen.GroupKeys(specs)
			for i, k := range keys {
				if slices.Contains(keys[:i], k) {
					return &errs.AppError{Kind: errs.InvalidInput, Message: fmt.Sprintf("Checkbox group %q is given more than once.", k)}
				}
			}

			// Records are printed in the order the groups were given.
			byGroup := a.gen.Multiple(specs)
			var all []model.CheckboxRecord
			for _, k := range keys {
				all = append(all, byGroup[k]...)
			}

			a.logger.Info("checkbox records generated", "groups", len(specs), "records", len(all))
			if table {
				return csvtable.RenderTable(cmd.OutOrStdout(), all)
			}
			return writeText(cmd.OutOrStdout(), csvtable.ToCSVFromRecords(all))
		},
	}
	cmd.Flags().StringArrayVar(&groups, "group", nil, "checkbox group as name:inspected[:selected] (repeatable)")
	cmd.Flags().IntVarP(&records, "records", "n", 1, "records per group")
	cmd.Flags().BoolVar(&table, "table", false, "print an aligned table instead of CSV")
	return cmd
}

// parseGroup reads name:inspected[:selected]. The name may be empty.
func parseGroup(s string) (rowgen.CheckboxSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return rowgen.CheckboxSpec{}, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: fmt.Sprintf("Invalid group %q; use name:inspected[:selected].", s),
		}
	}

	spec := rowgen.CheckboxSpec{Name: strings.TrimSpace(parts[0])}
	var err error
	if spec.InspectedCount, err = strconv.Atoi(parts[1]); err != nil || spec.InspectedCount < 1 {
		return rowgen.CheckboxSpec{}, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: fmt.Sprintf("Invalid inspected count in %q.", s),
		}
	}
	if len(parts) == 3 {
		if spec.SelectedCount, err = strconv.Atoi(parts[2]); err != nil || spec.SelectedCount < 0 {
			return rowgen.CheckboxSpec{}, &errs.AppError{
				Kind:    errs.InvalidInput,
				Message: fmt.Sprintf("Invalid selected count in %q.", s),
			}
		}
	}
	return spec, nil
}
