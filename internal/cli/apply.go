package cli

import (
	"github.com/spf13/cobra"

	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/platform/errs"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		src      sourceFlags
		field    string
		selected []string
		record   string
	)
	cmd := &cobra.Command{
		Use:   "apply [file|-]",
		Short: "Tick the checkboxes listed in a record and print the updated fragment",
		Example: `  formfill apply form.html --field color --select red,blue
  formfill apply form.html --record '{"fieldName":"color","selected":["green"]}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := model.CheckboxRecord{FieldName: field, Selected: selected}
			if record != "" {
				if err := json.Unmarshal([]byte(record), &rec); err != nil {
					return &errs.AppError{Kind: errs.InvalidInput, Message: "The --record value is not a valid checkbox record.", Cause: err}
				}
			}
			if rec.FieldName == "" {
				return &errs.AppError{Kind: errs.InvalidInput, Message: "A checkbox group name is required; use --field or --record."}
			}

			fragment, err := a.readFragment(cmd, args, &src)
			if err != nil {
				return err
			}
			svc := a.service("")
			id, err := session(cmd.Context(), svc, fragment)
			if err != nil {
				return err
			}
			updated, err := svc.Apply(cmd.Context(), id, rec)
			if err != nil {
				return err
			}
			return writeText(cmd.OutOrStdout(), updated)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&field, "field", "", "checkbox group name")
	cmd.Flags().StringSliceVar(&selected, "select", nil, "values to tick")
	cmd.Flags().StringVar(&record, "record", "", "record as JSON, as printed by generate --format json")
	return cmd
}
