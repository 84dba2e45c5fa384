package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Bahjat/formfill/internal/csvtable"
	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/platform/errs"
	"github.com/Bahjat/formfill/internal/workbench"
)

// Output formats.
const (
	formatCSV   = "csv"
	formatTable = "table"
	formatJSON  = "json"
)

type generateFlags struct {
	src         sourceFlags
	records     int
	include     []string
	exclude     []string
	generators  map[string]string
	interactive bool
	format      string
	outputDir   string
	copy        bool

	name      string
	inspected int
	selected  int
}

func newGenerateCmd(a *app) *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate [file|-]",
		Short: "Generate random rows for the fields of an HTML fragment",
		Long: `generate infers the fields of a fragment and prints random rows for them.

Without a fragment, --name, --inspected and --selected describe a single
checkbox group whose options are val_1..val_n.`,
		Example: `  formfill generate signup.html --records 20 --generator email=email
  formfill generate --url https://example.com/join --selector '#signup' --format table
  formfill generate --name terms --inspected 3 --selected 1 --records 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, args, f)
		},
	}

	fl := cmd.Flags()
	f.src.register(cmd)
	fl.IntVarP(&f.records, "records", "n", 1, "number of rows to generate")
	fl.StringSliceVar(&f.include, "include", nil, "only generate these fields")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "skip these fields")
	fl.StringToStringVar(&f.generators, "generator", nil, "override a field's generator, as field=generator")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "choose fields and generators interactively")
	fl.StringVarP(&f.format, "format", "f", formatCSV, "output format: csv, table or json")
	fl.StringVarP(&f.outputDir, "output-dir", "o", "", "also save the CSV into this directory")
	fl.BoolVar(&f.copy, "copy", false, "also copy the CSV to the clipboard")
	fl.StringVar(&f.name, "name", "", "checkbox group name when no fragment is given")
	fl.IntVar(&f.inspected, "inspected", 1, "number of checkboxes in the group")
	fl.IntVar(&f.selected, "selected", 0, "number of checkboxes ticked per row")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, args []string, f *generateFlags) error {
	if !slices.Contains([]string{formatCSV, formatTable, formatJSON}, f.format) {
		return &errs.AppError{Kind: errs.InvalidInput, Message: fmt.Sprintf("Unknown format %q; use csv, table or json.", f.format)}
	}

	ctx := cmd.Context()
	svc := a.service(f.outputDir)
	req := workbench.GenerateRequest{Records: workbench.CountOf(f.records)}

	formOnly := len(args) == 0 && len(f.src.urls) == 0 &&
		(cmd.Flags().Changed("name") || cmd.Flags().Changed("inspected") || cmd.Flags().Changed("selected"))

	var id string
	if formOnly {
		id = svc.NewSession(ctx)
		req.Form = &workbench.CheckboxForm{
			Name:      f.name,
			Inspected: workbench.CountOf(f.inspected),
			Selected:  workbench.CountOf(f.selected),
		}
	} else {
		fragment, err := a.readFragment(cmd, args, &f.src)
		if err != nil {
			return err
		}
		if id, err = session(ctx, svc, fragment); err != nil {
			return err
		}
		inspected, err := svc.Inspect(ctx, id)
		if err != nil {
			return err
		}
		if f.interactive {
			req.Choices, err = a.chooseFields(ctx, inspected.Fields)
		} else {
			req.Choices, err = flagChoices(inspected.Fields, f)
		}
		if err != nil {
			return err
		}
	}

	result, err := svc.Generate(ctx, id, req)
	if err != nil {
		return err
	}

	if err := writeResult(cmd, result, f.format); err != nil {
		return err
	}

	if f.outputDir != "" {
		if err := svc.Export(ctx, result, workbench.DestinationFile); err != nil {
			return err
		}
	}
	if f.copy {
		if err := svc.Export(ctx, result, workbench.DestinationClipboard); err != nil {
			printWarning(cmd.ErrOrStderr(), err.Error())
		}
	}
	return nil
}

func writeResult(cmd *cobra.Command, result workbench.Result, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case formatTable:
		return csvtable.RenderTable(out, result.Records)
	case formatJSON:
		return writeJSON(out, result)
	default:
		return writeText(out, result.CSV)
	}
}

func flagChoices(fields []model.FieldSpec, f *generateFlags) ([]workbench.FieldChoice, error) {
	names := model.FieldNames(fields)
	for _, list := range [][]string{f.include, f.exclude, mapKeys(f.generators)} {
		for _, n := range list {
			if !slices.Contains(names, n) {
				return nil, &errs.AppError{Kind: errs.InvalidInput, Message: fmt.Sprintf("Unknown field %q. Detected fields: %v.", n, names)}
			}
		}
	}

	choices := make([]workbench.FieldChoice, 0, len(fields))
	for _, name := range names {
		include := !slices.Contains(f.exclude, name) && (len(f.include) == 0 || slices.Contains(f.include, name))
		choices = append(choices, workbench.FieldChoice{
			Name:      name,
			Include:   &include,
			Generator: f.generators[name],
		})
	}
	return choices, nil
}

func (a *app) chooseFields(ctx context.Context, fields []model.FieldSpec) ([]workbench.FieldChoice, error) {
	p := a.prompter
	if p == nil {
		p = surveyPrompter{}
	}

	labels := make([]string, len(fields))
	all := make([]int, len(fields))
	for i, f := range fields {
		labels[i] = f.Describe()
		all[i] = i
	}
	picked, err := p.MultiSelect(ctx, "Fields to include:", labels, all)
	if err != nil {
		return nil, err
	}

	choices := make([]workbench.FieldChoice, 0, len(fields))
	for i, f := range fields {
		include := slices.Contains(picked, i)
		choice := workbench.FieldChoice{Name: f.Name, Include: &include}
		if include {
			current := max(slices.Index(model.Generators, f.Generator), 0)
			idx, err := p.Select(ctx, fmt.Sprintf("Generator for %s:", f.Name), model.Generators, current)
			if err != nil {
				return nil, err
			}
			if idx >= 0 && idx < len(model.Generators) {
				choice.Generator = model.Generators[idx]
			}
		}
		choices = append(choices, choice)
	}
	return choices, nil
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
