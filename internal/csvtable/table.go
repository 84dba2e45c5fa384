package csvtable

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Bahjat/formfill/internal/model"
)

// EmptyTableMessage is written by RenderTable when there is nothing to show.
const EmptyTableMessage = "No rows generated"

// RenderTable writes records as an aligned text table under RecordsHeader.
// Options and selections are joined with " | ".
func RenderTable(w io.Writer, records []model.CheckboxRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, EmptyTableMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(RecordsHeader, "\t"))
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.FieldName, strings.Join(r.Options, " | "), strings.Join(r.Selected, " | "))
	}
	return tw.Flush()
}
