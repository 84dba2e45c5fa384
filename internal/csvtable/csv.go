// Package csvtable serializes generated rows and checkbox records.
package csvtable

import (
	"strings"

	"github.com/Bahjat/formfill/internal/model"
)

const (
	listSeparator = "|"
	lineSeparator = "\n"
)

// RecordsHeader is the fixed header of the checkbox record layout.
var RecordsHeader = []string{"fieldName", "options", "selected"}

// ToCSV renders rows as CSV. Columns follow the spec names when specs is
// non-empty, otherwise the union of row keys in first-appearance order.
// Lists are joined with "|" and always quoted. There is no trailing newline
// and no header when rows is empty.
func ToCSV(rows []model.Row, specs []model.FieldSpec) string {
	if len(rows) == 0 {
		return ""
	}

	header := model.FieldNames(specs)
	if len(header) == 0 {
		header = unionKeys(rows)
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, joinCells(header, escapeScalar))
	for _, row := range rows {
		cells := make([]string, len(header))
		for i, name := range header {
			v, ok := row.Get(name)
			if !ok {
				continue
			}
			cells[i] = formatValue(v)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, lineSeparator)
}

// ToCSVFromRecords renders checkbox records under RecordsHeader. The header
// line is emitted even when records is empty.
func ToCSVFromRecords(records []model.CheckboxRecord) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(RecordsHeader, ","))
	for _, r := range records {
		lines = append(lines, strings.Join([]string{
			escapeScalar(r.FieldName),
			quoteList(r.Options),
			quoteList(r.Selected),
		}, ","))
	}
	return strings.Join(lines, lineSeparator)
}

// FormRowRecords flattens each row into a record named "form-row" whose
// selected entries are "name=value" pairs, lists pipe-joined.
func FormRowRecords(rows []model.Row) []model.CheckboxRecord {
	records := make([]model.CheckboxRecord, 0, len(rows))
	for _, row := range rows {
		pairs := make([]string, 0, row.Len())
		for _, k := range row.Keys() {
			v, _ := row.Get(k)
			pairs = append(pairs, k+"="+plain(v))
		}
		records = append(records, model.CheckboxRecord{
			FieldName: "form-row",
			Options:   []string{},
			Selected:  pairs,
		})
	}
	return records
}

func unionKeys(rows []model.Row) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func formatValue(v model.Value) string {
	if v.Multi {
		return quoteList(v.Items)
	}
	return escapeScalar(v.Text)
}

func plain(v model.Value) string {
	if v.Multi {
		return strings.Join(v.Items, listSeparator)
	}
	return v.Text
}

func joinCells(cells []string, escape func(string) string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = escape(c)
	}
	return strings.Join(out, ",")
}

// escapeScalar quotes s only when it holds a comma, quote or line break.
func escapeScalar(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return quote(s)
}

func quoteList(items []string) string {
	return quote(strings.Join(items, listSeparator))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
