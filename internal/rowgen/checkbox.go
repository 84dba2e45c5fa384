package rowgen

import (
	"fmt"

	"github.com/Bahjat/formfill/internal/model"
)

const (
	defaultGroupName = "checkbox"
	// selectProbability applies per option when no selected count is given.
	selectProbability = 0.3
)

// CheckboxSpec describes a checkbox group entered by hand rather than
// inspected: a name, how many boxes exist, how many are ticked and how many
// records to produce.
type CheckboxSpec struct {
	Name           string `json:"name"`
	InspectedCount int    `json:"inspectedCount"`
	SelectedCount  int    `json:"selectedCount"`
	Records        int    `json:"records"`
}

// OptionValues returns the synthetic option values val_1..val_n.
func OptionValues(n int) []string {
	values := make([]string, 0, max(n, 0))
	for i := range max(n, 0) {
		values = append(values, fmt.Sprintf("val_%d", i+1))
	}
	return values
}

// SimpleCheckbox converts a hand-entered group into a checkbox FieldSpec.
func SimpleCheckbox(spec CheckboxSpec) model.FieldSpec {
	name := spec.Name
	if name == "" {
		name = defaultGroupName
	}
	return model.FieldSpec{
		Name:          name,
		Type:          model.TypeCheckbox,
		Options:       OptionValues(spec.InspectedCount),
		SelectedCount: model.IntPtr(spec.SelectedCount),
		Generator:     model.GeneratorAuto,
	}
}

// CheckboxRecords produces spec.Records records for one group. A positive
// selected count (clamped to the group size) picks that many distinct
// options; otherwise each option is ticked independently with probability 0.3.
func (g *Generator) CheckboxRecords(spec CheckboxSpec) []model.CheckboxRecord {
	name := spec.Name
	if name == "" {
		name = defaultGroupName
	}
	options := OptionValues(spec.InspectedCount)
	selected := max(0, min(spec.SelectedCount, len(options)))

	records := make([]model.CheckboxRecord, 0, max(spec.Records, 0))
	for range max(spec.Records, 0) {
		var picks []string
		if selected > 0 {
			picks = g.values.Pick(options, selected)
		} else {
			picks = []string{}
			for _, opt := range options {
				if g.values.Bool(selectProbability) {
					picks = append(picks, opt)
				}
			}
		}
		records = append(records, model.CheckboxRecord{
			FieldName: name,
			Options:   append([]string(nil), options...),
			Selected:  picks,
		})
	}
	return records
}

// Multiple runs CheckboxRecords for each group, keyed by GroupKeys. A later
// group replaces an earlier one with the same key.
func (g *Generator) Multiple(specs []CheckboxSpec) map[string][]model.CheckboxRecord {
	keys := GroupKeys(specs)
	result := make(map[string][]model.CheckboxRecord, len(specs))
	for i, s := range specs {
		result[keys[i]] = g.CheckboxRecords(s)
	}
	return result
}

// GroupKeys returns the key Multiple stores each group under, in order.
// Unnamed groups are keyed checkbox_<n>, where n counts the distinct keys
// before them plus one.
func GroupKeys(specs []CheckboxSpec) []string {
	keys := make([]string, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		key := s.Name
		if key == "" {
			key = fmt.Sprintf("checkbox_%d", len(seen)+1)
		}
		keys[i] = key
		seen[key] = true
	}
	return keys
}
