package rowgen

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Bahjat/formfill/internal/model"
)

func TestOptionValues(t *testing.T) {
	if diff := cmp.Diff([]string{"val_1", "val_2", "val_3"}, OptionValues(3)); diff != "" {
		t.Errorf("OptionValues mismatch (-want +got):\n%s", diff)
	}
	if got := OptionValues(-1); len(got) != 0 {
		t.Errorf("OptionValues(-1) = %v", got)
	}
}

func TestSimpleCheckbox(t *testing.T) {
	got := SimpleCheckbox(CheckboxSpec{InspectedCount: 2, SelectedCount: 1})
	want := model.FieldSpec{
		Name:          "checkbox",
		Type:          model.TypeCheckbox,
		Options:       []string{"val_1", "val_2"},
		SelectedCount: model.IntPtr(1),
		Generator:     "auto",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SimpleCheckbox mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckboxRecords_ExplicitSelection(t *testing.T) {
	g := newTestGenerator(20)
	records := g.CheckboxRecords(CheckboxSpec{Name: "terms", InspectedCount: 4, SelectedCount: 2, Records: 25})

	if len(records) != 25 {
		t.Fatalf("len(records) = %d, want 25", len(records))
	}
	options := OptionValues(4)
	for _, r := range records {
		if r.FieldName != "terms" {
			t.Errorf("FieldName = %q", r.FieldName)
		}
		if diff := cmp.Diff(options, r.Options); diff != "" {
			t.Errorf("options mismatch (-want +got):\n%s", diff)
		}
		assertDistinctSubset(t, r.Selected, options, 2)
	}
}

func TestCheckboxRecords_ClampsSelection(t *testing.T) {
	records := newTestGenerator(21).CheckboxRecords(CheckboxSpec{InspectedCount: 2, SelectedCount: 5, Records: 5})
	for _, r := range records {
		if r.FieldName != "checkbox" {
			t.Errorf("FieldName = %q, want checkbox", r.FieldName)
		}
		assertDistinctSubset(t, r.Selected, r.Options, 2)
	}
}

func TestCheckboxRecords_ProbabilisticSelection(t *testing.T) {
	records := newTestGenerator(22).CheckboxRecords(CheckboxSpec{Name: "c", InspectedCount: 10, Records: 200})

	total := 0
	for _, r := range records {
		assertDistinctSubset(t, r.Selected, r.Options, -1)
		total += len(r.Selected)
	}
	// 2000 independent draws at p=0.3 average 600.
	if total < 450 || total > 750 {
		t.Errorf("total selected = %d, want about 600", total)
	}
}

func TestMultiple(t *testing.T) {
	got := newTestGenerator(23).Multiple([]CheckboxSpec{
		{Name: "a", InspectedCount: 1, Records: 2},
		{InspectedCount: 2, Records: 1},
		{InspectedCount: 3, Records: 3},
	})

	wantCounts := map[string]int{"a": 2, "checkbox_2": 1, "checkbox_3": 3}
	if len(got) != len(wantCounts) {
		t.Fatalf("keys = %v", got)
	}
	for key, n := range wantCounts {
		if len(got[key]) != n {
			t.Errorf("%s has %d records, want %d", key, len(got[key]), n)
		}
	}
}

func TestGroupKeys(t *testing.T) {
	tests := []struct {
		name  string
		specs []CheckboxSpec
		want  []string
	}{
		{name: "none", specs: nil, want: []string{}},
		{name: "named keep order", specs: []CheckboxSpec{{Name: "z"}, {Name: "a"}}, want: []string{"z", "a"}},
		{name: "unnamed numbered", specs: []CheckboxSpec{{Name: "a"}, {}, {}}, want: []string{"a", "checkbox_2", "checkbox_3"}},
		{name: "duplicates kept", specs: []CheckboxSpec{{Name: "a"}, {Name: "a"}, {}}, want: []string{"a", "a", "checkbox_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, GroupKeys(tt.specs)); diff != "" {
				t.Errorf("GroupKeys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
