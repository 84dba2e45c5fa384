package rowgen

import (
	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/randval"
)

// Generator produces rows from field specs.
type Generator struct {
	values *randval.Generator
}

// New returns a Generator drawing from src and pools.
func New(src randval.Source, pools randval.Pools) *Generator {
	return &Generator{values: randval.New(src, pools)}
}

// Values exposes the underlying value generator.
func (g *Generator) Values() *randval.Generator {
	return g.values
}

// CompileAll compiles specs in order and stops at the first invalid one.
func CompileAll(specs []model.FieldSpec) ([]Field, error) {
	fields := make([]Field, 0, len(specs))
	for _, spec := range specs {
		f, err := Compile(spec)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Generate returns exactly recordCount rows (none when recordCount <= 0).
func (g *Generator) Generate(specs []model.FieldSpec, recordCount int) ([]model.Row, error) {
	fields, err := CompileAll(specs)
	if err != nil {
		return nil, err
	}
	return g.GenerateFields(fields, recordCount), nil
}

// GenerateFields is Generate over already compiled fields.
func (g *Generator) GenerateFields(fields []Field, recordCount int) []model.Row {
	rows := make([]model.Row, 0, max(recordCount, 0))
	for range max(recordCount, 0) {
		row := model.NewRow(len(fields))
		for _, f := range fields {
			row.Set(f.Name(), f.generate(g.values))
		}
		rows = append(rows, row)
	}
	return rows
}
