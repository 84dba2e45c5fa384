// Package rowgen builds synthetic rows from form field specifications.
package rowgen

import (
	"fmt"
	"strings"

	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/randval"
)

const (
	defaultFieldName   = "field"
	defaultButtonLabel = "button"
	textLength         = 8
	fallbackLength     = 6
	maxMultiPicks      = 3
)

// Field is a compiled field spec. The implementations in this package form
// a closed set; each one knows how to produce its own value.
type Field interface {
	Name() string
	generate(g *randval.Generator) model.Value
}

// TextField yields a random alphanumeric string.
type TextField struct{ name string }

// NumberField yields an integer in [0, 9999] as a string.
type NumberField struct{ name string }

// SelectField picks from options: one value, or several when Multiple.
type SelectField struct {
	name     string
	options  []string
	multiple bool
	picks    *int
}

// RadioField picks exactly one option.
type RadioField struct {
	name    string
	options []string
}

// CheckboxField picks a subset of options.
type CheckboxField struct {
	name     string
	options  []string
	selected *int
}

// ButtonField always yields its label.
type ButtonField struct {
	name  string
	label string
}

// OverrideField ignores the control type and uses an explicit strategy.
type OverrideField struct {
	name        string
	strategy    Strategy
	exampleName string
}

func (f TextField) Name() string     { return f.name }
func (f NumberField) Name() string   { return f.name }
func (f SelectField) Name() string   { return f.name }
func (f RadioField) Name() string    { return f.name }
func (f CheckboxField) Name() string { return f.name }
func (f ButtonField) Name() string   { return f.name }
func (f OverrideField) Name() string { return f.name }

func (f TextField) generate(g *randval.Generator) model.Value {
	return model.Scalar(g.String(textLength))
}

func (f NumberField) generate(g *randval.Generator) model.Value {
	return model.Scalar(fmt.Sprint(g.Number(0, 9999)))
}

func (f SelectField) generate(g *randval.Generator) model.Value {
	if !f.multiple {
		return model.Scalar(g.Choose(f.options))
	}
	if f.picks != nil {
		return model.List(g.Pick(f.options, *f.picks))
	}
	if len(f.options) == 0 {
		return model.List(nil)
	}
	count := g.Number(1, min(maxMultiPicks, len(f.options)))
	return model.List(g.Pick(f.options, count))
}

func (f RadioField) generate(g *randval.Generator) model.Value {
	return model.Scalar(g.Choose(f.options))
}

func (f CheckboxField) generate(g *randval.Generator) model.Value {
	var count int
	if f.selected != nil {
		count = *f.selected
	} else {
		count = g.Number(0, len(f.options))
	}
	return model.List(g.Pick(f.options, count))
}

func (f ButtonField) generate(*randval.Generator) model.Value {
	return model.Scalar(f.label)
}

func (f OverrideField) generate(g *randval.Generator) model.Value {
	switch f.strategy {
	case StrategyName:
		return model.Scalar(g.Name())
	case StrategyEmail:
		return model.Scalar(g.Email(f.exampleName))
	case StrategyPhone:
		return model.Scalar(g.Phone())
	case StrategyDate:
		return model.Scalar(g.Date(randval.OverrideDateEndYear))
	case StrategyAddress:
		return model.Scalar(g.Address())
	case StrategyNumber:
		return model.Scalar(fmt.Sprint(g.Number(0, 9999)))
	case StrategyText:
		return model.Scalar(g.String(textLength))
	default:
		return model.Scalar(g.String(fallbackLength))
	}
}

// Strategy is an explicit value generator chosen by the user.
type Strategy int

// Known strategies. StrategyUnknown covers names this package does not
// recognize and produces a short random string.
const (
	StrategyUnknown Strategy = iota
	StrategyName
	StrategyEmail
	StrategyPhone
	StrategyDate
	StrategyAddress
	StrategyNumber
	StrategyText
)

var strategies = map[string]Strategy{
	"name":    StrategyName,
	"email":   StrategyEmail,
	"phone":   StrategyPhone,
	"date":    StrategyDate,
	"address": StrategyAddress,
	"number":  StrategyNumber,
	"text":    StrategyText,
}

// ParseStrategy reports the strategy named by s. ok is false for "" and
// "auto", which select the type-driven generator.
func ParseStrategy(s string) (Strategy, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" || name == model.GeneratorAuto {
		return StrategyUnknown, false
	}
	return strategies[name], true
}

// Compile validates spec and returns its generating variant.
func Compile(spec model.FieldSpec) (Field, error) {
	name := spec.Name
	if name == "" {
		name = defaultFieldName
	}

	if strategy, ok := ParseStrategy(spec.Generator); ok {
		return OverrideField{name: name, strategy: strategy, exampleName: spec.ExampleName}, nil
	}

	typ, err := model.ParseFieldType(string(spec.Type))
	if err != nil {
		return nil, fmt.Errorf("rowgen: field %q: %w", name, err)
	}

	options := append([]string(nil), spec.Options...)
	switch typ {
	case model.TypeNumber:
		return NumberField{name: name}, nil
	case model.TypeSelect:
		return SelectField{name: name, options: options, multiple: spec.Multiple, picks: clamp(spec.SelectedCount, len(options))}, nil
	case model.TypeRadio:
		return RadioField{name: name, options: options}, nil
	case model.TypeCheckbox:
		return CheckboxField{name: name, options: options, selected: clamp(spec.SelectedCount, len(options))}, nil
	case model.TypeButton:
		label := spec.Label
		if label == "" {
			label = defaultButtonLabel
		}
		return ButtonField{name: name, label: label}, nil
	default:
		return TextField{name: name}, nil
	}
}

// clamp bounds an explicit count to [0, n]; nil stays nil.
func clamp(count *int, n int) *int {
	if count == nil {
		return nil
	}
	return model.IntPtr(max(0, min(*count, n)))
}
