// Package formspec infers form field specifications from captured HTML.
package formspec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/randval"
)

// defaultControlValue is the value browsers report for a checkbox or radio
// without a value attribute.
const defaultControlValue = "on"

// Option configures Infer.
type Option func(*inferer)

// WithSource sets the random source used to synthesize names for unnamed controls.
func WithSource(src randval.Source) Option {
	return func(in *inferer) { in.gen = randval.New(src, randval.Pools{}) }
}

type inferer struct {
	gen *randval.Generator
}

// control is a scraped form element before classification.
type control struct {
	tag     string
	attrs   map[string]string
	text    strings.Builder
	options []string
}

func (c *control) attr(key string) string {
	return strings.TrimSpace(c.attrs[key])
}

func (c *control) has(key string) bool {
	_, ok := c.attrs[key]
	return ok
}

func (c *control) inputType() string {
	return strings.ToLower(c.attr("type"))
}

// declaredName prefers name, then data-name, then id.
func (c *control) declaredName() string {
	for _, key := range []string{"name", "data-name", "id"} {
		if v := c.attr(key); v != "" {
			return v
		}
	}
	return ""
}

// optionValue falls back through value, id and "on".
func (c *control) optionValue() string {
	if v := c.attrs["value"]; v != "" {
		return v
	}
	if id := c.attr("id"); id != "" {
		return id
	}
	return defaultControlValue
}

// InferString is Infer over a string fragment.
func InferString(fragment string, opts ...Option) ([]model.FieldSpec, error) {
	return Infer(strings.NewReader(fragment), opts...)
}

// Infer scrapes input, select, textarea and button elements from an HTML
// fragment and returns one FieldSpec per distinct name, in document order.
// A fragment without controls yields an empty list and no error.
func Infer(r io.Reader, opts ...Option) ([]model.FieldSpec, error) {
	in := &inferer{}
	for _, opt := range opts {
		opt(in)
	}
	if in.gen == nil {
		in.gen = randval.New(randval.NewSource(), randval.Pools{})
	}

	controls, err := scan(r)
	if err != nil {
		return nil, err
	}
	return in.classify(controls), nil
}

// scan performs a single-pass traversal of the fragment and collects form
// controls with their attributes, option values and text.
func scan(r io.Reader) ([]*control, error) {
	z := html.NewTokenizer(r)

	var (
		controls   []*control
		openSelect *control
		openButton *control
		openOption *control
	)

	closeOption := func() {
		if openOption == nil || openSelect == nil {
			openOption = nil
			return
		}
		value := openOption.attrs["value"]
		if value == "" {
			value = strings.Join(strings.Fields(openOption.text.String()), " ")
		}
		openSelect.options = append(openSelect.options, value)
		openOption = nil
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				closeOption()
				return controls, nil
			}
			return nil, fmt.Errorf("formspec: parse fragment: %w", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := z.TagName()
			tag := string(tn)
			c := &control{tag: tag, attrs: map[string]string{}}
			if hasAttr {
				c.attrs = readAttrs(z)
			}

			switch tag {
			case "input", "textarea":
				controls = append(controls, c)
			case "select":
				closeOption()
				controls = append(controls, c)
				openSelect = c
			case "button":
				controls = append(controls, c)
				if tt == html.StartTagToken {
					openButton = c
				}
			case "option":
				if openSelect != nil {
					closeOption()
					openOption = c
				}
			}

		case html.TextToken:
			text := z.Text()
			if openOption != nil {
				openOption.text.Write(text)
			}
			if openButton != nil {
				openButton.text.Write(text)
			}

		case html.EndTagToken:
			tn, _ := z.TagName()
			switch string(tn) {
			case "option":
				closeOption()
			case "select":
				closeOption()
				openSelect = nil
			case "button":
				openButton = nil
			}
		}
	}
}

func readAttrs(z *html.Tokenizer) map[string]string {
	attrs := map[string]string{}
	for {
		key, val, more := z.TagAttr()
		k := string(key)
		if _, dup := attrs[k]; !dup {
			attrs[k] = string(val)
		}
		if !more {
			return attrs
		}
	}
}

// classify turns scraped controls into specs. The first control to claim a
// name wins; checkbox and radio specs gather options from every control of
// the same type sharing that name.
func (in *inferer) classify(controls []*control) []model.FieldSpec {
	names := make([]string, len(controls))
	taken := make(map[string]bool, len(controls))
	for i, c := range controls {
		names[i] = c.declaredName()
		if names[i] != "" {
			taken[names[i]] = true
		}
	}
	synthesized := make(map[int]bool)
	for i, c := range controls {
		if names[i] != "" {
			continue
		}
		name := in.syntheticName(c.tag, taken)
		taken[name] = true
		names[i] = name
		synthesized[i] = true
	}

	specs := make([]model.FieldSpec, 0, len(controls))
	seen := make(map[string]bool, len(controls))
	for i, c := range controls {
		name := names[i]
		if seen[name] {
			continue
		}
		seen[name] = true

		spec := model.FieldSpec{Name: name, Generator: model.GeneratorAuto}
		switch c.tag {
		case "select":
			spec.Type = model.TypeSelect
			spec.Multiple = c.has("multiple")
			spec.Options = append([]string{}, c.options...)
		case "textarea":
			spec.Type = model.TypeTextarea
		case "button":
			spec.Type = model.TypeButton
			spec.Label = buttonLabel(c)
		default:
			switch c.inputType() {
			case "checkbox", "radio":
				group := groupOf(controls, names, i, synthesized[i])
				spec.Type = model.TypeCheckbox
				if c.inputType() == "radio" {
					spec.Type = model.TypeRadio
				}
				spec.Options = make([]string, 0, len(group))
				checked := 0
				for _, member := range group {
					spec.Options = append(spec.Options, member.optionValue())
					if member.has("checked") {
						checked++
					}
				}
				if spec.Type == model.TypeCheckbox {
					spec.SelectedCount = model.IntPtr(checked)
				}
			case "number":
				spec.Type = model.TypeNumber
			default:
				spec.Type = model.TypeText
			}
		}
		specs = append(specs, spec)
	}
	return specs
}

// groupOf returns the inputs of the same type as controls[i] sharing its name.
func groupOf(controls []*control, names []string, i int, synthesized bool) []*control {
	if synthesized {
		return []*control{controls[i]}
	}
	typ := controls[i].inputType()
	var group []*control
	for j, c := range controls {
		if c.tag == "input" && c.inputType() == typ && names[j] == names[i] {
			group = append(group, c)
		}
	}
	return group
}

func buttonLabel(c *control) string {
	if text := strings.TrimSpace(c.text.String()); text != "" {
		return text
	}
	if v := c.attr("value"); v != "" {
		return v
	}
	return "button"
}

func (in *inferer) syntheticName(tag string, taken map[string]bool) string {
	for {
		name := tag + "_" + in.gen.String(4)
		if !taken[name] {
			return name
		}
	}
}
