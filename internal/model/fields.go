package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFieldType is returned when a field type string does not name a
// supported control.
var ErrUnknownFieldType = errors.New("unknown field type")

// FieldType names the kind of form control a FieldSpec describes.
type FieldType string

// Supported control types.
const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeNumber   FieldType = "number"
	TypeSelect   FieldType = "select"
	TypeRadio    FieldType = "radio"
	TypeCheckbox FieldType = "checkbox"
	TypeButton   FieldType = "button"
)

// ParseFieldType normalizes s and reports whether it names a supported type.
// An empty string is treated as text.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return TypeText, nil
	}
	switch t {
	case TypeText, TypeTextarea, TypeNumber, TypeSelect, TypeRadio, TypeCheckbox, TypeButton:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, s)
}

// UnmarshalText rejects unknown type names.
func (t *FieldType) UnmarshalText(b []byte) error {
	parsed, err := ParseFieldType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// GeneratorAuto selects the type-driven value generator.
const GeneratorAuto = "auto"

// Generators lists the override names offered to users, in display order.
var Generators = []string{GeneratorAuto, "name", "email", "phone", "date", "address", "text", "number"}

// FieldSpec describes one detected form control.
type FieldSpec struct {
	Name     string    `json:"name" yaml:"name"`
	Type     FieldType `json:"type" yaml:"type"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Multiple bool      `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	// SelectedCount is the number of pre-checked checkboxes in the group.
	// Nil means unset.
	SelectedCount *int   `json:"selectedCount,omitempty" yaml:"selectedCount,omitempty"`
	Label         string `json:"label,omitempty" yaml:"label,omitempty"`
	Generator     string `json:"generator,omitempty" yaml:"generator,omitempty"`
	ExampleName   string `json:"exampleName,omitempty" yaml:"exampleName,omitempty"`
}

// Describe returns a short human summary such as "color (checkbox 3 opts)".
func (f FieldSpec) Describe() string {
	if len(f.Options) > 0 {
		return fmt.Sprintf("%s (%s %d opts)", f.Name, f.Type, len(f.Options))
	}
	return fmt.Sprintf("%s (%s)", f.Name, f.Type)
}

// IntPtr returns a pointer to n, for populating SelectedCount.
func IntPtr(n int) *int {
	return &n
}

// FieldNames returns the names of specs in order.
func FieldNames(specs []FieldSpec) []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	return names
}
