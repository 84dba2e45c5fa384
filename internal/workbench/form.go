package workbench

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/Bahjat/formfill/internal/rowgen"
)

// Count is an integer typed into a form. It decodes from a JSON number, a
// string or null. Strings are read like a lenient integer input: leading
// digits count, anything else leaves the count unset.
type Count struct {
	n     int
	valid bool
}

// CountOf returns a set Count.
func CountOf(n int) Count {
	return Count{n: n, valid: true}
}

// ParseCount reads s, keeping an optional sign and the leading digits.
func ParseCount(s string) Count {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return Count{}
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return Count{}
	}
	return CountOf(n)
}

// Value returns the count and whether it was set.
func (c Count) Value() (int, bool) {
	return c.n, c.valid
}

// MarshalJSON encodes an unset count as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.n)), nil
}

// UnmarshalJSON accepts numbers, strings and null.
func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = Count{}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ParseCount(s)
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*c = CountOf(int(f))
	}
	return nil
}

// positive returns the count when it is set and above zero, else fallback.
func (c Count) positive(fallback int) int {
	if c.valid && c.n > 0 {
		return c.n
	}
	return fallback
}

// nonNegative returns the count when it is set and not below zero, else fallback.
func (c Count) nonNegative(fallback int) int {
	if c.valid && c.n >= 0 {
		return c.n
	}
	return fallback
}

// CheckboxForm is the standalone checkbox input: a group name and the
// inspected, selected and record counts.
type CheckboxForm struct {
	Name      string `json:"name"`
	Inspected Count  `json:"inspected"`
	Selected  Count  `json:"selected"`
	Records   Count  `json:"records"`
}

// Spec coerces the form into a checkbox group. A blank name becomes
// "checkbox"; unusable counts become inspected 1, selected 0 and records 1.
func (f CheckboxForm) Spec() rowgen.CheckboxSpec {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = "checkbox"
	}
	return rowgen.CheckboxSpec{
		Name:           name,
		InspectedCount: f.Inspected.positive(1),
		SelectedCount:  f.Selected.nonNegative(0),
		Records:        f.Records.positive(1),
	}
}
