package formspec

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	fragmentPolicyOnce sync.Once
	fragmentPolicy     *bluemonday.Policy

	fragmentElements = []string{
		"form", "fieldset", "legend", "label", "input", "select", "option",
		"optgroup", "textarea", "button", "div", "span", "p", "ul", "ol", "li",
		"table", "thead", "tbody", "tr", "th", "td", "br",
	}
)

// Sanitize strips scripts, event handlers and unknown markup from a captured
// fragment while keeping the controls and attributes Infer reads.
func Sanitize(fragment string) string {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(sanitizer().Sanitize(trimmed))
}

func sanitizer() *bluemonday.Policy {
	fragmentPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements(fragmentElements...)
		// bluemonday drops elements left without attributes unless told
		// otherwise; enclosing labels and bare inputs carry none.
		policy.AllowNoAttrs().OnElements(fragmentElements...)
		policy.AllowAttrs(
			"name", "id", "type", "value", "checked", "multiple", "selected",
			"disabled", "required", "placeholder",
		).OnElements("input", "select", "option", "textarea", "button")
		policy.AllowAttrs("for").OnElements("label")
		policy.AllowAttrs("id", "name").Globally()
		policy.AllowDataAttributes()

		fragmentPolicy = policy
	})
	return fragmentPolicy
}
