package formspec

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Bahjat/formfill/internal/model"
)

// defaultGroupName names checkbox groups with neither name nor data-name.
const defaultGroupName = "checkbox"

// CheckboxGroup summarizes the checkboxes sharing one name.
type CheckboxGroup struct {
	Name           string   `json:"name"`
	InspectedCount int      `json:"inspectedCount"`
	SelectedCount  int      `json:"selectedCount"`
	Labels         []string `json:"labels"`
}

// InspectCheckboxes groups the checkboxes in fragment by name (falling back
// to data-name, then "checkbox") in order of first appearance. Each label is
// the text of a label[for=id], else of an enclosing label, else the value or
// id of the checkbox.
func InspectCheckboxes(fragment string) ([]CheckboxGroup, error) {
	nodes, err := parseBody(fragment)
	if err != nil {
		return nil, err
	}

	labelsFor := map[string]string{}
	var boxes []*html.Node
	for _, n := range nodes {
		walk(n, func(el *html.Node) {
			switch {
			case el.DataAtom == atom.Label:
				if id := attrOf(el, "for"); id != "" {
					if _, ok := labelsFor[id]; !ok {
						labelsFor[id] = strings.TrimSpace(textContent(el))
					}
				}
			case isCheckbox(el):
				boxes = append(boxes, el)
			}
		})
	}

	var groups []CheckboxGroup
	index := map[string]int{}
	for _, box := range boxes {
		name := attrOf(box, "name")
		if name == "" {
			name = attrOf(box, "data-name")
		}
		if name == "" {
			name = defaultGroupName
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, CheckboxGroup{Name: name, Labels: []string{}})
		}
		g := &groups[i]
		g.InspectedCount++
		if hasAttr(box, "checked") {
			g.SelectedCount++
		}
		g.Labels = append(g.Labels, checkboxLabel(box, labelsFor))
	}
	return groups, nil
}

// checkboxLabel never fails: a missing label degrades to value, id, or "".
func checkboxLabel(box *html.Node, labelsFor map[string]string) string {
	if id := attrOf(box, "id"); id != "" {
		if text, ok := labelsFor[id]; ok && text != "" {
			return text
		}
	}
	if p := box.Parent; p != nil && p.DataAtom == atom.Label {
		if text := strings.TrimSpace(textContent(p)); text != "" {
			return text
		}
	}
	if v := attrOf(box, "value"); v != "" {
		return v
	}
	return attrOf(box, "id")
}

// ApplyRecord checks exactly the checkboxes named record.FieldName whose
// value is listed in record.Selected and returns the re-rendered fragment.
// The boolean is false when no checkbox carries that name.
func ApplyRecord(fragment string, record model.CheckboxRecord) (string, bool, error) {
	nodes, err := parseBody(fragment)
	if err != nil {
		return "", false, err
	}

	matched := false
	for _, n := range nodes {
		walk(n, func(el *html.Node) {
			if !isCheckbox(el) || attrOf(el, "name") != record.FieldName {
				return
			}
			matched = true
			setChecked(el, slices.Contains(record.Selected, checkboxValue(el)))
		})
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", false, fmt.Errorf("formspec: render fragment: %w", err)
		}
	}
	return buf.String(), matched, nil
}

func parseBody(fragment string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("formspec: parse fragment: %w", err)
	}
	return nodes, nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func isCheckbox(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Input &&
		strings.EqualFold(attrOf(n, "type"), "checkbox")
}

func checkboxValue(n *html.Node) string {
	if v := attrOf(n, "value"); v != "" {
		return v
	}
	if id := attrOf(n, "id"); id != "" {
		return id
	}
	return defaultControlValue
}

func setChecked(n *html.Node, checked bool) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != "checked" {
			attrs = append(attrs, a)
		}
	}
	if checked {
		attrs = append(attrs, html.Attribute{Key: "checked"})
	}
	n.Attr = attrs
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
