package cli

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeText writes s followed by a newline unless it already ends in one.
func writeText(w io.Writer, s string) error {
	if s == "" || s[len(s)-1] != '\n' {
		s += "\n"
	}
	_, err := fmt.Fprint(w, s)
	return err
}

func printWarning(w io.Writer, msg string) {
	fmt.Fprintf(w, "Warning: %s\n", msg)
}
