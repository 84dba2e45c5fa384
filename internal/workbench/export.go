package workbench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// CSVMimeType is the media type of generated files.
const CSVMimeType = "text/csv; charset=utf-8"

// Exporter delivers generated data somewhere outside the process.
type Exporter interface {
	Export(ctx context.Context, name, mimeType string, data []byte) error
}

// Destination selects an Exporter.
type Destination string

// Supported destinations.
const (
	DestinationFile      Destination = "file"
	DestinationClipboard Destination = "clipboard"
)

var errNoClipboard = errors.New("no clipboard command found")

// FileExporter writes exports into Dir, keeping only the base of the name.
type FileExporter struct {
	Dir string
}

// Export writes data to Dir/name.
func (e FileExporter) Export(_ context.Context, name, _ string, data []byte) error {
	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ClipboardExporter pipes exports into the first available clipboard tool.
type ClipboardExporter struct {
	// Commands overrides the candidate tools, each as argv.
	Commands [][]string
}

func defaultClipboardCommands() [][]string {
	switch runtime.GOOS {
	case "darwin":
		return [][]string{{"pbcopy"}}
	case "windows":
		return [][]string{{"clip"}}
	default:
		return [][]string{{"wl-copy"}, {"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}}
	}
}

// Export writes data to the clipboard.
func (e ClipboardExporter) Export(ctx context.Context, _, _ string, data []byte) error {
	commands := e.Commands
	if len(commands) == 0 {
		commands = defaultClipboardCommands()
	}
	for _, argv := range commands {
		path, err := exec.LookPath(argv[0])
		if err != nil {
			continue
		}
		cmd := exec.CommandContext(ctx, path, argv[1:]...)
		cmd.Stdin = bytes.NewReader(data)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("%s: %w: %s", argv[0], err, bytes.TrimSpace(out))
		}
		return nil
	}
	return errNoClipboard
}
