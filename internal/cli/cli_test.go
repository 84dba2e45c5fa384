package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Bahjat/formfill/internal/capture"
	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/platform/config"
	"github.com/Bahjat/formfill/internal/platform/errs"
	"github.com/Bahjat/formfill/internal/platform/middleware"
	"github.com/Bahjat/formfill/internal/randval"
	"github.com/Bahjat/formfill/internal/rowgen"
)

const signupFragment = `<form id="signup">
<input name="email">
<input type="number" name="qty">
<select name="role"><option value="admin">Admin</option><option>user</option></select>
</form>`

const colorFragment = `<form>
<label><input type="checkbox" name="color" value="red"> Red</label>
<label><input type="checkbox" name="color" value="green" checked> Green</label>
<label><input type="checkbox" name="color" value="blue"> Blue</label>
</form>`

type fakePrompter struct {
	multi    []int
	selects  []int
	asked    []string
	abortAll bool
}

func (p *fakePrompter) Select(_ context.Context, message string, _ []string, _ int) (int, error) {
	p.asked = append(p.asked, message)
	if p.abortAll || len(p.selects) == 0 {
		return 0, ErrAborted
	}
	i := p.selects[0]
	p.selects = p.selects[1:]
	return i, nil
}

func (p *fakePrompter) MultiSelect(_ context.Context, message string, _ []string, _ []int) ([]int, error) {
	p.asked = append(p.asked, message)
	if p.abortAll {
		return nil, ErrAborted
	}
	return p.multi, nil
}

type fakeCapturer struct {
	html    string
	targets []capture.Target
}

func (c *fakeCapturer) Capture(_ context.Context, t capture.Target) (string, error) {
	c.targets = append(c.targets, t)
	return c.html, nil
}

type fakeClipboard struct {
	data []byte
	err  error
}

func (c *fakeClipboard) Export(_ context.Context, _, _ string, data []byte) error {
	c.data = data
	return c.err
}

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args []string, opts ...Option) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr, opts...)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestInspect(t *testing.T) {
	res := run(t, signupFragment, []string{"inspect"})
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}

	want := []string{
		"Detected 3 fields",
		"  email (text)",
		"  qty (number)",
		"  role (select 2 opts)",
	}
	if diff := cmp.Diff(want, lines(res.stdout)); diff != "" {
		t.Errorf("inspect output mismatch (-want +got):\n%s", diff)
	}
}

func TestInspect_JSON(t *testing.T) {
	res := run(t, signupFragment, []string{"inspect", "--json"})
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}

	var fields []model.FieldSpec
	if err := json.Unmarshal([]byte(res.stdout), &fields); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"email", "qty", "role"}, model.FieldNames(fields)); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestInspect_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.html")
	if err := os.WriteFile(path, []byte(colorFragment), 0o644); err != nil {
		t.Fatal(err)
	}

	res := run(t, "", []string{"inspect", path})
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	if !strings.HasPrefix(res.stdout, "Detected single field: color (type: checkbox)") {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestInspect_FromURL(t *testing.T) {
	c := &fakeCapturer{html: signupFragment}
	res := run(t, "", []string{"inspect", "--url", "https://example.com/join", "--selector", "#signup"}, WithCapturer(c))
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}

	want := []capture.Target{{URL: "https://example.com/join", Selector: "#signup"}}
	if diff := cmp.Diff(want, c.targets); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(res.stdout, "Detected 3 fields") {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestInspect_EmptySelection(t *testing.T) {
	res := run(t, "<p>no controls</p>", []string{"inspect"})
	if res.code != 1 {
		t.Fatalf("exit %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, "Error: No form controls found") {
		t.Errorf("stderr = %q", res.stderr)
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantHeader string
		wantLines  int
	}{
		{name: "default one row", args: []string{"generate"}, wantHeader: "email,qty,role", wantLines: 2},
		{name: "records", args: []string{"generate", "-n", "5"}, wantHeader: "email,qty,role", wantLines: 6},
		{name: "exclude", args: []string{"generate", "-n", "3", "--exclude", "qty"}, wantHeader: "email,role", wantLines: 4},
		{name: "include", args: []string{"generate", "--include", "role,email"}, wantHeader: "email,role", wantLines: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, signupFragment, append(tt.args, "--seed", "7"))
			if res.code != 0 {
				t.Fatalf("exit %d: %s", res.code, res.stderr)
			}
			got := lines(res.stdout)
			if got[0] != tt.wantHeader {
				t.Errorf("header = %q, want %q", got[0], tt.wantHeader)
			}
			if len(got) != tt.wantLines {
				t.Errorf("got %d lines, want %d:\n%s", len(got), tt.wantLines, res.stdout)
			}
		})
	}
}

func TestGenerate_SeedIsReproducible(t *testing.T) {
	args := []string{"generate", "-n", "4", "--seed", "11"}
	first := run(t, signupFragment, args)
	second := run(t, signupFragment, args)
	if first.code != 0 || second.code != 0 {
		t.Fatalf("exit %d/%d", first.code, second.code)
	}
	if first.stdout != second.stdout {
		t.Errorf("outputs differ:\n%s\n---\n%s", first.stdout, second.stdout)
	}
}

func TestGenerate_GeneratorOverride(t *testing.T) {
	res := run(t, signupFragment, []string{"generate", "-n", "3", "--include", "email", "--generator", "email=email"})
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}
	for _, line := range lines(res.stdout)[1:] {
		if !strings.Contains(line, "@") {
			t.Errorf("row %q is not an email", line)
		}
	}
}

func TestGenerate_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown include", args: []string{"generate", "--include", "nope"}, want: `Unknown field "nope"`},
		{name: "unknown generator field", args: []string{"generate", "--generator", "nope=email"}, want: `Unknown field "nope"`},
		{name: "bad format", args: []string{"generate", "--format", "xml"}, want: `Unknown format "xml"`},
		{name: "all excluded", args: []string{"generate", "--exclude", "email,qty,role"}, want: "No fields selected for generation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, signupFragment, tt.args)
			if res.code != 1 {
				t.Fatalf("exit %d, want 1", res.code)
			}
			if !strings.Contains(res.stderr, tt.want) {
				t.Errorf("stderr = %q, want to contain %q", res.stderr, tt.want)
			}
			if res.stdout != "" {
				t.Errorf("stdout = %q, want empty", res.stdout)
			}
		})
	}
}

func TestGenerate_Interactive(t *testing.T) {
	email := slices.Index(model.Generators, "email")
	auto := slices.Index(model.Generators, model.GeneratorAuto)
	p := &fakePrompter{multi: []int{0, 2}, selects: []int{email, auto}}

	res := run(t, signupFragment, []string{"generate", "-i", "-n", "2"}, WithPrompter(p))
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}

	got := lines(res.stdout)
	if got[0] != "email,role" {
		t.Errorf("header = %q", got[0])
	}
	for _, line := range got[1:] {
		if !strings.Contains(line, "@") {
			t.Errorf("row %q has no email", line)
		}
	}
	wantAsked := []string{"Fields to include:", "Generator for email:", "Generator for role:"}
	if diff := cmp.Diff(wantAsked, p.asked); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_InteractiveAborted(t *testing.T) {
	res := run(t, signupFragment, []string{"generate", "-i"}, WithPrompter(&fakePrompter{abortAll: true}))
	if res.code != 1 {
		t.Fatalf("exit %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, ErrAborted.Error()) {
		t.Errorf("stderr = %q", res.stderr)
	}
}

func TestGenerate_FormOnly(t *testing.T) {
	res := run(t, "", []string{"generate", "--name", "terms", "--inspected", "3", "--selected", "1", "-n", "4"})
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}

	got := lines(res.stdout)
	if len(got) != 5 || got[0] != "terms" {
		t.Fatalf("stdout = %q", res.stdout)
	}
	options := rowgen.OptionValues(3)
	for _, line := range got[1:] {
		cell := strings.Trim(line, `"`)
		if !slices.Contains(options, cell) {
			t.Errorf("cell %q is not a single option of %v", line, options)
		}
	}
}

func TestGenerate_OutputFormats(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		res := run(t, signupFragment, []string{"generate", "-n", "2", "--format", "table"})
		if res.code != 0 {
			t.Fatalf("exit %d: %s", res.code, res.stderr)
		}
		got := lines(res.stdout)
		if len(got) != 3 || !strings.HasPrefix(got[0], "fieldName") {
			t.Errorf("stdout = %q", res.stdout)
		}
		if !strings.Contains(got[1], "form-row") {
			t.Errorf("row = %q", got[1])
		}
	})

	t.Run("json", func(t *testing.T) {
		res := run(t, signupFragment, []string{"generate", "-n", "2", "--format", "json"})
		if res.code != 0 {
			t.Fatalf("exit %d: %s", res.code, res.stderr)
		}
		var out struct {
			Filename string                 `json:"filename"`
			Records  []model.CheckboxRecord `json:"records"`
		}
		if err := json.Unmarshal([]byte(res.stdout), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.Filename != "form-data.csv" || len(out.Records) != 2 {
			t.Errorf("got filename %q and %d records", out.Filename, len(out.Records))
		}
	})
}

func TestGenerate_OutputDir(t *testing.T) {
	dir := t.TempDir()
	res := run(t, signupFragment, []string{"generate", "-n", "2", "-o", dir})
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}

	data, err := os.ReadFile(filepath.Join(dir, "form-data.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data)+"\n" != res.stdout {
		t.Errorf("file = %q, stdout = %q", data, res.stdout)
	}
}

func TestGenerate_Copy(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		clip := &fakeClipboard{}
		res := run(t, signupFragment, []string{"generate", "--copy"}, WithClipboard(clip))
		if res.code != 0 {
			t.Fatalf("exit %d: %s", res.code, res.stderr)
		}
		if string(clip.data)+"\n" != res.stdout {
			t.Errorf("clipboard = %q, stdout = %q", clip.data, res.stdout)
		}
	})

	t.Run("failure is a warning", func(t *testing.T) {
		clip := &fakeClipboard{err: errors.New("no display")}
		res := run(t, signupFragment, []string{"generate", "--copy"}, WithClipboard(clip))
		if res.code != 0 {
			t.Fatalf("exit %d: %s", res.code, res.stderr)
		}
		if !strings.Contains(res.stderr, "Warning: Copy Failed") {
			t.Errorf("stderr = %q", res.stderr)
		}
		if !strings.HasPrefix(res.stdout, "email,qty,role") {
			t.Errorf("stdout = %q", res.stdout)
		}
	})
}

func TestCheckboxInspect(t *testing.T) {
	res := run(t, colorFragment, []string{"checkbox", "inspect"})
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}

	got := lines(res.stdout)
	if len(got) != 2 {
		t.Fatalf("stdout = %q", res.stdout)
	}
	if fields := strings.Fields(got[1]); len(fields) < 3 || fields[0] != "color" || fields[1] != "3" || fields[2] != "1" {
		t.Errorf("row = %q", got[1])
	}
	if !strings.Contains(got[1], "Red | Green | Blue") {
		t.Errorf("labels missing: %q", got[1])
	}
}

func TestCheckboxGenerate(t *testing.T) {
	res := run(t, "", []string{"checkbox", "generate", "--group", "terms:3:1", "--group", "color:2:2", "-n", "2"})
	if res.code != 0 {
		t.Fatalf("exit %d: %s", res.code, res.stderr)
	}

	got := lines(res.stdout)
	if len(got) != 5 {
		t.Fatalf("got %d lines:\n%s", len(got), res.stdout)
	}
	if got[0] != "fieldName,options,selected" {
		t.Errorf("header = %q", got[0])
	}
	// Groups come out in flag order, not sorted by name.
	for _, line := range got[1:3] {
		if !strings.HasPrefix(line, `terms,"val_1|val_2|val_3","val_`) {
			t.Errorf("terms record = %q", line)
		}
	}
	for _, line := range got[3:] {
		if line != `color,"val_1|val_2","val_1|val_2"` && line != `color,"val_1|val_2","val_2|val_1"` {
			t.Errorf("color record = %q", line)
		}
	}
}

func TestCheckboxGenerate_DuplicateGroup(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   string
	}{
		{name: "same name", groups: []string{"terms:3", "terms:2:1"}, want: `"terms"`},
		{name: "unnamed collides with explicit key", groups: []string{":3", "checkbox_1:2"}, want: `"checkbox_1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"checkbox", "generate"}
			for _, g := range tt.groups {
				args = append(args, "--group", g)
			}
			res := run(t, "", args)
			if res.code != 1 {
				t.Fatalf("exit %d, want 1: %s", res.code, res.stdout)
			}
			if !strings.Contains(res.stderr, "Checkbox group "+tt.want+" is given more than once") {
				t.Errorf("stderr = %q", res.stderr)
			}
		})
	}
}

func TestCheckboxGenerate_InvalidGroup(t *testing.T) {
	res := run(t, "", []string{"checkbox", "generate", "--group", "terms"})
	if res.code != 1 {
		t.Fatalf("exit %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, `Invalid group "terms"`) {
		t.Errorf("stderr = %q", res.stderr)
	}
}

func TestParseGroup(t *testing.T) {
	tests := []struct {
		in      string
		want    rowgen.CheckboxSpec
		wantErr bool
	}{
		{in: "terms:3", want: rowgen.CheckboxSpec{Name: "terms", InspectedCount: 3}},
		{in: "terms:3:2", want: rowgen.CheckboxSpec{Name: "terms", InspectedCount: 3, SelectedCount: 2}},
		{in: ":4:0", want: rowgen.CheckboxSpec{InspectedCount: 4}},
		{in: "terms", wantErr: true},
		{in: "terms:0", wantErr: true},
		{in: "terms:x", wantErr: true},
		{in: "terms:3:-1", wantErr: true},
		{in: "a:1:2:3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseGroup(tt.in)
			if tt.wantErr {
				if errs.KindOf(err) != errs.InvalidInput {
					t.Fatalf("err = %v, want InvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("spec mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "flags", args: []string{"apply", "--field", "color", "--select", "red,blue"}},
		{name: "record", args: []string{"apply", "--record", `{"fieldName":"color","options":[],"selected":["red","blue"]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, colorFragment, tt.args)
			if res.code != 0 {
				t.Fatalf("exit %d: %s", res.code, res.stderr)
			}
			for _, v := range []string{"red", "blue"} {
				if !strings.Contains(res.stdout, `value="`+v+`" checked=""`) {
					t.Errorf("%s not checked: %s", v, res.stdout)
				}
			}
			if strings.Contains(res.stdout, `value="green" checked`) {
				t.Errorf("green still checked: %s", res.stdout)
			}
		})
	}
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no field", args: []string{"apply"}, want: "A checkbox group name is required"},
		{name: "bad record", args: []string{"apply", "--record", "{"}, want: "not a valid checkbox record"},
		{name: "unknown group", args: []string{"apply", "--field", "size"}, want: `No checkbox named "size"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, colorFragment, tt.args)
			if res.code != 1 {
				t.Fatalf("exit %d, want 1", res.code)
			}
			if !strings.Contains(res.stderr, tt.want) {
				t.Errorf("stderr = %q, want to contain %q", res.stderr, tt.want)
			}
		})
	}
}

func TestServeHandler_ExportsToOutputDir(t *testing.T) {
	dir := t.TempDir()
	a := &app{
		cfg:    config.Config{MaxRecords: 100, MaxSessions: 4, Sanitize: true, CaptureConcurrency: 1, CaptureRate: 1},
		logger: slog.New(slog.DiscardHandler),
		gen:    rowgen.New(randval.NewSeeded(3), randval.Pools{}),
	}
	ts := httptest.NewServer(a.handler(&serveFlags{outputDir: dir}))
	defer ts.Close()

	post := func(path, body string) *http.Response {
		t.Helper()
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		t.Cleanup(func() { _ = resp.Body.Close() })
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("POST %s status = %d", path, resp.StatusCode)
		}
		return resp
	}

	msg, _ := json.Marshal(map[string]string{"type": model.MessageSelectedDOMContent, "content": signupFragment})
	resp := post("/messages", string(msg))
	if resp.Header.Get(middleware.RequestIDHeader) == "" {
		t.Error("response has no request id header")
	}
	var receipt struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}

	post("/sessions/"+receipt.SessionID+"/inspect", "")
	var generated struct {
		CSV string `json:"csv"`
	}
	if err := json.NewDecoder(post("/sessions/"+receipt.SessionID+"/generate", `{"records":3}`).Body).Decode(&generated); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	post("/sessions/"+receipt.SessionID+"/export?destination=file", "")

	data, err := os.ReadFile(filepath.Join(dir, "form-data.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != generated.CSV || len(lines(string(data))) != 4 {
		t.Errorf("exported %q, generated %q", data, generated.CSV)
	}
}

func TestServe_InvalidPort(t *testing.T) {
	res := run(t, "", []string{"serve", "--port", "99999"})
	if res.code != 1 {
		t.Fatalf("exit %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, "invalid PORT") {
		t.Errorf("stderr = %q", res.stderr)
	}
}
