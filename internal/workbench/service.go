package workbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Bahjat/formfill/internal/capture"
	"github.com/Bahjat/formfill/internal/csvtable"
	"github.com/Bahjat/formfill/internal/formspec"
	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/platform/errs"
	"github.com/Bahjat/formfill/internal/platform/requestid"
	"github.com/Bahjat/formfill/internal/rowgen"
)

// User-facing messages.
const (
	msgSessionNotFound = "Session not found. Send a SELECTED_DOM_CONTENT message to start one."
	msgNoContent       = "No inspected DOM content found. Use Inspect and click elements on the page first."
	msgNoControls      = "No form controls found in the inspected selection."
	msgNoFields        = "No fields selected for generation. Use the field chooser to include fields."
	msgParseFailed     = "Failed to parse inspected content: "
	msgCopyFailed      = "Copy Failed"
	msgNothingToExport = "Nothing has been generated yet. Generate rows before exporting."
)

const formFilename = "form-data.csv"

// Settings tunes a Service. A nil Capturer disables capture; Exporters maps
// each supported destination to its implementation.
type Settings struct {
	MaxRecords int
	Sanitize   bool
	Capturer   capture.Capturer
	Exporters  map[Destination]Exporter
}

// Service runs panel actions against sessions in a Store.
type Service struct {
	store    *Store
	gen      *rowgen.Generator
	logger   *slog.Logger
	settings Settings
}

// NewService returns a Service.
func NewService(store *Store, gen *rowgen.Generator, logger *slog.Logger, settings Settings) *Service {
	return &Service{store: store, gen: gen, logger: logger, settings: settings}
}

// Receipt acknowledges a message.
type Receipt struct {
	SessionID string `json:"session_id"`
	Stored    bool   `json:"stored"`
}

// FieldChoice is the user's decision for one inspected field. A nil Include
// keeps the field; an empty Generator keeps the current one.
type FieldChoice struct {
	Name      string `json:"name"`
	Include   *bool  `json:"include,omitempty"`
	Generator string `json:"generator,omitempty"`
}

// GenerateRequest carries the record count, the field choices and,
// for sessions without inspected fields, the checkbox form.
type GenerateRequest struct {
	Records Count         `json:"records"`
	Choices []FieldChoice `json:"choices,omitempty"`
	Form    *CheckboxForm `json:"form,omitempty"`
}

// InspectResult lists the inferred fields. Form is set when exactly one
// field was found and holds the prefilled checkbox form.
type InspectResult struct {
	Fields  []model.FieldSpec `json:"fields"`
	Form    *CheckboxForm     `json:"form,omitempty"`
	Summary string            `json:"summary"`
}

// Result is the generated table with its CSV text, the key=value table view
// and the suggested download name.
type Result struct {
	Table    model.Table            `json:"table"`
	CSV      string                 `json:"csv"`
	Records  []model.CheckboxRecord `json:"records"`
	Filename string                 `json:"filename"`
	MIMEType string                 `json:"mime_type"`
}

func (s *Service) log(ctx context.Context, sessionID string) *slog.Logger {
	return s.logger.With(requestid.Attrs(requestid.WithSession(ctx, sessionID))...)
}

func notFound() error {
	return &errs.AppError{Kind: errs.NotFound, Message: msgSessionNotFound}
}

// NewSession starts an empty session.
func (s *Service) NewSession(ctx context.Context) string {
	id := s.store.Create()
	s.log(ctx, id).Debug("session created", "sessions", s.store.Len())
	return id
}

// EndSession discards a session.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	if !s.store.Delete(sessionID) {
		return notFound()
	}
	s.log(ctx, sessionID).Debug("session ended")
	return nil
}

// Receive stores the content of a SELECTED_DOM_CONTENT message; other
// message types are acknowledged and ignored. An empty sessionID starts a
// new session.
func (s *Service) Receive(ctx context.Context, sessionID string, msg model.Message) (Receipt, error) {
	if sessionID == "" {
		sessionID = s.NewSession(ctx)
	}

	stored := msg.Type == model.MessageSelectedDOMContent
	ok := s.store.Update(sessionID, func(sess *Session) {
		if stored {
			sess.Content = msg.Content
			sess.HasContent = true
			sess.Last = nil
		}
	})
	if !ok {
		return Receipt{}, notFound()
	}

	s.log(ctx, sessionID).Debug("message received", "type", msg.Type, "stored", stored, "bytes", len(msg.Content))
	return Receipt{SessionID: sessionID, Stored: stored}, nil
}

// Capture fetches a live fragment and stores it as if it had been received.
func (s *Service) Capture(ctx context.Context, sessionID string, target capture.Target) (Receipt, error) {
	logger := s.log(ctx, sessionID).With("url", target.URL, "selector", target.Selector)
	if s.settings.Capturer == nil {
		return Receipt{}, &errs.AppError{Kind: errs.InvalidInput, Message: "Capture is not enabled on this server."}
	}
	if sessionID != "" {
		if _, ok := s.store.Get(sessionID); !ok {
			return Receipt{}, notFound()
		}
	}

	content, err := s.settings.Capturer.Capture(ctx, target)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && errs.KindOf(err) != errs.Timeout {
			err = &errs.AppError{
				Kind:    errs.Timeout,
				Message: "Capture timed out. The target page may be slow to respond.",
				Cause:   err,
			}
		}
		attrs := []any{"error", err}
		var appErr *errs.AppError
		if errors.As(err, &appErr) && appErr.UpstreamStatus != 0 {
			attrs = append(attrs, "target_status", appErr.UpstreamStatus)
		}
		logger.Error("capture failed", attrs...)
		return Receipt{}, err
	}

	logger.Info("capture complete", "bytes", len(content))
	return s.Receive(ctx, sessionID, model.Message{Type: model.MessageSelectedDOMContent, Content: content})
}

func (s *Service) content(sessionID string) (Session, error) {
	sess, ok := s.store.Get(sessionID)
	if !ok {
		return Session{}, notFound()
	}
	if !sess.HasContent || sess.Content == "" {
		return Session{}, &errs.AppError{Kind: errs.EmptySelection, Message: msgNoContent}
	}
	if s.settings.Sanitize {
		sess.Content = formspec.Sanitize(sess.Content)
	}
	return sess, nil
}

// Inspect infers field specs from the session's fragment and replaces the
// session's specs. A failed or empty inspection leaves the session as it was.
func (s *Service) Inspect(ctx context.Context, sessionID string) (InspectResult, error) {
	logger := s.log(ctx, sessionID)

	sess, err := s.content(sessionID)
	if err != nil {
		return InspectResult{}, err
	}

	specs, err := formspec.InferString(sess.Content, formspec.WithSource(s.gen.Values().Source()))
	if err != nil {
		logger.Warn("inspection failed", "error", err)
		return InspectResult{}, &errs.AppError{Kind: errs.ParseFailure, Message: msgParseFailed + err.Error(), Cause: err}
	}
	if len(specs) == 0 {
		logger.Info("inspection found no controls")
		return InspectResult{}, &errs.AppError{Kind: errs.EmptySelection, Message: msgNoControls}
	}

	result := InspectResult{Fields: specs}
	if len(specs) == 1 {
		f := specs[0]
		selected := 0
		if f.SelectedCount != nil {
			selected = *f.SelectedCount
		}
		result.Form = &CheckboxForm{
			Name:      f.Name,
			Inspected: CountOf(max(len(f.Options), 1)),
			Selected:  CountOf(selected),
		}
		result.Summary = fmt.Sprintf("Detected single field: %s (type: %s)", f.Name, f.Type)
	} else {
		result.Summary = fmt.Sprintf("Detected %d fields", len(specs))
	}

	s.store.Update(sessionID, func(stored *Session) {
		stored.Specs = specs
		if result.Form != nil {
			stored.Form = *result.Form
		}
	})

	logger.Info("inspection complete", "fields", len(specs))
	return result, nil
}

// Generate builds rows for the session's inspected fields after applying
// the request's choices. Without inspected fields it generates a single
// checkbox group from the request form, or from the form prefilled by the
// last inspection.
func (s *Service) Generate(ctx context.Context, sessionID string, req GenerateRequest) (Result, error) {
	logger := s.log(ctx, sessionID)

	sess, ok := s.store.Get(sessionID)
	if !ok {
		return Result{}, notFound()
	}

	records := req.Records.positive(1)
	var (
		specs    []model.FieldSpec
		filename string
	)
	if len(sess.Specs) > 0 {
		specs = applyChoices(sess.Specs, req.Choices)
		if len(specs) == 0 {
			return Result{}, &errs.AppError{Kind: errs.EmptySelection, Message: msgNoFields}
		}
		filename = formFilename
	} else {
		form := sess.Form
		if req.Form != nil {
			form = *req.Form
		}
		group := form.Spec()
		if _, set := req.Records.Value(); !set {
			records = group.Records
		}
		specs = []model.FieldSpec{rowgen.SimpleCheckbox(group)}
		filename = group.Name + "-data.csv"
	}

	if s.settings.MaxRecords > 0 && records > s.settings.MaxRecords {
		return Result{}, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: fmt.Sprintf("At most %d records can be generated at once.", s.settings.MaxRecords),
		}
	}

	rows, err := s.gen.Generate(specs, records)
	if err != nil {
		return Result{}, &errs.AppError{Kind: errs.InvalidInput, Message: "A field uses an unsupported type.", Cause: err}
	}

	res := Result{
		Table:    model.Table{Fields: specs, Rows: rows},
		CSV:      csvtable.ToCSV(rows, specs),
		Records:  csvtable.FormRowRecords(rows),
		Filename: filename,
		MIMEType: CSVMimeType,
	}
	s.store.Update(sessionID, func(stored *Session) { stored.Last = &res })

	logger.Info("generation complete", "fields", len(specs), "records", len(rows), "filename", filename)
	return res, nil
}

func applyChoices(specs []model.FieldSpec, choices []FieldChoice) []model.FieldSpec {
	byName := make(map[string]FieldChoice, len(choices))
	for _, c := range choices {
		byName[c.Name] = c
	}

	out := make([]model.FieldSpec, 0, len(specs))
	for _, spec := range specs {
		c, ok := byName[spec.Name]
		if ok && c.Include != nil && !*c.Include {
			continue
		}
		if ok && c.Generator != "" {
			spec.Generator = c.Generator
		}
		out = append(out, spec)
	}
	return out
}

// Checkboxes reports the checkbox groups in the session's fragment.
func (s *Service) Checkboxes(ctx context.Context, sessionID string) ([]formspec.CheckboxGroup, error) {
	sess, err := s.content(sessionID)
	if err != nil {
		return nil, err
	}
	groups, err := formspec.InspectCheckboxes(sess.Content)
	if err != nil {
		return nil, &errs.AppError{Kind: errs.ParseFailure, Message: msgParseFailed + err.Error(), Cause: err}
	}
	if len(groups) == 0 {
		return nil, &errs.AppError{Kind: errs.EmptySelection, Message: "No checkboxes found in the inspected selection."}
	}
	s.log(ctx, sessionID).Info("checkbox inspection complete", "groups", len(groups))
	return groups, nil
}

// Apply ticks the checkboxes selected by record in the session's fragment,
// stores the updated fragment and returns it.
func (s *Service) Apply(ctx context.Context, sessionID string, record model.CheckboxRecord) (string, error) {
	sess, err := s.content(sessionID)
	if err != nil {
		return "", err
	}
	updated, matched, err := formspec.ApplyRecord(sess.Content, record)
	if err != nil {
		return "", &errs.AppError{Kind: errs.ParseFailure, Message: msgParseFailed + err.Error(), Cause: err}
	}
	if !matched {
		return "", &errs.AppError{
			Kind:    errs.NotFound,
			Message: fmt.Sprintf("No checkbox named %q in the inspected selection.", record.FieldName),
		}
	}

	s.store.Update(sessionID, func(stored *Session) { stored.Content = updated })
	s.log(ctx, sessionID).Info("record applied", "field", record.FieldName, "selected", len(record.Selected))
	return updated, nil
}

// Export hands the result's CSV to the exporter for dest. Failures are
// reported to the caller and leave the result usable.
func (s *Service) Export(ctx context.Context, res Result, dest Destination) error {
	logger := s.logger.With(requestid.Attrs(ctx)...).With("destination", dest, "filename", res.Filename)

	exporter, ok := s.settings.Exporters[dest]
	if !ok {
		return &errs.AppError{Kind: errs.InvalidInput, Message: fmt.Sprintf("Unsupported export destination %q.", dest)}
	}

	mimeType := res.MIMEType
	if mimeType == "" {
		mimeType = CSVMimeType
	}
	if err := exporter.Export(ctx, res.Filename, mimeType, []byte(res.CSV)); err != nil {
		logger.Warn("export failed", "error", err)
		if dest == DestinationClipboard {
			return &errs.AppError{Kind: errs.ClipboardFailure, Message: msgCopyFailed, Cause: err}
		}
		return &errs.AppError{Kind: errs.ExportFailure, Message: "Failed to save the generated file.", Cause: err}
	}

	logger.Info("export complete", "bytes", len(res.CSV))
	return nil
}

// ExportLatest exports the session's most recent result to dest and returns
// it. A new fragment clears the stored result.
func (s *Service) ExportLatest(ctx context.Context, sessionID string, dest Destination) (Result, error) {
	sess, ok := s.store.Get(sessionID)
	if !ok {
		return Result{}, notFound()
	}
	if sess.Last == nil {
		return Result{}, &errs.AppError{Kind: errs.EmptySelection, Message: msgNothingToExport}
	}
	if err := s.Export(requestid.WithSession(ctx, sessionID), *sess.Last, dest); err != nil {
		return Result{}, err
	}
	return *sess.Last, nil
}
