package workbench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/Bahjat/formfill/internal/capture"
	"github.com/Bahjat/formfill/internal/model"
	"github.com/Bahjat/formfill/internal/platform/errs"
	"github.com/Bahjat/formfill/internal/platform/requestid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	actionTimeout  = 60 * time.Second
	maxRequestBody = 8 << 20
)

var errTypeRequired = errors.New("the \"type\" field is required")

// Transport exposes the service over HTTP.
type Transport struct {
	service *Service
	logger  *slog.Logger
}

// NewTransport creates an HTTP transport backed by the given service.
func NewTransport(service *Service, logger *slog.Logger) *Transport {
	return &Transport{service: service, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", t.handleHealth)
	mux.HandleFunc("POST /messages", t.handleMessage)
	mux.HandleFunc("POST /sessions/{id}/capture", t.handleCapture)
	mux.HandleFunc("POST /sessions/{id}/inspect", t.handleInspect)
	mux.HandleFunc("POST /sessions/{id}/checkboxes", t.handleCheckboxes)
	mux.HandleFunc("POST /sessions/{id}/apply", t.handleApply)
	mux.HandleFunc("POST /sessions/{id}/generate", t.handleGenerate)
	mux.HandleFunc("POST /sessions/{id}/export", t.handleExport)
	mux.HandleFunc("DELETE /sessions/{id}", t.handleDelete)
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	model.Message
}

func (r messageRequest) validate() error {
	if r.Type == "" {
		return errTypeRequired
	}
	return nil
}

type applyResponse struct {
	Content string `json:"content"`
}

type exportResponse struct {
	Destination Destination `json:"destination"`
	Filename    string      `json:"filename"`
	Bytes       int         `json:"bytes"`
}

func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (t *Transport) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !t.decode(w, r, &req, `Invalid request body. Please send a JSON object with "type" and "content" fields.`) {
		return
	}
	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := t.service.Receive(r.Context(), req.SessionID, req.Message)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, receipt)
}

func (t *Transport) handleCapture(w http.ResponseWriter, r *http.Request) {
	var target capture.Target
	if !t.decode(w, r, &target, `Invalid request body. Please send a JSON object with a "url" field.`) {
		return
	}

	ctx, cancel := t.actionContext(r)
	defer cancel()

	receipt, err := t.service.Capture(ctx, r.PathValue("id"), target)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, receipt)
}

func (t *Transport) handleInspect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := t.actionContext(r)
	defer cancel()

	result, err := t.service.Inspect(ctx, r.PathValue("id"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, result)
}

func (t *Transport) handleCheckboxes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := t.actionContext(r)
	defer cancel()

	groups, err := t.service.Checkboxes(ctx, r.PathValue("id"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, groups)
}

func (t *Transport) handleApply(w http.ResponseWriter, r *http.Request) {
	var record model.CheckboxRecord
	if !t.decode(w, r, &record, `Invalid request body. Please send a record with "fieldName" and "selected" fields.`) {
		return
	}

	ctx, cancel := t.actionContext(r)
	defer cancel()

	content, err := t.service.Apply(ctx, r.PathValue("id"), record)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, applyResponse{Content: content})
}

func (t *Transport) handleGenerate(w http.ResponseWriter, r *http.Request) {
	// An empty body generates with defaults.
	var req GenerateRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON generate request.")
		return
	}

	ctx, cancel := t.actionContext(r)
	defer cancel()

	result, err := t.service.Generate(ctx, r.PathValue("id"), req)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", result.MIMEType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, result.CSV)
		return
	}
	t.renderJSON(w, http.StatusOK, result)
}

// handleExport sends the last generated result to ?destination=, which
// defaults to file.
func (t *Transport) handleExport(w http.ResponseWriter, r *http.Request) {
	dest := Destination(r.URL.Query().Get("destination"))
	if dest == "" {
		dest = DestinationFile
	}

	ctx, cancel := t.actionContext(r)
	defer cancel()

	result, err := t.service.ExportLatest(ctx, r.PathValue("id"), dest)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, exportResponse{Destination: dest, Filename: result.Filename, Bytes: len(result.CSV)})
}

func (t *Transport) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := t.service.EndSession(r.Context(), r.PathValue("id")); err != nil {
		t.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (t *Transport) actionContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := requestid.WithSession(r.Context(), r.PathValue("id"))
	return context.WithTimeout(ctx, actionTimeout)
}

func (t *Transport) decode(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		t.renderError(w, http.StatusBadRequest, message)
		return false
	}
	return true
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.InvalidInput:
		return http.StatusBadRequest
	case errs.ParseFailure, errs.EmptySelection:
		return http.StatusUnprocessableEntity
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Unreachable:
		return http.StatusBadGateway
	case errs.Timeout:
		return http.StatusGatewayTimeout
	case errs.ClipboardFailure, errs.ExportFailure, errs.Unknown:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		t.renderError(w, statusFor(appErr.Kind), appErr.Message)
		return
	}
	t.logger.Error("unexpected service error", "error", err)
	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
