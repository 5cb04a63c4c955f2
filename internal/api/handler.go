package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Aman-CERP/simscore/internal/document"
	"github.com/Aman-CERP/simscore/internal/embed"
	simerrors "github.com/Aman-CERP/simscore/internal/errors"
	"github.com/Aman-CERP/simscore/internal/similarity"
	"github.com/Aman-CERP/simscore/internal/telemetry"
)

// WelcomeMessage is returned by GET /.
const WelcomeMessage = "Welcome to the text similarity API"

// multipartMemory is kept in memory by ParseMultipartForm before spilling
// to temp files.
const multipartMemory = 8 << 20

// Handler serves the comparison endpoints.
type Handler struct {
	svc       *similarity.Service
	handle    *embed.Handle
	metrics   *telemetry.Metrics
	maxUpload int64
}

// NewHandler creates a handler. metrics may be nil. maxUpload is the per-file
// size limit in bytes.
func NewHandler(svc *similarity.Service, handle *embed.Handle, metrics *telemetry.Metrics, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = document.DefaultMaxBytes
	}
	return &Handler{svc: svc, handle: handle, metrics: metrics, maxUpload: maxUpload}
}

// HandleRoot answers GET /.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:     "not found",
			Code:      simerrors.ErrCodeInvalidInput,
			RequestID: RequestIDFromContext(r.Context()),
		})
		return
	}
	writeJSON(w, http.StatusOK, WelcomeResponse{Message: WelcomeMessage})
}

// HandleHealth reports liveness and encoder state without loading it.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	st := h.handle.Status()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:            "ok",
		SemanticAvailable: st.Breaker != "open",
		Encoder:           st,
	})
}

// HandleMetrics returns the telemetry snapshot.
func (h *Handler) HandleMetrics(w http.ResponseWriter, _ *http.Request) {
	if h.metrics == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": false})
		return
	}
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

// HandleCompareTexts scores the form fields text1 and text2.
func (h *Handler) HandleCompareTexts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxUpload+multipartMemory)
	if err := parseForm(r); err != nil {
		writeError(w, r, err)
		return
	}

	text1, err := requiredField(r, "text1")
	if err != nil {
		writeError(w, r, err)
		return
	}
	text2, err := requiredField(r, "text2")
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.compare(w, r, text1, text2)
}

// HandleCompareFiles extracts and scores the multipart files file1 and file2.
func (h *Handler) HandleCompareFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxUpload+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, r, formError(err))
		return
	}

	text1, err := h.extractUpload(r, "file1")
	if err != nil {
		writeError(w, r, err)
		return
	}
	text2, err := h.extractUpload(r, "file2")
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.compare(w, r, text1, text2)
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request, text1, text2 string) {
	method := r.FormValue("method")
	if method == "" {
		method = string(similarity.MethodLexical)
	}

	result, err := h.svc.CompareString(r.Context(), document.Clean(text1), document.Clean(text2), method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewCompareResponse(result))
}

func (h *Handler) extractUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", simerrors.New(simerrors.ErrCodeInvalidInput,
				fmt.Sprintf("missing file field %q", field), nil)
		}
		return "", formError(err)
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUpload {
		return "", simerrors.New(simerrors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s exceeds the %d byte limit", header.Filename, h.maxUpload), nil)
	}
	return document.Extract(header.Filename, file, h.maxUpload)
}

// parseForm parses url-encoded or multipart bodies.
func parseForm(r *http.Request) error {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return formError(err)
	}
	return nil
}

func formError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return simerrors.New(simerrors.ErrCodeFileTooLarge, "request body too large", err)
	}
	return simerrors.New(simerrors.ErrCodeInvalidInput, "malformed form data", err)
}

// requiredField returns a form field that must be present; it may be empty.
func requiredField(r *http.Request, name string) (string, error) {
	values, ok := r.PostForm[name]
	if !ok || len(values) == 0 {
		return "", simerrors.New(simerrors.ErrCodeInvalidInput,
			fmt.Sprintf("missing form field %q", name), nil)
	}
	return values[0], nil
}
