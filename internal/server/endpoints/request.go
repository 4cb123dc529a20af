package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jackzampolin/lector/internal/extraction"
	"github.com/jackzampolin/lector/internal/svcctx"
)

// maxMemory is the part of a multipart body kept in memory; the rest spills to disk.
const maxMemory = 32 << 20

// requestError is a rejected extraction request with its HTTP status.
type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) *requestError {
	return &requestError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

// extractRequest is a validated upload plus selection.
type extractRequest struct {
	upload *extraction.Upload
	sel    extraction.Selection
}

// parseExtractRequest reads the multipart fields "file", "engine" and
// "languages". Languages may repeat or be comma separated. An empty engine
// uses the configured default.
func parseExtractRequest(w http.ResponseWriter, r *http.Request) (*extractRequest, *requestError) {
	r.Body = http.MaxBytesReader(w, r.Body, svcctx.MaxUploadBytesFrom(r.Context()))
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{
				status: http.StatusRequestEntityTooLarge,
				err:    fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit),
			}
		}
		return nil, badRequest("failed to parse form: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("no file uploaded")
	}
	defer file.Close()

	var languages []string
	for _, value := range r.MultipartForm.Value["languages"] {
		languages = append(languages, strings.Split(value, ",")...)
	}
	engine := r.FormValue("engine")
	if engine == "" {
		engine = defaultSelection(r.Context()).Engine
	}

	sel, err := extraction.Configure(engine, languages)
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, err: err}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, badRequest("failed to read uploaded file: %v", err)
	}

	upload, err := extraction.NewUpload(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, err: err}
	}

	return &extractRequest{upload: upload, sel: sel}, nil
}

// cleanupForm removes temporary files of a parsed multipart form.
func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}
