package endpoints

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lector/internal/api"
	"github.com/jackzampolin/lector/internal/extraction"
	"github.com/jackzampolin/lector/internal/svcctx"
)

// DownloadEndpoint handles POST /download.
// It echoes the posted text back as an extracted_text.txt attachment; nothing
// is kept on the server between the extraction and the download.
type DownloadEndpoint struct{}

var _ api.Endpoint = (*DownloadEndpoint)(nil)

func (e *DownloadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/download", e.handler
}

func (e *DownloadEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Download extracted text
//	@Description	Returns the posted text as a plain text attachment
//	@Tags			extraction
//	@Accept			x-www-form-urlencoded
//	@Produce		plain
//	@Param			text		formData	string	true	"Extracted text"
//	@Param			encoding	formData	string	false	"Set to base64 when text is base64 encoded"
//	@Success		200	{string}	string
//	@Failure		400	{object}	ErrorResponse
//	@Router			/download [post]
func (e *DownloadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, svcctx.MaxUploadBytesFrom(r.Context()))
	defer cleanupForm(r)

	text := r.FormValue("text")
	if r.FormValue("encoding") == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid base64 text: %v", err))
			return
		}
		text = string(decoded)
	}

	w.Header().Set("Content-Type", extraction.DownloadContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", extraction.DownloadFilename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

func (e *DownloadEndpoint) Command(_ func() string) *cobra.Command {
	return nil // "api extract --out" writes the file locally
}
