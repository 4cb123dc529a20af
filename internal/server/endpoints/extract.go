package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lector/internal/api"
	"github.com/jackzampolin/lector/internal/engines"
	"github.com/jackzampolin/lector/internal/extraction"
	"github.com/jackzampolin/lector/internal/svcctx"
)

// ExtractResponse is the JSON result of a successful extraction.
type ExtractResponse struct {
	Text       string   `json:"text"`
	Characters int      `json:"characters"`
	Words      int      `json:"words"`
	Engine     string   `json:"engine"`
	Languages  []string `json:"languages"`
}

// ExtractEndpoint handles POST /api/extract.
type ExtractEndpoint struct{}

var _ api.Endpoint = (*ExtractEndpoint)(nil)

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract text from an image
//	@Description	Runs the selected OCR engine over an uploaded JPG, JPEG, PNG, BMP or TIFF image
//	@Tags			extraction
//	@Accept			mpfd
//	@Produce		json
//	@Param			file		formData	file	true	"Image file"
//	@Param			engine		formData	string	false	"easyocr or tesseract (default from config)"
//	@Param			languages	formData	[]string	false	"Language codes (default en)"
//	@Success		200	{object}	ExtractResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		413	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)

	req, reqErr := parseExtractRequest(w, r)
	if reqErr != nil {
		writeError(w, reqErr.status, reqErr.Error())
		return
	}

	extractor := svcctx.ExtractorFrom(r.Context())
	if extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "extraction service not initialized")
		return
	}

	result := extractor.Run(r.Context(), req.upload, req.sel)
	if !result.OK() {
		writeJSON(w, failureStatus(result.Failure), ErrorResponse{
			Error: result.Message(),
			Kind:  string(result.Failure.Kind),
		})
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{
		Text:       result.Text,
		Characters: result.Stats.Characters,
		Words:      result.Stats.Words,
		Engine:     req.sel.Engine,
		Languages:  req.sel.Languages,
	})
}

// failureStatus maps an extraction failure to an HTTP status.
func failureStatus(f *extraction.Failure) int {
	switch {
	case f.Kind == extraction.FailureDecode:
		return http.StatusUnprocessableEntity
	case errors.Is(f, engines.ErrEngineNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var engine, outFile string
	var languages []string
	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract text from an image on the server",
		Long: `Upload an image to the running server and print the extracted text.

Examples:
  lector api extract scan.png
  lector api extract page.tiff --engine tesseract
  lector api extract menu.jpg --lang fr --lang en --out menu.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			fields := map[string][]string{}
			if engine != "" {
				fields["engine"] = []string{engine}
			}
			if len(languages) > 0 {
				fields["languages"] = languages
			}

			client := api.NewClient(getServerURL())
			var resp ExtractResponse
			if err := client.PostFile(cmd.Context(), "/api/extract", "file", args[0], data, fields, &resp); err != nil {
				return err
			}

			if outFile != "" {
				if err := os.WriteFile(outFile, []byte(resp.Text), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outFile, err)
				}
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", "OCR engine: "+strings.Join(engines.Names(), " or "))
	cmd.Flags().StringSliceVar(&languages, "lang", nil, "Language code (repeatable)")
	cmd.Flags().StringVar(&outFile, "out", "", "Also write the text to this file")
	return cmd
}
