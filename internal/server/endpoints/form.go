package endpoints

import (
	"bytes"
	"context"
	"encoding/base64"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lector/internal/api"
	"github.com/jackzampolin/lector/internal/extraction"
	"github.com/jackzampolin/lector/internal/svcctx"
	"github.com/jackzampolin/lector/web"
)

var loadTemplates = sync.OnceValues(web.Templates)

// PageData is rendered by the index.html template.
type PageData struct {
	Engines    []EngineOption
	Languages  []LanguageOption
	Accept     string
	Formats    string
	InputError string
	Result     *ResultView
}

// EngineOption is one entry of the engine select box.
type EngineOption struct {
	EngineInfo
	Selected bool
}

// LanguageOption is one language checkbox.
type LanguageOption struct {
	LanguageInfo
	Selected bool
}

// ResultView is the rendered outcome of one extraction. Error and Text are
// mutually exclusive.
type ResultView struct {
	Filename string
	// Preview is a data: URI, which html/template would otherwise filter out.
	Preview    template.URL
	Text       string
	Characters int
	Words      int
	Error      string
	// Download carries Text base64 encoded so form submission keeps line endings.
	Download string
}

func newResultView(upload *extraction.Upload, result extraction.Result) *ResultView {
	view := &ResultView{Filename: upload.Filename}
	if preview, err := upload.Preview(); err == nil {
		view.Preview = template.URL(preview)
	}
	if !result.OK() {
		view.Error = result.Message()
		return view
	}
	view.Text = result.Text
	view.Characters = result.Stats.Characters
	view.Words = result.Stats.Words
	view.Download = base64.StdEncoding.EncodeToString([]byte(result.Text))
	return view
}

func newPageData(ctx context.Context, sel extraction.Selection) PageData {
	opts := buildOptions(ctx)

	selectedLangs := make(map[string]bool, len(sel.Languages))
	for _, code := range sel.Languages {
		selectedLangs[code] = true
	}

	data := PageData{
		Accept:  extraction.AcceptAttribute(),
		Formats: strings.ToUpper(strings.Join(extraction.SupportedExtensions, ", ")),
	}
	for _, info := range opts.Engines {
		data.Engines = append(data.Engines, EngineOption{EngineInfo: info, Selected: info.Name == sel.Engine})
	}
	for _, info := range opts.Languages {
		data.Languages = append(data.Languages, LanguageOption{LanguageInfo: info, Selected: selectedLangs[info.Code]})
	}
	return data
}

// renderPage executes the page template into a buffer so template errors
// still produce a clean 500.
func renderPage(ctx context.Context, w http.ResponseWriter, status int, data PageData) {
	tmpl, err := loadTemplates()
	if err != nil {
		svcctx.LoggerFrom(ctx).Error("failed to parse templates", "error", err)
		http.Error(w, "templates not available", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		svcctx.LoggerFrom(ctx).Error("failed to render page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// FormEndpoint handles GET / and renders the empty extraction form.
type FormEndpoint struct{}

var _ api.Endpoint = (*FormEndpoint)(nil)

func (e *FormEndpoint) Route() (string, string, http.HandlerFunc) {
	// {$} matches only the root path
	return "GET", "/{$}", e.handler
}

func (e *FormEndpoint) RequiresInit() bool { return false }

func (e *FormEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	renderPage(r.Context(), w, http.StatusOK, newPageData(r.Context(), defaultSelection(r.Context())))
}

func (e *FormEndpoint) Command(_ func() string) *cobra.Command {
	return nil // No CLI command for the HTML form
}

// SubmitEndpoint handles POST /extract from the HTML form.
type SubmitEndpoint struct{}

var _ api.Endpoint = (*SubmitEndpoint)(nil)

func (e *SubmitEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/extract", e.handler
}

// RequiresInit is false so a missing engine renders inside the page.
func (e *SubmitEndpoint) RequiresInit() bool { return false }

func (e *SubmitEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer cleanupForm(r)

	req, reqErr := parseExtractRequest(w, r)
	if reqErr != nil {
		sel := defaultSelection(ctx)
		if r.MultipartForm != nil {
			if parsed, err := extraction.Configure(r.FormValue("engine"), r.MultipartForm.Value["languages"]); err == nil {
				sel = parsed
			}
		}
		data := newPageData(ctx, sel)
		data.InputError = reqErr.Error()
		renderPage(r.Context(), w, reqErr.status, data)
		return
	}

	extractor := svcctx.ExtractorFrom(ctx)
	if extractor == nil {
		data := newPageData(ctx, req.sel)
		data.InputError = "extraction service not initialized"
		renderPage(r.Context(), w, http.StatusServiceUnavailable, data)
		return
	}

	result := extractor.Run(ctx, req.upload, req.sel)

	data := newPageData(ctx, req.sel)
	data.Result = newResultView(req.upload, result)
	renderPage(r.Context(), w, http.StatusOK, data)
}

func (e *SubmitEndpoint) Command(_ func() string) *cobra.Command {
	return nil // Use "api extract" for the JSON variant
}
