package endpoints

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lector/internal/api"
	"github.com/jackzampolin/lector/internal/engines"
	"github.com/jackzampolin/lector/internal/extraction"
	"github.com/jackzampolin/lector/internal/svcctx"
)

// EngineInfo describes one selectable OCR engine.
type EngineInfo struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// LanguageInfo describes one selectable language.
type LanguageInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// OptionsResponse lists what the extraction form offers.
type OptionsResponse struct {
	Engines   []EngineInfo         `json:"engines"`
	Languages []LanguageInfo       `json:"languages"`
	Formats   []string             `json:"formats"`
	Defaults  extraction.Selection `json:"defaults"`
}

// OptionsEndpoint handles GET /api/options.
type OptionsEndpoint struct{}

var _ api.Endpoint = (*OptionsEndpoint)(nil)

func (e *OptionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/options", e.handler
}

func (e *OptionsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List extraction options
//	@Description	Engines with availability, supported languages, accepted formats and the configured defaults
//	@Tags			extraction
//	@Produce		json
//	@Success		200	{object}	OptionsResponse
//	@Router			/api/options [get]
func (e *OptionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildOptions(r.Context()))
}

func (e *OptionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List OCR engines, languages and formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp OptionsResponse
			if err := client.Get(cmd.Context(), "/api/options", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

func buildOptions(ctx context.Context) OptionsResponse {
	registry := svcctx.RegistryFrom(ctx)

	resp := OptionsResponse{
		Formats:  extraction.SupportedExtensions,
		Defaults: defaultSelection(ctx),
	}
	for _, name := range engines.Names() {
		resp.Engines = append(resp.Engines, EngineInfo{
			Name:      name,
			Label:     engines.Label(name),
			Available: registry != nil && registry.Has(name),
		})
	}
	for _, code := range extraction.SupportedLanguages {
		resp.Languages = append(resp.Languages, LanguageInfo{Code: code, Name: extraction.LanguageName(code)})
	}
	return resp
}

// defaultSelection returns the configured form defaults, falling back to the
// built-in ones when the config names something unsupported.
func defaultSelection(ctx context.Context) extraction.Selection {
	cfg := svcctx.ConfigFrom(ctx)
	sel, err := extraction.Configure(cfg.Defaults.Engine, cfg.Defaults.Languages)
	if err != nil {
		sel, _ = extraction.Configure("", nil)
	}
	return sel
}
