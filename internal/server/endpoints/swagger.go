package endpoints

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lector/internal/api"
)

// DefaultSwaggerSpecPath is where `go generate ./docs` writes the spec.
const DefaultSwaggerSpecPath = "docs/swagger/swagger.json"

// SwaggerEndpoint serves the generated OpenAPI spec.
type SwaggerEndpoint struct {
	// SpecPath overrides the swagger.json lookup
	SpecPath string
}

var _ api.Endpoint = (*SwaggerEndpoint)(nil)

func (e *SwaggerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger.json", e.handler
}

func (e *SwaggerEndpoint) RequiresInit() bool { return false }

func (e *SwaggerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	specPath := e.SpecPath
	if specPath == "" {
		specPath = SwaggerSpecPath()
	}

	data, err := os.ReadFile(specPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "swagger.json not found, run go generate ./docs")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}

func (e *SwaggerEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "swagger",
		Short: "Fetch the OpenAPI spec from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			var spec map[string]any
			if err := client.Get(cmd.Context(), "/swagger.json", &spec); err != nil {
				return err
			}
			if outFile != "" {
				return api.OutputToFile(spec, outFile)
			}
			return api.Output(spec)
		},
	}
	cmd.Flags().StringVar(&outFile, "out", "", "Write the spec to this file")
	return cmd
}

// SwaggerSpecPath finds swagger.json next to the executable, falling back
// to the working directory.
func SwaggerSpecPath() string {
	if exe, err := os.Executable(); err == nil {
		specPath := filepath.Join(filepath.Dir(exe), DefaultSwaggerSpecPath)
		if _, err := os.Stat(specPath); err == nil {
			return specPath
		}
	}
	return DefaultSwaggerSpecPath
}
