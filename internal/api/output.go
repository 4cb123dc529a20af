package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how CLI commands print results.
type OutputFormat string

const (
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
)

// outputFormat is set from the root command's --output flag.
var outputFormat = OutputFormatYAML

// SetOutputFormat sets the format used by Output. Unknown values fall back to yaml.
func SetOutputFormat(format string) {
	if OutputFormat(format) == OutputFormatJSON {
		outputFormat = OutputFormatJSON
		return
	}
	outputFormat = OutputFormatYAML
}

// Output writes data to stdout in the configured format.
func Output(data any) error {
	return OutputTo(os.Stdout, outputFormat, data)
}

// OutputToFile writes data as indented JSON to path.
func OutputToFile(data any, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := OutputTo(f, OutputFormatJSON, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// OutputTo writes data to w in the given format.
func OutputTo(w io.Writer, format OutputFormat, data any) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
