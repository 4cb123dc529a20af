package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/lector/internal/api"
	"github.com/jackzampolin/lector/internal/config"
	"github.com/jackzampolin/lector/internal/home"
	"github.com/jackzampolin/lector/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "lector",
	Short: "Extract text from images with EasyOCR or Tesseract",
	Long: `Lector is a small OCR service. Upload an image, pick an OCR engine and
the languages in the document, and get the extracted text back with character
and word counts and a .txt download.

Engines:
  - EasyOCR   (neural, multi-language; runs through a Python interpreter)
  - Tesseract (classical; runs the tesseract binary or libtesseract)

Supported formats: JPG, JPEG, PNG, BMP, TIFF`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.lector/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "lector home directory (default: ~/.lector)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// getHome returns the lector home directory from --home or the default.
func getHome() (*home.Dir, error) {
	return home.New(homeDir)
}

// loadConfig loads configuration from --config, the home config file, or the
// default search path, in that order.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	return config.NewManager(path)
}
