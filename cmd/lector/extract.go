package main

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/lector/internal/api"
	"github.com/jackzampolin/lector/internal/engines"
	"github.com/jackzampolin/lector/internal/extraction"
)

var (
	extractEngine    string
	extractLanguages []string
	extractOut       string
	extractTextOnly  bool
)

// extractOutput is what "lector extract" prints.
type extractOutput struct {
	File       string   `json:"file" yaml:"file"`
	Engine     string   `json:"engine" yaml:"engine"`
	Languages  []string `json:"languages" yaml:"languages"`
	Characters int      `json:"characters" yaml:"characters"`
	Words      int      `json:"words" yaml:"words"`
	Text       string   `json:"text" yaml:"text"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Extract text from an image locally",
	Long: `Run OCR on an image without starting the server.

Engines are built from the same config as "lector serve".

Examples:
  lector extract scan.png
  lector extract page.tiff --engine tesseract --text
  lector extract menu.jpg --lang fr --lang en --out menu.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))

		h, err := getHome()
		if err != nil {
			return err
		}
		cfgMgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()

		engine := extractEngine
		if engine == "" {
			engine = cfg.Defaults.Engine
		}
		languages := extractLanguages
		if len(languages) == 0 {
			languages = cfg.Defaults.Languages
		}
		sel, err := extraction.Configure(engine, languages)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		upload, err := extraction.NewUpload(filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), data)
		if err != nil {
			return err
		}

		registry := engines.NewRegistry()
		registry.SetLogger(logger)
		registry.Reload(cfg.ToEngineRegistryConfig(h.ModelsPath()))

		result := extraction.NewExtractor(registry, logger).Run(ctx, upload, sel)
		if !result.OK() {
			return fmt.Errorf("%s", result.Message())
		}

		if extractOut != "" {
			if err := os.WriteFile(extractOut, []byte(result.Text), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", extractOut, err)
			}
		}

		if extractTextOnly {
			fmt.Print(result.Text)
			if !strings.HasSuffix(result.Text, "\n") {
				fmt.Println()
			}
			return nil
		}
		return api.Output(extractOutput{
			File:       path,
			Engine:     sel.Engine,
			Languages:  sel.Languages,
			Characters: result.Stats.Characters,
			Words:      result.Stats.Words,
			Text:       result.Text,
		})
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractEngine, "engine", "", "OCR engine: easyocr or tesseract (default from config)")
	extractCmd.Flags().StringSliceVar(&extractLanguages, "lang", nil, "Language code, repeatable (default from config)")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "Also write the text to this file")
	extractCmd.Flags().BoolVar(&extractTextOnly, "text", false, "Print only the extracted text")

	rootCmd.AddCommand(extractCmd)
}
