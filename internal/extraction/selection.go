package extraction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/lector/internal/engines"
)

var (
	// ErrUnknownEngine is returned when the engine name is not one of the offered engines.
	ErrUnknownEngine = errors.New("unknown OCR engine")
	// ErrUnsupportedLanguage is returned for language codes outside SupportedLanguages.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// SupportedLanguages is the fixed list of selectable language codes, in display order.
var SupportedLanguages = []string{"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh"}

// DefaultLanguages is used when no language is selected.
var DefaultLanguages = []string{"en"}

// DefaultEngine is the engine preselected in the form.
const DefaultEngine = engines.EasyOCRName

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
}

// Selection is the per-request engine and language choice.
type Selection struct {
	Engine    string   `json:"engine"`
	Languages []string `json:"languages"`
}

// Configure validates an engine name and language list and returns a Selection.
// Engine names match case-insensitively against both ids and labels ("EasyOCR").
// An empty language list yields DefaultLanguages. Duplicates are dropped,
// keeping the first occurrence.
func Configure(engine string, languages []string) (Selection, error) {
	name, err := normalizeEngine(engine)
	if err != nil {
		return Selection{}, err
	}

	seen := make(map[string]bool, len(languages))
	langs := make([]string, 0, len(languages))
	for _, lang := range languages {
		code := strings.ToLower(strings.TrimSpace(lang))
		if code == "" {
			continue
		}
		if !IsSupportedLanguage(code) {
			return Selection{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		langs = append(langs, code)
	}
	if len(langs) == 0 {
		langs = append(langs, DefaultLanguages...)
	}

	return Selection{Engine: name, Languages: langs}, nil
}

// IsSupportedLanguage reports whether code is in SupportedLanguages.
func IsSupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// LanguageName returns the English name of a supported language code.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

func normalizeEngine(engine string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(engine))
	if name == "" {
		return DefaultEngine, nil
	}
	for _, known := range engines.Names() {
		if name == known || name == strings.ToLower(engines.Label(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
}
