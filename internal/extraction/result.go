package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DownloadFilename is the name offered for the extracted text download.
	DownloadFilename = "extracted_text.txt"
	// DownloadContentType is the content type of the download.
	DownloadContentType = "text/plain"
)

// FailureKind classifies why an extraction failed.
type FailureKind string

const (
	// FailureDecode means the upload could not be decoded as an image.
	FailureDecode FailureKind = "decode"
	// FailureEngine means the engine was unavailable or its call failed.
	FailureEngine FailureKind = "engine"
	// FailureInternal means the engine panicked.
	FailureInternal FailureKind = "internal"
)

// Failure is an extraction error captured in a Result.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Stats holds derived attributes of an extraction string.
type Stats struct {
	Characters int `json:"characters"`
	Words      int `json:"words"`
}

// Result is the outcome of one extraction: either text with stats, or a failure.
type Result struct {
	Text    string
	Stats   Stats
	Failure *Failure
}

// OK reports whether the extraction succeeded.
func (r Result) OK() bool { return r.Failure == nil }

// Message returns the user-visible error message, or "" on success.
func (r Result) Message() string {
	if r.Failure == nil {
		return ""
	}
	return "Error during text extraction: " + r.Failure.Error()
}

// ComputeStats returns the character and word count of s.
func ComputeStats(s string) Stats {
	return Stats{Characters: CharacterCount(s), Words: WordCount(s)}
}

// CharacterCount returns the number of Unicode code points in s.
func CharacterCount(s string) int {
	return utf8.RuneCountInString(s)
}

// WordCount returns the number of whitespace-delimited tokens in s.
// The ASCII file, group, record and unit separators count as whitespace.
func WordCount(s string) int {
	return len(strings.FieldsFunc(s, isWordSeparator))
}

func isWordSeparator(r rune) bool {
	if r >= 0x1c && r <= 0x1f {
		return true
	}
	return unicode.IsSpace(r)
}

func succeeded(text string) Result {
	return Result{Text: text, Stats: ComputeStats(text)}
}

func failed(kind FailureKind, err error) Result {
	return Result{Failure: &Failure{Kind: kind, Err: err}}
}
