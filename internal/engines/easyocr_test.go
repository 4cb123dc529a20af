package engines

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func testImage(w, h int) *Image {
	return &Image{Bitmap: image.NewRGBA(image.Rect(0, 0, w, h)), Format: "png"}
}

func TestEasyOCREngine_Extract(t *testing.T) {
	t.Run("joins texts in reader order", func(t *testing.T) {
		reader := &MockReader{Detections: []Detection{
			{Box: [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, Text: "Hello", Confidence: 0.99},
			{Box: [][2]float64{{0, 20}, {10, 20}, {10, 30}, {0, 30}}, Text: "World", Confidence: 0.95},
		}}
		engine := NewEasyOCREngine(reader)

		text, err := engine.Extract(context.Background(), testImage(100, 50), []string{"en"})
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if text != "Hello\nWorld" {
			t.Errorf("Extract() = %q, want %q", text, "Hello\nWorld")
		}
	})

	t.Run("does not re-sort by position", func(t *testing.T) {
		reader := &MockReader{Detections: []Detection{
			{Box: [][2]float64{{0, 90}}, Text: "bottom"},
			{Box: [][2]float64{{0, 0}}, Text: "top"},
		}}
		text, err := NewEasyOCREngine(reader).Extract(context.Background(), testImage(10, 10), []string{"en"})
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if text != "bottom\ntop" {
			t.Errorf("Extract() = %q, want %q", text, "bottom\ntop")
		}
	})

	t.Run("forwards languages", func(t *testing.T) {
		reader := &MockReader{}
		langs := []string{"en", "fr", "de"}
		if _, err := NewEasyOCREngine(reader).Extract(context.Background(), testImage(10, 10), langs); err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if !reflect.DeepEqual(reader.LastLanguages(), langs) {
			t.Errorf("reader languages = %v, want %v", reader.LastLanguages(), langs)
		}
	})

	t.Run("no detections gives empty text", func(t *testing.T) {
		text, err := NewEasyOCREngine(&MockReader{}).Extract(context.Background(), testImage(10, 10), []string{"en"})
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if text != "" {
			t.Errorf("Extract() = %q, want empty", text)
		}
	})

	t.Run("propagates reader error", func(t *testing.T) {
		want := errors.New("model download failed")
		_, err := NewEasyOCREngine(&MockReader{Err: want}).Extract(context.Background(), testImage(10, 10), []string{"en"})
		if !errors.Is(err, want) {
			t.Errorf("Extract() error = %v, want %v", err, want)
		}
	})
}

func TestParseDetections(t *testing.T) {
	t.Run("valid output", func(t *testing.T) {
		data := []byte(`[{"box":[[0,0],[10,0],[10,10],[0,10]],"text":"Hello","confidence":0.99}]`)
		detections, err := ParseDetections(data)
		if err != nil {
			t.Fatalf("ParseDetections() error = %v", err)
		}
		if len(detections) != 1 {
			t.Fatalf("got %d detections, want 1", len(detections))
		}
		if detections[0].Text != "Hello" || detections[0].Confidence != 0.99 {
			t.Errorf("unexpected detection: %+v", detections[0])
		}
		if len(detections[0].Box) != 4 || detections[0].Box[2] != [2]float64{10, 10} {
			t.Errorf("unexpected box: %v", detections[0].Box)
		}
	})

	t.Run("empty array", func(t *testing.T) {
		detections, err := ParseDetections([]byte(`[]`))
		if err != nil {
			t.Fatalf("ParseDetections() error = %v", err)
		}
		if len(detections) != 0 {
			t.Errorf("got %d detections, want 0", len(detections))
		}
	})

	t.Run("rejects missing text", func(t *testing.T) {
		_, err := ParseDetections([]byte(`[{"box":[],"confidence":0.5}]`))
		if err == nil {
			t.Error("expected schema validation error")
		}
	})

	t.Run("rejects non-json", func(t *testing.T) {
		_, err := ParseDetections([]byte(`Traceback (most recent call last)`))
		if err == nil {
			t.Error("expected decode error")
		}
	})
}

// writeScript writes an executable shell script into a temp dir.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestPythonReader(t *testing.T) {
	t.Run("decodes interpreter output", func(t *testing.T) {
		python := writeScript(t, "python", `cat >/dev/null
printf '[{"box":[[0,0],[1,0],[1,1],[0,1]],"text":"Hola","confidence":0.8}]'
`)
		reader := NewPythonReader(python, "")

		detections, err := reader.ReadText(context.Background(), testImage(20, 20), []string{"es"})
		if err != nil {
			t.Fatalf("ReadText() error = %v", err)
		}
		if len(detections) != 1 || detections[0].Text != "Hola" {
			t.Errorf("unexpected detections: %+v", detections)
		}
	})

	t.Run("passes languages as json argument", func(t *testing.T) {
		// $1 is -c, $2 the script, $3 the language list
		python := writeScript(t, "python", `cat >/dev/null
if [ "$3" != '["en","ja"]' ]; then echo "unexpected languages: $3" >&2; exit 2; fi
printf '[]'
`)
		reader := NewPythonReader(python, "")

		if _, err := reader.ReadText(context.Background(), testImage(20, 20), []string{"en", "ja"}); err != nil {
			t.Fatalf("ReadText() error = %v", err)
		}
	})

	t.Run("surfaces last stderr line", func(t *testing.T) {
		python := writeScript(t, "python", `cat >/dev/null
echo "Traceback (most recent call last):" >&2
echo "ValueError: ({'zh'}, 'is not supported')" >&2
exit 1
`)
		reader := NewPythonReader(python, "")

		_, err := reader.ReadText(context.Background(), testImage(20, 20), []string{"zh"})
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "ValueError") {
			t.Errorf("error = %q, want it to contain the python exception", err)
		}
	})

	t.Run("missing interpreter", func(t *testing.T) {
		reader := NewPythonReader(filepath.Join(t.TempDir(), "no-such-python"), "")

		if _, err := reader.ReadText(context.Background(), testImage(20, 20), []string{"en"}); err == nil {
			t.Error("expected error for missing interpreter")
		}
	})
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"one", "one"},
		{"one\ntwo\n\n", "two"},
		{"  \n  padded  \n", "padded"},
	}
	for _, tt := range tests {
		if got := lastLine(tt.in); got != tt.want {
			t.Errorf("lastLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
