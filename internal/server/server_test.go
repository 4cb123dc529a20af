package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jackzampolin/lector/internal/engines"
	"github.com/jackzampolin/lector/internal/home"
	"github.com/jackzampolin/lector/internal/server/endpoints"
	"github.com/jackzampolin/lector/internal/testutil"
)

type testEnv struct {
	url       string
	reader    *engines.MockReader
	tesseract *engines.MockEngine
	registry  *engines.Registry
}

func newTestEnv(t *testing.T, maxUpload int64) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reader := &engines.MockReader{Detections: []engines.Detection{
		{Box: [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, Text: "Hello", Confidence: 0.99},
		{Box: [][2]float64{{0, 20}, {10, 20}, {10, 30}, {0, 30}}, Text: "World", Confidence: 0.95},
	}}
	tesseract := engines.NewMockEngine(engines.TesseractName, "classic output\n")

	registry := engines.NewRegistry()
	registry.SetLogger(logger)
	registry.Register(engines.NewEasyOCREngine(reader))
	registry.Register(tesseract)

	srv, err := New(Config{Registry: registry, Logger: logger, MaxUploadBytes: maxUpload})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{url: ts.URL, reader: reader, tesseract: tesseract, registry: registry}
}

func multipartBody(t *testing.T, filename string, data []byte, fields map[string][]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, values := range fields {
		for _, v := range values {
			mw.WriteField(name, v)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		part.Write(data)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) post(t *testing.T, path, filename string, data []byte, fields map[string][]string) (*http.Response, []byte) {
	t.Helper()
	body, contentType := multipartBody(t, filename, data, fields)
	resp, err := http.Post(e.url+path, contentType, body)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t, 0)

	t.Run("returns ok with generated request id", func(t *testing.T) {
		resp, err := http.Get(env.url + "/health")
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		var health endpoints.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
		if resp.Header.Get(RequestIDHeader) == "" {
			t.Error("expected generated request id header")
		}
	})

	t.Run("echoes caller request id", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, env.url+"/health", nil)
		req.Header.Set(RequestIDHeader, "trace-42")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		resp.Body.Close()
		if got := resp.Header.Get(RequestIDHeader); got != "trace-42" {
			t.Errorf("request id = %q, want trace-42", got)
		}
	})
}

func TestServer_Status(t *testing.T) {
	env := newTestEnv(t, 0)

	resp, err := http.Get(env.url + "/status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	defer resp.Body.Close()

	var status endpoints.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.Server != "running" {
		t.Errorf("Server = %q", status.Server)
	}
	if strings.Join(status.Engines, ",") != "easyocr,tesseract" {
		t.Errorf("Engines = %v", status.Engines)
	}
}

func TestServer_StatusModelsDir(t *testing.T) {
	dir, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	srv, err := New(Config{
		Registry: engines.NewRegistry(),
		Home:     dir,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	defer resp.Body.Close()

	var status endpoints.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.ModelsDir != dir.ModelsPath() {
		t.Errorf("ModelsDir = %q, want %q", status.ModelsDir, dir.ModelsPath())
	}
}

func TestServer_Options(t *testing.T) {
	env := newTestEnv(t, 0)
	env.registry.Unregister(engines.TesseractName)

	resp, err := http.Get(env.url + "/api/options")
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}
	defer resp.Body.Close()

	var opts endpoints.OptionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&opts); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(opts.Engines) != 2 || !opts.Engines[0].Available || opts.Engines[1].Available {
		t.Errorf("unexpected engines: %+v", opts.Engines)
	}
	if opts.Engines[0].Label != "EasyOCR" || opts.Engines[1].Label != "Tesseract" {
		t.Errorf("unexpected labels: %+v", opts.Engines)
	}
	if len(opts.Languages) != 10 || opts.Languages[0].Code != "en" {
		t.Errorf("unexpected languages: %+v", opts.Languages)
	}
	if opts.Defaults.Engine != engines.EasyOCRName || strings.Join(opts.Defaults.Languages, ",") != "en" {
		t.Errorf("unexpected defaults: %+v", opts.Defaults)
	}
}

func TestServer_APIExtract(t *testing.T) {
	env := newTestEnv(t, 0)
	png := testutil.EncodeImage(t, "png", 100, 50)

	t.Run("easyocr end to end", func(t *testing.T) {
		resp, body := env.post(t, "/api/extract", "page.png", png, map[string][]string{
			"engine":    {"easyocr"},
			"languages": {"en"},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
		}
		var out endpoints.ExtractResponse
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if out.Text != "Hello\nWorld" || out.Characters != 11 || out.Words != 2 {
			t.Errorf("unexpected result: %+v", out)
		}
		if out.Engine != "easyocr" || strings.Join(out.Languages, ",") != "en" {
			t.Errorf("unexpected selection: %+v", out)
		}
	})

	t.Run("every format", func(t *testing.T) {
		for _, ext := range testutil.Formats {
			resp, body := env.post(t, "/api/extract", "scan."+ext, testutil.EncodeImage(t, ext, 40, 20), nil)
			if resp.StatusCode != http.StatusOK {
				t.Errorf("%s: status = %d, body = %s", ext, resp.StatusCode, body)
			}
		}
	})

	t.Run("tesseract ignores languages", func(t *testing.T) {
		resp, body := env.post(t, "/api/extract", "page.png", png, map[string][]string{
			"engine":    {"Tesseract"},
			"languages": {"ja,ko"},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
		}
		var out endpoints.ExtractResponse
		json.Unmarshal(body, &out)
		if out.Text != "classic output\n" {
			t.Errorf("Text = %q", out.Text)
		}
		if strings.Join(out.Languages, ",") != "ja,ko" {
			t.Errorf("Languages = %v", out.Languages)
		}
	})

	badRequests := []struct {
		name     string
		filename string
		data     []byte
		fields   map[string][]string
	}{
		{"unsupported extension", "page.gif", png, nil},
		{"tif is not tiff", "page.tif", testutil.EncodeImage(t, "tiff", 10, 10), nil},
		{"missing file", "", nil, nil},
		{"empty file", "page.png", nil, nil},
		{"unknown engine", "page.png", png, map[string][]string{"engine": {"paddle"}}},
		{"unsupported language", "page.png", png, map[string][]string{"languages": {"xx"}}},
	}
	for _, tt := range badRequests {
		t.Run(tt.name, func(t *testing.T) {
			before := env.reader.Calls() + env.tesseract.Calls()
			resp, body := env.post(t, "/api/extract", tt.filename, tt.data, tt.fields)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", resp.StatusCode, body)
			}
			if after := env.reader.Calls() + env.tesseract.Calls(); after != before {
				t.Error("engine must not run for rejected input")
			}
		})
	}

	t.Run("decode failure", func(t *testing.T) {
		resp, body := env.post(t, "/api/extract", "fake.png", []byte("not a png"), nil)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", resp.StatusCode)
		}
		var out endpoints.ErrorResponse
		json.Unmarshal(body, &out)
		if out.Kind != "decode" || !strings.HasPrefix(out.Error, "Error during text extraction: ") {
			t.Errorf("unexpected error body: %+v", out)
		}
	})

	t.Run("engine failure", func(t *testing.T) {
		env.tesseract.Err = errors.New("tesseract is not installed")
		defer func() { env.tesseract.Err = nil }()

		resp, body := env.post(t, "/api/extract", "page.png", png, map[string][]string{"engine": {"tesseract"}})
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", resp.StatusCode)
		}
		var out endpoints.ErrorResponse
		json.Unmarshal(body, &out)
		if out.Error != "Error during text extraction: tesseract is not installed" || out.Kind != "engine" {
			t.Errorf("unexpected error body: %+v", out)
		}
	})
}

func TestServer_APIExtract_TooLarge(t *testing.T) {
	env := newTestEnv(t, 1024)

	resp, _ := env.post(t, "/api/extract", "big.png", testutil.EncodeImage(t, "bmp", 64, 64), nil)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestServer_APIExtract_NoEngines(t *testing.T) {
	env := newTestEnv(t, 0)
	env.registry.Unregister(engines.EasyOCRName)
	env.registry.Unregister(engines.TesseractName)

	resp, _ := env.post(t, "/api/extract", "page.png", testutil.EncodeImage(t, "png", 10, 10), nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestServer_Form(t *testing.T) {
	env := newTestEnv(t, 0)

	t.Run("renders empty form", func(t *testing.T) {
		resp, err := http.Get(env.url + "/")
		if err != nil {
			t.Fatalf("GET / failed: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
			t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
		}
		page := string(body)
		for _, want := range []string{
			"Document OCR Application",
			`accept=".jpg,.jpeg,.png,.bmp,.tiff"`,
			`value="en" checked`,
			"How to Use",
			"About OCR Technology",
		} {
			if !strings.Contains(page, want) {
				t.Errorf("page missing %q", want)
			}
		}
		if strings.Contains(page, "<textarea") {
			t.Error("empty form should not render a result")
		}
	})

	t.Run("unknown path is 404", func(t *testing.T) {
		resp, err := http.Get(env.url + "/nope")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("serves stylesheet", func(t *testing.T) {
		resp, err := http.Get(env.url + "/static/style.css")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/css") {
			t.Errorf("status = %d, Content-Type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
		}
	})
}

func TestServer_Submit(t *testing.T) {
	env := newTestEnv(t, 0)
	png := testutil.EncodeImage(t, "png", 100, 50)

	t.Run("success renders text, stats and download", func(t *testing.T) {
		resp, body := env.post(t, "/extract", "page.png", png, map[string][]string{"languages": {"en", "fr"}})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		page := string(body)
		for _, want := range []string{
			">\nHello\nWorld</textarea>",
			`action="/download"`,
			strings.TrimRight(base64.StdEncoding.EncodeToString([]byte("Hello\nWorld")), "="),
			"Character Count",
			`<span class="value">11</span>`,
			`<span class="value">2</span>`,
			"data:image/png;base64,",
			`value="fr" checked`,
		} {
			if !strings.Contains(page, want) {
				t.Errorf("page missing %q", want)
			}
		}
	})

	t.Run("leading newline survives textarea parsing", func(t *testing.T) {
		env := newTestEnv(t, 0)
		env.registry.Register(engines.NewMockEngine(engines.TesseractName, "\nHeader line\n"))

		resp, body := env.post(t, "/extract", "page.png", png, map[string][]string{"engine": {"tesseract"}})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		// Browsers drop the first newline after <textarea>, so the template emits one.
		if !strings.Contains(string(body), ">\n\nHeader line\n</textarea>") {
			t.Errorf("textarea does not preserve leading newline:\n%s", body)
		}
	})

	t.Run("engine failure renders only the message", func(t *testing.T) {
		env.reader.Err = errors.New("CUDA not available")
		defer func() { env.reader.Err = nil }()

		resp, body := env.post(t, "/extract", "page.png", png, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		page := string(body)
		if !strings.Contains(page, "Error during text extraction: CUDA not available") {
			t.Error("expected error message")
		}
		if strings.Contains(page, "<textarea") || strings.Contains(page, `action="/download"`) {
			t.Error("failed extraction must not render text area or download")
		}
	})

	t.Run("rejected file renders input error", func(t *testing.T) {
		before := env.reader.Calls()
		resp, body := env.post(t, "/extract", "notes.txt", []byte("hello"), nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
		if !strings.Contains(string(body), "unsupported file type") {
			t.Error("expected unsupported file type message")
		}
		if env.reader.Calls() != before {
			t.Error("engine must not run for rejected file")
		}
	})
}

func TestServer_Download(t *testing.T) {
	env := newTestEnv(t, 0)
	text := "Hello\nWorld"

	check := func(t *testing.T, form url.Values) {
		t.Helper()
		resp, err := http.PostForm(env.url+"/download", form)
		if err != nil {
			t.Fatalf("POST /download failed: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if got := resp.Header.Get("Content-Type"); got != "text/plain" {
			t.Errorf("Content-Type = %q, want text/plain", got)
		}
		if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="extracted_text.txt"` {
			t.Errorf("Content-Disposition = %q", got)
		}
		if string(body) != text {
			t.Errorf("body = %q, want %q", body, text)
		}
	}

	t.Run("plain text", func(t *testing.T) {
		check(t, url.Values{"text": {text}})
	})

	t.Run("base64 from the form", func(t *testing.T) {
		check(t, url.Values{"text": {base64.StdEncoding.EncodeToString([]byte(text))}, "encoding": {"base64"}})
	})

	t.Run("invalid base64", func(t *testing.T) {
		resp, err := http.PostForm(env.url+"/download", url.Values{"text": {"%%%"}, "encoding": {"base64"}})
		if err != nil {
			t.Fatalf("POST /download failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}
