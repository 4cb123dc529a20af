package engines

import (
	"context"
	"sync"
)

// MockEngine is an Engine for testing.
type MockEngine struct {
	// Configurable behavior
	EngineName string
	Text       string
	Err        error
	PanicValue any

	mu            sync.Mutex
	calls         int
	lastLanguages []string
	lastImage     *Image
}

// NewMockEngine creates a mock engine that returns text under the given name.
func NewMockEngine(name, text string) *MockEngine {
	return &MockEngine{EngineName: name, Text: text}
}

// Name returns the configured engine name.
func (m *MockEngine) Name() string { return m.EngineName }

// Label returns the display label for the configured name.
func (m *MockEngine) Label() string { return Label(m.EngineName) }

// Extract records the call and returns the configured text or error.
func (m *MockEngine) Extract(ctx context.Context, img *Image, languages []string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastLanguages = append([]string(nil), languages...)
	m.lastImage = img
	m.mu.Unlock()

	if m.PanicValue != nil {
		panic(m.PanicValue)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// Calls returns how many times Extract was invoked.
func (m *MockEngine) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastLanguages returns the languages passed to the most recent call.
func (m *MockEngine) LastLanguages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLanguages
}

// LastImage returns the image passed to the most recent call.
func (m *MockEngine) LastImage() *Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastImage
}

// MockReader is a Reader that returns fixed detections.
type MockReader struct {
	Detections []Detection
	Err        error

	mu            sync.Mutex
	calls         int
	lastLanguages []string
}

// ReadText records the call and returns the configured detections.
func (m *MockReader) ReadText(ctx context.Context, img *Image, languages []string) ([]Detection, error) {
	m.mu.Lock()
	m.calls++
	m.lastLanguages = append([]string(nil), languages...)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Detections, nil
}

// Calls returns how many times ReadText was invoked.
func (m *MockReader) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastLanguages returns the languages passed to the most recent call.
func (m *MockReader) LastLanguages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLanguages
}

// MockTextFunc backs a TesseractEngine in tests and records the bytes it receives.
type MockTextFunc struct {
	Text string
	Err  error

	mu       sync.Mutex
	calls    int
	lastData []byte
}

// Func returns the TextFunc to pass to NewTesseractEngine.
func (m *MockTextFunc) Func() TextFunc {
	return func(ctx context.Context, data []byte) (string, error) {
		m.mu.Lock()
		m.calls++
		m.lastData = data
		m.mu.Unlock()

		if m.Err != nil {
			return "", m.Err
		}
		return m.Text, nil
	}
}

// Calls returns how many times the function was invoked.
func (m *MockTextFunc) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastData returns the bytes passed to the most recent call.
func (m *MockTextFunc) LastData() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastData
}

var (
	_ Engine = (*MockEngine)(nil)
	_ Reader = (*MockReader)(nil)
)
