package provider

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MockProvider is a mock AI provider for testing. It is safe for concurrent use.
type MockProvider struct {
	mu           sync.Mutex
	translations map[string]string // Map of source text to translation
	requests     []TranslateRequest
	delay        time.Duration
	err          error

	calls atomic.Int64
}

// NewMockProvider creates a new mock provider with a few Bengali translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		translations: map[string]string{
			"Hello":               "হ্যালো",
			"Save":                "সংরক্ষণ",
			"Cancel":              "বাতিল",
			"Admission Open":      "ভর্তি চলছে",
			"Welcome":             "স্বাগতম",
			"Notice Board":        "নোটিশ বোর্ড",
			"Annual Sports":       "বার্ষিক ক্রীড়া",
			"Teachers":            "শিক্ষকগণ",
			"Contact Us":          "যোগাযোগ করুন",
			"Exam Routine":        "পরীক্ষার রুটিন",
			"Thank you":           "ধন্যবাদ",
			"Principal's Message": "অধ্যক্ষের বাণী",
		},
	}
}

// Set adds or replaces a canned translation.
func (m *MockProvider) Set(text, translation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translations[text] = translation
}

// SetDelay makes every call block for d or until the context is done.
func (m *MockProvider) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetError makes every call fail with err. Pass nil to succeed again.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Translate returns canned translations. Unknown texts come back bracketed.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.calls.Add(1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	delay, err := m.delay, m.err
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if translation, ok := m.translations[text]; ok {
			results[i] = translation
		} else {
			results[i] = "[" + string(req.TargetLang) + "] " + text
		}
	}

	return results, nil
}

// CallCount returns the number of times Translate was called.
func (m *MockProvider) CallCount() int {
	return int(m.calls.Load())
}

// Requests returns a copy of every request received.
func (m *MockProvider) Requests() []TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranslateRequest(nil), m.requests...)
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}

// Reset clears recorded calls.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Store(0)
	m.requests = nil
}

// Verify MockProvider implements AIProvider
var _ AIProvider = (*MockProvider)(nil)
