package adapter

import (
	"context"
	"sync"

	"github.com/ZaguanLabs/dobhasi"
)

// Text keeps one string translated into the active language.
type Text struct {
	b *binding[string]

	mu   sync.RWMutex
	text string
}

// NewText binds text to src. onChange, if not nil, receives every committed
// value; in English it is called before NewText returns.
func NewText(src Source, text string, onChange func(string), opts ...Option) *Text {
	t := &Text{text: text}
	t.b = &binding[string]{
		src:      src,
		onChange: onChange,
		immediate: func(lang dobhasi.Language) (string, bool) {
			if lang == dobhasi.English || dobhasi.IsBlank(t.source()) {
				return t.source(), true
			}
			return "", false
		},
		pending: t.source,
		fetch: func(ctx context.Context, lang dobhasi.Language) string {
			return src.TranslateBatch(ctx, []string{t.source()}, explicit(lang, opts)...)[0]
		},
	}
	t.b.start(opts)
	return t
}

func (t *Text) source() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

// SetText replaces the source text. Nothing happens if it is unchanged.
func (t *Text) SetText(text string) {
	t.mu.Lock()
	if t.text == text {
		t.mu.Unlock()
		return
	}
	t.text = text
	t.mu.Unlock()

	t.b.refresh()
}

// Value returns the text to display and the binding state. While Pending the
// value is the untranslated source.
func (t *Text) Value() (string, State) {
	return t.b.get()
}

// String returns the text to display.
func (t *Text) String() string {
	v, _ := t.b.get()
	return v
}

// Wait blocks until no translation started by this binding is in flight.
func (t *Text) Wait() {
	t.b.wait()
}

// Close stops the binding. A late result is discarded.
func (t *Text) Close() {
	t.b.close()
}

// explicit turns a pinned language into the override argument of TranslateBatch.
func explicit(lang dobhasi.Language, opts []Option) []dobhasi.Language {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.override != "" {
		return []dobhasi.Language{lang}
	}
	return nil
}
