package adapter

import (
	"context"
	"strings"
	"sync"

	"github.com/ZaguanLabs/dobhasi"
)

// Texts keeps a list of strings translated into the active language with one
// batch per change.
type Texts struct {
	b *binding[[]string]

	mu    sync.RWMutex
	texts []string
	key   string
}

// NewTexts binds texts to src. onChange, if not nil, receives every
// committed list.
func NewTexts(src Source, texts []string, onChange func([]string), opts ...Option) *Texts {
	t := &Texts{texts: cloneStrings(texts), key: joinKey(texts)}
	t.b = &binding[[]string]{
		src:      src,
		onChange: onChange,
		immediate: func(lang dobhasi.Language) ([]string, bool) {
			if lang == dobhasi.English || len(t.source()) == 0 {
				return t.source(), true
			}
			return nil, false
		},
		pending: t.source,
		fetch: func(ctx context.Context, lang dobhasi.Language) []string {
			return src.TranslateBatch(ctx, t.source(), explicit(lang, opts)...)
		},
	}
	t.b.start(opts)
	return t
}

func (t *Texts) source() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneStrings(t.texts)
}

// SetTexts replaces the list. A list with the same contents does not
// trigger a new batch.
func (t *Texts) SetTexts(texts []string) {
	key := joinKey(texts)

	t.mu.Lock()
	if key == t.key && len(texts) == len(t.texts) {
		t.mu.Unlock()
		return
	}
	t.texts = cloneStrings(texts)
	t.key = key
	t.mu.Unlock()

	t.b.refresh()
}

// Values returns the list to display and the binding state.
func (t *Texts) Values() ([]string, State) {
	v, s := t.b.get()
	return cloneStrings(v), s
}

// Wait blocks until no translation started by this binding is in flight.
func (t *Texts) Wait() {
	t.b.wait()
}

// Close stops the binding. A late result is discarded.
func (t *Texts) Close() {
	t.b.close()
}

func joinKey(texts []string) string {
	return strings.Join(texts, dobhasi.BatchSeparator)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
