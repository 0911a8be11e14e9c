package adapter

import (
	"context"
	"sync"

	"github.com/ZaguanLabs/dobhasi"
)

// Records keeps the named fields of database records (notices, holidays,
// faculty bios) translated into the active language, all fields of all
// records in one batch.
type Records struct {
	b *binding[[]map[string]any]

	mu     sync.RWMutex
	items  []map[string]any
	fields []string
}

// NewRecords binds items to src. onChange, if not nil, receives every
// committed set of records. The input records are never modified.
func NewRecords(src Source, items []map[string]any, fields []string, onChange func([]map[string]any), opts ...Option) *Records {
	r := &Records{items: items, fields: cloneStrings(fields)}
	r.b = &binding[[]map[string]any]{
		src:      src,
		onChange: onChange,
		immediate: func(lang dobhasi.Language) ([]map[string]any, bool) {
			items, _ := r.source()
			if lang == dobhasi.English || len(items) == 0 {
				return items, true
			}
			return nil, false
		},
		pending: func() []map[string]any {
			items, _ := r.source()
			return items
		},
		fetch: func(ctx context.Context, lang dobhasi.Language) []map[string]any {
			items, fields := r.source()
			return dobhasi.TranslateRecords(ctx, src, items, fields, explicit(lang, opts)...)
		},
	}
	r.b.start(opts)
	return r
}

func (r *Records) source() ([]map[string]any, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items, r.fields
}

// SetItems replaces the records and fields and re-translates.
func (r *Records) SetItems(items []map[string]any, fields []string) {
	r.mu.Lock()
	r.items = items
	r.fields = cloneStrings(fields)
	r.mu.Unlock()

	r.b.refresh()
}

// Values returns the records to display and the binding state. While
// Pending these are the untranslated records.
func (r *Records) Values() ([]map[string]any, State) {
	return r.b.get()
}

// Wait blocks until no translation started by this binding is in flight.
func (r *Records) Wait() {
	r.b.wait()
}

// Close stops the binding. A late result is discarded.
func (r *Records) Close() {
	r.b.close()
}
