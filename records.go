package dobhasi

import (
	"context"
	"strings"
)

// BatchTranslator translates a batch of strings. Translator implements it.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, texts []string, override ...Language) []string
}

// fieldRef points at one translatable field value.
type fieldRef struct {
	item  int
	field string
}

// TranslateRecords translates the named fields of database-sourced records in
// a single batch. Every non-blank string value of those fields across all
// records is sent together; the results are written into shallow clones of the
// records. Other keys, and fields that are missing, nil, empty or not strings,
// are left untouched. The input records are not modified.
func TranslateRecords(ctx context.Context, bt BatchTranslator, items []map[string]any, fields []string, override ...Language) []map[string]any {
	out := make([]map[string]any, len(items))
	var refs []fieldRef
	var texts []string

	for i, item := range items {
		if item == nil {
			continue
		}

		clone := make(map[string]any, len(item))
		for k, v := range item {
			clone[k] = v
		}
		out[i] = clone

		for _, field := range fields {
			s, ok := item[field].(string)
			if !ok || strings.TrimSpace(s) == "" {
				continue
			}
			refs = append(refs, fieldRef{item: i, field: field})
			texts = append(texts, s)
		}
	}

	if len(texts) == 0 {
		return out
	}

	translated := bt.TranslateBatch(ctx, texts, override...)
	if len(translated) != len(texts) {
		return out
	}

	for j, ref := range refs {
		out[ref.item][ref.field] = translated[j]
	}

	return out
}
