package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ZaguanLabs/dobhasi"
)

// SystemPrompt returns the fixed instructions sent with every batch. The
// model must answer with a JSON array only.
func SystemPrompt(req TranslateRequest) string {
	target := req.TargetLang.Name()

	source := "the source language (detect it)"
	if req.SourceLang != "" {
		source = req.SourceLang.Name()
	}

	return fmt.Sprintf(`You are a professional translator for a school website.
Translate each string in the JSON array from %s to %s.

Rules:
- Keep the meaning, tone and formatting of every string.
- Keep line breaks, Markdown, HTML tags, URLs, email addresses, numbers and placeholders such as {name}, {{count}} or %%s exactly as they are.
- Keep proper names of people, places and the school unless they have a common %s form.
- If a string is already in %s, return it unchanged.

Return ONLY a JSON array of strings with exactly one translation per input, in the same order.
Do not add explanations and do not wrap the array in Markdown code blocks.`, source, target, target, target)
}

// UserMessage encodes the texts as a JSON array.
func UserMessage(texts []string) string {
	data, _ := json.Marshal(texts)
	return string(data)
}

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParseTranslations extracts the translation array from a model reply. Code
// fences and surrounding prose are tolerated; a {"translations": [...]}
// object is accepted too. Any other shape, or a different count, is a
// malformed response.
func ParseTranslations(content string, expected int) ([]string, error) {
	content = strings.TrimSpace(content)

	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	var wrapped struct {
		Translations []string `json:"translations"`
	}
	if strings.HasPrefix(content, "{") {
		if err := json.Unmarshal([]byte(content), &wrapped); err == nil && wrapped.Translations != nil {
			return checkCount(wrapped.Translations, expected)
		}
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, &dobhasi.ProviderError{
			Kind:    dobhasi.KindMalformed,
			Message: fmt.Sprintf("no JSON array in response: %s", truncate(content, 200)),
		}
	}

	var raw []any
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, &dobhasi.ProviderError{
			Kind:    dobhasi.KindMalformed,
			Message: "response is not a JSON array",
			Cause:   err,
		}
	}

	translations := make([]string, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, &dobhasi.ProviderError{
				Kind:    dobhasi.KindMalformed,
				Message: fmt.Sprintf("element %d is %T, not a string", i, v),
			}
		}
		translations[i] = s
	}

	return checkCount(translations, expected)
}

func checkCount(translations []string, expected int) ([]string, error) {
	if len(translations) != expected {
		return nil, &dobhasi.CountMismatchError{
			Expected: expected,
			Got:      len(translations),
		}
	}
	return translations, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
