package provider

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ZaguanLabs/dobhasi"
)

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt(TranslateRequest{
		TargetLang: dobhasi.Bengali,
		SourceLang: dobhasi.English,
	})

	if !strings.Contains(prompt, "from English to Bengali (Bangla)") {
		t.Error("Prompt should name source and target languages")
	}
	if !strings.Contains(prompt, "Return ONLY a JSON array") {
		t.Error("Prompt should demand a bare JSON array")
	}
	if !strings.Contains(prompt, "%s") {
		t.Error("Prompt should list printf placeholders literally")
	}
}

func TestSystemPrompt_DetectSource(t *testing.T) {
	prompt := SystemPrompt(TranslateRequest{TargetLang: dobhasi.English})

	if !strings.Contains(prompt, "detect it") {
		t.Error("Prompt should ask to detect the source language when none is given")
	}
}

func TestUserMessage(t *testing.T) {
	msg := UserMessage([]string{"Hello", `say "hi"`})

	if msg != `["Hello","say \"hi\""]` {
		t.Errorf("Expected JSON array, got: %s", msg)
	}
}

func TestParseTranslations(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
		want     []string
	}{
		{"bare array", `["হ্যালো","বাতিল"]`, 2, []string{"হ্যালো", "বাতিল"}},
		{"json fence", "```json\n[\"হ্যালো\"]\n```", 1, []string{"হ্যালো"}},
		{"plain fence", "```\n[\"হ্যালো\"]\n```", 1, []string{"হ্যালো"}},
		{"surrounding prose", "Here you go:\n[\"হ্যালো\"]\nDone.", 1, []string{"হ্যালো"}},
		{"object", `{"translations": ["হ্যালো"]}`, 1, []string{"হ্যালো"}},
		{"bracket inside string", `["[ok]"]`, 1, []string{"[ok]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTranslations(tt.content, tt.expected)
			if err != nil {
				t.Fatalf("ParseTranslations failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseTranslations_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"prose", "I cannot translate that."},
		{"broken json", `["a", `},
		{"numbers", `[1, 2]`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTranslations(tt.content, 2)
			if err == nil {
				t.Fatal("Expected error")
			}
			if dobhasi.KindOf(err) != dobhasi.KindMalformed {
				t.Errorf("KindOf() = %v, want malformed", dobhasi.KindOf(err))
			}
		})
	}
}

func TestParseTranslations_CountMismatch(t *testing.T) {
	_, err := ParseTranslations(`["a"]`, 2)

	var mismatch *dobhasi.CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected CountMismatchError, got %v", err)
	}
	if mismatch.Expected != 2 || mismatch.Got != 1 {
		t.Errorf("unexpected mismatch %+v", mismatch)
	}
	if dobhasi.KindOf(err) != dobhasi.KindMalformed {
		t.Error("count mismatch should be a malformed response")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Home", 10, "Home"},
		{"ascii", "Notice Board", 6, "Notice..."},
		// "হোম" is three 3-byte runes; byte 4 is inside the second rune.
		{"bengali mid-rune", "হোম", 4, "হ..."},
		{"bengali boundary", "হোম", 6, "হো..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
			}
		})
	}
}

func TestParseTranslations_MalformedBengaliStaysValidUTF8(t *testing.T) {
	_, err := ParseTranslations(strings.Repeat("অনুবাদ", 100), 1)
	if err == nil {
		t.Fatal("Expected error for a reply without a JSON array")
	}
	if !utf8.ValidString(err.Error()) {
		t.Errorf("Error message is not valid UTF-8: %q", err.Error())
	}
}
