package dobhasi

import (
	"strings"

	"golang.org/x/text/language"
)

// SupportedLanguages lists the languages the site can be displayed in.
var SupportedLanguages = []Language{English, Bengali}

// LanguageNames maps language codes to human-readable names for AI prompts.
var LanguageNames = map[Language]string{
	English: "English",
	Bengali: "Bengali (Bangla)",
}

// LanguageLocales maps language codes to the locale used in HTML lang attributes.
var LanguageLocales = map[Language]string{
	English: "en_US",
	Bengali: "bn_BD",
}

// ParseLanguage normalizes a language tag ("bn", "BN", "bn_BD", "bn-BD") to
// its base language. The second return value is false for unsupported languages.
func ParseLanguage(code string) (Language, bool) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", false
	}

	base, _ := tag.Base()
	lang := Language(base.String())
	if !lang.Valid() {
		return "", false
	}
	return lang, true
}

// LanguageOrDefault parses code and falls back to English when it is absent or invalid.
func LanguageOrDefault(code string) Language {
	if lang, ok := ParseLanguage(code); ok {
		return lang
	}
	return English
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == English || l == Bengali
}

// String returns the two-letter code.
func (l Language) String() string {
	return string(l)
}

// Name returns the human-readable name, falling back to the code.
func (l Language) Name() string {
	if name, ok := LanguageNames[l]; ok {
		return name
	}
	return string(l)
}

// Locale returns the full locale code (e.g., "bn_BD").
func (l Language) Locale() string {
	if locale, ok := LanguageLocales[l]; ok {
		return locale
	}
	return string(l)
}

// HTMLLang converts the locale to HTML lang attribute format (e.g., "bn-BD").
func (l Language) HTMLLang() string {
	return strings.ReplaceAll(l.Locale(), "_", "-")
}
