package dobhasi

import "time"

// Language is a UI language code. Only English and Bengali are supported.
type Language string

const (
	// English is the authored language of all page content.
	English Language = "en"
	// Bengali is the translation target.
	Bengali Language = "bn"
)

const (
	// CacheTTL is how long a translated string stays valid.
	CacheTTL = 24 * time.Hour

	// MinRequestInterval is the minimum spacing between provider calls.
	MinRequestInterval = time.Second

	// DefaultCallTimeout bounds a single provider call. The rate limit wait comes first and is not counted.
	DefaultCallTimeout = 30 * time.Second

	// CacheStorageKey is the versioned storage key of the persisted cache blob.
	CacheStorageKey = "translation_cache_v2"

	// LanguageStorageKey is the storage key of the persisted language preference.
	LanguageStorageKey = "app_language"

	// BatchSeparator joins source texts inside a batch key.
	BatchSeparator = "|||"
)

// TranslateRequest contains the parameters for a translation request.
type TranslateRequest struct {
	Texts      []string
	TargetLang Language
	SourceLang Language // Empty when the source language should be detected
}

// GatewayStats is a snapshot of gateway counters.
type GatewayStats struct {
	CacheHits     int64 // Texts served from cache
	CacheMisses   int64 // Unique texts that needed the provider
	ProviderCalls int64 // Calls issued to the provider
	SharedWaits   int64 // Callers that joined a provider call started by another caller
	Failures      int64 // Provider calls that fell back to original text
}

// IgnoredTags contains HTML tags whose content should not be translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
}
