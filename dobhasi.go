// Package dobhasi provides on-demand English/Bengali translation for the school
// website with a persisted TTL cache, batch deduplication and rate limiting.
//
// Dobhasi sits between page code that wants a string in the visitor's language
// and an AI translation backend (OpenAI, Gemini or a hosted translate function).
// Cache misses of one batch are merged into a single provider call; identical
// in-flight batches share that call; calls are spaced by a minimum interval.
// Translation is best effort: every path resolves to a slice of the same length
// and order as the input, falling back to the original text.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/dobhasi"
//	    "github.com/ZaguanLabs/dobhasi/cache"
//	    "github.com/ZaguanLabs/dobhasi/provider"
//	)
//
//	func main() {
//	    ctx := context.Background()
//
//	    p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    c := cache.NewTranslationCache(cache.NewFileStore("/var/lib/dobhasi"))
//	    c.Load(ctx)
//
//	    gw := dobhasi.NewGateway(p, dobhasi.WithCache(c))
//	    tr := dobhasi.NewTranslator(gw)
//	    defer tr.Close()
//
//	    tr.SetLanguage(ctx, dobhasi.Bengali)
//	    fmt.Println(tr.TranslateBatch(ctx, []string{"Home", "About"})) // [হোম সম্পর্কে]
//	}
package dobhasi
