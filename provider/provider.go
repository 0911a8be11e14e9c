// Package provider implements the translation backends behind the gateway:
// chat-completion models (OpenAI, Gemini), a hosted translate function and a
// mock for tests.
package provider

import "github.com/ZaguanLabs/dobhasi"

// AIProvider is the interface for AI translation backends.
// This is an alias to the main package interface for convenience.
type AIProvider = dobhasi.AIProvider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = dobhasi.TranslateRequest
