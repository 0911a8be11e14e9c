// Package processor translates structured content, such as rich-text notice
// bodies stored as HTML fragments, through a dobhasi.BatchTranslator.
package processor

// TextNode represents a translatable text segment extracted from content.
type TextNode struct {
	Text      string // Trimmed text sent for translation
	Hash      string // SHA-256 of Text, used to apply translations back
	ParentTag string // Enclosing element name, for diagnostics
}
