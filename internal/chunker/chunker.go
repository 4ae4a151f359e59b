// Package chunker splits cleaned document text into overlapping,
// sentence-aligned passages for embedding and retrieval.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target chunk length in runes.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the number of trailing runes carried from one
	// chunk into the next to preserve context across boundaries.
	DefaultChunkOverlap = 100
)

// Chunk is a single passage produced from a source document.
// Chunks are immutable once created; (Source, Index) identifies a chunk
// and forms its storage key in the vector index.
type Chunk struct {
	Text      string
	Source    string
	Index     int
	CharCount int
}

// Splitter splits text into overlapping sentence-aligned chunks.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSplitter creates a Splitter. Non-positive arguments fall back to the defaults.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonASCIIRe   = regexp.MustCompile(`[^\x00-\x7F]+`)
	ellipsisRe   = regexp.MustCompile(`\.{3,}`)
)

// Clean normalizes raw document text before chunking: collapses whitespace
// runs to a single space, strips non-ASCII bytes, and normalizes ellipsis
// sequences.
func Clean(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = nonASCIIRe.ReplaceAllString(text, " ")
	text = ellipsisRe.ReplaceAllString(text, "…")
	return strings.TrimSpace(text)
}

// Split splits cleaned text into chunks for the given source.
//
// Sentences are accumulated into a buffer; when the next sentence would push
// the buffer past chunkSize the buffer is flushed as a chunk and the trailing
// chunkOverlap runes of the flushed text seed the next buffer. A sentence is
// never cut in half, so a chunk may exceed chunkSize by at most the length of
// the sentence that triggered the flush. Chunk indexes are contiguous from 0.
func (s *Splitter) Split(text, source string) []Chunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	var current []string
	currLen := 0

	flush := func() string {
		chunkText := strings.TrimSpace(strings.Join(current, " "))
		if chunkText != "" {
			chunks = append(chunks, Chunk{
				Text:      chunkText,
				Source:    source,
				Index:     len(chunks),
				CharCount: utf8.RuneCountInString(chunkText),
			})
		}
		return chunkText
	}

	for _, sentence := range sentences {
		sLen := utf8.RuneCountInString(sentence)
		if currLen+sLen > s.chunkSize && len(current) > 0 {
			chunkText := flush()

			// Carry the trailing overlap runes into the next chunk.
			overlap := tailRunes(chunkText, s.chunkOverlap)
			current = []string{overlap}
			currLen = utf8.RuneCountInString(overlap)
		}
		current = append(current, sentence)
		currLen += sLen + 1
	}

	if len(current) > 0 {
		flush()
	}

	return chunks
}

// splitSentences splits text at `.`, `!` or `?` followed by whitespace.
// The terminating punctuation stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) {
			break
		}
		next := runes[i+1]
		if next != ' ' && next != '\t' && next != '\n' && next != '\r' {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

// tailRunes returns the trailing n runes of text.
func tailRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
