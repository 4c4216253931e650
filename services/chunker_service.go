package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minChunkChars is the noise floor: fragments at or below this trimmed
// length are dropped rather than embedded.
const minChunkChars = 50

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// TextChunker splits document text into overlapping segments sized for the
// embedding model. It is a pure function over the input string; it never
// blocks and performs no I/O.
type TextChunker struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewTextChunker creates a chunker. ChunkOverlap must be smaller than
// ChunkSize; that is validated at config load, not here.
func NewTextChunker(chunkSize, chunkOverlap int) *TextChunker {
	return &TextChunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}
}

// ChunkText splits text into ordered, overlapping chunks. Each window is at
// most ChunkSize characters; when a sentence terminator or paragraph break
// falls in the second half of the window the chunk ends there instead of at
// a hard cut. Trimmed fragments of minChunkChars or fewer are discarded.
// The cursor advances at least one character per iteration, so the loop
// terminates for any input.
func (t *TextChunker) ChunkText(text string) []string {
	if len(text) == 0 {
		return []string{}
	}

	chunks := []string{}
	start := 0

	for start < len(text) {
		end := start + t.ChunkSize

		// Try to break at a sentence or paragraph boundary.
		if end < len(text) {
			sentenceEnd := strings.LastIndex(text[:end+1], ".")
			paragraphEnd := lastIndexWithin(text, "\n\n", end)
			breakPoint := max(sentenceEnd, paragraphEnd)

			// Only snap to the boundary if it keeps the chunk above half
			// the target size.
			if float64(breakPoint) > float64(start)+float64(t.ChunkSize)*0.5 {
				end = breakPoint + 1
			}
		}

		// A hard cut can land inside a multi-byte rune; retract to the rune
		// start so no chunk carries invalid UTF-8.
		cut := runeFloor(text, min(end, len(text)))
		chunk := strings.TrimSpace(text[start:cut])
		if len(chunk) > minChunkChars {
			chunks = append(chunks, chunk)
		}

		if end < start+t.ChunkSize {
			// Early break: resume from the break point minus overlap, but
			// never move the cursor backwards or leave it in place.
			start = max(start+1, end-t.ChunkOverlap)
		} else {
			start = start + t.ChunkSize - t.ChunkOverlap
		}
		// Advancing forward keeps the strict-progress guarantee; the overlap
		// window still covers the skipped continuation bytes.
		for start < len(text) && !utf8.RuneStart(text[start]) {
			start++
		}
	}

	return chunks
}

// ChunkByParagraphs is a simpler alternative strategy: split on blank-line
// boundaries and keep only substantial paragraphs.
func (t *TextChunker) ChunkByParagraphs(text string) []string {
	chunks := []string{}
	for _, part := range paragraphSplit.Split(text, -1) {
		trimmed := strings.TrimSpace(part)
		if len(trimmed) > minChunkChars {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

// runeFloor returns the largest index <= i that starts a rune in text.
func runeFloor(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// lastIndexWithin returns the largest index i <= limit where sub starts,
// or -1 if there is none.
func lastIndexWithin(text, sub string, limit int) int {
	searchEnd := limit + len(sub)
	if searchEnd > len(text) {
		searchEnd = len(text)
	}
	return strings.LastIndex(text[:searchEnd], sub)
}
