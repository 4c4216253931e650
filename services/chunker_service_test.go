package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestChunkText_ProducesMultipleChunks(t *testing.T) {
	chunker := NewTextChunker(100, 20)
	text := strings.Repeat("A", 250)

	chunks := chunker.ChunkText(text)

	require.Greater(t, len(chunks), 1)
	require.LessOrEqual(t, len(chunks[0]), 100)
}

func TestChunkText_EmptyInput(t *testing.T) {
	chunker := NewTextChunker(100, 20)
	require.Empty(t, chunker.ChunkText(""))
}

func TestChunkText_DropsNoiseFragments(t *testing.T) {
	chunker := NewTextChunker(100, 20)

	// 40 trimmed characters is below the noise floor.
	require.Empty(t, chunker.ChunkText(strings.Repeat("x", 40)))

	chunks := chunker.ChunkText(strings.Repeat("word ", 100))
	for _, chunk := range chunks {
		require.Greater(t, len(strings.TrimSpace(chunk)), minChunkChars)
	}
}

func TestChunkText_SnapsToSentenceBoundary(t *testing.T) {
	chunker := NewTextChunker(100, 20)
	text := strings.Repeat("a", 70) + ". " + strings.Repeat("b", 200)

	chunks := chunker.ChunkText(text)

	require.NotEmpty(t, chunks)
	// The period sits past the window midpoint, so the first chunk ends on it.
	require.Equal(t, strings.Repeat("a", 70)+".", chunks[0])
}

func TestChunkText_IgnoresEarlyBoundary(t *testing.T) {
	chunker := NewTextChunker(100, 20)
	// The only period is in the first half of the window, so a hard cut at
	// 100 characters wins.
	text := strings.Repeat("a", 30) + ". " + strings.Repeat("b", 200)

	chunks := chunker.ChunkText(text)

	require.NotEmpty(t, chunks)
	require.Len(t, chunks[0], 100)
}

func TestChunkText_SnapsToParagraphBreak(t *testing.T) {
	chunker := NewTextChunker(100, 20)
	para := strings.Repeat("a", 70)
	text := para + "\n\n" + strings.Repeat("b", 200)

	chunks := chunker.ChunkText(text)

	require.NotEmpty(t, chunks)
	require.Equal(t, para, chunks[0])
}

func TestChunkText_CoversWholeDocumentInOrder(t *testing.T) {
	chunker := NewTextChunker(80, 10)
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("This is sentence number one of the test corpus. ")
	}
	text := sb.String()

	chunks := chunker.ChunkText(text)
	require.NotEmpty(t, chunks)

	// Chunks appear in left-to-right document order: each chunk's start
	// offset is strictly after the previous one's.
	prev := -1
	cursor := 0
	for _, chunk := range chunks {
		idx := strings.Index(text[cursor:], chunk)
		require.GreaterOrEqual(t, idx, 0, "chunk must be a substring of the source after the previous chunk's start")
		start := cursor + idx
		require.Greater(t, start, prev)
		prev = start
		cursor = start + 1
	}
}

func TestChunkText_TerminatesOnPathologicalInput(t *testing.T) {
	// Dense sentence terminators used to be able to stall a naive overlap
	// cursor; the early-break rule must still make forward progress.
	chunker := NewTextChunker(60, 50)
	text := strings.Repeat("Sixty one characters of text padded out to length here x. ", 40)

	chunks := chunker.ChunkText(text)
	require.NotEmpty(t, chunks)
}

func TestChunkText_KeepsChunksValidUTF8(t *testing.T) {
	// Two-byte runes with no sentence or paragraph boundaries force hard
	// cuts, and an odd chunk size puts those cuts mid-rune.
	chunker := NewTextChunker(101, 20)
	text := strings.Repeat("é", 200)

	chunks := chunker.ChunkText(text)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.True(t, utf8.ValidString(chunk), "chunk contains invalid UTF-8: %q", chunk)
	}
}

func TestChunkByParagraphs(t *testing.T) {
	chunker := NewTextChunker(800, 100)
	long1 := strings.Repeat("first paragraph ", 5)
	long2 := strings.Repeat("second paragraph ", 5)
	text := long1 + "\n\n" + "short" + "\n \n" + long2

	chunks := chunker.ChunkByParagraphs(text)

	require.Len(t, chunks, 2)
	require.Equal(t, strings.TrimSpace(long1), chunks[0])
	require.Equal(t, strings.TrimSpace(long2), chunks[1])
}
