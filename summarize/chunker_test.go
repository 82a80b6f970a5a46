package summarize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", 0, 0))
	assert.Nil(t, Chunk("   \n\t", 0, 0))
}

func TestChunkShortTextIsSingleSegment(t *testing.T) {
	segments := Chunk("Hello there. How are you?", 0, 0)
	require.Len(t, segments, 1)
	assert.Equal(t, "Hello there. How are you?", segments[0])
}

func TestChunkRespectsSentenceBoundaries(t *testing.T) {
	first := strings.Repeat("a", 200) + "."
	second := strings.Repeat("b", 200) + "."
	segments := Chunk(first+" "+second, 320, 40)
	require.Len(t, segments, 2)
	assert.Equal(t, first, segments[0])
	assert.Equal(t, second, segments[1])
}

func TestChunkHardSplitsOversizedSentence(t *testing.T) {
	long := strings.Repeat("x", 700)
	segments := Chunk(long, 320, 40)
	require.Len(t, segments, 3)
	assert.Len(t, segments[0], 320)
	assert.Len(t, segments[1], 320)
	assert.Len(t, segments[2], 60)
}

func TestChunkKeepsTrailingSegments(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString(strings.Repeat("s", 300))
		sb.WriteString(". ")
	}
	segments := Chunk(sb.String(), 320, 40)
	assert.Len(t, segments, 40)
}

func TestChunkCountsRunesNotBytes(t *testing.T) {
	// 400 two-byte runes must split at 320 runes, not 320 bytes.
	long := strings.Repeat("é", 400)
	segments := Chunk(long, 320, 40)
	require.Len(t, segments, 2)
	assert.Equal(t, 320, len([]rune(segments[0])))
	assert.Equal(t, 80, len([]rune(segments[1])))
}
