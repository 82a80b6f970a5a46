package audio

import (
	"encoding/base64"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcm(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestResamplePCM16SameRateCopies(t *testing.T) {
	in := pcm(1, 2, 3)
	out, err := ResamplePCM16(in, 16000, 16000)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	// A copy, not the same backing array.
	out[0] = 99
	assert.NotEqual(t, in[0], out[0])
}

func TestResamplePCM16Downsample(t *testing.T) {
	in := pcm(0, 100, 200, 300, 400, 500, 600, 700)
	out, err := ResamplePCM16(in, 48000, 16000)
	require.NoError(t, err)
	assert.Len(t, out, 2*2) // 8 samples -> 2 samples at 1/3 rate
}

func TestResamplePCM16Upsample(t *testing.T) {
	in := pcm(0, 300)
	out, err := ResamplePCM16(in, 16000, 48000)
	require.NoError(t, err)
	require.Len(t, out, 6*2)
	// Interpolated values climb monotonically between the two samples.
	first := int16(binary.LittleEndian.Uint16(out[0:]))
	mid := int16(binary.LittleEndian.Uint16(out[4:]))
	assert.Equal(t, int16(0), first)
	assert.Greater(t, mid, first)
}

func TestResamplePCM16Errors(t *testing.T) {
	_, err := ResamplePCM16(pcm(1), 0, 16000)
	assert.Error(t, err)
	_, err = ResamplePCM16([]byte{1}, 16000, 48000)
	assert.Error(t, err)
}

func TestResamplePCM16Empty(t *testing.T) {
	out, err := ResamplePCM16(nil, 48000, 16000)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestChunkPCM16SplitsByDuration(t *testing.T) {
	// 1 second at 16 kHz, 250 ms chunks: 4 chunks of 4000 samples.
	in := make([]byte, 16000*2)
	chunks, err := ChunkPCM16(in, 16000, 250*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	decoded, err := base64.StdEncoding.DecodeString(chunks[0])
	require.NoError(t, err)
	assert.Len(t, decoded, 4000*2)
}

func TestChunkPCM16TrailingPartial(t *testing.T) {
	in := make([]byte, 4500*2)
	chunks, err := ChunkPCM16(in, 16000, 250*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	decoded, err := base64.StdEncoding.DecodeString(chunks[1])
	require.NoError(t, err)
	assert.Len(t, decoded, 500*2)
}

func TestChunkPCM16Errors(t *testing.T) {
	_, err := ChunkPCM16(pcm(1), 0, time.Second)
	assert.Error(t, err)
	_, err = ChunkPCM16([]byte{1}, 16000, time.Second)
	assert.Error(t, err)
}
