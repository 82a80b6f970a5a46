// Package audio prepares captured microphone audio for the backend:
// resampling PCM16 to the backend's expected rate and slicing it into
// base64-encoded chunks sized for audio_chunk frames.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// Standard sample rates.
const (
	SampleRate16kHz = 16000 // backend STT input rate
	SampleRate24kHz = 24000
	SampleRate48kHz = 48000 // common capture-device rate
)

const bytesPerSample = 2

// ResamplePCM16 resamples little-endian 16-bit signed PCM from one sample
// rate to another using linear interpolation.
func ResamplePCM16(input []byte, fromRate, toRate int) ([]byte, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: from=%d, to=%d", fromRate, toRate)
	}
	if len(input)%bytesPerSample != 0 {
		return nil, fmt.Errorf("input length %d is not a multiple of %d", len(input), bytesPerSample)
	}
	if fromRate == toRate {
		out := make([]byte, len(input))
		copy(out, input)
		return out, nil
	}

	numIn := len(input) / bytesPerSample
	numOut := int(float64(numIn) * float64(toRate) / float64(fromRate))
	if numIn == 0 || numOut == 0 {
		return []byte{}, nil
	}

	samples := make([]int16, numIn)
	for i := 0; i < numIn; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(input[i*bytesPerSample:])) //nolint:gosec // PCM16 round-trip
	}

	out := make([]byte, numOut*bytesPerSample)
	ratio := float64(fromRate) / float64(toRate)
	for i := 0; i < numOut; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		var sample int16
		if idx+1 < numIn {
			a, b := float64(samples[idx]), float64(samples[idx+1])
			sample = int16(a + (b-a)*frac)
		} else {
			sample = samples[numIn-1]
		}
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(sample)) //nolint:gosec // PCM16 round-trip
	}
	return out, nil
}

// ChunkDuration is the default amount of audio carried per frame.
const ChunkDuration = 250 * time.Millisecond

// ChunkPCM16 slices PCM16 audio into base64-encoded chunks each holding at
// most chunkDur of audio at the given sample rate. A trailing partial
// chunk is kept.
func ChunkPCM16(input []byte, sampleRate int, chunkDur time.Duration) ([]string, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if len(input)%bytesPerSample != 0 {
		return nil, fmt.Errorf("input length %d is not a multiple of %d", len(input), bytesPerSample)
	}
	if chunkDur <= 0 {
		chunkDur = ChunkDuration
	}

	samplesPerChunk := int(float64(sampleRate) * chunkDur.Seconds())
	if samplesPerChunk < 1 {
		samplesPerChunk = 1
	}
	chunkBytes := samplesPerChunk * bytesPerSample

	var chunks []string
	for start := 0; start < len(input); start += chunkBytes {
		end := start + chunkBytes
		if end > len(input) {
			end = len(input)
		}
		chunks = append(chunks, base64.StdEncoding.EncodeToString(input[start:end]))
	}
	return chunks, nil
}
