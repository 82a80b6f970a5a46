// Package wire defines the JSON frame formats exchanged over the duplex
// channel with the backend. Every frame is a single JSON object tagged by
// "type"; unknown tags and malformed payloads are tolerated by the decoder
// so one bad frame never takes down the channel.
package wire

import "encoding/json"

// MessageType tags a frame on the duplex channel.
type MessageType string

// Client → server frame types.
const (
	TypeStartRecording MessageType = "start_recording"
	TypeStopRecording  MessageType = "stop_recording"
	TypeAudioChunk     MessageType = "audio_chunk"
)

// Server → client frame types.
const (
	TypeTranscriptionPartial MessageType = "transcription_partial"
	TypeTranscriptionFinal   MessageType = "transcription_final"
	TypeSVGGenerated         MessageType = "svg_generated"
	TypeChartGenerated       MessageType = "chart_generated"
	TypeStatus               MessageType = "status"
	TypeError                MessageType = "error"
)

// Frame is the envelope for every message on the duplex channel.
type Frame struct {
	Type  MessageType     `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// AudioChunk carries base64-encoded audio from the client.
type AudioChunk struct {
	Data string `json:"data"`
}

// Transcription is the payload of transcription_partial and
// transcription_final frames.
type Transcription struct {
	Text            string `json:"text"`
	AccumulatedText string `json:"accumulated_text,omitempty"`
	IsFinal         bool   `json:"is_final,omitempty"`
}

// SVGGenerated is the payload of svg_generated frames.
type SVGGenerated struct {
	SVG                 string  `json:"svg"`
	Description         string  `json:"description,omitempty"`
	OriginalText        string  `json:"original_text,omitempty"`
	NewTextDelta        string  `json:"new_text_delta,omitempty"`
	GenerationMode      string  `json:"generation_mode,omitempty"`
	SessionGroupID      string  `json:"session_group_id,omitempty"`
	SimilarityScore     float64 `json:"similarity_score,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
	Error               string  `json:"error,omitempty"`
}

// ChartGenerated is the payload of chart_generated frames. Image is a
// base64-encoded PNG and Code is the generator source that produced it.
type ChartGenerated struct {
	Image           string  `json:"image"`
	Code            string  `json:"code,omitempty"`
	Description     string  `json:"description,omitempty"`
	OriginalText    string  `json:"original_text,omitempty"`
	NewTextDelta    string  `json:"new_text_delta,omitempty"`
	SessionGroupID  string  `json:"session_group_id,omitempty"`
	ChartConfidence float64 `json:"chart_confidence,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// Status is the payload of status frames.
type Status struct {
	Status              string `json:"status"`
	VisualizationActive bool   `json:"visualization_active,omitempty"`
	NewSession          bool   `json:"new_session,omitempty"`
}

// Status values reported by the backend.
const (
	StatusRecordingStarted = "recording_started"
	StatusRecordingStopped = "recording_stopped"
)
