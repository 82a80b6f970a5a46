package events

import (
	"time"

	"github.com/deckstream/deckstream/wire"
)

// EventType identifies the type of event published on the bus.
type EventType string

const (
	// EventConnectionStateChanged marks a connection state transition.
	EventConnectionStateChanged EventType = "connection.state_changed"

	// EventTranscriptPartial marks an interim transcription segment.
	EventTranscriptPartial EventType = "transcript.partial"
	// EventTranscriptFinal marks a finalized transcription segment.
	EventTranscriptFinal EventType = "transcript.final"

	// EventVisualizationReady marks a completed SVG or chart generation.
	EventVisualizationReady EventType = "visualization.ready"

	// EventBackendStatus marks a status report from the backend.
	EventBackendStatus EventType = "backend.status"
	// EventBackendError marks an error reported by the backend.
	EventBackendError EventType = "backend.error"

	// EventSummaryUpdated marks a change to the live summary.
	EventSummaryUpdated EventType = "summary.updated"

	// EventSessionSaved marks a successful persistence write.
	EventSessionSaved EventType = "session.saved"
	// EventSessionSwitched marks the active session changing.
	EventSessionSwitched EventType = "session.switched"
)

// EventData is a marker interface for event payloads.
type EventData interface {
	eventData()
}

// Event is one published occurrence delivered to listeners.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      EventData
}

// baseEventData provides the shared marker implementation.
type baseEventData struct{}

func (baseEventData) eventData() {}

// ConnectionStateData carries the old and new connection states.
type ConnectionStateData struct {
	baseEventData
	From string
	To   string
}

// TranscriptData carries a transcription segment.
type TranscriptData struct {
	baseEventData
	Text            string
	AccumulatedText string
	Final           bool
}

// VisualizationKind distinguishes SVG and chart payloads.
type VisualizationKind string

// Visualization kinds.
const (
	KindSVG   VisualizationKind = "svg"
	KindChart VisualizationKind = "chart"
)

// VisualizationData carries a generated visualization.
type VisualizationData struct {
	baseEventData
	Kind  VisualizationKind
	SVG   *wire.SVGGenerated
	Chart *wire.ChartGenerated
}

// StatusData carries a backend status report.
type StatusData struct {
	baseEventData
	Status wire.Status
}

// ErrorData carries a backend or local error message.
type ErrorData struct {
	baseEventData
	Message string
}

// SummaryData carries the live summary state and its request id. Summary
// holds the last successful text even while Status reports an error.
type SummaryData struct {
	baseEventData
	RequestID    uint64
	Status       string
	Summary      string
	Err          string
	Provider     string
	Model        string
	FallbackUsed bool
	ElapsedMS    int64
}

// SessionData carries a session identifier for save/switch events.
type SessionData struct {
	baseEventData
	SessionID int
}
