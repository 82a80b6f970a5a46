package prometheus

import (
	"github.com/deckstream/deckstream/events"
)

// MetricsListener records deckstream events as Prometheus metrics. It is
// designed to be registered with events.Bus.SubscribeAll.
type MetricsListener struct{}

// NewMetricsListener creates a new MetricsListener.
func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

// Handle processes an event and records relevant metrics.
func (l *MetricsListener) Handle(event *events.Event) {
	switch event.Type {
	case events.EventConnectionStateChanged:
		if data, ok := event.Data.(events.ConnectionStateData); ok {
			RecordConnectionState(data.From, data.To)
		}
	case events.EventTranscriptPartial:
		RecordTranscription(false)
	case events.EventTranscriptFinal:
		RecordTranscription(true)
	case events.EventVisualizationReady:
		if data, ok := event.Data.(events.VisualizationData); ok {
			RecordVisualization(string(data.Kind))
		}
	case events.EventBackendError:
		RecordBackendError()
	case events.EventSummaryUpdated:
		l.handleSummaryUpdated(event)
	case events.EventSessionSaved:
		RecordSessionSaved()
	default:
		// Events without metrics are ignored.
	}
}

func (l *MetricsListener) handleSummaryUpdated(event *events.Event) {
	data, ok := event.Data.(events.SummaryData)
	if !ok {
		return
	}
	switch data.Status {
	case "ready":
		RecordSummaryResult("ready", float64(data.ElapsedMS)/1000)
	case "error":
		RecordSummaryResult("error", 0)
	}
}
