// Package deck holds the domain model for a live slide deck: sessions,
// their committed history items, the append-only version log of each
// visualization, and the paging engine that folds a session's history into
// renderable pages.
package deck

import "time"

// GenerationMode classifies how a visualization event relates to the
// context that preceded it.
type GenerationMode string

// Generation modes.
const (
	ModeInitial  GenerationMode = "initial"
	ModeEnhanced GenerationMode = "enhanced"
	ModeNewTopic GenerationMode = "new_topic"
	ModeChart    GenerationMode = "chart"
	ModeText     GenerationMode = "text"
)

// ItemKind distinguishes committed text from visualizations.
type ItemKind string

// Item kinds.
const (
	KindText          ItemKind = "text"
	KindVisualization ItemKind = "visualization"
)

// Payload is the renderable content of one visualization version: either
// SVG markup or a raster chart image plus the generator code that produced it.
type Payload struct {
	SVG        string `json:"svg,omitempty"`
	ChartImage string `json:"chart_image,omitempty"`
	ChartCode  string `json:"chart_code,omitempty"`
}

// IsZero reports whether the payload carries no content.
func (p Payload) IsZero() bool {
	return p.SVG == "" && p.ChartImage == "" && p.ChartCode == ""
}

// Version is one immutable regeneration of a visualization's content.
// Versions are only ever appended to their owning item's log.
type Version struct {
	Payload         Payload        `json:"payload"`
	Description     string         `json:"description,omitempty"`
	DeltaText       string         `json:"delta_text"`
	CreatedAt       time.Time      `json:"created_at"`
	Mode            GenerationMode `json:"generation_mode"`
	SummarySnapshot string         `json:"summary_snapshot,omitempty"`
}

// HistoryItem is one committed unit of captured text or a visualization.
// The display-facing fields (Payload, Description, DeltaText, Mode) mirror
// the version at CurrentVersion; version navigation overwrites them from
// the target version's snapshot.
type HistoryItem struct {
	ID              int            `json:"id"`
	Kind            ItemKind       `json:"kind"`
	SessionGroupID  string         `json:"session_group_id,omitempty"`
	SourceText      string         `json:"source_text"`
	DeltaText       string         `json:"delta_text"`
	CreatedAt       time.Time      `json:"created_at"`
	Mode            GenerationMode `json:"generation_mode"`
	Payload         Payload        `json:"payload,omitempty"`
	Description     string         `json:"description,omitempty"`
	Versions        []Version      `json:"versions,omitempty"`
	CurrentVersion  int            `json:"current_version_index"`
	SummarySnapshot string         `json:"summary_snapshot,omitempty"`
}

// VersionCount returns the number of versions in the item's log.
func (h *HistoryItem) VersionCount() int {
	return len(h.Versions)
}

// Session is one independent transcript plus event history.
type Session struct {
	ID         int           `json:"id"`
	Name       string        `json:"name"`
	History    []HistoryItem `json:"history"`
	Transcript string        `json:"transcript"`
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	out.History = make([]HistoryItem, len(s.History))
	copy(out.History, s.History)
	for i := range out.History {
		if n := len(s.History[i].Versions); n > 0 {
			out.History[i].Versions = make([]Version, n)
			copy(out.History[i].Versions, s.History[i].Versions)
		}
	}
	return out
}
