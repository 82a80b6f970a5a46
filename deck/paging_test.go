package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textItem(id int, text string) HistoryItem {
	return HistoryItem{ID: id, Kind: KindText, SourceText: text, Mode: ModeText}
}

func visItem(id int, mode GenerationMode, delta string) HistoryItem {
	return HistoryItem{
		ID:        id,
		Kind:      KindVisualization,
		Mode:      mode,
		DeltaText: delta,
		Payload:   Payload{SVG: "<svg/>"},
		Versions:  []Version{{Mode: mode, DeltaText: delta}},
	}
}

func TestBuildPagesEmptyHistory(t *testing.T) {
	pages := BuildPages(nil, nil)
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].Items)
}

func TestBuildPagesTextSharesPageWithVisualization(t *testing.T) {
	history := []HistoryItem{
		textItem(1, "alpha"),
		visItem(2, ModeInitial, "alpha drawn"),
	}
	pages := BuildPages(history, nil)
	require.Len(t, pages, 1)
	require.Len(t, pages[0].Items, 2)
	assert.Equal(t, KindText, pages[0].Items[0].Kind)
	assert.Equal(t, KindVisualization, pages[0].Items[1].Kind)
}

func TestBuildPagesNewTopicFlushesToPreviousPage(t *testing.T) {
	history := []HistoryItem{
		visItem(1, ModeInitial, "first"),
		textItem(2, "bridge"),
		visItem(3, ModeNewTopic, "second"),
	}
	pages := BuildPages(history, nil)
	require.Len(t, pages, 2)

	require.Len(t, pages[0].Items, 2)
	assert.Equal(t, 1, pages[0].Items[0].ItemID)
	assert.Equal(t, "bridge", pages[0].Items[1].DisplayText)

	require.Len(t, pages[1].Items, 1)
	assert.Equal(t, 3, pages[1].Items[0].ItemID)
}

func TestBuildPagesNewTopicFirstOwnsLeadingText(t *testing.T) {
	// No previous page exists, so the buffered text becomes page one.
	history := []HistoryItem{
		textItem(1, "intro"),
		visItem(2, ModeNewTopic, "topic"),
	}
	pages := BuildPages(history, nil)
	require.Len(t, pages, 2)
	assert.Equal(t, "intro", pages[0].Items[0].DisplayText)
	assert.Equal(t, 2, pages[1].Items[0].ItemID)
}

func TestBuildPagesTrailingTextIsFinalPage(t *testing.T) {
	history := []HistoryItem{
		visItem(1, ModeInitial, "one"),
		textItem(2, "tail"),
	}
	pages := BuildPages(history, nil)
	require.Len(t, pages, 2)
	assert.Equal(t, "tail", pages[1].Items[0].DisplayText)
}

func TestBuildPagesLiveSegmentOnFinalPage(t *testing.T) {
	history := []HistoryItem{visItem(1, ModeInitial, "one")}
	pages := BuildPages(history, &LiveText{Text: "speaking now"})
	require.Len(t, pages, 2)
	require.Len(t, pages[1].Items, 1)
	assert.True(t, pages[1].Items[0].Live)
	assert.Equal(t, "speaking now", pages[1].Items[0].DisplayText)
}

func TestBuildPagesPlaceholders(t *testing.T) {
	history := []HistoryItem{
		{ID: 1, Kind: KindText},
		{ID: 2, Kind: KindVisualization, Mode: ModeInitial},
	}
	pages := BuildPages(history, &LiveText{})
	require.Len(t, pages, 2)
	assert.Equal(t, "note captured", pages[0].Items[0].DisplayText)
	assert.Equal(t, "visualization generated", pages[0].Items[1].DisplayText)
	assert.Equal(t, "listening…", pages[1].Items[0].DisplayText)
}

func TestBuildPagesConsecutiveNewTopics(t *testing.T) {
	history := []HistoryItem{
		visItem(1, ModeNewTopic, "a"),
		visItem(2, ModeNewTopic, "b"),
	}
	pages := BuildPages(history, nil)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Items[0].ItemID)
	assert.Equal(t, 2, pages[1].Items[0].ItemID)
}

func TestBuildPagesChartSharesPage(t *testing.T) {
	history := []HistoryItem{
		textItem(1, "numbers"),
		{
			ID: 2, Kind: KindVisualization, Mode: ModeChart,
			Payload:  Payload{ChartImage: "base64", ChartCode: "plot()"},
			Versions: []Version{{Mode: ModeChart}},
		},
	}
	pages := BuildPages(history, nil)
	require.Len(t, pages, 1)
	assert.Equal(t, "base64", pages[0].Items[1].Payload.ChartImage)
}
