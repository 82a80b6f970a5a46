package deck

// Placeholder display text used when an item carries no usable text of
// its own.
const (
	placeholderText          = "note captured"
	placeholderVisualization = "visualization generated"
	placeholderListening     = "listening…"
)

// PageItem is one renderable entry on a page.
type PageItem struct {
	ItemID      int            `json:"item_id"`
	Kind        ItemKind       `json:"kind"`
	Live        bool           `json:"live,omitempty"`
	DisplayText string         `json:"display_text"`
	Mode        GenerationMode `json:"generation_mode,omitempty"`
	Payload     Payload        `json:"payload,omitempty"`
	Description string         `json:"description,omitempty"`
	Versions    int            `json:"versions,omitempty"`
	Version     int            `json:"version_index,omitempty"`
}

// Page is one slide of the rendered deck.
type Page struct {
	Items []PageItem `json:"items"`
}

// LiveText is the in-progress transcript segment that has not yet been
// committed to history. It always renders on the final page.
type LiveText struct {
	Text string
}

// BuildPages folds a session's history plus the optional live segment into
// pages. A visualization generated for a new topic closes the page that
// precedes it: any text buffered before it is flushed onto the previous
// page (or becomes the first page), and the visualization opens a page of
// its own. Every other visualization shares a page with the text that led
// up to it, text first. Trailing text, including the live segment, forms
// the final page. The result always contains at least one page.
func BuildPages(history []HistoryItem, live *LiveText) []Page {
	var pages []Page
	var buf []PageItem

	flushToPrevious := func() {
		if len(buf) == 0 {
			return
		}
		if n := len(pages); n > 0 {
			pages[n-1].Items = append(pages[n-1].Items, buf...)
		} else {
			pages = append(pages, Page{Items: buf})
		}
		buf = nil
	}

	for i := range history {
		item := &history[i]
		if item.Kind != KindVisualization {
			buf = append(buf, textPageItem(item))
			continue
		}
		vis := visualizationPageItem(item)
		if item.Mode == ModeNewTopic {
			flushToPrevious()
			pages = append(pages, Page{Items: []PageItem{vis}})
			continue
		}
		items := make([]PageItem, 0, len(buf)+1)
		items = append(items, buf...)
		items = append(items, vis)
		pages = append(pages, Page{Items: items})
		buf = nil
	}

	if live != nil {
		buf = append(buf, livePageItem(live))
	}
	if len(buf) > 0 {
		pages = append(pages, Page{Items: buf})
	}
	if len(pages) == 0 {
		pages = []Page{{}}
	}
	return pages
}

func textPageItem(item *HistoryItem) PageItem {
	text := item.SourceText
	if text == "" {
		text = placeholderText
	}
	return PageItem{
		ItemID:      item.ID,
		Kind:        KindText,
		DisplayText: text,
		Mode:        item.Mode,
	}
}

func visualizationPageItem(item *HistoryItem) PageItem {
	text := item.DeltaText
	if text == "" {
		text = item.SourceText
	}
	if text == "" {
		text = placeholderVisualization
	}
	return PageItem{
		ItemID:      item.ID,
		Kind:        KindVisualization,
		DisplayText: text,
		Mode:        item.Mode,
		Payload:     item.Payload,
		Description: item.Description,
		Versions:    len(item.Versions),
		Version:     item.CurrentVersion,
	}
}

func livePageItem(live *LiveText) PageItem {
	text := live.Text
	if text == "" {
		text = placeholderListening
	}
	return PageItem{
		Kind:        KindText,
		Live:        true,
		DisplayText: text,
	}
}
