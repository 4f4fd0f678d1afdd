package domain

// MediaID identifies a media item. IDs come from the backend catalog; items
// that arrive without one get a synthesized identity at recording time.
type MediaID string

// MediaItem is a catalog item as the UI hands it to us: an optional backend
// identity, a display title and an opaque bag of display metadata (thumbnail,
// views, channel name, ...) that is preserved but never interpreted.
type MediaItem struct {
	ID    MediaID        `json:"id,omitempty"`
	Title string         `json:"title"`
	Link  string         `json:"link,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

const untitledTitle = "Untitled"

// DisplayTitle returns the item title, or a placeholder when missing.
func (m MediaItem) DisplayTitle() string {
	if m.Title == "" {
		return untitledTitle
	}
	return m.Title
}
