package deck

// Direction selects which way version navigation moves through an item's
// version log.
type Direction int

// Navigation directions.
const (
	Older Direction = -1
	Newer Direction = 1
)

// advanceVersion moves the item's current version index one step in the
// given direction, clamped to the log bounds. It returns false when the
// item has fewer than two versions or the index is already at the boundary,
// leaving the item untouched.
func advanceVersion(item *HistoryItem, dir Direction) bool {
	if item == nil || len(item.Versions) < 2 {
		return false
	}
	next := item.CurrentVersion + int(dir)
	if next < 0 || next >= len(item.Versions) {
		return false
	}
	item.CurrentVersion = next
	applyVersion(item, item.Versions[next])
	return true
}

// applyVersion overwrites the item's display-facing fields from a version
// snapshot.
func applyVersion(item *HistoryItem, v Version) {
	item.Payload = v.Payload
	item.Description = v.Description
	item.DeltaText = v.DeltaText
	item.Mode = v.Mode
	item.SummarySnapshot = v.SummarySnapshot
}

// appendVersion appends a version to the item's log and makes it current.
func appendVersion(item *HistoryItem, v Version) {
	item.Versions = append(item.Versions, v)
	item.CurrentVersion = len(item.Versions) - 1
	applyVersion(item, v)
}
