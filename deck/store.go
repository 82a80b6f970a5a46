package deck

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/deckstream/deckstream/logger"
)

// Store errors.
var (
	ErrNoSession = errors.New("deck: no such session")
)

// Persister saves and loads the full session list as a single document.
// Implementations live under persistence/.
type Persister interface {
	SaveSessions(ctx context.Context, sessions []Session) error
	LoadSessions(ctx context.Context) ([]Session, error)
}

// SessionInfo is a lightweight listing of one session.
type SessionInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Items  int    `json:"items"`
}

// VisualizationEvent is the store-facing form of a generated visualization.
type VisualizationEvent struct {
	Payload         Payload
	Description     string
	SourceText      string
	DeltaText       string
	Mode            GenerationMode
	SessionGroupID  string
	SummarySnapshot string
}

// Store owns the session list and a mutable working copy of the active
// session. History and transcript edits apply to the working copy; the
// copy is flushed back into the session record before any save, switch,
// or session mutation.
type Store struct {
	mu        sync.Mutex
	persister Persister
	now       func() time.Time

	sessions []Session
	activeID int

	history    []HistoryItem
	transcript string
	live       string
	capturing  bool
	nextItemID int
	groups     map[string]int

	unsaved     bool
	gen         uint64
	saving      bool
	lastSavedAt time.Time
}

// markDirtyLocked records a mutation. The generation counter lets Save
// tell whether anything changed while a persister write was in flight.
func (s *Store) markDirtyLocked() {
	s.unsaved = true
	s.gen++
}

// NewStore builds a store over the given persister. The persister may be
// nil, in which case Save is a no-op and Load starts from a default
// session.
func NewStore(p Persister) *Store {
	s := &Store{
		persister: p,
		now:       time.Now,
	}
	s.resetToDefaultLocked()
	return s
}

// Load replaces the session list with the persisted document. A missing,
// empty, or unreadable document falls back to a single default session.
func (s *Store) Load(ctx context.Context) error {
	var (
		sessions []Session
		err      error
	)
	if s.persister != nil {
		sessions, err = s.persister.LoadSessions(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || len(sessions) == 0 {
		if err != nil {
			logger.Warn("session document unreadable, starting fresh", "error", err)
		}
		s.resetToDefaultLocked()
		return nil
	}
	s.sessions = sessions
	s.activeID = sessions[0].ID
	s.loadWorkingLocked(sessions[0])
	s.unsaved = false
	return nil
}

// Sessions lists every session, active first in creation order.
func (s *Store) Sessions() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		items := len(sess.History)
		if sess.ID == s.activeID {
			items = len(s.history)
		}
		out = append(out, SessionInfo{
			ID:     sess.ID,
			Name:   sess.Name,
			Active: sess.ID == s.activeID,
			Items:  items,
		})
	}
	return out
}

// ActiveID returns the id of the active session.
func (s *Store) ActiveID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// CreateSession flushes the working copy, creates a fresh session with the
// lowest unused positive id, prepends it to the list, and makes it active.
func (s *Store) CreateSession() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	id := lowestUnusedID(s.sessions)
	name := fmt.Sprintf("Session %d", lowestUnusedNameNumber(s.sessions))
	sess := Session{ID: id, Name: name}
	s.sessions = append([]Session{sess}, s.sessions...)
	s.activeID = id
	s.loadWorkingLocked(sess)
	s.markDirtyLocked()
	logger.Info("session created", "session_id", id, "name", name)
	return SessionInfo{ID: id, Name: name, Active: true}
}

// DeleteSession removes the session with the given id. Deleting the last
// session replaces it with a fresh default session so the list never
// becomes empty. Deleting the active session activates the first remaining
// one.
func (s *Store) DeleteSession(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrNoSession, id)
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if len(s.sessions) == 0 {
		s.resetToDefaultLocked()
		s.markDirtyLocked()
		logger.Info("last session deleted, reset to default")
		return nil
	}
	if id == s.activeID {
		s.activeID = s.sessions[0].ID
		s.loadWorkingLocked(s.sessions[0])
	}
	s.markDirtyLocked()
	logger.Info("session deleted", "session_id", id)
	return nil
}

// RenameSession changes a session's display name.
func (s *Store) RenameSession(id int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i].Name = name
			s.markDirtyLocked()
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", ErrNoSession, id)
}

// SwitchSession flushes the working copy back into its record and loads
// the target session. Switching to the already active session is a no-op.
func (s *Store) SwitchSession(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.activeID {
		return nil
	}
	var target *Session
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			target = &s.sessions[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: id %d", ErrNoSession, id)
	}
	s.flushLocked()
	s.activeID = id
	s.loadWorkingLocked(*target)
	logger.Info("session switched", "session_id", id)
	return nil
}

// Save flushes the working copy and writes the full session list through
// the persister. A save already in flight makes Save a no-op.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		logger.Debug("save already in progress, skipping")
		return nil
	}
	if s.persister == nil {
		s.flushLocked()
		s.unsaved = false
		s.mu.Unlock()
		return nil
	}
	s.saving = true
	s.flushLocked()
	snapshot := make([]Session, len(s.sessions))
	for i := range s.sessions {
		snapshot[i] = s.sessions[i].Clone()
	}
	gen := s.gen
	s.mu.Unlock()

	err := s.persister.SaveSessions(ctx, snapshot)

	s.mu.Lock()
	s.saving = false
	if err == nil {
		// A mutation that landed during the write is not in the snapshot;
		// it stays pending for the next save.
		if s.gen == gen {
			s.unsaved = false
		}
		s.lastSavedAt = s.now()
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

// Unsaved reports whether the working state has changed since the last
// successful save.
func (s *Store) Unsaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

// LastSavedAt returns the time of the last successful save, zero if none.
func (s *Store) LastSavedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSavedAt
}

// SetCapturing marks whether audio capture is active. While capturing, the
// deck renders a live page item even before any text arrives.
func (s *Store) SetCapturing(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capturing = on
	if !on {
		s.live = ""
	}
}

// SetLive replaces the in-progress transcript segment shown on the final
// page.
func (s *Store) SetLive(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = text
}

// CommitTranscript applies a finalized transcription: the accumulated
// text replaces the session transcript wholesale when present, otherwise
// the delta is appended to it. The delta becomes a committed text item
// and the live segment is cleared.
func (s *Store) CommitTranscript(delta, accumulated string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accumulated != "" {
		s.transcript = accumulated
	}
	s.live = ""
	if strings.TrimSpace(delta) == "" {
		return
	}
	if accumulated == "" {
		if s.transcript == "" {
			s.transcript = delta
		} else {
			s.transcript += " " + delta
		}
	}
	item := HistoryItem{
		ID:         s.nextItemID,
		Kind:       KindText,
		SourceText: delta,
		CreatedAt:  s.now(),
		Mode:       ModeText,
	}
	s.nextItemID++
	s.history = append(s.history, item)
	s.markDirtyLocked()
}

// Transcript returns the committed accumulated transcript.
func (s *Store) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// ApplyVisualization routes a generated visualization into history. An
// event whose session group id matches an existing item appends a new
// version to that item and makes it current; anything else becomes a new
// history item. It returns the affected item's id and whether a new item
// was created.
func (s *Store) ApplyVisualization(ev VisualizationEvent) (itemID int, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := Version{
		Payload:         ev.Payload,
		Description:     ev.Description,
		DeltaText:       ev.DeltaText,
		CreatedAt:       s.now(),
		Mode:            ev.Mode,
		SummarySnapshot: ev.SummarySnapshot,
	}
	if ev.SessionGroupID != "" {
		if idx, ok := s.groups[ev.SessionGroupID]; ok && idx < len(s.history) {
			appendVersion(&s.history[idx], v)
			s.history[idx].SourceText = ev.SourceText
			s.markDirtyLocked()
			logger.Debug("visualization version appended",
				"item_id", s.history[idx].ID,
				"session_group_id", ev.SessionGroupID,
				"versions", len(s.history[idx].Versions))
			return s.history[idx].ID, false
		}
	}
	item := HistoryItem{
		ID:             s.nextItemID,
		Kind:           KindVisualization,
		SessionGroupID: ev.SessionGroupID,
		SourceText:     ev.SourceText,
		CreatedAt:      v.CreatedAt,
	}
	s.nextItemID++
	appendVersion(&item, v)
	s.history = append(s.history, item)
	if ev.SessionGroupID != "" {
		s.groups[ev.SessionGroupID] = len(s.history) - 1
	}
	s.markDirtyLocked()
	logger.Debug("visualization item created",
		"item_id", item.ID, "mode", string(ev.Mode),
		"session_group_id", ev.SessionGroupID)
	return item.ID, true
}

// AdvanceVersion steps the identified item's current version one step
// older or newer, clamped to the log bounds. It reports whether the index
// moved.
func (s *Store) AdvanceVersion(itemID int, dir Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == itemID {
			if advanceVersion(&s.history[i], dir) {
				s.markDirtyLocked()
				return true
			}
			return false
		}
	}
	return false
}

// History returns a copy of the working history.
func (s *Store) History() []HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryItem, len(s.history))
	copy(out, s.history)
	return out
}

// Pages renders the working history into pages. While capturing, the live
// segment (or its placeholder) appears on the final page.
func (s *Store) Pages() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	var live *LiveText
	if s.capturing || s.live != "" {
		live = &LiveText{Text: s.live}
	}
	return BuildPages(s.history, live)
}

// ActiveSession returns a flushed deep copy of the active session.
func (s *Store) ActiveSession() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	for i := range s.sessions {
		if s.sessions[i].ID == s.activeID {
			return s.sessions[i].Clone()
		}
	}
	return Session{}
}

// flushLocked writes the working copy back into the active session's
// record.
func (s *Store) flushLocked() {
	for i := range s.sessions {
		if s.sessions[i].ID == s.activeID {
			s.sessions[i].History = make([]HistoryItem, len(s.history))
			copy(s.sessions[i].History, s.history)
			s.sessions[i].Transcript = s.transcript
			return
		}
	}
}

// loadWorkingLocked replaces the working copy with the given session's
// state and rebuilds the derived indexes.
func (s *Store) loadWorkingLocked(sess Session) {
	s.history = make([]HistoryItem, len(sess.History))
	copy(s.history, sess.History)
	s.transcript = sess.Transcript
	s.live = ""
	s.groups = make(map[string]int)
	s.nextItemID = 1
	for i := range s.history {
		if gid := s.history[i].SessionGroupID; gid != "" {
			s.groups[gid] = i
		}
		if s.history[i].ID >= s.nextItemID {
			s.nextItemID = s.history[i].ID + 1
		}
	}
}

// resetToDefaultLocked replaces the session list with a single default
// session and activates it.
func (s *Store) resetToDefaultLocked() {
	def := Session{ID: 1, Name: "Session 1"}
	s.sessions = []Session{def}
	s.activeID = def.ID
	s.loadWorkingLocked(def)
}

var sessionNamePattern = regexp.MustCompile(`^Session (\d+)$`)

// lowestUnusedID returns the smallest positive integer not used as a
// session id.
func lowestUnusedID(sessions []Session) int {
	used := make(map[int]bool, len(sessions))
	for _, s := range sessions {
		used[s.ID] = true
	}
	for i := 1; ; i++ {
		if !used[i] {
			return i
		}
	}
}

// lowestUnusedNameNumber returns the smallest positive integer not taken
// by an existing "Session N" name.
func lowestUnusedNameNumber(sessions []Session) int {
	used := make(map[int]bool, len(sessions))
	for _, s := range sessions {
		if m := sessionNamePattern.FindStringSubmatch(s.Name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				used[n] = true
			}
		}
	}
	for i := 1; ; i++ {
		if !used[i] {
			return i
		}
	}
}
