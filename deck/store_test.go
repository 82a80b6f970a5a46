package deck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersister struct {
	saved   [][]Session
	loaded  []Session
	loadErr error
	saveErr error
}

func (m *memPersister) SaveSessions(_ context.Context, sessions []Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, sessions)
	return nil
}

func (m *memPersister) LoadSessions(_ context.Context) ([]Session, error) {
	return m.loaded, m.loadErr
}

func TestStoreStartsWithDefaultSession(t *testing.T) {
	s := NewStore(nil)
	list := s.Sessions()
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, "Session 1", list[0].Name)
	assert.True(t, list[0].Active)
}

func TestStoreLoadFallsBackOnError(t *testing.T) {
	p := &memPersister{loadErr: errors.New("corrupt")}
	s := NewStore(p)
	require.NoError(t, s.Load(context.Background()))
	list := s.Sessions()
	require.Len(t, list, 1)
	assert.Equal(t, "Session 1", list[0].Name)
	assert.False(t, s.Unsaved())
}

func TestStoreCreateSessionAllocatesLowestUnusedID(t *testing.T) {
	s := NewStore(nil)
	info := s.CreateSession()
	assert.Equal(t, 2, info.ID)
	assert.Equal(t, "Session 2", info.Name)

	require.NoError(t, s.DeleteSession(1))
	info = s.CreateSession()
	assert.Equal(t, 1, info.ID)
	assert.Equal(t, "Session 1", info.Name)

	// New sessions prepend and become active.
	list := s.Sessions()
	assert.Equal(t, info.ID, list[0].ID)
	assert.True(t, list[0].Active)
}

func TestStoreDeleteLastSessionResetsToDefault(t *testing.T) {
	s := NewStore(nil)
	s.CommitTranscript("hello", "hello")
	require.NoError(t, s.DeleteSession(1))
	list := s.Sessions()
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ID)
	assert.Empty(t, s.History())
	assert.Empty(t, s.Transcript())
}

func TestStoreRenameSession(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.RenameSession(1, "Kickoff notes"))
	assert.Equal(t, "Kickoff notes", s.Sessions()[0].Name)
	assert.True(t, s.Unsaved())

	// A renamed session frees its "Session N" number.
	info := s.CreateSession()
	assert.Equal(t, "Session 1", info.Name)

	assert.ErrorIs(t, s.RenameSession(99, "x"), ErrNoSession)
}

func TestStoreDeleteUnknownSession(t *testing.T) {
	s := NewStore(nil)
	err := s.DeleteSession(42)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStoreSwitchFlushesWorkingCopy(t *testing.T) {
	s := NewStore(nil)
	s.CommitTranscript("first words", "first words")
	second := s.CreateSession()
	assert.Empty(t, s.Transcript())

	s.CommitTranscript("second words", "second words")
	require.NoError(t, s.SwitchSession(1))
	assert.Equal(t, "first words", s.Transcript())
	require.Len(t, s.History(), 1)

	require.NoError(t, s.SwitchSession(second.ID))
	assert.Equal(t, "second words", s.Transcript())
}

func TestStoreSwitchToActiveIsNoop(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.SwitchSession(1))
}

func TestStoreSavePersistsFlushedState(t *testing.T) {
	p := &memPersister{}
	s := NewStore(p)
	s.CommitTranscript("hello there", "hello there")
	require.True(t, s.Unsaved())

	require.NoError(t, s.Save(context.Background()))
	assert.False(t, s.Unsaved())
	assert.False(t, s.LastSavedAt().IsZero())
	require.Len(t, p.saved, 1)
	require.Len(t, p.saved[0], 1)
	assert.Equal(t, "hello there", p.saved[0][0].Transcript)
}

func TestStoreSaveFailureKeepsUnsaved(t *testing.T) {
	p := &memPersister{saveErr: errors.New("disk full")}
	s := NewStore(p)
	s.CommitTranscript("x", "x")
	err := s.Save(context.Background())
	require.Error(t, err)
	assert.True(t, s.Unsaved())
}

type gatedPersister struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPersister) SaveSessions(_ context.Context, _ []Session) error {
	g.entered <- struct{}{}
	<-g.release
	return nil
}

func (g *gatedPersister) LoadSessions(_ context.Context) ([]Session, error) {
	return nil, nil
}

func TestStoreSaveKeepsUnsavedForConcurrentMutation(t *testing.T) {
	p := &gatedPersister{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewStore(p)
	s.CommitTranscript("first", "first")

	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background()) }()
	<-p.entered

	// Lands after the snapshot was taken, so it is not in this write.
	s.CommitTranscript("second", "first second")
	close(p.release)

	require.NoError(t, <-done)
	assert.True(t, s.Unsaved())
}

func TestStoreCommitTranscriptReplacesAccumulated(t *testing.T) {
	s := NewStore(nil)
	s.CommitTranscript("hello", "hello")
	s.CommitTranscript("world", "hello world corrected")
	assert.Equal(t, "hello world corrected", s.Transcript())
	require.Len(t, s.History(), 2)
}

func TestStoreCommitTranscriptAppendsWithoutAccumulated(t *testing.T) {
	s := NewStore(nil)
	s.CommitTranscript("hello world", "hello world")
	s.CommitTranscript("and more", "")
	assert.Equal(t, "hello world and more", s.Transcript())
	require.Len(t, s.History(), 2)

	empty := NewStore(nil)
	empty.CommitTranscript("first", "")
	assert.Equal(t, "first", empty.Transcript())
}

func TestStoreCommitTranscriptSkipsBlankDelta(t *testing.T) {
	s := NewStore(nil)
	s.CommitTranscript("  ", "unchanged")
	assert.Empty(t, s.History())
	assert.Equal(t, "unchanged", s.Transcript())
}

func TestStoreApplyVisualizationCreatesItem(t *testing.T) {
	s := NewStore(nil)
	id, created := s.ApplyVisualization(VisualizationEvent{
		Payload: Payload{SVG: "<svg/>"},
		Mode:    ModeInitial,
	})
	assert.True(t, created)
	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].ID)
	assert.Equal(t, KindVisualization, history[0].Kind)
	require.Len(t, history[0].Versions, 1)
	assert.Equal(t, 0, history[0].CurrentVersion)
}

func TestStoreApplyVisualizationGroupsVersions(t *testing.T) {
	s := NewStore(nil)
	first, created := s.ApplyVisualization(VisualizationEvent{
		Payload:        Payload{SVG: "<svg>v1</svg>"},
		Mode:           ModeInitial,
		SessionGroupID: "grp-1",
	})
	require.True(t, created)

	second, created := s.ApplyVisualization(VisualizationEvent{
		Payload:        Payload{SVG: "<svg>v2</svg>"},
		Mode:           ModeEnhanced,
		SessionGroupID: "grp-1",
	})
	assert.False(t, created)
	assert.Equal(t, first, second)

	history := s.History()
	require.Len(t, history, 1)
	require.Len(t, history[0].Versions, 2)
	assert.Equal(t, 1, history[0].CurrentVersion)
	assert.Equal(t, "<svg>v2</svg>", history[0].Payload.SVG)
	assert.Equal(t, ModeEnhanced, history[0].Mode)
}

func TestStoreApplyVisualizationDistinctGroups(t *testing.T) {
	s := NewStore(nil)
	s.ApplyVisualization(VisualizationEvent{Mode: ModeInitial, SessionGroupID: "a"})
	s.ApplyVisualization(VisualizationEvent{Mode: ModeInitial, SessionGroupID: "b"})
	assert.Len(t, s.History(), 2)
}

func TestStoreAdvanceVersion(t *testing.T) {
	s := NewStore(nil)
	id, _ := s.ApplyVisualization(VisualizationEvent{
		Payload: Payload{SVG: "v1"}, Mode: ModeInitial, SessionGroupID: "g",
	})
	s.ApplyVisualization(VisualizationEvent{
		Payload: Payload{SVG: "v2"}, Mode: ModeEnhanced, SessionGroupID: "g",
	})

	// Newest is current; stepping newer is clamped.
	assert.False(t, s.AdvanceVersion(id, Newer))
	assert.True(t, s.AdvanceVersion(id, Older))

	history := s.History()
	assert.Equal(t, 0, history[0].CurrentVersion)
	assert.Equal(t, "v1", history[0].Payload.SVG)
	assert.Equal(t, ModeInitial, history[0].Mode)

	assert.False(t, s.AdvanceVersion(id, Older))
	assert.True(t, s.AdvanceVersion(id, Newer))
}

func TestStoreAdvanceVersionSingleVersionNoop(t *testing.T) {
	s := NewStore(nil)
	id, _ := s.ApplyVisualization(VisualizationEvent{Mode: ModeInitial})
	assert.False(t, s.AdvanceVersion(id, Older))
	assert.False(t, s.AdvanceVersion(id, Newer))
	assert.False(t, s.AdvanceVersion(999, Older))
}

func TestStoreGroupIndexSurvivesSwitch(t *testing.T) {
	s := NewStore(nil)
	s.ApplyVisualization(VisualizationEvent{Mode: ModeInitial, SessionGroupID: "g"})
	other := s.CreateSession()
	require.NoError(t, s.SwitchSession(1))

	// After switching back, the group still routes to the same item.
	_, created := s.ApplyVisualization(VisualizationEvent{Mode: ModeEnhanced, SessionGroupID: "g"})
	assert.False(t, created)
	require.NoError(t, s.SwitchSession(other.ID))
}

func TestStorePagesIncludeLiveWhileCapturing(t *testing.T) {
	s := NewStore(nil)
	s.SetCapturing(true)
	pages := s.Pages()
	require.Len(t, pages, 1)
	require.Len(t, pages[0].Items, 1)
	assert.Equal(t, "listening…", pages[0].Items[0].DisplayText)

	s.SetLive("partial words")
	pages = s.Pages()
	assert.Equal(t, "partial words", pages[0].Items[0].DisplayText)

	s.SetCapturing(false)
	pages = s.Pages()
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].Items)
}

func TestStoreLoadRestoresDocument(t *testing.T) {
	p := &memPersister{loaded: []Session{
		{ID: 3, Name: "Session 3", Transcript: "persisted", History: []HistoryItem{
			{ID: 5, Kind: KindVisualization, SessionGroupID: "g", Versions: []Version{{}}},
		}},
		{ID: 1, Name: "Session 1"},
	}}
	s := NewStore(p)
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, 3, s.ActiveID())
	assert.Equal(t, "persisted", s.Transcript())

	// Item ids continue past the loaded maximum.
	s.CommitTranscript("new", "persisted new")
	history := s.History()
	assert.Equal(t, 6, history[len(history)-1].ID)

	// Next created session takes the lowest gap.
	info := s.CreateSession()
	assert.Equal(t, 2, info.ID)
}
