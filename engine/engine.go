// Package engine coordinates the deckstream runtime: it owns the active
// session state, applies backend events in arrival order, and drives
// capture, persistence, and summarization.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/deckstream/deckstream/audio"
	"github.com/deckstream/deckstream/deck"
	"github.com/deckstream/deckstream/events"
	"github.com/deckstream/deckstream/logger"
	"github.com/deckstream/deckstream/summarize"
	"github.com/deckstream/deckstream/version"
	"github.com/deckstream/deckstream/wire"
)

const taskQueueSize = 256

// Transport is the slice of the connection manager the engine drives.
type Transport interface {
	Connect(ctx context.Context) error
	StartRecording() error
	StopRecording() error
	SendAudioChunk(b64 string) error
	Close()
}

// Banner is a dismissible notice raised by a failed generation or a
// backend error.
type Banner struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Engine applies backend events to the session store through a single
// worker goroutine, so every mutation lands in the order the events
// arrived. Run must be active before the transport connects.
type Engine struct {
	bus       *events.Bus
	transport Transport
	store     *deck.Store
	sched     *summarize.Scheduler

	tasks chan func()

	mu        sync.Mutex
	capturing bool
	banners   []Banner
	summary   events.SummaryData
}

// New wires an engine to the bus, transport, store, and scheduler.
func New(bus *events.Bus, transport Transport, store *deck.Store, sched *summarize.Scheduler) *Engine {
	e := &Engine{
		bus:       bus,
		transport: transport,
		store:     store,
		sched:     sched,
		tasks:     make(chan func(), taskQueueSize),
	}
	bus.Subscribe(events.EventTranscriptPartial, e.onTranscript)
	bus.Subscribe(events.EventTranscriptFinal, e.onTranscript)
	bus.Subscribe(events.EventVisualizationReady, e.onVisualization)
	bus.Subscribe(events.EventBackendStatus, e.onStatus)
	bus.Subscribe(events.EventBackendError, e.onError)
	bus.Subscribe(events.EventSummaryUpdated, e.onSummary)
	return e
}

// Run processes queued work until the context is canceled. It opens the
// transport once the worker is draining the queue.
func (e *Engine) Run(ctx context.Context) error {
	logger.Info("engine starting", version.GetBuildInfo()...)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case fn := <-e.tasks:
				fn()
			}
		}
	})
	g.Go(func() error {
		// A failed initial dial is not fatal: the transport keeps
		// reconnecting on its own.
		if err := e.transport.Connect(ctx); err != nil {
			logger.Warn("initial connect failed", "error", err)
		}
		return nil
	})
	err := g.Wait()
	e.sched.Close()
	e.transport.Close()
	return err
}

// enqueue hands a mutation to the worker goroutine.
func (e *Engine) enqueue(fn func()) {
	e.tasks <- fn
}

func (e *Engine) onTranscript(ev *events.Event) {
	data, ok := ev.Data.(events.TranscriptData)
	if !ok {
		return
	}
	e.enqueue(func() {
		capturing := e.isCapturing()
		if data.Final {
			e.store.CommitTranscript(data.Text, data.AccumulatedText)
			e.sched.Observe(e.store.Transcript(), capturing)
			return
		}
		e.store.SetLive(data.Text)
		observed := data.AccumulatedText
		if observed == "" {
			observed = e.store.Transcript()
		}
		e.sched.Observe(observed, capturing)
	})
}

func (e *Engine) onVisualization(ev *events.Event) {
	data, ok := ev.Data.(events.VisualizationData)
	if !ok {
		return
	}
	e.enqueue(func() {
		switch data.Kind {
		case events.KindSVG:
			e.applySVG(data.SVG)
		case events.KindChart:
			e.applyChart(data.Chart)
		}
	})
}

func (e *Engine) applySVG(msg *wire.SVGGenerated) {
	if msg == nil {
		return
	}
	if msg.Error != "" {
		e.raiseBanner("visualization failed: " + msg.Error)
		return
	}
	summary, _ := e.sched.Summary()
	e.store.ApplyVisualization(deck.VisualizationEvent{
		Payload:         deck.Payload{SVG: msg.SVG},
		Description:     msg.Description,
		SourceText:      msg.OriginalText,
		DeltaText:       msg.NewTextDelta,
		Mode:            deck.GenerationMode(msg.GenerationMode),
		SessionGroupID:  msg.SessionGroupID,
		SummarySnapshot: summary,
	})
}

func (e *Engine) applyChart(msg *wire.ChartGenerated) {
	if msg == nil {
		return
	}
	if msg.Error != "" {
		e.raiseBanner("chart generation failed: " + msg.Error)
		return
	}
	summary, _ := e.sched.Summary()
	e.store.ApplyVisualization(deck.VisualizationEvent{
		Payload:         deck.Payload{ChartImage: msg.Image, ChartCode: msg.Code},
		Description:     msg.Description,
		SourceText:      msg.OriginalText,
		DeltaText:       msg.NewTextDelta,
		Mode:            deck.ModeChart,
		SessionGroupID:  msg.SessionGroupID,
		SummarySnapshot: summary,
	})
}

func (e *Engine) onStatus(ev *events.Event) {
	data, ok := ev.Data.(events.StatusData)
	if !ok {
		return
	}
	e.enqueue(func() {
		switch data.Status.Status {
		case wire.StatusRecordingStarted:
			e.setCapturing(true)
			e.store.SetCapturing(true)
			logger.Info("capture started")
		case wire.StatusRecordingStopped:
			e.setCapturing(false)
			e.store.SetCapturing(false)
			e.sched.Observe(e.store.Transcript(), false)
			logger.Info("capture stopped")
			if e.store.Unsaved() {
				go e.save()
			}
		}
	})
}

func (e *Engine) onError(ev *events.Event) {
	data, ok := ev.Data.(events.ErrorData)
	if !ok {
		return
	}
	e.enqueue(func() {
		e.raiseBanner(data.Message)
	})
}

func (e *Engine) onSummary(ev *events.Event) {
	data, ok := ev.Data.(events.SummaryData)
	if !ok {
		return
	}
	e.mu.Lock()
	e.summary = data
	e.mu.Unlock()
}

func (e *Engine) save() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.store.Save(ctx); err != nil {
		logger.Error("auto-save failed", "error", err)
		e.raiseBanner("session save failed: " + err.Error())
		return
	}
	e.bus.Publish(&events.Event{
		Type: events.EventSessionSaved,
		Data: events.SessionData{SessionID: e.store.ActiveID()},
	})
}

func (e *Engine) raiseBanner(message string) {
	if message == "" {
		return
	}
	b := Banner{
		ID:      uuid.NewString(),
		Message: message,
		At:      time.Now(),
	}
	e.mu.Lock()
	e.banners = append(e.banners, b)
	e.mu.Unlock()
	logger.Warn("banner raised", "banner", b.ID, "message", message)
}

func (e *Engine) isCapturing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capturing
}

func (e *Engine) setCapturing(on bool) {
	e.mu.Lock()
	e.capturing = on
	e.mu.Unlock()
}

// StartCapture asks the backend to begin streaming transcription. The
// capture state flips when the backend acknowledges with a status frame.
func (e *Engine) StartCapture() error {
	return e.transport.StartRecording()
}

// StopCapture asks the backend to stop streaming transcription.
func (e *Engine) StopCapture() error {
	return e.transport.StopRecording()
}

// SendAudio forwards a base64-encoded audio chunk to the backend.
func (e *Engine) SendAudio(b64 string) error {
	return e.transport.SendAudioChunk(b64)
}

// SendPCM resamples raw PCM16 audio to the backend rate and streams it as
// audio_chunk frames.
func (e *Engine) SendPCM(pcm []byte, sampleRate int) error {
	resampled, err := audio.ResamplePCM16(pcm, sampleRate, audio.SampleRate16kHz)
	if err != nil {
		return err
	}
	chunks, err := audio.ChunkPCM16(resampled, audio.SampleRate16kHz, audio.ChunkDuration)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := e.transport.SendAudioChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Capturing reports whether the backend has acknowledged capture.
func (e *Engine) Capturing() bool {
	return e.isCapturing()
}

// Pages renders the active session into pages.
func (e *Engine) Pages() []deck.Page {
	return e.store.Pages()
}

// Sessions lists all sessions.
func (e *Engine) Sessions() []deck.SessionInfo {
	return e.store.Sessions()
}

// Transcript returns the active session's committed transcript.
func (e *Engine) Transcript() string {
	return e.store.Transcript()
}

// Summary returns the latest summary state seen on the bus.
func (e *Engine) Summary() events.SummaryData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

// NewSession creates and activates a fresh session.
func (e *Engine) NewSession() deck.SessionInfo {
	info := e.store.CreateSession()
	e.sched.Reset()
	e.bus.Publish(&events.Event{
		Type: events.EventSessionSwitched,
		Data: events.SessionData{SessionID: info.ID},
	})
	return info
}

// DeleteSession removes a session. If the active session changes as a
// result, the summarizer forgets its history.
func (e *Engine) DeleteSession(id int) error {
	before := e.store.ActiveID()
	if err := e.store.DeleteSession(id); err != nil {
		return err
	}
	if after := e.store.ActiveID(); after != before {
		e.sched.Reset()
		e.bus.Publish(&events.Event{
			Type: events.EventSessionSwitched,
			Data: events.SessionData{SessionID: after},
		})
	}
	return nil
}

// RenameSession changes a session's display name.
func (e *Engine) RenameSession(id int, name string) error {
	return e.store.RenameSession(id, name)
}

// SwitchSession activates another session.
func (e *Engine) SwitchSession(id int) error {
	if id == e.store.ActiveID() {
		return nil
	}
	if err := e.store.SwitchSession(id); err != nil {
		return err
	}
	e.sched.Reset()
	e.bus.Publish(&events.Event{
		Type: events.EventSessionSwitched,
		Data: events.SessionData{SessionID: id},
	})
	return nil
}

// SaveSession persists the session list.
func (e *Engine) SaveSession(ctx context.Context) error {
	if err := e.store.Save(ctx); err != nil {
		return err
	}
	e.bus.Publish(&events.Event{
		Type: events.EventSessionSaved,
		Data: events.SessionData{SessionID: e.store.ActiveID()},
	})
	return nil
}

// AdvanceVersion steps a visualization's current version older or newer.
func (e *Engine) AdvanceVersion(itemID int, dir deck.Direction) bool {
	return e.store.AdvanceVersion(itemID, dir)
}

// Banners returns the active banners, oldest first.
func (e *Engine) Banners() []Banner {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Banner, len(e.banners))
	copy(out, e.banners)
	return out
}

// DismissBanner removes a banner by id.
func (e *Engine) DismissBanner(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.banners {
		if e.banners[i].ID == id {
			e.banners = append(e.banners[:i], e.banners[i+1:]...)
			return true
		}
	}
	return false
}
