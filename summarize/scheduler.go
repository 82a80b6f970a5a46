package summarize

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/deckstream/deckstream/events"
	"github.com/deckstream/deckstream/logger"
)

// Status is the scheduler's externally visible state.
type Status string

// Scheduler statuses.
const (
	StatusIdle     Status = "idle"
	StatusUpdating Status = "updating"
	StatusReady    Status = "ready"
	StatusError    Status = "error"
)

// Scheduling defaults.
const (
	defaultDebounceCapturing = 1100 * time.Millisecond
	defaultDebounceIdle      = 300 * time.Millisecond
	defaultMinGrowthChars    = 40
)

// SchedulerConfig tunes the debounced summarization scheduler.
type SchedulerConfig struct {
	// DebounceCapturing is the quiet period required while audio capture
	// is active.
	DebounceCapturing time.Duration
	// DebounceIdle is the quiet period used once capture has stopped.
	DebounceIdle time.Duration
	// MinGrowthChars is the transcript growth required during capture
	// before another request is considered.
	MinGrowthChars int
	// MaxSegmentChars and MaxSegments bound the chunker output.
	MaxSegmentChars int
	MaxSegments     int
}

func (c *SchedulerConfig) defaults() {
	if c.DebounceCapturing <= 0 {
		c.DebounceCapturing = defaultDebounceCapturing
	}
	if c.DebounceIdle <= 0 {
		c.DebounceIdle = defaultDebounceIdle
	}
	if c.MinGrowthChars <= 0 {
		c.MinGrowthChars = defaultMinGrowthChars
	}
	if c.MaxSegmentChars <= 0 {
		c.MaxSegmentChars = DefaultMaxSegmentChars
	}
	if c.MaxSegments <= 0 {
		c.MaxSegments = DefaultMaxSegments
	}
}

// Scheduler debounces transcript changes into summarization requests and
// publishes the evolving summary state on the event bus. Requests carry
// monotonically increasing ids; a response that is no longer the newest
// in-flight request is discarded, so a slow early reply can never
// overwrite a later one. The last successful summary text survives
// failures.
type Scheduler struct {
	svc Service
	bus *events.Bus
	cfg SchedulerConfig

	mu         sync.Mutex
	timer      *time.Timer
	pending    []string
	pendingKey string
	pendingLen int
	lastKey    string
	lastLen    int
	latestID   uint64
	status     Status
	summary    string
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler that sends requests through svc and
// publishes summary updates on bus.
func NewScheduler(svc Service, bus *events.Bus, cfg SchedulerConfig) *Scheduler {
	cfg.defaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		svc:    svc,
		bus:    bus,
		cfg:    cfg,
		status: StatusIdle,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Observe feeds the current transcript into the scheduler. Each call
// restarts the debounce window; a request fires only after the transcript
// stays quiet for the window. Observations whose chunked segments match
// the last completed request, or that grew less than the minimum while
// capturing, are dropped.
func (s *Scheduler) Observe(transcript string, capturing bool) {
	segments := Chunk(transcript, s.cfg.MaxSegmentChars, s.cfg.MaxSegments)
	if len(segments) == 0 {
		return
	}
	key := strings.Join(segments, "\x1f")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if key == s.lastKey {
		logger.Debug("summary unchanged, skipping")
		return
	}
	// Growth counts characters, not bytes, matching the chunker.
	growth := utf8.RuneCountInString(transcript) - s.lastLen
	if capturing && growth < s.cfg.MinGrowthChars {
		logger.Debug("transcript growth below threshold", "growth", growth)
		return
	}

	s.pending = segments
	s.pendingKey = key
	s.pendingLen = utf8.RuneCountInString(transcript)

	delay := s.cfg.DebounceIdle
	if capturing {
		delay = s.cfg.DebounceCapturing
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, s.fire)
}

// fire dispatches the pending request once the debounce window elapses.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed || len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	segments := s.pending
	key := s.pendingKey
	tlen := s.pendingLen
	s.pending = nil
	s.latestID++
	id := s.latestID
	s.status = StatusUpdating
	summary := s.summary
	s.mu.Unlock()

	s.publish(events.SummaryData{
		RequestID: id,
		Status:    string(StatusUpdating),
		Summary:   summary,
	})
	go s.run(id, segments, key, tlen)
}

func (s *Scheduler) run(id uint64, segments []string, key string, tlen int) {
	resp, err := s.svc.Summarize(s.ctx, segments)

	s.mu.Lock()
	if s.closed || id != s.latestID {
		s.mu.Unlock()
		logger.Debug("stale summary response discarded", "request_id", id)
		return
	}
	data := events.SummaryData{RequestID: id}
	if err != nil {
		s.status = StatusError
		data.Status = string(StatusError)
		data.Err = err.Error()
		data.Summary = s.summary
		s.mu.Unlock()
		logger.Warn("summarization failed", "request_id", id, "error", err)
		s.publish(data)
		return
	}
	s.summary = resp.Summary
	s.status = StatusReady
	s.lastKey = key
	s.lastLen = tlen
	data.Status = string(StatusReady)
	data.Summary = resp.Summary
	data.Provider = resp.Provider
	data.Model = resp.Model
	data.FallbackUsed = resp.FallbackUsed
	data.ElapsedMS = resp.ElapsedMS
	s.mu.Unlock()

	logger.Debug("summary updated",
		"request_id", id,
		"provider", resp.Provider,
		"elapsed_ms", resp.ElapsedMS)
	s.publish(data)
}

func (s *Scheduler) publish(data events.SummaryData) {
	if s.bus != nil {
		s.bus.Publish(&events.Event{
			Type: events.EventSummaryUpdated,
			Data: data,
		})
	}
}

// Summary returns the last successful summary text and the current status.
func (s *Scheduler) Summary() (string, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, s.status
}

// Reset clears the scheduler's memory of past requests, so the next
// observation is judged fresh. Used when the active session changes.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.lastKey = ""
	s.lastLen = 0
	s.latestID++
	s.summary = ""
	s.status = StatusIdle
}

// Close stops the debounce timer and cancels any in-flight request.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.cancel()
}
