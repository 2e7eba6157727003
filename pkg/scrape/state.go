package scrape

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/remotehunt/jobscope/internal/utils"
)

// Status of the scrape state machine.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrRunInProgress rejects operations that are illegal while a run is
// active, such as Reset.
var ErrRunInProgress = errors.New("a scrape run is in progress")

// RunnerFunc performs a full scrape, reporting progress through emit. It
// must emit a Complete event on success. A returned error (or a panic)
// marks the run failed, and a terminal Error event is appended on its
// behalf.
type RunnerFunc func(ctx context.Context, run Run, emit func(Event)) error

// Run identifies one admitted scrape.
type Run struct {
	ID         string
	Technology string
	Level      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// State serializes scrape runs: at most one is active at a time, progress
// events are buffered in an append-only log, and any number of consumers
// can stream the log with replay-then-follow semantics. Instances are
// independent, so tests can create as many as they need.
type State struct {
	runner RunnerFunc

	mu     sync.Mutex
	cond   *sync.Cond
	status Status
	run    *Run
	events []Event
}

func NewState(runner RunnerFunc) *State {
	s := &State{runner: runner, status: StatusIdle}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// StartResult reports the outcome of an admission attempt.
type StartResult struct {
	RunID          string
	AlreadyRunning bool
}

// Start admits a new run and launches the runner on its own goroutine, or
// reports the in-flight run's identity. Starting while a run is active is
// a no-op, not an error: exactly one scrape proceeds at a time. A
// finished run that was never reset is replaced.
func (s *State) Start(technology, level string) StartResult {
	s.mu.Lock()
	if s.status == StatusRunning {
		id := s.run.ID
		s.mu.Unlock()
		return StartResult{RunID: id, AlreadyRunning: true}
	}

	run := &Run{
		ID:         newRunID(),
		Technology: technology,
		Level:      level,
		StartedAt:  time.Now().UTC(),
	}
	s.run = run
	s.events = nil
	s.status = StatusRunning
	s.cond.Broadcast()
	s.mu.Unlock()

	utils.Log.Infof("scrape %s admitted (technology=%s level=%s)", run.ID, technology, level)
	go s.execute(*run)
	return StartResult{RunID: run.ID}
}

// execute drives the runner to completion. Runs detached from any request
// context: once admitted, a scrape is not cancellable.
func (s *State) execute(run Run) {
	err := s.safeRun(run)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.FinishedAt = time.Now().UTC()
	if err != nil {
		utils.Log.Errorf("scrape %s failed: %v", run.ID, err)
		s.events = append(s.events, ErrorEvent("", err.Error()))
		s.status = StatusFailed
	} else {
		utils.Log.Infof("scrape %s completed", run.ID)
		s.status = StatusCompleted
	}
	s.cond.Broadcast()
}

func (s *State) safeRun(run Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scrape panicked: %v", r)
		}
	}()
	return s.runner(context.Background(), run, s.Record)
}

// Record appends an event to the active run's log and wakes streamers.
func (s *State) Record(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Snapshot is a non-blocking view of the machine.
type Snapshot struct {
	Running     bool   `json:"running"`
	Completed   bool   `json:"completed"`
	EventsCount int    `json:"events_count"`
	RunID       string `json:"run_id,omitempty"`
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn := Snapshot{
		Running:     s.status == StatusRunning,
		Completed:   s.status == StatusCompleted || s.status == StatusFailed,
		EventsCount: len(s.events),
	}
	if s.run != nil {
		sn.RunID = s.run.ID
	}
	return sn
}

// Status returns the current machine state.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Reset discards the finished run and returns to idle. Fails with
// ErrRunInProgress while a run is active; Reset never interrupts one.
func (s *State) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusRunning {
		return ErrRunInProgress
	}
	s.run = nil
	s.events = nil
	s.status = StatusIdle
	s.cond.Broadcast()
	return nil
}

// Stream replays the buffered event log from the start, then follows new
// events as they are appended, in emission order. The channel closes
// after a terminal event has been delivered, when ctx is done, or when
// the run ends (or is discarded) without one. Each consumer holds its own
// cursor, so late joiners get the full replay.
func (s *State) Stream(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)

		// Wake the cond wait when the consumer goes away.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				s.cond.Broadcast()
			case <-done:
			}
		}()

		cursor := 0
		for {
			s.mu.Lock()
			for cursor == len(s.events) && s.status == StatusRunning && ctx.Err() == nil {
				s.cond.Wait()
			}
			if ctx.Err() != nil || cursor > len(s.events) {
				// Consumer gone, or a Reset/Start replaced the log under
				// us. A cursor into the old log is meaningless for the
				// new run, so the stream closes rather than silently
				// replaying a different run; consumers reconnect.
				s.mu.Unlock()
				return
			}
			batch := make([]Event, len(s.events)-cursor)
			copy(batch, s.events[cursor:])
			running := s.status == StatusRunning
			s.mu.Unlock()

			for _, ev := range batch {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
				cursor++
				if ev.Terminal() {
					return
				}
			}

			if !running && len(batch) == 0 {
				// Run ended without a terminal event.
				return
			}
		}
	}()
	return out
}

func newRunID() string {
	return "run-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}
