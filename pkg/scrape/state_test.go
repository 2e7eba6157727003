package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepRunner blocks until released so tests control when a run finishes.
type stepRunner struct {
	started chan Run
	release chan error
}

func newStepRunner() *stepRunner {
	return &stepRunner{
		started: make(chan Run, 1),
		release: make(chan error),
	}
}

func (r *stepRunner) run(ctx context.Context, run Run, emit func(Event)) error {
	r.started <- run
	err := <-r.release
	if err == nil {
		emit(CompleteEvent(0, "", nil))
	}
	return err
}

func waitForStatus(t *testing.T, s *State, want Status) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if s.Status() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("state never reached %q, stuck at %q", want, s.Status())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartIsSingleFlight(t *testing.T) {
	runner := newStepRunner()
	s := NewState(runner.run)

	first := s.Start("go", "senior")
	require.False(t, first.AlreadyRunning)
	<-runner.started

	second := s.Start("python", "junior")
	assert.True(t, second.AlreadyRunning)
	assert.Equal(t, first.RunID, second.RunID, "second start must report the in-flight run")

	runner.release <- nil
	waitForStatus(t, s, StatusCompleted)

	select {
	case run := <-runner.started:
		t.Fatalf("second start must not launch a runner, got run %s", run.ID)
	default:
	}
}

func TestStartAfterCompletionBeginsNewRun(t *testing.T) {
	runner := newStepRunner()
	s := NewState(runner.run)

	first := s.Start("go", "senior")
	<-runner.started
	runner.release <- nil
	waitForStatus(t, s, StatusCompleted)

	second := s.Start("python", "junior")
	require.False(t, second.AlreadyRunning)
	assert.NotEqual(t, first.RunID, second.RunID)

	run := <-runner.started
	assert.Equal(t, "python", run.Technology)

	runner.release <- nil
	waitForStatus(t, s, StatusCompleted)
}

func TestRunnerErrorMarksRunFailed(t *testing.T) {
	runner := newStepRunner()
	s := NewState(runner.run)

	s.Start("go", "senior")
	<-runner.started
	runner.release <- errors.New("provider quota exhausted")
	waitForStatus(t, s, StatusFailed)

	sn := s.Snapshot()
	assert.False(t, sn.Running)
	assert.True(t, sn.Completed, "a failed run still counts as finished")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var last Event
	for ev := range s.Stream(ctx) {
		last = ev
	}
	require.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "quota exhausted")
}

func TestResetWhileRunningIsRejected(t *testing.T) {
	runner := newStepRunner()
	s := NewState(runner.run)

	s.Start("go", "senior")
	<-runner.started

	err := s.Reset()
	require.ErrorIs(t, err, ErrRunInProgress)

	runner.release <- nil
	waitForStatus(t, s, StatusCompleted)

	require.NoError(t, s.Reset())
	sn := s.Snapshot()
	assert.False(t, sn.Running)
	assert.False(t, sn.Completed)
	assert.Zero(t, sn.EventsCount)
	assert.Empty(t, sn.RunID)
}

func TestStreamReplaysForLateJoiners(t *testing.T) {
	runner := newStepRunner()
	s := NewState(runner.run)

	s.Start("go", "senior")
	<-runner.started

	s.Record(ATSStartEvent("Lever", 0, 9))
	s.Record(PageFetchedEvent("Lever", 1, 10))
	runner.release <- nil
	waitForStatus(t, s, StatusCompleted)

	// Joining after the run finished must still yield the full log.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var got []EventType
	for ev := range s.Stream(ctx) {
		got = append(got, ev.Type)
	}
	require.Equal(t, []EventType{EventATSStart, EventPageFetched, EventComplete}, got)
}

func TestStreamContinuesPastPlatformError(t *testing.T) {
	runner := func(ctx context.Context, run Run, emit func(Event)) error {
		emit(ATSStartEvent("Workable", 3, 9))
		emit(ErrorEvent("Workable", "search failed"))
		emit(ATSCompleteEvent("Workable", 0, 3, 9))
		emit(ATSStartEvent("Breezy", 4, 9))
		emit(ATSCompleteEvent("Breezy", 7, 4, 9))
		emit(CompleteEvent(7, "out.csv", map[string]int{"Breezy": 7}))
		return nil
	}
	s := NewState(runner)
	s.Start("go", "senior")
	waitForStatus(t, s, StatusCompleted)

	want := []EventType{
		EventATSStart, EventError, EventATSComplete,
		EventATSStart, EventATSComplete, EventComplete,
	}

	// One platform failing must not cut the stream short: consumers keep
	// receiving the remaining platforms' events through to Complete.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var got []EventType
	for ev := range s.Stream(ctx) {
		got = append(got, ev.Type)
	}
	require.Equal(t, want, got)

	// Same for a second, late-joining consumer replaying the full log.
	var replay []EventType
	for ev := range s.Stream(ctx) {
		replay = append(replay, ev.Type)
	}
	require.Equal(t, want, replay)
}

func TestStreamFollowsLiveEvents(t *testing.T) {
	runner := newStepRunner()
	s := NewState(runner.run)

	s.Start("go", "senior")
	<-runner.started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stream := s.Stream(ctx)

	s.Record(ATSStartEvent("Lever", 0, 9))
	ev := <-stream
	require.Equal(t, EventATSStart, ev.Type)

	runner.release <- nil

	var last Event
	for ev := range stream {
		last = ev
	}
	assert.Equal(t, EventComplete, last.Type, "stream must close after the terminal event")
}

func TestStreamMultipleConsumersSeeSameSequence(t *testing.T) {
	runner := newStepRunner()
	s := NewState(runner.run)

	s.Start("go", "senior")
	<-runner.started
	s.Record(ATSStartEvent("Lever", 0, 9))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	collect := func(ch <-chan Event) []EventType {
		var got []EventType
		for ev := range ch {
			got = append(got, ev.Type)
		}
		return got
	}

	aCh := s.Stream(ctx)
	bCh := s.Stream(ctx)

	done := make(chan []EventType, 2)
	go func() { done <- collect(aCh) }()
	go func() { done <- collect(bCh) }()

	s.Record(ATSCompleteEvent("Lever", 10, 0, 9))
	runner.release <- nil

	first := <-done
	second := <-done
	require.Equal(t, first, second)
	require.Equal(t, []EventType{EventATSStart, EventATSComplete, EventComplete}, first)
}

func TestStreamStopsWhenContextCancelled(t *testing.T) {
	runner := newStepRunner()
	s := NewState(runner.run)

	s.Start("go", "senior")
	<-runner.started

	ctx, cancel := context.WithCancel(context.Background())
	stream := s.Stream(ctx)
	cancel()

	select {
	case _, open := <-stream:
		if open {
			// A buffered event may still be delivered; the channel must
			// close right after.
			_, open = <-stream
			assert.False(t, open)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after context cancellation")
	}

	runner.release <- nil
	waitForStatus(t, s, StatusCompleted)
}

func TestRunnerPanicIsRecovered(t *testing.T) {
	s := NewState(func(ctx context.Context, run Run, emit func(Event)) error {
		panic("boom")
	})

	s.Start("go", "senior")
	waitForStatus(t, s, StatusFailed)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var last Event
	for ev := range s.Stream(ctx) {
		last = ev
	}
	require.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "boom")
}
