package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GEAN1412/voxvideo-studio/generation"
	"github.com/GEAN1412/voxvideo-studio/session"
	"github.com/GEAN1412/voxvideo-studio/sse"
)

type fakeRenderer struct {
	blob     []byte
	err      error
	progress []string
}

func (r *fakeRenderer) Video(_ context.Context, _ session.Session, _, _, _ string, progress func(string)) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, msg := range r.progress {
		progress(msg)
	}
	return r.blob, nil
}

func waitForState(t *testing.T, p *Pool, jobID, owner string, want JobState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, err := p.State(jobID, owner)
		if err == nil && state == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached state %s", jobID, want)
}

func TestPoolRunsJobAndHandsOutResultOnce(t *testing.T) {
	r := &fakeRenderer{blob: []byte("mp4"), progress: []string{"Rendering frames..."}}
	p := NewPool(1, r)
	p.Start()
	defer p.Stop()

	job := VideoJob{ID: "job-1", Session: session.Session{Email: "user@x.com"}, Prompt: "a coastline"}
	require.NoError(t, p.Submit(job))

	waitForState(t, p, "job-1", "user@x.com", JobDone)

	blob, err := p.Result("job-1", "user@x.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4"), blob)

	// Results are handed out exactly once.
	_, err = p.Result("job-1", "user@x.com")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestPoolResultRequiresOwner(t *testing.T) {
	r := &fakeRenderer{blob: []byte("mp4")}
	p := NewPool(1, r)
	p.Start()
	defer p.Stop()

	require.NoError(t, p.Submit(VideoJob{ID: "job-1", Session: session.Session{Email: "user@x.com"}}))
	waitForState(t, p, "job-1", "user@x.com", JobDone)

	_, err := p.Result("job-1", "other@x.com")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestPoolRecordsFailure(t *testing.T) {
	r := &fakeRenderer{err: generation.ErrPaymentRequired}
	p := NewPool(1, r)
	p.Start()
	defer p.Stop()

	require.NoError(t, p.Submit(VideoJob{ID: "job-1", Session: session.Session{Email: "user@x.com"}}))
	waitForState(t, p, "job-1", "user@x.com", JobFailed)

	_, err := p.Result("job-1", "user@x.com")
	assert.ErrorIs(t, err, generation.ErrPaymentRequired)
}

func TestPoolStreamsProgressEvents(t *testing.T) {
	r := &fakeRenderer{blob: []byte("mp4"), progress: []string{"one", "two"}}
	p := NewPool(1, r)

	stream := sse.Open("job-1")
	defer sse.CloseStream("job-1")

	p.Start()
	defer p.Stop()
	require.NoError(t, p.Submit(VideoJob{ID: "job-1", Session: session.Session{Email: "user@x.com"}}))

	var events []sse.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-stream.Events:
			events = append(events, ev)
			if ev.Type == sse.EventDone {
				assert.Equal(t, sse.EventProgress, events[0].Type)
				assert.Equal(t, "one", events[0].Message)
				assert.Equal(t, "two", events[1].Message)
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for done event")
		}
	}
}

func TestPoolUnknownJob(t *testing.T) {
	p := NewPool(1, &fakeRenderer{})

	_, err := p.State("missing", "user@x.com")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = p.Result("missing", "user@x.com")
	assert.True(t, errors.Is(err, ErrJobNotFound))
}
