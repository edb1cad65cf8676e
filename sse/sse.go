// Package sse tracks the event stream of each in-flight video job so the
// poll loop can push progress to whichever client is watching.
package sse

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/logger"
)

type EventType string

const (
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

type Event struct {
	Type            EventType `json:"type"`
	Message         string    `json:"message,omitempty"`
	PaymentRequired bool      `json:"payment_required,omitempty"`
}

type JobStream struct {
	Events chan Event
	Done   chan struct{}
}

var (
	streams = make(map[string]*JobStream)
	mu      sync.RWMutex
)

// Open registers a stream for a job. A second Open for the same job replaces
// the first; only one watcher per job is supported.
func Open(jobID string) *JobStream {
	stream := &JobStream{
		Events: make(chan Event, 100),
		Done:   make(chan struct{}, 1),
	}
	mu.Lock()
	streams[jobID] = stream
	mu.Unlock()
	return stream
}

// CloseStream removes a job's stream, typically when the watcher disconnects.
func CloseStream(jobID string) {
	mu.Lock()
	delete(streams, jobID)
	mu.Unlock()
}

// Publish sends an event to the job's watcher, if any. Events for jobs with
// no watcher, or with a full buffer, are dropped; progress is cosmetic and
// the job result is fetched separately.
func Publish(jobID string, ev Event) {
	mu.RLock()
	stream, ok := streams[jobID]
	mu.RUnlock()
	if !ok {
		return
	}

	select {
	case stream.Events <- ev:
	default:
		logger.Get().Warn("dropping job event, stream buffer full",
			zap.String("job_id", jobID),
			zap.String("type", string(ev.Type)))
	}

	if ev.Type == EventDone || ev.Type == EventError {
		select {
		case stream.Done <- struct{}{}:
		default:
		}
	}
}
