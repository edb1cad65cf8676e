// Package worker runs video render jobs on a small pool so the submit
// endpoint can return a job ID immediately while the long-running operation
// is polled in the background.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/genai"
	"github.com/GEAN1412/voxvideo-studio/generation"
	"github.com/GEAN1412/voxvideo-studio/logger"
	"github.com/GEAN1412/voxvideo-studio/session"
	"github.com/GEAN1412/voxvideo-studio/sse"
)

var (
	ErrQueueFull   = errors.New("render queue is full")
	ErrJobNotFound = errors.New("job not found")
	ErrJobNotReady = errors.New("job has not finished")
)

type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Renderer runs one full video generation, reporting progress as it polls.
// *generation.Orchestrator is the production implementation.
type Renderer interface {
	Video(ctx context.Context, sess session.Session, prompt, aspectRatio, resolution string, progress func(string)) ([]byte, error)
}

// VideoJob is one queued render request.
type VideoJob struct {
	ID          string
	Session     session.Session
	Prompt      string
	AspectRatio string
	Resolution  string
}

type jobResult struct {
	state JobState
	owner string
	blob  []byte
	err   error
}

type Pool struct {
	workers int
	jobs    chan VideoJob
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	orch    Renderer

	mu      sync.RWMutex
	results map[string]*jobResult

	jobsProcessed  uint64
	jobsFailed     uint64
	renderDuration uint64
}

func NewPool(workers int, orch Renderer) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan VideoJob, 100),
		ctx:     ctx,
		cancel:  cancel,
		orch:    orch,
		results: map[string]*jobResult{},
	}
}

func (p *Pool) Start() {
	logger.Get().Info("Starting render pool", zap.Int("workers", p.workers))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) Stop() {
	logger.Get().Info("Stopping render pool")
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a render job. The queue is bounded; a full queue rejects the
// job rather than blocking the request.
func (p *Pool) Submit(job VideoJob) error {
	p.mu.Lock()
	p.results[job.ID] = &jobResult{state: JobQueued, owner: job.Session.Email}
	p.mu.Unlock()

	select {
	case p.jobs <- job:
		logger.Get().Debug("Render job queued", zap.String("job_id", job.ID))
		return nil
	default:
		p.mu.Lock()
		delete(p.results, job.ID)
		p.mu.Unlock()
		return ErrQueueFull
	}
}

// State reports the lifecycle state of a job for its owner.
func (p *Pool) State(jobID, owner string) (JobState, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res, ok := p.results[jobID]
	if !ok || res.owner != owner {
		return "", ErrJobNotFound
	}
	return res.state, nil
}

// Result hands out the finished render exactly once, freeing the blob after.
// Only the submitting user may fetch it.
func (p *Pool) Result(jobID, owner string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	res, ok := p.results[jobID]
	if !ok || res.owner != owner {
		return nil, ErrJobNotFound
	}
	switch res.state {
	case JobFailed:
		return nil, res.err
	case JobDone:
		blob := res.blob
		delete(p.results, jobID)
		return blob, nil
	default:
		return nil, ErrJobNotReady
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	logger.Get().Info("Render worker started", zap.Int("worker_id", id))

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				logger.Get().Info("Render worker stopping", zap.Int("worker_id", id))
				return
			}
			p.run(id, job)
		case <-p.ctx.Done():
			logger.Get().Info("Render worker stopping due to context cancellation",
				zap.Int("worker_id", id))
			return
		}
	}
}

func (p *Pool) run(workerID int, job VideoJob) {
	p.setState(job.ID, JobRunning)
	startTime := time.Now()

	blob, err := p.orch.Video(p.ctx, job.Session, job.Prompt, job.AspectRatio, job.Resolution, func(msg string) {
		sse.Publish(job.ID, sse.Event{Type: sse.EventProgress, Message: msg})
	})

	p.mu.Lock()
	res, ok := p.results[job.ID]
	if ok {
		if err != nil {
			res.state = JobFailed
			res.err = err
			p.jobsFailed++
		} else {
			res.state = JobDone
			res.blob = blob
		}
		p.jobsProcessed++
		p.renderDuration += uint64(time.Since(startTime).Milliseconds())
	}
	p.mu.Unlock()

	if err != nil {
		logger.Get().Error("Render job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID),
			zap.Error(err))
		sse.Publish(job.ID, sse.Event{
			Type:            sse.EventError,
			Message:         renderFailureMessage(err),
			PaymentRequired: errors.Is(err, generation.ErrPaymentRequired),
		})
		return
	}

	logger.Get().Info("Render job finished",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID),
		zap.Int("bytes", len(blob)))
	sse.Publish(job.ID, sse.Event{Type: sse.EventDone, Message: "Render complete"})
}

func (p *Pool) setState(jobID string, state JobState) {
	p.mu.Lock()
	if res, ok := p.results[jobID]; ok {
		res.state = state
	}
	p.mu.Unlock()
}

func renderFailureMessage(err error) string {
	switch {
	case errors.Is(err, generation.ErrPaymentRequired):
		return "Video generation requires an active voice subscription"
	case errors.Is(err, genai.ErrCredential):
		return "The generation API rejected the configured credentials"
	case errors.Is(err, genai.ErrNoVideo):
		return "The render finished but produced no video"
	case errors.Is(err, generation.ErrRenderDeadline):
		return "The render took too long and was abandoned"
	default:
		return "Video generation failed, please try again"
	}
}

// MetricsHandler returns the current metrics as JSON
func (p *Pool) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var avgRenderTime float64
	if p.jobsProcessed > 0 {
		avgRenderTime = float64(p.renderDuration) / float64(p.jobsProcessed)
	}

	metrics := map[string]any{
		"jobs_processed": p.jobsProcessed,
		"jobs_failed":    p.jobsFailed,
		"avg_render_ms":  avgRenderTime,
		"queued_jobs":    len(p.jobs),
		"active_workers": p.workers,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}
