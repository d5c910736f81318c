package pricematch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ukaji3/pricematch-go/pkg/pricematch/logging"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
)

// JobState is the lifecycle state of a submitted job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	// JobUnknown is reported for IDs that were never submitted.
	JobUnknown JobState = "unknown"
)

// Terminal reports whether the job has finished.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobStatus is a snapshot of one job.
type JobStatus struct {
	ID          string             `json:"id" yaml:"id"`
	State       JobState           `json:"state" yaml:"state"`
	Stage       Stage              `json:"stage,omitempty" yaml:"stage,omitempty"`
	ReportPath  string             `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	Error       string             `json:"error,omitempty" yaml:"error,omitempty"`
	Statistics  *models.Statistics `json:"statistics,omitempty" yaml:"statistics,omitempty"`
	SubmittedAt time.Time          `json:"submitted_at" yaml:"submitted_at"`
	StartedAt   time.Time          `json:"started_at,omitzero" yaml:"started_at,omitempty"`
	FinishedAt  time.Time          `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
}

type job struct {
	status JobStatus
	err    error
	done   chan struct{}
}

// Jobs runs pipeline invocations in the background and tracks them by ID.
// Records are kept in memory for the lifetime of the Jobs value.
type Jobs struct {
	pipeline *Pipeline

	mu   sync.Mutex
	jobs map[string]*job
}

// NewJobs creates a tracker running jobs on p.
func NewJobs(p *Pipeline) *Jobs {
	return &Jobs{pipeline: p, jobs: make(map[string]*job)}
}

// Submit starts a run of cfg on its own goroutine and returns its job ID.
// The run uses ctx, so cancelling ctx cancels the job.
func (j *Jobs) Submit(ctx context.Context, cfg models.MatchingConfig) string {
	id := uuid.NewString()
	jb := &job{
		status: JobStatus{ID: id, State: JobPending, SubmittedAt: time.Now()},
		done:   make(chan struct{}),
	}

	j.mu.Lock()
	j.jobs[id] = jb
	j.mu.Unlock()

	go j.execute(ctx, jb, cfg)
	return id
}

func (j *Jobs) execute(ctx context.Context, jb *job, cfg models.MatchingConfig) {
	defer close(jb.done)

	j.update(jb, func(s *JobStatus) {
		s.State = JobRunning
		s.StartedAt = time.Now()
	})

	out, err := j.run(ctx, jb, cfg)

	j.update(jb, func(s *JobStatus) {
		s.FinishedAt = time.Now()
		if err != nil {
			jb.err = err
			s.State = JobFailed
			s.Error = err.Error()
			return
		}
		s.State = JobCompleted
		s.ReportPath = out.ReportPath
		s.Statistics = &out.Statistics
	})
}

// run executes the pipeline for jb. A panic is recovered and becomes the job
// error.
func (j *Jobs) run(ctx context.Context, jb *job, cfg models.MatchingConfig) (out *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("job %s panicked: %v", jb.status.ID, r)
			logging.FromContext(ctx).Error().
				Str("job_id", jb.status.ID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("job panicked")
		}
	}()
	return j.pipeline.run(ctx, jb.status.ID, cfg, func(_ string, stage Stage) {
		j.update(jb, func(s *JobStatus) { s.Stage = stage })
	})
}

func (j *Jobs) update(jb *job, fn func(*JobStatus)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&jb.status)
}

// Status returns a snapshot of the job. Unknown IDs report JobUnknown.
func (j *Jobs) Status(id string) JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	jb, ok := j.jobs[id]
	if !ok {
		return JobStatus{ID: id, State: JobUnknown}
	}
	return jb.status
}

// Wait blocks until the job finishes or ctx is done. It returns the final
// status and the run error, if any.
func (j *Jobs) Wait(ctx context.Context, id string) (JobStatus, error) {
	j.mu.Lock()
	jb, ok := j.jobs[id]
	j.mu.Unlock()
	if !ok {
		return JobStatus{ID: id, State: JobUnknown}, fmt.Errorf("unknown job %q", id)
	}

	select {
	case <-jb.done:
	case <-ctx.Done():
		return j.Status(id), ctx.Err()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return jb.status, jb.err
}
