package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/anveshak/tilesearch/internal/domain"
)

// Job states.
const (
	StateRunning  = "running"
	StateDone     = "done"
	StateFailed   = "failed"
	StateCanceled = "canceled"
)

// Status is a point-in-time snapshot of an ingestion job.
type Status struct {
	JobID      string  `json:"job_id"`
	Dataset    string  `json:"dataset"`
	Footprint  string  `json:"footprint,omitempty"`
	State      string  `json:"state"`
	TilesRead  int     `json:"tiles_read"`
	Error      string  `json:"error,omitempty"`
	StartedAt  int64   `json:"started_at"`
	FinishedAt int64   `json:"finished_at,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// job is the mutable state of one ingestion run.
type job struct {
	mu sync.Mutex

	id        string
	scope     domain.Scope
	cancel    context.CancelFunc
	state     string
	tilesRead int
	err       error
	started   time.Time
	finished  time.Time
}

func (j *job) addRead(n int) {
	j.mu.Lock()
	j.tilesRead += n
	j.mu.Unlock()
}

func (j *job) finish(state string, err error) {
	j.mu.Lock()
	j.state = state
	j.err = err
	j.finished = time.Now()
	j.mu.Unlock()
}

func (j *job) status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	st := Status{
		JobID:     j.id,
		Dataset:   j.scope.Dataset(),
		Footprint: j.scope.Footprint(),
		State:     j.state,
		TilesRead: j.tilesRead,
		StartedAt: j.started.UnixMilli(),
	}
	if j.err != nil {
		st.Error = j.err.Error()
	}
	if !j.finished.IsZero() {
		st.FinishedAt = j.finished.UnixMilli()
		st.DurationMS = float64(j.finished.Sub(j.started).Milliseconds())
	} else {
		st.DurationMS = float64(time.Since(j.started).Milliseconds())
	}
	return st
}

// jobRegistry tracks jobs by id and enforces one running job per scope.
type jobRegistry struct {
	mu      sync.Mutex
	byID    map[string]*job
	running map[string]*job // keyed by scope string
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{byID: make(map[string]*job), running: make(map[string]*job)}
}

// add registers a new running job. Fails when the scope already has one.
func (r *jobRegistry) add(j *job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := j.scope.String()
	if _, ok := r.running[key]; ok {
		return domain.ErrIngestRunning
	}
	r.byID[j.id] = j
	r.running[key] = j
	return nil
}

// release removes the job from the running set, keeping it queryable by id.
func (r *jobRegistry) release(j *job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := j.scope.String()
	if r.running[key] == j {
		delete(r.running, key)
	}
}

func (r *jobRegistry) get(id string) (*job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	return j, ok
}

// latest returns the most recently started job for a scope, running or not.
func (r *jobRegistry) latest(scope domain.Scope) (*job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *job
	for _, j := range r.byID {
		if j.scope != scope {
			continue
		}
		if found == nil || j.started.After(found.started) {
			found = j
		}
	}
	return found, found != nil
}
