package main

import (
	"context"
	"log"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/mastercactapus/gmmu/gcode"
	"github.com/mastercactapus/gmmu/host"
	"github.com/mastercactapus/gmmu/mmu"
)

const (
	tickInterval = 50 * time.Millisecond
	jobBacklog   = 16
	jobHistory   = 100
)

type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is a batch of G-code submitted through the API.
type Job struct {
	ID    string   `json:"id"`
	Lines []string `json:"lines"`
	State JobState `json:"state"`
	Error string   `json:"error,omitempty"`

	blocks []gcode.Block
}

// runner owns the MMU. Everything that touches it runs on the runner's
// goroutine, either from the loop in run or from the printer's idle hook
// while an operation is blocking.
type runner struct {
	m  *mmu.MMU
	p  *host.Printer
	ui *host.UI

	jobCh  chan *Job
	callCh chan func()

	mx     sync.Mutex
	status mmu.Status
	jobs   map[string]*Job
	order  []string
}

func newRunner(m *mmu.MMU, p *host.Printer, ui *host.UI) *runner {
	r := &runner{
		m:      m,
		p:      p,
		ui:     ui,
		jobCh:  make(chan *Job, jobBacklog),
		callCh: make(chan func()),
		jobs:   make(map[string]*Job),
	}
	p.OnIdle = r.onIdle
	r.status = m.Status()
	return r
}

func (r *runner) run(ctx context.Context) {
	t := time.NewTicker(tickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.callCh:
			fn()
		case j := <-r.jobCh:
			r.runJob(j)
		case <-t.C:
			r.tick()
		}
		r.publish()
	}
}

// onIdle serves API calls and status while an operation waits.
func (r *runner) onIdle() {
	select {
	case fn := <-r.callCh:
		fn()
	default:
	}
	r.publish()
}

// do runs fn on the runner's goroutine and waits for it.
func (r *runner) do(fn func()) {
	done := make(chan struct{})
	r.callCh <- func() {
		defer close(done)
		fn()
	}
	<-done
}

func (r *runner) tick() {
	if err := r.m.Tick(); err != nil && err != mmu.ErrReentrant {
		log.Println("ERROR: tick:", err)
	}
	r.drain()
}

// drain runs whatever the MMU put in front of the printer queue.
func (r *runner) drain() {
	for {
		b, ok := r.p.Next()
		if !ok {
			return
		}
		if err := r.exec(b); err != nil {
			log.Printf("ERROR: %s: %v", b, err)
		}
	}
}

func (r *runner) exec(b gcode.Block) error {
	if mmu.Handles(b) {
		return r.m.Execute(b)
	}
	return r.p.Run(b)
}

// submit queues blocks as a new job. It returns false if the backlog is
// full.
func (r *runner) submit(lines []string, blocks []gcode.Block) (*Job, bool) {
	j := &Job{
		ID:     uuid.NewV4().String(),
		Lines:  lines,
		State:  JobQueued,
		blocks: blocks,
	}

	r.mx.Lock()
	r.jobs[j.ID] = j
	r.order = append(r.order, j.ID)
	if len(r.order) > jobHistory {
		delete(r.jobs, r.order[0])
		r.order = r.order[1:]
	}
	r.mx.Unlock()

	select {
	case r.jobCh <- j:
		return j, true
	default:
		r.setJob(j, JobFailed, "backlog full")
		return j, false
	}
}

func (r *runner) setJob(j *Job, state JobState, msg string) {
	r.mx.Lock()
	j.State = state
	j.Error = msg
	r.mx.Unlock()
}

// job returns a copy of the job with the given id.
func (r *runner) job(id string) (Job, bool) {
	r.mx.Lock()
	defer r.mx.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

func (r *runner) runJob(j *Job) {
	r.setJob(j, JobRunning, "")
	for _, b := range j.blocks {
		r.drain()
		if err := r.exec(b); err != nil {
			log.Printf("ERROR: job %s: %s: %v", j.ID, b, err)
			r.setJob(j, JobFailed, b.String()+": "+err.Error())
			return
		}
	}
	r.drain()
	r.setJob(j, JobDone, "")
}

func (r *runner) publish() {
	st := r.m.Status()
	r.mx.Lock()
	changed := st != r.status
	r.status = st
	r.mx.Unlock()
	if changed {
		r.ui.PublishStatus(st)
	}
}

// Status returns the last published snapshot.
func (r *runner) Status() mmu.Status {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.status
}
