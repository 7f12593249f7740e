package plmake

import (
	"fmt"
	"log"
	"strings"
)

// message is a message to the scheduler actor.
// Concrete messages are the structs below; anything else reaching
// the actor is reported and dropped.
type message interface{}

// submitMsg asks the actor to take a new job.
type submitMsg struct {
	job *Job
}

// completeMsg tells the actor a running job has finished.
// A nil err means the goal succeeded.
type completeMsg struct {
	id  JobID
	err error
}

// finishMsg asks the actor to drain and terminate.
type finishMsg struct{}

// Scheduler runs submitted jobs on a bounded worker pool, holding
// each job back until all of its dependencies have left the table.
//
// A single actor goroutine owns the whole job table. Every job is in
// exactly one of three sets: waiting, running or complete. A job is
// ready when none of its dependency ids is waiting or running; an id
// that was never submitted does not block, and neither does a failed
// one. Submit and the pool's workers only ever talk to the actor
// through its mailbox, so the table needs no locks.
type Scheduler struct {
	msgs chan message
	pool *pool
	lg   *log.Logger

	// done is closed by the actor after it has torn down the pool.
	// err must only be read after done is closed.
	done chan struct{}
	err  error
}

// NewScheduler creates a scheduler with poolSize execution slots and
// starts its actor goroutine. Diagnostics go to lg; a nil lg means
// the standard logger.
func NewScheduler(poolSize int, lg *log.Logger) *Scheduler {
	if lg == nil {
		lg = log.Default()
	}
	s := &Scheduler{
		msgs: make(chan message),
		pool: newPool(poolSize, lg),
		lg:   lg,
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

// Submit hands a job to the scheduler and returns without waiting
// for it to be examined. The goal will run once no dependency id is
// waiting or running; dependency ids that are never submitted are
// not waited for. Ids are the caller's to keep unique.
// Submit must not be called after Wait.
func (s *Scheduler) Submit(goal Goal, id JobID, deps []JobID, opts JobOptions) {
	j := &Job{
		id:   id,
		deps: deps,
		goal: goal,
		opts: opts,
	}
	s.msgs <- submitMsg{job: j}
}

// Wait asks the scheduler to finish and blocks until it has: every
// runnable job is dispatched, all running jobs complete, and the pool
// is torn down. It returns nil when all submitted jobs ran, or an
// error naming the jobs whose dependencies never cleared.
func (s *Scheduler) Wait() error {
	s.msgs <- finishMsg{}
	<-s.done
	return s.err
}

// table is the three way partition of submitted jobs.
// Only the actor goroutine touches it.
type table struct {
	waiting  *jobQueue
	running  map[JobID]*Job
	complete map[JobID]error
}

func newTable() *table {
	return &table{
		waiting:  newJobQueue(),
		running:  make(map[JobID]*Job),
		complete: make(map[JobID]error),
	}
}

// ready reports whether none of the job's dependencies is currently
// waiting or running. Completed and never-submitted ids both pass.
func (t *table) ready(j *Job) bool {
	for _, dep := range j.deps {
		if t.waiting.Has(dep) {
			return false
		}
		if _, ok := t.running[dep]; ok {
			return false
		}
	}
	return true
}

// run is the actor loop. It owns the table and handles one message
// at a time until a finish message arrives.
func (s *Scheduler) run() {
	t := newTable()
	for {
		switch m := (<-s.msgs).(type) {
		case submitMsg:
			if t.ready(m.job) {
				s.dispatch(t, m.job)
			} else {
				t.waiting.Push(m.job)
			}
		case completeMsg:
			if s.complete(t, m) {
				s.dispatchReady(t)
			}
		case finishMsg:
			s.finish(t)
			return
		default:
			s.lg.Printf("scheduler: unrecognized message: %T", m)
		}
	}
}

// dispatch moves the job into the running set and hands it to the
// pool. When the pool is saturated this blocks the actor, so no
// other message is handled until a slot frees.
func (s *Scheduler) dispatch(t *table, j *Job) {
	t.running[j.id] = j
	s.pool.Dispatch(j, s.msgs)
}

// complete moves a running job into the complete set.
// A completion for a job that isn't running is malformed; it is
// reported and the table is left unchanged.
func (s *Scheduler) complete(t *table, m completeMsg) bool {
	if _, ok := t.running[m.id]; !ok {
		s.lg.Printf("scheduler: completion for job not running: %v", m.id)
		return false
	}
	delete(t.running, m.id)
	t.complete[m.id] = m.err
	if m.err != nil {
		s.lg.Printf("job failed: %v: %v", m.id, m.err)
	}
	return true
}

// dispatchReady dispatches every waiting job that is ready, repeating
// the scan until a full pass over the waiting queue dispatches
// nothing. One dispatch can only unblock others through the table,
// so a single pass could stop short of the fixed point.
func (s *Scheduler) dispatchReady(t *table) {
	for {
		n := 0
		for _, j := range t.waiting.Jobs() {
			if !t.ready(j) {
				continue
			}
			t.waiting.Remove(j.id)
			s.dispatch(t, j)
			n++
		}
		if n == 0 {
			return
		}
	}
}

// finish drains the scheduler: dispatch whatever is ready, then
// consume completions until nothing runs anymore. Jobs still waiting
// at that point can never run; they are reported as abandoned and
// make the terminal status a failure. The pool is torn down either
// way and the actor terminates.
func (s *Scheduler) finish(t *table) {
	s.dispatchReady(t)
	for len(t.running) > 0 {
		switch m := (<-s.msgs).(type) {
		case completeMsg:
			if s.complete(t, m) {
				s.dispatchReady(t)
			}
		default:
			s.lg.Printf("scheduler: message while draining: %T", m)
		}
	}
	if t.waiting.Len() > 0 {
		ids := make([]string, 0, t.waiting.Len())
		for _, j := range t.waiting.Jobs() {
			ids = append(ids, string(j.id))
		}
		s.lg.Printf("scheduler: abandoned jobs: %v", strings.Join(ids, ", "))
		s.err = fmt.Errorf("abandoned jobs: %v", strings.Join(ids, ", "))
	}
	s.pool.Close()
	close(s.done)
}
