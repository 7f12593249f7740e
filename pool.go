package plmake

import (
	"fmt"
	"log"
	"sync"
)

// pool is a bounded set of execution slots that run goals.
// Dispatch blocks until a slot frees, which is the scheduler's
// backpressure: at most size goals execute at once.
type pool struct {
	slots chan struct{}
	wg    sync.WaitGroup
	lg    *log.Logger
}

func newPool(size int, lg *log.Logger) *pool {
	if size < 1 {
		size = 1
	}
	return &pool{
		slots: make(chan struct{}, size),
		lg:    lg,
	}
}

// Dispatch takes a slot and runs the job's goal on it.
// It blocks the caller until a slot is free. The slot is given back
// when the goal returns, before the completion message is sent, so a
// blocked Dispatch can proceed even while the scheduler has not read
// the completion yet. The completion is sent to done with the job's
// id and outcome.
func (p *pool) Dispatch(j *Job, done chan<- message) {
	p.slots <- struct{}{}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		err := p.run(j)
		<-p.slots
		done <- completeMsg{id: j.id, err: err}
	}()
}

// run executes the job's goal.
// A panic inside the goal is converted to a failure here and
// never crosses the execution boundary.
func (p *pool) run(j *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.lg.Printf("job %v panicked: %v", j.label(), r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return j.goal()
}

// Close waits until every dispatched goal has finished and its
// completion has been delivered, then releases the pool.
func (p *pool) Close() {
	p.wg.Wait()
}
