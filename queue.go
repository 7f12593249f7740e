package plmake

// jobQueue is a queue of jobs with unique ids.
// jobQueue is a queue, so the job pushed first will popped first.
// Jobs with a same id cannot be exist in this queue.
type jobQueue struct {
	has   map[JobID]bool
	first *queueItem
	last  *queueItem
}

// queueItem is a queueItem that wraps a job.
// It directs the next queueItem, so the queue can traverse.
type queueItem struct {
	j    *Job
	next *queueItem
}

// newJobQueue creates a new jobQueue.
func newJobQueue() *jobQueue {
	return &jobQueue{
		has: make(map[JobID]bool),
	}
}

// Len returns the number of jobs in the queue.
func (q *jobQueue) Len() int {
	return len(q.has)
}

// Has reports whether a job with the id is in the queue.
func (q *jobQueue) Has(id JobID) bool {
	return q.has[id]
}

// Push pushs a job to the queue.
// If a job with the same id has already exists in the queue, it does nothing.
func (q *jobQueue) Push(j *Job) {
	if q.has[j.id] {
		return
	}
	q.has[j.id] = true
	item := &queueItem{j: j}
	if q.first == nil {
		q.first = item
	} else {
		q.last.next = item
	}
	q.last = item
}

// Pop pops a job from the queue.
// If there isn't any job in the queue, it returns nil.
func (q *jobQueue) Pop() *Job {
	if q.first == nil {
		return nil
	}
	j := q.first.j
	delete(q.has, j.id)
	if q.first == q.last {
		q.first = nil
		q.last = nil
		return j
	}
	q.first = q.first.next
	return j
}

// Remove finds and removes the job with the given id from the queue.
// If the queue has the job, it removes the job and returns true.
// Otherwise, it does nothing and returns false.
func (q *jobQueue) Remove(id JobID) bool {
	if !q.has[id] {
		return false
	}
	delete(q.has, id)
	var prev *queueItem
	for it := q.first; it != nil; it = it.next {
		if it.j.id == id {
			if it == q.first {
				q.first = q.first.next
			} else {
				prev.next = it.next
			}
			if it == q.last {
				q.last = prev
			}
			break
		}
		prev = it
	}
	return true
}

// Jobs returns the jobs in the queue in queue order, without removing them.
func (q *jobQueue) Jobs() []*Job {
	jobs := make([]*Job, 0, len(q.has))
	for it := q.first; it != nil; it = it.next {
		jobs = append(jobs, it.j)
	}
	return jobs
}
