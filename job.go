package plmake

// JobID identifies a job inside one scheduler.
// It is chosen by the caller and the scheduler treats it as opaque.
// Uniqueness is the caller's responsibility; the scheduler does not
// validate or deduplicate ids.
type JobID string

// Goal is a unit of work a job runs.
// A nil return means the work succeeded.
// A panic inside a Goal is recovered at the execution boundary
// and recorded as a failure, it never escapes to the scheduler.
type Goal func() error

// JobOptions is an option bag that travels with a job.
// The scheduler forwards it to the worker pool verbatim and attaches
// no meaning to its contents. The pool only uses Label for log lines.
type JobOptions struct {
	// Label is a human readable name for log lines.
	// When empty, the job's id is used instead.
	Label string

	// Env holds extra environment entries in "KEY=VALUE" form.
	// The scheduler and pool pass them through untouched; it is up to
	// the Goal's creator to make use of them.
	Env []string
}

// Job is one submitted unit of work with its id, dependencies and options.
// A job is created by Submit and read-only afterwards. Only the scheduler
// moves it between the waiting, running and complete sets.
type Job struct {
	id   JobID
	deps []JobID
	goal Goal
	opts JobOptions
}

// ID returns the job's id.
func (j *Job) ID() JobID {
	return j.id
}

// Deps returns the job's declared dependency ids.
// The scheduler reads them as a set; the order is kept only so
// diagnostics come out in submission order.
func (j *Job) Deps() []JobID {
	return j.deps
}

func (j *Job) label() string {
	if j.opts.Label != "" {
		return j.opts.Label
	}
	return string(j.id)
}
