package cron

import "context"

// Job is a unit of scheduled maintenance. Name doubles as the metrics label.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps jobs in registration order, one per name.
type Registry struct {
	jobs  []Job
	names map[string]int
}

func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{names: make(map[string]int)}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register adds job, replacing an earlier job with the same name in place.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if idx, ok := r.names[job.Name()]; ok {
		r.jobs[idx] = job
		return
	}
	r.names[job.Name()] = len(r.jobs)
	r.jobs = append(r.jobs, job)
}

func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
