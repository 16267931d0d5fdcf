package cron

import (
	"context"
	"time"
)

// AbsenceJobs wires the absence sweep into the scheduler. The cron trigger
// and the administrative HTTP trigger share the same underlying sweep.
type AbsenceJobs struct {
	run func(ctx context.Context) error
}

func NewAbsenceJobs(run func(ctx context.Context) error) *AbsenceJobs {
	return &AbsenceJobs{run: run}
}

func (j *AbsenceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("mark_absent_employees", interval, j.run)
}
