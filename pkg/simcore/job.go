package simcore

import "math"

// Job is a data-only scheduling unit: immutable identity plus mutable
// scheduling counters updated by schedulers and recorded by the
// simulator's bookkeeping. Job carries no behavior beyond the small set
// of derived quantities schedulers need at placement time.
type Job struct {
	// Identity, fixed at creation.
	ID            uint64
	SubmittedAt   float64
	WorkloadName  string
	NumTasks      uint32
	CPUsPerTask   float64
	MemPerTask    float64
	IsRigid       bool

	// Mutable scheduling state.
	TaskDuration     float64
	UnscheduledTasks uint32

	TimeInQueueTillFirstScheduled float64
	TimeInQueueTillFullyScheduled float64
	LastEnqueued                  float64
	LastSchedulingStartTime       float64

	NumSchedulingAttempts     uint64
	NumTaskSchedulingAttempts uint64

	UsefulTimeScheduling float64
	WastedTimeScheduling float64

	firstScheduledRecorded bool
}

// NewJob constructs a Job with UnscheduledTasks initialized to NumTasks.
func NewJob(id uint64, submittedAt float64, workloadName string, numTasks uint32, cpusPerTask, memPerTask, taskDuration float64, isRigid bool) *Job {
	return &Job{
		ID:               id,
		SubmittedAt:      submittedAt,
		WorkloadName:     workloadName,
		NumTasks:         numTasks,
		CPUsPerTask:      cpusPerTask,
		MemPerTask:       memPerTask,
		TaskDuration:     taskDuration,
		IsRigid:          isRigid,
		UnscheduledTasks: numTasks,
	}
}

// CPUsStillNeeded returns the total CPU still required to fully schedule
// the job's remaining tasks.
func (j *Job) CPUsStillNeeded() float64 {
	return j.CPUsPerTask * float64(j.UnscheduledTasks)
}

// MemStillNeeded returns the total memory still required to fully
// schedule the job's remaining tasks.
func (j *Job) MemStillNeeded() float64 {
	return j.MemPerTask * float64(j.UnscheduledTasks)
}

// NumTasksToSchedule returns how many of the job's unscheduled tasks fit
// given cpusAvail/memAvail, each first floor-rounded to the task
// multiple. Returns 0 when either availability is exactly 0 or the job
// has no remaining tasks.
func (j *Job) NumTasksToSchedule(cpusAvail, memAvail float64) uint32 {
	if cpusAvail <= 0 || memAvail <= 0 || j.UnscheduledTasks == 0 {
		return 0
	}
	if j.CPUsPerTask <= 0 || j.MemPerTask <= 0 {
		return 0
	}

	byCPU := uint32(math.Floor(cpusAvail / j.CPUsPerTask))
	byMem := uint32(math.Floor(memAvail / j.MemPerTask))

	n := j.UnscheduledTasks
	if byCPU < n {
		n = byCPU
	}
	if byMem < n {
		n = byMem
	}
	return n
}

// UpdateTimeInQueueStats records how long the job has waited in a
// scheduler's queue as of now. Called once per scheduling cycle, before
// the scheduler thinks about the job. The "till first scheduled" bucket
// latches the first time this is called for the job; the "till fully
// scheduled" bucket accumulates every call while tasks remain
// unscheduled.
func (j *Job) UpdateTimeInQueueStats(now float64) {
	waited := now - j.LastEnqueued
	if waited < 0 {
		waited = 0
	}
	if !j.firstScheduledRecorded {
		j.TimeInQueueTillFirstScheduled += waited
		j.firstScheduledRecorded = true
	}
	if j.UnscheduledTasks > 0 {
		j.TimeInQueueTillFullyScheduled += waited
	}
}

// RecordUsefulTimeScheduling accumulates the job's own useful-time
// bucket; the scheduler accumulates the matching bucket on itself.
func (j *Job) RecordUsefulTimeScheduling(think float64) {
	j.UsefulTimeScheduling += think
}

// RecordWastedTimeScheduling accumulates the job's own wasted-time
// bucket; the scheduler accumulates the matching bucket on itself.
func (j *Job) RecordWastedTimeScheduling(think float64) {
	j.WastedTimeScheduling += think
}
