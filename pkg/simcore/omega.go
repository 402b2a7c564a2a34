package simcore

import "math"

// retryDelay is how long an Omega scheduler waits before re-adding a job
// that needs another attempt, per spec.md §4.4's afterDelay(1.0, ...).
const retryDelay = 1.0

// retryAbandonThreshold and hardAbandonThreshold are the per-job attempt
// counts at which Omega gives up on a job: past retryAbandonThreshold a
// job is abandoned only if it has made zero progress at all (still
// holds every one of its original tasks); past hardAbandonThreshold it
// is abandoned unconditionally.
const (
	retryAbandonThreshold = 100
	hardAbandonThreshold  = 1000
)

// OmegaScheduler implements the Omega-style optimistic scheduling loop:
// every job is scheduled against a private CellState snapshot taken at
// the start of its think time, then committed against the shared ledger
// with SequenceNumbers conflict detection. A conflict means someone else
// moved the machines the job was counting on; the job is simply retried
// against a fresh snapshot.
type OmegaScheduler struct {
	BaseScheduler

	sim    *Simulator
	shared *CellState

	successPerDay map[int64]uint64
	failPerDay    map[int64]uint64
}

// NewOmegaScheduler constructs an OmegaScheduler bound to sim and the
// shared CellState it will commit claims against.
func NewOmegaScheduler(cfg OmegaSchedulerConfig, sim *Simulator, shared *CellState) *OmegaScheduler {
	return &OmegaScheduler{
		BaseScheduler: NewBaseScheduler(cfg.Name, cfg.ConstantThinkTimes, cfg.PerTaskThinkTimes, cfg.NumMachinesToBlackList),
		sim:           sim,
		shared:        shared,
		successPerDay: make(map[int64]uint64),
		failPerDay:    make(map[int64]uint64),
	}
}

// AddJob enqueues job and, if the scheduler is idle, starts its
// scheduling cycle immediately.
func (o *OmegaScheduler) AddJob(job *Job) {
	o.Enqueue(job, o.sim.CurrentTime())
	if !o.Scheduling {
		o.Scheduling = true
		o.scheduleNext()
	}
}

// scheduleNext pops the head of the pending queue and begins its think
// time, or clears the Scheduling flag when the queue is empty.
func (o *OmegaScheduler) scheduleNext() {
	if o.PendingLen() == 0 {
		o.Scheduling = false
		return
	}
	job := o.Dequeue()
	o.beginAttempt(job)
}

// beginAttempt records queueing stats, takes a private snapshot of the
// shared cell before any thinking starts, and schedules the attempt's
// resolution after the think delay elapses. Taking the snapshot here,
// not when the delay fires, is what makes the shared cell's state able
// to drift out from under the job during its think time — the source of
// every conflict Commit detects.
func (o *OmegaScheduler) beginAttempt(job *Job) {
	job.UpdateTimeInQueueStats(o.sim.CurrentTime())
	job.LastSchedulingStartTime = o.sim.CurrentTime()

	private := o.shared.Copy()
	think := o.GetThinkTime(job)
	o.sim.AfterDelay(think, func() {
		o.resolveAttempt(job, think, private)
	})
}

// resolveAttempt runs at the end of a job's think time: it places the
// job against the private snapshot taken in beginAttempt, commits
// whatever it found against the shared cell, updates counters, and
// hands control to finishAttempt to decide what happens to the job
// next. Every branch here ends by calling finishAttempt exactly once —
// it is what advances the scheduler to its next pending job.
func (o *OmegaScheduler) resolveAttempt(job *Job, think float64, private *CellState) {
	job.NumSchedulingAttempts++
	job.NumTaskSchedulingAttempts += uint64(job.UnscheduledTasks)
	isRetry := job.NumSchedulingAttempts > 1

	deltas := o.ScheduleJob(job, private)
	if len(deltas) == 0 {
		o.NumNoResourcesFoundSchedulingAttempts++
		o.RecordWastedTimeScheduling(job, think, !isRetry)
		o.recordOutcome(false)
		o.finishAttempt(job)
		return
	}

	result := o.shared.Commit(deltas, true, o.sim)

	for _, d := range result.Committed {
		job.UnscheduledTasks -= numTasksIn(d, job)
	}

	if isRetry {
		o.NumRetriedTransactions++
	}

	if len(result.Conflicted) > 0 {
		// Per spec.md §9's pinned Open Question: if any delta in the
		// batch conflicts, the job's entire think time for this attempt
		// counts as wasted, even the committed remainder under
		// Incremental mode.
		o.NumFailedTransactions++
		o.NumFailedTaskTransactions += uint64(len(result.Conflicted))
		o.RecordWastedTimeScheduling(job, think, !isRetry)
		o.recordOutcome(false)
	} else {
		o.NumSuccessfulTransactions++
		o.NumSuccessfulTaskTransactions += uint64(len(result.Committed))
		o.RecordUsefulTimeScheduling(job, think, !isRetry)
		o.recordOutcome(true)
	}

	o.finishAttempt(job)
}

// finishAttempt decides what happens to job once its attempt has been
// fully resolved, then always advances the scheduler to its next
// pending job — matching spec.md §4.4's last bullet: "set scheduling =
// false; if pending queue non-empty, set true and recurse into the
// next job", which runs unconditionally, independent of what happened
// to job.
func (o *OmegaScheduler) finishAttempt(job *Job) {
	if job.UnscheduledTasks > 0 {
		madeNoProgress := job.UnscheduledTasks == job.NumTasks
		switch {
		case job.NumSchedulingAttempts > hardAbandonThreshold:
			o.NumJobsTimedOutScheduling++
			o.sim.Log("job %d abandoned after %d scheduling attempts", job.ID, job.NumSchedulingAttempts)
		case job.NumSchedulingAttempts > retryAbandonThreshold && madeNoProgress:
			o.NumJobsTimedOutScheduling++
			o.sim.Log("job %d abandoned after %d scheduling attempts with no progress", job.ID, job.NumSchedulingAttempts)
		default:
			o.sim.AfterDelay(retryDelay, func() {
				o.AddJob(job)
			})
		}
	}

	o.scheduleNext()
}

// recordOutcome buckets the attempt's success/failure by simulated day.
func (o *OmegaScheduler) recordOutcome(success bool) {
	day := int64(o.sim.CurrentTime() / 86400)
	if success {
		o.successPerDay[day]++
	} else {
		o.failPerDay[day]++
	}
}

// SuccessesOnDay and FailuresOnDay expose the per-day counters recorded
// by recordOutcome.
func (o *OmegaScheduler) SuccessesOnDay(day int64) uint64 { return o.successPerDay[day] }
func (o *OmegaScheduler) FailuresOnDay(day int64) uint64  { return o.failPerDay[day] }

// numTasksIn recovers how many of job's tasks delta placed, from the
// CPU amount it claimed.
func numTasksIn(d *ClaimDelta, job *Job) uint32 {
	if job.CPUsPerTask <= 0 {
		return 0
	}
	return uint32(math.Round(d.CPUs / job.CPUsPerTask))
}
