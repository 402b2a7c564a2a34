package simcore

// BaseScheduler holds the bookkeeping and first-fit placement algorithm
// shared by every scheduler style in this module (Omega's optimistic
// loop and the Mesos-side scheduler that responds to offers). It is
// meant to be embedded, not used standalone.
type BaseScheduler struct {
	Name                   string
	ConstantThinkTime      map[string]float64
	PerTaskThinkTime       map[string]float64
	NumMachinesToBlackList uint32

	pending    []*Job
	Scheduling bool

	NumSuccessfulTransactions             uint64
	NumFailedTransactions                 uint64
	NumSuccessfulTaskTransactions          uint64
	NumFailedTaskTransactions              uint64
	NumRetriedTransactions                 uint64
	NumNoResourcesFoundSchedulingAttempts  uint64
	NumJobsTimedOutScheduling              uint64

	UsefulTimeScheduling float64
	WastedTimeScheduling float64
}

// NewBaseScheduler constructs a BaseScheduler from config.
func NewBaseScheduler(name string, constantThinkTime, perTaskThinkTime map[string]float64, numMachinesToBlackList uint32) BaseScheduler {
	if constantThinkTime == nil {
		constantThinkTime = map[string]float64{}
	}
	if perTaskThinkTime == nil {
		perTaskThinkTime = map[string]float64{}
	}
	return BaseScheduler{
		Name:                   name,
		ConstantThinkTime:      constantThinkTime,
		PerTaskThinkTime:       perTaskThinkTime,
		NumMachinesToBlackList: numMachinesToBlackList,
	}
}

// GetThinkTime returns constant[workload] + perTask[workload]*unscheduledTasks,
// defaulting either map lookup to 0 when the workload is unlisted.
func (b *BaseScheduler) GetThinkTime(job *Job) float64 {
	return b.ConstantThinkTime[job.WorkloadName] + b.PerTaskThinkTime[job.WorkloadName]*float64(job.UnscheduledTasks)
}

// Enqueue appends job to the pending FIFO queue and stamps its
// LastEnqueued time.
func (b *BaseScheduler) Enqueue(job *Job, now float64) {
	job.LastEnqueued = now
	b.pending = append(b.pending, job)
}

// PendingLen reports how many jobs are waiting in the queue.
func (b *BaseScheduler) PendingLen() int { return len(b.pending) }

// Dequeue removes and returns the job at the front of the queue.
func (b *BaseScheduler) Dequeue() *Job {
	job := b.pending[0]
	b.pending = b.pending[1:]
	return job
}

// RemoveFromQueue removes job from the pending queue, e.g. on abandonment.
func (b *BaseScheduler) RemoveFromQueue(job *Job) {
	for i, j := range b.pending {
		if j == job {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return
		}
	}
}

// RecordUsefulTimeScheduling credits think to both the scheduler's and
// the job's useful-time bucket. isFirstAttempt is carried for callers
// that distinguish first-attempt from retry bookkeeping of their own;
// the scheduler- and job-level buckets themselves do not split on it.
func (b *BaseScheduler) RecordUsefulTimeScheduling(job *Job, think float64, isFirstAttempt bool) {
	b.UsefulTimeScheduling += think
	job.RecordUsefulTimeScheduling(think)
}

// RecordWastedTimeScheduling credits think to both the scheduler's and
// the job's wasted-time bucket.
func (b *BaseScheduler) RecordWastedTimeScheduling(job *Job, think float64, isFirstAttempt bool) {
	b.WastedTimeScheduling += think
	job.RecordWastedTimeScheduling(think)
}

// ScheduleJob runs first-fit placement for job over cs's machines
// 0..numMachines-1-numMachinesToBlackList, applying each claim to cs
// immediately so later machines see reduced availability. Elastic jobs
// (IsRigid == false) may be split across several ClaimDeltas; rigid jobs
// only ever produce a delta that places every one of their remaining
// tasks in a single claim on a single machine — no partial placement.
func (b *BaseScheduler) ScheduleJob(job *Job, cs *CellState) []*ClaimDelta {
	var deltas []*ClaimDelta
	var alreadyPlanned uint32

	lastMachine := int(cs.NumMachines) - int(b.NumMachinesToBlackList)
	for m := 0; m < lastMachine; m++ {
		remaining := job.UnscheduledTasks - alreadyPlanned
		if remaining == 0 {
			break
		}

		k := job.NumTasksToSchedule(cs.AvailableCpusOn(m), cs.AvailableMemOn(m))
		if k > remaining {
			k = remaining
		}
		if k == 0 {
			continue
		}
		if job.IsRigid && k < job.UnscheduledTasks {
			// A rigid job cannot be split; this machine cannot host all
			// of its remaining tasks at once, so it is skipped.
			continue
		}

		delta := NewClaimDelta(b.Name, m, cs, job.TaskDuration, float64(k)*job.CPUsPerTask, float64(k)*job.MemPerTask)
		if err := delta.Apply(cs, false); err != nil {
			continue
		}
		deltas = append(deltas, delta)
		alreadyPlanned += k

		if job.IsRigid {
			break
		}
	}

	return deltas
}
