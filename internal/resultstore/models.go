package resultstore

import "time"

// Run represents a single simulator invocation from start to finish.
type Run struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	Status      string     `json:"status"` // running, completed, timed_out, failed
	ConfigJSON  string      `json:"config_json"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SchedulerSummary captures one scheduler's final counters for a run, as
// reported by its BaseScheduler bookkeeping.
type SchedulerSummary struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	RunID         string    `json:"run_id" gorm:"index"`
	SchedulerName string    `json:"scheduler_name" gorm:"index"`
	Kind          string    `json:"kind"` // omega, mesos

	NumSuccessfulTransactions            uint64  `json:"num_successful_transactions"`
	NumFailedTransactions                uint64  `json:"num_failed_transactions"`
	NumSuccessfulTaskTransactions         uint64  `json:"num_successful_task_transactions"`
	NumFailedTaskTransactions             uint64  `json:"num_failed_task_transactions"`
	NumRetriedTransactions                uint64  `json:"num_retried_transactions"`
	NumNoResourcesFoundSchedulingAttempts uint64  `json:"num_no_resources_found_scheduling_attempts"`
	NumJobsTimedOutScheduling             uint64  `json:"num_jobs_timed_out_scheduling"`
	UsefulTimeScheduling                  float64 `json:"useful_time_scheduling"`
	WastedTimeScheduling                  float64 `json:"wasted_time_scheduling"`

	CreatedAt time.Time `json:"created_at"`
}

// SimEvent is one notable occurrence during a run: a commit conflict, a
// rollback, or a job abandonment, mirroring what Simulator.Log records
// as text but kept structured for querying.
type SimEvent struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	RunID         string    `json:"run_id" gorm:"index"`
	VirtualTime   float64   `json:"virtual_time" gorm:"index"`
	EventType     string    `json:"event_type"` // conflict, rollback, abandoned, troubled
	SchedulerName string    `json:"scheduler_name"`
	MachineID     int       `json:"machine_id"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// DailyOutcome is one scheduler's success/failure count for one
// simulated day, keyed the same way OmegaScheduler buckets them
// internally (floor(currentTime/86400)).
type DailyOutcome struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	RunID         string `json:"run_id" gorm:"index"`
	SchedulerName string `json:"scheduler_name" gorm:"index"`
	Day           int64  `json:"day"`
	Successes     uint64 `json:"successes"`
	Failures      uint64 `json:"failures"`
}
