package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/casperlundberg/omegasim/pkg/simcore"
)

// jobSpec is one entry in a workload file: everything NewJob needs to
// construct a Job, plus the scheduler that should receive it.
type jobSpec struct {
	ID           uint64  `json:"id"`
	SubmittedAt  float64 `json:"submitted_at"`
	WorkloadName string  `json:"workload_name"`
	NumTasks     uint32  `json:"num_tasks"`
	CPUsPerTask  float64 `json:"cpus_per_task"`
	MemPerTask   float64 `json:"mem_per_task"`
	TaskDuration float64 `json:"task_duration"`
	IsRigid      bool    `json:"is_rigid"`
	Scheduler    string  `json:"scheduler"`
}

// workloadFile is the on-disk shape of a workload: a name plus its jobs.
type workloadFile struct {
	Name string    `json:"name"`
	Jobs []jobSpec `json:"jobs"`
}

// loadedJob pairs a constructed Job with the scheduler name it should be
// submitted to.
type loadedJob struct {
	job       *simcore.Job
	scheduler string
}

// loadWorkload reads a workload file and returns both the Workload (for
// bookkeeping/reporting) and the ordered list of jobs paired with their
// destination scheduler, for the caller to schedule submit events with.
func loadWorkload(path string) (*simcore.Workload, []loadedJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read workload file: %w", err)
	}

	var wf workloadFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, nil, fmt.Errorf("failed to parse workload file: %w", err)
	}

	wl := simcore.NewWorkload(wf.Name)
	loaded := make([]loadedJob, 0, len(wf.Jobs))
	for _, js := range wf.Jobs {
		job := simcore.NewJob(js.ID, js.SubmittedAt, wf.Name, js.NumTasks, js.CPUsPerTask, js.MemPerTask, js.TaskDuration, js.IsRigid)
		if err := wl.AddJob(job); err != nil {
			return nil, nil, fmt.Errorf("failed to add job %d to workload %q: %w", js.ID, wf.Name, err)
		}
		loaded = append(loaded, loadedJob{job: job, scheduler: js.Scheduler})
	}

	return wl, loaded, nil
}
