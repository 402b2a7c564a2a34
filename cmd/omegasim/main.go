// Command omegasim drives one cluster-scheduling simulation run: it
// builds a shared cell, populates it with Omega and/or Mesos schedulers,
// replays a workload file against the discrete-event kernel, and records
// the outcome to a result-store database.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/casperlundberg/omegasim/internal/resultstore"
	"github.com/casperlundberg/omegasim/pkg/simcore"
)

func main() {
	var (
		configPath  = flag.String("config", "configs/run.json", "Path to run config (JSON, or YAML by .yaml/.yml extension)")
		dbPath      = flag.String("db", "omegasim.db", "Path to SQLite result-store database file")
		runName     = flag.String("name", "omegasim run", "Run name")
		description = flag.String("description", "", "Run description")
	)
	flag.Parse()

	cfg, err := LoadRunConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load run config: %v", err)
	}

	wl, loaded, err := loadWorkload(cfg.WorkloadPath)
	if err != nil {
		log.Fatalf("Failed to load workload: %v", err)
	}

	db, err := resultstore.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	repo := resultstore.NewRepository(db)

	run := &resultstore.Run{
		ID:          uuid.New().String(),
		Name:        *runName,
		Description: *description,
		StartedAt:   time.Now(),
		Status:      "running",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := repo.CreateRun(run); err != nil {
		log.Fatalf("Failed to record run start: %v", err)
	}

	sim := simcore.NewSimulator(cfg.Simulator)
	shared, err := simcore.NewCellState(cfg.CellState)
	if err != nil {
		log.Fatalf("Failed to build cell state: %v", err)
	}
	shared.Logf = sim.Log

	omegaSchedulers := make(map[string]*simcore.OmegaScheduler, len(cfg.OmegaSchedulers))
	for _, sc := range cfg.OmegaSchedulers {
		omegaSchedulers[sc.Name] = simcore.NewOmegaScheduler(sc, sim, shared)
	}

	mesosSchedulers := make(map[string]*simcore.MesosScheduler, len(cfg.MesosSchedulers))
	var allocator *simcore.MesosAllocator
	if cfg.MesosAllocator != nil {
		allocator, err = simcore.NewMesosAllocator(*cfg.MesosAllocator, sim, shared)
		if err != nil {
			log.Fatalf("Failed to build Mesos allocator: %v", err)
		}
		for _, sc := range cfg.MesosSchedulers {
			sched := simcore.NewMesosScheduler(sc.Name, sc.ConstantThinkTimes, sc.PerTaskThinkTimes)
			mesosSchedulers[sc.Name] = sched
			allocator.RequestOffer(sched)
		}
	}

	log.Printf("Loaded workload %q with %d jobs", wl.Name, wl.Len())
	for _, lj := range loaded {
		lj := lj
		if sched, ok := omegaSchedulers[lj.scheduler]; ok {
			sim.AfterDelay(lj.job.SubmittedAt, func() {
				sched.AddJob(lj.job)
			})
			continue
		}
		if sched, ok := mesosSchedulers[lj.scheduler]; ok {
			sim.AfterDelay(lj.job.SubmittedAt, func() {
				sched.Enqueue(lj.job, sim.CurrentTime())
			})
			continue
		}
		log.Fatalf("job %d references unknown scheduler %q", lj.job.ID, lj.scheduler)
	}

	log.Printf("Running simulation (max virtual time %.1f, wall-clock timeout %.1fs)", cfg.MaxVirtualTime, cfg.WallClockTimeout)
	start := time.Now()
	result := sim.Run(cfg.MaxVirtualTime, cfg.WallClockTimeout)
	log.Printf("Simulation %s after %d events, final virtual time %.4f (wall-clock %v)",
		result.Outcome, result.EventsRun, result.FinalTime, time.Since(start))
	if result.Err != nil {
		log.Printf("Simulation stopped early: %v", result.Err)
	}

	for name, sched := range omegaSchedulers {
		saveSchedulerSummary(repo, run.ID, name, "omega", &sched.BaseScheduler)
	}
	for name, sched := range mesosSchedulers {
		saveSchedulerSummary(repo, run.ID, name, "mesos", &sched.BaseScheduler)
	}

	status := "completed"
	switch result.Outcome {
	case simcore.TimedOut:
		status = "timed_out"
	case simcore.Failed:
		status = "failed"
	}
	if err := repo.EndRun(run.ID, status); err != nil {
		log.Printf("Failed to record run end: %v", err)
	}
	log.Printf("Run %s recorded. View with: statsserver -db %s", run.ID, *dbPath)
}

func saveSchedulerSummary(repo *resultstore.Repository, runID, name, kind string, b *simcore.BaseScheduler) {
	s := &resultstore.SchedulerSummary{
		RunID:                                 runID,
		SchedulerName:                         name,
		Kind:                                  kind,
		NumSuccessfulTransactions:             b.NumSuccessfulTransactions,
		NumFailedTransactions:                 b.NumFailedTransactions,
		NumSuccessfulTaskTransactions:         b.NumSuccessfulTaskTransactions,
		NumFailedTaskTransactions:             b.NumFailedTaskTransactions,
		NumRetriedTransactions:                b.NumRetriedTransactions,
		NumNoResourcesFoundSchedulingAttempts: b.NumNoResourcesFoundSchedulingAttempts,
		NumJobsTimedOutScheduling:             b.NumJobsTimedOutScheduling,
		UsefulTimeScheduling:                  b.UsefulTimeScheduling,
		WastedTimeScheduling:                  b.WastedTimeScheduling,
		CreatedAt:                             time.Now(),
	}
	if err := repo.SaveSchedulerSummary(s); err != nil {
		log.Printf("Failed to save summary for scheduler %q: %v", name, err)
	}
}
