package resultstore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository provides data access methods over a result-store database.
type Repository struct {
	db *DB
}

// NewRepository wraps db in a Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new run record.
func (r *Repository) CreateRun(run *Run) error {
	return r.db.Create(run).Error
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(id string) (*Run, error) {
	var run Run
	if err := r.db.First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns lists all runs, most recent first.
func (r *Repository) ListRuns() ([]Run, error) {
	var runs []Run
	err := r.db.Order("created_at DESC").Find(&runs).Error
	return runs, err
}

// EndRun marks a run as finished with the given terminal status.
func (r *Repository) EndRun(id, status string) error {
	now := time.Now()
	return r.db.Model(&Run{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ended_at": now,
			"status":   status,
		}).Error
}

// SaveSchedulerSummary persists one scheduler's final counters for a run.
func (r *Repository) SaveSchedulerSummary(s *SchedulerSummary) error {
	return r.db.Create(s).Error
}

// GetSchedulerSummaries retrieves every scheduler's summary for a run.
func (r *Repository) GetSchedulerSummaries(runID string) ([]SchedulerSummary, error) {
	var summaries []SchedulerSummary
	err := r.db.Where("run_id = ?", runID).Order("scheduler_name ASC").Find(&summaries).Error
	return summaries, err
}

// SaveEvent persists one SimEvent.
func (r *Repository) SaveEvent(e *SimEvent) error {
	return r.db.Create(e).Error
}

// GetEvents retrieves events for a run, optionally filtered by type.
func (r *Repository) GetEvents(runID, eventType string) ([]SimEvent, error) {
	var events []SimEvent
	query := r.db.Where("run_id = ?", runID)
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	err := query.Order("virtual_time ASC").Find(&events).Error
	return events, err
}

// SaveDailyOutcome persists one scheduler/day success-failure bucket.
func (r *Repository) SaveDailyOutcome(o *DailyOutcome) error {
	return r.db.Create(o).Error
}

// GetDailyOutcomes retrieves the per-day buckets for a scheduler within a
// run, ordered by day.
func (r *Repository) GetDailyOutcomes(runID, schedulerName string) ([]DailyOutcome, error) {
	var outcomes []DailyOutcome
	err := r.db.Where("run_id = ? AND scheduler_name = ?", runID, schedulerName).
		Order("day ASC").
		Find(&outcomes).Error
	return outcomes, err
}

// BatchSaveDailyOutcomes inserts multiple buckets in one statement.
func (r *Repository) BatchSaveDailyOutcomes(outcomes []DailyOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	return r.db.CreateInBatches(outcomes, 100).Error
}

// DeleteRun removes a run and every record associated with it.
func (r *Repository) DeleteRun(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&SchedulerSummary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", id).Delete(&SimEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", id).Delete(&DailyOutcome{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Run{}).Error
	})
}

// RunSummary is the aggregated view GetRunSummary returns: the run
// itself plus roll-up totals across all of its schedulers.
type RunSummary struct {
	Run        *Run               `json:"run"`
	Schedulers []SchedulerSummary `json:"schedulers"`
	Totals     struct {
		NumSuccessfulTransactions uint64  `json:"num_successful_transactions"`
		NumFailedTransactions     uint64  `json:"num_failed_transactions"`
		UsefulTimeScheduling      float64 `json:"useful_time_scheduling"`
		WastedTimeScheduling      float64 `json:"wasted_time_scheduling"`
	} `json:"totals"`
}

// GetRunSummary builds the aggregated RunSummary for a run.
func (r *Repository) GetRunSummary(runID string) (*RunSummary, error) {
	run, err := r.GetRun(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	summaries, err := r.GetSchedulerSummaries(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduler summaries: %w", err)
	}

	out := &RunSummary{Run: run, Schedulers: summaries}
	for _, s := range summaries {
		out.Totals.NumSuccessfulTransactions += s.NumSuccessfulTransactions
		out.Totals.NumFailedTransactions += s.NumFailedTransactions
		out.Totals.UsefulTimeScheduling += s.UsefulTimeScheduling
		out.Totals.WastedTimeScheduling += s.WastedTimeScheduling
	}
	return out, nil
}
