package simcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type JobTestSuite struct {
	suite.Suite
}

func (s *JobTestSuite) TestNewJobInitializesUnscheduledTasks() {
	j := NewJob(1, 0, "wl", 10, 1, 2, 30, false)
	assert.Equal(s.T(), uint32(10), j.UnscheduledTasks)
	assert.Equal(s.T(), 10.0, j.CPUsStillNeeded())
	assert.Equal(s.T(), 20.0, j.MemStillNeeded())
}

func (s *JobTestSuite) TestNumTasksToScheduleCapsByScarcerResource() {
	j := NewJob(1, 0, "wl", 10, 2, 1, 30, false)
	// 10 cpus / 2 per task = 5 tasks; 3 mem / 1 per task = 3 tasks.
	assert.Equal(s.T(), uint32(3), j.NumTasksToSchedule(10, 3))
}

func (s *JobTestSuite) TestNumTasksToScheduleNeverExceedsUnscheduled() {
	j := NewJob(1, 0, "wl", 2, 1, 1, 30, false)
	assert.Equal(s.T(), uint32(2), j.NumTasksToSchedule(100, 100))
}

func (s *JobTestSuite) TestNumTasksToScheduleZeroWhenNothingAvailable() {
	j := NewJob(1, 0, "wl", 2, 1, 1, 30, false)
	assert.Equal(s.T(), uint32(0), j.NumTasksToSchedule(0, 10))
	assert.Equal(s.T(), uint32(0), j.NumTasksToSchedule(10, 0))
}

func (s *JobTestSuite) TestUpdateTimeInQueueStatsLatchesFirstScheduled() {
	j := NewJob(1, 0, "wl", 2, 1, 1, 30, false)
	j.LastEnqueued = 5
	j.UpdateTimeInQueueStats(10)
	assert.Equal(s.T(), 5.0, j.TimeInQueueTillFirstScheduled)
	assert.Equal(s.T(), 5.0, j.TimeInQueueTillFullyScheduled)

	j.LastEnqueued = 10
	j.UpdateTimeInQueueStats(12)
	// First-scheduled bucket latches; fully-scheduled keeps accumulating.
	assert.Equal(s.T(), 5.0, j.TimeInQueueTillFirstScheduled)
	assert.Equal(s.T(), 7.0, j.TimeInQueueTillFullyScheduled)
}

func (s *JobTestSuite) TestUpdateTimeInQueueStatsStopsAccumulatingOnceFullyScheduled() {
	j := NewJob(1, 0, "wl", 1, 1, 1, 30, false)
	j.UnscheduledTasks = 0
	j.LastEnqueued = 0
	j.UpdateTimeInQueueStats(100)
	assert.Equal(s.T(), 0.0, j.TimeInQueueTillFullyScheduled)
}

func (s *JobTestSuite) TestRecordTimeBuckets() {
	j := NewJob(1, 0, "wl", 1, 1, 1, 30, false)
	j.RecordUsefulTimeScheduling(1.5)
	j.RecordWastedTimeScheduling(2.5)
	assert.Equal(s.T(), 1.5, j.UsefulTimeScheduling)
	assert.Equal(s.T(), 2.5, j.WastedTimeScheduling)
}

func TestJobTestSuite(t *testing.T) {
	suite.Run(t, new(JobTestSuite))
}
