package simcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SchedulerTestSuite struct {
	suite.Suite
}

func (s *SchedulerTestSuite) newCell() *CellState {
	cs, err := NewCellState(CellStateConfig{
		NumMachines:     3,
		CpusPerMachine:  4,
		MemPerMachine:   4,
		ConflictMode:    SequenceNumbers,
		TransactionMode: AllOrNothing,
	})
	require.NoError(s.T(), err)
	return cs
}

func (s *SchedulerTestSuite) TestGetThinkTimeCombinesConstantAndPerTask() {
	b := NewBaseScheduler("sched", map[string]float64{"batch": 2}, map[string]float64{"batch": 0.5}, 0)
	job := NewJob(1, 0, "batch", 4, 1, 1, 1, false)
	assert.Equal(s.T(), 2.0+0.5*4, b.GetThinkTime(job))
}

func (s *SchedulerTestSuite) TestGetThinkTimeDefaultsUnlistedWorkloadToZero() {
	b := NewBaseScheduler("sched", nil, nil, 0)
	job := NewJob(1, 0, "unknown", 4, 1, 1, 1, false)
	assert.Equal(s.T(), 0.0, b.GetThinkTime(job))
}

func (s *SchedulerTestSuite) TestEnqueueDequeueIsFIFO() {
	b := NewBaseScheduler("sched", nil, nil, 0)
	j1 := NewJob(1, 0, "batch", 1, 1, 1, 1, false)
	j2 := NewJob(2, 0, "batch", 1, 1, 1, 1, false)

	b.Enqueue(j1, 5)
	b.Enqueue(j2, 6)

	require.Equal(s.T(), 2, b.PendingLen())
	assert.Equal(s.T(), j1, b.Dequeue())
	assert.Equal(s.T(), j2, b.Dequeue())
	assert.Equal(s.T(), 5.0, j1.LastEnqueued)
}

func (s *SchedulerTestSuite) TestRemoveFromQueueDropsOnlyNamedJob() {
	b := NewBaseScheduler("sched", nil, nil, 0)
	j1 := NewJob(1, 0, "batch", 1, 1, 1, 1, false)
	j2 := NewJob(2, 0, "batch", 1, 1, 1, 1, false)
	b.Enqueue(j1, 0)
	b.Enqueue(j2, 0)

	b.RemoveFromQueue(j1)

	require.Equal(s.T(), 1, b.PendingLen())
	assert.Equal(s.T(), j2, b.Dequeue())
}

func (s *SchedulerTestSuite) TestScheduleJobElasticSplitsAcrossMachines() {
	b := NewBaseScheduler("sched", nil, nil, 0)
	cs := s.newCell()
	// 6 tasks at 1 cpu/1 mem each: 4 fit on machine 0, the remaining 2
	// spill onto machine 1, since the job is elastic.
	job := NewJob(1, 0, "batch", 6, 1, 1, 1, false)

	deltas := b.ScheduleJob(job, cs)

	require.Len(s.T(), deltas, 2)
	assert.Equal(s.T(), 0, deltas[0].MachineID)
	assert.Equal(s.T(), 4.0, deltas[0].CPUs)
	assert.Equal(s.T(), 1, deltas[1].MachineID)
	assert.Equal(s.T(), 2.0, deltas[1].CPUs)
	assert.Equal(s.T(), 4.0, cs.AllocatedCpus[0])
	assert.Equal(s.T(), 2.0, cs.AllocatedCpus[1])
}

func (s *SchedulerTestSuite) TestScheduleJobRigidSkipsMachinesItCannotFullyFill() {
	b := NewBaseScheduler("sched", nil, nil, 0)
	cs := s.newCell()
	// Consume 2 of machine 0's 4 cpus so only machine 1 can hold all 4
	// tasks of a rigid job in one claim.
	require.NoError(s.T(), NewClaimDelta("other", 0, cs, 100, 2, 2).Apply(cs, false))

	job := NewJob(2, 0, "batch", 4, 1, 1, 1, true)
	deltas := b.ScheduleJob(job, cs)

	require.Len(s.T(), deltas, 1)
	assert.Equal(s.T(), 1, deltas[0].MachineID)
	assert.Equal(s.T(), 4.0, deltas[0].CPUs)
}

func (s *SchedulerTestSuite) TestScheduleJobHonorsBlacklistedMachines() {
	b := NewBaseScheduler("sched", nil, nil, 2)
	cs := s.newCell()
	job := NewJob(1, 0, "batch", 4, 1, 1, 1, false)

	deltas := b.ScheduleJob(job, cs)

	require.Len(s.T(), deltas, 1)
	assert.Equal(s.T(), 0, deltas[0].MachineID)
	assert.Equal(s.T(), 4.0, deltas[0].CPUs)
	assert.Equal(s.T(), 0.0, cs.AllocatedCpus[1])
	assert.Equal(s.T(), 0.0, cs.AllocatedCpus[2])
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}
