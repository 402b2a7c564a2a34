package simcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type WorkloadTestSuite struct {
	suite.Suite
}

func (s *WorkloadTestSuite) TestAddJobRejectsNameMismatch() {
	wl := NewWorkload("batch")
	job := NewJob(1, 0, "other", 1, 1, 1, 1, false)
	err := wl.AddJob(job)
	assert.ErrorIs(s.T(), err, ErrWorkloadMismatch)
	assert.Equal(s.T(), 0, wl.Len())
}

func (s *WorkloadTestSuite) TestAddJobAppendsInOrder() {
	wl := NewWorkload("batch")
	j1 := NewJob(1, 0, "batch", 1, 1, 1, 1, false)
	j2 := NewJob(2, 0, "batch", 1, 1, 1, 1, false)

	require.NoError(s.T(), wl.AddJob(j1))
	require.NoError(s.T(), wl.AddJob(j2))
	require.Equal(s.T(), 2, wl.Len())
	assert.Equal(s.T(), uint64(1), wl.Jobs[0].ID)
	assert.Equal(s.T(), uint64(2), wl.Jobs[1].ID)
}

func (s *WorkloadTestSuite) TestCopyIsIndependent() {
	wl := NewWorkload("batch")
	job := NewJob(1, 0, "batch", 5, 1, 1, 1, false)
	require.NoError(s.T(), wl.AddJob(job))

	cp := wl.Copy()
	cp.Jobs[0].UnscheduledTasks = 0

	assert.Equal(s.T(), uint32(5), wl.Jobs[0].UnscheduledTasks)
	assert.Equal(s.T(), uint32(0), cp.Jobs[0].UnscheduledTasks)
}

func TestWorkloadTestSuite(t *testing.T) {
	suite.Run(t, new(WorkloadTestSuite))
}
