package simcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ClaimDeltaTestSuite struct {
	suite.Suite
}

func (s *ClaimDeltaTestSuite) newCell() *CellState {
	cs, err := NewCellState(CellStateConfig{
		NumMachines:     2,
		CpusPerMachine:  8,
		MemPerMachine:   16,
		ConflictMode:    SequenceNumbers,
		TransactionMode: AllOrNothing,
	})
	require.NoError(s.T(), err)
	return cs
}

func (s *ClaimDeltaTestSuite) TestNewClaimDeltaStampsCurrentSeqNum() {
	cs := s.newCell()
	d1 := NewClaimDelta("a", 0, cs, 10, 1, 1)
	require.NoError(s.T(), d1.Apply(cs, false))

	d2 := NewClaimDelta("b", 0, cs, 10, 1, 1)
	assert.Equal(s.T(), uint32(1), d2.MachineSeqNum)
}

func (s *ClaimDeltaTestSuite) TestApplyUnapplyRoundTrip() {
	cs := s.newCell()
	d := NewClaimDelta("a", 0, cs, 10, 3, 5)

	require.NoError(s.T(), d.Apply(cs, false))
	assert.Equal(s.T(), 3.0, cs.AllocatedCpus[0])
	assert.Equal(s.T(), 5.0, cs.AllocatedMem[0])

	require.NoError(s.T(), d.Unapply(cs, false))
	assert.Equal(s.T(), 0.0, cs.AllocatedCpus[0])
	assert.Equal(s.T(), 0.0, cs.AllocatedMem[0])
}

func (s *ClaimDeltaTestSuite) TestUnapplyNeverDecrementsSeqNum() {
	cs := s.newCell()
	d := NewClaimDelta("a", 0, cs, 10, 1, 1)
	require.NoError(s.T(), d.Apply(cs, false))
	require.NoError(s.T(), d.Unapply(cs, false))
	assert.Equal(s.T(), uint32(1), cs.CurrentMachineSeqNum(0))
}

func (s *ClaimDeltaTestSuite) TestLockedApplyDoesNotTouchSeqNum() {
	cs := s.newCell()
	d := NewClaimDelta("a", 0, cs, 10, 1, 1)
	require.NoError(s.T(), d.Apply(cs, true))
	assert.Equal(s.T(), uint32(0), cs.CurrentMachineSeqNum(0))
	assert.Equal(s.T(), 1.0, cs.LockedCpus["a"])
}

func TestClaimDeltaTestSuite(t *testing.T) {
	suite.Run(t, new(ClaimDeltaTestSuite))
}
