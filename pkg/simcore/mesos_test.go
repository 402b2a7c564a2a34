package simcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func newMesosFixture(t *testing.T) (*Simulator, *CellState, *MesosAllocator) {
	sim := NewSimulator(SimulatorConfig{})
	shared, err := NewCellState(CellStateConfig{
		NumMachines:     2,
		CpusPerMachine:  4,
		MemPerMachine:   8,
		ConflictMode:    ResourceFit,
		TransactionMode: Incremental,
	})
	require.NoError(t, err)

	alloc, err := NewMesosAllocator(MesosAllocatorConfig{
		ConstantThinkTime:  0,
		MinCpuOffer:        1,
		MinMemOffer:        1,
		OfferBatchInterval: 1,
	}, sim, shared)
	require.NoError(t, err)

	return sim, shared, alloc
}

type MesosTestSuite struct {
	suite.Suite
}

func (s *MesosTestSuite) TestConstructorRequiresResourceFit() {
	sim := NewSimulator(SimulatorConfig{})
	shared, err := NewCellState(CellStateConfig{
		NumMachines: 1, CpusPerMachine: 1, MemPerMachine: 1,
		ConflictMode: SequenceNumbers, TransactionMode: AllOrNothing,
	})
	require.NoError(s.T(), err)

	_, err = NewMesosAllocator(DefaultMesosAllocatorConfig(), sim, shared)
	assert.ErrorIs(s.T(), err, ErrInvalidConfig)
}

func (s *MesosTestSuite) TestSingleSchedulerReceivesFullOffer() {
	sim, shared, alloc := newMesosFixture(s.T())
	sched := NewMesosScheduler("mesos-1", map[string]float64{"batch": 0}, map[string]float64{"batch": 0})

	job := NewJob(1, 0, "batch", 2, 1, 1, 10, false)
	sched.Enqueue(job, 0)
	alloc.RequestOffer(sched)

	// The allocator keeps batching offers forever (matching real Mesos's
	// periodic-offer behavior), so this run is bounded: everything this
	// test checks resolves in the very first batch, well inside the cap.
	sim.Run(5, 0)

	assert.Equal(s.T(), uint32(0), job.UnscheduledTasks)
	assert.Equal(s.T(), 2.0, shared.AllocatedCpus[0]+shared.AllocatedCpus[1])
}

func (s *MesosTestSuite) TestDRFPicksLowerShareScheduler() {
	_, shared, alloc := newMesosFixture(s.T())

	heavy := NewMesosScheduler("heavy", nil, nil)
	light := NewMesosScheduler("light", nil, nil)

	// heavy already occupies resources elsewhere, so it has a higher
	// dominant share than light, which starts at zero.
	require.NoError(s.T(), NewClaimDelta("heavy", 1, shared, 1000, 3, 3).Apply(shared, false))

	alloc.RequestOffer(heavy)
	alloc.RequestOffer(light)

	candidate := alloc.drfCandidate()
	assert.Equal(s.T(), "light", candidate.Name)
}

func (s *MesosTestSuite) TestRespondToOfferReleasesUnclaimedLock() {
	sim, shared, alloc := newMesosFixture(s.T())
	sched := NewMesosScheduler("mesos-1", map[string]float64{"batch": 0}, map[string]float64{"batch": 0})

	// A job that only needs a sliver of the cell's capacity; whatever was
	// locked beyond that must be released back, not left dangling.
	job := NewJob(1, 0, "batch", 1, 1, 1, 10, false)
	sched.Enqueue(job, 0)
	alloc.RequestOffer(sched)

	sim.Run(5, 0)

	assert.Equal(s.T(), 0.0, shared.TotalLockedCpus)
	assert.Equal(s.T(), 0.0, shared.TotalLockedMem)
	assert.Equal(s.T(), 1.0, shared.TotalOccupiedCpus)
}

func (s *MesosTestSuite) TestRespondToOfferSurfacesProtocolViolationOnConflict() {
	sim, shared, alloc := newMesosFixture(s.T())

	// Fabricate a chosen delta that asks for far more than the machine
	// actually has free — something a scheduler restricted to its own
	// locked offer snapshot should never be able to produce — to force
	// the commit-phase conflict RespondToOffer treats as a protocol
	// violation.
	offer := &Offer{ID: "offer-1", SchedulerName: "mesos-1", CellStateSnapshot: shared.Copy()}
	bogus := NewClaimDelta("mesos-1", 0, shared, 10, 1000, 1000)

	sim.AfterDelay(0, func() {
		alloc.RespondToOffer(offer, []*ClaimDelta{bogus})
	})

	result := sim.Run(5, 0)

	assert.Equal(s.T(), Failed, result.Outcome)
	require.Error(s.T(), result.Err)
	assert.ErrorIs(s.T(), result.Err, ErrProtocolViolation)
}

func (s *MesosTestSuite) TestTimeSpentAllocatingAccumulatesPerDeliveredOffer() {
	sim := NewSimulator(SimulatorConfig{})
	shared, err := NewCellState(CellStateConfig{
		NumMachines:     2,
		CpusPerMachine:  4,
		MemPerMachine:   8,
		ConflictMode:    ResourceFit,
		TransactionMode: Incremental,
	})
	require.NoError(s.T(), err)
	alloc, err := NewMesosAllocator(MesosAllocatorConfig{
		ConstantThinkTime:  2,
		MinCpuOffer:        1,
		MinMemOffer:        1,
		OfferBatchInterval: 1,
	}, sim, shared)
	require.NoError(s.T(), err)

	sched := NewMesosScheduler("mesos-1", map[string]float64{"batch": 0}, map[string]float64{"batch": 0})
	job := NewJob(1, 0, "batch", 1, 1, 1, 10, false)
	sched.Enqueue(job, 0)
	alloc.RequestOffer(sched)

	sim.Run(5, 0)

	assert.Equal(s.T(), 2.0, alloc.TimeSpentAllocating())
}

func TestMesosTestSuite(t *testing.T) {
	suite.Run(t, new(MesosTestSuite))
}
