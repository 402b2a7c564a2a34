package simcore

import (
	"sort"

	"github.com/google/uuid"
)

// Offer is one resource offer built by MesosAllocator: a snapshot of the
// shared cell taken immediately before the corresponding ClaimDeltas were
// locked against it, handed to exactly one MesosScheduler to choose from.
type Offer struct {
	ID                string
	SchedulerName     string
	CellStateSnapshot *CellState
}

// MesosScheduler is a Mesos-style client of MesosAllocator: it requests
// offers, is handed them one at a time, and decides which of the offered
// resources to actually claim.
type MesosScheduler struct {
	BaseScheduler

	allocator *MesosAllocator
}

// NewMesosScheduler constructs a MesosScheduler; it must be registered
// with an allocator via MesosAllocator.RequestOffer before it can receive
// offers.
func NewMesosScheduler(name string, constantThinkTime, perTaskThinkTime map[string]float64) *MesosScheduler {
	return &MesosScheduler{
		BaseScheduler: NewBaseScheduler(name, constantThinkTime, perTaskThinkTime, 0),
	}
}

// ScheduleAllAvailable claims every machine's full spare capacity on cs
// as a single ClaimDelta per machine with non-zero availability, applying
// each claim immediately (locked, per Mesos's two-phase offer protocol).
// It is independent of any particular job: it simply stakes out whatever
// the cell currently has free.
func (m *MesosScheduler) ScheduleAllAvailable(cs *CellState, locked bool) []*ClaimDelta {
	var deltas []*ClaimDelta
	for machineID := 0; machineID < int(cs.NumMachines); machineID++ {
		cpus := cs.AvailableCpusOn(machineID)
		mem := cs.AvailableMemOn(machineID)
		if cpus <= 0 || mem <= 0 {
			continue
		}
		delta := NewClaimDelta(m.Name, machineID, cs, 0, cpus, mem)
		if err := delta.Apply(cs, locked); err != nil {
			continue
		}
		deltas = append(deltas, delta)
	}
	return deltas
}

// ResourceOffer is the allocator's callback once an offer has been built
// for m: it runs first-fit placement for queued jobs against the offer's
// private snapshot in FIFO order, stopping at the first job the offer
// cannot even partially satisfy (head-of-line blocking, matching the
// plain FIFO queue the rest of this module uses), then responds to the
// allocator with whatever it chose to claim.
func (m *MesosScheduler) ResourceOffer(offer *Offer) {
	var chosen []*ClaimDelta

	for m.PendingLen() > 0 {
		job := m.Dequeue()
		think := m.GetThinkTime(job)

		deltas := m.ScheduleJob(job, offer.CellStateSnapshot)
		if len(deltas) == 0 {
			m.NumNoResourcesFoundSchedulingAttempts++
			m.RecordWastedTimeScheduling(job, think, true)
			m.Enqueue(job, job.LastEnqueued)
			break
		}

		for _, d := range deltas {
			job.UnscheduledTasks -= numTasksIn(d, job)
		}
		m.RecordUsefulTimeScheduling(job, think, true)
		chosen = append(chosen, deltas...)

		if job.UnscheduledTasks > 0 {
			m.Enqueue(job, job.LastEnqueued)
		}
	}

	m.allocator.RespondToOffer(offer, chosen)
}

// MesosAllocator is the central broker between the shared cell and the
// registered MesosSchedulers: it batches offer requests, picks the
// least-dominant-share requester via DRF, and mediates the lock/commit
// protocol every offer goes through.
type MesosAllocator struct {
	sim    *Simulator
	shared *CellState
	cfg    MesosAllocatorConfig

	requesters    []*MesosScheduler
	requesting    map[string]bool
	offeredDeltas map[string][]*ClaimDelta

	batchScheduled bool

	// timeSpentAllocating accumulates the allocator's own think time
	// (spec.md §4.5 Build step) each time an offer is sent, i.e. when its
	// delivery to a candidate is scheduled.
	timeSpentAllocating float64
}

// NewMesosAllocator constructs a MesosAllocator. shared must use
// ResourceFit conflict detection; Mesos's offer protocol depends on plain
// availability checks, not sequence numbers, since offered resources are
// locked rather than optimistically claimed.
func NewMesosAllocator(cfg MesosAllocatorConfig, sim *Simulator, shared *CellState) (*MesosAllocator, error) {
	if errs := cfg.Validate(); errs.HasErrors() {
		return nil, newErr(InvalidConfig, "%s", errs.Error())
	}
	if shared.ConflictMode != ResourceFit {
		return nil, newErr(InvalidConfig, "MesosAllocator requires ResourceFit conflict mode, got %s", shared.ConflictMode)
	}

	return &MesosAllocator{
		sim:           sim,
		shared:        shared,
		cfg:           cfg,
		requesting:    make(map[string]bool),
		offeredDeltas: make(map[string][]*ClaimDelta),
	}, nil
}

// RequestOffer registers sched as wanting offers and binds it to this
// allocator. It is idempotent: requesting again while already registered
// has no effect beyond ensuring a batch is scheduled.
func (a *MesosAllocator) RequestOffer(sched *MesosScheduler) {
	sched.allocator = a
	if !a.requesting[sched.Name] {
		a.requesting[sched.Name] = true
		a.requesters = append(a.requesters, sched)
	}
	a.scheduleBatch()
}

// CancelOfferRequest removes sched from the requesting set; it will not
// be considered a DRF candidate until it calls RequestOffer again.
func (a *MesosAllocator) CancelOfferRequest(sched *MesosScheduler) {
	delete(a.requesting, sched.Name)
	for i, s := range a.requesters {
		if s == sched {
			a.requesters = append(a.requesters[:i], a.requesters[i+1:]...)
			return
		}
	}
}

// scheduleBatch arms a single pending buildAndSendOffer call at
// now+OfferBatchInterval; further calls while one is already pending are
// no-ops, coalescing bursts of RequestOffer calls into one batch.
func (a *MesosAllocator) scheduleBatch() {
	if a.batchScheduled {
		return
	}
	a.batchScheduled = true
	a.sim.AfterDelay(a.cfg.OfferBatchInterval, func() {
		a.batchScheduled = false
		a.buildAndSendOffer()
	})
}

// buildAndSendOffer picks the lowest dominant-resource-share requester,
// snapshots the shared cell for it, locks all of the cell's currently
// spare capacity on its behalf, and — after the allocator's think time —
// delivers the offer. If the shared cell's spare CPU or memory is below
// the minimum offer thresholds, or there are no requesters at all,
// nothing is sent.
func (a *MesosAllocator) buildAndSendOffer() {
	if len(a.requesters) == 0 {
		return
	}
	if a.shared.AvailableCpus() < a.cfg.MinCpuOffer || a.shared.AvailableMem() < a.cfg.MinMemOffer {
		return
	}

	candidate := a.drfCandidate()
	snapshot := a.shared.Copy()
	locked := candidate.ScheduleAllAvailable(a.shared, true)
	if len(locked) == 0 {
		return
	}

	offer := &Offer{
		ID:                uuid.New().String(),
		SchedulerName:     candidate.Name,
		CellStateSnapshot: snapshot,
	}
	a.offeredDeltas[offer.ID] = locked
	a.timeSpentAllocating += a.cfg.ConstantThinkTime

	a.sim.AfterDelay(a.cfg.ConstantThinkTime, func() {
		candidate.ResourceOffer(offer)
	})
}

// TimeSpentAllocating reports the allocator's accumulated think time
// across every offer it has sent, including one whose delivery is still
// pending.
func (a *MesosAllocator) TimeSpentAllocating() float64 { return a.timeSpentAllocating }

// drfCandidate picks the requester with the lowest dominant resource
// share (occupied cpu or mem, whichever is the larger fraction of cell
// totals), breaking ties by request order.
func (a *MesosAllocator) drfCandidate() *MesosScheduler {
	totalCpus := a.shared.CpusPerMachine * float64(a.shared.NumMachines)
	totalMem := a.shared.MemPerMachine * float64(a.shared.NumMachines)

	share := func(s *MesosScheduler) float64 {
		cpuShare := a.shared.OccupiedCpus[s.Name] / totalCpus
		memShare := a.shared.OccupiedMem[s.Name] / totalMem
		if cpuShare > memShare {
			return cpuShare
		}
		return memShare
	}

	ordered := append([]*MesosScheduler(nil), a.requesters...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return share(ordered[i]) < share(ordered[j])
	})
	return ordered[0]
}

// RespondToOffer is called by a MesosScheduler once it has decided which
// of its offered resources to claim. It releases whatever of the offer
// went unclaimed, commits the chosen deltas against the shared cell, and
// arms per-delta end events that free resources and re-trigger the batch
// cycle when each task completes.
func (a *MesosAllocator) RespondToOffer(offer *Offer, chosen []*ClaimDelta) {
	locked := a.offeredDeltas[offer.ID]
	delete(a.offeredDeltas, offer.ID)
	for _, d := range locked {
		_ = d.Unapply(a.shared, true)
	}

	result := a.shared.Commit(chosen, false, nil)
	if len(result.Conflicted) > 0 {
		// The scheduler chose only from its own locked private snapshot,
		// so every chosen delta should fit under ResourceFit; a conflict
		// here means the lock/offer protocol let something inconsistent
		// through. Not a retryable condition.
		a.sim.Fail(newErr(ProtocolViolation, "offer %s: %d of %d chosen deltas conflicted against shared state", offer.ID, len(result.Conflicted), len(chosen)))
	}
	for _, d := range result.Committed {
		d := d
		a.sim.AfterDelay(d.Duration, func() {
			_ = d.Unapply(a.shared, false)
			a.scheduleBatch()
		})
	}

	a.scheduleBatch()
}
