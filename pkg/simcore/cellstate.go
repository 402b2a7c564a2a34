package simcore

// DelayScheduler is the subset of Simulator that CellState.Commit needs
// in order to schedule task-completion (unapply) events. Simulator
// implements it; tests may supply a stub.
type DelayScheduler interface {
	AfterDelay(d float64, action Action)
}

// CommitResult reports the outcome of one CellState.Commit call.
// Conflict is data, not an error: callers inspect Conflicted to decide
// whether to retry.
type CommitResult struct {
	Committed  []*ClaimDelta
	Conflicted []*ClaimDelta
}

// CellState is the shared resource ledger: per-machine CPU/memory
// accounting plus the transactional commit protocol both scheduling
// styles submit claims through.
type CellState struct {
	NumMachines     uint32
	CpusPerMachine  float64
	MemPerMachine   float64
	ConflictMode    ConflictMode
	TransactionMode TransactionMode

	AllocatedCpus []float64
	AllocatedMem  []float64
	MachineSeqNum []uint32

	OccupiedCpus map[string]float64
	OccupiedMem  map[string]float64
	LockedCpus   map[string]float64
	LockedMem    map[string]float64

	TotalOccupiedCpus float64
	TotalOccupiedMem  float64
	TotalLockedCpus   float64
	TotalLockedMem    float64

	// Logf, when non-nil, receives one line per commit conflict and
	// rollback, following the simulator's "<time> <msg>" convention.
	// Left nil by NewCellState; the driver assigns Simulator.Log to it
	// (as cmd/omegasim does).
	Logf func(format string, args ...interface{})
}

// NewCellState validates cfg and constructs an empty CellState.
func NewCellState(cfg CellStateConfig) (*CellState, error) {
	if errs := cfg.Validate(); errs.HasErrors() {
		return nil, newErr(InvalidConfig, "%s", errs.Error())
	}

	cs := &CellState{
		NumMachines:     cfg.NumMachines,
		CpusPerMachine:  cfg.CpusPerMachine,
		MemPerMachine:   cfg.MemPerMachine,
		ConflictMode:    cfg.ConflictMode,
		TransactionMode: cfg.TransactionMode,
		AllocatedCpus:   make([]float64, cfg.NumMachines),
		AllocatedMem:    make([]float64, cfg.NumMachines),
		MachineSeqNum:   make([]uint32, cfg.NumMachines),
		OccupiedCpus:    make(map[string]float64),
		OccupiedMem:     make(map[string]float64),
		LockedCpus:      make(map[string]float64),
		LockedMem:       make(map[string]float64),
	}
	return cs, nil
}

func (cs *CellState) logf(format string, args ...interface{}) {
	if cs.Logf != nil {
		cs.Logf(format, args...)
	}
}

func (cs *CellState) validMachine(machineID int) bool {
	return machineID >= 0 && machineID < int(cs.NumMachines)
}

// CurrentMachineSeqNum returns the current sequence number of machineID.
func (cs *CellState) CurrentMachineSeqNum(machineID int) uint32 {
	if !cs.validMachine(machineID) {
		return 0
	}
	return cs.MachineSeqNum[machineID]
}

func (cs *CellState) incrementMachineSeqNum(machineID int) {
	if cs.validMachine(machineID) {
		cs.MachineSeqNum[machineID]++
	}
}

// AvailableCpusOn returns the spare CPU capacity on machineID.
func (cs *CellState) AvailableCpusOn(machineID int) float64 {
	if !cs.validMachine(machineID) {
		return 0
	}
	return cs.CpusPerMachine - cs.AllocatedCpus[machineID]
}

// AvailableMemOn returns the spare memory capacity on machineID.
func (cs *CellState) AvailableMemOn(machineID int) float64 {
	if !cs.validMachine(machineID) {
		return 0
	}
	return cs.MemPerMachine - cs.AllocatedMem[machineID]
}

// AvailableCpus returns the cell-wide spare CPU capacity.
func (cs *CellState) AvailableCpus() float64 {
	total := cs.CpusPerMachine * float64(cs.NumMachines)
	return total - cs.TotalOccupiedCpus - cs.TotalLockedCpus
}

// AvailableMem returns the cell-wide spare memory capacity.
func (cs *CellState) AvailableMem() float64 {
	total := cs.MemPerMachine * float64(cs.NumMachines)
	return total - cs.TotalOccupiedMem - cs.TotalLockedMem
}

// AssignResources reserves cpus/mem on machineID for scheduler, marking
// the reservation locked or occupied. The overcommit check runs before
// any field of cs is mutated (the Open Question in spec.md §9 resolved
// in favor of validate-before-mutate): a failed assign leaves cs
// byte-for-byte as it was.
func (cs *CellState) AssignResources(scheduler string, machineID int, cpus, mem float64, locked bool) error {
	if !cs.validMachine(machineID) {
		return newErr(NoSuchMachine, "machine %d out of range [0,%d)", machineID, cs.NumMachines)
	}
	if cs.AllocatedCpus[machineID]+cpus > cs.CpusPerMachine {
		return newErr(Overcommit, "machine %d cpu overcommit: %.4f + %.4f > %.4f", machineID, cs.AllocatedCpus[machineID], cpus, cs.CpusPerMachine)
	}
	if cs.AllocatedMem[machineID]+mem > cs.MemPerMachine {
		return newErr(Overcommit, "machine %d mem overcommit: %.4f + %.4f > %.4f", machineID, cs.AllocatedMem[machineID], mem, cs.MemPerMachine)
	}

	if locked {
		cs.LockedCpus[scheduler] += cpus
		cs.LockedMem[scheduler] += mem
		cs.TotalLockedCpus += cpus
		cs.TotalLockedMem += mem
	} else {
		cs.OccupiedCpus[scheduler] += cpus
		cs.OccupiedMem[scheduler] += mem
		cs.TotalOccupiedCpus += cpus
		cs.TotalOccupiedMem += mem
	}
	cs.AllocatedCpus[machineID] += cpus
	cs.AllocatedMem[machineID] += mem
	return nil
}

// FreeResources releases cpus/mem held by scheduler on machineID. As
// with AssignResources, the hold is validated before anything is
// mutated.
func (cs *CellState) FreeResources(scheduler string, machineID int, cpus, mem float64, locked bool) error {
	if !cs.validMachine(machineID) {
		return newErr(NoSuchMachine, "machine %d out of range [0,%d)", machineID, cs.NumMachines)
	}

	cpuMap, memMap := cs.OccupiedCpus, cs.OccupiedMem
	if locked {
		cpuMap, memMap = cs.LockedCpus, cs.LockedMem
	}

	heldCpus, hasCpus := cpuMap[scheduler]
	heldMem, hasMem := memMap[scheduler]
	if !hasCpus && !hasMem {
		return newErr(NotHolding, "scheduler %q holds nothing on machine %d", scheduler, machineID)
	}
	if cpus > heldCpus+underfreeTolerance {
		return newErr(Underfree, "scheduler %q freeing %.4f cpus but holds %.4f", scheduler, cpus, heldCpus)
	}
	if mem > heldMem+underfreeTolerance {
		return newErr(Underfree, "scheduler %q freeing %.4f mem but holds %.4f", scheduler, mem, heldMem)
	}

	cpuMap[scheduler] = heldCpus - cpus
	memMap[scheduler] = heldMem - mem
	if locked {
		cs.TotalLockedCpus -= cpus
		cs.TotalLockedMem -= mem
	} else {
		cs.TotalOccupiedCpus -= cpus
		cs.TotalOccupiedMem -= mem
	}
	cs.AllocatedCpus[machineID] -= cpus
	cs.AllocatedMem[machineID] -= mem
	return nil
}

// causesConflict reports whether applying d right now would conflict,
// per the cell's ConflictMode.
func (cs *CellState) causesConflict(d *ClaimDelta) bool {
	switch cs.ConflictMode {
	case SequenceNumbers:
		return d.MachineSeqNum != cs.CurrentMachineSeqNum(d.MachineID)
	case ResourceFit:
		return cs.AvailableCpusOn(d.MachineID) < d.CPUs || cs.AvailableMemOn(d.MachineID) < d.Mem
	default:
		return true
	}
}

// Commit is the central transactional entry point both scheduling styles
// submit claims through. See spec.md §4.2 for the algorithm; behavior is
// reproduced here verbatim.
func (cs *CellState) Commit(deltas []*ClaimDelta, scheduleEndEvent bool, sched DelayScheduler) CommitResult {
	applied := make([]*ClaimDelta, 0, len(deltas))
	conflicted := make([]*ClaimDelta, 0)

	for _, d := range deltas {
		conflict := cs.causesConflict(d)
		if !conflict {
			// A non-conflicting delta that still fails to apply (e.g. a
			// SequenceNumbers-mode claim on a machine without the spare
			// capacity) is treated as a conflict, rollback included.
			conflict = d.Apply(cs, false) != nil
		}
		if conflict {
			conflicted = append(conflicted, d)
			cs.logf("commit conflict: scheduler=%s machine=%d seq=%d mode=%s", d.SchedulerName, d.MachineID, d.MachineSeqNum, cs.ConflictMode)

			if cs.TransactionMode == AllOrNothing {
				for i := len(applied) - 1; i >= 0; i-- {
					a := applied[i]
					_ = a.Unapply(cs, false)
					cs.logf("commit rollback: scheduler=%s machine=%d seq=%d", a.SchedulerName, a.MachineID, a.MachineSeqNum)
				}
				conflicted = append(conflicted, applied...)
				applied = nil
				break
			}
			continue
		}
		applied = append(applied, d)
	}

	if scheduleEndEvent && sched != nil {
		for _, d := range applied {
			d := d
			sched.AfterDelay(d.Duration, func() {
				_ = d.Unapply(cs, false)
			})
		}
	}

	return CommitResult{Committed: applied, Conflicted: conflicted}
}

// Copy returns a deep copy of cs: independent slices and maps, safe to
// mutate without affecting the original.
func (cs *CellState) Copy() *CellState {
	out := &CellState{
		NumMachines:       cs.NumMachines,
		CpusPerMachine:    cs.CpusPerMachine,
		MemPerMachine:     cs.MemPerMachine,
		ConflictMode:      cs.ConflictMode,
		TransactionMode:   cs.TransactionMode,
		AllocatedCpus:     append([]float64(nil), cs.AllocatedCpus...),
		AllocatedMem:      append([]float64(nil), cs.AllocatedMem...),
		MachineSeqNum:     append([]uint32(nil), cs.MachineSeqNum...),
		OccupiedCpus:      copyMap(cs.OccupiedCpus),
		OccupiedMem:       copyMap(cs.OccupiedMem),
		LockedCpus:        copyMap(cs.LockedCpus),
		LockedMem:         copyMap(cs.LockedMem),
		TotalOccupiedCpus: cs.TotalOccupiedCpus,
		TotalOccupiedMem:  cs.TotalOccupiedMem,
		TotalLockedCpus:   cs.TotalLockedCpus,
		TotalLockedMem:    cs.TotalLockedMem,
		Logf:              cs.Logf,
	}
	return out
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
