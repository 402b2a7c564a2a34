package simcore

// ClaimDelta is one proposed reservation unit: a scheduler's claim on a
// machine's CPU and memory for a bounded duration, stamped with the
// scheduler's belief about the machine's sequence number at the time the
// delta was built.
type ClaimDelta struct {
	SchedulerName string
	MachineID     int
	MachineSeqNum uint32
	Duration      float64
	CPUs          float64
	Mem           float64
}

// NewClaimDelta builds a ClaimDelta stamped with the machine's current
// sequence number in cs.
func NewClaimDelta(schedulerName string, machineID int, cs *CellState, duration, cpus, mem float64) *ClaimDelta {
	return &ClaimDelta{
		SchedulerName: schedulerName,
		MachineID:     machineID,
		MachineSeqNum: cs.CurrentMachineSeqNum(machineID),
		Duration:      duration,
		CPUs:          cpus,
		Mem:           mem,
	}
}

// Apply reserves the delta's resources against cs. When locked is false
// (the only case that advances optimistic-concurrency state), the
// machine's sequence number is incremented after a successful assign.
func (d *ClaimDelta) Apply(cs *CellState, locked bool) error {
	if err := cs.AssignResources(d.SchedulerName, d.MachineID, d.CPUs, d.Mem, locked); err != nil {
		return err
	}
	if !locked {
		cs.incrementMachineSeqNum(d.MachineID)
	}
	return nil
}

// Unapply releases the delta's resources back to cs. The machine's
// sequence number is never decremented.
func (d *ClaimDelta) Unapply(cs *CellState, locked bool) error {
	return cs.FreeResources(d.SchedulerName, d.MachineID, d.CPUs, d.Mem, locked)
}
