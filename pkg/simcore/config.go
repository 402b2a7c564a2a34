package simcore

// ConflictMode selects how CellState.Commit detects a conflicting claim.
type ConflictMode string

const (
	// ResourceFit treats a claim as conflicting only when the machine no
	// longer has enough spare capacity; required by MesosAllocator.
	ResourceFit ConflictMode = "resource-fit"
	// SequenceNumbers treats a claim as conflicting when the machine's
	// version has moved since the claim was built; the mode Omega uses.
	SequenceNumbers ConflictMode = "sequence-numbers"
)

// TransactionMode selects Commit's behavior once a conflict is found.
type TransactionMode string

const (
	// AllOrNothing rolls back every already-applied delta in the same
	// commit once any delta conflicts.
	AllOrNothing TransactionMode = "all-or-nothing"
	// Incremental keeps whatever committed before the conflict and
	// continues evaluating the remaining deltas.
	Incremental TransactionMode = "incremental"
)

// underfreeTolerance absorbs floating-point accumulation error on free
// operations, per spec.
const underfreeTolerance = 1e-3

// CellStateConfig configures a CellState at construction.
type CellStateConfig struct {
	NumMachines     uint32          `json:"num_machines" yaml:"num_machines"`
	CpusPerMachine  float64         `json:"cpus_per_machine" yaml:"cpus_per_machine"`
	MemPerMachine   float64         `json:"mem_per_machine" yaml:"mem_per_machine"`
	ConflictMode    ConflictMode    `json:"conflict_mode" yaml:"conflict_mode"`
	TransactionMode TransactionMode `json:"transaction_mode" yaml:"transaction_mode"`
}

// Validate checks the config in isolation (it cannot check the
// Mesos-requires-ResourceFit cross-component rule; that check happens in
// NewMesosAllocator, which has visibility into both).
func (c CellStateConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	errs.AddIf(c.NumMachines == 0, "NumMachines", c.NumMachines, "must be > 0")
	errs.AddIf(c.CpusPerMachine <= 0, "CpusPerMachine", c.CpusPerMachine, "must be > 0")
	errs.AddIf(c.MemPerMachine <= 0, "MemPerMachine", c.MemPerMachine, "must be > 0")
	errs.AddIf(c.ConflictMode != ResourceFit && c.ConflictMode != SequenceNumbers,
		"ConflictMode", c.ConflictMode, "must be 'resource-fit' or 'sequence-numbers'")
	errs.AddIf(c.TransactionMode != AllOrNothing && c.TransactionMode != Incremental,
		"TransactionMode", c.TransactionMode, "must be 'all-or-nothing' or 'incremental'")
	return errs
}

// SimulatorConfig configures the Simulator kernel.
type SimulatorConfig struct {
	Logging bool `json:"logging" yaml:"logging"`
}

// OmegaSchedulerConfig configures one OmegaScheduler.
type OmegaSchedulerConfig struct {
	Name                   string             `json:"name" yaml:"name"`
	ConstantThinkTimes     map[string]float64 `json:"constant_think_times" yaml:"constant_think_times"`
	PerTaskThinkTimes      map[string]float64 `json:"per_task_think_times" yaml:"per_task_think_times"`
	NumMachinesToBlackList uint32             `json:"num_machines_to_blacklist" yaml:"num_machines_to_blacklist"`
}

// MesosAllocatorConfig configures the MesosAllocator.
type MesosAllocatorConfig struct {
	ConstantThinkTime  float64 `json:"constant_think_time" yaml:"constant_think_time"`
	MinCpuOffer        float64 `json:"min_cpu_offer" yaml:"min_cpu_offer"`
	MinMemOffer        float64 `json:"min_mem_offer" yaml:"min_mem_offer"`
	OfferBatchInterval float64 `json:"offer_batch_interval" yaml:"offer_batch_interval"`
}

// Validate checks the allocator config in isolation.
func (c MesosAllocatorConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	errs.AddIf(c.ConstantThinkTime < 0, "ConstantThinkTime", c.ConstantThinkTime, "must be >= 0")
	errs.AddIf(c.OfferBatchInterval <= 0, "OfferBatchInterval", c.OfferBatchInterval, "must be > 0")
	return errs
}

// DefaultMesosAllocatorConfig returns the config defaults named in spec.md §6.
func DefaultMesosAllocatorConfig() MesosAllocatorConfig {
	return MesosAllocatorConfig{
		ConstantThinkTime:  0,
		MinCpuOffer:        100.0,
		MinMemOffer:        100.0,
		OfferBatchInterval: 1.0,
	}
}
