package simcore

import "fmt"

// Kind identifies a distinct, observable error condition raised by the
// simulator core, matching the taxonomy the simulator's config and
// ledger operations are specified against.
type Kind string

const (
	// InvalidConfig marks an unknown conflict/transaction mode, a
	// non-positive count, or a Mesos allocator paired with a CellState
	// that is not in ResourceFit mode.
	InvalidConfig Kind = "invalid_config"
	// NoSuchMachine marks a machineID outside [0, numMachines).
	NoSuchMachine Kind = "no_such_machine"
	// Overcommit marks an assign that would exceed a machine's capacity.
	Overcommit Kind = "overcommit"
	// NotHolding marks a free with no prior hold for the scheduler.
	NotHolding Kind = "not_holding"
	// Underfree marks a free that exceeds the held amount (1e-3 tolerance).
	Underfree Kind = "underfree"
	// WorkloadMismatch marks Workload.AddJob called with a job whose
	// WorkloadName does not match the workload's name.
	WorkloadMismatch Kind = "workload_mismatch"
	// ProtocolViolation marks a Mesos RespondToOffer whose chosen deltas
	// conflict against shared cell state under resource-fit locking,
	// which should not happen.
	ProtocolViolation Kind = "protocol_violation"
)

// SimError is the error type returned for every Kind above. All of these
// are programmer errors from the simulator's perspective: they are meant
// to terminate the run, not to be retried. Conflict results from Commit
// are data (CommitResult), never a SimError.
type SimError struct {
	Kind    Kind
	Message string
}

func (e *SimError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is supports errors.Is(err, ErrXxx) sentinel-style comparisons by Kind.
func (e *SimError) Is(target error) bool {
	t, ok := target.(*SimError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, format string, args ...interface{}) *SimError {
	return &SimError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinel values for errors.Is comparisons against a specific kind,
// e.g. errors.Is(err, ErrOvercommit).
var (
	ErrInvalidConfig     = &SimError{Kind: InvalidConfig}
	ErrNoSuchMachine     = &SimError{Kind: NoSuchMachine}
	ErrOvercommit        = &SimError{Kind: Overcommit}
	ErrNotHolding        = &SimError{Kind: NotHolding}
	ErrUnderfree         = &SimError{Kind: Underfree}
	ErrWorkloadMismatch  = &SimError{Kind: WorkloadMismatch}
	ErrProtocolViolation = &SimError{Kind: ProtocolViolation}
)

// ValidationError represents one failed configuration check.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", ve.Field, ve.Value, ve.Message)
}

// ValidationErrors accumulates ValidationError and satisfies error.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", ve[0].Error(), len(ve)-1)
}

// HasErrors reports whether any validation errors were recorded.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add appends a validation error unconditionally.
func (ve *ValidationErrors) Add(field string, value interface{}, message string) {
	*ve = append(*ve, ValidationError{Field: field, Value: value, Message: message})
}

// AddIf appends a validation error only when cond is true.
func (ve *ValidationErrors) AddIf(cond bool, field string, value interface{}, message string) {
	if cond {
		ve.Add(field, value, message)
	}
}
