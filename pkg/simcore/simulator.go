package simcore

import (
	"context"
	"fmt"
	"log"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metrics and span keys the Simulator's event loop emits, following the
// typed-key observability convention every pipz connector uses.
const (
	MetricEventsProcessed = metricz.Key("simcore.events.processed")
	MetricRunTimedOut     = metricz.Key("simcore.run.timed_out")

	SpanEvent = tracez.Key("simcore.event")
)

// RunOutcome is the terminal status Simulator.Run reports.
type RunOutcome int

const (
	// Completed means the event queue drained before any stop condition
	// was reached.
	Completed RunOutcome = iota
	// TimedOut means the run stopped because maxVirtualTime or
	// wallClockTimeout was reached with events still pending.
	TimedOut
	// Failed means the run stopped early because a callback reported a
	// programmer error via Fail — a protocol violation or similar
	// condition spec.md §7 says should terminate the run.
	Failed
)

func (o RunOutcome) String() string {
	switch o {
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	default:
		return "completed"
	}
}

// RunResult is returned by Simulator.Run.
type RunResult struct {
	Outcome   RunOutcome
	EventsRun uint64
	FinalTime float64
	Err       error
}

// Logger is the minimal logging surface Simulator needs; *log.Logger
// satisfies it.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Simulator is the discrete-event kernel: it owns the event queue and
// drives virtual time forward by popping and running events in order.
// Schedulers and the allocator never run code except from within a
// callback the Simulator itself invokes — there is no real concurrency,
// so CellState needs no locking.
type Simulator struct {
	currentTime float64
	queue       *EventQueue
	logging     bool
	logger      Logger
	clock       clockz.Clock
	fatalErr    error

	metrics *metricz.Registry
	tracer  *tracez.Tracer
}

// NewSimulator constructs a Simulator per cfg, using the standard
// library logger by default. Use WithClock/WithLogger to override either
// for tests.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	metrics := metricz.New()
	metrics.Counter(MetricEventsProcessed)
	metrics.Counter(MetricRunTimedOut)

	return &Simulator{
		queue:   NewEventQueue(),
		logging: cfg.Logging,
		logger:  log.Default(),
		clock:   clockz.RealClock,
		metrics: metrics,
		tracer:  tracez.New(),
	}
}

// WithClock overrides the wall-clock source used for Run's
// wallClockTimeout argument; tests inject clockz.NewFakeClock().
func (s *Simulator) WithClock(c clockz.Clock) *Simulator {
	s.clock = c
	return s
}

// WithLogger overrides the Logger used by Log.
func (s *Simulator) WithLogger(l Logger) *Simulator {
	s.logger = l
	return s
}

// Metrics exposes the simulator's metric registry, e.g. for a caller
// that wants to report counters alongside scheduler statistics.
func (s *Simulator) Metrics() *metricz.Registry { return s.metrics }

// CurrentTime returns the simulator's current virtual time.
func (s *Simulator) CurrentTime() float64 { return s.currentTime }

// AfterDelay enqueues action to run at CurrentTime()+d. d must be >= 0.
// When d is 0, the action runs after every event already pending at the
// current virtual time, never before.
func (s *Simulator) AfterDelay(d float64, action Action) {
	if d < 0 {
		d = 0
	}
	s.queue.Push(s.currentTime+d, action)
}

// Log appends "<currentTime> <msg>" when logging is enabled.
func (s *Simulator) Log(format string, args ...interface{}) {
	if !s.logging {
		return
	}
	msg := fmt.Sprintf(format, args...)
	s.logger.Printf("%.4f %s", s.currentTime, msg)
}

// Fail records err as the reason Run should stop once the current
// action returns. Callbacks use this for programmer errors spec.md §7
// says should terminate the run (e.g. MesosAllocator.RespondToOffer's
// protocol violation) — there is nowhere else for an error raised deep
// inside a scheduled action to propagate to. The first call wins; later
// calls in the same run are ignored.
func (s *Simulator) Fail(err error) {
	if s.fatalErr == nil {
		s.fatalErr = err
	}
}

// Run pops events in virtual-time order, advancing CurrentTime to each
// popped event's time before executing it synchronously, until the
// queue empties, currentTime exceeds maxVirtualTime (if > 0), or
// wall-clock elapsed exceeds wallClockTimeout (if > 0).
func (s *Simulator) Run(maxVirtualTime, wallClockTimeout float64) RunResult {
	start := s.clock.Now()
	var eventsRun uint64

	for s.queue.Len() > 0 {
		if wallClockTimeout > 0 && s.clock.Now().Sub(start).Seconds() > wallClockTimeout {
			s.metrics.Counter(MetricRunTimedOut).Inc()
			return RunResult{Outcome: TimedOut, EventsRun: eventsRun, FinalTime: s.currentTime}
		}

		// The popped event is discarded on a maxVirtualTime timeout; Run
		// is not resumable across calls, matching the teacher's
		// run-to-completion simulator lifecycle.
		t, action := s.queue.Pop()
		if maxVirtualTime > 0 && t > maxVirtualTime {
			return RunResult{Outcome: TimedOut, EventsRun: eventsRun, FinalTime: s.currentTime}
		}

		s.currentTime = t
		s.runAction(action)
		eventsRun++
		if s.fatalErr != nil {
			return RunResult{Outcome: Failed, EventsRun: eventsRun, FinalTime: s.currentTime, Err: s.fatalErr}
		}
		s.metrics.Counter(MetricEventsProcessed).Inc()
	}

	return RunResult{Outcome: Completed, EventsRun: eventsRun, FinalTime: s.currentTime}
}

func (s *Simulator) runAction(action Action) {
	ctx := context.Background()
	_, span := s.tracer.StartSpan(ctx, SpanEvent)
	defer span.Finish()
	action()
}
