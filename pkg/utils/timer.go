package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// TimerOutput receives the lines of a timing summary.
type TimerOutput interface {
	Output(format string, args ...interface{})
}

// LoggerOutput adapts a Logger to TimerOutput.
type LoggerOutput struct {
	Logger Logger
}

// Output implements TimerOutput using Logger.Info.
func (o *LoggerOutput) Output(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Info(format, args...)
	}
}

// Phase is one timed step.
type Phase struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	completed bool
}

// PhaseTimer stops a single phase; use it with defer.
type PhaseTimer struct {
	timer     *Timer
	phaseName string
}

// Stop records the phase duration. Only the first call has effect.
func (pt *PhaseTimer) Stop() time.Duration {
	return pt.timer.StopPhase(pt.phaseName)
}

// Timer records the duration of named phases in start order. It is safe
// for concurrent use.
type Timer struct {
	mu         sync.RWMutex
	name       string
	startTime  time.Time
	phases     map[string]*Phase
	phaseOrder []string
	output     TimerOutput
	enabled    bool
	clock      Clock
}

// TimerOption configures a Timer instance.
type TimerOption func(*Timer)

// WithOutput sets the summary destination.
func WithOutput(output TimerOutput) TimerOption {
	return func(t *Timer) {
		t.output = output
	}
}

// WithLogger sends the summary to logger at info level.
func WithLogger(logger Logger) TimerOption {
	return func(t *Timer) {
		if logger != nil {
			t.output = &LoggerOutput{Logger: logger}
		}
	}
}

// WithEnabled turns the timer into a no-op when false.
func WithEnabled(enabled bool) TimerOption {
	return func(t *Timer) {
		t.enabled = enabled
	}
}

// WithClock sets the clock used for measurements.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		t.clock = clock
	}
}

// NewTimer creates a new Timer with the given name and options.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:    name,
		phases:  make(map[string]*Phase),
		enabled: true,
		clock:   NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.startTime = t.clock.Now()
	return t
}

// Start begins timing a phase. Restarting a name resets it.
func (t *Timer) Start(phaseName string) *PhaseTimer {
	pt := &PhaseTimer{timer: t, phaseName: phaseName}
	if !t.enabled {
		return pt
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.phases[phaseName]; !ok {
		t.phaseOrder = append(t.phaseOrder, phaseName)
	}
	t.phases[phaseName] = &Phase{Name: phaseName, StartTime: t.clock.Now()}
	return pt
}

// StopPhase stops a phase and returns its duration.
func (t *Timer) StopPhase(phaseName string) time.Duration {
	if !t.enabled {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	phase, ok := t.phases[phaseName]
	if !ok {
		return 0
	}
	if !phase.completed {
		phase.Duration = t.clock.Since(phase.StartTime)
		phase.completed = true
	}
	return phase.Duration
}

// GetDuration returns the recorded duration of a phase.
func (t *Timer) GetDuration(phaseName string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if phase, ok := t.phases[phaseName]; ok {
		return phase.Duration
	}
	return 0
}

// TotalDuration returns the time since the timer was created.
func (t *Timer) TotalDuration() time.Duration {
	return t.clock.Since(t.startTime)
}

// GetPhases returns copies of all phases in start order.
func (t *Timer) GetPhases() []Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()

	phases := make([]Phase, 0, len(t.phaseOrder))
	for _, name := range t.phaseOrder {
		phases = append(phases, *t.phases[name])
	}
	return phases
}

// Summary returns a multi-line timing report.
func (t *Timer) Summary() string {
	if !t.enabled {
		return ""
	}
	var sb strings.Builder
	for _, line := range t.summaryLines() {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// PrintSummary writes the report to the configured output.
func (t *Timer) PrintSummary() {
	if !t.enabled || t.output == nil {
		return
	}
	for _, line := range t.summaryLines() {
		t.output.Output("%s", line)
	}
}

func (t *Timer) summaryLines() []string {
	phases := t.GetPhases()
	lines := make([]string, 0, len(phases)+2)
	lines = append(lines, fmt.Sprintf("=== %s timing ===", t.name))
	for i, phase := range phases {
		lines = append(lines, fmt.Sprintf("%d. %s: %v", i+1, phase.Name, phase.Duration))
	}
	lines = append(lines, fmt.Sprintf("total: %v", t.TotalDuration()))
	return lines
}

// ToMap returns the timing data for JSON output.
func (t *Timer) ToMap() map[string]interface{} {
	phases := t.GetPhases()
	out := make([]map[string]interface{}, 0, len(phases))
	for _, phase := range phases {
		out = append(out, map[string]interface{}{
			"name": phase.Name,
			"ms":   phase.Duration.Milliseconds(),
		})
	}
	return map[string]interface{}{
		"name":     t.name,
		"total_ms": t.TotalDuration().Milliseconds(),
		"phases":   out,
	}
}

// TimeFuncWithError times fn as a phase.
func (t *Timer) TimeFuncWithError(phaseName string, fn func() error) (time.Duration, error) {
	pt := t.Start(phaseName)
	err := fn()
	return pt.Stop(), err
}

// NullTimer is a disabled timer.
var NullTimer = &Timer{enabled: false, phases: make(map[string]*Phase), clock: NewRealClock()}
