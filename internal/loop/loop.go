package loop

import (
	"context"
	"fmt"

	"github.com/goalrun/goalrun/internal/console"
	"github.com/goalrun/goalrun/internal/logging"
	"github.com/goalrun/goalrun/internal/model"
	"github.com/goalrun/goalrun/internal/runner"
)

// DefaultMaxIterations bounds a session when no limit is configured.
const DefaultMaxIterations = 5

// ExitReason indicates why the loop stopped.
type ExitReason int

const (
	ExitReasonUnknown   ExitReason = iota
	ExitReasonSuccess              // Goal attained with a clean execution observed
	ExitReasonExhausted            // Hit iteration limit
	ExitReasonCancelled            // User declined a proposed script
	ExitReasonError                // Model or runner failure
)

// String returns a human-readable description of the exit reason.
func (r ExitReason) String() string {
	switch r {
	case ExitReasonSuccess:
		return "success"
	case ExitReasonExhausted:
		return "max iterations"
	case ExitReasonCancelled:
		return "cancelled"
	case ExitReasonError:
		return "error"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a loop execution.
type Result struct {
	Reason     ExitReason
	Iterations int    // Iterations consumed, including the final guard
	Executions int    // Scripts actually run
	Output     string // Stdout of the last clean execution
	Message    string // Final model message to the user
	Err        error
}

// Options holds configuration for creating a Loop instance.
type Options struct {
	Proposer      model.Proposer
	Runner        runner.Runner
	Console       *console.Console
	Logger        *logging.Logger
	Goal          string
	MaxIterations int
	Confirm       bool // Ask before executing each proposed script
}

// Loop drives propose/execute rounds until the goal converges or a
// limit is hit.
type Loop struct {
	proposer model.Proposer
	runner   runner.Runner
	console  *console.Console
	logger   *logging.Logger
	goal     string
	max      int
	confirm  bool

	iterations int
	executions int
	last       *runner.Record
	message    string
}

// New creates a Loop with the given options.
func New(opts Options) *Loop {
	max := opts.MaxIterations
	if max <= 0 {
		max = DefaultMaxIterations
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.New()
	}

	return &Loop{
		proposer: opts.Proposer,
		runner:   opts.Runner,
		console:  opts.Console,
		logger:   logger,
		goal:     opts.Goal,
		max:      max,
		confirm:  opts.Confirm,
	}
}

// Run executes the convergence loop until an exit condition is met.
func (l *Loop) Run(ctx context.Context) Result {
	lastOutput := ""

	for {
		if err := ctx.Err(); err != nil {
			return l.fatal(err)
		}

		l.iterations++
		log := l.logger.With("iteration", l.iterations)
		log.Debug("requesting proposal")

		proposal, err := l.proposer.Propose(ctx, l.goal, lastOutput)
		if err != nil {
			return l.fatal(fmt.Errorf("model call failed: %w", err))
		}
		l.message = proposal.MessageToUser

		if proposal.Normalize(lastOutput) {
			log.Warn("model claimed to have seen output before any execution")
		}

		if l.converged(proposal) {
			return l.result(ExitReasonSuccess)
		}

		// The final allotted iteration is a convergence check only, it
		// never starts another execution.
		if l.iterations >= l.max {
			return l.result(ExitReasonExhausted)
		}

		if l.confirm {
			l.console.Script("Proposed Script", proposal.Script)
			if !l.console.Confirm("Execute this script?") {
				return l.result(ExitReasonCancelled)
			}
		} else if l.console.Verbose() {
			l.console.Script("Executing Script", proposal.Script)
		}

		record, err := l.runner.Run(ctx, proposal.Script)
		if err != nil {
			return l.fatal(err)
		}
		l.executions++
		l.last = record
		lastOutput = record.Output
		log.Debug("script finished", "exit_code", record.ExitCode)

		if l.console.Verbose() {
			l.console.Panel("Script Output", record.Output)
			l.console.Panel("Message", proposal.MessageToUser)
		}
	}
}

// converged reports whether the proposal closes the loop: the model
// must claim the goal is attained, claim it has seen the last output,
// and the most recent execution must exist and have exited cleanly.
func (l *Loop) converged(p *model.Proposal) bool {
	return p.GoalAttained && p.SawLastOutput && l.last != nil && l.last.Succeeded()
}

func (l *Loop) result(reason ExitReason) Result {
	res := Result{
		Reason:     reason,
		Iterations: l.iterations,
		Executions: l.executions,
		Message:    l.message,
	}
	if l.last != nil {
		res.Output = l.last.Output
	}
	return res
}

func (l *Loop) fatal(err error) Result {
	res := l.result(ExitReasonError)
	res.Err = err
	return res
}
