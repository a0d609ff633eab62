// Package commands reifies billing operations as executable, undoable
// command objects and provides the invoker that runs them.
package commands

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/payved/internal/billing/domain"
)

var (
	// ErrNotUndoable is returned when undo is requested for a command whose
	// CanUndo is false.
	ErrNotUndoable = errors.New("command cannot be undone")

	// ErrAlreadyExecuted is returned when a command instance is executed a
	// second time. Commands are single-use.
	ErrAlreadyExecuted = errors.New("command already executed")
)

// Outcome tags what a command execution actually did, so callers never
// conflate "nothing to do" with "failed to do".
type Outcome int

const (
	OutcomeCharged Outcome = iota
	OutcomeNotDue
	OutcomeRefunded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCharged:
		return "charged"
	case OutcomeNotDue:
		return "not_due"
	case OutcomeRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Result carries a command's tagged outcome. Payment is nil for OutcomeNotDue.
type Result struct {
	Outcome Outcome
	Payment *domain.Payment
}

// Command is a reified billing operation.
//
// Execute performs the operation once; Undo performs the compensating action
// when CanUndo reports it is possible. Undo on a command whose CanUndo is
// false is a caller error.
type Command interface {
	Execute(ctx context.Context) (*Result, error)
	Undo(ctx context.Context) (*Result, error)
	// CanUndo is a pure predicate over the command's current state.
	CanUndo() bool
	// Executed reports whether Execute ran to a successful result.
	Executed() bool
	// Result returns the captured execution result, nil before execution.
	Result() *Result
	// Describe names the command for history and log lines.
	Describe() string
}
