package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultHistoryCapacity bounds the invoker's command history.
const DefaultHistoryCapacity = 100

// Invoker executes commands and keeps a bounded, ordered history of the
// ones that succeeded, so the most recent can be undone.
//
// The invoker is safe for concurrent use; the scheduler may drive it from
// multiple goroutines.
type Invoker struct {
	mu       sync.Mutex
	history  []Command
	capacity int
	logger   *slog.Logger
}

// NewInvoker creates an invoker. A capacity of zero or less falls back to
// DefaultHistoryCapacity.
func NewInvoker(capacity int, logger *slog.Logger) *Invoker {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{
		history:  make([]Command, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// ExecuteCommand runs the command. Successful commands are appended to
// history, evicting the oldest entry past capacity. Failures are propagated
// unmodified and leave the history untouched; swallowing per-item failures
// is the scheduler's job, one level up.
func (i *Invoker) ExecuteCommand(ctx context.Context, cmd Command) (*Result, error) {
	i.logger.Debug("executing command", "command", cmd.Describe())

	result, err := cmd.Execute(ctx)
	if err != nil {
		i.logger.Warn("command failed", "command", cmd.Describe(), "error", err)
		return nil, err
	}

	i.mu.Lock()
	i.history = append(i.history, cmd)
	if len(i.history) > i.capacity {
		i.history = i.history[1:]
	}
	i.mu.Unlock()

	return result, nil
}

// UndoLastCommand undoes the most recently executed command. An empty
// history is a no-op returning nil. A most-recent command that cannot be
// undone is a caller error. The entry is removed from history only when the
// undo succeeds.
func (i *Invoker) UndoLastCommand(ctx context.Context) (*Result, error) {
	i.mu.Lock()
	if len(i.history) == 0 {
		i.mu.Unlock()
		i.logger.Debug("nothing to undo")
		return nil, nil
	}
	last := i.history[len(i.history)-1]
	i.mu.Unlock()

	if !last.CanUndo() {
		return nil, fmt.Errorf("%w: %s", ErrNotUndoable, last.Describe())
	}

	result, err := last.Undo(ctx)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	// Pop only if the undone command is still the most recent one; a
	// concurrent execute may have appended in the meantime.
	if n := len(i.history); n > 0 && i.history[n-1] == last {
		i.history = i.history[:n-1]
	}
	i.mu.Unlock()

	i.logger.Info("command undone", "command", last.Describe())
	return result, nil
}

// History returns a snapshot of the executed commands, oldest first.
func (i *Invoker) History() []Command {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Command, len(i.history))
	copy(out, i.history)
	return out
}

// ClearHistory drops all recorded commands.
func (i *Invoker) ClearHistory() {
	i.mu.Lock()
	i.history = i.history[:0]
	i.mu.Unlock()
	i.logger.Debug("command history cleared")
}
