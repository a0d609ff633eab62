package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCommand is a scriptable Command for invoker tests.
type stubCommand struct {
	name     string
	execErr  error
	undoErr  error
	canUndo  bool
	executed bool
	undone   bool
}

func (s *stubCommand) Execute(context.Context) (*Result, error) {
	if s.execErr != nil {
		return nil, s.execErr
	}
	s.executed = true
	return &Result{Outcome: OutcomeCharged}, nil
}

func (s *stubCommand) Undo(context.Context) (*Result, error) {
	if s.undoErr != nil {
		return nil, s.undoErr
	}
	s.undone = true
	return &Result{Outcome: OutcomeRefunded}, nil
}

func (s *stubCommand) CanUndo() bool    { return s.canUndo }
func (s *stubCommand) Executed() bool   { return s.executed }
func (s *stubCommand) Result() *Result  { return nil }
func (s *stubCommand) Describe() string { return s.name }

func TestInvokerExecuteCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("successful commands are recorded in order", func(t *testing.T) {
		invoker := NewInvoker(10, nil)

		first := &stubCommand{name: "first", canUndo: true}
		second := &stubCommand{name: "second", canUndo: true}

		_, err := invoker.ExecuteCommand(ctx, first)
		require.NoError(t, err)
		_, err = invoker.ExecuteCommand(ctx, second)
		require.NoError(t, err)

		history := invoker.History()
		require.Len(t, history, 2)
		assert.Equal(t, "first", history[0].Describe())
		assert.Equal(t, "second", history[1].Describe())
	})

	t.Run("failed commands never enter history", func(t *testing.T) {
		invoker := NewInvoker(10, nil)
		boom := errors.New("boom")

		_, err := invoker.ExecuteCommand(ctx, &stubCommand{name: "bad", execErr: boom})

		assert.ErrorIs(t, err, boom)
		assert.Empty(t, invoker.History())
	})

	t.Run("history evicts oldest past capacity", func(t *testing.T) {
		invoker := NewInvoker(3, nil)

		for i := 0; i < 5; i++ {
			_, err := invoker.ExecuteCommand(ctx, &stubCommand{name: fmt.Sprintf("cmd-%d", i)})
			require.NoError(t, err)
		}

		history := invoker.History()
		require.Len(t, history, 3)
		assert.Equal(t, "cmd-2", history[0].Describe())
		assert.Equal(t, "cmd-4", history[2].Describe())
	})
}

func TestInvokerUndoLastCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history is a quiet no-op", func(t *testing.T) {
		invoker := NewInvoker(10, nil)

		result, err := invoker.UndoLastCommand(ctx)

		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("undoes the most recent command and pops it", func(t *testing.T) {
		invoker := NewInvoker(10, nil)
		first := &stubCommand{name: "first", canUndo: true}
		second := &stubCommand{name: "second", canUndo: true}
		_, _ = invoker.ExecuteCommand(ctx, first)
		_, _ = invoker.ExecuteCommand(ctx, second)

		result, err := invoker.UndoLastCommand(ctx)

		require.NoError(t, err)
		assert.Equal(t, OutcomeRefunded, result.Outcome)
		assert.True(t, second.undone)
		assert.False(t, first.undone)

		history := invoker.History()
		require.Len(t, history, 1)
		assert.Equal(t, "first", history[0].Describe())
	})

	t.Run("non-undoable last command is an error and stays in history", func(t *testing.T) {
		invoker := NewInvoker(10, nil)
		_, _ = invoker.ExecuteCommand(ctx, &stubCommand{name: "locked", canUndo: false})

		_, err := invoker.UndoLastCommand(ctx)

		assert.ErrorIs(t, err, ErrNotUndoable)
		assert.Len(t, invoker.History(), 1)
	})

	t.Run("a failing undo keeps the command in history", func(t *testing.T) {
		invoker := NewInvoker(10, nil)
		boom := errors.New("refund rejected")
		_, _ = invoker.ExecuteCommand(ctx, &stubCommand{name: "sticky", canUndo: true, undoErr: boom})

		_, err := invoker.UndoLastCommand(ctx)

		assert.ErrorIs(t, err, boom)
		assert.Len(t, invoker.History(), 1, "retry stays possible")
	})
}

func TestInvokerClearHistory(t *testing.T) {
	ctx := context.Background()
	invoker := NewInvoker(10, nil)
	_, _ = invoker.ExecuteCommand(ctx, &stubCommand{name: "one"})
	_, _ = invoker.ExecuteCommand(ctx, &stubCommand{name: "two"})

	invoker.ClearHistory()

	assert.Empty(t, invoker.History())
}

// End-to-end: execute then undo a real payment command through the invoker.
func TestInvokerWithPaymentCommands(t *testing.T) {
	ctx := context.Background()
	payments := persistence.NewMemoryPaymentRepository()
	invoker := NewInvoker(DefaultHistoryCapacity, nil)

	cmd := NewProcessPaymentCommand(domain.MustMoney("19.99", "USD"), "customer@example.com", gateway.AlwaysApprove(), payments, nil)

	executed, err := invoker.ExecuteCommand(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCharged, executed.Outcome)

	undone, err := invoker.UndoLastCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefunded, undone.Outcome)
	assert.Empty(t, invoker.History())

	// A second undo finds nothing left.
	result, err := invoker.UndoLastCommand(ctx)
	require.NoError(t, err)
	assert.Nil(t, result)
}
