package lifecycle_test

import (
	"testing"

	"github.com/Houeta/homecare-api/internal/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	t.Run("accepts every enum value", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{
			"REQUESTED", "AWAITING_CONTRACTOR_PROPOSAL", "PROPOSED", "APPROVED",
			"SCHEDULED", "IN_PROGRESS", "COMPLETED", "CANCELLED",
		} {
			status, err := lifecycle.ParseStatus(raw)
			require.NoError(t, err)
			assert.Equal(t, lifecycle.Status(raw), status)
		}
	})

	t.Run("rejects unknown value", func(t *testing.T) {
		t.Parallel()
		_, err := lifecycle.ParseStatus("DONE")
		require.ErrorIs(t, err, lifecycle.ErrUnknownStatus)
	})
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	t.Run("assignment belongs to admins only", func(t *testing.T) {
		t.Parallel()
		assert.True(t, lifecycle.Can("ADMIN", lifecycle.OpAssign))
		assert.True(t, lifecycle.Can("ADMIN", lifecycle.OpUnassign))
		assert.False(t, lifecycle.Can("CLIENT", lifecycle.OpAssign))
		assert.False(t, lifecycle.Can("CONTRACTOR", lifecycle.OpAssign))
	})

	t.Run("schedule consent is split between the two parties", func(t *testing.T) {
		t.Parallel()
		assert.True(t, lifecycle.Can("CONTRACTOR", lifecycle.OpProposeSchedule))
		assert.False(t, lifecycle.Can("CONTRACTOR", lifecycle.OpApproveSchedule))
		assert.True(t, lifecycle.Can("CLIENT", lifecycle.OpApproveSchedule))
		assert.True(t, lifecycle.Can("CLIENT", lifecycle.OpRejectSchedule))
		assert.False(t, lifecycle.Can("CLIENT", lifecycle.OpProposeSchedule))
	})

	t.Run("unknown role can do nothing", func(t *testing.T) {
		t.Parallel()
		assert.False(t, lifecycle.Can("AUDITOR", lifecycle.OpCancel))
	})
}

func TestCanAssign(t *testing.T) {
	t.Parallel()

	require.NoError(t, lifecycle.CanAssign(lifecycle.StatusRequested, false))

	t.Run("rejects double assignment", func(t *testing.T) {
		t.Parallel()
		err := lifecycle.CanAssign(lifecycle.StatusRequested, true)
		require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
	})

	t.Run("rejects assignment mid-negotiation", func(t *testing.T) {
		t.Parallel()
		for _, status := range []lifecycle.Status{
			lifecycle.StatusProposed, lifecycle.StatusApproved, lifecycle.StatusCompleted,
		} {
			err := lifecycle.CanAssign(status, false)
			require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
		}
	})
}

func TestCanUnassign(t *testing.T) {
	t.Parallel()

	require.NoError(t, lifecycle.CanUnassign(lifecycle.StatusProposed, true))
	require.ErrorIs(t, lifecycle.CanUnassign(lifecycle.StatusRequested, false), lifecycle.ErrIllegalTransition)
	require.ErrorIs(t, lifecycle.CanUnassign(lifecycle.StatusCompleted, true), lifecycle.ErrIllegalTransition)
	require.ErrorIs(t, lifecycle.CanUnassign(lifecycle.StatusCancelled, true), lifecycle.ErrIllegalTransition)
}

func TestCanNegotiate(t *testing.T) {
	t.Parallel()

	t.Run("open negotiation states", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, lifecycle.CanNegotiate(lifecycle.StatusAwaitingProposal, false))
		require.NoError(t, lifecycle.CanNegotiate(lifecycle.StatusProposed, false))
	})

	t.Run("fresh request only for the bound contractor", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, lifecycle.CanNegotiate(lifecycle.StatusRequested, true))
		require.ErrorIs(t,
			lifecycle.CanNegotiate(lifecycle.StatusRequested, false),
			lifecycle.ErrIllegalTransition)
	})

	t.Run("closed once schedule is settled", func(t *testing.T) {
		t.Parallel()
		for _, status := range []lifecycle.Status{
			lifecycle.StatusApproved, lifecycle.StatusScheduled,
			lifecycle.StatusInProgress, lifecycle.StatusCompleted, lifecycle.StatusCancelled,
		} {
			require.ErrorIs(t, lifecycle.CanNegotiate(status, true), lifecycle.ErrIllegalTransition)
		}
	})
}

func TestCanDecideProposal(t *testing.T) {
	t.Parallel()

	require.NoError(t, lifecycle.CanDecideProposal(lifecycle.StatusProposed))

	// Approval from any other state is rejected and must leave the task unchanged.
	for _, status := range []lifecycle.Status{
		lifecycle.StatusRequested, lifecycle.StatusAwaitingProposal, lifecycle.StatusApproved,
		lifecycle.StatusScheduled, lifecycle.StatusInProgress, lifecycle.StatusCompleted,
	} {
		require.ErrorIs(t, lifecycle.CanDecideProposal(status), lifecycle.ErrIllegalTransition)
	}
}

func TestNextWorkStatus(t *testing.T) {
	t.Parallel()

	t.Run("monotonic progression succeeds step by step", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, lifecycle.NextWorkStatus(lifecycle.StatusApproved, lifecycle.StatusScheduled))
		require.NoError(t, lifecycle.NextWorkStatus(lifecycle.StatusScheduled, lifecycle.StatusInProgress))
		require.NoError(t, lifecycle.NextWorkStatus(lifecycle.StatusInProgress, lifecycle.StatusCompleted))
	})

	t.Run("skipping a step is rejected", func(t *testing.T) {
		t.Parallel()
		err := lifecycle.NextWorkStatus(lifecycle.StatusScheduled, lifecycle.StatusCompleted)
		require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
	})

	t.Run("walking backwards is rejected", func(t *testing.T) {
		t.Parallel()
		err := lifecycle.NextWorkStatus(lifecycle.StatusInProgress, lifecycle.StatusScheduled)
		require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		t.Parallel()
		err := lifecycle.NextWorkStatus(lifecycle.StatusCompleted, lifecycle.StatusScheduled)
		require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
		assert.True(t, lifecycle.Terminal(lifecycle.StatusCompleted))
	})
}

func TestCanCancel(t *testing.T) {
	t.Parallel()

	for _, status := range []lifecycle.Status{
		lifecycle.StatusRequested, lifecycle.StatusAwaitingProposal,
		lifecycle.StatusProposed, lifecycle.StatusApproved, lifecycle.StatusScheduled,
	} {
		require.NoError(t, lifecycle.CanCancel(status))
	}

	require.ErrorIs(t, lifecycle.CanCancel(lifecycle.StatusInProgress), lifecycle.ErrIllegalTransition)
	require.ErrorIs(t, lifecycle.CanCancel(lifecycle.StatusCompleted), lifecycle.ErrIllegalTransition)
	require.ErrorIs(t, lifecycle.CanCancel(lifecycle.StatusCancelled), lifecycle.ErrIllegalTransition)
}
