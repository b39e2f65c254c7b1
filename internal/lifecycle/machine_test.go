package lifecycle

import (
	"errors"
	"testing"

	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from models.Status
		want models.Status
		ok   bool
	}{
		{models.StatusRetained, models.StatusPaymentPending, true},
		{models.StatusPaymentPending, models.StatusInTransit, true},
		{models.StatusInTransit, models.StatusDelivered, true},
		{models.StatusDelivered, "", false},
		{models.Status("GARBAGE"), "", false},
	}
	for _, tc := range tests {
		got, ok := Next(tc.from)
		require.Equal(t, tc.ok, ok, "from %s", tc.from)
		require.Equal(t, tc.want, got, "from %s", tc.from)
	}
}

func TestValidate_adjacentOnly(t *testing.T) {
	for i, cur := range models.ValidStatuses {
		for j, target := range models.ValidStatuses {
			err := Validate(cur, target)
			if j == i+1 {
				require.NoError(t, err, "%s -> %s", cur, target)
			} else {
				require.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", cur, target)
			}
		}
	}
}

func TestValidate_skipAndRevert(t *testing.T) {
	err := Validate(models.StatusRetained, models.StatusInTransit)
	require.ErrorIs(t, err, ErrInvalidTransition)

	err = Validate(models.StatusInTransit, models.StatusRetained)
	require.ErrorIs(t, err, ErrInvalidTransition)

	err = Validate(models.StatusDelivered, models.StatusRetained)
	require.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestTerminal(t *testing.T) {
	require.False(t, Terminal(models.StatusRetained))
	require.False(t, Terminal(models.StatusInTransit))
	require.True(t, Terminal(models.StatusDelivered))
}
