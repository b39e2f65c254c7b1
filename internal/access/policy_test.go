package access

import (
	"testing"

	"github.com/PrincipeGhost/CorreosPremium/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCanAccess(t *testing.T) {
	const (
		owner     = int64(1)
		creator   = int64(100)
		addressee = int64(200)
		stranger  = int64(300)
	)
	p := New(owner)
	rec := &models.Tracking{ID: "CP1", CreatedBy: creator, AddresseeID: addressee}

	require.True(t, p.CanAccess(rec, owner))
	require.True(t, p.CanAccess(rec, creator))
	require.True(t, p.CanAccess(rec, addressee))
	require.False(t, p.CanAccess(rec, stranger))
	require.False(t, p.CanAccess(nil, owner))
}

func TestCanAccess_zeroOwnerIsNobody(t *testing.T) {
	p := New(0)
	rec := &models.Tracking{ID: "CP1", CreatedBy: 100, AddresseeID: 200}

	// Actor 0 must not accidentally match an unset owner ID.
	require.False(t, p.CanAccess(rec, 0))
	require.True(t, p.CanAccess(rec, 100))
}

func TestVisibleSet(t *testing.T) {
	p := New(1)
	records := []*models.Tracking{
		{ID: "A", CreatedBy: 100, AddresseeID: 200},
		{ID: "B", CreatedBy: 300, AddresseeID: 100},
		{ID: "C", CreatedBy: 300, AddresseeID: 400},
	}

	require.Len(t, p.VisibleSet(records, 1), 3)

	got := p.VisibleSet(records, 100)
	require.Len(t, got, 2)
	require.Equal(t, "A", got[0].ID)
	require.Equal(t, "B", got[1].ID)

	require.Empty(t, p.VisibleSet(records, 500))
}
