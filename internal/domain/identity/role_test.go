package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Can(t *testing.T) {
	all := []Capability{
		CapViewAllTickets, CapViewOwnTickets, CapUpdateTicket, CapAssignCourier,
		CapDeleteTicket, CapArchiveTicket, CapViewFleet, CapViewReports, CapManageUsers,
	}

	t.Run("admin can do everything", func(t *testing.T) {
		for _, c := range all {
			assert.True(t, RoleAdmin.Can(c), c)
		}
	})

	t.Run("flota works its own tickets only", func(t *testing.T) {
		assert.True(t, RoleFlota.Can(CapViewOwnTickets))
		assert.True(t, RoleFlota.Can(CapUpdateTicket))
		for _, c := range []Capability{CapViewAllTickets, CapAssignCourier, CapDeleteTicket, CapArchiveTicket, CapViewFleet, CapViewReports, CapManageUsers} {
			assert.False(t, RoleFlota.Can(c), c)
		}
	})

	t.Run("unknown role has no capabilities", func(t *testing.T) {
		assert.False(t, Role("cliente").Can(CapViewOwnTickets))
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("flota")
	require.NoError(t, err)
	assert.Equal(t, RoleFlota, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestNewStaffUser(t *testing.T) {
	u, err := NewStaffUser(" rep1 ", "Rep1@Belgrano.com", "Juan", RoleFlota, "hash", "Repartidor1")
	require.NoError(t, err)
	assert.Equal(t, "rep1", u.Username)
	assert.Equal(t, "rep1@belgrano.com", u.Email)
	assert.False(t, u.IsPrincipalAdmin())
	assert.False(t, u.Can(CapManageUsers))

	_, err = NewStaffUser("x", "x@y.z", "X", Role("root"), "hash", "")
	assert.Error(t, err)

	_, err = NewStaffUser("", "x@y.z", "X", RoleAdmin, "hash", "")
	assert.Error(t, err)
}
