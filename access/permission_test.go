package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datve-cli/model"
)

func userWithRole(role model.Role) *model.User {
	return &model.User{Id: "7", Name: "Test", Role: role}
}

func TestHasRole(t *testing.T) {
	for _, role := range model.Roles() {
		user := userWithRole(role)
		for _, other := range model.Roles() {
			assert.Equal(t, role == other, HasRole(user, other), "user %s, role %s", role, other)
		}
	}
	assert.False(t, HasRole(nil, model.RoleAdmin))
	assert.False(t, HasRole(userWithRole(model.RoleNone), model.RoleNone))
}

func TestHasPermission_MatchesTable(t *testing.T) {
	all := map[Permission]bool{}
	for _, perms := range RolePermissions {
		for _, p := range perms {
			all[p] = true
		}
	}
	for _, role := range model.Roles() {
		user := userWithRole(role)
		granted := map[Permission]bool{}
		for _, p := range RolePermissions[role] {
			granted[p] = true
		}
		for p := range all {
			assert.Equal(t, granted[p], HasPermission(user, p), "role %s permission %s", role, p)
		}
	}
}

func TestHasPermission_NilAndUnknownRole(t *testing.T) {
	assert.False(t, HasPermission(nil, ViewMovies))
	assert.False(t, HasPermission(userWithRole(model.Role(99)), ViewMovies))
	assert.Empty(t, PermissionsFor(model.Role(99)))
}

func TestPermissionsFor_ReturnsCopy(t *testing.T) {
	perms := PermissionsFor(model.RoleCustomer)
	require.NotEmpty(t, perms)
	perms[0] = "mutated"
	assert.Equal(t, ViewMovies, RolePermissions[model.RoleCustomer][0])
}

func TestCanAccess(t *testing.T) {
	manager := userWithRole(model.RoleManager)
	staff := userWithRole(model.RoleStaff)

	assert.False(t, CanAccess(nil, model.RoleNone))
	assert.False(t, CanAccess(nil, model.RoleAdmin, ViewMovies))
	assert.True(t, CanAccess(manager, model.RoleNone))
	assert.True(t, CanAccess(manager, model.RoleManager, ViewRooms, ViewSeats))
	assert.False(t, CanAccess(manager, model.RoleAdmin))
	assert.False(t, CanAccess(manager, model.RoleManager, ViewFood))
	assert.True(t, CanAccess(staff, model.RoleStaff, ViewFood))
}

func TestAnyAndAllPermissions(t *testing.T) {
	staff := userWithRole(model.RoleStaff)

	assert.True(t, HasAnyPermission(staff, ViewUsers, ViewTickets))
	assert.False(t, HasAnyPermission(staff, ViewUsers, CreateMovies))
	assert.False(t, HasAnyPermission(staff))
	assert.True(t, HasAllPermissions(staff, ViewTickets, ProcessTickets))
	assert.False(t, HasAllPermissions(staff, ViewTickets, ViewUsers))
	assert.True(t, HasAllPermissions(staff))
	assert.False(t, HasAllPermissions(nil))
}

func TestRequired(t *testing.T) {
	perm, err := Required("Movies", ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, DeleteMovies, perm)

	_, err = Required("tickets", ActionDelete)
	require.Error(t, err)

	_, err = Required("popcorn-machines", ActionView)
	require.Error(t, err)

	assert.Contains(t, Resources(), "showtimes")
}
