package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datve-cli/access"
	"datve-cli/model"
)

func user(role model.Role) *model.User {
	return &model.User{Id: "1", Role: role}
}

func TestDecide_Order(t *testing.T) {
	cases := []struct {
		name     string
		loading  bool
		user     *model.User
		path     string
		req      Requirement
		state    State
		redirect string
	}{
		{"loading wins", true, nil, "/admin", adminNeeds(access.ViewStatistics), StateLoading, ""},
		{"no user", false, nil, "/my-tickets", Requirement{}, StateUnauthenticated, PathLogin},
		{"manager outside section", false, user(model.RoleManager), "/my-tickets", Requirement{}, StateWrongSection, PathManager},
		{"manager in admin tree holding the permission", false, user(model.RoleManager), "/admin/accounts", adminNeeds(access.ViewUsers), StateWrongSection, PathManager},
		{"manager in admin tree lacking the permission", false, user(model.RoleManager), "/admin/statistics", adminNeeds(access.ViewStatistics), StateWrongSection, PathManager},
		{"admin in manager tree", false, user(model.RoleAdmin), "/manager/rooms", Requirement{Role: model.RoleManager}, StateWrongSection, PathAdmin},
		{"staff outside section", false, user(model.RoleStaff), "/profile", Requirement{}, StateWrongSection, PathStaff},
		{"customer in admin tree", false, user(model.RoleCustomer), "/admin", adminNeeds(), StateWrongSection, PathHome},
		{"unknown role", false, user(model.Role(9)), "/profile", Requirement{}, StateWrongSection, PathHome},
		{"customer shortcut", false, user(model.RoleCustomer), "/my-tickets", Requirement{}, StateAuthorized, ""},
		{"customer with role requirement", false, user(model.RoleCustomer), "/profile", Requirement{Role: model.RoleAdmin}, StateForbidden, PathUnauthorized},
		{"staff missing permission", false, user(model.RoleStaff), "/staff/x", staffNeeds(access.ViewUsers), StateForbidden, PathUnauthorized},
		{"staff allowed", false, user(model.RoleStaff), "/staff/tickets", staffNeeds(access.ViewTickets), StateAuthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.loading, tc.user, tc.path, tc.req)
			assert.Equal(t, tc.state, d.State)
			assert.Equal(t, tc.redirect, d.Redirect.Path)
		})
	}
}

func TestCheck_ManagerAlwaysSentHomeFromAdminTree(t *testing.T) {
	manager := user(model.RoleManager)
	paths := []string{PathAdmin}
	for _, child := range Children(PathAdmin) {
		paths = append(paths, child.Pattern)
	}
	require.Greater(t, len(paths), 1)
	for _, path := range paths {
		d := Check(false, manager, path)
		assert.Equal(t, StateWrongSection, d.State, path)
		assert.Equal(t, PathManager, d.Redirect.Path, path)

		resolved, _ := Resolve(false, manager, path)
		assert.Equal(t, PathManager, resolved, path)
	}
}

func TestDecide_LoginCarriesReturnPath(t *testing.T) {
	d := Decide(false, nil, "/confirmation", Requirement{})
	assert.Equal(t, Redirect{Path: PathLogin, ReturnTo: "/confirmation"}, d.Redirect)
}

func TestHomePath(t *testing.T) {
	assert.Equal(t, "/admin", HomePath(model.RoleAdmin))
	assert.Equal(t, "/manager", HomePath(model.RoleManager))
	assert.Equal(t, "/staff", HomePath(model.RoleStaff))
	assert.Equal(t, "/", HomePath(model.RoleCustomer))
	assert.Equal(t, "/", HomePath(model.RoleNone))
}

func TestMatch(t *testing.T) {
	route, params, ok := Match("/movie/42/")
	require.True(t, ok)
	assert.Equal(t, PathMovie, route.Pattern)
	assert.Equal(t, "42", params["id"])

	_, _, ok = Match("/movie/")
	assert.False(t, ok)

	assert.Equal(t, "/booking/7", Expand(PathBooking, map[string]string{"id": "7"}))
}

func TestCheck_ParentAndChild(t *testing.T) {
	staff := user(model.RoleStaff)
	assert.True(t, Check(false, staff, "/staff/food").Allowed())
	assert.True(t, Check(false, staff, "/staff/tickets").Allowed())

	admin := user(model.RoleAdmin)
	assert.True(t, Check(false, admin, "/admin/accounts").Allowed())
	assert.True(t, Check(false, admin, "/admin/statistics").Allowed())

	manager := user(model.RoleManager)
	d := Check(false, manager, "/admin/accounts")
	assert.Equal(t, StateWrongSection, d.State)
	assert.Equal(t, PathManager, d.Redirect.Path)

	assert.True(t, Check(false, nil, "/").Allowed())
	assert.True(t, Check(false, nil, "/confirmation").Allowed())
	assert.Equal(t, StateUnauthenticated, Check(false, nil, "/profile").State)
}

func TestResolve_FollowsRedirects(t *testing.T) {
	path, d := Resolve(false, user(model.RoleManager), "/my-tickets")
	assert.Equal(t, PathManager, path)
	assert.True(t, d.Allowed())

	path, d = Resolve(false, nil, "/admin/movies")
	assert.Equal(t, PathLogin, path)
	assert.True(t, d.Allowed())

	path, d = Resolve(true, nil, "/admin")
	assert.Equal(t, "/admin", path)
	assert.Equal(t, StateLoading, d.State)
}

func TestChildren(t *testing.T) {
	children := Children(PathStaff)
	require.Len(t, children, 2)
	assert.Equal(t, "tickets", children[0].Resource)
	assert.Equal(t, "food", children[1].Resource)
}
