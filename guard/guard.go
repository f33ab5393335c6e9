// Package guard decides whether a navigation may render, and where to send
// the user when it may not.
package guard

import (
	"strings"

	"datve-cli/access"
	"datve-cli/model"
)

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateWrongSection
	StateForbidden
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateWrongSection:
		return "wrong-section"
	case StateForbidden:
		return "forbidden"
	case StateAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Redirect is a navigation target. ReturnTo is where to go after signing in.
type Redirect struct {
	Path     string
	ReturnTo string
}

func (r Redirect) IsZero() bool {
	return r.Path == ""
}

// Navigator moves the UI to another route.
type Navigator interface {
	Navigate(Redirect)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Redirect)

func (f NavigatorFunc) Navigate(r Redirect) { f(r) }

// Requirement is what a protected route asks of the user. A zero Role accepts
// any role; Permissions must all be held.
type Requirement struct {
	Role        model.Role
	Permissions []access.Permission
}

type Decision struct {
	State    State
	Redirect Redirect
}

func (d Decision) Allowed() bool {
	return d.State == StateAuthorized
}

// HomePath is the landing route for role.
func HomePath(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return PathAdmin
	case model.RoleManager:
		return PathManager
	case model.RoleStaff:
		return PathStaff
	default:
		return PathHome
	}
}

func inSection(path, section string) bool {
	return path == section || strings.HasPrefix(path, section+"/")
}

// inHomeSection reports whether path lies in the part of the app that role
// may use. Customers may go anywhere outside the back-office trees.
func inHomeSection(role model.Role, path string) bool {
	switch role {
	case model.RoleAdmin:
		return inSection(path, PathAdmin)
	case model.RoleManager:
		return inSection(path, PathManager)
	case model.RoleStaff:
		return inSection(path, PathStaff)
	case model.RoleCustomer:
		return !inSection(path, PathAdmin) && !inSection(path, PathManager) && !inSection(path, PathStaff)
	default:
		return false
	}
}

// Decide evaluates a navigation to path. The checks run in a fixed order:
// loading, signed in, home section, customer shortcut, then role and
// permissions.
func Decide(loading bool, user *model.User, path string, req Requirement) Decision {
	if loading {
		return Decision{State: StateLoading}
	}
	if user == nil {
		return Decision{State: StateUnauthenticated, Redirect: Redirect{Path: PathLogin, ReturnTo: path}}
	}
	if !inHomeSection(user.Role, path) {
		return Decision{State: StateWrongSection, Redirect: Redirect{Path: HomePath(user.Role)}}
	}
	if user.Role == model.RoleCustomer && req.Role == model.RoleNone {
		return Decision{State: StateAuthorized}
	}
	if !access.CanAccess(user, req.Role, req.Permissions...) {
		return Decision{State: StateForbidden, Redirect: Redirect{Path: PathUnauthorized}}
	}
	return Decision{State: StateAuthorized}
}
