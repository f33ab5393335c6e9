package guard

import (
	"strings"

	"datve-cli/access"
	"datve-cli/model"
)

const (
	PathHome         = "/"
	PathNowShowing   = "/now-showing"
	PathComingSoon   = "/coming-soon"
	PathMovie        = "/movie/:id"
	PathLogin        = "/login"
	PathRegister     = "/register"
	PathBooking      = "/booking/:id"
	PathConfirmation = "/confirmation"
	PathUnauthorized = "/unauthorized"
	PathMyTickets    = "/my-tickets"
	PathProfile      = "/profile"

	PathAdmin   = "/admin"
	PathManager = "/manager"
	PathStaff   = "/staff"
)

// Route is one entry of the route table. Guarded routes run Decide; routes
// with a parent also have to pass the parent's requirement.
type Route struct {
	Pattern     string
	Title       string
	Guarded     bool
	Requirement Requirement
	Parent      string
	// Resource names the back-office collection the screen manages.
	Resource string
}

var routes = []Route{
	{Pattern: PathHome, Title: "Home"},
	{Pattern: PathNowShowing, Title: "Now showing"},
	{Pattern: PathComingSoon, Title: "Coming soon"},
	{Pattern: PathMovie, Title: "Movie"},
	{Pattern: PathLogin, Title: "Sign in"},
	{Pattern: PathRegister, Title: "Register"},
	{Pattern: PathBooking, Title: "Booking"},
	{Pattern: PathConfirmation, Title: "Confirm booking"},
	{Pattern: PathUnauthorized, Title: "Unauthorized"},
	{Pattern: PathMyTickets, Title: "My tickets", Guarded: true},
	{Pattern: PathProfile, Title: "Profile", Guarded: true},

	{Pattern: PathAdmin, Title: "Admin dashboard", Guarded: true, Requirement: adminNeeds(access.ViewStatistics)},
	{Pattern: "/admin/accounts", Title: "Accounts", Guarded: true, Parent: PathAdmin, Resource: "users", Requirement: adminNeeds(access.ViewUsers)},
	{Pattern: "/admin/movies", Title: "Movies", Guarded: true, Parent: PathAdmin, Resource: "movies", Requirement: adminNeeds(access.ViewMovies)},
	{Pattern: "/admin/theaters", Title: "Theaters", Guarded: true, Parent: PathAdmin, Resource: "theaters", Requirement: adminNeeds(access.ViewTheaters)},
	{Pattern: "/admin/statistics", Title: "Statistics", Guarded: true, Parent: PathAdmin, Requirement: adminNeeds(access.ViewStatistics)},

	{Pattern: PathManager, Title: "Manager dashboard", Guarded: true, Requirement: Requirement{Role: model.RoleManager}},
	{Pattern: "/manager/theaters", Title: "Theaters", Guarded: true, Parent: PathManager, Resource: "theaters", Requirement: Requirement{Role: model.RoleManager}},
	{Pattern: "/manager/staff", Title: "Staff", Guarded: true, Parent: PathManager, Resource: "staff", Requirement: Requirement{Role: model.RoleManager}},
	{Pattern: "/manager/rooms", Title: "Rooms", Guarded: true, Parent: PathManager, Resource: "rooms", Requirement: Requirement{Role: model.RoleManager}},
	{Pattern: "/manager/seats", Title: "Seats", Guarded: true, Parent: PathManager, Resource: "seats", Requirement: Requirement{Role: model.RoleManager}},
	{Pattern: "/manager/showtimes", Title: "Showtimes", Guarded: true, Parent: PathManager, Resource: "showtimes", Requirement: Requirement{Role: model.RoleManager}},
	{Pattern: "/manager/statistics", Title: "Statistics", Guarded: true, Parent: PathManager, Requirement: Requirement{Role: model.RoleManager}},
	{Pattern: "/manager/tickets", Title: "Tickets", Guarded: true, Parent: PathManager, Resource: "tickets", Requirement: Requirement{Role: model.RoleManager}},
	{Pattern: "/manager/promotions", Title: "Promotions", Guarded: true, Parent: PathManager, Resource: "promotions", Requirement: Requirement{Role: model.RoleManager}},
	{Pattern: "/manager/movies", Title: "Movies", Guarded: true, Parent: PathManager, Resource: "movies", Requirement: Requirement{Role: model.RoleManager}},

	{Pattern: PathStaff, Title: "Staff dashboard", Guarded: true, Requirement: staffNeeds(access.ViewShowtimes)},
	{Pattern: "/staff/tickets", Title: "Tickets", Guarded: true, Parent: PathStaff, Resource: "tickets", Requirement: staffNeeds(access.ViewTickets)},
	{Pattern: "/staff/food", Title: "Food & drinks", Guarded: true, Parent: PathStaff, Resource: "food", Requirement: staffNeeds(access.ViewFood)},
}

func adminNeeds(perms ...access.Permission) Requirement {
	return Requirement{Role: model.RoleAdmin, Permissions: perms}
}

func staffNeeds(perms ...access.Permission) Requirement {
	return Requirement{Role: model.RoleStaff, Permissions: perms}
}

// Routes returns a copy of the route table.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Children lists the routes nested under parent in table order.
func Children(parent string) []Route {
	var out []Route
	for _, r := range routes {
		if r.Parent == parent {
			out = append(out, r)
		}
	}
	return out
}

// Match finds the route for a concrete path and returns the values bound to
// its ":name" segments.
func Match(path string) (Route, map[string]string, bool) {
	path = normalize(path)
	for _, r := range routes {
		if params, ok := matchPattern(r.Pattern, path); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

func lookup(pattern string) (Route, bool) {
	for _, r := range routes {
		if r.Pattern == pattern {
			return r, true
		}
	}
	return Route{}, false
}

// Check runs the guard for path, the parent route first. Unknown and public
// routes are always allowed.
func Check(loading bool, user *model.User, path string) Decision {
	path = normalize(path)
	route, _, ok := Match(path)
	if !ok || !route.Guarded {
		return Decision{State: StateAuthorized}
	}
	if route.Parent != "" {
		if parent, ok := lookup(route.Parent); ok {
			if d := Decide(loading, user, path, parent.Requirement); !d.Allowed() {
				return d
			}
		}
	}
	return Decide(loading, user, path, route.Requirement)
}

// Resolve follows guard redirects from path until a route renders, so callers
// never land on a screen the user may not see.
func Resolve(loading bool, user *model.User, path string) (string, Decision) {
	seen := map[string]bool{}
	for {
		d := Check(loading, user, path)
		if d.Allowed() || d.State == StateLoading || d.Redirect.IsZero() {
			return path, d
		}
		next := d.Redirect.Path
		if seen[next] {
			return next, d
		}
		seen[path] = true
		path = next
	}
}

// Expand fills ":name" segments of pattern from params.
func Expand(pattern string, params map[string]string) string {
	parts := strings.Split(pattern, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			parts[i] = params[part[1:]]
		}
	}
	return strings.Join(parts, "/")
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func matchPattern(pattern, path string) (map[string]string, bool) {
	pp := strings.Split(pattern, "/")
	sp := strings.Split(path, "/")
	if len(pp) != len(sp) {
		return nil, false
	}
	params := map[string]string{}
	for i := range pp {
		if strings.HasPrefix(pp[i], ":") {
			if sp[i] == "" {
				return nil, false
			}
			params[pp[i][1:]] = sp[i]
			continue
		}
		if pp[i] != sp[i] {
			return nil, false
		}
	}
	return params, true
}
