package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"datve-cli/guard"
	"datve-cli/model"
	"datve-cli/notify"
)

const maxHistory = 32

// navigate runs the guard for to and opens whatever screen it settles on.
// push records the current route so esc can come back to it.
func (m appModel) navigate(to guard.Redirect, push bool) (appModel, tea.Cmd) {
	var loading bool
	var user *model.User
	if m.session != nil {
		snap := m.session.Snapshot()
		loading, user = snap.Loading, snap.User
	}

	first := guard.Check(loading, user, to.Path)
	path, decision := guard.Resolve(loading, user, to.Path)
	if decision.State == guard.StateLoading {
		m.pending = to.Path
		m.state = stateBooting
		return m, m.spinner.Tick
	}

	returnTo := to.ReturnTo
	if first.Redirect.ReturnTo != "" {
		returnTo = first.Redirect.ReturnTo
	}
	if (path == guard.PathLogin || path == guard.PathRegister) && returnTo != "" {
		m.returnTo = returnTo
	}
	if first.State != guard.StateAuthorized {
		m.log.Debug("navigation redirected", "from", to.Path, "to", path, "reason", first.State.String())
	}

	if path != guard.PathConfirmation {
		m.stopHold()
	}
	if push && m.path != "" && m.path != path && !transient(m.path) {
		m.history = append(m.history, m.path)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
	}
	m.path = path
	return m.enter(path)
}

// transient routes never go on the back stack.
func transient(path string) bool {
	switch path {
	case guard.PathLogin, guard.PathRegister, guard.PathConfirmation:
		return true
	}
	return false
}

// enter opens the screen for an already authorized path.
func (m appModel) enter(path string) (appModel, tea.Cmd) {
	route, params, ok := guard.Match(path)
	if !ok {
		cmd := m.showNotice(notify.Warning("Page not found."))
		m.path = guard.PathHome
		next, navCmd := m.enter(guard.PathHome)
		return next, tea.Batch(cmd, navCmd)
	}
	m.route = route

	switch route.Pattern {
	case guard.PathHome, guard.PathNowShowing:
		return m.openHome(false)
	case guard.PathComingSoon:
		return m.openHome(true)
	case guard.PathMovie:
		return m.openMovie(model.ID(params["id"]))
	case guard.PathBooking:
		return m.openBooking(model.ID(params["id"]))
	case guard.PathConfirmation:
		return m.openConfirmation()
	case guard.PathLogin:
		return m.openLogin()
	case guard.PathRegister:
		return m.openRegister()
	case guard.PathProfile:
		return m.openProfile()
	case guard.PathMyTickets:
		return m.openMyTickets()
	case guard.PathUnauthorized:
		m.state = stateUnauthorized
		return m, nil
	case guard.PathAdmin, guard.PathManager, guard.PathStaff:
		return m.openDashboard(route)
	}

	switch {
	case strings.HasSuffix(route.Pattern, "/statistics"):
		return m.openStatistics()
	case route.Resource == "tickets":
		return m.openTicketDesk()
	case route.Resource != "":
		return m.openRecords(route)
	}
	return m, errCmd(errors.New("nothing to show for " + path))
}
