package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"datve-cli/access"
	"datve-cli/guard"
	"datve-cli/model"
	"datve-cli/notify"
	"datve-cli/service"
)

type recordsMsg struct {
	resource string
	records  []model.Record
	err      error
}

type deleteMsg struct {
	id  model.ID
	err error
}

type deskMsg struct {
	tickets []model.Ticket
	err     error
}

type statusMsg struct {
	id     model.ID
	status model.TicketStatus
	err    error
}

type statsMsg struct {
	stats model.Statistics
	err   error
}

// pendingAction is a destructive call waiting for a y/n answer.
type pendingAction struct {
	prompt      string
	run         tea.Cmd
	returnState appState
}

type routeItem struct {
	route guard.Route
}

func (i routeItem) Title() string       { return i.route.Title }
func (i routeItem) Description() string { return i.route.Pattern }
func (i routeItem) FilterValue() string { return i.route.Title }

type recordItem struct {
	record   model.Record
	resource service.Resource
}

func (i recordItem) Title() string {
	title := ""
	for _, col := range i.resource.Columns {
		if col.Key == i.resource.IDKey {
			continue
		}
		if title = i.record.Field(col.Key); title != "" {
			break
		}
	}
	return fmt.Sprintf("#%s %s", i.record.ID(i.resource.IDKey), title)
}

func (i recordItem) Description() string {
	parts := []string{}
	for _, col := range i.resource.Columns {
		if col.Key == i.resource.IDKey {
			continue
		}
		if v := i.record.Field(col.Key); v != "" {
			parts = append(parts, col.Title+": "+v)
		}
	}
	return strings.Join(parts, " • ")
}

func (i recordItem) FilterValue() string { return i.Title() + " " + i.Description() }

type statusItem struct {
	status model.TicketStatus
}

func (i statusItem) Title() string       { return i.status.Label() }
func (i statusItem) Description() string { return string(i.status) }
func (i statusItem) FilterValue() string { return i.status.Label() }

func (m appModel) openDashboard(route guard.Route) (appModel, tea.Cmd) {
	snap := m.session.Snapshot()
	var items []list.Item
	for _, child := range guard.Children(route.Pattern) {
		if guard.Check(snap.Loading, snap.User, child.Pattern).Allowed() {
			items = append(items, routeItem{route: child})
		}
	}
	m.dashList.Title = route.Title
	m.dashList.ResetFilter()
	m.dashList.SetItems(items)
	m.dashList.Select(0)
	m.state = stateDashboard
	return m, nil
}

func (m appModel) openRecords(route guard.Route) (appModel, tea.Cmd) {
	res, err := service.LookupResource(route.Resource)
	if err != nil {
		return m, errCmd(err)
	}
	m.resource = res
	m.recordList.Title = res.Title
	cmd := m.startLoading("Loading " + strings.ToLower(res.Title))
	return m, tea.Batch(m.fetchRecordsCmd(res.Name), cmd)
}

func (m appModel) fetchRecordsCmd(name string) tea.Cmd {
	ctx := m.requestCtx()
	return func() tea.Msg {
		records, err := m.client.ListResource(ctx, name)
		return recordsMsg{resource: name, records: records, err: err}
	}
}

func (m appModel) openTicketDesk() (appModel, tea.Cmd) {
	cmd := m.startLoading("Loading tickets")
	return m, tea.Batch(m.fetchDeskCmd(), cmd)
}

func (m appModel) fetchDeskCmd() tea.Cmd {
	ctx := m.requestCtx()
	role := m.role()
	return func() tea.Msg {
		tickets, err := m.client.RoleTickets(ctx, role)
		return deskMsg{tickets: tickets, err: err}
	}
}

func (m appModel) openStatistics() (appModel, tea.Cmd) {
	ctx := m.requestCtx()
	role := m.role()
	cmd := m.startLoading("Loading statistics")
	return m, tea.Batch(func() tea.Msg {
		stats, err := m.client.Statistics(ctx, role)
		return statsMsg{stats: stats, err: err}
	}, cmd)
}

func (m appModel) role() model.Role {
	if user := m.currentUser(); user != nil {
		return user.Role
	}
	return model.RoleNone
}

func (m appModel) updateBackOffice(msg tea.Msg) (appModel, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case recordsMsg:
		if msg.resource != m.resource.Name {
			return m, nil, true
		}
		if msg.err != nil {
			return m, errWithReturnCmd(fmt.Errorf("load %s: %s", msg.resource, service.ErrorMessage(msg.err)), stateDashboard), true
		}
		m.records = msg.records
		items := make([]list.Item, 0, len(msg.records))
		for _, r := range msg.records {
			items = append(items, recordItem{record: r, resource: m.resource})
		}
		m.recordList.ResetFilter()
		m.recordList.SetItems(items)
		m.state = stateRecords
		return m, nil, true

	case deleteMsg:
		if msg.err != nil {
			return m, m.showNotice(notify.Error("Delete failed: " + service.ErrorMessage(msg.err))), true
		}
		cmd := m.showNotice(notify.Success(fmt.Sprintf("Deleted #%s.", msg.id)))
		return m, tea.Batch(cmd, m.fetchRecordsCmd(m.resource.Name)), true

	case deskMsg:
		if msg.err != nil {
			return m, errWithReturnCmd(fmt.Errorf("load tickets: %s", service.ErrorMessage(msg.err)), stateDashboard), true
		}
		m.desk = msg.tickets
		m.deskList.ResetFilter()
		m.deskList.SetItems(ticketItems(msg.tickets))
		m.state = stateTicketDesk
		return m, nil, true

	case statusMsg:
		if msg.err != nil {
			return m, m.showNotice(notify.Error("Status update failed: " + service.ErrorMessage(msg.err))), true
		}
		cmd := m.showNotice(notify.Success(fmt.Sprintf("Ticket #%s is now %s.", msg.id, msg.status.Label())))
		return m, tea.Batch(cmd, m.fetchDeskCmd()), true

	case statsMsg:
		if msg.err != nil {
			return m, errWithReturnCmd(fmt.Errorf("load statistics: %s", service.ErrorMessage(msg.err)), stateDashboard), true
		}
		m.stats = msg.stats
		m.state = stateStatistics
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) handleBackOfficeKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch m.state {
	case stateDashboard:
		if msg.Type != tea.KeyEnter {
			return m, nil, false
		}
		item, ok := m.dashList.SelectedItem().(routeItem)
		if !ok {
			return m, nil, true
		}
		next, cmd := m.navigate(guard.Redirect{Path: item.route.Pattern}, true)
		return next, cmd, true

	case stateRecords:
		switch msg.String() {
		case "ctrl+r":
			return m, m.fetchRecordsCmd(m.resource.Name), true
		case "ctrl+x":
			return m.confirmDelete()
		}

	case stateTicketDesk:
		switch msg.String() {
		case "ctrl+r":
			return m, m.fetchDeskCmd(), true
		case "enter":
			if _, ok := m.deskList.SelectedItem().(ticketItem); !ok {
				return m, nil, true
			}
			if !m.session.HasPermission(access.ProcessTickets) {
				return m, m.showNotice(notify.Warning("You cannot change ticket status.")), true
			}
			m.statusList.SetItems([]list.Item{
				statusItem{status: model.TicketPaid},
				statusItem{status: model.TicketCancelled},
				statusItem{status: model.TicketPendingPayment},
			})
			m.statusList.Select(0)
			m.state = stateTicketStatus
			return m, nil, true
		}

	case stateTicketStatus:
		if msg.Type != tea.KeyEnter {
			return m, nil, false
		}
		ticket, ok := m.deskList.SelectedItem().(ticketItem)
		choice, ok2 := m.statusList.SelectedItem().(statusItem)
		if !ok || !ok2 {
			return m, nil, true
		}
		id, status := ticket.ticket.Id, choice.status
		ctx := m.requestCtx()
		role := m.role()
		m.state = stateTicketDesk
		return m, func() tea.Msg {
			return statusMsg{id: id, status: status, err: m.client.UpdateTicketStatus(ctx, role, id, status)}
		}, true

	case stateConfirmAction:
		switch msg.String() {
		case "y", "Y":
			run := m.action.run
			m.state = m.action.returnState
			m.action = nil
			return m, run, true
		case "n", "N":
			m.state = m.action.returnState
			m.action = nil
			return m, nil, true
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) confirmDelete() (appModel, tea.Cmd, bool) {
	item, ok := m.recordList.SelectedItem().(recordItem)
	if !ok {
		return m, nil, true
	}
	perm, err := access.Required(m.resource.Name, access.ActionDelete)
	if err != nil || !m.session.HasPermission(perm) {
		return m, m.showNotice(notify.Warning("You are not allowed to delete " + strings.ToLower(m.resource.Title) + ".")), true
	}
	id := item.record.ID(m.resource.IDKey)
	name := m.resource.Name
	ctx := m.requestCtx()
	m.action = &pendingAction{
		prompt:      fmt.Sprintf("Delete %s #%s?", strings.ToLower(m.resource.Title), id),
		returnState: stateRecords,
		run: func() tea.Msg {
			return deleteMsg{id: id, err: m.client.DeleteResource(ctx, name, id)}
		},
	}
	m.state = stateConfirmAction
	return m, nil, true
}

func (m appModel) actionView() string {
	if m.action == nil {
		return ""
	}
	chip := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("203")).
		Padding(0, 2)
	return chip.Render("Confirm") + "\n\n" + m.action.prompt + "\n\n" + hint("y yes • n no")
}

func (m appModel) statisticsView() string {
	if len(m.stats) == 0 {
		return hint("No statistics available.")
	}
	key := lipgloss.NewStyle().Faint(true).Width(28)
	value := lipgloss.NewStyle().Bold(true)
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Statistics"))
	b.WriteString("\n\n")
	for _, k := range m.stats.Keys() {
		b.WriteString(key.Render(strings.ReplaceAll(k, "_", " ")))
		b.WriteString(value.Render(m.stats.Field(k)))
		b.WriteString("\n")
	}
	return b.String()
}
