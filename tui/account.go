package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"datve-cli/format"
	"datve-cli/guard"
	"datve-cli/model"
	"datve-cli/notify"
	"datve-cli/service"
	"datve-cli/session"
)

type authMsg struct {
	ok  bool
	err error
}

type profileMsg struct {
	user *model.User
	err  error
}

type myTicketsMsg struct {
	tickets []model.Ticket
	err     error
}

type cancelMsg struct {
	id  model.ID
	err error
}

type field struct {
	label string
	input textinput.Model
}

func newField(label, placeholder string, secret bool) field {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.Width = 40
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return field{label: label, input: in}
}

// form is a vertical stack of text inputs with one focused at a time.
type form struct {
	title  string
	fields []field
	focus  int
	err    string
	busy   bool
}

func newForm(title string, fields ...field) form {
	f := form{title: title, fields: fields}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	if len(f.fields) == 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd
}

func (f form) move(delta int) (form, tea.Cmd) {
	if len(f.fields) == 0 {
		return f, nil
	}
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f, f.fields[f.focus].input.Focus()
}

func (f form) onLast() bool {
	return f.focus == len(f.fields)-1
}

func (f form) value(i int) string {
	return strings.TrimSpace(f.fields[i].input.Value())
}

func (f form) view() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(f.title))
	b.WriteString("\n\n")
	label := lipgloss.NewStyle().Width(18)
	for i, fl := range f.fields {
		name := fl.label
		if i == f.focus {
			name = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Render("> " + name)
		} else {
			name = "  " + name
		}
		b.WriteString(label.Render(name))
		b.WriteString(fl.input.View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(f.err))
	}
	if f.busy {
		b.WriteString("\n")
		b.WriteString(hint("Please wait..."))
	}
	return b.String()
}

type ticketItem struct {
	ticket model.Ticket
}

func (i ticketItem) Title() string {
	title := i.ticket.MovieTitle()
	if title == "" {
		title = "Ticket"
	}
	return fmt.Sprintf("#%s • %s", i.ticket.Id, title)
}
func (i ticketItem) Description() string {
	parts := []string{i.ticket.Status.Label(), format.Currency(i.ticket.Total)}
	if seats := i.ticket.SeatLabels(); len(seats) > 0 {
		parts = append(parts, "seats "+strings.Join(seats, ", "))
	}
	if st := i.ticket.Showtime; st != nil {
		parts = append(parts, strings.TrimSpace(format.DateTime(st.Date)+" "+st.TimeLabel()))
	}
	if i.ticket.Customer != nil && i.ticket.Customer.Name != "" {
		parts = append(parts, i.ticket.Customer.Name)
	}
	return strings.Join(parts, " • ")
}
func (i ticketItem) FilterValue() string { return i.Title() + " " + i.Description() }

func ticketItems(tickets []model.Ticket) []list.Item {
	items := make([]list.Item, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, ticketItem{ticket: t})
	}
	return items
}

func (m appModel) openLogin() (appModel, tea.Cmd) {
	m.loginForm = newForm("Sign in",
		newField("Email", "you@example.com", false),
		newField("Password", "", true),
	)
	m.state = stateLogin
	return m, textinput.Blink
}

func (m appModel) openRegister() (appModel, tea.Cmd) {
	m.registerForm = newForm("Create an account",
		newField("Full name", "", false),
		newField("Email", "you@example.com", false),
		newField("Phone", "", false),
		newField("Password", "", true),
		newField("Confirm password", "", true),
	)
	m.state = stateRegister
	return m, textinput.Blink
}

func (m appModel) openProfile() (appModel, tea.Cmd) {
	user := m.currentUser()
	if user == nil {
		return m.navigate(guard.Redirect{Path: guard.PathLogin, ReturnTo: guard.PathProfile}, false)
	}
	m.profileForm = newForm("Profile",
		newField("Full name", "", false),
		newField("Email", "", false),
		newField("Phone", "", false),
		newField("Avatar URL", "", false),
	)
	m.profileForm.fields[0].input.SetValue(user.Name)
	m.profileForm.fields[1].input.SetValue(user.Email)
	m.profileForm.fields[2].input.SetValue(user.Phone)
	m.profileForm.fields[3].input.SetValue(user.Avatar)
	m.state = stateProfile
	return m, textinput.Blink
}

func (m appModel) openMyTickets() (appModel, tea.Cmd) {
	cmd := m.startLoading("Loading your tickets")
	return m, tea.Batch(m.fetchMyTicketsCmd(), cmd)
}

func (m appModel) fetchMyTicketsCmd() tea.Cmd {
	ctx := m.requestCtx()
	user := m.currentUser()
	return func() tea.Msg {
		if user == nil {
			return myTicketsMsg{err: session.ErrNotSignedIn}
		}
		tickets, err := m.client.UserTickets(ctx, user.Id)
		return myTicketsMsg{tickets: tickets, err: err}
	}
}

func (m appModel) updateAccount(msg tea.Msg) (appModel, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case authMsg:
		m.loginForm.busy = false
		m.registerForm.busy = false
		if msg.err != nil || !msg.ok {
			text := "Sign in failed."
			if msg.err != nil {
				text = service.ErrorMessage(msg.err)
			}
			if m.state == stateRegister {
				m.registerForm.err = text
			} else {
				m.loginForm.err = text
			}
			return m, m.showNotice(notify.Error(text)), true
		}
		m.returnTo = ""
		return m, m.showNotice(notify.Success("Signed in.")), true

	case profileMsg:
		m.profileForm.busy = false
		if msg.err != nil {
			m.profileForm.err = service.ErrorMessage(msg.err)
			return m, m.showNotice(notify.Error("Could not update profile.")), true
		}
		m.profileForm.err = ""
		return m, m.showNotice(notify.Success("Profile updated.")), true

	case myTicketsMsg:
		if msg.err != nil {
			return m, errWithReturnCmd(fmt.Errorf("load tickets: %s", service.ErrorMessage(msg.err)), stateHome), true
		}
		m.ticketList.ResetFilter()
		m.ticketList.SetItems(ticketItems(msg.tickets))
		m.state = stateMyTickets
		return m, nil, true

	case cancelMsg:
		if msg.err != nil {
			return m, m.showNotice(notify.Error("Could not cancel ticket: " + service.ErrorMessage(msg.err))), true
		}
		cmd := m.showNotice(notify.Success(fmt.Sprintf("Ticket #%s cancelled.", msg.id)))
		return m, tea.Batch(cmd, m.fetchMyTicketsCmd()), true
	}
	return m, nil, false
}

func (m appModel) handleAccountKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	if m.state == stateMyTickets {
		if msg.String() != "ctrl+x" {
			return m, nil, false
		}
		item, ok := m.ticketList.SelectedItem().(ticketItem)
		if !ok {
			return m, nil, true
		}
		if !item.ticket.Cancellable() {
			return m, m.showNotice(notify.Warning("Only tickets waiting for payment can be cancelled.")), true
		}
		id := item.ticket.Id
		ctx := m.requestCtx()
		m.action = &pendingAction{
			prompt:      fmt.Sprintf("Cancel ticket #%s?", id),
			returnState: stateMyTickets,
			run: func() tea.Msg {
				return cancelMsg{id: id, err: m.client.CancelTicket(ctx, id)}
			},
		}
		m.state = stateConfirmAction
		return m, nil, true
	}

	f := m.currentForm()
	switch msg.String() {
	case "tab", "down":
		next, cmd := f.move(1)
		m.setForm(next)
		return m, cmd, true
	case "shift+tab", "up":
		next, cmd := f.move(-1)
		m.setForm(next)
		return m, cmd, true
	case "ctrl+r":
		if m.state == stateLogin {
			next, cmd := m.navigate(guard.Redirect{Path: guard.PathRegister, ReturnTo: m.returnTo}, false)
			return next, cmd, true
		}
	case "enter":
		if !f.onLast() {
			next, cmd := f.move(1)
			m.setForm(next)
			return m, cmd, true
		}
		if f.busy {
			return m, nil, true
		}
		return m.submitForm()
	}
	return m, nil, false
}

func (m *appModel) currentForm() form {
	switch m.state {
	case stateRegister:
		return m.registerForm
	case stateProfile:
		return m.profileForm
	default:
		return m.loginForm
	}
}

func (m *appModel) setForm(f form) {
	switch m.state {
	case stateRegister:
		m.registerForm = f
	case stateProfile:
		m.profileForm = f
	default:
		m.loginForm = f
	}
}

func (m appModel) submitForm() (appModel, tea.Cmd, bool) {
	ctx := m.requestCtx()
	switch m.state {
	case stateLogin:
		f := m.loginForm
		email, password := f.value(0), f.fields[1].input.Value()
		if email == "" || password == "" {
			m.loginForm.err = "Email and password are required."
			return m, nil, true
		}
		m.loginForm.err = ""
		m.loginForm.busy = true
		returnTo := m.returnTo
		return m, func() tea.Msg {
			ok, err := m.session.Login(ctx, email, password, returnTo)
			return authMsg{ok: ok, err: err}
		}, true

	case stateRegister:
		f := m.registerForm
		req := model.RegisterRequest{
			Name:                 f.value(0),
			Email:                f.value(1),
			Phone:                f.value(2),
			Password:             f.fields[3].input.Value(),
			PasswordConfirmation: f.fields[4].input.Value(),
		}
		switch {
		case req.Name == "" || req.Email == "" || req.Password == "":
			m.registerForm.err = "Name, email and password are required."
			return m, nil, true
		case req.Password != req.PasswordConfirmation:
			m.registerForm.err = "Passwords do not match."
			return m, nil, true
		}
		m.registerForm.err = ""
		m.registerForm.busy = true
		return m, func() tea.Msg {
			ok, err := m.session.Register(ctx, req)
			return authMsg{ok: ok, err: err}
		}, true

	case stateProfile:
		f := m.profileForm
		update := model.ProfileUpdate{Name: f.value(0), Email: f.value(1), Phone: f.value(2), Avatar: f.value(3)}
		if update.Name == "" || update.Email == "" {
			m.profileForm.err = "Name and email are required."
			return m, nil, true
		}
		m.profileForm.err = ""
		m.profileForm.busy = true
		return m, func() tea.Msg {
			user, err := m.session.UpdateProfile(ctx, update)
			return profileMsg{user: user, err: err}
		}, true
	}
	return m, nil, false
}
