package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"datve-cli/booking"
	"datve-cli/config"
	"datve-cli/guard"
	"datve-cli/logger"
	"datve-cli/model"
	"datve-cli/notify"
	"datve-cli/service"
	"datve-cli/session"
)

type appState int

const (
	stateBooting appState = iota
	stateLoading
	stateHome
	stateShowtimes
	stateSelectProducts
	stateSelectSeats
	stateConfirm
	stateLogin
	stateRegister
	stateProfile
	stateMyTickets
	stateUnauthorized
	stateDashboard
	stateRecords
	stateTicketDesk
	stateTicketStatus
	stateStatistics
	stateConfirmAction
	stateError
)

const noticeTTL = 4 * time.Second

// Options wires the TUI to the rest of the app.
type Options struct {
	Client  *service.Client
	Session *session.Manager
	Config  config.Config
	Log     *slog.Logger
	// Start is the first route shown once the session is restored.
	Start string
	// OpenURL launches the payment page. Defaults to the system browser.
	OpenURL func(string) error
}

type appModel struct {
	client  *service.Client
	session *session.Manager
	flow    *booking.Flow
	cfg     config.Config
	log     *slog.Logger
	bus     *bus

	state     appState
	lastState appState
	err       error

	width  int
	height int

	path     string
	history  []string
	pending  string
	returnTo string

	loadingTitle string
	notice       *notify.Notice
	noticeGen    int

	homeList     list.Model
	showtimeList list.Model
	productList  list.Model
	ticketList   list.Model
	dashList     list.Model
	recordList   list.Model
	deskList     list.Model
	statusList   list.Model

	comingSoon bool
	movies     []model.Movie
	movie      model.Movie
	showtime   model.Showtime

	ticketTypes     []model.TicketType
	foodItems       []model.FoodItem
	ticketCounts    map[model.ID]int
	foodCounts      map[model.ID]int
	seats           []model.Seat
	seatCursor      int
	picked          []model.Seat
	showSeatNumbers bool

	draft      *booking.Draft
	hold       *booking.Countdown
	holdGen    int
	remaining  int
	submitting bool
	details    confirmDetails

	loginForm    form
	registerForm form
	profileForm  form

	route    guard.Route
	resource service.Resource
	records  []model.Record
	desk     []model.Ticket
	stats    model.Statistics

	action *pendingAction

	spinner spinner.Model
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type sessionReadyMsg struct{}

type navMsg struct {
	to guard.Redirect
}

type noticeMsg struct {
	notice notify.Notice
}

type noticeExpiredMsg struct {
	gen int
}

type loggedOutMsg struct{}

// busMsg wraps a message posted from outside the update loop.
type busMsg struct {
	msg tea.Msg
}

// bus carries navigation requests, notices and countdown ticks from
// goroutines the model does not own into the update loop.
type bus struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

func newBus() *bus {
	return &bus{ch: make(chan tea.Msg, 16), done: make(chan struct{})}
}

func (b *bus) post(msg tea.Msg) {
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

func (b *bus) close() {
	b.once.Do(func() { close(b.done) })
}

func (b *bus) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return busMsg{msg: msg}
		case <-b.done:
			return nil
		}
	}
}

func New(opts Options) tea.Model {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	open := opts.OpenURL
	if open == nil {
		open = openURL
	}

	b := newBus()
	nav := guard.NavigatorFunc(func(to guard.Redirect) { b.post(navMsg{to: to}) })
	notifier := notify.Func(func(n notify.Notice) { b.post(noticeMsg{notice: n}) })
	if opts.Session != nil {
		opts.Session.SetNavigator(nav)
	}

	m := appModel{
		client:  opts.Client,
		session: opts.Session,
		flow:    booking.NewFlow(opts.Client, nav, notifier, open, log),
		cfg:     opts.Config,
		log:     log,
		bus:     b,
		state:   stateBooting,
		pending: opts.Start,
	}

	m.homeList = newList("Now showing")
	m.showtimeList = newList("Showtimes")
	m.productList = newList("Tickets & snacks")
	m.productList.SetFilteringEnabled(false)
	m.ticketList = newList("My tickets")
	m.dashList = newList("Dashboard")
	m.recordList = newList("Records")
	m.deskList = newList("Tickets")
	m.statusList = newList("Set status")
	m.statusList.SetFilteringEnabled(false)

	m.ticketCounts = make(map[model.ID]int)
	m.foodCounts = make(map[model.ID]int)
	m.showSeatNumbers = true

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.bus.listen(), m.initSessionCmd(), m.spinner.Tick)
}

func (m appModel) initSessionCmd() tea.Cmd {
	return func() tea.Msg {
		if m.session != nil {
			m.session.Initialize(context.Background())
		}
		return sessionReadyMsg{}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case busMsg:
		next, cmd := m.Update(msg.msg)
		return next, tea.Batch(cmd, m.bus.listen())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.handleFilterInput(msg) {
			return m, nil
		}
		next, cmd, handled := m.handleKey(msg)
		if handled {
			return next, cmd
		}
		m = next
		// fallthrough to component update

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.state = stateError
		return m, nil

	case sessionReadyMsg:
		start := m.pending
		m.pending = ""
		if start == "" {
			start = guard.PathHome
		}
		return m.navigate(guard.Redirect{Path: start}, false)

	case navMsg:
		return m.navigate(msg.to, true)

	case noticeMsg:
		return m, m.showNotice(msg.notice)

	case noticeExpiredMsg:
		if msg.gen == m.noticeGen {
			m.notice = nil
		}
		return m, nil

	case loggedOutMsg:
		m.history = nil
		m.returnTo = ""
		cmd := m.showNotice(notify.Success("Signed out."))
		next, navCmd := m.navigate(guard.Redirect{Path: guard.PathHome}, false)
		return next, tea.Batch(cmd, navCmd)
	}

	if next, cmd, ok := m.updateScreen(msg); ok {
		return next, cmd
	}

	var cmd tea.Cmd
	switch m.state {
	case stateHome:
		m.homeList, cmd = m.homeList.Update(msg)
	case stateShowtimes:
		m.showtimeList, cmd = m.showtimeList.Update(msg)
	case stateSelectProducts:
		m.productList, cmd = m.productList.Update(msg)
	case stateMyTickets:
		m.ticketList, cmd = m.ticketList.Update(msg)
	case stateDashboard:
		m.dashList, cmd = m.dashList.Update(msg)
	case stateRecords:
		m.recordList, cmd = m.recordList.Update(msg)
	case stateTicketDesk:
		m.deskList, cmd = m.deskList.Update(msg)
	case stateTicketStatus:
		m.statusList, cmd = m.statusList.Update(msg)
	case stateLogin:
		m.loginForm, cmd = m.loginForm.update(msg)
	case stateRegister:
		m.registerForm, cmd = m.registerForm.update(msg)
	case stateProfile:
		m.profileForm, cmd = m.profileForm.update(msg)
	}
	return m, cmd
}

// updateScreen routes the result messages of each screen.
func (m appModel) updateScreen(msg tea.Msg) (tea.Model, tea.Cmd, bool) {
	if next, cmd, ok := m.updateCatalog(msg); ok {
		return next, cmd, true
	}
	if next, cmd, ok := m.updateBooking(msg); ok {
		return next, cmd, true
	}
	if next, cmd, ok := m.updateAccount(msg); ok {
		return next, cmd, true
	}
	if next, cmd, ok := m.updateBackOffice(msg); ok {
		return next, cmd, true
	}
	return m, nil, false
}

func (m appModel) View() string {
	header := m.headerView()
	body := ""
	switch m.state {
	case stateBooting, stateLoading:
		body = m.loadingView()
	case stateHome:
		body = m.homeList.View()
	case stateShowtimes:
		body = m.showtimeList.View()
	case stateSelectProducts:
		body = m.productList.View() + "\n" + m.quoteLine()
	case stateSelectSeats:
		body = m.renderSeatMap()
	case stateConfirm:
		body = m.confirmView()
	case stateLogin:
		body = m.loginForm.view()
	case stateRegister:
		body = m.registerForm.view()
	case stateProfile:
		body = m.profileForm.view()
	case stateMyTickets:
		body = m.ticketList.View()
	case stateUnauthorized:
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("You do not have permission to open this page.") +
			"\n\n" + hint("Press enter to go to your home screen.")
	case stateDashboard:
		body = m.dashList.View()
	case stateRecords:
		body = m.recordList.View()
	case stateTicketDesk:
		body = m.deskList.View()
	case stateTicketStatus:
		body = m.statusList.View()
	case stateStatistics:
		body = m.statisticsView()
	case stateConfirmAction:
		body = m.actionView()
	case stateError:
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.err.Error()) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	}
	out := header
	if body != "" {
		out += "\n\n" + body
	}
	if footer := m.noticeView(); footer != "" {
		out += "\n\n" + footer
	}
	return out
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Đặt Vé")
	sub := []string{}
	if user := m.currentUser(); user != nil {
		name := user.Name
		if name == "" {
			name = user.Email
		}
		sub = append(sub, fmt.Sprintf("Signed in: %s (%s)", name, user.Role))
	} else if m.state != stateBooting {
		sub = append(sub, "Guest")
	}
	if route, _, ok := guard.Match(m.path); ok && m.path != "" {
		sub = append(sub, route.Title)
	}
	if m.movie.Title != "" && (m.state == stateShowtimes || m.state == stateSelectProducts || m.state == stateSelectSeats) {
		sub = append(sub, "Movie: "+m.movie.Title)
	}
	if m.state == stateSelectProducts || m.state == stateSelectSeats {
		sub = append(sub, fmt.Sprintf("Showtime: %s %s", m.showtime.Date, m.showtime.TimeLabel()))
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}

	hints := "ctrl+c quit • esc back"
	switch m.state {
	case stateHome:
		hints = "ctrl+c quit • type to filter • tab now showing/coming soon • enter showtimes • " + m.accountHints()
	case stateShowtimes:
		hints = "ctrl+c quit • esc back • type to filter • enter book"
	case stateSelectProducts:
		hints = "ctrl+c quit • esc back • ←/→ or -/+ change count • enter pick seats"
	case stateSelectSeats:
		hints = "ctrl+c quit • esc back • arrows move • space pick seat • n toggle numbers • enter confirm"
	case stateConfirm:
		hints = "ctrl+c quit • esc back • enter book and pay"
	case stateLogin:
		hints = "ctrl+c quit • esc back • tab next field • enter sign in • ctrl+r register"
	case stateRegister, stateProfile:
		hints = "ctrl+c quit • esc back • tab next field • enter save"
	case stateMyTickets:
		hints = "ctrl+c quit • esc back • type to filter • ctrl+x cancel pending ticket"
	case stateDashboard:
		hints = "ctrl+c quit • type to filter • enter open • " + m.accountHints()
	case stateRecords:
		hints = "ctrl+c quit • esc back • type to filter • ctrl+x delete • ctrl+r reload"
	case stateTicketDesk:
		hints = "ctrl+c quit • esc back • type to filter • enter change status • ctrl+r reload"
	case stateTicketStatus:
		hints = "ctrl+c quit • esc back • enter apply"
	case stateConfirmAction:
		hints = "y confirm • n/esc cancel"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) accountHints() string {
	if m.currentUser() == nil {
		return "ctrl+l sign in"
	}
	return "ctrl+t my tickets • ctrl+p profile • ctrl+b dashboard • ctrl+o sign out"
}

func (m appModel) noticeView() string {
	if m.notice == nil {
		return ""
	}
	color := lipgloss.Color("6")
	switch m.notice.Level {
	case notify.LevelSuccess:
		color = lipgloss.Color("2")
	case notify.LevelWarning:
		color = lipgloss.Color("3")
	case notify.LevelError:
		color = lipgloss.Color("1")
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(m.notice.Text)
}

func (m *appModel) showNotice(n notify.Notice) tea.Cmd {
	m.notice = &n
	m.noticeGen++
	gen := m.noticeGen
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg{gen: gen} })
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quit()
		return m, tea.Quit, true
	case "q":
		if !m.acceptsText() {
			m.quit()
			return m, tea.Quit, true
		}
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	}

	if !m.inForm() {
		switch msg.String() {
		case "ctrl+l":
			if m.currentUser() == nil {
				next, cmd := m.navigate(guard.Redirect{Path: guard.PathLogin}, true)
				return next, cmd, true
			}
		case "ctrl+o":
			if m.currentUser() != nil {
				return m, m.logoutCmd(), true
			}
		case "ctrl+t":
			next, cmd := m.navigate(guard.Redirect{Path: guard.PathMyTickets}, true)
			return next, cmd, true
		case "ctrl+p":
			next, cmd := m.navigate(guard.Redirect{Path: guard.PathProfile}, true)
			return next, cmd, true
		case "ctrl+b":
			if user := m.currentUser(); user != nil {
				next, cmd := m.navigate(guard.Redirect{Path: guard.HomePath(user.Role)}, true)
				return next, cmd, true
			}
		}
	}

	switch m.state {
	case stateHome, stateShowtimes:
		return m.handleCatalogKey(msg)
	case stateSelectProducts, stateSelectSeats, stateConfirm:
		return m.handleBookingKey(msg)
	case stateLogin, stateRegister, stateProfile, stateMyTickets:
		return m.handleAccountKey(msg)
	case stateDashboard, stateRecords, stateTicketDesk, stateTicketStatus, stateConfirmAction:
		return m.handleBackOfficeKey(msg)
	case stateUnauthorized:
		if msg.Type == tea.KeyEnter {
			target := guard.PathHome
			if user := m.currentUser(); user != nil {
				target = guard.HomePath(user.Role)
			}
			next, cmd := m.navigate(guard.Redirect{Path: target}, false)
			return next, cmd, true
		}
	}
	return m, nil, false
}

func (m *appModel) quit() {
	m.stopHold()
	m.bus.close()
}

func (m appModel) inForm() bool {
	return m.state == stateLogin || m.state == stateRegister || m.state == stateProfile
}

// acceptsText reports whether printable keys belong to the current screen.
func (m appModel) acceptsText() bool {
	if m.inForm() {
		return true
	}
	listPtr := m.activeList()
	return listPtr != nil && listPtr.FilteringEnabled()
}

func (m appModel) goBack() (appModel, tea.Cmd) {
	switch m.state {
	case stateSelectSeats:
		m.state = stateSelectProducts
		return m, nil
	case stateTicketStatus:
		m.state = stateTicketDesk
		return m, nil
	case stateConfirmAction:
		m.state = m.action.returnState
		m.action = nil
		return m, nil
	case stateError:
		m.state = m.lastState
		return m, nil
	}
	if len(m.history) == 0 {
		if m.path == guard.PathHome || m.path == "" {
			return m, nil
		}
		return m.navigate(guard.Redirect{Path: guard.PathHome}, false)
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	return m.navigate(guard.Redirect{Path: prev}, false)
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateHome:
		return &m.homeList
	case stateShowtimes:
		return &m.showtimeList
	case stateSelectProducts:
		return &m.productList
	case stateMyTickets:
		return &m.ticketList
	case stateDashboard:
		return &m.dashList
	case stateRecords:
		return &m.recordList
	case stateTicketDesk:
		return &m.deskList
	case stateTicketStatus:
		return &m.statusList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	return m.state == stateBooting || m.state == stateLoading
}

func (m appModel) loadingView() string {
	title := m.loadingTitle
	if m.state == stateBooting || title == "" {
		title = "Restoring session"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Fetching data..."))
}

func (m *appModel) startLoading(title string) tea.Cmd {
	m.loadingTitle = title
	m.state = stateLoading
	return m.spinner.Tick
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 8
	if h < 6 {
		h = 6
	}
	for _, l := range []*list.Model{
		&m.homeList, &m.showtimeList, &m.productList, &m.ticketList,
		&m.dashList, &m.recordList, &m.deskList, &m.statusList,
	} {
		l.SetSize(m.width, h)
	}
}

func (m appModel) currentUser() *model.User {
	if m.session == nil {
		return nil
	}
	return m.session.User()
}

// requestCtx tags outgoing calls with the current screen so a rejected token
// brings the user back here after signing in.
func (m appModel) requestCtx() context.Context {
	ctx := logger.SetScreen(context.Background(), m.path)
	if user := m.currentUser(); user != nil {
		ctx = logger.SetUserID(ctx, user.Id.String())
	}
	return service.WithReturnPath(ctx, m.path)
}

func (m appModel) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		m.session.Logout(m.requestCtx())
		return loggedOutMsg{}
	}
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func errWithReturnCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err, returnState: returnState, returnStateSet: true}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateBooting, stateLoading, stateError:
		return stateHome
	default:
		return state
	}
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func openURL(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported OS for opening browser: %s", runtime.GOOS)
	}
}
