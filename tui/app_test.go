package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"datve-cli/guard"
	"datve-cli/model"
	"datve-cli/notify"
	"datve-cli/service"
	"datve-cli/session"
	"datve-cli/store"
)

type testItem struct {
	value string
}

func (t testItem) Title() string       { return t.value }
func (t testItem) Description() string { return "" }
func (t testItem) FilterValue() string { return strings.ToLower(t.value) }

type memoryStore struct {
	mu    sync.Mutex
	saved store.Session
}

func (s *memoryStore) Load() (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved, nil
}

func (s *memoryStore) Save(token string, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = store.Session{Token: token, User: user}
	return nil
}

func (s *memoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = store.Session{}
	return nil
}

var customer = &model.User{Id: "7", Name: "Lan", Role: model.RoleCustomer}

func newTestModel(t *testing.T, baseURL string, user *model.User, restore bool) appModel {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", dir)

	if baseURL == "" {
		baseURL = "http://127.0.0.1:1"
	}
	client := service.NewClient(baseURL, service.WithRetry(0, 0, 0))
	saved := store.Session{}
	if user != nil {
		saved = store.Session{Token: "token", User: user}
	}
	mgr := session.NewManager(client, &memoryStore{saved: saved}, nil, nil)
	client.SetSession(mgr)
	if restore {
		mgr.Initialize(context.Background())
	}

	m := New(Options{Client: client, Session: mgr, OpenURL: func(string) error { return nil }}).(appModel)
	t.Cleanup(m.quit)
	return m
}

func newFilterModel(t *testing.T, items []list.Item) *appModel {
	m := newTestModel(t, "", nil, true)
	m.state = stateHome
	m.homeList = newList("Now showing")
	m.homeList.SetItems(items)
	return &m
}

func press(t *testing.T, m appModel, keys ...tea.KeyMsg) appModel {
	t.Helper()
	for _, key := range keys {
		next, _ := m.Update(key)
		m = next.(appModel)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestHandleFilterInput_AppendsRunes(t *testing.T) {
	m := newFilterModel(t, []list.Item{
		testItem{value: "Dune"},
		testItem{value: "Lật Mặt"},
	})

	if !m.handleFilterInput(runes("d")) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.homeList.FilterValue(); got != "d" {
		t.Fatalf("expected filter value to be %q, got %q", "d", got)
	}

	if !m.handleFilterInput(runes("u")) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.homeList.FilterValue(); got != "du" {
		t.Fatalf("expected filter value to be %q, got %q", "du", got)
	}
}

func TestHandleFilterInput_Backspace(t *testing.T) {
	m := newFilterModel(t, []list.Item{
		testItem{value: "Dune"},
		testItem{value: "Lật Mặt"},
	})

	_ = m.handleFilterInput(runes("l"))
	_ = m.handleFilterInput(runes("ậ"))

	if got := m.homeList.FilterValue(); got != "lậ" {
		t.Fatalf("expected filter value to be %q, got %q", "lậ", got)
	}

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.homeList.FilterValue(); got != "l" {
		t.Fatalf("expected filter value to be %q, got %q", "l", got)
	}
}

func TestHandleFilterInput_Space(t *testing.T) {
	m := newFilterModel(t, []list.Item{
		testItem{value: "Lật Mặt"},
	})

	_ = m.handleFilterInput(runes("l"))
	_ = m.handleFilterInput(runes("a"))
	_ = m.handleFilterInput(runes("t"))

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Fatal("expected space to be handled")
	}

	if got := m.homeList.FilterValue(); got != "lat " {
		t.Fatalf("expected filter value to be %q, got %q", "lat ", got)
	}
}

func TestNavigate_GuestIsSentToLoginWithReturnPath(t *testing.T) {
	m := newTestModel(t, "", nil, true)

	m, _ = m.navigate(guard.Redirect{Path: guard.PathMyTickets}, true)

	if m.state != stateLogin {
		t.Fatalf("expected login screen, got state %d", m.state)
	}
	if m.path != guard.PathLogin {
		t.Fatalf("expected path %q, got %q", guard.PathLogin, m.path)
	}
	if m.returnTo != guard.PathMyTickets {
		t.Fatalf("expected return path %q, got %q", guard.PathMyTickets, m.returnTo)
	}
}

func TestNavigate_WaitsForSessionRestore(t *testing.T) {
	m := newTestModel(t, "", customer, false)

	m, _ = m.navigate(guard.Redirect{Path: guard.PathProfile}, false)
	if m.state != stateBooting {
		t.Fatalf("expected booting state while the session loads, got %d", m.state)
	}
	if m.pending != guard.PathProfile {
		t.Fatalf("expected pending path %q, got %q", guard.PathProfile, m.pending)
	}

	m.session.Initialize(context.Background())
	next, _ := m.Update(sessionReadyMsg{})
	m = next.(appModel)
	if m.state != stateProfile {
		t.Fatalf("expected profile screen after restore, got %d", m.state)
	}
	if got := m.profileForm.value(0); got != "Lan" {
		t.Fatalf("expected profile name %q, got %q", "Lan", got)
	}
}

func TestNavigate_StaffLeavingSectionGoesHome(t *testing.T) {
	staff := &model.User{Id: "3", Role: model.RoleStaff}
	m := newTestModel(t, "", staff, true)

	m, _ = m.navigate(guard.Redirect{Path: "/admin/accounts"}, true)

	if m.path != guard.PathStaff {
		t.Fatalf("expected redirect to %q, got %q", guard.PathStaff, m.path)
	}
	if m.state != stateDashboard {
		t.Fatalf("expected staff dashboard, got %d", m.state)
	}
	if got := len(m.dashList.Items()); got != 2 {
		t.Fatalf("expected 2 staff screens, got %d", got)
	}
}

func TestBus_ForbiddenNavigatesToUnauthorized(t *testing.T) {
	m := newTestModel(t, "", customer, true)
	m.path = guard.PathHome

	m.session.HandleAuthFailure(service.AuthFailure{Status: http.StatusForbidden})

	msg := m.bus.listen()()
	if _, ok := msg.(busMsg); !ok {
		t.Fatalf("expected bus message, got %T", msg)
	}
	next, _ := m.Update(msg)
	m = next.(appModel)
	if m.state != stateUnauthorized {
		t.Fatalf("expected unauthorized screen, got %d", m.state)
	}
}

func bookingModel(t *testing.T) appModel {
	t.Helper()
	m := newTestModel(t, "", customer, true)
	m.path = "/booking/9"
	m.movie = model.Movie{Id: "1", Title: "Dune"}
	m.showtime = model.Showtime{Id: "9", RoomId: "3", TheaterId: "2", StartTime: "19:30:00"}

	next, _, _ := m.updateBooking(productsMsg{
		showtimeId: "9",
		types:      []model.TicketType{{Id: "1", Name: "Adult", Price: decimal.NewFromInt(90000)}},
		food:       []model.FoodItem{{Id: "5", Name: "Popcorn", Price: decimal.NewFromInt(45000)}},
		seats: []model.Seat{
			{Id: "101", Label: "A1"},
			{Id: "102", Label: "A2"},
			{Id: "103", Label: "A3", Status: "sold"},
		},
	})
	return next
}

func TestBooking_SeatsThenConfirmation(t *testing.T) {
	m := bookingModel(t)
	if m.state != stateSelectProducts {
		t.Fatalf("expected product selection, got %d", m.state)
	}

	m = press(t, m, runes("+"), runes("+"))
	if got := m.ticketTotal(); got != 2 {
		t.Fatalf("expected 2 tickets, got %d", got)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateSelectSeats {
		t.Fatalf("expected seat selection, got %d", m.state)
	}

	m = press(t, m,
		tea.KeyMsg{Type: tea.KeySpace},
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeySpace},
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeySpace},
	)
	if len(m.picked) != 2 {
		t.Fatalf("expected the sold seat to be refused, picked %d", len(m.picked))
	}
	if m.notice == nil || m.notice.Level != notify.LevelWarning {
		t.Fatal("expected a warning for the sold seat")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateConfirm {
		t.Fatalf("expected confirmation screen, got %d", m.state)
	}
	if m.draft == nil {
		t.Fatal("expected a booking draft")
	}
	if !m.draft.Total.Equal(decimal.NewFromInt(180000)) {
		t.Fatalf("expected total 180000, got %s", m.draft.Total)
	}
	if m.hold == nil {
		t.Fatal("expected the seat hold countdown to run")
	}
	if m.remaining != 175 {
		t.Fatalf("expected 175 seconds on the clock, got %d", m.remaining)
	}
}

func TestConfirmation_StaleTicksIgnoredAndExpiryGoesHome(t *testing.T) {
	m := bookingModel(t)
	m = press(t, m, runes("+"), tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateConfirm {
		t.Fatalf("expected confirmation screen, got %d", m.state)
	}

	next, _ := m.Update(holdTickMsg{gen: m.holdGen - 1, remaining: 3})
	m = next.(appModel)
	if m.remaining != 175 {
		t.Fatalf("expected stale tick to be ignored, remaining %d", m.remaining)
	}

	next, _ = m.Update(holdTickMsg{gen: m.holdGen, remaining: 100})
	m = next.(appModel)
	if m.remaining != 100 {
		t.Fatalf("expected remaining 100, got %d", m.remaining)
	}

	next, _ = m.Update(holdExpiredMsg{gen: m.holdGen})
	m = next.(appModel)
	if m.draft != nil {
		t.Fatal("expected the draft to be dropped on expiry")
	}
	if m.path != guard.PathHome {
		t.Fatalf("expected to go home, got %q", m.path)
	}
	if m.notice == nil || m.notice.Level != notify.LevelWarning {
		t.Fatal("expected an expiry warning")
	}
}

func TestConfirmation_WithoutDraft(t *testing.T) {
	m := newTestModel(t, "", customer, true)

	m, _ = m.navigate(guard.Redirect{Path: guard.PathConfirmation}, true)

	if m.state != stateConfirm {
		t.Fatalf("expected confirmation screen, got %d", m.state)
	}
	if m.hold != nil {
		t.Fatal("expected no countdown without a draft")
	}
	if m.notice == nil || m.notice.Text != "No booking information." {
		t.Fatalf("expected missing booking notice, got %+v", m.notice)
	}
}

func TestConfirmation_SectionsDegradeIndependently(t *testing.T) {
	m := bookingModel(t)
	m = press(t, m, runes("+"), tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyEnter})

	next, _ := m.Update(partMsg[model.Theater]{gen: m.holdGen, err: &service.APIError{StatusCode: http.StatusNotFound}})
	m = next.(appModel)
	next, _ = m.Update(partMsg[model.Movie]{gen: m.holdGen, value: model.Movie{Title: "Dune"}})
	m = next.(appModel)

	view := m.confirmView()
	if !strings.Contains(view, "Theater not found") {
		t.Fatalf("expected missing theater text, got %q", view)
	}
	if !strings.Contains(view, "Dune") {
		t.Fatalf("expected movie title, got %q", view)
	}
}

func TestMyTickets_CancelPending(t *testing.T) {
	var mu sync.Mutex
	var cancelled []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/user/7/tickets":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"ma_ve": 11, "trang_thai": string(model.TicketPendingPayment), "tong_gia_tien": "90000"},
				{"ma_ve": 12, "trang_thai": string(model.TicketPaid), "tong_gia_tien": "90000"},
			})
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/tickets/"):
			mu.Lock()
			cancelled = append(cancelled, r.URL.Path)
			mu.Unlock()
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	m := newTestModel(t, server.URL, customer, true)
	m.path = guard.PathMyTickets

	next, _ := m.Update(m.fetchMyTicketsCmd()())
	m = next.(appModel)
	if m.state != stateMyTickets {
		t.Fatalf("expected my tickets screen, got %d", m.state)
	}
	if got := len(m.ticketList.Items()); got != 2 {
		t.Fatalf("expected 2 tickets, got %d", got)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if m.state != stateConfirmAction {
		t.Fatalf("expected a confirmation prompt, got %d", m.state)
	}

	next, cmd := m.Update(runes("y"))
	m = next.(appModel)
	if cmd == nil {
		t.Fatal("expected a cancel command")
	}
	if msg, ok := cmd().(cancelMsg); !ok || msg.err != nil {
		t.Fatalf("expected successful cancel, got %+v", msg)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(cancelled) != 1 || cancelled[0] != "/tickets/11/cancel" {
		t.Fatalf("expected cancel of ticket 11, got %v", cancelled)
	}
}

func TestDashboard_AdminSeesOwnScreens(t *testing.T) {
	admin := &model.User{Id: "1", Role: model.RoleAdmin}
	m := newTestModel(t, "", admin, true)

	m, _ = m.navigate(guard.Redirect{Path: guard.PathAdmin}, false)

	if m.state != stateDashboard {
		t.Fatalf("expected dashboard, got %d", m.state)
	}
	if got := len(m.dashList.Items()); got != 4 {
		t.Fatalf("expected 4 admin screens, got %d", got)
	}
}
