package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"datve-cli/model"
)

type fakeSession struct {
	mu       sync.Mutex
	token    string
	failures []AuthFailure
}

func (s *fakeSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *fakeSession) HandleAuthFailure(f AuthFailure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f)
}

func (s *fakeSession) Failures() []AuthFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuthFailure(nil), s.failures...)
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(server.URL, WithHTTPClient(server.Client()), WithRetry(2, time.Millisecond, 2*time.Millisecond))
}

func TestGetJSON_Non2xxReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	var out map[string]any
	err := client.getJSON(context.Background(), "/fail", &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected error: %v", err)
	}
	if ErrorMessage(err) != "boom" {
		t.Fatalf("unexpected message: %q", ErrorMessage(err))
	}
}

func TestGetJSON_RetriesTransientServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&attempts, 1)
		if current < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("retry later"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	var out map[string]any
	if err := client.getJSON(context.Background(), "/retry", &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if ok, _ := out["ok"].(bool); !ok {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestGetJSON_ExhaustedRetriesKeepStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server)

	var out map[string]any
	err := client.getJSON(context.Background(), "/down", &out)
	if statusOf(err) != http.StatusBadGateway {
		t.Fatalf("expected 502 api error, got %v", err)
	}
}

func TestDo_DoesNotRetryWrites(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.CreateBooking(context.Background(), model.BookingRequest{UserId: "1", ShowtimeId: "2"})
	if err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestGetJSON_DoesNotRetryOnClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	}))
	defer server.Close()

	client := newTestClient(server)

	var out map[string]any
	if err := client.getJSON(context.Background(), "/bad-request", &out); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_SetsHeadersAndToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if strings.HasPrefix(r.URL.Path, PublicPrefix) {
			if auth != "" {
				t.Errorf("expected no token on public path, got %q", auth)
			}
		} else if auth != "Bearer tok" {
			t.Errorf("unexpected authorization header: %q", auth)
		}
		if r.Header.Get("Accept") != "application/json" || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content headers: %v", r.Header)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("expected request id header")
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server)
	client.SetSession(&fakeSession{token: "tok"})

	var out []any
	if err := client.getJSON(context.Background(), "/phim", &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := client.getJSON(context.Background(), "/public/phim", &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestDo_UnwrapsDataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/phim":
			_, _ = w.Write([]byte(`{"data": [{"ma_phim": 1, "ten_phim": "Dao"}], "total": 1}`))
		default:
			_, _ = w.Write([]byte(`[{"ma_phim": "2", "ten_phim": "Mai"}]`))
		}
	}))
	defer server.Close()

	client := newTestClient(server)

	movies, err := client.Movies(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(movies) != 1 || movies[0].Id != "1" || movies[0].Title != "Dao" {
		t.Fatalf("unexpected movies: %+v", movies)
	}

	var bare []model.Movie
	if err := client.getJSON(context.Background(), "/bare", &bare); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(bare) != 1 || bare[0].Id != "2" {
		t.Fatalf("unexpected movies: %+v", bare)
	}
}

func TestDo_AuthFailuresReachSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ve":
			w.WriteHeader(http.StatusUnauthorized)
		case "/manager/ve":
			w.WriteHeader(http.StatusForbidden)
		case "/login":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Sai mật khẩu"}`))
		}
	}))
	defer server.Close()

	session := &fakeSession{token: "tok"}
	client := newTestClient(server)
	client.SetSession(session)

	ctx := WithReturnPath(context.Background(), "/confirmation")
	_, err := client.CreateBooking(ctx, model.BookingRequest{UserId: "1", ShowtimeId: "2"})
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	_, err = client.RoleTickets(context.Background(), model.RoleManager)
	if !IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	_, err = client.Login(context.Background(), "a@b.c", "wrong")
	if !IsUnauthorized(err) || ErrorMessage(err) != "Sai mật khẩu" {
		t.Fatalf("expected login unauthorized error, got %v", err)
	}

	failures := session.Failures()
	if len(failures) != 2 {
		t.Fatalf("expected 2 auth failures, got %+v", failures)
	}
	if failures[0].Status != http.StatusUnauthorized || failures[0].Token != "tok" || failures[0].ReturnTo != "/confirmation" {
		t.Fatalf("unexpected 401 failure: %+v", failures[0])
	}
	if failures[1].Status != http.StatusForbidden || failures[1].Endpoint != "/manager/ve" {
		t.Fatalf("unexpected 403 failure: %+v", failures[1])
	}
}

func TestCreateBooking_SendsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ve" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["ma_sc"] != float64(3) || body["tong_tien"] != "180000.00" || body["ghe"] != "10,11" {
			t.Errorf("unexpected body: %+v", body)
		}
		_, _ = w.Write([]byte(`{"success": true, "ma_ve": 77, "message": "ok"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	resp, err := client.CreateBooking(context.Background(), model.BookingRequest{
		UserId: "5", ShowtimeId: "3", Total: "180000.00", TicketList: "1:2", SeatList: "10,11",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !resp.Success || resp.OrderId != "77" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreatePayment_RequiresURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "gateway down"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.CreatePayment(context.Background(), model.PaymentRequest{OrderId: "77"})
	if err == nil || err.Error() != "gateway down" {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestTickets_Endpoints(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[{"ma_ve": 1, "trang_thai": "Đã thanh toán"}]`))
		}
	}))
	defer server.Close()

	client := newTestClient(server)
	ctx := context.Background()

	tickets, err := client.UserTickets(ctx, "9")
	if err != nil || len(tickets) != 1 || tickets[0].Status != model.TicketPaid {
		t.Fatalf("unexpected tickets: %+v %v", tickets, err)
	}
	if err := client.CancelTicket(ctx, "1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := client.RoleTickets(ctx, model.RoleStaff); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := client.UpdateTicketStatus(ctx, model.RoleStaff, "1", model.TicketPaid); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := client.DeleteResource(ctx, "movies", "4"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	want := []string{
		"GET /user/9/tickets",
		"PUT /tickets/1/cancel",
		"GET /staff/ve",
		"PUT /staff/ve/1",
		"DELETE /phim/4",
	}
	if strings.Join(seen, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected requests: %v", seen)
	}
}

func TestListResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rap" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data": [{"ma_rap": 2, "ten_rap": "CGV"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	records, err := client.ListResource(context.Background(), "theaters")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(records) != 1 || records[0].ID("ma_rap") != "2" || records[0].Field("ten_rap") != "CGV" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if _, err := client.ListResource(context.Background(), "popcorn"); err == nil {
		t.Fatal("expected error for unknown resource")
	}
}
