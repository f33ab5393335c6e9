package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"datve-cli/guard"
	"datve-cli/logger"
	"datve-cli/model"
	"datve-cli/notify"
	"datve-cli/service"
)

var (
	ErrNotSignedIn = errors.New("sign in to book")
	ErrRejected    = errors.New("booking rejected")
	ErrInProgress  = errors.New("booking already in progress")
)

// API is the part of the service client the flow calls.
type API interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (model.BookingResponse, error)
	CreatePayment(ctx context.Context, req model.PaymentRequest) (model.PaymentResponse, error)
}

// Result is what a submission achieved. PayURL is empty when payment could
// not be started even though the order exists.
type Result struct {
	OrderId model.ID
	PayURL  string
}

// Flow submits a confirmed draft and starts payment.
type Flow struct {
	api    API
	nav    guard.Navigator
	notify notify.Notifier
	open   func(string) error
	log    *slog.Logger

	inFlight atomic.Bool
}

// NewFlow wires the flow. open receives the payment URL; it is usually a
// browser launcher.
func NewFlow(api API, nav guard.Navigator, notifier notify.Notifier, open func(string) error, log *slog.Logger) *Flow {
	if log == nil {
		log = logger.Discard()
	}
	if open == nil {
		open = func(string) error { return nil }
	}
	return &Flow{api: api, nav: nav, notify: notifier, open: open, log: log}
}

// Submit books the draft for user. A missing user sends the UI to the login
// screen with a way back here. 401 and 403 are recovered by the session the
// client reports to; any other failure leaves the draft intact for a retry.
func (f *Flow) Submit(ctx context.Context, draft *Draft, user *model.User) (Result, error) {
	if err := draft.Validate(); err != nil {
		f.notify.Notify(notify.Error(validationText(err)))
		return Result{}, err
	}
	if user == nil {
		f.notify.Notify(notify.Error("Please sign in to book tickets."))
		f.nav.Navigate(guard.Redirect{Path: guard.PathLogin, ReturnTo: guard.PathConfirmation})
		return Result{}, ErrNotSignedIn
	}
	if !f.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrInProgress
	}
	defer f.inFlight.Store(false)

	req, err := BuildRequest(draft, user)
	if err != nil {
		f.notify.Notify(notify.Error(validationText(err)))
		return Result{}, err
	}

	ctx = logger.SetUserID(ctx, user.Id.String())
	ctx = service.WithReturnPath(ctx, guard.PathConfirmation)

	resp, err := f.api.CreateBooking(ctx, req)
	switch {
	case err == nil:
	case service.IsUnauthorized(err):
		f.notify.Notify(notify.Error("Your session has expired. Please sign in again."))
		return Result{}, err
	case service.IsForbidden(err):
		f.notify.Notify(notify.Error("You are not allowed to do this."))
		return Result{}, err
	default:
		f.log.ErrorContext(ctx, "create booking", "showtime", req.ShowtimeId.String(), "error", err)
		f.notify.Notify(notify.Error("Booking failed: " + service.ErrorMessage(err)))
		return Result{}, err
	}

	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "Booking was not successful."
		}
		f.log.WarnContext(ctx, "booking rejected", "showtime", req.ShowtimeId.String(), "message", resp.Message)
		f.notify.Notify(notify.Error(msg))
		return Result{}, fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	f.log.InfoContext(ctx, "booking created", "order", resp.OrderId.String())
	f.notify.Notify(notify.Success("Booking confirmed!"))

	result := Result{OrderId: resp.OrderId}
	payment, err := f.api.CreatePayment(ctx, model.PaymentRequest{Amount: json.Number(draft.Total.Round(2).String()), OrderId: resp.OrderId})
	if err != nil {
		f.log.ErrorContext(ctx, "create payment", "order", resp.OrderId.String(), "error", err)
		f.notify.Notify(notify.Error("Could not start payment: " + service.ErrorMessage(err)))
		return result, fmt.Errorf("create payment: %w", err)
	}
	result.PayURL = payment.PayURL

	if err := f.open(payment.PayURL); err != nil {
		f.log.WarnContext(ctx, "open payment page", "error", err)
		f.notify.Notify(notify.Warning("Open this link to pay: " + payment.PayURL))
	}
	return result, nil
}

func validationText(err error) string {
	switch {
	case errors.Is(err, ErrNoDraft):
		return "No booking information."
	case errors.Is(err, ErrSeatMismatch):
		return "Pick one seat per ticket."
	case errors.Is(err, ErrNoTickets):
		return "Pick at least one ticket."
	default:
		return err.Error()
	}
}
