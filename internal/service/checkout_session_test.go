package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/models"
)

func newTestCheckoutSession(lines ...models.CartLine) *CheckoutSession {
	if len(lines) == 0 {
		lines = []models.CartLine{orderLine("a", "s1", 500, 2)}
	}
	return NewCheckoutSession(CheckoutSessionOptions{
		ID:         "sess-1",
		CustomerID: "u1",
		Courier:    "standard",
		Lines:      lines,
	}, NewDeliveryQuoter(config.DeliveryConfig{}))
}

func TestCheckoutSessionReadyIsPureFunctionOfInput(t *testing.T) {
	session := newTestCheckoutSession()
	if session.State() != CheckoutStateCollecting {
		t.Fatalf("new session should be collecting, got %s", session.State())
	}

	result, err := session.Edit("0712345678", "Wes")
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if result.State != CheckoutStateReady || !result.ReadyEntered {
		t.Fatalf("valid input should enter ready, got %+v", result)
	}

	result, _ = session.Edit("0712345678", "Westlands")
	if result.State != CheckoutStateReady || result.ReadyEntered {
		t.Fatalf("ready should be entered once, got %+v", result)
	}

	result, _ = session.Edit("0712", "Westlands")
	if result.State != CheckoutStateCollecting {
		t.Fatalf("invalid input should fall back to collecting, got %+v", result)
	}

	result, _ = session.Edit("+254712345678", "Westlands")
	if !result.ReadyEntered {
		t.Fatalf("re-entering ready should be reported again, got %+v", result)
	}
}

func TestCheckoutSessionDeliveryFeeFollowsLocation(t *testing.T) {
	session := newTestCheckoutSession()
	view := session.View()
	if view.DeliveryFee.Int64() != 0 || view.Total.Int64() != 1000 {
		t.Fatalf("no fee before location, got %s / %s", view.DeliveryFee, view.Total)
	}
	if _, err := session.Edit("0712345678", "Kilimani"); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	view = session.View()
	if view.DeliveryFee.Int64() != 150 || view.Total.Int64() != 1150 {
		t.Fatalf("standard fee expected, got %s / %s", view.DeliveryFee, view.Total)
	}
	if err := session.SetCourier("express"); err != nil {
		t.Fatalf("set courier failed: %v", err)
	}
	if got := session.View().Total.Int64(); got != 1300 {
		t.Fatalf("express total expected 1300, got %d", got)
	}
	if err := session.SetCourier("drone"); !errors.Is(err, ErrCourierInvalid) {
		t.Fatalf("unknown courier must be rejected, got %v", err)
	}
}

func TestCheckoutSessionInvalidSubmitReturnsFieldErrors(t *testing.T) {
	session := newTestCheckoutSession()
	if _, err := session.Edit("12", ""); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if _, err := session.BeginSubmit(); !errors.Is(err, ErrCheckoutInvalid) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	view := session.View()
	if view.State != CheckoutStateCollecting {
		t.Fatalf("invalid submit should return to collecting, got %s", view.State)
	}
	if view.FieldErrors[FieldPhone] != MsgPhoneInvalid || view.FieldErrors[FieldLocation] != MsgLocationRequired {
		t.Fatalf("unexpected field errors: %+v", view.FieldErrors)
	}
	if view.Input.Phone != "12" {
		t.Fatalf("input must be preserved, got %+v", view.Input)
	}
}

func TestCheckoutSessionSubmitIsExclusive(t *testing.T) {
	session := newTestCheckoutSession()
	if _, err := session.Edit("0712 345 678", " Westlands "); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	draft, err := session.BeginSubmit()
	if err != nil {
		t.Fatalf("begin submit failed: %v", err)
	}
	if draft.Phone != "0712345678" || draft.Location != "Westlands" || draft.Total.Int64() != 1150 {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if _, err := session.BeginSubmit(); !errors.Is(err, ErrCheckoutInProgress) {
		t.Fatalf("second submit must be rejected, got %v", err)
	}
	if _, err := session.Edit("0799999999", "Karen"); !errors.Is(err, ErrCheckoutInProgress) {
		t.Fatalf("edits during submit must be rejected, got %v", err)
	}
}

func TestCheckoutSessionFailureIsRetryable(t *testing.T) {
	session := newTestCheckoutSession()
	_, _ = session.Edit("0712345678", "Westlands")
	if _, err := session.BeginSubmit(); err != nil {
		t.Fatalf("begin submit failed: %v", err)
	}
	if state := session.Complete(nil, "", errors.New("network down")); state != CheckoutStateReady {
		t.Fatalf("failed submit should return to ready, got %s", state)
	}
	view := session.View()
	if !view.Retryable || view.LastError == "" {
		t.Fatalf("failure should be retryable: %+v", view)
	}
	if view.Input.Phone != "0712345678" || view.Input.Location != "Westlands" {
		t.Fatalf("input must survive a failed submit: %+v", view.Input)
	}

	if _, err := session.BeginSubmit(); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	order := &models.Order{ID: "o1", OrderNo: "SS1"}
	if state := session.Complete(order, "4821", nil); state != CheckoutStateConfirmed {
		t.Fatalf("expected confirmed, got %s", state)
	}
	first := session.View()
	if first.ReleaseCode != "4821" || first.OrderID != "o1" || first.Retryable {
		t.Fatalf("unexpected confirmed view: %+v", first)
	}
	if second := session.View(); second.ReleaseCode != "" {
		t.Fatalf("release code must only be shown once")
	}
	if _, err := session.BeginSubmit(); !errors.Is(err, ErrCheckoutConfirmed) {
		t.Fatalf("confirmed session must not submit again, got %v", err)
	}
}

func TestCheckoutSessionCloseWhileSubmittingKeepsResult(t *testing.T) {
	session := newTestCheckoutSession()
	_, _ = session.Edit("0712345678", "Westlands")
	if _, err := session.BeginSubmit(); err != nil {
		t.Fatalf("begin submit failed: %v", err)
	}
	session.Close()
	if !session.Submitting() {
		t.Fatalf("close must not interrupt an in-flight submit")
	}
	if state := session.Complete(&models.Order{ID: "o1"}, "1234", nil); state != CheckoutStateConfirmed {
		t.Fatalf("result should still apply after close, got %s", state)
	}
	if session.Order() == nil || session.Order().ID != "o1" {
		t.Fatalf("order should be recorded")
	}
}

func TestCheckoutSessionCloseDiscardsDraftInput(t *testing.T) {
	session := newTestCheckoutSession()
	_, _ = session.Edit("0712345678", "Westlands")
	session.Close()
	if input := session.Input(); input.Phone != "" || input.Location != "" {
		t.Fatalf("close should discard input, got %+v", input)
	}
	if _, err := session.BeginSubmit(); !errors.Is(err, ErrCheckoutClosed) {
		t.Fatalf("closed session must not submit, got %v", err)
	}
}

func TestCheckoutSessionGeolocationFillsOnlyEmptyLocation(t *testing.T) {
	session := newTestCheckoutSession()
	_, _ = session.Edit("0712345678", "")
	result, applied, err := session.ApplyGeolocation("-1.2921, 36.8219 (GPS)")
	if err != nil || !applied {
		t.Fatalf("geolocation should fill empty location, applied=%v err=%v", applied, err)
	}
	if result.State != CheckoutStateReady {
		t.Fatalf("filled location should make session ready, got %s", result.State)
	}

	_, _ = session.Edit("0712345678", "Kilimani")
	_, applied, _ = session.ApplyGeolocation("-1.0000, 36.0000 (GPS)")
	if applied || session.Input().Location != "Kilimani" {
		t.Fatalf("manual location must not be overwritten: %+v", session.Input())
	}
}

func TestCheckoutSessionEmptyLinesCannotSubmit(t *testing.T) {
	session := NewCheckoutSession(CheckoutSessionOptions{ID: "s", Courier: "pickup"}, NewDeliveryQuoter(config.DeliveryConfig{}))
	if session.CustomerID() != "guest" {
		t.Fatalf("anonymous session should belong to guest, got %s", session.CustomerID())
	}
	_, _ = session.Edit("0712345678", "Westlands")
	if _, err := session.BeginSubmit(); !errors.Is(err, ErrCheckoutEmpty) {
		t.Fatalf("expected empty checkout, got %v", err)
	}
}

func TestCheckoutSessionPermanentRejectionIsNotRetryable(t *testing.T) {
	session := newTestCheckoutSession()
	_, _ = session.Edit("0712345678", "Westlands")
	if _, err := session.BeginSubmit(); err != nil {
		t.Fatalf("begin submit failed: %v", err)
	}
	session.Complete(nil, "", fmt.Errorf("%w: client 900 server 1150", ErrOrderTotalMismatch))
	view := session.View()
	if view.State != CheckoutStateReady || view.Retryable || view.LastError == "" {
		t.Fatalf("total mismatch must not be offered as a retry: %+v", view)
	}

	if _, err := session.BeginSubmit(); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	session.Complete(nil, "", ErrOrderCreateFailed)
	if view := session.View(); !view.Retryable {
		t.Fatalf("write failures stay retryable: %+v", view)
	}
}
