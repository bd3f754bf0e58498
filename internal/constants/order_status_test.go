package constants

import "testing"

func TestOrderStatusPartitionHasNoGaps(t *testing.T) {
	for _, status := range AllOrderStatuses {
		ongoing := status.IsOngoing()
		completed := status.IsCompleted()
		if ongoing == completed {
			t.Fatalf("status %s must be in exactly one group: ongoing=%v completed=%v", status, ongoing, completed)
		}
		if !status.Valid() {
			t.Fatalf("status %s should be valid", status)
		}
	}
	if OrderStatus("unknown").IsOngoing() || OrderStatus("unknown").IsCompleted() {
		t.Fatalf("unknown status must not be classified")
	}
}

func TestOrderStatusPhase(t *testing.T) {
	cases := map[OrderStatus]OrderPhase{
		OrderStatusPending:    OrderPhaseOngoing,
		OrderStatusEscrowHeld: OrderPhaseOngoing,
		OrderStatusInTransit:  OrderPhaseOngoing,
		OrderStatusDelivered:  OrderPhaseCompleted,
		OrderStatusRefunded:   OrderPhaseCompleted,
	}
	for status, want := range cases {
		if got := status.Phase(); got != want {
			t.Fatalf("phase of %s: want %s got %s", status, want, got)
		}
	}
}

func TestParseOrderStatusLegacyVocabulary(t *testing.T) {
	cases := map[string]OrderStatus{
		"pending":     OrderStatusPending,
		" Shipping ":  OrderStatusInTransit,
		"canceled":    OrderStatusCancelled,
		"completed":   OrderStatusCompleted,
		"ESCROW_HELD": OrderStatusEscrowHeld,
	}
	for raw, want := range cases {
		got, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("parse %q failed: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: want %s got %s", raw, want, got)
		}
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestParseOrderPhase(t *testing.T) {
	if phase, ok := ParseOrderPhase("Ongoing"); !ok || phase != OrderPhaseOngoing {
		t.Fatalf("unexpected phase: %s %v", phase, ok)
	}
	if _, ok := ParseOrderPhase(""); ok {
		t.Fatalf("empty phase should not parse")
	}
}
