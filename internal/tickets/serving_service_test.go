package tickets

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"campusq/internal/stations"
)

func seedQueue(t *testing.T, store *fakeStore, stationID uuid.UUID, purpose stations.Purpose, n int) []string {
	t.Helper()
	ctx := context.Background()
	var ids []string
	for i := 0; i < n; i++ {
		ticket, err := store.AllocateTicket(ctx, stationID, purpose, fmt.Sprintf("q%d@campus.edu", i))
		if err != nil {
			t.Fatalf("seed ticket %d: %v", i, err)
		}
		ids = append(ids, ticket.ID)
	}
	return ids
}

func TestClaimServesOldestFirst(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	svc := NewServingService(store, store, notifier)
	ctx := context.Background()

	station := store.addStation(stations.PurposePayment, true)
	c1 := store.addCounter(station.ID, 1, "cashier-1")
	c2 := store.addCounter(station.ID, 2, "cashier-2")

	ids := seedQueue(t, store, station.ID, stations.PurposePayment, 3)

	first, err := svc.Claim(ctx, station.ID, c1, "cashier-1")
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if first.Ticket.ID != ids[0] {
		t.Errorf("first claim got %s, want %s", first.Ticket.ID, ids[0])
	}

	second, err := svc.Claim(ctx, station.ID, c2, "cashier-2")
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if second.Ticket.ID != ids[1] {
		t.Errorf("second claim got %s, want %s", second.Ticket.ID, ids[1])
	}

	if len(notifier.called) != 2 {
		t.Errorf("expected 2 serve notifications, got %d", len(notifier.called))
	}
}

func TestClaimWhileBusyFails(t *testing.T) {
	store := newFakeStore()
	svc := NewServingService(store, store, nil)
	ctx := context.Background()

	station := store.addStation(stations.PurposeClinic, true)
	counterID := store.addCounter(station.ID, 1, "cashier-1")
	seedQueue(t, store, station.ID, stations.PurposeClinic, 2)

	if _, err := svc.Claim(ctx, station.ID, counterID, "cashier-1"); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	if _, err := svc.Claim(ctx, station.ID, counterID, "cashier-1"); !errors.Is(err, ErrCounterBusy) {
		t.Fatalf("expected ErrCounterBusy, got %v", err)
	}
}

func TestClaimEmptyQueueFails(t *testing.T) {
	store := newFakeStore()
	svc := NewServingService(store, store, nil)
	ctx := context.Background()

	station := store.addStation(stations.PurposeGuidance, true)
	counterID := store.addCounter(station.ID, 1, "cashier-1")

	if _, err := svc.Claim(ctx, station.ID, counterID, "cashier-1"); !errors.Is(err, ErrNoPendingTickets) {
		t.Fatalf("expected ErrNoPendingTickets, got %v", err)
	}
}

func TestClaimRequiresBoundCashier(t *testing.T) {
	store := newFakeStore()
	svc := NewServingService(store, store, nil)
	ctx := context.Background()

	station := store.addStation(stations.PurposePayment, true)
	unbound := store.addCounter(station.ID, 1, "")
	bound := store.addCounter(station.ID, 2, "cashier-2")
	seedQueue(t, store, station.ID, stations.PurposePayment, 1)

	if _, err := svc.Claim(ctx, station.ID, unbound, "cashier-1"); !errors.Is(err, ErrCounterUnbound) {
		t.Fatalf("expected ErrCounterUnbound on unbound counter, got %v", err)
	}
	if _, err := svc.Claim(ctx, station.ID, bound, "someone-else"); !errors.Is(err, ErrCounterUnbound) {
		t.Fatalf("expected ErrCounterUnbound for wrong cashier, got %v", err)
	}
}

func TestCompleteFreesCounterAndIsFinal(t *testing.T) {
	store := newFakeStore()
	svc := NewServingService(store, store, nil)
	ctx := context.Background()

	station := store.addStation(stations.PurposePayment, true)
	counterID := store.addCounter(station.ID, 1, "cashier-1")
	seedQueue(t, store, station.ID, stations.PurposePayment, 2)

	claimed, err := svc.Claim(ctx, station.ID, counterID, "cashier-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := svc.Complete(ctx, claimed.Ticket.ID, station.ID, counterID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	ticket, err := store.GetTicket(ctx, claimed.Ticket.ID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if ticket.Status != StatusComplete {
		t.Errorf("status = %s, want %s", ticket.Status, StatusComplete)
	}

	// Completing again fails: the counter binding is gone
	if err := svc.Complete(ctx, claimed.Ticket.ID, station.ID, counterID); !errors.Is(err, ErrTicketNotServing) {
		t.Fatalf("expected ErrTicketNotServing on repeat complete, got %v", err)
	}

	// The freed counter can claim the next ticket
	if _, err := svc.Claim(ctx, station.ID, counterID, "cashier-1"); err != nil {
		t.Fatalf("claim after complete: %v", err)
	}
}

func TestSkipMarksUnsuccessful(t *testing.T) {
	store := newFakeStore()
	svc := NewServingService(store, store, nil)
	ctx := context.Background()

	station := store.addStation(stations.PurposeRegistrar, true)
	counterID := store.addCounter(station.ID, 1, "cashier-1")
	seedQueue(t, store, station.ID, stations.PurposeRegistrar, 1)

	claimed, err := svc.Claim(ctx, station.ID, counterID, "cashier-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := svc.Skip(ctx, claimed.Ticket.ID, station.ID, counterID); err != nil {
		t.Fatalf("skip: %v", err)
	}

	ticket, err := store.GetTicket(ctx, claimed.Ticket.ID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if ticket.Status != StatusUnsuccessful {
		t.Errorf("status = %s, want %s", ticket.Status, StatusUnsuccessful)
	}
	if !ticket.Status.IsTerminal() {
		t.Error("skipped ticket must be terminal")
	}
}

func TestFinishWrongTicketFails(t *testing.T) {
	store := newFakeStore()
	svc := NewServingService(store, store, nil)
	ctx := context.Background()

	station := store.addStation(stations.PurposePayment, true)
	counterID := store.addCounter(station.ID, 1, "cashier-1")
	seedQueue(t, store, station.ID, stations.PurposePayment, 2)

	if _, err := svc.Claim(ctx, station.ID, counterID, "cashier-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// The counter is serving the first ticket; closing the second fails
	second := FormatTicketID(stations.PurposePayment, 2)
	if err := svc.Complete(ctx, second, station.ID, counterID); !errors.Is(err, ErrTicketNotServing) {
		t.Fatalf("expected ErrTicketNotServing, got %v", err)
	}
}
