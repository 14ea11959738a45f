package tickets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"campusq/internal/stations"
	"campusq/internal/tokens"
)

func issueFormToken(t *testing.T, svc tokens.Service, stationID string) string {
	t.Helper()
	raw, err := svc.Issue(tokens.TypeQueueForm, tokens.TokenClaims{StationID: stationID}, 0)
	if err != nil {
		t.Fatalf("issue form token: %v", err)
	}
	return raw
}

func TestJoinIssuesSequentialTickets(t *testing.T) {
	store := newFakeStore()
	tokenSvc := testTokenService()
	svc := NewQueueService(store, store, tokenSvc, nil, testConfig())
	ctx := context.Background()

	station := store.addStation(stations.PurposePayment, true)

	for i := 1; i <= 3; i++ {
		form := issueFormToken(t, tokenSvc, station.ID.String())
		result, err := svc.Join(ctx, form, fmt.Sprintf("student%d@campus.edu", i))
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		want := FormatTicketID(stations.PurposePayment, i)
		if result.Ticket.ID != want {
			t.Errorf("ticket %d id = %s, want %s", i, result.Ticket.ID, want)
		}
		if result.Ticket.Status != StatusPending {
			t.Errorf("new ticket status = %s, want %s", result.Ticket.Status, StatusPending)
		}
		if result.StatusToken == "" {
			t.Error("expected a status token")
		}
	}
}

func TestJoinConsumesFormToken(t *testing.T) {
	store := newFakeStore()
	tokenSvc := testTokenService()
	svc := NewQueueService(store, store, tokenSvc, nil, testConfig())
	ctx := context.Background()

	station := store.addStation(stations.PurposeClinic, true)
	form := issueFormToken(t, tokenSvc, station.ID.String())

	if _, err := svc.Join(ctx, form, "first@campus.edu"); err != nil {
		t.Fatalf("first join: %v", err)
	}

	// The same form token cannot admit a second customer
	_, err := svc.Join(ctx, form, "second@campus.edu")
	if !errors.Is(err, tokens.ErrTokenAlreadyUsed) {
		t.Fatalf("expected ErrTokenAlreadyUsed, got %v", err)
	}
}

func TestJoinPreconditions(t *testing.T) {
	store := newFakeStore()
	tokenSvc := testTokenService()
	svc := NewQueueService(store, store, tokenSvc, nil, testConfig())
	ctx := context.Background()

	active := store.addStation(stations.PurposePayment, true)
	inactive := store.addStation(stations.PurposeClinic, false)
	store.blacklist["banned@campus.edu"] = true

	t.Run("blacklisted email", func(t *testing.T) {
		form := issueFormToken(t, tokenSvc, active.ID.String())
		if _, err := svc.Join(ctx, form, "banned@campus.edu"); !errors.Is(err, ErrBlacklisted) {
			t.Fatalf("expected ErrBlacklisted, got %v", err)
		}
		// The rejection must not consume the token; a clean retry
		// with an allowed email is a different person's business,
		// but the ledger must not have been touched.
		used, err := tokenSvc.IsUsed(ctx, form)
		if err != nil || used {
			t.Fatalf("rejected join must leave the form token unused (used=%v err=%v)", used, err)
		}
	})

	t.Run("inactive station", func(t *testing.T) {
		form := issueFormToken(t, tokenSvc, inactive.ID.String())
		if _, err := svc.Join(ctx, form, "someone@campus.edu"); !errors.Is(err, ErrStationInactive) {
			t.Fatalf("expected ErrStationInactive, got %v", err)
		}
	})

	t.Run("duplicate live ticket", func(t *testing.T) {
		form := issueFormToken(t, tokenSvc, active.ID.String())
		if _, err := svc.Join(ctx, form, "dup@campus.edu"); err != nil {
			t.Fatalf("first join: %v", err)
		}
		form2 := issueFormToken(t, tokenSvc, active.ID.String())
		if _, err := svc.Join(ctx, form2, "dup@campus.edu"); !errors.Is(err, ErrDuplicateTicket) {
			t.Fatalf("expected ErrDuplicateTicket, got %v", err)
		}
	})

	t.Run("wrong token type", func(t *testing.T) {
		perm, err := tokenSvc.Issue(tokens.TypePermission, tokens.TokenClaims{StationID: active.ID.String()}, 0)
		if err != nil {
			t.Fatalf("issue permission token: %v", err)
		}
		if _, err := svc.Join(ctx, perm, "typed@campus.edu"); !errors.Is(err, tokens.ErrWrongTokenType) {
			t.Fatalf("expected ErrWrongTokenType, got %v", err)
		}
	})
}

func TestSequenceContiguousUnderConcurrentJoins(t *testing.T) {
	store := newFakeStore()
	tokenSvc := testTokenService()
	svc := NewQueueService(store, store, tokenSvc, nil, testConfig())
	ctx := context.Background()

	station := store.addStation(stations.PurposeRegistrar, true)

	const joiners = 50
	ids := make(chan string, joiners)
	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			form := issueFormToken(t, tokenSvc, station.ID.String())
			result, err := svc.Join(ctx, form, fmt.Sprintf("c%d@campus.edu", i))
			if err != nil {
				t.Errorf("join %d: %v", i, err)
				return
			}
			ids <- result.Ticket.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate ticket id %s", id)
		}
		seen[id] = true
	}
	if len(seen) != joiners {
		t.Fatalf("expected %d tickets, got %d", joiners, len(seen))
	}
	// Contiguity: every number 1..joiners allocated exactly once
	for i := 1; i <= joiners; i++ {
		id := FormatTicketID(stations.PurposeRegistrar, i)
		if !seen[id] {
			t.Errorf("sequence gap: %s was never allocated", id)
		}
	}
}

func TestPositionTracksQueueOrder(t *testing.T) {
	store := newFakeStore()
	tokenSvc := testTokenService()
	svc := NewQueueService(store, store, tokenSvc, nil, testConfig())
	ctx := context.Background()

	station := store.addStation(stations.PurposePayment, true)

	var statusTokens []string
	for i := 1; i <= 3; i++ {
		form := issueFormToken(t, tokenSvc, station.ID.String())
		result, err := svc.Join(ctx, form, fmt.Sprintf("p%d@campus.edu", i))
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		statusTokens = append(statusTokens, result.StatusToken)
	}

	for i, token := range statusTokens {
		got, err := svc.Position(ctx, token)
		if err != nil {
			t.Fatalf("position %d: %v", i, err)
		}
		if got.Position != i+1 {
			t.Errorf("ticket %d position = %d, want %d", i, got.Position, i+1)
		}
	}

	// The second customer leaves; the third moves up
	if err := svc.Leave(ctx, statusTokens[1]); err != nil {
		t.Fatalf("leave: %v", err)
	}
	got, err := svc.Position(ctx, statusTokens[2])
	if err != nil {
		t.Fatalf("position after leave: %v", err)
	}
	if got.Position != 2 {
		t.Errorf("position after leave = %d, want 2", got.Position)
	}
}

func TestLeaveInvalidatesStatusToken(t *testing.T) {
	store := newFakeStore()
	tokenSvc := testTokenService()
	svc := NewQueueService(store, store, tokenSvc, nil, testConfig())
	ctx := context.Background()

	station := store.addStation(stations.PurposePayment, true)
	form := issueFormToken(t, tokenSvc, station.ID.String())
	result, err := svc.Join(ctx, form, "leaver@campus.edu")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.Leave(ctx, result.StatusToken); err != nil {
		t.Fatalf("leave: %v", err)
	}

	if _, err := svc.Position(ctx, result.StatusToken); !errors.Is(err, tokens.ErrTokenAlreadyUsed) {
		t.Fatalf("expected ErrTokenAlreadyUsed after leave, got %v", err)
	}
	if err := svc.Leave(ctx, result.StatusToken); !errors.Is(err, tokens.ErrTokenAlreadyUsed) {
		t.Fatalf("expected second leave to fail on consumed token, got %v", err)
	}
}

func TestLeaveWhileBeingServedNotifiesCounter(t *testing.T) {
	store := newFakeStore()
	tokenSvc := testTokenService()
	notifier := &recordingNotifier{}
	queueSvc := NewQueueService(store, store, tokenSvc, notifier, testConfig())
	servingSvc := NewServingService(store, store, notifier)
	ctx := context.Background()

	station := store.addStation(stations.PurposeGuidance, true)
	counterID := store.addCounter(station.ID, 1, "cashier-1")

	form := issueFormToken(t, tokenSvc, station.ID.String())
	result, err := queueSvc.Join(ctx, form, "walkout@campus.edu")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := servingSvc.Claim(ctx, station.ID, counterID, "cashier-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := queueSvc.Leave(ctx, result.StatusToken); err != nil {
		t.Fatalf("leave while ongoing: %v", err)
	}

	if len(notifier.left) != 1 || notifier.left[0] != result.Ticket.ID {
		t.Fatalf("expected customer-left notification for %s, got %v", result.Ticket.ID, notifier.left)
	}

	// The counter is free again
	ticket, err := store.GetTicket(ctx, result.Ticket.ID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if ticket.Status != StatusUnsuccessful {
		t.Errorf("ticket status = %s, want %s", ticket.Status, StatusUnsuccessful)
	}
	if _, err := servingSvc.Claim(ctx, station.ID, counterID, "cashier-1"); !errors.Is(err, ErrNoPendingTickets) {
		t.Fatalf("counter should be free with an empty queue, got %v", err)
	}
}
