package stations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository for service tests
type fakeRepo struct {
	mu       sync.Mutex
	stations map[uuid.UUID]*Station
	counters map[uuid.UUID]*Counter
	versions map[uuid.UUID]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		stations: make(map[uuid.UUID]*Station),
		counters: make(map[uuid.UUID]*Counter),
		versions: make(map[uuid.UUID]int64),
	}
}

func (f *fakeRepo) CreateStation(_ context.Context, s *Station) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	f.stations[s.ID] = &cp
	return nil
}

func (f *fakeRepo) GetStation(_ context.Context, id uuid.UUID) (*Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) ListAvailable(_ context.Context, purpose Purpose) ([]Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Station
	for _, s := range f.stations {
		if s.Activated && s.Purpose == purpose {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetActivated(_ context.Context, id uuid.UUID, activated bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stations[id]
	if !ok {
		return ErrStationNotFound
	}
	s.Activated = activated
	return nil
}

func (f *fakeRepo) CreateCounter(_ context.Context, c *Counter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.counters {
		if existing.StationID == c.StationID && existing.Number == c.Number {
			return ErrCounterNumberTaken
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	f.counters[c.ID] = &cp
	return nil
}

func (f *fakeRepo) GetCounter(_ context.Context, id uuid.UUID) (*Counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.counters[id]
	if !ok {
		return nil, ErrCounterNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) ListCounters(_ context.Context, stationID uuid.UUID) ([]Counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Counter
	for _, c := range f.counters {
		if c.StationID == stationID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountBoundCounters(_ context.Context, stationID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.counters {
		if c.StationID == stationID && c.CashierUID != nil && *c.CashierUID != "" {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) AnyServing(_ context.Context, stationID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.counters {
		if c.StationID == stationID && c.IsServing() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) BindCashier(_ context.Context, counterID uuid.UUID, cashierUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.counters[counterID]; !ok {
		return ErrCounterNotFound
	}
	for id, c := range f.counters {
		if id != counterID && c.CashierUID != nil && *c.CashierUID == cashierUID {
			return ErrCashierAlreadyBound
		}
	}
	f.counters[counterID].CashierUID = &cashierUID
	return nil
}

func (f *fakeRepo) UnbindCashier(_ context.Context, counterID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.counters[counterID]
	if !ok {
		return ErrCounterNotFound
	}
	c.CashierUID = nil
	return nil
}

func (f *fakeRepo) ListServing(_ context.Context, stationID uuid.UUID) ([]ServingDisplay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ServingDisplay
	for _, c := range f.counters {
		if c.StationID == stationID && c.IsServing() {
			out = append(out, ServingDisplay{CounterNumber: c.Number, TicketID: *c.ServingTicketID})
		}
	}
	return out, nil
}

func (f *fakeRepo) BumpVersion(_ context.Context, stationID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions[stationID]++
	return nil
}

func (f *fakeRepo) Version(_ context.Context, stationID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versions[stationID], nil
}

func setupStation(t *testing.T, repo *fakeRepo, activated bool) *Station {
	t.Helper()
	station := &Station{Name: "Cashier Window A", Purpose: PurposePayment, Activated: activated}
	if err := repo.CreateStation(context.Background(), station); err != nil {
		t.Fatalf("create station: %v", err)
	}
	return station
}

func TestActivateRequiresCounterAndCashier(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	station := setupStation(t, repo, false)

	// No counters at all
	if err := svc.Activate(ctx, station.ID); !errors.Is(err, ErrStationNotActivatable) {
		t.Fatalf("expected ErrStationNotActivatable with no counters, got %v", err)
	}

	counter, err := svc.CreateCounter(ctx, station.ID, 1)
	if err != nil {
		t.Fatalf("create counter: %v", err)
	}

	// Counter exists but no cashier bound
	if err := svc.Activate(ctx, station.ID); !errors.Is(err, ErrStationNotActivatable) {
		t.Fatalf("expected ErrStationNotActivatable with no bound cashier, got %v", err)
	}

	if err := svc.BindCashier(ctx, counter.ID, "cashier-17"); err != nil {
		t.Fatalf("bind cashier: %v", err)
	}

	if err := svc.Activate(ctx, station.ID); err != nil {
		t.Fatalf("expected activation to succeed, got %v", err)
	}

	got, err := svc.GetStation(ctx, station.ID)
	if err != nil {
		t.Fatalf("get station: %v", err)
	}
	if !got.Activated {
		t.Fatal("station should be activated")
	}
}

func TestDeactivateFailsWhileServing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	station := setupStation(t, repo, true)
	counter := &Counter{StationID: station.ID, Number: 1}
	if err := repo.CreateCounter(ctx, counter); err != nil {
		t.Fatalf("create counter: %v", err)
	}

	ticketID := "P007"
	repo.counters[counter.ID].ServingTicketID = &ticketID

	if err := svc.Deactivate(ctx, station.ID); !errors.Is(err, ErrStationServing) {
		t.Fatalf("expected ErrStationServing, got %v", err)
	}

	repo.counters[counter.ID].ServingTicketID = nil
	if err := svc.Deactivate(ctx, station.ID); err != nil {
		t.Fatalf("expected deactivation to succeed, got %v", err)
	}
}

func TestBindCashierExclusivity(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	station := setupStation(t, repo, false)
	first, err := svc.CreateCounter(ctx, station.ID, 1)
	if err != nil {
		t.Fatalf("create first counter: %v", err)
	}
	second, err := svc.CreateCounter(ctx, station.ID, 2)
	if err != nil {
		t.Fatalf("create second counter: %v", err)
	}

	if err := svc.BindCashier(ctx, first.ID, "cashier-1"); err != nil {
		t.Fatalf("bind to first counter: %v", err)
	}

	// Same cashier cannot operate two counters at once
	if err := svc.BindCashier(ctx, second.ID, "cashier-1"); !errors.Is(err, ErrCashierAlreadyBound) {
		t.Fatalf("expected ErrCashierAlreadyBound, got %v", err)
	}

	if err := svc.UnbindCashier(ctx, first.ID); err != nil {
		t.Fatalf("unbind: %v", err)
	}
	if err := svc.BindCashier(ctx, second.ID, "cashier-1"); err != nil {
		t.Fatalf("rebind after unbind: %v", err)
	}
}

func TestCounterNumberUniquePerStation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	station := setupStation(t, repo, false)
	other := setupStation(t, repo, false)

	if _, err := svc.CreateCounter(ctx, station.ID, 1); err != nil {
		t.Fatalf("create counter: %v", err)
	}
	if _, err := svc.CreateCounter(ctx, station.ID, 1); !errors.Is(err, ErrCounterNumberTaken) {
		t.Fatalf("expected ErrCounterNumberTaken, got %v", err)
	}

	// Same number on a different station is fine
	if _, err := svc.CreateCounter(ctx, other.ID, 1); err != nil {
		t.Fatalf("create counter on other station: %v", err)
	}
}

func TestAvailableStationsFiltersByPurposeAndActivation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	active := &Station{Name: "Bursar", Purpose: PurposePayment, Activated: true}
	inactive := &Station{Name: "Bursar Annex", Purpose: PurposePayment, Activated: false}
	clinic := &Station{Name: "Health Services", Purpose: PurposeClinic, Activated: true}
	for _, s := range []*Station{active, inactive, clinic} {
		if err := repo.CreateStation(ctx, s); err != nil {
			t.Fatalf("create station: %v", err)
		}
	}

	got, err := svc.AvailableStations(ctx, PurposePayment)
	if err != nil {
		t.Fatalf("available stations: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Fatalf("expected only the activated payment station, got %+v", got)
	}

	if _, err := svc.AvailableStations(ctx, Purpose("laundry")); err == nil {
		t.Fatal("expected error for unknown purpose")
	}
}

func TestPurposeInitials(t *testing.T) {
	cases := map[Purpose]string{
		PurposePayment:   "P",
		PurposeClinic:    "C",
		PurposeRegistrar: "R",
		PurposeGuidance:  "G",
	}
	for purpose, want := range cases {
		if got := purpose.Initial(); got != want {
			t.Errorf("Initial(%s) = %s, want %s", purpose, got, want)
		}
	}
}
