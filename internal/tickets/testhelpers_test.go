package tickets

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusq/internal/shared/config"
	"campusq/internal/stations"
	"campusq/internal/tokens"
)

func purposeOf(s string) stations.Purpose { return stations.Purpose(s) }

// fakeStore is an in-memory stand-in for the Postgres-backed
// repository and the station directory. A single mutex serializes all
// operations, matching the row-lock serialization of the real thing.
type fakeStore struct {
	mu        sync.Mutex
	stations  map[uuid.UUID]*stations.Station
	counters  map[uuid.UUID]*fakeCounter
	tickets   map[string]*Ticket
	order     []string
	sequences map[stations.Purpose]int
	blacklist map[string]bool
	versions  map[uuid.UUID]int64
}

type fakeCounter struct {
	id         uuid.UUID
	stationID  uuid.UUID
	number     int
	cashierUID *string
	serving    *string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stations:  make(map[uuid.UUID]*stations.Station),
		counters:  make(map[uuid.UUID]*fakeCounter),
		tickets:   make(map[string]*Ticket),
		sequences: make(map[stations.Purpose]int),
		blacklist: make(map[string]bool),
		versions:  make(map[uuid.UUID]int64),
	}
}

func (f *fakeStore) addStation(purpose stations.Purpose, activated bool) *stations.Station {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &stations.Station{ID: uuid.New(), Name: "Test Station", Purpose: purpose, Activated: activated}
	f.stations[s.ID] = s
	return s
}

func (f *fakeStore) addCounter(stationID uuid.UUID, number int, cashierUID string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &fakeCounter{id: uuid.New(), stationID: stationID, number: number}
	if cashierUID != "" {
		c.cashierUID = &cashierUID
	}
	f.counters[c.id] = c
	return c.id
}

// Directory

func (f *fakeStore) GetStation(_ context.Context, id uuid.UUID) (*stations.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stations[id]
	if !ok {
		return nil, stations.ErrStationNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) BumpVersion(_ context.Context, stationID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions[stationID]++
	return nil
}

// Repository

func (f *fakeStore) AllocateTicket(_ context.Context, stationID uuid.UUID, purpose stations.Purpose, email string) (*Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tickets {
		if t.Email == email && t.StationID == stationID && t.IsLive() {
			return nil, ErrDuplicateTicket
		}
	}

	f.sequences[purpose]++
	ticket := &Ticket{
		ID:        FormatTicketID(purpose, f.sequences[purpose]),
		Purpose:   purpose,
		Email:     email,
		StationID: stationID,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	f.tickets[ticket.ID] = ticket
	f.order = append(f.order, ticket.ID)

	cp := *ticket
	return &cp, nil
}

func (f *fakeStore) GetTicket(_ context.Context, id string) (*Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) HasLiveTicket(_ context.Context, email string, stationID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.Email == email && t.StationID == stationID && t.IsLive() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) IsBlacklisted(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blacklist[email], nil
}

func (f *fakeStore) ListPending(_ context.Context, stationID uuid.UUID, limit int) ([]Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Ticket
	for _, id := range f.order {
		t := f.tickets[id]
		if t.StationID == stationID && t.Status == StatusPending {
			out = append(out, *t)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) PendingPosition(_ context.Context, ticket *Ticket) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pos := 0
	for _, id := range f.order {
		t := f.tickets[id]
		if t.StationID != ticket.StationID || t.Status != StatusPending {
			continue
		}
		pos++
		if t.ID == ticket.ID {
			return pos, nil
		}
	}
	return 0, ErrTicketNotFound
}

func (f *fakeStore) ReleaseTicket(_ context.Context, ticketID string) (*Ticket, *int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, nil, ErrTicketNotFound
	}
	if !CanTransition(t.Status, StatusUnsuccessful) {
		return nil, nil, ErrTicketNotLeavable
	}

	prior := *t
	var counterNumber *int
	if t.Status == StatusOngoing {
		for _, c := range f.counters {
			if c.serving != nil && *c.serving == ticketID {
				n := c.number
				counterNumber = &n
				c.serving = nil
				break
			}
		}
	}
	t.Status = StatusUnsuccessful
	return &prior, counterNumber, nil
}

func (f *fakeStore) ClaimNext(_ context.Context, stationID, counterID uuid.UUID, cashierUID string) (*Ticket, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.counters[counterID]
	if !ok || c.stationID != stationID {
		return nil, 0, stations.ErrCounterNotFound
	}
	if c.cashierUID == nil || *c.cashierUID != cashierUID {
		return nil, 0, ErrCounterUnbound
	}
	if c.serving != nil {
		return nil, 0, ErrCounterBusy
	}

	for _, id := range f.order {
		t := f.tickets[id]
		if t.StationID == stationID && t.Status == StatusPending {
			t.Status = StatusOngoing
			t.CounterID = &counterID
			serving := t.ID
			c.serving = &serving
			cp := *t
			return &cp, c.number, nil
		}
	}
	return nil, 0, ErrNoPendingTickets
}

func (f *fakeStore) FinishServing(_ context.Context, ticketID string, stationID, counterID uuid.UUID, final Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.counters[counterID]
	if !ok || c.stationID != stationID {
		return stations.ErrCounterNotFound
	}
	if c.serving == nil || *c.serving != ticketID {
		return ErrTicketNotServing
	}

	t, ok := f.tickets[ticketID]
	if !ok {
		return ErrTicketNotFound
	}
	if !CanTransition(t.Status, final) {
		return ErrTicketNotServing
	}

	t.Status = final
	c.serving = nil
	return nil
}

func (f *fakeStore) SetServingIndex(context.Context, uuid.UUID, int, string) {}
func (f *fakeStore) ClearServingIndex(context.Context, uuid.UUID, int) {}

// recordingNotifier captures queue events for assertions
type recordingNotifier struct {
	mu           sync.Mutex
	called       []string
	left         []string
	queueChanges int
}

func (n *recordingNotifier) TicketCalled(_ context.Context, ticketID, _ string, _ uuid.UUID, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.called = append(n.called, ticketID)
}

func (n *recordingNotifier) CustomerLeft(_ context.Context, ticketID string, _ uuid.UUID, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.left = append(n.left, ticketID)
}

func (n *recordingNotifier) QueueChanged(context.Context, uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queueChanges++
}

// memoryUsage is an in-memory consumed-token ledger
type memoryUsage struct {
	mu   sync.Mutex
	used map[string]bool
}

func newMemoryUsage() *memoryUsage { return &memoryUsage{used: make(map[string]bool)} }

func (m *memoryUsage) MarkUsed(_ context.Context, digest string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used[digest] = true
	return nil
}

func (m *memoryUsage) IsUsed(_ context.Context, digest string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used[digest], nil
}

func testTokenService() tokens.Service {
	return tokens.NewService(newMemoryUsage(), &config.TokenConfig{
		Secret:         "test-secret",
		PermissionTTL:  5 * time.Minute,
		QueueFormTTL:   10 * time.Minute,
		QueueStatusTTL: time.Hour,
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Tokens: config.TokenConfig{
			Secret:         "test-secret",
			QueueStatusTTL: time.Hour,
		},
	}
}
