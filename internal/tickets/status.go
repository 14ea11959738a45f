package tickets

type Status string

const (
	StatusPending      Status = "PENDING"
	StatusOngoing      Status = "ONGOING"
	StatusComplete     Status = "COMPLETE"
	StatusUnsuccessful Status = "UNSUCCESSFUL"
)

// transitions is the full status machine. COMPLETE and UNSUCCESSFUL
// are terminal; a ticket never re-enters the queue.
var transitions = map[Status][]Status{
	StatusPending: {StatusOngoing, StatusUnsuccessful},
	StatusOngoing: {StatusComplete, StatusUnsuccessful},
}

// CanTransition reports whether a status change is legal
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsValid checks the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusOngoing, StatusComplete, StatusUnsuccessful:
		return true
	}
	return false
}
