package tickets

// JoinRequest is the queue-join form submission. The queue-form token
// rides in the Authorization header, not the body.
type JoinRequest struct {
	Email string `json:"email" binding:"required" validate:"required,email"`
}

// ClaimRequest identifies the counter a cashier is claiming for
type ClaimRequest struct {
	StationID string `json:"station_id" binding:"required,uuid"`
	CounterID string `json:"counter_id" binding:"required,uuid"`
}

// FinishRequest closes out the ticket a counter is serving
type FinishRequest struct {
	TicketID  string `json:"ticket_id" binding:"required"`
	StationID string `json:"station_id" binding:"required,uuid"`
	CounterID string `json:"counter_id" binding:"required,uuid"`
}
