package tickets

// JoinResponse is returned on a successful queue join. The status
// token is the customer's only handle on the ticket afterwards.
type JoinResponse struct {
	TicketID    string `json:"ticket_id"`
	Position    int    `json:"position,omitempty"`
	StatusToken string `json:"status_token"`
}

// PositionResponse reports where the ticket stands
type PositionResponse struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"`
	Position int    `json:"position,omitempty"`
}

// ClaimResponse tells the cashier which ticket to call
type ClaimResponse struct {
	TicketID      string `json:"ticket_id"`
	CounterNumber int    `json:"counter_number"`
}
