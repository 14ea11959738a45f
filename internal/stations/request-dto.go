package stations

// CreateStationRequest creates a new (deactivated) station
type CreateStationRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=120"`
	Purpose string `json:"purpose" binding:"required,oneof=payment clinic registrar guidance"`
}

// CreateCounterRequest adds a numbered counter to a station
type CreateCounterRequest struct {
	Number int `json:"number" binding:"required,min=1"`
}

// BindCashierRequest binds a cashier identity to a counter
type BindCashierRequest struct {
	CashierUID string `json:"cashier_uid" binding:"required"`
}
