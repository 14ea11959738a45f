package tokens

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

// TokenType identifies a token's place in the access chain.
//
// The chain is strictly ordered: a staff member issues a permission
// token at the physical counter (QR scan), the customer exchanges it
// for a queue-form token, and joining the queue converts that into a
// queue-status token bound to the allocated ticket. Every exchange
// consumes its input token.
type TokenType string

const (
	TypePermission  TokenType = "permission"
	TypeQueueForm   TokenType = "queue-form"
	TypeQueueStatus TokenType = "queue-status"
)

// IsValid checks if the token type is one of the known chain stages
func (t TokenType) IsValid() bool {
	switch t {
	case TypePermission, TypeQueueForm, TypeQueueStatus:
		return true
	}
	return false
}

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("token invalid")
	ErrWrongTokenType   = errors.New("wrong token type")
	ErrTokenAlreadyUsed = errors.New("token already used")
)

// Claims is the signed payload carried by every access token.
// Tokens are self-contained: verification needs no lookup beyond the
// consumed-token ledger.
type Claims struct {
	Type      TokenType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	StationID string    `json:"station_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenClaims carries the optional embedded claims supplied at issue time
type TokenClaims struct {
	TicketID  string
	StationID string
	Email     string
}
