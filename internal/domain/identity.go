package domain

import "github.com/google/uuid"

// Identity is the authenticated caller as seen by services and the role resolver.
// It is built from the session (cookie login) or a verified bearer token.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
