package admin

import "serviceloop-backend/internal/pkg/apperr"

var (
	ErrOrgNotFound      = apperr.NotFound("Organization not found")
	ErrAlreadyOrgAdmin  = apperr.Conflict("User is already an admin of this organization")
	ErrCannotDemoteSelf = apperr.Validation("You cannot remove yourself as an admin")
)
