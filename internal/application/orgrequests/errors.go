package orgrequests

import "serviceloop-backend/internal/pkg/apperr"

var (
	ErrMissingFields          = apperr.Validation("Organization name, category and mission are required")
	ErrMissionTooLong         = apperr.Validation("Mission must be 1000 characters or fewer")
	ErrInvalidContactEmail    = apperr.Validation("Contact email is not a valid email address")
	ErrRequestNotFound        = apperr.NotFound("Organization request not found")
	ErrRequestAlreadyResolved = apperr.Conflict("Organization request has already been reviewed")
)
