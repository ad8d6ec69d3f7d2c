package orgadmin

import "serviceloop-backend/internal/pkg/apperr"

var (
	ErrCannotRemoveSelf    = apperr.Validation("You cannot remove yourself as an admin")
	ErrEmailRequired       = apperr.Validation("Email is required")
	ErrUserNotFoundByEmail = apperr.NotFound("No user found with that email")
	ErrOrgNotFound         = apperr.NotFound("Organization not found")
	ErrEventNotInOrg       = apperr.NotFound("Event not found or does not belong to this organization")
	ErrPostNotInOrg        = apperr.NotFound("Post not found or does not belong to this organization")
	ErrEventDeleteDenied   = apperr.Forbidden("Permission denied. You may not have permission to delete events. Please check RLS policies.")
	ErrEventFieldsRequired = apperr.Validation("Title, description and date are required")
	ErrDescriptionTooLong  = apperr.Validation("Description must be 1000 characters or fewer")
	ErrNoUpdateFields      = apperr.Validation("No update fields provided")
	ErrNameRequired        = apperr.Validation("Organization name cannot be empty")
	ErrMissionTooLong      = apperr.Validation("Mission must be 1000 characters or fewer")
)
