package forum

import "serviceloop-backend/internal/pkg/apperr"

var (
	ErrTitleContentRequired = apperr.Validation("Title and content are required")
	ErrTagRequired          = apperr.Validation("Please add at least one tag")
	ErrContentTooLong       = apperr.Validation("Content must be 5000 characters or fewer")
	ErrCommentRequired      = apperr.Validation("Comment text is required")
	ErrPostNotFound         = apperr.NotFound("Post not found")
	ErrOrgNotFound          = apperr.NotFound("Organization not found")
)
