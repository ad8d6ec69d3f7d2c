package roles

import "serviceloop-backend/internal/pkg/apperr"

var (
	ErrNotAuthenticated   = apperr.Unauthenticated("Not authenticated")
	ErrSuperAdminRequired = apperr.Forbidden("Unauthorized: Super admin access required")
	ErrOrgAdminRequired   = apperr.Forbidden("Unauthorized: Organization admin access required")
)
