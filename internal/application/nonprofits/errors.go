package nonprofits

import "serviceloop-backend/internal/pkg/apperr"

var ErrNonprofitNotFound = apperr.NotFound("Organization not found")
