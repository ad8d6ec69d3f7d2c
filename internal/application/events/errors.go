package events

import "serviceloop-backend/internal/pkg/apperr"

var ErrEventNotFound = apperr.NotFound("Event not found")
