package uploads

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"serviceloop-backend/internal/application/policies/roles"
	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/pkg/apperr"

	"github.com/rs/zerolog/log"
)

const ImageBucket = "images"

var (
	ErrNotConfigured   = apperr.NotProvisioned("Image uploads are not configured")
	ErrFileNameMissing = apperr.Validation("file_name is required")
	ErrUnsupportedKind = apperr.Validation("kind must be one of: organization, event, request")
	ErrUnsupportedType = apperr.Validation("Only jpg, png, webp and gif images can be uploaded")
)

var (
	allowedKinds = map[string]bool{"organization": true, "event": true, "request": true}
	allowedExt   = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}
	unsafeChars  = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// Service hands out signed URLs so the browser uploads images straight to storage.
// The returned public URL is what clients put in image_url fields.
type Service struct {
	Storage Storage
	BaseURL string
	Now     func() time.Time
}

// Ticket is a one-time upload target.
type Ticket struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

// SignImageUpload validates the request and reserves kind/<user>/<millis>-<name>.
func (s *Service) SignImageUpload(ctx context.Context, id *domain.Identity, kind, fileName string) (*Ticket, error) {
	if err := roles.RequireAuth(id); err != nil {
		return nil, err
	}
	if s.Storage == nil {
		return nil, ErrNotConfigured
	}
	if !allowedKinds[kind] {
		return nil, ErrUnsupportedKind
	}
	name := SanitizeFileName(fileName)
	if name == "" {
		return nil, ErrFileNameMissing
	}
	if !allowedExt[strings.ToLower(path.Ext(name))] {
		return nil, ErrUnsupportedType
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	objectPath := fmt.Sprintf("%s/%s/%d-%s", kind, id.ID, now().UnixMilli(), name)
	signed, err := s.Storage.SignUpload(ctx, ImageBucket, objectPath)
	if err != nil {
		log.Error().Err(err).Str("path", objectPath).Msg("uploads: sign failed")
		return nil, fmt.Errorf("sign upload: %w", err)
	}
	return &Ticket{
		UploadURL: signed,
		PublicURL: fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(s.BaseURL, "/"), ImageBucket, objectPath),
		Path:      objectPath,
	}, nil
}

// SanitizeFileName keeps the base name and replaces anything outside [a-zA-Z0-9._-].
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
}
