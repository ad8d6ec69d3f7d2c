package uploads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"serviceloop-backend/internal/domain"
	"serviceloop-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "logo.png", SanitizeFileName("../../logo.png"))
	assert.Equal(t, "my_photo.jpg", SanitizeFileName(`C:\Users\me\my photo.jpg`))
	assert.Equal(t, "", SanitizeFileName("  "))
}

func TestSignImageUpload(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "/object/upload/sign/images/x?token=abc"})
	}))
	defer srv.Close()

	svc := &Service{
		Storage: NewSupabaseStorage(srv.URL+"/", "service-key"),
		BaseURL: "https://proj.supabase.co",
		Now:     func() time.Time { return time.UnixMilli(1700000000000) },
	}
	id := &domain.Identity{ID: uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"), Email: "a@b.co"}

	ticket, err := svc.SignImageUpload(context.Background(), id, "event", "Cleanup Day.PNG")
	require.NoError(t, err)
	assert.Equal(t, "event/0f8fad5b-d9cb-469f-a165-70867728950e/1700000000000-Cleanup_Day.PNG", ticket.Path)
	assert.Equal(t, "/storage/v1/object/upload/sign/images/"+ticket.Path, gotPath)
	assert.Equal(t, "service-key", gotKey)
	assert.Equal(t, srv.URL+"/storage/v1/object/upload/sign/images/x?token=abc", ticket.UploadURL)
	assert.True(t, strings.HasPrefix(ticket.PublicURL, "https://proj.supabase.co/storage/v1/object/public/images/event/"))
}

func TestSignImageUpload_Rejections(t *testing.T) {
	ctx := context.Background()
	id := &domain.Identity{ID: uuid.New()}

	_, err := (&Service{}).SignImageUpload(ctx, nil, "event", "a.png")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	_, err = (&Service{}).SignImageUpload(ctx, id, "event", "a.png")
	assert.ErrorIs(t, err, ErrNotConfigured)

	svc := &Service{Storage: NewSupabaseStorage("http://127.0.0.1:1", "k")}
	_, err = svc.SignImageUpload(ctx, id, "avatar", "a.png")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	_, err = svc.SignImageUpload(ctx, id, "organization", "")
	assert.ErrorIs(t, err, ErrFileNameMissing)
	_, err = svc.SignImageUpload(ctx, id, "organization", "report.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSignImageUpload_StorageErrorIsInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusForbidden)
	}))
	defer srv.Close()
	svc := &Service{Storage: NewSupabaseStorage(srv.URL, "anon")}
	_, err := svc.SignImageUpload(context.Background(), &domain.Identity{ID: uuid.New()}, "request", "logo.png")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
