package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const signedURLTTLSeconds = 3600

// Storage issues signed upload URLs for an object path in a bucket.
type Storage interface {
	SignUpload(ctx context.Context, bucket, path string) (string, error)
}

// SupabaseStorage talks to the hosted storage REST API with the service key.
type SupabaseStorage struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

func NewSupabaseStorage(baseURL, secretKey string) *SupabaseStorage {
	return &SupabaseStorage{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

type signResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"`
}

func (s *SupabaseStorage) SignUpload(ctx context.Context, bucket, path string) (string, error) {
	body, _ := json.Marshal(map[string]interface{}{"expiresIn": signedURLTTLSeconds, "upsert": false})
	endpoint := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", s.BaseURL, bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", s.SecretKey)
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage request: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("storage sign: status %d body: %s", resp.StatusCode, raw)
	}

	var out signResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("storage sign decode: %w", err)
	}
	switch {
	case out.SignedURL != "":
		return out.SignedURL, nil
	case out.SignedURLSnake != "":
		return out.SignedURLSnake, nil
	case out.URL != "":
		// relative to the storage API root
		u := out.URL
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		return s.BaseURL + "/storage/v1" + u, nil
	}
	return "", fmt.Errorf("storage sign: no signed URL in %s", raw)
}
