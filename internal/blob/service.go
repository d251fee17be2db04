package blob

import (
	"context"
	"strings"

	"github.com/Parimal-b/InstagramCloneApp/internal/db"
	"github.com/google/uuid"
)

// Client uploads content by local reference to a destination path and
// returns a durable retrieval URL.
type Client interface {
	Upload(ctx context.Context, localRef, destPath string) (string, error)
}

// UploadFunc adapts a function to the Client interface.
type UploadFunc func(ctx context.Context, localRef, destPath string) (string, error)

func (f UploadFunc) Upload(ctx context.Context, localRef, destPath string) (string, error) {
	return f(ctx, localRef, destPath)
}

// Service records uploaded objects and mints URLs under a media base URL.
type Service struct {
	db      db.Querier
	baseURL string
}

func NewService(querier db.Querier, baseURL string) *Service {
	return &Service{db: querier, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *Service) Upload(ctx context.Context, localRef, destPath string) (string, error) {
	url := s.baseURL + "/" + strings.TrimPrefix(destPath, "/")
	_, err := s.db.Exec(ctx, `
		INSERT INTO media_objects (id, path, source_ref, url)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), destPath, localRef, url)
	if err != nil {
		return "", err
	}
	return url, nil
}
