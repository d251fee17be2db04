package blob

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
)

func TestUpload(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO media_objects`).
		WithArgs(pgxmock.AnyArg(), "images/abc.png", "file:///local.png", "https://media.example/images/abc.png").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock, "https://media.example/")
	url, err := svc.Upload(context.Background(), "file:///local.png", "images/abc.png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://media.example/images/abc.png" {
		t.Fatalf("unexpected url %q", url)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUploadError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO media_objects`).
		WithArgs(pgxmock.AnyArg(), "images/abc.png", "ref", pgxmock.AnyArg()).
		WillReturnError(errUpload)

	svc := NewService(mock, "https://media.example")
	if _, err = svc.Upload(context.Background(), "ref", "images/abc.png"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUploadFuncAdapter(t *testing.T) {
	fn := UploadFunc(func(_ context.Context, _ string, destPath string) (string, error) {
		return "u/" + destPath, nil
	})
	url, err := fn.Upload(context.Background(), "ref", "p")
	if err != nil || url != "u/p" {
		t.Fatalf("adapter mismatch: %q %v", url, err)
	}
}

var errUpload = errors.New("upload error")
