package feed

import (
	"context"
	"testing"
	"time"

	"github.com/Parimal-b/InstagramCloneApp/internal/store"
	"github.com/google/uuid"
)

func seedStatus(t *testing.T, st store.Client, status Status) {
	t.Helper()
	doc, err := store.Encode(status)
	if err != nil {
		t.Fatalf("encode status: %v", err)
	}
	if err := st.Set(context.Background(), StatusCollection, uuid.NewString(), doc); err != nil {
		t.Fatalf("seed status: %v", err)
	}
}

func TestStatusVisibleToFollowerAndSelf(t *testing.T) {
	st := store.NewMemory()
	alice, idc := newTestFacade(t, st, Options{})
	signUp(t, alice, "alice", "alice@example.com")
	bob := New(idc, st, testBlob(), Options{})
	if err := bob.SignUp(context.Background(), "bob", "bob@example.com", "secret"); err != nil {
		t.Fatalf("sign up bob: %v", err)
	}

	if err := alice.ToggleFollow(context.Background(), bob.CurrentUserID()); err != nil {
		t.Fatalf("follow: %v", err)
	}

	bob.UploadStatus("file:///story.png")

	statuses := await(t, &alice.Statuses, func(s []Status) bool { return len(s) == 1 })
	if statuses[0].User.UserName != "bob" {
		t.Fatalf("unexpected author: %+v", statuses[0])
	}
	if statuses[0].ImageURL == "" {
		t.Fatalf("status missing uploaded image url")
	}

	// Authors are part of their own connection set.
	await(t, &bob.Statuses, func(s []Status) bool { return len(s) == 1 })
}

func TestStatusHiddenFromNonFollowers(t *testing.T) {
	st := store.NewMemory()
	alice, idc := newTestFacade(t, st, Options{})
	signUp(t, alice, "alice", "alice@example.com")
	carol := New(idc, st, testBlob(), Options{})
	if err := carol.SignUp(context.Background(), "carol", "carol@example.com", "secret"); err != nil {
		t.Fatalf("sign up carol: %v", err)
	}

	carol.UploadStatus("file:///story.png")

	await(t, &carol.Statuses, func(s []Status) bool { return len(s) == 1 })
	time.Sleep(50 * time.Millisecond)
	if got := alice.Statuses.Get(); len(got) != 0 {
		t.Fatalf("status leaked to non-follower: %+v", got)
	}
}

func TestStatusCutoffExcludesExpired(t *testing.T) {
	st := store.NewMemory()
	now := time.UnixMilli(1_700_000_000_000)
	ttl := 24 * time.Hour
	alice, _ := newTestFacade(t, st, Options{
		StatusTTL: ttl,
		Now:       func() time.Time { return now },
	})
	signUp(t, alice, "alice", "alice@example.com")
	seedAccount(t, st, Account{UserID: "bob-id", UserName: "bob"})
	if err := alice.ToggleFollow(context.Background(), "bob-id"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	cutoff := now.UnixMilli() - ttl.Milliseconds()
	author := ParticipantSummary{UserID: "bob-id", UserName: "bob"}
	seedStatus(t, st, Status{User: author, ImageURL: "expired", Timestamp: cutoff - 1})
	seedStatus(t, st, Status{User: author, ImageURL: "boundary", Timestamp: cutoff})
	seedStatus(t, st, Status{User: author, ImageURL: "fresh", Timestamp: cutoff + 1})

	statuses := await(t, &alice.Statuses, func(s []Status) bool { return len(s) == 1 })
	if statuses[0].ImageURL != "fresh" {
		t.Fatalf("cutoff must be strictly greater-than, got %+v", statuses)
	}
}

func TestStatusFollowUpdatesConnectionSet(t *testing.T) {
	st := store.NewMemory()
	alice, idc := newTestFacade(t, st, Options{})
	signUp(t, alice, "alice", "alice@example.com")
	bob := New(idc, st, testBlob(), Options{})
	if err := bob.SignUp(context.Background(), "bob", "bob@example.com", "secret"); err != nil {
		t.Fatalf("sign up bob: %v", err)
	}

	bob.UploadStatus("file:///story.png")
	await(t, &bob.Statuses, func(s []Status) bool { return len(s) == 1 })
	if len(alice.Statuses.Get()) != 0 {
		t.Fatalf("status visible before following")
	}

	// Following re-evaluates the connection set; the replacement inner
	// subscription picks up the already-published status.
	if err := alice.ToggleFollow(context.Background(), bob.CurrentUserID()); err != nil {
		t.Fatalf("follow: %v", err)
	}
	await(t, &alice.Statuses, func(s []Status) bool { return len(s) == 1 })
}
