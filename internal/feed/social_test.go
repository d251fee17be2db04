package feed

import (
	"context"
	"testing"

	"github.com/Parimal-b/InstagramCloneApp/internal/store"
)

func TestToggleFollowRoundTrip(t *testing.T) {
	st := store.NewMemory()
	fac, _ := newTestFacade(t, st, Options{})
	signUp(t, fac, "alice", "alice@example.com")
	seedAccount(t, st, Account{UserID: "bob-id", UserName: "bob"})

	if err := fac.ToggleFollow(context.Background(), "bob-id"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	following := fac.UserData.Get().Following
	if len(following) != 1 || following[0] != "bob-id" {
		t.Fatalf("expected bob followed, got %v", following)
	}

	if err := fac.ToggleFollow(context.Background(), "bob-id"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if len(fac.UserData.Get().Following) != 0 {
		t.Fatalf("expected bob unfollowed")
	}
}

func TestFollowersCountAndSortedUsers(t *testing.T) {
	st := store.NewMemory()
	fac, _ := newTestFacade(t, st, Options{})
	signUp(t, fac, "alice", "alice@example.com")
	uid := fac.CurrentUserID()

	seedAccount(t, st, Account{UserID: "b1", UserName: "zoe", Following: []string{uid}})
	seedAccount(t, st, Account{UserID: "b2", UserName: "bob", Following: []string{uid}})
	seedAccount(t, st, Account{UserID: "b3", UserName: "carol", Following: []string{"someone-else"}})

	fac.FetchFollowers(context.Background(), uid)

	if got := fac.Followers.Get(); got != 2 {
		t.Fatalf("expected two followers, got %d", got)
	}
	users := fac.SortedUsers.Get()
	if len(users) != 2 || users[0].UserName != "zoe" || users[1].UserName != "bob" {
		t.Fatalf("expected handle-descending follower list, got %+v", users)
	}
}

func TestSortedUsersSharedSlotOverwrite(t *testing.T) {
	st := store.NewMemory()
	fac, _ := newTestFacade(t, st, Options{})
	signUp(t, fac, "alice", "alice@example.com")
	uid := fac.CurrentUserID()

	seedAccount(t, st, Account{UserID: "b1", UserName: "zoe", Following: []string{uid}})
	seedAccount(t, st, Account{UserID: "other", UserName: "bob"})
	seedAccount(t, st, Account{UserID: "b2", UserName: "mallory", Following: []string{"other"}})

	fac.FetchFollowers(context.Background(), uid)
	if users := fac.SortedUsers.Get(); len(users) != 1 || users[0].UserName != "zoe" {
		t.Fatalf("unexpected own-followers slot: %+v", users)
	}

	// The profile-followers query writes into the same shared slot.
	if err := fac.FetchUserProfile(context.Background(), "other"); err != nil {
		t.Fatalf("fetch profile: %v", err)
	}
	if users := fac.SortedUsers.Get(); len(users) != 1 || users[0].UserName != "mallory" {
		t.Fatalf("expected shared slot overwritten by last query, got %+v", users)
	}
	if fac.UserFollowers.Get() != 1 {
		t.Fatalf("expected profile follower count")
	}
}

func TestFetchFollowingResolvesAccounts(t *testing.T) {
	st := store.NewMemory()
	fac, _ := newTestFacade(t, st, Options{})
	signUp(t, fac, "alice", "alice@example.com")

	if err := fac.FetchFollowing(context.Background()); err != nil {
		t.Fatalf("fetch following: %v", err)
	}
	if got := fac.Following.Get(); len(got) != 0 {
		t.Fatalf("expected empty following list, got %+v", got)
	}

	seedAccount(t, st, Account{UserID: "b1", UserName: "zoe"})
	seedAccount(t, st, Account{UserID: "b2", UserName: "bob"})
	seedAccount(t, st, Account{UserID: "b3", UserName: "carol"})
	for _, id := range []string{"b1", "b2"} {
		if err := fac.ToggleFollow(context.Background(), id); err != nil {
			t.Fatalf("follow %s: %v", id, err)
		}
	}

	if err := fac.FetchFollowing(context.Background()); err != nil {
		t.Fatalf("fetch following: %v", err)
	}
	users := fac.Following.Get()
	if len(users) != 2 || users[0].UserName != "zoe" || users[1].UserName != "bob" {
		t.Fatalf("expected followed accounts resolved and sorted, got %+v", users)
	}

	if err := fac.ToggleFollow(context.Background(), "b1"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := fac.FetchFollowing(context.Background()); err != nil {
		t.Fatalf("fetch following: %v", err)
	}
	users = fac.Following.Get()
	if len(users) != 1 || users[0].UserID != "b2" {
		t.Fatalf("expected unfollowed account dropped, got %+v", users)
	}
}

func TestRecommendationsExcludeSelfAndFollowed(t *testing.T) {
	st := store.NewMemory()
	fac, _ := newTestFacade(t, st, Options{})
	signUp(t, fac, "alice", "alice@example.com")

	seedAccount(t, st, Account{UserID: "b1", UserName: "bob"})
	seedAccount(t, st, Account{UserID: "b2", UserName: "carol"})

	recs := await(t, &fac.Recommendations, func(users []Account) bool { return len(users) == 2 })
	for _, user := range recs {
		if user.UserID == fac.CurrentUserID() {
			t.Fatalf("self must be excluded from recommendations")
		}
	}

	if err := fac.ToggleFollow(context.Background(), "b1"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	recs = await(t, &fac.Recommendations, func(users []Account) bool {
		return len(users) == 1 && users[0].UserID == "b2"
	})
	if recs[0].UserName != "carol" {
		t.Fatalf("unexpected recommendation: %+v", recs[0])
	}
}
