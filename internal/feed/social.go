package feed

import (
	"context"
	"errors"
	"sort"

	"github.com/Parimal-b/InstagramCloneApp/internal/store"
)

// ToggleFollow adds or removes the target from the signed-in account's
// following set, writes the replacement set, then reloads the whole
// account, cascading a refresh of every dependent projection.
func (f *Facade) ToggleFollow(ctx context.Context, targetID string) error {
	uid := f.CurrentUserID()
	account := f.UserData.Get()
	if uid == "" || account == nil {
		return errors.New("no active session")
	}

	following := make([]string, 0, len(account.Following)+1)
	removed := false
	for _, id := range account.Following {
		if id == targetID {
			removed = true
			continue
		}
		following = append(following, id)
	}
	if !removed {
		following = append(following, targetID)
	}

	err := f.store.Update(ctx, UsersCollection, uid, store.Document{"following": following})
	if err != nil {
		f.fail("", err)
		return err
	}
	return f.loadAccount(ctx, uid)
}

// FetchFollowers recomputes the signed-in account's follower count.
func (f *Facade) FetchFollowers(ctx context.Context, uid string) {
	f.fetchFollowers(ctx, uid)
}

func (f *Facade) fetchFollowers(ctx context.Context, uid string) {
	users, ok := f.queryFollowers(ctx, uid)
	if !ok {
		return
	}
	f.Followers.Set(len(users))
	f.SortedUsers.Set(sortAccountsByHandleDesc(users))
}

func (f *Facade) fetchUserFollowers(ctx context.Context, uid string) {
	users, ok := f.queryFollowers(ctx, uid)
	if !ok {
		return
	}
	f.UserFollowers.Set(len(users))
	f.SortedUsers.Set(sortAccountsByHandleDesc(users))
}

func (f *Facade) queryFollowers(ctx context.Context, uid string) ([]Account, bool) {
	docs, err := f.store.Query(ctx, UsersCollection, store.ArrayContains("following", uid))
	if err != nil {
		f.fail("Not able to retrieve followers", err)
		return nil, false
	}
	users, err := store.DecodeAll[Account](docs)
	if err != nil {
		f.fail("Not able to retrieve followers", err)
		return nil, false
	}
	return users, true
}

// FetchFollowing resolves the signed-in account's following ids to their
// account documents, feeding the followed-profiles screen.
func (f *Facade) FetchFollowing(ctx context.Context) error {
	account := f.UserData.Get()
	if account == nil {
		return errors.New("no active session")
	}
	if len(account.Following) == 0 {
		f.Following.Set(nil)
		return nil
	}

	ids := make([]any, len(account.Following))
	for i, id := range account.Following {
		ids[i] = id
	}
	docs, err := f.store.Query(ctx, UsersCollection, store.In("userId", ids...))
	if err != nil {
		f.fail("Not able to retrieve following", err)
		return err
	}
	users, err := store.DecodeAll[Account](docs)
	if err != nil {
		f.fail("Not able to retrieve following", err)
		return err
	}
	f.Following.Set(sortAccountsByHandleDesc(users))
	return nil
}

func sortAccountsByHandleDesc(users []Account) []Account {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].UserName > users[j].UserName
	})
	return users
}

// startRecommendations keeps a live subscription over the whole accounts
// collection and recomputes the peer suggestions on every change, excluding
// the current account and anyone already followed. O(collection) per event;
// acceptable only at small scale.
func (f *Facade) startRecommendations() {
	f.subMu.Lock()
	if f.recSub != nil {
		f.recSub.Cancel()
	}
	f.recSub = f.store.Subscribe(UsersCollection, store.All, func(docs []store.Document) {
		account := f.UserData.Get()
		if account == nil {
			return
		}
		followed := map[string]struct{}{account.UserID: {}}
		for _, id := range account.Following {
			followed[id] = struct{}{}
		}

		users, err := store.DecodeAll[Account](docs)
		if err != nil {
			f.fail("Not able to retrieve user recommendations", err)
			return
		}
		var recs []Account
		for _, user := range users {
			if _, skip := followed[user.UserID]; skip {
				continue
			}
			recs = append(recs, user)
		}
		f.Recommendations.Set(recs)
	})
	f.subMu.Unlock()
}
