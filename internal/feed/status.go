package feed

import (
	"context"

	"github.com/Parimal-b/InstagramCloneApp/internal/store"
	"github.com/google/uuid"
)

// UploadStatus publishes an ephemeral status: upload the image, then write
// the status document with the author summary and current timestamp.
func (f *Facade) UploadStatus(localRef string) {
	f.UploadImage(localRef, func(url string) {
		f.createStatus(context.Background(), url)
	})
}

func (f *Facade) createStatus(ctx context.Context, imageURL string) {
	account := f.UserData.Get()
	if account == nil {
		return
	}
	status := Status{
		User: ParticipantSummary{
			UserID:   account.UserID,
			UserName: account.UserName,
			ImageURL: account.ImageURL,
		},
		ImageURL:  imageURL,
		Timestamp: f.now().UnixMilli(),
	}
	doc, err := store.Encode(status)
	if err != nil {
		f.fail("", err)
		return
	}
	if err := f.store.Set(ctx, StatusCollection, uuid.NewString(), doc); err != nil {
		f.fail("", err)
	}
}

// populateStatuses watches the accounts collection to track the current
// connection set (self plus followed accounts) and keeps an inner live
// query over statuses newer than the cutoff authored by a connection. The
// inner subscription is cancelled and replaced on every outer event so old
// handles never leak.
func (f *Facade) populateStatuses() {
	cutoff := f.now().UnixMilli() - f.statusTTL.Milliseconds()

	f.subMu.Lock()
	if f.statusOuterSub != nil {
		f.statusOuterSub.Cancel()
	}
	if f.statusInnerSub != nil {
		f.statusInnerSub.Cancel()
		f.statusInnerSub = nil
	}
	f.statusOuterSub = f.store.Subscribe(UsersCollection, store.All, func(docs []store.Document) {
		account := f.UserData.Get()
		if account == nil {
			return
		}
		connections := []any{account.UserID}
		followed := map[string]struct{}{}
		for _, id := range account.Following {
			followed[id] = struct{}{}
		}
		users, err := store.DecodeAll[Account](docs)
		if err != nil {
			f.fail("", err)
			return
		}
		for _, user := range users {
			if _, ok := followed[user.UserID]; ok {
				connections = append(connections, user.UserID)
			}
		}

		inner := f.store.Subscribe(StatusCollection, store.And(
			store.Gt("timestamp", float64(cutoff)),
			store.In("user.userId", connections...),
		), func(docs []store.Document) {
			statuses, err := store.DecodeAll[Status](docs)
			if err != nil {
				f.fail("", err)
				return
			}
			f.Statuses.Set(statuses)
		})

		f.subMu.Lock()
		if f.statusInnerSub != nil {
			f.statusInnerSub.Cancel()
		}
		f.statusInnerSub = inner
		f.subMu.Unlock()
	})
	f.subMu.Unlock()
}
