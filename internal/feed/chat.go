package feed

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Parimal-b/InstagramCloneApp/internal/store"
	"github.com/google/uuid"
)

func messagesCollection(chatID string) string {
	return ChatsCollection + "/" + chatID + "/" + MessagesCollection
}

// AddChat creates a conversation with the named account unless one already
// exists in either participant ordering.
func (f *Facade) AddChat(ctx context.Context, userName string, onSuccess func(chatID string)) error {
	if userName == "" {
		err := errors.New("Field should not be empty")
		f.fail(err.Error(), nil)
		return err
	}
	account := f.UserData.Get()
	if account == nil {
		return errors.New("no active session")
	}

	existing, err := f.store.Query(ctx, ChatsCollection, store.Or(
		store.And(
			store.Eq("user1.userName", userName),
			store.Eq("user2.userName", account.UserName),
		),
		store.And(
			store.Eq("user1.userName", account.UserName),
			store.Eq("user2.userName", userName),
		),
	))
	if err != nil {
		f.fail("", err)
		return err
	}
	if len(existing) > 0 {
		err := errors.New("Chat already exists")
		f.fail(err.Error(), nil)
		return err
	}

	partners, err := f.store.Query(ctx, UsersCollection, store.Eq("userName", userName))
	if err != nil {
		f.fail("", err)
		return err
	}
	if len(partners) == 0 {
		err := errors.New("Cannot retrieve the user " + userName)
		f.fail(err.Error(), nil)
		return err
	}
	var partner Account
	if err := store.Decode(partners[0], &partner); err != nil {
		f.fail("", err)
		return err
	}

	chat := Conversation{
		ChatID: uuid.NewString(),
		User1: ParticipantSummary{
			UserID:   account.UserID,
			UserName: account.UserName,
			ImageURL: account.ImageURL,
		},
		User2: ParticipantSummary{
			UserID:   partner.UserID,
			UserName: partner.UserName,
			ImageURL: partner.ImageURL,
		},
	}
	doc, err := store.Encode(chat)
	if err != nil {
		return err
	}
	if err := f.store.Set(ctx, ChatsCollection, chat.ChatID, doc); err != nil {
		f.fail("", err)
		return err
	}
	f.ChatID.Set(chat.ChatID)
	if onSuccess != nil {
		onSuccess(chat.ChatID)
	}
	return nil
}

// populateChats keeps a live view of every conversation the signed-in
// account participates in, in either slot.
func (f *Facade) populateChats() {
	account := f.UserData.Get()
	if account == nil {
		return
	}
	f.subMu.Lock()
	if f.chatsSub != nil {
		f.chatsSub.Cancel()
	}
	f.chatsSub = f.store.Subscribe(ChatsCollection, store.Or(
		store.Eq("user1.userId", account.UserID),
		store.Eq("user2.userId", account.UserID),
	), func(docs []store.Document) {
		chats, err := store.DecodeAll[Conversation](docs)
		if err != nil {
			f.fail("", err)
			return
		}
		sort.SliceStable(chats, func(i, j int) bool { return chats[i].ChatID < chats[j].ChatID })
		f.Chats.Set(chats)
	})
	f.subMu.Unlock()
}

// ResolveChatID finds the conversation between two accounts, checking both
// participant orderings, and publishes the id (or "" when none exists).
func (f *Facade) ResolveChatID(ctx context.Context, currentUserID, userID string) (string, error) {
	f.ChatID.Set("")
	docs, err := f.store.Query(ctx, ChatsCollection, store.And(
		store.Eq("user1.userId", currentUserID),
		store.Eq("user2.userId", userID),
	))
	if err != nil {
		f.fail("", err)
		return "", err
	}
	if len(docs) == 0 {
		docs, err = f.store.Query(ctx, ChatsCollection, store.And(
			store.Eq("user1.userId", userID),
			store.Eq("user2.userId", currentUserID),
		))
		if err != nil {
			f.fail("", err)
			return "", err
		}
	}
	if len(docs) == 0 {
		return "", nil
	}
	var chat Conversation
	if err := store.Decode(docs[0], &chat); err != nil {
		return "", err
	}
	f.ChatID.Set(chat.ChatID)
	return chat.ChatID, nil
}

// SendMessage appends a message document under the conversation, timestamp
// taken at send time.
func (f *Facade) SendMessage(ctx context.Context, chatID, text string) error {
	uid := f.CurrentUserID()
	if uid == "" {
		return errors.New("no active session")
	}
	msg := Message{
		SentBy:    uid,
		Text:      text,
		Timestamp: f.now().Format(time.RFC3339Nano),
	}
	doc, err := store.Encode(msg)
	if err != nil {
		return err
	}
	return f.store.Set(ctx, messagesCollection(chatID), uuid.NewString(), doc)
}

// OpenChat subscribes to the conversation's messages, projecting a
// timestamp-sorted list on every change. Call CloseChat when leaving the
// screen; the subscription does not clean itself up.
func (f *Facade) OpenChat(chatID string) {
	f.subMu.Lock()
	if f.chatSub != nil {
		f.chatSub.Cancel()
	}
	f.chatSub = f.store.Subscribe(messagesCollection(chatID), store.All, func(docs []store.Document) {
		messages, err := store.DecodeAll[Message](docs)
		if err != nil {
			f.fail("", err)
			return
		}
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[i].Timestamp < messages[j].Timestamp
		})
		f.ChatMessages.Set(messages)
	})
	f.subMu.Unlock()
}

// CloseChat cancels the live message subscription and clears the projection.
func (f *Facade) CloseChat() {
	f.subMu.Lock()
	if f.chatSub != nil {
		f.chatSub.Cancel()
		f.chatSub = nil
	}
	f.subMu.Unlock()
	f.ChatMessages.Set(nil)
}
