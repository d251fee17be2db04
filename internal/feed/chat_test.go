package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Parimal-b/InstagramCloneApp/internal/store"
)

func TestAddChatAndResolveSymmetry(t *testing.T) {
	st := store.NewMemory()
	alice, idc := newTestFacade(t, st, Options{})
	signUp(t, alice, "alice", "alice@example.com")
	bob := New(idc, st, testBlob(), Options{})
	if err := bob.SignUp(context.Background(), "bob", "bob@example.com", "secret"); err != nil {
		t.Fatalf("sign up bob: %v", err)
	}

	var chatID string
	if err := alice.AddChat(context.Background(), "bob", func(id string) { chatID = id }); err != nil {
		t.Fatalf("add chat: %v", err)
	}
	if chatID == "" {
		t.Fatalf("success callback not invoked")
	}

	// Lookup must find the conversation regardless of who asks.
	fromAlice, err := alice.ResolveChatID(context.Background(), alice.CurrentUserID(), bob.CurrentUserID())
	if err != nil {
		t.Fatalf("resolve from alice: %v", err)
	}
	fromBob, err := bob.ResolveChatID(context.Background(), bob.CurrentUserID(), alice.CurrentUserID())
	if err != nil {
		t.Fatalf("resolve from bob: %v", err)
	}
	if fromAlice != chatID || fromBob != chatID {
		t.Fatalf("asymmetric lookup: %q vs %q (want %q)", fromAlice, fromBob, chatID)
	}
}

func TestAddChatDuplicateEitherOrdering(t *testing.T) {
	st := store.NewMemory()
	alice, idc := newTestFacade(t, st, Options{})
	signUp(t, alice, "alice", "alice@example.com")
	bob := New(idc, st, testBlob(), Options{})
	if err := bob.SignUp(context.Background(), "bob", "bob@example.com", "secret"); err != nil {
		t.Fatalf("sign up bob: %v", err)
	}

	if err := alice.AddChat(context.Background(), "bob", nil); err != nil {
		t.Fatalf("add chat: %v", err)
	}
	err := bob.AddChat(context.Background(), "alice", nil)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("reverse-ordering duplicate not rejected: %v", err)
	}
}

func TestAddChatUnknownUser(t *testing.T) {
	fac, _ := newTestFacade(t, store.NewMemory(), Options{})
	signUp(t, fac, "alice", "alice@example.com")

	err := fac.AddChat(context.Background(), "nobody", nil)
	if err == nil || !strings.Contains(err.Error(), "Cannot retrieve the user") {
		t.Fatalf("expected unknown-user error, got %v", err)
	}

	err = fac.AddChat(context.Background(), "", nil)
	if err == nil || !strings.Contains(err.Error(), "should not be empty") {
		t.Fatalf("expected empty-field error, got %v", err)
	}
}

func TestChatsLiveProjection(t *testing.T) {
	st := store.NewMemory()
	alice, idc := newTestFacade(t, st, Options{})
	signUp(t, alice, "alice", "alice@example.com")
	bob := New(idc, st, testBlob(), Options{})
	if err := bob.SignUp(context.Background(), "bob", "bob@example.com", "secret"); err != nil {
		t.Fatalf("sign up bob: %v", err)
	}

	if err := alice.AddChat(context.Background(), "bob", nil); err != nil {
		t.Fatalf("add chat: %v", err)
	}

	// Both participants see the conversation without any explicit refresh.
	for _, fac := range []*Facade{alice, bob} {
		chats := await(t, &fac.Chats, func(chats []Conversation) bool { return len(chats) == 1 })
		if chats[0].User1.UserName != "alice" || chats[0].User2.UserName != "bob" {
			t.Fatalf("unexpected participants: %+v", chats[0])
		}
	}
}

func TestSendAndReceiveMessagesSorted(t *testing.T) {
	st := store.NewMemory()
	alice, idc := newTestFacade(t, st, Options{})
	signUp(t, alice, "alice", "alice@example.com")
	bob := New(idc, st, testBlob(), Options{})
	if err := bob.SignUp(context.Background(), "bob", "bob@example.com", "secret"); err != nil {
		t.Fatalf("sign up bob: %v", err)
	}

	var chatID string
	if err := alice.AddChat(context.Background(), "bob", func(id string) { chatID = id }); err != nil {
		t.Fatalf("add chat: %v", err)
	}

	base := time.UnixMilli(1_700_000_000_000)
	step := 0
	clock := func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	alice.now = clock
	bob.now = clock

	alice.OpenChat(chatID)
	bob.OpenChat(chatID)

	if err := alice.SendMessage(context.Background(), chatID, "hi bob"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := bob.SendMessage(context.Background(), chatID, "hi alice"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := alice.SendMessage(context.Background(), chatID, "how are you"); err != nil {
		t.Fatalf("send: %v", err)
	}

	messages := await(t, &bob.ChatMessages, func(msgs []Message) bool { return len(msgs) == 3 })
	if messages[0].Text != "hi bob" || messages[1].Text != "hi alice" || messages[2].Text != "how are you" {
		t.Fatalf("messages not sorted by timestamp: %+v", messages)
	}
	if messages[1].SentBy != bob.CurrentUserID() {
		t.Fatalf("sender not recorded: %+v", messages[1])
	}

	await(t, &alice.ChatMessages, func(msgs []Message) bool { return len(msgs) == 3 })
}

func TestCloseChatCancelsSubscription(t *testing.T) {
	st := store.NewMemory()
	alice, idc := newTestFacade(t, st, Options{})
	signUp(t, alice, "alice", "alice@example.com")
	bob := New(idc, st, testBlob(), Options{})
	if err := bob.SignUp(context.Background(), "bob", "bob@example.com", "secret"); err != nil {
		t.Fatalf("sign up bob: %v", err)
	}

	var chatID string
	if err := alice.AddChat(context.Background(), "bob", func(id string) { chatID = id }); err != nil {
		t.Fatalf("add chat: %v", err)
	}

	alice.OpenChat(chatID)
	if err := bob.SendMessage(context.Background(), chatID, "first"); err != nil {
		t.Fatalf("send: %v", err)
	}
	await(t, &alice.ChatMessages, func(msgs []Message) bool { return len(msgs) == 1 })

	alice.CloseChat()
	if len(alice.ChatMessages.Get()) != 0 {
		t.Fatalf("projection not cleared on close")
	}

	if err := bob.SendMessage(context.Background(), chatID, "second"); err != nil {
		t.Fatalf("send: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if len(alice.ChatMessages.Get()) != 0 {
		t.Fatalf("cancelled subscription still delivering")
	}
}
