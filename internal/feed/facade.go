package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Parimal-b/InstagramCloneApp/internal/blob"
	"github.com/Parimal-b/InstagramCloneApp/internal/identity"
	"github.com/Parimal-b/InstagramCloneApp/internal/store"
	"github.com/google/uuid"
)

// Facade orchestrates the identity, document-store, and blob clients and
// republishes results into observable cells. It is the sole writer of its
// projections; the HTTP/stream layer is a read-only consumer.
type Facade struct {
	identity identity.Client
	store    store.Client
	blob     blob.Client

	feedWindow time.Duration
	statusTTL  time.Duration
	now        func() time.Time

	mu      sync.Mutex
	session *identity.Session

	subMu          sync.Mutex
	chatsSub       *store.Subscription
	chatSub        *store.Subscription
	recSub         *store.Subscription
	statusOuterSub *store.Subscription
	statusInnerSub *store.Subscription

	SignedIn   Cell[bool]
	InProgress Cell[bool]

	UserData    Cell[*Account]
	UserProfile Cell[*Account]

	Posts     Cell[[]Post] // own posts
	UserPosts Cell[[]Post] // another profile's posts
	PostsFeed Cell[[]Post]

	SearchedPosts        Cell[[]Post]
	SearchedPeopleByPost Cell[[]Post]
	SearchOnlyPeople     Cell[[]Account]

	Comments Cell[[]Comment]

	Followers     Cell[int]
	UserFollowers Cell[int]
	// SortedUsers is a single shared slot written by both the own-followers
	// and profile-followers queries; only the most recent query's result is
	// visible. Kept as-is for behavior parity.
	SortedUsers     Cell[[]Account]
	Following       Cell[[]Account]
	Recommendations Cell[[]Account]

	Chats        Cell[[]Conversation]
	ChatMessages Cell[[]Message]
	ChatID       Cell[string]

	Statuses Cell[[]Status]

	Notice Cell[*Notice]
}

type Options struct {
	FeedWindow time.Duration
	StatusTTL  time.Duration
	Now        func() time.Time
}

func New(idc identity.Client, st store.Client, bc blob.Client, opts Options) *Facade {
	if opts.FeedWindow == 0 {
		opts.FeedWindow = 500 * time.Hour
	}
	if opts.StatusTTL == 0 {
		opts.StatusTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Facade{
		identity:   idc,
		store:      st,
		blob:       bc,
		feedWindow: opts.FeedWindow,
		statusTTL:  opts.StatusTTL,
		now:        opts.Now,
	}
}

// fail routes a backend failure into the shared notification cell,
// formatted as "context: message".
func (f *Facade) fail(contextMsg string, err error) {
	msg := contextMsg
	if err != nil {
		if msg == "" {
			msg = err.Error()
		} else {
			msg = msg + ": " + err.Error()
		}
	}
	f.Notice.Set(&Notice{Message: msg})
}

func (f *Facade) currentSession() *identity.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *Facade) setSession(s *identity.Session) {
	f.mu.Lock()
	f.session = s
	f.mu.Unlock()
}

// Session returns the active identity session, or nil when anonymous.
func (f *Facade) Session() *identity.Session {
	return f.currentSession()
}

// CurrentUserID returns the signed-in account id, or "" when anonymous.
func (f *Facade) CurrentUserID() string {
	if s := f.currentSession(); s != nil {
		return s.AccountID
	}
	return ""
}

// Bootstrap inspects an existing session token and, when live, loads the
// account and starts the dependent-data cascade.
func (f *Facade) Bootstrap(ctx context.Context, token string) error {
	if token == "" {
		f.SignedIn.Set(false)
		return nil
	}
	session, err := f.identity.CurrentSession(ctx, token)
	if err != nil {
		return err
	}
	f.setSession(session)
	f.SignedIn.Set(session != nil)
	if session == nil {
		return nil
	}
	return f.loadAccount(ctx, session.AccountID)
}

var errValidation = errors.New("please enter all the fields")

// SignUp pre-checks handle uniqueness, creates the identity account, then
// the profile document. The check-then-create is not atomic: two concurrent
// sign-ups racing for one handle can both pass the check.
func (f *Facade) SignUp(ctx context.Context, userName, email, password string) error {
	if userName == "" || email == "" || password == "" {
		f.fail("Please Enter all the fields", nil)
		return errValidation
	}
	f.InProgress.Set(true)
	defer f.InProgress.Set(false)

	existing, err := f.store.Query(ctx, UsersCollection, store.Eq("userName", userName))
	if err != nil {
		f.fail("", err)
		return err
	}
	if len(existing) > 0 {
		err := errors.New("UserName already exists")
		f.fail(err.Error(), nil)
		return err
	}

	if _, err := f.identity.CreateAccount(ctx, email, password); err != nil {
		f.fail("Signup Failed", err)
		return err
	}
	session, err := f.identity.SignIn(ctx, email, password)
	if err != nil {
		f.fail("Signup Failed", err)
		return err
	}
	f.setSession(&session)
	f.SignedIn.Set(true)
	return f.createOrUpdateProfile(ctx, ProfilePatch{UserName: userName})
}

// SignIn validates credentials and on success runs the same fetch cascade
// as Bootstrap. Failures surface as a generic login error.
func (f *Facade) SignIn(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		f.fail("Please enter all the details", nil)
		return errValidation
	}
	session, err := f.identity.SignIn(ctx, email, password)
	if err != nil {
		f.fail("Login Failed", err)
		return err
	}
	f.setSession(&session)
	f.SignedIn.Set(true)
	return f.loadAccount(ctx, session.AccountID)
}

// SignOut clears the session and every projection, and cancels live
// subscriptions so no callbacks leak past the session.
func (f *Facade) SignOut(ctx context.Context) {
	if s := f.currentSession(); s != nil {
		if err := f.identity.SignOut(ctx, s.Token); err != nil {
			f.fail("", err)
		}
	}
	f.setSession(nil)
	f.cancelSubscriptions()

	f.SignedIn.Set(false)
	f.UserData.Set(nil)
	f.UserProfile.Set(nil)
	f.Posts.Set(nil)
	f.UserPosts.Set(nil)
	f.PostsFeed.Set(nil)
	f.SearchedPosts.Set(nil)
	f.SearchedPeopleByPost.Set(nil)
	f.SearchOnlyPeople.Set(nil)
	f.Comments.Set(nil)
	f.Chats.Set(nil)
	f.ChatMessages.Set(nil)
	f.Statuses.Set(nil)
	f.Following.Set(nil)
	f.Recommendations.Set(nil)
	f.Notice.Set(&Notice{Message: "Logged Out"})
}

func (f *Facade) cancelSubscriptions() {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	for _, sub := range []**store.Subscription{
		&f.chatsSub, &f.chatSub, &f.recSub, &f.statusOuterSub, &f.statusInnerSub,
	} {
		if *sub != nil {
			(*sub).Cancel()
			*sub = nil
		}
	}
}

// loadAccount fetches the account document and fans out the independent
// dependent-data loads. Each load reports its own failure through the
// notice cell without blocking the others.
func (f *Facade) loadAccount(ctx context.Context, uid string) error {
	f.InProgress.Set(true)
	defer f.InProgress.Set(false)

	doc, err := f.store.Get(ctx, UsersCollection, uid)
	if err != nil || doc == nil {
		f.fail("Cannot Retrieve UserData", err)
		if err == nil {
			err = errors.New("account not found")
		}
		return err
	}
	var account Account
	if err := store.Decode(doc, &account); err != nil {
		f.fail("Cannot Retrieve UserData", err)
		return err
	}
	f.UserData.Set(&account)

	var wg sync.WaitGroup
	for _, task := range []func(){
		func() { f.RefreshPosts(ctx) },
		func() { f.PersonalizedFeed(ctx) },
		func() { f.fetchFollowers(ctx, account.UserID) },
		func() { f.populateChats() },
		func() { f.startRecommendations() },
		func() { f.populateStatuses() },
	} {
		wg.Add(1)
		task := task
		go func() {
			defer wg.Done()
			task()
		}()
	}
	wg.Wait()
	return nil
}

// ProfilePatch carries optional profile fields; empty strings leave the
// currently-held value in place.
type ProfilePatch struct {
	Name     string
	UserName string
	Bio      string
	ImageURL string
}

func (f *Facade) UpdateProfile(ctx context.Context, name, userName, bio string) error {
	return f.createOrUpdateProfile(ctx, ProfilePatch{Name: name, UserName: userName, Bio: bio})
}

func (f *Facade) createOrUpdateProfile(ctx context.Context, patch ProfilePatch) error {
	uid := f.CurrentUserID()
	if uid == "" {
		return errors.New("no active session")
	}

	current := f.UserData.Get()
	merged := Account{UserID: uid}
	if current != nil {
		merged = *current
		merged.UserID = uid
	}
	if patch.Name != "" {
		merged.Name = patch.Name
	}
	if patch.UserName != "" {
		merged.UserName = patch.UserName
	}
	if patch.Bio != "" {
		merged.Bio = patch.Bio
	}
	if patch.ImageURL != "" {
		merged.ImageURL = patch.ImageURL
	}

	f.InProgress.Set(true)
	defer f.InProgress.Set(false)

	doc, err := f.store.Get(ctx, UsersCollection, uid)
	if err != nil {
		f.fail("Cannot create a user", err)
		return err
	}
	body, err := store.Encode(merged)
	if err != nil {
		return err
	}
	if doc != nil {
		if err := f.store.Update(ctx, UsersCollection, uid, body); err != nil {
			f.fail("Cannot update user", err)
			return err
		}
		f.UserData.Set(&merged)
		return nil
	}
	if err := f.store.Set(ctx, UsersCollection, uid, body); err != nil {
		f.fail("Cannot create a user", err)
		return err
	}
	return f.loadAccount(ctx, uid)
}

// UploadImage uploads to a uniquely-named blob path and hands the durable
// URL to the continuation. Profile avatars, new posts, and statuses all
// build on this one primitive.
func (f *Facade) UploadImage(localRef string, onSuccess func(url string)) {
	go func() {
		url, err := f.blob.Upload(context.Background(), localRef, "images/"+uuid.NewString())
		if err != nil {
			f.fail("", err)
			return
		}
		onSuccess(url)
	}()
}

// UploadProfileImage stores a new avatar, applies it to the profile, and
// patches the denormalized avatar on all of the account's posts.
func (f *Facade) UploadProfileImage(localRef string) {
	f.UploadImage(localRef, func(url string) {
		ctx := context.Background()
		if err := f.createOrUpdateProfile(ctx, ProfilePatch{ImageURL: url}); err != nil {
			return
		}
		f.updatePostUserImageData(ctx, url)
	})
}

func (f *Facade) updatePostUserImageData(ctx context.Context, imageURL string) {
	uid := f.CurrentUserID()
	docs, err := f.store.Query(ctx, PostsCollection, store.Eq("userId", uid))
	if err != nil {
		f.fail("", err)
		return
	}
	posts, err := store.DecodeAll[Post](docs)
	if err != nil {
		f.fail("", err)
		return
	}

	writes := make([]store.Write, 0, len(posts))
	for _, post := range posts {
		if post.PostID == "" {
			continue
		}
		writes = append(writes, store.Write{
			Collection: PostsCollection,
			ID:         post.PostID,
			Patch:      store.Document{"userImage": imageURL},
		})
	}
	if len(writes) == 0 {
		return
	}
	if err := f.store.BatchUpdate(ctx, writes); err != nil {
		f.fail("", err)
		return
	}
	f.RefreshPosts(ctx)
}
