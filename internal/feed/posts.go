package feed

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Parimal-b/InstagramCloneApp/internal/store"
	"github.com/google/uuid"
)

// NewPost uploads the image, then writes the post document and refreshes
// the own-posts projection. taggedUsers contributes extra search tokens.
func (f *Facade) NewPost(localRef, description, taggedUsers string, onSuccess func()) {
	f.UploadImage(localRef, func(url string) {
		f.createPost(context.Background(), url, description, taggedUsers, onSuccess)
	})
}

func (f *Facade) createPost(ctx context.Context, imageURL, description, taggedUsers string, onSuccess func()) {
	f.InProgress.Set(true)
	defer f.InProgress.Set(false)

	uid := f.CurrentUserID()
	account := f.UserData.Get()
	if uid == "" || account == nil {
		// Posting without a resolved author is an unrecoverable
		// inconsistency; reset to anonymous.
		f.fail("Error: Username unavailable. Unable to create the post", nil)
		f.SignOut(ctx)
		return
	}

	post := Post{
		PostID:      uuid.NewString(),
		UserID:      uid,
		UserName:    account.UserName,
		UserImage:   account.ImageURL,
		PostImage:   imageURL,
		Description: description,
		Time:        f.now().UnixMilli(),
		Likes:       []string{},
		SearchTerms: SearchTokens(description, taggedUsers),
	}

	doc, err := store.Encode(post)
	if err != nil {
		f.fail("Unable to create a post", err)
		return
	}
	if err := f.store.Set(ctx, PostsCollection, post.PostID, doc); err != nil {
		f.fail("Unable to create a post", err)
		return
	}
	f.Notice.Set(&Notice{Message: "Post Successfully created"})
	f.RefreshPosts(ctx)
	if onSuccess != nil {
		onSuccess()
	}
}

// RefreshPosts reloads the signed-in account's own posts.
func (f *Facade) RefreshPosts(ctx context.Context) {
	uid := f.CurrentUserID()
	if uid == "" {
		f.fail("Error: User unavailable. Unable to refresh Posts", nil)
		f.SignOut(ctx)
		return
	}
	f.fetchPostsInto(ctx, store.Eq("userId", uid), &f.Posts, "Cannot fetch the posts")
}

// FetchUserPosts loads another account's posts into the profile projection.
func (f *Facade) FetchUserPosts(ctx context.Context, uid string) {
	f.fetchPostsInto(ctx, store.Eq("userId", uid), &f.UserPosts, "Cannot fetch the posts")
}

// FetchUserProfile loads another account plus its posts and follower count.
func (f *Facade) FetchUserProfile(ctx context.Context, uid string) error {
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
	f.UserProfile.Set(&account)
	f.FetchUserPosts(ctx, uid)
	f.fetchUserFollowers(ctx, uid)
	return nil
}

func (f *Facade) fetchPostsInto(ctx context.Context, filter store.Filter, cell *Cell[[]Post], errContext string) {
	docs, err := f.store.Query(ctx, PostsCollection, filter)
	if err != nil {
		f.fail(errContext, err)
		return
	}
	posts, err := store.DecodeAll[Post](docs)
	if err != nil {
		f.fail(errContext, err)
		return
	}
	cell.Set(sortPostsDesc(posts))
}

// sortPostsDesc orders newest-first. The store does not guarantee ordering
// on these query shapes, so the client-side sort is mandatory; equal
// timestamps tie-break by post id for determinism.
func sortPostsDesc(posts []Post) []Post {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Time != posts[j].Time {
			return posts[i].Time > posts[j].Time
		}
		return posts[i].PostID < posts[j].PostID
	})
	return posts
}

// PersonalizedFeed queries posts authored by followed accounts, falling
// back to the general feed when the account follows nobody or the followed
// set has produced nothing.
func (f *Facade) PersonalizedFeed(ctx context.Context) {
	account := f.UserData.Get()
	var following []string
	if account != nil {
		following = account.Following
	}
	if len(following) == 0 {
		f.GeneralFeed(ctx)
		return
	}

	ids := make([]any, len(following))
	for i, id := range following {
		ids[i] = id
	}
	docs, err := f.store.Query(ctx, PostsCollection, store.In("userId", ids...))
	if err != nil {
		f.fail("Cannot get personalized feed", err)
		return
	}
	posts, err := store.DecodeAll[Post](docs)
	if err != nil {
		f.fail("Cannot get personalized feed", err)
		return
	}
	if len(posts) == 0 {
		f.GeneralFeed(ctx)
		return
	}
	f.PostsFeed.Set(sortPostsDesc(posts))
}

// GeneralFeed loads every post newer than the recency window.
func (f *Facade) GeneralFeed(ctx context.Context) {
	cutoff := f.now().UnixMilli() - f.feedWindow.Milliseconds()
	f.fetchPostsInto(ctx, store.Gt("time", float64(cutoff)), &f.PostsFeed, "Cannot get Feed")
}

// SearchPosts runs the token-membership and author-handle post queries in
// parallel, then merges the result sets: the posts view dedupes by caption
// text (distinct posts with identical captions intentionally collapse), the
// people-via-posts view dedupes by author id. A separate account-handle
// query feeds the people projection.
func (f *Facade) SearchPosts(ctx context.Context, term string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}

	var wg sync.WaitGroup
	var byToken, byAuthor []Post
	wg.Add(2)
	go func() {
		defer wg.Done()
		docs, err := f.store.Query(ctx, PostsCollection, store.ArrayContains("searchTerms", term))
		if err != nil {
			f.fail("Cannot search posts", err)
			return
		}
		byToken, _ = store.DecodeAll[Post](docs)
	}()
	go func() {
		defer wg.Done()
		docs, err := f.store.Query(ctx, PostsCollection, store.Eq("userName", term))
		if err != nil {
			f.fail("Cannot search posts", err)
			return
		}
		byAuthor, _ = store.DecodeAll[Post](docs)
	}()
	wg.Wait()

	merged := append(append([]Post{}, byToken...), byAuthor...)
	merged = sortPostsDesc(merged)

	f.SearchedPosts.Set(dedupePosts(merged, func(p Post) string { return p.Description }))
	f.SearchedPeopleByPost.Set(dedupePosts(merged, func(p Post) string { return p.UserID }))
}

// SearchPeople matches accounts by exact handle.
func (f *Facade) SearchPeople(ctx context.Context, term string) {
	if term == "" {
		return
	}
	docs, err := f.store.Query(ctx, UsersCollection, store.Eq("userName", term))
	if err != nil {
		f.fail("Cannot search people", err)
		return
	}
	people, err := store.DecodeAll[Account](docs)
	if err != nil {
		f.fail("Cannot search people", err)
		return
	}
	f.SearchOnlyPeople.Set(sortAccountsByHandleDesc(people))
}

func dedupePosts(posts []Post, key func(Post) string) []Post {
	seen := map[string]struct{}{}
	var out []Post
	for _, post := range posts {
		k := key(post)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, post)
	}
	return out
}

// ToggleLike adds or removes the signed-in account from the post's liker
// set and writes the whole replacement set back (last writer wins). On
// success local projections are patched in place, no re-fetch.
func (f *Facade) ToggleLike(ctx context.Context, post Post) error {
	uid := f.CurrentUserID()
	if uid == "" {
		return errors.New("no active session")
	}

	newLikes := make([]string, 0, len(post.Likes)+1)
	liked := false
	for _, id := range post.Likes {
		if id == uid {
			liked = true
			continue
		}
		newLikes = append(newLikes, id)
	}
	if !liked {
		newLikes = append(newLikes, uid)
	}

	err := f.store.Update(ctx, PostsCollection, post.PostID, store.Document{"likes": newLikes})
	if err != nil {
		f.fail("Unable to like the post", err)
		return err
	}
	f.patchLikes(post.PostID, newLikes)
	return nil
}

// LikePost resolves the post by id and toggles the caller's like.
func (f *Facade) LikePost(ctx context.Context, postID string) error {
	doc, err := f.store.Get(ctx, PostsCollection, postID)
	if err != nil || doc == nil {
		f.fail("Unable to like the post", err)
		if err == nil {
			err = errors.New("post not found")
		}
		return err
	}
	var post Post
	if err := store.Decode(doc, &post); err != nil {
		return err
	}
	return f.ToggleLike(ctx, post)
}

// patchLikes publishes a copied slice: snapshots already handed out by Get
// may be read concurrently and must never be written through.
func (f *Facade) patchLikes(postID string, likes []string) {
	for _, cell := range []*Cell[[]Post]{&f.Posts, &f.UserPosts, &f.PostsFeed, &f.SearchedPosts} {
		posts := cell.Get()
		patched := false
		out := make([]Post, len(posts))
		copy(out, posts)
		for i := range out {
			if out[i].PostID == postID {
				out[i].Likes = append([]string(nil), likes...)
				patched = true
			}
		}
		if patched {
			cell.Set(out)
		}
	}
}

// CreateComment writes a comment keyed by its own id, denormalizing the
// commenter's current handle, then re-fetches the post's comments.
func (f *Facade) CreateComment(ctx context.Context, postID, text string) error {
	account := f.UserData.Get()
	if account == nil {
		return errors.New("no active session")
	}
	comment := Comment{
		CommentID: uuid.NewString(),
		PostID:    postID,
		UserName:  account.UserName,
		Text:      text,
		Timestamp: f.now().UnixMilli(),
	}
	doc, err := store.Encode(comment)
	if err != nil {
		return err
	}
	if err := f.store.Set(ctx, CommentsCollection, comment.CommentID, doc); err != nil {
		f.fail("Cannot create comment", err)
		return err
	}
	f.FetchComments(ctx, postID)
	return nil
}

func (f *Facade) FetchComments(ctx context.Context, postID string) {
	docs, err := f.store.Query(ctx, CommentsCollection, store.Eq("postId", postID))
	if err != nil {
		f.fail("Cannot retrieve comments", err)
		return
	}
	comments, err := store.DecodeAll[Comment](docs)
	if err != nil {
		f.fail("Cannot retrieve comments", err)
		return
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].Timestamp != comments[j].Timestamp {
			return comments[i].Timestamp > comments[j].Timestamp
		}
		return comments[i].CommentID < comments[j].CommentID
	})
	f.Comments.Set(comments)
}
