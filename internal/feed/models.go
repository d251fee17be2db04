package feed

// Collection names in the document store.
const (
	UsersCollection    = "users"
	PostsCollection    = "posts"
	CommentsCollection = "comments"
	ChatsCollection    = "chat"
	MessagesCollection = "messages"
	StatusCollection   = "status"
)

type Account struct {
	UserID    string   `json:"userId"`
	Name      string   `json:"name"`
	UserName  string   `json:"userName"`
	ImageURL  string   `json:"imageUrl"`
	Bio       string   `json:"bio"`
	Following []string `json:"following"`
	ChatID    string   `json:"chatId,omitempty"`
}

// Post carries denormalized author handle and avatar, snapshotted at
// creation and patched in bulk when the author's avatar changes.
type Post struct {
	PostID      string   `json:"postId"`
	UserID      string   `json:"userId"`
	UserName    string   `json:"userName"`
	UserImage   string   `json:"userImage"`
	PostImage   string   `json:"postImage"`
	Description string   `json:"postDescription"`
	Time        int64    `json:"time"` // epoch milliseconds
	Likes       []string `json:"likes"`
	SearchTerms []string `json:"searchTerms"`
}

type Comment struct {
	CommentID string `json:"commentId"`
	PostID    string `json:"postId"`
	UserName  string `json:"userName"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timeStamp"`
}

type ParticipantSummary struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	ImageURL string `json:"imageUrl"`
}

type Conversation struct {
	ChatID string             `json:"chatId"`
	User1  ParticipantSummary `json:"user1"`
	User2  ParticipantSummary `json:"user2"`
}

type Message struct {
	SentBy    string `json:"sentBy"`
	Text      string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type Status struct {
	User      ParticipantSummary `json:"user"`
	ImageURL  string             `json:"imageUrl"`
	Timestamp int64              `json:"timestamp"`
}

// Notice is a one-shot user-facing notification.
type Notice struct {
	Message string `json:"message"`
}
