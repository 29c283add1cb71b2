package database

import "time"

const (
	NotificationNewMessage = "newMessage"
	NotificationPostLike   = "postLike"
	NotificationFollow     = "follow"
	NotificationRetweet    = "retweet"
)

type User struct {
	Id           string
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Chat struct {
	Id            string
	ChatName      string
	IsGroupChat   bool
	Users         []User
	LatestMessage *Message
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Message struct {
	Id        string
	ChatId    string
	SenderId  string
	Sender    User
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Post struct {
	Id          string
	Content     string
	PostedBy    User
	ReplyTo     *Post
	RetweetData *Post
	Pinned      bool
	Likes       []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Notification struct {
	Id               string
	UserTo           User
	UserFrom         User
	NotificationType string
	EntityId         string
	Opened           bool
	CreatedAt        time.Time
}

type NotificationCounts struct {
	NewMessage int
	Other      int
}

type CreateUserParams struct {
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
}

type CreateChatParams struct {
	Id          string
	ChatName    string
	IsGroupChat bool
	UserIds     []string
}

type CreateMessageParams struct {
	ChatId   string
	SenderId string
	Content  string
}

type CreateNotificationParams struct {
	UserToId         string
	UserFromId       string
	NotificationType string
	EntityId         string
}

type CreatePostParams struct {
	Content    string
	PostedById string
	ReplyToId  string
}

// PostFilter narrows ListPosts. Zero values do not filter.
type PostFilter struct {
	IsReply   *bool
	Search    string
	PostedBy  []string
	ReplyToId string
}
