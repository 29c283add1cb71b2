package types

import (
	"time"
)

type User struct {
	Id        string    `json:"_id"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type Chat struct {
	Id            string    `json:"_id"`
	ChatName      string    `json:"chatName"`
	IsGroupChat   bool      `json:"isGroupChat"`
	Users         []User    `json:"users"`
	LatestMessage *Message  `json:"latestMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

type Message struct {
	Id        string    `json:"_id"`
	Sender    User      `json:"sender"`
	Content   string    `json:"content"`
	Chat      *Chat     `json:"chat,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type Notification struct {
	Id               string    `json:"_id"`
	UserTo           User      `json:"userTo"`
	UserFrom         User      `json:"userFrom"`
	NotificationType string    `json:"notificationType"`
	EntityId         string    `json:"entityId,omitempty"`
	Opened           bool      `json:"opened"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
}

type NotificationCounts struct {
	NewMessageNotificationsCount int `json:"newMessageNotificationsCount"`
	OtherNotificationsCount      int `json:"otherNotificationsCount"`
}

type Post struct {
	Id          string    `json:"_id"`
	Content     string    `json:"content"`
	PostedBy    User      `json:"postedBy"`
	ReplyTo     *Post     `json:"replyTo,omitempty"`
	RetweetData *Post     `json:"retweetData,omitempty"`
	Pinned      bool      `json:"pinned"`
	Likes       []string  `json:"likes"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

type PostThread struct {
	PostData Post   `json:"postData"`
	Replies  []Post `json:"replies"`
}

type UserPosts struct {
	User  User   `json:"user"`
	Posts []Post `json:"posts"`
}

type UserReplyPosts struct {
	User       User   `json:"user"`
	ReplyPosts []Post `json:"replyPosts"`
}

type FollowState struct {
	Following bool `json:"following"`
}
