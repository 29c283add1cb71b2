package database

import "database/sql"

// ErrNotFound is returned when a row does not exist or is not visible to
// the requesting user.
var ErrNotFound = sql.ErrNoRows

type SocialRepository interface {
	Ping() error
	CreateUser(params CreateUserParams) (User, error)
	GetUserById(id string) (User, error)
	GetUserByEmail(email string) (User, error)
	GetUserByUsername(username string) (User, error)
	UpdatePassword(userId, passwordHash string) (User, error)
	ListFollowing(userId string) ([]string, error)
	ToggleFollow(userId, targetId string) (bool, error)
	CreateChat(params CreateChatParams) (*Chat, error)
	GetOrCreateDirectChat(id, userId, otherUserId string) (*Chat, error)
	GetChatForMember(chatId, userId string) (*Chat, error)
	ListChatsForMember(userId string) ([]Chat, error)
	UpdateChatName(chatId, userId, chatName string) (*Chat, error)
	CreateMessage(params CreateMessageParams) (*Message, error)
	ListMessages(chatId string) ([]Message, error)
	CreatePost(params CreatePostParams) (*Post, error)
	GetPost(id string) (*Post, error)
	ListPosts(filter PostFilter) ([]Post, error)
	DeletePost(id, userId string) error
	TogglePostLike(postId, userId string) (bool, error)
	ToggleRetweet(postId, userId string) (*Post, bool, error)
	CreateNotification(params CreateNotificationParams) error
	ListNotifications(userId string, unreadOnly bool) ([]Notification, error)
	MarkNotificationOpened(id, userId string) (*Notification, error)
	MarkAllNotificationsOpened(userId string) error
	CountUnreadNotifications(userId string) (NotificationCounts, error)
}
