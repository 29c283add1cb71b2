package database

import (
	"github.com/stretchr/testify/mock"
)

type MockSocialRepository struct {
	mock.Mock
}

func (m *MockSocialRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockSocialRepository) CreateUser(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSocialRepository) GetUserById(id string) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSocialRepository) GetUserByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSocialRepository) GetUserByUsername(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSocialRepository) CreateChat(params CreateChatParams) (*Chat, error) {
	args := m.Called(params)
	if chat, ok := args.Get(0).(*Chat); ok {
		return chat, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) GetOrCreateDirectChat(id, userId, otherUserId string) (*Chat, error) {
	args := m.Called(id, userId, otherUserId)
	if chat, ok := args.Get(0).(*Chat); ok {
		return chat, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) GetChatForMember(chatId, userId string) (*Chat, error) {
	args := m.Called(chatId, userId)
	if chat, ok := args.Get(0).(*Chat); ok {
		return chat, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) ListChatsForMember(userId string) ([]Chat, error) {
	args := m.Called(userId)
	return args.Get(0).([]Chat), args.Error(1)
}
func (m *MockSocialRepository) UpdateChatName(chatId, userId, chatName string) (*Chat, error) {
	args := m.Called(chatId, userId, chatName)
	if chat, ok := args.Get(0).(*Chat); ok {
		return chat, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) CreateMessage(params CreateMessageParams) (*Message, error) {
	args := m.Called(params)
	if msg, ok := args.Get(0).(*Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) ListMessages(chatId string) ([]Message, error) {
	args := m.Called(chatId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockSocialRepository) CreateNotification(params CreateNotificationParams) error {
	args := m.Called(params)
	return args.Error(0)
}
func (m *MockSocialRepository) ListNotifications(userId string, unreadOnly bool) ([]Notification, error) {
	args := m.Called(userId, unreadOnly)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockSocialRepository) MarkNotificationOpened(id, userId string) (*Notification, error) {
	args := m.Called(id, userId)
	if n, ok := args.Get(0).(*Notification); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) MarkAllNotificationsOpened(userId string) error {
	args := m.Called(userId)
	return args.Error(0)
}
func (m *MockSocialRepository) CountUnreadNotifications(userId string) (NotificationCounts, error) {
	args := m.Called(userId)
	return args.Get(0).(NotificationCounts), args.Error(1)
}
func (m *MockSocialRepository) UpdatePassword(userId, passwordHash string) (User, error) {
	args := m.Called(userId, passwordHash)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSocialRepository) ListFollowing(userId string) ([]string, error) {
	args := m.Called(userId)
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockSocialRepository) ToggleFollow(userId, targetId string) (bool, error) {
	args := m.Called(userId, targetId)
	return args.Bool(0), args.Error(1)
}
func (m *MockSocialRepository) CreatePost(params CreatePostParams) (*Post, error) {
	args := m.Called(params)
	if post, ok := args.Get(0).(*Post); ok {
		return post, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) GetPost(id string) (*Post, error) {
	args := m.Called(id)
	if post, ok := args.Get(0).(*Post); ok {
		return post, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) ListPosts(filter PostFilter) ([]Post, error) {
	args := m.Called(filter)
	return args.Get(0).([]Post), args.Error(1)
}
func (m *MockSocialRepository) DeletePost(id, userId string) error {
	args := m.Called(id, userId)
	return args.Error(0)
}
func (m *MockSocialRepository) TogglePostLike(postId, userId string) (bool, error) {
	args := m.Called(postId, userId)
	return args.Bool(0), args.Error(1)
}
func (m *MockSocialRepository) ToggleRetweet(postId, userId string) (*Post, bool, error) {
	args := m.Called(postId, userId)
	if post, ok := args.Get(0).(*Post); ok {
		return post, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}
