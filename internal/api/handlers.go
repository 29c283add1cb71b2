package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/samber/lo"
)

type CreateChatRequest struct {
	Users []string `json:"users" validate:"required,min=1,dive,required"`
}

type RenameChatRequest struct {
	ChatName string `json:"chatName" validate:"required,min=2,max=100"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
	ChatId  string `json:"chatId" validate:"required"`
}

func (s *SocialApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *SocialApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func toUser(u database.User) types.User {
	return types.User{
		Id:        u.Id,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toMessage(m database.Message) types.Message {
	return types.Message{
		Id:        m.Id,
		Sender:    toUser(m.Sender),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toChat(c database.Chat) types.Chat {
	chat := types.Chat{
		Id:          c.Id,
		ChatName:    c.ChatName,
		IsGroupChat: c.IsGroupChat,
		Users:       lo.Map(c.Users, func(u database.User, _ int) types.User { return toUser(u) }),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}

	if c.LatestMessage != nil {
		msg := toMessage(*c.LatestMessage)
		chat.LatestMessage = &msg
	}

	return chat
}

// getUser returns a profile with the user's top-level posts, or their
// replies when replyToMode=true.
func (s *SocialApp) getUser(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(r.PathValue("username"))

	user, err := s.db.GetUserByUsername(username)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	replyToMode := r.URL.Query().Get("replyToMode") == "true"
	posts, err := s.db.ListPosts(database.PostFilter{
		PostedBy: []string{user.Id},
		IsReply:  &replyToMode,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	u := toUser(user)
	u.Email = ""

	if replyToMode {
		s.writeJson(w, http.StatusOK, types.UserReplyPosts{User: u, ReplyPosts: toPosts(posts)})
		return
	}

	s.writeJson(w, http.StatusOK, types.UserPosts{User: u, Posts: toPosts(posts)})
}

func (s *SocialApp) followUser(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	targetId := r.PathValue("id")
	if targetId == userId {
		s.writeError(w, NewValidationError("cannot follow yourself"))
		return
	}

	if _, err := s.db.GetUserById(targetId); err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	following, err := s.db.ToggleFollow(userId, targetId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	if following {
		s.notify(database.CreateNotificationParams{
			UserToId:         targetId,
			UserFromId:       userId,
			NotificationType: database.NotificationFollow,
			EntityId:         userId,
		})
	}

	s.writeJson(w, http.StatusOK, types.FollowState{Following: following})
}

func (s *SocialApp) createChat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req CreateChatRequest
	if errResp := s.decodeRequest(r, &req, nil); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	members := lo.Uniq(append([]string{userId}, req.Users...))
	if len(members) < 2 {
		s.writeError(w, NewValidationError("a chat needs at least one other user"))
		return
	}

	for _, memberId := range members[1:] {
		if _, err := s.db.GetUserById(memberId); err != nil {
			s.writeError(w, dbError(err, NewValidationError("user not found: "+memberId)))
			return
		}
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		s.writeError(w, NewInternalServerError(err))
		return
	}

	chat, err := s.db.CreateChat(database.CreateChatParams{
		Id:          sid,
		IsGroupChat: true,
		UserIds:     members,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toChat(*chat))
}

func (s *SocialApp) listChats(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	chats, err := s.db.ListChatsForMember(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, lo.Map(chats, func(c database.Chat, _ int) types.Chat { return toChat(c) }))
}

func (s *SocialApp) getChat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	chat, err := s.db.GetChatForMember(r.PathValue("id"), userId)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	s.writeJson(w, http.StatusOK, toChat(*chat))
}

// getDirectChat returns the one-to-one chat between the caller and another
// user, creating it on first use.
func (s *SocialApp) getDirectChat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	otherId := r.PathValue("id")
	if otherId == userId {
		s.writeError(w, NewValidationError("cannot chat with yourself"))
		return
	}

	if _, err := s.db.GetUserById(otherId); err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		s.writeError(w, NewInternalServerError(err))
		return
	}

	chat, err := s.db.GetOrCreateDirectChat(sid, userId, otherId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toChat(*chat))
}

func (s *SocialApp) renameChat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req RenameChatRequest
	if errResp := s.decodeRequest(r, &req, func() {
		req.ChatName = strings.TrimSpace(req.ChatName)
	}); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	chat, err := s.db.UpdateChatName(r.PathValue("id"), userId, req.ChatName)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	s.writeJson(w, http.StatusOK, toChat(*chat))
}

// sendMessage stores a message and leaves an unread notification for every
// other member of the chat. Real-time delivery is done by the sending client
// over the socket.
func (s *SocialApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req SendMessageRequest
	if errResp := s.decodeRequest(r, &req, func() {
		req.Content = strings.TrimSpace(req.Content)
	}); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	chat, err := s.db.GetChatForMember(req.ChatId, userId)
	if err != nil {
		s.writeError(w, dbError(err, NewValidationError("chat not found")))
		return
	}

	dbMsg, err := s.db.CreateMessage(database.CreateMessageParams{
		ChatId:   chat.Id,
		SenderId: userId,
		Content:  req.Content,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	for _, member := range chat.Users {
		if member.Id == userId {
			continue
		}

		err := s.db.CreateNotification(database.CreateNotificationParams{
			UserToId:         member.Id,
			UserFromId:       userId,
			NotificationType: database.NotificationNewMessage,
			EntityId:         chat.Id,
		})
		if err != nil {
			s.log.Printf("create notification for %s: %v", member.Id, err)
		}
	}

	chat.LatestMessage = dbMsg
	msgChat := toChat(*chat)
	msg := toMessage(*dbMsg)
	msg.Chat = &msgChat

	s.writeJson(w, http.StatusCreated, msg)
}

func (s *SocialApp) getMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	chatId := r.PathValue("id")
	if _, err := s.db.GetChatForMember(chatId, userId); err != nil {
		s.writeError(w, dbError(err, NewForbiddenError()))
		return
	}

	messages, err := s.db.ListMessages(chatId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, lo.Map(messages, func(m database.Message, _ int) types.Message { return toMessage(m) }))
}
