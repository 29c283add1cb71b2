package api

import (
	"net/http"

	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/samber/lo"
)

func toNotification(n database.Notification) types.Notification {
	return types.Notification{
		Id:               n.Id,
		UserTo:           toUser(n.UserTo),
		UserFrom:         toUser(n.UserFrom),
		NotificationType: n.NotificationType,
		EntityId:         n.EntityId,
		Opened:           n.Opened,
		CreatedAt:        n.CreatedAt,
	}
}

func (s *SocialApp) listNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"
	notifications, err := s.db.ListNotifications(userId, unreadOnly)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, lo.Map(notifications, func(n database.Notification, _ int) types.Notification {
		return toNotification(n)
	}))
}

func (s *SocialApp) markNotificationOpened(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	n, err := s.db.MarkNotificationOpened(r.PathValue("id"), userId)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	s.writeJson(w, http.StatusOK, toNotification(*n))
}

func (s *SocialApp) markAllNotificationsOpened(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	if err := s.db.MarkAllNotificationsOpened(userId); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *SocialApp) countNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	counts, err := s.db.CountUnreadNotifications(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, types.NotificationCounts{
		NewMessageNotificationsCount: counts.NewMessage,
		OtherNotificationsCount:      counts.Other,
	})
}
