package api

import (
	"net/http"
	"strings"

	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/samber/lo"
)

type CreatePostRequest struct {
	Content string `json:"content" validate:"required"`
	ReplyTo string `json:"replyTo" validate:"omitempty,uuid"`
}

func toPost(p database.Post) types.Post {
	post := types.Post{
		Id:        p.Id,
		Content:   p.Content,
		PostedBy:  toUser(p.PostedBy),
		Pinned:    p.Pinned,
		Likes:     p.Likes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if post.Likes == nil {
		post.Likes = make([]string, 0)
	}

	if p.ReplyTo != nil {
		replyTo := toPost(*p.ReplyTo)
		post.ReplyTo = &replyTo
	}
	if p.RetweetData != nil {
		retweet := toPost(*p.RetweetData)
		post.RetweetData = &retweet
	}

	return post
}

func toPosts(posts []database.Post) []types.Post {
	return lo.Map(posts, func(p database.Post, _ int) types.Post { return toPost(p) })
}

// notify records a notification for another user. Failures are logged and
// never fail the request that caused them.
func (s *SocialApp) notify(params database.CreateNotificationParams) {
	if params.UserToId == params.UserFromId {
		return
	}

	if err := s.db.CreateNotification(params); err != nil {
		s.log.Printf("create %s notification for %s: %v", params.NotificationType, params.UserToId, err)
	}
}

// boolQuery returns nil when the parameter is absent.
func boolQuery(r *http.Request, name string) *bool {
	if !r.URL.Query().Has(name) {
		return nil
	}

	v := r.URL.Query().Get(name) == "true"
	return &v
}

func (s *SocialApp) createPost(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req CreatePostRequest
	if errResp := s.decodeRequest(r, &req, func() {
		req.Content = strings.TrimSpace(req.Content)
		req.ReplyTo = strings.TrimSpace(req.ReplyTo)
	}); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if req.ReplyTo != "" {
		if _, err := s.db.GetPost(req.ReplyTo); err != nil {
			s.writeError(w, dbError(err, NewNotFoundError()))
			return
		}
	}

	post, err := s.db.CreatePost(database.CreatePostParams{
		Content:    req.Content,
		PostedById: userId,
		ReplyToId:  req.ReplyTo,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toPost(*post))
}

// listPosts returns posts newest first. isReply, search and followingOnly
// narrow the result; followingOnly includes the caller's own posts.
func (s *SocialApp) listPosts(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	filter := database.PostFilter{
		IsReply: boolQuery(r, "isReply"),
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
	}

	if followingOnly := boolQuery(r, "followingOnly"); followingOnly != nil && *followingOnly {
		following, err := s.db.ListFollowing(userId)
		if err != nil {
			s.writeError(w, NewInternalServerError(err))
			return
		}
		filter.PostedBy = append(following, userId)
	}

	posts, err := s.db.ListPosts(filter)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toPosts(posts))
}

func (s *SocialApp) getPost(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserId(r.Context()); !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	postId := r.PathValue("id")
	post, err := s.db.GetPost(postId)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	replies, err := s.db.ListPosts(database.PostFilter{ReplyToId: post.Id})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, types.PostThread{
		PostData: toPost(*post),
		Replies:  toPosts(replies),
	})
}

func (s *SocialApp) deletePost(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	if err := s.db.DeletePost(r.PathValue("id"), userId); err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *SocialApp) likePost(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	postId := r.PathValue("id")
	post, err := s.db.GetPost(postId)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	liked, err := s.db.TogglePostLike(post.Id, userId)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	if liked {
		s.notify(database.CreateNotificationParams{
			UserToId:         post.PostedBy.Id,
			UserFromId:       userId,
			NotificationType: database.NotificationPostLike,
			EntityId:         post.Id,
		})
	}

	post, err = s.db.GetPost(post.Id)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	s.writeJson(w, http.StatusOK, toPost(*post))
}

// retweetPost creates the caller's retweet of a post, or removes it when it
// already exists.
func (s *SocialApp) retweetPost(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	post, err := s.db.GetPost(r.PathValue("id"))
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	retweet, created, err := s.db.ToggleRetweet(post.Id, userId)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	if !created {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.notify(database.CreateNotificationParams{
		UserToId:         post.PostedBy.Id,
		UserFromId:       userId,
		NotificationType: database.NotificationRetweet,
		EntityId:         post.Id,
	})

	s.writeJson(w, http.StatusCreated, toPost(*retweet))
}
