package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPostId = "6f1c2a7e-3a55-4c61-9a3b-1c2d3e4f5a6b"

func testPost(id, authorId string) *database.Post {
	now := time.Now().UTC()
	return &database.Post{
		Id:        id,
		Content:   "hello",
		PostedBy:  database.User{Id: authorId, Username: authorId},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreatePost(t *testing.T) {
	t.Run("top-level post", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("CreatePost", database.CreatePostParams{Content: "hello", PostedById: "u1"}).
			Return(testPost("p1", "u1"), nil).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPost, "/api/posts", map[string]string{"content": "  hello  "}, "u1")

		assert.Equal(t, http.StatusCreated, rr.Code)
		post := decodeBody[types.Post](t, rr)
		assert.Equal(t, "p1", post.Id)
		assert.Equal(t, "u1", post.PostedBy.Id)
		assert.NotNil(t, post.Likes, "expected likes to encode as an empty list")
	})

	t.Run("reply", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetPost", testPostId).Return(testPost(testPostId, "u2"), nil).Once()
		reply := testPost("p2", "u1")
		reply.ReplyTo = testPost(testPostId, "u2")
		db.On("CreatePost", database.CreatePostParams{Content: "hi", PostedById: "u1", ReplyToId: testPostId}).
			Return(reply, nil).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPost, "/api/posts", map[string]string{"content": "hi", "replyTo": testPostId}, "u1")

		assert.Equal(t, http.StatusCreated, rr.Code)
		post := decodeBody[types.Post](t, rr)
		require.NotNil(t, post.ReplyTo)
		assert.Equal(t, testPostId, post.ReplyTo.Id)
	})

	t.Run("reply to a missing post", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetPost", testPostId).Return(nil, database.ErrNotFound).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPost, "/api/posts", map[string]string{"content": "hi", "replyTo": testPostId}, "u1")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		db.AssertNotCalled(t, "CreatePost", mock.Anything)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			body any
		}{
			{"blank content", map[string]string{"content": "   "}},
			{"malformed replyTo", map[string]string{"content": "hi", "replyTo": "not-a-uuid"}},
			{"not json", "{"},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				db := &database.MockSocialRepository{}
				rr := serve(t, newTestApp(t, db), http.MethodPost, "/api/posts", tc.body, "u1")
				assert.Equal(t, http.StatusBadRequest, rr.Code)
				db.AssertNotCalled(t, "CreatePost", mock.Anything)
			})
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rr := serve(t, newTestApp(t, &database.MockSocialRepository{}), http.MethodPost, "/api/posts", map[string]string{"content": "hi"}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestListPosts(t *testing.T) {
	newer := testPost("p2", "u2")
	older := testPost("p1", "u1")

	tests := []struct {
		name   string
		query  string
		filter database.PostFilter
		setup  func(db *database.MockSocialRepository)
	}{
		{
			name:   "no filters",
			query:  "",
			filter: database.PostFilter{},
		},
		{
			name:   "replies only with search",
			query:  "?isReply=true&search=%20Hello%20",
			filter: database.PostFilter{IsReply: lo.ToPtr(true), Search: "Hello"},
		},
		{
			name:   "top-level only",
			query:  "?isReply=false",
			filter: database.PostFilter{IsReply: lo.ToPtr(false)},
		},
		{
			name:   "following only includes the caller",
			query:  "?followingOnly=true",
			filter: database.PostFilter{PostedBy: []string{"u2", "u3", "u1"}},
			setup: func(db *database.MockSocialRepository) {
				db.On("ListFollowing", "u1").Return([]string{"u2", "u3"}, nil).Once()
			},
		},
		{
			name:   "followingOnly=false is ignored",
			query:  "?followingOnly=false",
			filter: database.PostFilter{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockSocialRepository{}
			defer db.AssertExpectations(t)
			if tc.setup != nil {
				tc.setup(db)
			}
			db.On("ListPosts", tc.filter).Return([]database.Post{*newer, *older}, nil).Once()

			rr := serve(t, newTestApp(t, db), http.MethodGet, "/api/posts"+tc.query, nil, "u1")

			assert.Equal(t, http.StatusOK, rr.Code)
			posts := decodeBody[[]types.Post](t, rr)
			assert.Equal(t, []string{"p2", "p1"}, lo.Map(posts, func(p types.Post, _ int) string { return p.Id }))
		})
	}
}

func TestGetPost(t *testing.T) {
	db := &database.MockSocialRepository{}
	defer db.AssertExpectations(t)
	db.On("GetPost", "p1").Return(testPost("p1", "u2"), nil).Once()
	db.On("ListPosts", database.PostFilter{ReplyToId: "p1"}).Return([]database.Post{*testPost("p3", "u1")}, nil).Once()
	db.On("GetPost", "missing").Return(nil, database.ErrNotFound).Once()

	app := newTestApp(t, db)

	rr := serve(t, app, http.MethodGet, "/api/posts/p1", nil, "u1")
	assert.Equal(t, http.StatusOK, rr.Code)
	thread := decodeBody[types.PostThread](t, rr)
	assert.Equal(t, "p1", thread.PostData.Id)
	require.Len(t, thread.Replies, 1)
	assert.Equal(t, "p3", thread.Replies[0].Id)

	rr = serve(t, app, http.MethodGet, "/api/posts/missing", nil, "u1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeletePost(t *testing.T) {
	db := &database.MockSocialRepository{}
	defer db.AssertExpectations(t)
	db.On("DeletePost", "p1", "u1").Return(nil).Once()
	db.On("DeletePost", "p2", "u1").Return(database.ErrNotFound).Once()

	app := newTestApp(t, db)

	rr := serve(t, app, http.MethodDelete, "/api/posts/p1", nil, "u1")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(t, app, http.MethodDelete, "/api/posts/p2", nil, "u1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLikePost(t *testing.T) {
	t.Run("like notifies the author", func(t *testing.T) {
		liked := testPost("p1", "u2")
		liked.Likes = []string{"u1"}

		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetPost", "p1").Return(testPost("p1", "u2"), nil).Once()
		db.On("TogglePostLike", "p1", "u1").Return(true, nil).Once()
		db.On("CreateNotification", database.CreateNotificationParams{
			UserToId:         "u2",
			UserFromId:       "u1",
			NotificationType: database.NotificationPostLike,
			EntityId:         "p1",
		}).Return(nil).Once()
		db.On("GetPost", "p1").Return(liked, nil).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPut, "/api/posts/p1/like", nil, "u1")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"u1"}, decodeBody[types.Post](t, rr).Likes)
	})

	t.Run("liking your own post does not notify", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetPost", "p1").Return(testPost("p1", "u1"), nil).Twice()
		db.On("TogglePostLike", "p1", "u1").Return(true, nil).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPut, "/api/posts/p1/like", nil, "u1")

		assert.Equal(t, http.StatusOK, rr.Code)
		db.AssertNotCalled(t, "CreateNotification", mock.Anything)
	})

	t.Run("notification failure does not fail the like", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetPost", "p1").Return(testPost("p1", "u2"), nil).Twice()
		db.On("TogglePostLike", "p1", "u1").Return(true, nil).Once()
		db.On("CreateNotification", mock.Anything).Return(assert.AnError).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPut, "/api/posts/p1/like", nil, "u1")
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing post", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetPost", "p9").Return(nil, database.ErrNotFound).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPut, "/api/posts/p9/like", nil, "u1")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRetweetPost(t *testing.T) {
	t.Run("retweet notifies the author", func(t *testing.T) {
		retweet := testPost("r1", "u1")
		retweet.RetweetData = testPost("p1", "u2")

		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetPost", "p1").Return(testPost("p1", "u2"), nil).Once()
		db.On("ToggleRetweet", "p1", "u1").Return(retweet, true, nil).Once()
		db.On("CreateNotification", database.CreateNotificationParams{
			UserToId:         "u2",
			UserFromId:       "u1",
			NotificationType: database.NotificationRetweet,
			EntityId:         "p1",
		}).Return(nil).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPut, "/api/posts/p1/retweet", nil, "u1")

		assert.Equal(t, http.StatusCreated, rr.Code)
		post := decodeBody[types.Post](t, rr)
		require.NotNil(t, post.RetweetData)
		assert.Equal(t, "p1", post.RetweetData.Id)
	})

	t.Run("second retweet removes it", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetPost", "p1").Return(testPost("p1", "u2"), nil).Once()
		db.On("ToggleRetweet", "p1", "u1").Return(nil, false, nil).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPut, "/api/posts/p1/retweet", nil, "u1")

		assert.Equal(t, http.StatusNoContent, rr.Code)
		db.AssertNotCalled(t, "CreateNotification", mock.Anything)
	})

	t.Run("missing post", func(t *testing.T) {
		db := &database.MockSocialRepository{}
		defer db.AssertExpectations(t)
		db.On("GetPost", "p9").Return(nil, database.ErrNotFound).Once()

		rr := serve(t, newTestApp(t, db), http.MethodPut, "/api/posts/p9/retweet", nil, "u1")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
