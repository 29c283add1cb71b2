package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-social/internal/config"
	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/server"
	"github.com/teris-io/shortid"
)

type SocialApp struct {
	log             *log.Logger
	db              database.SocialRepository
	mux             *http.Server
	cs              *server.ChatServer
	validate        *validator.Validate
	signingKey      []byte
	allowedOrigins  []string
	generateShortId func() (string, error)
}

// NewSocialApp registers the REST and WebSocket routes on mux and wraps it
// with CORS, access logging and panic recovery.
func NewSocialApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.SocialRepository, cfg *config.Config) *SocialApp {
	s := &SocialApp{
		log:             logger,
		db:              db,
		cs:              cs,
		validate:        newValidator(),
		signingKey:      cfg.SigningKey,
		allowedOrigins:  cfg.AllowedOrigins,
		generateShortId: shortid.Generate,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/signup", s.signup)
	mux.HandleFunc("POST /api/auth/signin", s.signin)
	mux.HandleFunc("GET /api/auth/signout", s.authMiddleware(s.signout))
	mux.HandleFunc("GET /api/auth/me", s.authMiddleware(s.me))
	mux.HandleFunc("PATCH /api/auth/update-my-password", s.authMiddleware(s.updatePassword))
	mux.HandleFunc("GET /api/users/{username}", s.authMiddleware(s.getUser))
	mux.HandleFunc("PUT /api/users/{id}/follow", s.authMiddleware(s.followUser))
	mux.HandleFunc("POST /api/posts", s.authMiddleware(s.createPost))
	mux.HandleFunc("GET /api/posts", s.authMiddleware(s.listPosts))
	mux.HandleFunc("GET /api/posts/{id}", s.authMiddleware(s.getPost))
	mux.HandleFunc("DELETE /api/posts/{id}", s.authMiddleware(s.deletePost))
	mux.HandleFunc("PUT /api/posts/{id}/like", s.authMiddleware(s.likePost))
	mux.HandleFunc("PUT /api/posts/{id}/retweet", s.authMiddleware(s.retweetPost))
	mux.HandleFunc("POST /api/chats", s.authMiddleware(s.createChat))
	mux.HandleFunc("GET /api/chats", s.authMiddleware(s.listChats))
	mux.HandleFunc("GET /api/chats/{id}", s.authMiddleware(s.getChat))
	mux.HandleFunc("PUT /api/chats/{id}", s.authMiddleware(s.renameChat))
	mux.HandleFunc("GET /api/chats/users/{id}", s.authMiddleware(s.getDirectChat))
	mux.HandleFunc("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.HandleFunc("GET /api/messages/{id}", s.authMiddleware(s.getMessages))
	mux.HandleFunc("GET /api/notifications", s.authMiddleware(s.listNotifications))
	mux.HandleFunc("GET /api/notifications/count", s.authMiddleware(s.countNotifications))
	mux.HandleFunc("PUT /api/notifications/opened-all", s.authMiddleware(s.markAllNotificationsOpened))
	mux.HandleFunc("PUT /api/notifications/{id}", s.authMiddleware(s.markNotificationOpened))
	mux.HandleFunc("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = handlers.CombinedLoggingHandler(logger.Writer(), h)
	h = s.errorHandler(h)

	s.mux = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *SocialApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *SocialApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
