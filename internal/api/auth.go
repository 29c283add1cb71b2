package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/go-social/internal/database"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultJwtExpiration = time.Hour * 24
	tokenCookieKey       = "token"
)

const (
	userIdClaim = "user-id"
	expClaim    = "exp"
)

type contextKey string

const userIdKey contextKey = "user-id"

func WithUserId(ctx context.Context, userId string) context.Context {
	return context.WithValue(ctx, userIdKey, userId)
}

func UserId(ctx context.Context) (string, bool) {
	userId, ok := ctx.Value(userIdKey).(string)

	return userId, ok
}

type SignupRequest struct {
	FirstName       string `json:"firstName" validate:"required,min=2"`
	LastName        string `json:"lastName" validate:"required,min=2"`
	Username        string `json:"username" validate:"required,min=2,max=32"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=25"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=25"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (s *SocialApp) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if errResp := s.decodeRequest(r, &req, func() {
		req.FirstName = strings.TrimSpace(req.FirstName)
		req.LastName = strings.TrimSpace(req.LastName)
		req.Username = strings.ToLower(strings.TrimSpace(req.Username))
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if _, err := s.db.GetUserByUsername(req.Username); err == nil {
		s.writeError(w, NewValidationError("username already in use"))
		return
	} else if errResp := dbError(err, nil); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if _, err := s.db.GetUserByEmail(req.Email); err == nil {
		s.writeError(w, NewValidationError("email already in use"))
		return
	} else if errResp := dbError(err, nil); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	newUser, err := s.db.CreateUser(database.CreateUserParams{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwdHash,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.writeError(w, NewValidationError("username or email already in use"))
			return
		}

		s.writeError(w, NewInternalServerError(err))
		return
	}

	token, err := s.createJwtForSession(newUser.Id, defaultJwtExpiration)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))
	s.writeJson(w, http.StatusCreated, toUser(newUser))
}

func (s *SocialApp) signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if errResp := s.decodeRequest(r, &req, func() {
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	dbUser, err := s.db.GetUserByEmail(req.Email)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	if !verifyPassword(dbUser.PasswordHash, req.Password) {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	token, err := s.createJwtForSession(dbUser.Id, defaultJwtExpiration)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))
	s.writeJson(w, http.StatusOK, toUser(dbUser))
}

func (s *SocialApp) signout(w http.ResponseWriter, _ *http.Request) {
	// overwrite the cookie with an expired one so the browser drops it
	http.SetCookie(w, createJwtCookie("", -time.Hour))
	w.WriteHeader(http.StatusNoContent)
}

func (s *SocialApp) me(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	s.writeJson(w, http.StatusOK, toUser(user))
}

// updatePassword replaces the caller's password and reissues the session
// cookie.
func (s *SocialApp) updatePassword(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req UpdatePasswordRequest
	if errResp := s.decodeRequest(r, &req, nil); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	if !verifyPassword(user.PasswordHash, req.PasswordCurrent) {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	user, err = s.db.UpdatePassword(userId, pwdHash)
	if err != nil {
		s.writeError(w, dbError(err, NewNotFoundError()))
		return
	}

	token, err := s.createJwtForSession(user.Id, defaultJwtExpiration)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))
	s.writeJson(w, http.StatusOK, toUser(user))
}

func createJwtCookie(tokenString string, exp time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     tokenCookieKey,
		Value:    tokenString,
		Path:     "/",
		Expires:  time.Now().Add(exp),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func hashPassword(passwd string) (string, error) {
	passwdHash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	return string(passwdHash), err
}

func verifyPassword(passwdHash, passwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(passwdHash), []byte(passwd))
	return err == nil
}

func (s *SocialApp) createJwtForSession(userId string, exp time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIdClaim: userId,
		expClaim:    time.Now().Add(exp).Unix(),
	})

	return token.SignedString(s.signingKey)
}

func (s *SocialApp) verifyToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return token, nil
}

func (s *SocialApp) extractUserIdFromToken(tokenString string) (string, error) {
	token, err := s.verifyToken(tokenString)
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userId, ok := claims[userIdClaim].(string)
	if !ok || userId == "" {
		return "", fmt.Errorf("invalid user id claim")
	}

	return userId, nil
}
