package api

import (
	"fmt"
	"net/http"
)

const noStore = "no-store, no-cache, must-revalidate, private"

func recoveredError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}

	return fmt.Errorf("%v", v)
}

// errorHandler turns a panic in any handler into a 500 and closes the
// connection.
func (s *SocialApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}

			err := recoveredError(v)
			s.log.Printf("panic serving %s %s for %s: %v", r.Method, r.URL.Path, r.RemoteAddr, err)

			errResp := NewInternalServerError(err)
			w.Header().Set("Connection", "close")
			s.writeJson(w, errResp.StatusCode, errResp)
		}()

		next.ServeHTTP(w, r)
	})
}

// authMiddleware resolves the session cookie to a user id and stores it on
// the request context. Authenticated responses are marked uncacheable.
func (s *SocialApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenCookie, err := r.Cookie(tokenCookieKey)
		if err != nil || tokenCookie.Value == "" {
			s.writeError(w, NewUnauthorizedError())
			return
		}

		userId, err := s.extractUserIdFromToken(tokenCookie.Value)
		if err != nil {
			s.log.Printf("rejecting session for %s %s: %v", r.Method, r.URL.Path, err)
			s.writeError(w, NewUnauthorizedError())
			return
		}

		w.Header().Set("Cache-Control", noStore)
		next(w, r.WithContext(WithUserId(r.Context(), userId)))
	}
}
