package routes

import (
	"context"
	"net/http"

	"github.com/nhatem/pollumap/internal/session"
	"github.com/nhatem/pollumap/internal/utils"
)

const SessionCookieName = "pollumap_session"

type routesCtxKey int

const sessionTokenKey = routesCtxKey(1)

// SessionCtx makes sure every request carries a capability token: an existing
// cookie is reused, otherwise a fresh token is minted and set. The token is
// an opaque capability, not an authentication credential.
func (routes *Routes) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
			token = cookie.Value
		} else {
			token = utils.GenToken(session.TokenLen)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
			})
		}
		ctx := context.WithValue(r.Context(), sessionTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetSessionToken(r *http.Request) string {
	token, _ := r.Context().Value(sessionTokenKey).(string)
	return token
}
