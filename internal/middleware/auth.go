package middleware

import (
	"net/http"

	"github.com/jason-s-yu/collabnet/internal/auth"
)

// RequireAuth rejects requests without a valid auth_token cookie and stores the
// caller's user id in the request context.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil || cookie.Value == "" {
			unauthorized(w)
			return
		}
		userID, err := auth.AuthenticateJWT(cookie.Value)
		if err != nil {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}`))
}
