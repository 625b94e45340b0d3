package middleware

import (
	"net/http"

	"mistakebook/internal/ctxkeys"
	"mistakebook/internal/service"
)

// AuthMiddleware resolves the JWT session cookie and puts the user on the
// request context. Requests without a valid session continue anonymously;
// RequireAuth decides whether that matters. A nil authService (local-only
// deployment without a cloud backend) passes everything through.
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authService == nil {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(authService.CookieName())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authService.VerifyJWT(cookie.Value)
			if err != nil {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			user, err := authService.UserByID(userID)
			if err != nil {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Never expose the hash downstream.
			user.PasswordHash = ""

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession gates data routes when cloud mode is mandatory: with cloud
// mode active and no signed-in user, the client gets the login requirement
// instead of any data view. In local mode the gate is open.
func RequireSession(cloudActive func() bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if cloudActive() && ctxkeys.User(r.Context()) == nil {
				http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
}
