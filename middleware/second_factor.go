package middleware

import (
	"errors"
	"net/http"

	"github.com/hardenlabs/authguard"
)

// CodeHeader is the request header carrying the two-factor code for routes
// wrapped in [RequireSecondFactor].
const CodeHeader = "X-2FA-Code"

// RequireSecondFactor layers a two-factor challenge on top of [Guard] for
// sensitive routes. It must wrap a handler already behind Guard: the user ID
// comes from the request context. Users without an enabled credential pass
// through unchallenged.
//
// Failure mapping: bad or missing code 401, rate-limited 429, banned
// address 403.
func RequireSecondFactor(engine *authguard.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			err := engine.RequireSecondFactor(r.Context(), userID, clientIP(r), r.Header.Get(CodeHeader))
			if err != nil {
				switch {
				case errors.Is(err, authguard.ErrIPBanned):
					http.Error(w, "forbidden", http.StatusForbidden)
				case errors.Is(err, authguard.ErrTwoFactorRateLimited):
					http.Error(w, "too many attempts", http.StatusTooManyRequests)
				default:
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
