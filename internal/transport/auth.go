package transport

import (
	"crypto/subtle"
	"errors"
	"net/http"
)

// ErrUnauthorized indicates a missing or wrong webhook secret.
var ErrUnauthorized = errors.New("unauthorized")

// SecretHeader carries the shared secret configured in the Notion automation.
const SecretHeader = "secret"

// SecretMiddleware rejects requests whose secret header does not match. An
// empty configured secret rejects every request.
func SecretMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validSecret(secret, r.Header.Get(SecretHeader)) {
				LoggerFrom(r.Context()).Warn("rejected request with invalid secret", "path", r.URL.Path)
				writeError(w, "", ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validSecret(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
