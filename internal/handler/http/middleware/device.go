package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/shiftsense/attendance-backend-go/internal/handler/http/response"
)

// DeviceKey authenticates biometric devices against the shared ingestion key.
// Only the bcrypt hash of the key is kept in configuration.
func DeviceKey(apiKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Api-Key")
			if key == "" {
				response.Unauthorized(w, "Missing API key")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(apiKeyHash), []byte(key)); err != nil {
				response.Unauthorized(w, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
