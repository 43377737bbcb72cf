package middleware

import (
	"net/http"

	"lesson-pix/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const ConfirmKeyHeader = "X-Confirm-Key"

// ConfirmKey guards manual payment confirmation. The caller must present a
// key matching keyHash (bcrypt). An empty keyHash rejects every request.
func ConfirmKey(keyHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				logger.Warn("Payment confirmation attempted with no confirm key configured",
					zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Payment confirmation is disabled")
				return
			}

			key := r.Header.Get(ConfirmKeyHeader)
			if key == "" {
				utils.ResponseUnauthorized(w, "Missing confirmation key")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				logger.Warn("Invalid confirmation key",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr))
				utils.ResponseForbidden(w, "Invalid confirmation key")
				return
			}

			ctx := utils.SetConfirmActor(r.Context(), "operator@"+r.RemoteAddr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
