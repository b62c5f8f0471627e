package middleware

import (
	"net/http"
	"strings"

	"github.com/farmbasket/farmbasket-backend/api/responses"
	pkgerrors "github.com/farmbasket/farmbasket-backend/pkg/errors"
	"github.com/farmbasket/farmbasket-backend/pkg/logger"
)

const cartSessionHeader = "X-Cart-Session"

// maxCartKeyLength bounds the opaque session identifier so it cannot be
// abused as a storage channel.
const maxCartKeyLength = 128

// CartSession requires the opaque cart session header on every cart-scoped
// route and places it in the request context.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(cartSessionHeader))
			if key == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session header required"))
				return
			}
			if len(key) > maxCartKeyLength {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session header too long"))
				return
			}

			ctx := WithCartKey(r.Context(), key)
			if logg != nil {
				ctx = logg.WithCartKey(ctx, key)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
