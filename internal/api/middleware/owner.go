package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/memorai/internal/api/shared"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/platform/logger"
)

// OwnerIDHeader carries the id of the user the request acts for. It is
// set by the fronting gateway after authentication.
const OwnerIDHeader = "X-Owner-ID"

// RequireOwner rejects requests without an owner id header and stores the
// id in the request context.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := strings.TrimSpace(r.Header.Get(OwnerIDHeader))
		if ownerID == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Owner ID header required")
			return
		}
		if len(ownerID) > domain.MaxOwnerIDLength {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Owner ID is too long")
			return
		}
		if err := domain.ValidateOwnerID(ownerID); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid owner ID")
			return
		}

		ctx := shared.SetOwnerID(r.Context(), ownerID)
		ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(slog.String("owner_id", ownerID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
