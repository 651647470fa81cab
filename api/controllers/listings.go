package controllers

import (
	"net/http"

	"github.com/oluwatobiadeoye/kolamart-backend/api/responses"
	listingsvc "github.com/oluwatobiadeoye/kolamart-backend/internal/listings"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
)

// MarketplaceFeed returns the aggregated cross-vendor feed with tier
// visibility applied.
func MarketplaceFeed(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed, err := svc.Feed(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, feed)
	}
}
