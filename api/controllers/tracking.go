package controllers

import (
	"net/http"

	"github.com/angelmondragon/orderflow/api/responses"
	"github.com/angelmondragon/orderflow/api/validators"
	"github.com/angelmondragon/orderflow/internal/orders"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
	"github.com/angelmondragon/orderflow/pkg/logger"
)

// Track serves the unauthenticated order tracking view.
func Track(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		query := r.URL.Query()
		view, err := svc.Track(r.Context(), orders.TrackInput{
			OrderRef: validators.SanitizeString(query.Get("orderId"), 64),
			Pin:      query.Get("pin"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, view)
	}
}
