package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow/api/middleware"
	"github.com/angelmondragon/orderflow/api/responses"
	"github.com/angelmondragon/orderflow/api/validators"
	internalorders "github.com/angelmondragon/orderflow/internal/orders"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
	"github.com/angelmondragon/orderflow/pkg/logger"
	"github.com/angelmondragon/orderflow/pkg/pagination"
)

type transitionRequest struct {
	Status   string  `json:"status" validate:"required,max=32"`
	DriverID *string `json:"driverId,omitempty" validate:"omitempty,max=128"`
}

type transitionResponse struct {
	Success bool `json:"success"`
	internalorders.TransitionResult
}

// TransitionStatus moves an order along its lifecycle on behalf of the caller.
func TransitionStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}

		result, err := svc.Transition(ctx, internalorders.TransitionInput{
			OrderID:  orderID,
			Status:   req.Status,
			DriverID: req.DriverID,
			Actor:    middleware.IdentityFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, transitionResponse{Success: true, TransitionResult: *result})
	}
}

// Detail returns the full order with its status history to the order's parties.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetOrder(r.Context(), middleware.IdentityFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// VendorList pages through the caller's vendor-scoped order mirror.
func VendorList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return list(svc, logg, "vendorId", func(svc internalorders.Service) listFunc { return svc.ListVendorOrders })
}

// CustomerList pages through the caller's customer-scoped order mirror.
func CustomerList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return list(svc, logg, "customerId", func(svc internalorders.Service) listFunc { return svc.ListCustomerOrders })
}

type listFunc func(ctx context.Context, params internalorders.ListParams) (*internalorders.ListResult, error)

func list(svc internalorders.Service, logg *logger.Logger, partyParam string, pick func(internalorders.Service) listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := r.URL.Query()

		result, err := pick(svc)(r.Context(), internalorders.ListParams{
			Actor:   middleware.IdentityFromContext(r.Context()),
			PartyID: validators.SanitizeString(query.Get(partyParam), 128),
			Status:  validators.SanitizeString(query.Get("status"), 32),
			Params: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(query.Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}
