package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/orderflow/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/orderflow/internal/analytics/writer"
	"github.com/angelmondragon/orderflow/pkg/logger"
	outboxpayloads "github.com/angelmondragon/orderflow/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCreatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCreatedHandler{writer: writer, logg: logg}
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"order_id":   event.OrderID.String(),
		"order_code": event.OrderCode,
	})

	row, err := buildOrderCreatedRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order event row", err)
		return err
	}
	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order event row", err)
		return err
	}
	return nil
}

func buildOrderCreatedRow(envelope types.Envelope, event *outboxpayloads.OrderCreatedEvent) (types.OrderEventRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		return types.OrderEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}

	return types.OrderEventRow{
		EventID:         envelope.EventID,
		EventType:       string(envelope.EventType),
		OccurredAt:      envelope.OccurredAt,
		OrderID:         event.OrderID.String(),
		OrderCode:       stringPtr(event.OrderCode),
		CustomerID:      stringPtr(event.CustomerID),
		VendorID:        stringPtr(event.VendorID),
		ToStatus:        string(event.Status),
		FulfillmentType: stringPtr(string(event.FulfillmentType)),
		Currency:        stringPtr(string(event.Currency)),
		TotalCents:      int64Ptr(event.Total.Shift(2).Round(0).IntPart()),
		ItemCount:       int64Ptr(int64(event.ItemCount)),
		Payload:         payloadJSON,
	}, nil
}

type statusChangedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newStatusChangedHandler(writer Writer, logg *logger.Logger) Handler {
	return &statusChangedHandler{writer: writer, logg: logg}
}

func (h *statusChangedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"order_id":    event.OrderID.String(),
		"from_status": event.FromStatus,
		"to_status":   event.ToStatus,
	})

	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		h.logg.Error(logCtx, "failed to encode order event payload", err)
		return fmt.Errorf("encode payload json: %w", err)
	}

	row := types.OrderEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt,
		OrderID:    event.OrderID.String(),
		OrderCode:  stringPtr(event.OrderCode),
		CustomerID: stringPtr(event.CustomerID),
		VendorID:   stringPtr(event.VendorID),
		FromStatus: stringPtr(string(event.FromStatus)),
		ToStatus:   string(event.ToStatus),
		Payload:    payloadJSON,
	}
	if event.DriverID != nil {
		row.DriverID = stringPtr(*event.DriverID)
	}
	if !event.ChangedAt.IsZero() {
		row.OccurredAt = event.ChangedAt.UTC()
	}

	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order event row", err)
		return err
	}
	return nil
}
