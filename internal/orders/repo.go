package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order with its items, both mirrors and the first history
// row. Callers must run it inside a transaction.
func (r *repository) Create(ctx context.Context, order *models.Order, event *models.OrderStatusEvent) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(order).Error; err != nil {
		return err
	}

	summary := models.NewMirrorSummary(*order)
	vendorMirror := models.VendorOrderMirror{
		VendorID:      order.VendorID,
		CustomerName:  order.Customer.Name,
		MirrorSummary: summary,
	}
	if err := db.Create(&vendorMirror).Error; err != nil {
		return fmt.Errorf("create vendor mirror: %w", err)
	}
	customerMirror := models.CustomerOrderMirror{
		CustomerID:    order.CustomerID,
		VendorName:    order.VendorName,
		MirrorSummary: summary,
	}
	if err := db.Create(&customerMirror).Error; err != nil {
		return fmt.Errorf("create customer mirror: %w", err)
	}

	if event != nil {
		if err := db.Create(event).Error; err != nil {
			return fmt.Errorf("create status event: %w", err)
		}
	}
	return nil
}

// ApplyStatus moves the canonical order from update.From to update.To and
// copies the same status, stamp and driver onto both mirrors. Stamps keep the
// first value ever written. Callers must run it inside a transaction.
func (r *repository) ApplyStatus(ctx context.Context, update StatusUpdate) error {
	values := map[string]any{
		"status":     update.To,
		"updated_at": update.At,
	}
	if column, ok := models.StatusTimestampColumn(update.To); ok {
		values[column] = gorm.Expr(fmt.Sprintf("COALESCE(%s, ?)", column), update.At)
	}
	if update.DriverID != nil {
		values["driver_id"] = *update.DriverID
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", update.OrderID, update.From).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}

	res = db.Model(&models.VendorOrderMirror{}).
		Where("vendor_id = ? AND order_id = ?", update.VendorID, update.OrderID).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update vendor mirror: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("vendor %s: %w", update.VendorID, ErrMirrorMissing)
	}

	res = db.Model(&models.CustomerOrderMirror{}).
		Where("customer_id = ? AND order_id = ?", update.CustomerID, update.OrderID).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update customer mirror: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("customer %s: %w", update.CustomerID, ErrMirrorMissing)
	}
	return nil
}

func (r *repository) InsertStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	return r.findOne(ctx, "order_code = ?", code)
}

func (r *repository) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return r.findOne(ctx, "stripe_session_id = ?", sessionID)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(query, arg).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindMirrors(ctx context.Context, orderID uuid.UUID) (*models.VendorOrderMirror, *models.CustomerOrderMirror, error) {
	db := r.db.WithContext(ctx)
	var vendorMirror models.VendorOrderMirror
	if err := db.Where("order_id = ?", orderID).First(&vendorMirror).Error; err != nil {
		return nil, nil, err
	}
	var customerMirror models.CustomerOrderMirror
	if err := db.Where("order_id = ?", orderID).First(&customerMirror).Error; err != nil {
		return nil, nil, err
	}
	return &vendorMirror, &customerMirror, nil
}

func (r *repository) ListVendorMirrors(ctx context.Context, query mirrorQuery) ([]models.VendorOrderMirror, error) {
	var rows []models.VendorOrderMirror
	err := r.mirrorPage(ctx, &models.VendorOrderMirror{}, "vendor_id", query).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListCustomerMirrors(ctx context.Context, query mirrorQuery) ([]models.CustomerOrderMirror, error) {
	var rows []models.CustomerOrderMirror
	err := r.mirrorPage(ctx, &models.CustomerOrderMirror{}, "customer_id", query).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) mirrorPage(ctx context.Context, model any, partyColumn string, query mirrorQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(model).Where(partyColumn+" = ?", query.partyID)
	if query.status != nil {
		db = db.Where("status = ?", *query.status)
	}
	if query.cursor != nil {
		db = db.Where("((order_created_at < ?) OR (order_created_at = ? AND order_id < ?))",
			query.cursor.CreatedAt, query.cursor.CreatedAt, query.cursor.ID)
	}
	return db.Order("order_created_at DESC").Order("order_id DESC").Limit(query.limit)
}

func (r *repository) ListStatusEvents(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error) {
	var rows []models.OrderStatusEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("occurred_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

