package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order and its items inside a savepoint, so a unique
// violation on order_number leaves the surrounding transaction usable for
// a retry with a fresh number.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return order.ErrDuplicateOrderNumber
	}
	return err
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate loads the order with SELECT ... FOR UPDATE. sqlite has
// no row locks; its single writer connection gives the same exclusion.
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findOne(ctx, query)
}

// MaxSequence returns the highest suffix used by prefix on day. Suffixes
// grow past four digits, so longer numbers sort first.
func (r *GormOrderRepository) MaxSequence(ctx context.Context, prefix, day string) (int64, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("order_number LIKE ?", prefix+"-"+day+"-%").
		Order("LENGTH(order_number) DESC").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil {
		return 0, err
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	return order.SequenceOf(numbers[0])
}

// FindByOrderNumber finds an order by its human-readable number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("order_number = ?", number))
}

func (r *GormOrderRepository) findOne(ctx context.Context, query *gorm.DB) (*order.Order, error) {
	var model models.OrderModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, []*models.OrderModel{&model}); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// loadItems fills Items for the given orders with one query. Kept separate
// from Preload so the FOR UPDATE clause stays on the orders statement.
func (r *GormOrderRepository) loadItems(ctx context.Context, orders []*models.OrderModel) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	byID := make(map[uuid.UUID]*models.OrderModel, len(orders))
	for i, m := range orders {
		ids[i] = m.ID
		byID[m.ID] = m
		m.Items = nil
	}

	var items []models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		m := byID[item.OrderID]
		m.Items = append(m.Items, item)
	}
	return nil
}

// Update writes the mutable columns with a version check. Items and totals
// are immutable after creation and are not written.
func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	next := o.GetVersion() + 1
	var paymentMethod *string
	if o.PaymentMethod != nil {
		method := string(*o.PaymentMethod)
		paymentMethod = &method
	}

	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.GetVersion()).
		UpdateColumns(map[string]any{
			"status":            string(o.Status),
			"payment_status":    string(o.PaymentStatus),
			"payment_method":    paymentMethod,
			"admin_notes":       o.AdminNotes,
			"tracking_number":   o.TrackingNumber,
			"confirmed_at":      o.ConfirmedAt,
			"shipped_at":        o.ShippedAt,
			"delivered_at":      o.DeliveredAt,
			"cancelled_at":      o.CancelledAt,
			"cancel_reason":     o.CancelReason,
			"stock_released_at": o.StockReleasedAt,
			"version":           next,
			"updated_at":        o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	o.IncrementVersion()
	return nil
}

// AppendHistory inserts transition records
func (r *GormOrderRepository) AppendHistory(ctx context.Context, entries ...order.StatusHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.StatusHistoryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.StatusHistoryModelFromDomain(e)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindHistory lists an order's transitions oldest first
func (r *GormOrderRepository) FindHistory(ctx context.Context, orderID uuid.UUID) ([]order.StatusHistoryEntry, error) {
	var rows []models.StatusHistoryModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]order.StatusHistoryEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// FindAll lists orders matching the filter, items included
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var rows []models.OrderModel
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter).Find(&rows).Error; err != nil {
		return nil, err
	}

	ptrs := make([]*models.OrderModel, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}
	if err := r.loadItems(ctx, ptrs); err != nil {
		return nil, err
	}

	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyConditions(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	query = query.Order(clause.OrderByColumn{
		Column: clause.Column{Name: orderBy},
		Desc:   ValidateSortOrder(filter.OrderDir) == "DESC",
	}).Order("id")

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

func (r *GormOrderRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(shipping_recipient) LIKE ?", like, like)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status", "payment_status", "customer_id":
			query = query.Where(clause.Eq{Column: clause.Column{Name: key}, Value: filterValue(value)})
		case "created_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t.UTC())
			}
		case "created_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at < ?", t.UTC())
			}
		}
	}
	return query
}

// filterValue unwraps typed string values so drivers bind plain strings
func filterValue(v any) any {
	switch val := v.(type) {
	case order.Status:
		return string(val)
	case order.PaymentStatus:
		return string(val)
	case uuid.UUID:
		return val.String()
	default:
		return v
	}
}

var (
	_ order.Repository    = (*GormOrderRepository)(nil)
	_ order.SequenceFloor = (*GormOrderRepository)(nil)
)
