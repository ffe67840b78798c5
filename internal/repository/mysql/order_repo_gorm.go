package mysql

import (
	"context"
	"errors"
	"fmt"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type orderRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOrderRepository(db *gorm.DB, log *zap.Logger) repository.OrderRepository {
	return &orderRepo{db: db, log: log}
}

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	if order.Version == 0 {
		order.Version = 1
	}
	result := r.db.WithContext(ctx).Create(order)
	if result.Error != nil {
		r.log.Error("order save failed", zap.Error(result.Error))
		return result.Error
	}
	if order.ID == 0 {
		r.log.Warn("order saved but ID is still 0", zap.Int64("rows_affected", result.RowsAffected))
		return errors.New("failed to assign order ID")
	}
	return nil
}

// SaveBatch inserts every order in one transaction; either all rows land or none do.
func (r *orderRepo) SaveBatch(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	for _, o := range orders {
		if o.Version == 0 {
			o.Version = 1
		}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := 0; i < len(orders); i += 100 {
			end := i + 100
			if end > len(orders) {
				end = len(orders)
			}
			batch := orders[i:end]
			if err := tx.Create(&batch).Error; err != nil {
				r.log.Error("order batch save failed", zap.Error(err))
				return err
			}
			for _, o := range batch {
				if o.ID == 0 {
					return errors.New("batch insert failed to assign IDs")
				}
			}
		}
		return nil
	})
}

func (r *orderRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&domain.Order{}, id).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("order lookup failed", zap.Uint64("order_id", id), zap.Error(err))
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByProductId(ctx context.Context, productId uint64) ([]domain.Order, error) {
	return r.list(ctx, "product_id = ?", productId)
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID uint64) ([]domain.Order, error) {
	return r.list(ctx, "buyer_id = ?", buyerID)
}

func (r *orderRepo) ListByFarmer(ctx context.Context, farmerID uint64) ([]domain.Order, error) {
	return r.list(ctx, "farmer_id = ?", farmerID)
}

func (r *orderRepo) list(ctx context.Context, where string, arg uint64) ([]domain.Order, error) {
	var out []domain.Order
	if err := r.db.WithContext(ctx).Where(where, arg).Order("created_at DESC").Find(&out).Error; err != nil {
		r.log.Error("order list failed", zap.String("filter", where), zap.Uint64("value", arg), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, order *domain.Order) error {
	return withRetry(ctx, func() error {
		res := r.db.WithContext(ctx).Model(&domain.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]any{
				"status":     order.Status,
				"version":    order.Version + 1,
				"updated_at": order.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d version %d", domain.ErrConflict, order.ID, order.Version)
		}
		order.Version++
		return nil
	})
}
