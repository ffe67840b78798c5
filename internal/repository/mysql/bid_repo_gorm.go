package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type bidRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewBidRepository(db *gorm.DB, log *zap.Logger) repository.BidRepository {
	return &bidRepo{db: db, log: log}
}

func (r *bidRepo) Create(ctx context.Context, b *domain.Bid) error {
	if b.Version == 0 {
		b.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		r.log.Error("bid create failed", zap.Error(err))
		return err
	}
	if b.ID == 0 {
		return errors.New("failed to assign bid ID")
	}
	return nil
}

func (r *bidRepo) FindByID(ctx context.Context, id uint64) (*domain.Bid, error) {
	var b domain.Bid
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("bid lookup failed", zap.Uint64("bid_id", id), zap.Error(err))
		return nil, err
	}
	return &b, nil
}

// PlacePending locks the product row so concurrent placements for one product
// serialize across every process sharing the database.
func (r *bidRepo) PlacePending(ctx context.Context, b *domain.Bid, staleBefore time.Time) (bool, error) {
	var revised bool
	err := withRetry(ctx, func() error {
		revised = false
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := lockProduct(tx, b.ProductID); err != nil {
				return err
			}

			var cur domain.Bid
			err := tx.Where("product_id = ? AND buyer_id = ? AND status = ?", b.ProductID, b.BuyerID, domain.BidPending).
				Order("id DESC").
				First(&cur).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
			case err != nil:
				return err
			case cur.IdleSince(staleBefore):
				if err := tx.Model(&domain.Bid{}).Where("id = ?", cur.ID).Updates(map[string]any{
					"status":     domain.BidExpired,
					"version":    gorm.Expr("version + 1"),
					"updated_at": b.UpdatedAt,
				}).Error; err != nil {
					return err
				}
			default:
				if err := tx.Model(&domain.Bid{}).Where("id = ?", cur.ID).Updates(map[string]any{
					"amount":           b.Amount,
					"quantity":         b.Quantity,
					"message":          b.Message,
					"delivery_address": b.DeliveryAddress,
					"payment_method":   b.PaymentMethod,
					"version":          cur.Version + 1,
					"updated_at":       b.UpdatedAt,
				}).Error; err != nil {
					return err
				}
				b.ID = cur.ID
				b.Status = domain.BidPending
				b.OrderID = nil
				b.Version = cur.Version + 1
				b.CreatedAt = cur.CreatedAt
				revised = true
				return nil
			}

			b.ID = 0
			b.Status = domain.BidPending
			if b.Version == 0 {
				b.Version = 1
			}
			return tx.Create(b).Error
		})
	})
	if err != nil {
		r.log.Error("bid placement failed",
			zap.Uint64("product_id", b.ProductID),
			zap.Uint64("buyer_id", b.BuyerID),
			zap.Error(err))
		return false, err
	}
	return revised, nil
}

func (r *bidRepo) Update(ctx context.Context, b *domain.Bid) error {
	return withRetry(ctx, func() error {
		res := r.db.WithContext(ctx).Model(&domain.Bid{}).
			Where("id = ? AND version = ?", b.ID, b.Version).
			Updates(map[string]any{
				"amount":           b.Amount,
				"quantity":         b.Quantity,
				"message":          b.Message,
				"delivery_address": b.DeliveryAddress,
				"payment_method":   b.PaymentMethod,
				"status":           b.Status,
				"order_id":         b.OrderID,
				"version":          b.Version + 1,
				"updated_at":       b.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: bid %d version %d", domain.ErrConflict, b.ID, b.Version)
		}
		b.Version++
		return nil
	})
}

func (r *bidRepo) ListByProduct(ctx context.Context, productID uint64) ([]domain.Bid, error) {
	var out []domain.Bid
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC").Find(&out).Error; err != nil {
		r.log.Error("bid list failed", zap.Uint64("product_id", productID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *bidRepo) ListByBuyer(ctx context.Context, buyerID uint64) ([]domain.Bid, error) {
	var out []domain.Bid
	if err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&out).Error; err != nil {
		r.log.Error("bid list failed", zap.Uint64("buyer_id", buyerID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *bidRepo) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Bid{}).
		Where("status = ? AND updated_at < ?", domain.BidPending, cutoff).
		Updates(map[string]any{
			"status":  domain.BidExpired,
			"version": gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}
