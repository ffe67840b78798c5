package mysql

import (
	"context"
	"testing"
	"time"

	"marketplace-service/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, sm, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	return db, sm
}

func productRow(id uint64, stock int, status domain.ProductStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "farmer_id", "stock", "status"}).
		AddRow(id, 10, stock, string(status))
}

func TestProductRepo_MarkSoldMissingProduct(t *testing.T) {
	db, sm := newMockDB(t)
	repo := NewProductRepository(db, zap.NewNop())

	sm.ExpectBegin()
	sm.ExpectQuery("SELECT .* FROM `products` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	sm.ExpectRollback()

	err := repo.MarkSold(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, sm.ExpectationsWereMet())
}

func TestProductRepo_MarkSold(t *testing.T) {
	t.Run("sold out listing is marked", func(t *testing.T) {
		db, sm := newMockDB(t)
		repo := NewProductRepository(db, zap.NewNop())

		sm.ExpectBegin()
		sm.ExpectQuery("SELECT .* FROM `products` .*FOR UPDATE").
			WillReturnRows(productRow(1, 0, domain.ProductActive))
		sm.ExpectExec("UPDATE `products` SET .*`status`").
			WillReturnResult(sqlmock.NewResult(0, 1))
		sm.ExpectCommit()

		require.NoError(t, repo.MarkSold(context.Background(), 1))
		assert.NoError(t, sm.ExpectationsWereMet())
	})

	t.Run("listing with stock is left alone", func(t *testing.T) {
		db, sm := newMockDB(t)
		repo := NewProductRepository(db, zap.NewNop())

		sm.ExpectBegin()
		sm.ExpectQuery("SELECT .* FROM `products` .*FOR UPDATE").
			WillReturnRows(productRow(1, 4, domain.ProductActive))
		sm.ExpectCommit()

		require.NoError(t, repo.MarkSold(context.Background(), 1))
		assert.NoError(t, sm.ExpectationsWereMet())
	})
}

func TestProductRepo_SetStatusMissingProduct(t *testing.T) {
	db, sm := newMockDB(t)
	repo := NewProductRepository(db, zap.NewNop())

	sm.ExpectBegin()
	sm.ExpectQuery("SELECT .* FROM `products` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	sm.ExpectRollback()

	err := repo.SetStatus(context.Background(), 99, domain.ProductDelisted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, sm.ExpectationsWereMet())
}

func TestBidRepo_PlacePendingInsertsUnderProductLock(t *testing.T) {
	db, sm := newMockDB(t)
	repo := NewBidRepository(db, zap.NewNop())
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	sm.ExpectBegin()
	sm.ExpectQuery("SELECT .* FROM `products` .*FOR UPDATE").
		WillReturnRows(productRow(1, 10, domain.ProductActive))
	sm.ExpectQuery("SELECT .* FROM `bids` WHERE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	sm.ExpectExec("INSERT INTO `bids`").
		WillReturnResult(sqlmock.NewResult(5, 1))
	sm.ExpectCommit()

	b := &domain.Bid{ProductID: 1, BuyerID: 20, Amount: 90, Quantity: 2, CreatedAt: now, UpdatedAt: now}
	revised, err := repo.PlacePending(context.Background(), b, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, revised)
	assert.Equal(t, uint64(5), b.ID)
	assert.Equal(t, domain.BidPending, b.Status)
	assert.NoError(t, sm.ExpectationsWereMet())
}

func TestBidRepo_PlacePendingRevisesLiveBid(t *testing.T) {
	db, sm := newMockDB(t)
	repo := NewBidRepository(db, zap.NewNop())
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := created.Add(10 * time.Minute)

	sm.ExpectBegin()
	sm.ExpectQuery("SELECT .* FROM `products` .*FOR UPDATE").
		WillReturnRows(productRow(1, 10, domain.ProductActive))
	sm.ExpectQuery("SELECT .* FROM `bids` WHERE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "buyer_id", "status", "version", "created_at", "updated_at"}).
			AddRow(3, 1, 20, string(domain.BidPending), 2, created, created))
	sm.ExpectExec("UPDATE `bids` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	sm.ExpectCommit()

	b := &domain.Bid{ProductID: 1, BuyerID: 20, Amount: 95, Quantity: 2, CreatedAt: now, UpdatedAt: now}
	revised, err := repo.PlacePending(context.Background(), b, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, revised)
	assert.Equal(t, uint64(3), b.ID)
	assert.Equal(t, 3, b.Version)
	assert.Equal(t, created, b.CreatedAt)
	assert.NoError(t, sm.ExpectationsWereMet())
}
