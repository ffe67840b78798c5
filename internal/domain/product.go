package domain

import (
	"fmt"
	"time"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductSold     ProductStatus = "sold"
	ProductDelisted ProductStatus = "delisted"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductActive, ProductSold, ProductDelisted:
		return true
	}
	return false
}

func (s *ProductStatus) UnmarshalText(b []byte) error {
	v := ProductStatus(b)
	if !v.Valid() {
		return fmt.Errorf("%w: unknown product status %q", ErrValidation, string(b))
	}
	*s = v
	return nil
}

const DefaultUnit = "20 kg"

type Product struct {
	ID           uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	FarmerID     uint64        `json:"farmerId" gorm:"not null;index"`
	Name         string        `json:"name" gorm:"type:varchar(255);not null"`
	Category     string        `json:"category" gorm:"type:varchar(100);not null;index"`
	Description  string        `json:"description" gorm:"type:varchar(500)"`
	Location     string        `json:"location" gorm:"type:varchar(255)"`
	Price        int64         `json:"price" gorm:"not null"`
	Unit         string        `json:"unit" gorm:"type:varchar(50);not null"`
	Stock        int           `json:"stock" gorm:"not null;default:0"`
	IsNegotiable bool          `json:"isNegotiable" gorm:"not null;default:false"`
	Status       ProductStatus `json:"status" gorm:"type:varchar(16);not null;default:'active';index"`
	CreatedAt    time.Time     `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Sellable reports whether new reservations may be taken against the listing.
func (p *Product) Sellable() bool {
	return p.Status == ProductActive && p.Stock > 0
}

// ProductFilter narrows catalog listings. A zero Status means active only.
type ProductFilter struct {
	Category   string
	FarmerID   uint64
	Negotiable *bool
	Status     ProductStatus
	MinPrice   *int64
	MaxPrice   *int64
}

func (f ProductFilter) Matches(p *Product) bool {
	status := f.Status
	if status == "" {
		status = ProductActive
	}
	if p.Status != status {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.FarmerID != 0 && p.FarmerID != f.FarmerID {
		return false
	}
	if f.Negotiable != nil && p.IsNegotiable != *f.Negotiable {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}

// Reservation is a stock decrement taken on behalf of an order.
type Reservation struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
	// Remaining is the stock left right after the decrement.
	Remaining int `json:"remaining"`
}
