package entity

import (
	"time"
)

// Product 商品档案。StockOnHand 为实际在库数量，
// StockProvisional 为在途数量（已下单未到货的供应商订单）。
type Product struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	Code             string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name             string     `json:"name" gorm:"size:128;not null"`
	Description      string     `json:"description" gorm:"type:text"`
	PurchasePrice    float64    `json:"purchase_price" gorm:"type:decimal(12,4);default:0"`
	SalePrice        float64    `json:"sale_price" gorm:"type:decimal(12,4);default:0"`
	StockOnHand      int        `json:"stock_on_hand" gorm:"not null;default:0"`
	StockProvisional int        `json:"stock_provisional" gorm:"not null;default:0"`
	Unit             string     `json:"unit" gorm:"size:20;not null;default:pcs"`
	Currency         string     `json:"currency" gorm:"size:10;not null;default:EUR"`
	StockMovedAt     *time.Time `json:"stock_moved_at"`
	CreatedBy        string     `json:"created_by" gorm:"size:64"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at" gorm:"index"`
}

func (Product) TableName() string {
	return "trade_products"
}
