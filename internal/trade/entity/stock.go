package entity

import (
	"time"
)

// MovementType 库存流水类型
const (
	MovementSaleOut    = "SALE_OUT"    // 销售出库
	MovementPurchaseIn = "PURCHASE_IN" // 采购入库
	MovementProvision  = "PROVISION"   // 在途数量变更
	MovementAdjust     = "ADJUST"      // 手工调整
)

// StockMovement 库存流水。OnHandQty / ProvisionalQty 为本次变更量，
// 正数入库，负数出库。
type StockMovement struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	ProductID      string    `json:"product_id" gorm:"size:36;not null;index"`
	ProductCode    string    `json:"product_code" gorm:"size:64"`
	ProductName    string    `json:"product_name" gorm:"size:128"`
	MovementType   string    `json:"movement_type" gorm:"size:20;not null"`
	OnHandQty      int       `json:"on_hand_qty" gorm:"not null;default:0"`
	ProvisionalQty int       `json:"provisional_qty" gorm:"not null;default:0"`
	ReferenceType  string    `json:"reference_type" gorm:"size:50"` // QUOTE, INVOICE, MANUAL
	ReferenceID    string    `json:"reference_id" gorm:"size:64"`
	ReferenceCode  string    `json:"reference_code" gorm:"size:50"`
	Notes          string    `json:"notes" gorm:"type:text"`
	CreatedBy      string    `json:"created_by" gorm:"size:64"`
	CreatedAt      time.Time `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "trade_stock_movements"
}
