package entity

import (
	"time"
)

// Side 单据方向：客户侧或供应商侧
const (
	SideClient   = "CLIENT"
	SideSupplier = "SUPPLIER"
)

// QuoteStatus 报价单状态
const (
	QuoteStatusDraft     = "DRAFT"
	QuoteStatusPending   = "PENDING"
	QuoteStatusApproved  = "APPROVED"
	QuoteStatusRejected  = "REJECTED"
	QuoteStatusConverted = "CONVERTED"
)

// Quote 报价单。CONVERTED 为终态，转换后整单不可变，
// InvoiceID 指向转换生成的发票。
type Quote struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	QuoteCode        string     `json:"quote_code" gorm:"size:50;not null;uniqueIndex"`
	Side             string     `json:"side" gorm:"size:10;not null;index"`
	CounterpartyID   string     `json:"counterparty_id" gorm:"size:36;not null;index"`
	CounterpartyName string     `json:"counterparty_name" gorm:"size:128"`
	Status           string     `json:"status" gorm:"size:20;not null;default:PENDING"`
	TotalAmount      float64    `json:"total_amount" gorm:"type:decimal(12,2);default:0"`
	Currency         string     `json:"currency" gorm:"size:10;not null;default:EUR"`
	ValidUntil       *time.Time `json:"valid_until"`
	InvoiceID        *string    `json:"invoice_id" gorm:"size:36"`
	Notes            string     `json:"notes" gorm:"type:text"`
	CreatedBy        string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at" gorm:"index"`

	Items []QuoteItem `json:"items,omitempty" gorm:"foreignKey:QuoteID"`
}

func (Quote) TableName() string {
	return "trade_quotes"
}

// QuoteItem 报价单明细。UnitPrice 为报价时锁定的价格，
// 商品现价变动不回写明细。
type QuoteItem struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	QuoteID     string    `json:"quote_id" gorm:"size:36;not null;index"`
	ProductID   string    `json:"product_id" gorm:"size:36;not null"`
	ProductCode string    `json:"product_code" gorm:"size:64"`
	ProductName string    `json:"product_name" gorm:"size:128"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	UnitPrice   float64   `json:"unit_price" gorm:"type:decimal(12,4);not null"`
	Amount      float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (QuoteItem) TableName() string {
	return "trade_quote_items"
}
