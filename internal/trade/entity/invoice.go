package entity

import (
	"time"
)

// PaymentStatus 付款状态
const (
	PaymentStatusUnpaid = "UNPAID"
	PaymentStatusPaid   = "PAID"
)

// DeliveryStatus 交付状态
const (
	DeliveryStatusInProcess = "IN_PROCESS"
	DeliveryStatusSending   = "SENDING"
	DeliveryStatusDelivered = "DELIVERED"
)

// Invoice 发票。QuoteID 记录来源报价单（直接开票时为空）。
// 明细在创建时从报价单复制，为历史快照而非实时引用。
type Invoice struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	InvoiceCode      string     `json:"invoice_code" gorm:"size:50;not null;uniqueIndex"`
	Side             string     `json:"side" gorm:"size:10;not null;index"`
	CounterpartyID   string     `json:"counterparty_id" gorm:"size:36;not null;index"`
	CounterpartyName string     `json:"counterparty_name" gorm:"size:128"`
	QuoteID          *string    `json:"quote_id" gorm:"size:36"`
	PaymentStatus    string     `json:"payment_status" gorm:"size:20;not null;default:UNPAID"`
	DeliveryStatus   string     `json:"delivery_status" gorm:"size:20;not null;default:IN_PROCESS"`
	TotalAmount      float64    `json:"total_amount" gorm:"type:decimal(12,2);default:0"`
	Currency         string     `json:"currency" gorm:"size:10;not null;default:EUR"`
	DeliveryDate     *time.Time `json:"delivery_date"`
	Notes            string     `json:"notes" gorm:"type:text"`
	CreatedBy        string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at" gorm:"index"`

	Items []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
}

func (Invoice) TableName() string {
	return "trade_invoices"
}

// InvoiceItem 发票明细
type InvoiceItem struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	InvoiceID   string    `json:"invoice_id" gorm:"size:36;not null;index"`
	ProductID   string    `json:"product_id" gorm:"size:36;not null"`
	ProductCode string    `json:"product_code" gorm:"size:64"`
	ProductName string    `json:"product_name" gorm:"size:128"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	UnitPrice   float64   `json:"unit_price" gorm:"type:decimal(12,4);not null"`
	Amount      float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (InvoiceItem) TableName() string {
	return "trade_invoice_items"
}
