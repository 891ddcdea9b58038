package repository

import (
	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// CreateTx 在给定事务内创建发票头和明细
func (r *InvoiceRepository) CreateTx(tx *gorm.DB, inv *entity.Invoice) error {
	return tx.Create(inv).Error
}

func (r *InvoiceRepository) GetByID(id string) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := r.db.Preload("Items").
		Where("id = ? AND deleted_at IS NULL", id).First(&inv).Error
	return &inv, err
}

// SetStatusFieldTx 条件写单个状态字段：前态已是目标值时命中 0 行。
// field 只取规则表里的列名，不接受外部输入。
func (r *InvoiceRepository) SetStatusFieldTx(tx *gorm.DB, id, field, value string) (int64, error) {
	res := tx.Model(&entity.Invoice{}).
		Where("id = ? AND deleted_at IS NULL AND "+field+" <> ?", id, value).
		Update(field, value)
	return res.RowsAffected, res.Error
}

// UpdateStatusTx 在给定事务内写付款/交付状态
func (r *InvoiceRepository) UpdateStatusTx(tx *gorm.DB, id string, fields map[string]interface{}) (int64, error) {
	res := tx.Model(&entity.Invoice{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(fields)
	return res.RowsAffected, res.Error
}

type InvoiceListParams struct {
	Side           string
	PaymentStatus  string
	DeliveryStatus string
	CounterpartyID string
	Keyword        string
	Page           int
	Size           int
}

func (r *InvoiceRepository) List(params InvoiceListParams) ([]entity.Invoice, int64, error) {
	query := r.db.Model(&entity.Invoice{}).Where("deleted_at IS NULL")
	if params.Side != "" {
		query = query.Where("side = ?", params.Side)
	}
	if params.PaymentStatus != "" {
		query = query.Where("payment_status = ?", params.PaymentStatus)
	}
	if params.DeliveryStatus != "" {
		query = query.Where("delivery_status = ?", params.DeliveryStatus)
	}
	if params.CounterpartyID != "" {
		query = query.Where("counterparty_id = ?", params.CounterpartyID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("invoice_code LIKE ?", kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var invoices []entity.Invoice
	err := query.Order("created_at DESC").
		Offset((params.Page-1)*params.Size).Limit(params.Size).Find(&invoices).Error
	return invoices, total, err
}

// DB 返回底层db用于事务
func (r *InvoiceRepository) DB() *gorm.DB {
	return r.db
}
