package repository

import (
	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"gorm.io/gorm"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) Create(q *entity.Quote) error {
	return r.db.Create(q).Error
}

func (r *QuoteRepository) GetByID(id string) (*entity.Quote, error) {
	var q entity.Quote
	err := r.db.Preload("Items").
		Where("id = ? AND deleted_at IS NULL", id).First(&q).Error
	return &q, err
}

func (r *QuoteRepository) Update(q *entity.Quote) error {
	return r.db.Save(q).Error
}

// ReplaceItems 整体替换明细：先删后插，不做差量比对
func (r *QuoteRepository) ReplaceItems(tx *gorm.DB, quoteID string, items []entity.QuoteItem) error {
	if err := tx.Where("quote_id = ?", quoteID).Delete(&entity.QuoteItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

// UpdateStatus 无条件写状态，返回命中的行数
func (r *QuoteRepository) UpdateStatus(id, status string) (int64, error) {
	res := r.db.Model(&entity.Quote{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// MarkConverted 条件更新：仅当报价单仍为 APPROVED 时落下 CONVERTED
// 和发票回引。0 行命中说明已被并发转换或状态不符。
func (r *QuoteRepository) MarkConverted(tx *gorm.DB, quoteID, invoiceID string) (int64, error) {
	res := tx.Model(&entity.Quote{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", quoteID, entity.QuoteStatusApproved).
		Updates(map[string]interface{}{
			"status":     entity.QuoteStatusConverted,
			"invoice_id": invoiceID,
		})
	return res.RowsAffected, res.Error
}

type QuoteListParams struct {
	Side           string
	Status         string
	CounterpartyID string
	Keyword        string
	Page           int
	Size           int
}

func (r *QuoteRepository) List(params QuoteListParams) ([]entity.Quote, int64, error) {
	query := r.db.Model(&entity.Quote{}).Where("deleted_at IS NULL")
	if params.Side != "" {
		query = query.Where("side = ?", params.Side)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.CounterpartyID != "" {
		query = query.Where("counterparty_id = ?", params.CounterpartyID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("quote_code LIKE ?", kw)
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
	var quotes []entity.Quote
	err := query.Order("created_at DESC").
		Offset((params.Page-1)*params.Size).Limit(params.Size).Find(&quotes).Error
	return quotes, total, err
}

// DB 返回底层db用于事务
func (r *QuoteRepository) DB() *gorm.DB {
	return r.db
}
