package repository

import (
	"time"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(p *entity.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) GetByID(id string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	return &p, err
}

func (r *ProductRepository) GetByCode(code string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.Where("code = ? AND deleted_at IS NULL", code).First(&p).Error
	return &p, err
}

// GetByIDs 批量获取商品，按ID索引返回
func (r *ProductRepository) GetByIDs(ids []string) (map[string]entity.Product, error) {
	var products []entity.Product
	err := r.db.Where("id IN ? AND deleted_at IS NULL", ids).Find(&products).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[string]entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func (r *ProductRepository) Update(p *entity.Product) error {
	return r.db.Save(p).Error
}

// Delete 软删除，单据明细上的快照保留
func (r *ProductRepository) Delete(id string) error {
	return r.db.Model(&entity.Product{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now()).Error
}

type ProductListParams struct {
	Keyword string
	Page    int
	Size    int
}

func (r *ProductRepository) List(params ProductListParams) ([]entity.Product, int64, error) {
	query := r.db.Model(&entity.Product{}).Where("deleted_at IS NULL")
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", kw, kw)
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
	var products []entity.Product
	err := query.Order("created_at DESC").
		Offset((params.Page-1)*params.Size).Limit(params.Size).Find(&products).Error
	return products, total, err
}
