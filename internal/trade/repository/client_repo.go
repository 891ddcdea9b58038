package repository

import (
	"time"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(c *entity.Client) error {
	return r.db.Create(c).Error
}

func (r *ClientRepository) GetByID(id string) (*entity.Client, error) {
	var c entity.Client
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&c).Error
	return &c, err
}

func (r *ClientRepository) Update(c *entity.Client) error {
	return r.db.Save(c).Error
}

// Delete 软删除，历史单据上的冗余名称不受影响
func (r *ClientRepository) Delete(id string) error {
	return r.db.Model(&entity.Client{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now()).Error
}

type ClientListParams struct {
	Status  string
	Keyword string
	Page    int
	Size    int
}

func (r *ClientRepository) List(params ClientListParams) ([]entity.Client, int64, error) {
	query := r.db.Model(&entity.Client{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("name LIKE ? OR client_code LIKE ?", kw, kw)
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
	var clients []entity.Client
	err := query.Order("created_at DESC").
		Offset((params.Page-1)*params.Size).Limit(params.Size).Find(&clients).Error
	return clients, total, err
}
