package repository

import (
	"time"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"gorm.io/gorm"
)

// StockRepository 库存台账。所有数量变更都以相对更新表达
// （stock = stock + delta），由数据库行锁保证并发安全，
// 绝不在应用内存中读改写。
type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// AdjustOnHand 调整在库数量。WHERE 条件保证结果不为负，
// 返回命中的行数：0 行表示商品不存在或库存不足，由调用方区分。
func (r *StockRepository) AdjustOnHand(tx *gorm.DB, productID string, delta int) (int64, error) {
	res := tx.Model(&entity.Product{}).
		Where("id = ? AND deleted_at IS NULL AND stock_on_hand + ? >= 0", productID, delta).
		Updates(map[string]interface{}{
			"stock_on_hand":  gorm.Expr("stock_on_hand + ?", delta),
			"stock_moved_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// AdjustProvisional 调整在途数量。业务上允许向下修正，不设下限。
func (r *StockRepository) AdjustProvisional(tx *gorm.DB, productID string, delta int) (int64, error) {
	res := tx.Model(&entity.Product{}).
		Where("id = ? AND deleted_at IS NULL", productID).
		Updates(map[string]interface{}{
			"stock_provisional": gorm.Expr("stock_provisional + ?", delta),
			"stock_moved_at":    time.Now(),
		})
	return res.RowsAffected, res.Error
}

// ProductExists 用于区分守卫失败与商品不存在
func (r *StockRepository) ProductExists(tx *gorm.DB, productID string) (bool, error) {
	var count int64
	err := tx.Model(&entity.Product{}).
		Where("id = ? AND deleted_at IS NULL", productID).Count(&count).Error
	return count > 0, err
}

func (r *StockRepository) CreateMovement(tx *gorm.DB, m *entity.StockMovement) error {
	return tx.Create(m).Error
}

func (r *StockRepository) ListMovements(productID string, page, size int) ([]entity.StockMovement, int64, error) {
	query := r.db.Model(&entity.StockMovement{})
	if productID != "" {
		query = query.Where("product_id = ?", productID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var movements []entity.StockMovement
	err := query.Order("created_at DESC").Offset((page-1)*size).Limit(size).Find(&movements).Error
	return movements, total, err
}

// DB 返回底层db用于事务
func (r *StockRepository) DB() *gorm.DB {
	return r.db
}
