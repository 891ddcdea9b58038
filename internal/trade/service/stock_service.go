package service

import (
	"fmt"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"github.com/bitfantasy/nimo-trade/internal/trade/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockService 库存台账。所有调整在单个事务内完成：
// 数量变更与流水记录要么全部落库要么全部回滚。
type StockService struct {
	stockRepo   *repository.StockRepository
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

func NewStockService(stockRepo *repository.StockRepository, productRepo *repository.ProductRepository, logger *zap.Logger) *StockService {
	return &StockService{stockRepo: stockRepo, productRepo: productRepo, logger: logger}
}

type AdjustStockRequest struct {
	OnHandDelta      int    `json:"on_hand_delta"`
	ProvisionalDelta int    `json:"provisional_delta"`
	Reason           string `json:"reason"`
}

// Adjust 手工调整商品库存。在库数量不允许为负，
// 调整被拒绝时返回 ErrInsufficientStock，库存保持不变。
func (s *StockService) Adjust(productID string, req AdjustStockRequest, userID string) (*entity.Product, error) {
	if req.OnHandDelta == 0 && req.ProvisionalDelta == 0 {
		return nil, fmt.Errorf("%w: 调整量不能全为零", ErrValidation)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, wrapLookup(err, "商品", productID)
	}

	err = s.stockRepo.DB().Transaction(func(tx *gorm.DB) error {
		if req.OnHandDelta != 0 {
			if err := adjustOnHandGuarded(tx, s.stockRepo, productID, req.OnHandDelta); err != nil {
				return err
			}
		}
		if req.ProvisionalDelta != 0 {
			if err := adjustProvisional(tx, s.stockRepo, s.logger, productID, req.ProvisionalDelta); err != nil {
				return err
			}
		}
		movement := &entity.StockMovement{
			ID:             uuid.New().String(),
			ProductID:      product.ID,
			ProductCode:    product.Code,
			ProductName:    product.Name,
			MovementType:   entity.MovementAdjust,
			OnHandQty:      req.OnHandDelta,
			ProvisionalQty: req.ProvisionalDelta,
			ReferenceType:  "MANUAL",
			ReferenceID:    uuid.New().String(),
			Notes:          req.Reason,
			CreatedBy:      userID,
		}
		return s.stockRepo.CreateMovement(tx, movement)
	})
	if err != nil {
		return nil, err
	}

	return s.productRepo.GetByID(productID)
}

func (s *StockService) ListMovements(productID string, page, size int) ([]entity.StockMovement, int64, error) {
	return s.stockRepo.ListMovements(productID, page, size)
}

// adjustOnHandGuarded 在事务内应用在库增量。守卫更新命中 0 行时
// 区分商品缺失与库存不足，显式报错而不是静默跳过。
func adjustOnHandGuarded(tx *gorm.DB, repo *repository.StockRepository, productID string, delta int) error {
	rows, err := repo.AdjustOnHand(tx, productID, delta)
	if err != nil {
		return fmt.Errorf("更新库存失败: %w", err)
	}
	if rows == 0 {
		exists, err := repo.ProductExists(tx, productID)
		if err != nil {
			return fmt.Errorf("更新库存失败: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: 商品 %s", ErrNotFound, productID)
		}
		return fmt.Errorf("%w: 商品 %s 在库数量不足", ErrInsufficientStock, productID)
	}
	return nil
}

// adjustProvisional 在事务内应用在途增量。结果为负不是错误，
// 但记入数据一致性告警。
func adjustProvisional(tx *gorm.DB, repo *repository.StockRepository, logger *zap.Logger, productID string, delta int) error {
	rows, err := repo.AdjustProvisional(tx, productID, delta)
	if err != nil {
		return fmt.Errorf("更新在途数量失败: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: 商品 %s", ErrNotFound, productID)
	}
	var p entity.Product
	if err := tx.Where("id = ?", productID).First(&p).Error; err == nil && p.StockProvisional < 0 {
		logger.Warn("provisional stock went negative",
			zap.String("product_id", productID),
			zap.Int("stock_provisional", p.StockProvisional),
		)
	}
	return nil
}
