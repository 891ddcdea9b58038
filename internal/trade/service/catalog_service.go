package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"github.com/bitfantasy/nimo-trade/internal/trade/repository"
	"github.com/google/uuid"
)

// CatalogService 商品档案。库存字段只读，
// 数量变更一律走 StockService 或单据副作用。
type CatalogService struct {
	repo *repository.ProductRepository
}

func NewCatalogService(repo *repository.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

type CreateProductRequest struct {
	Code          string  `json:"code"`
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	PurchasePrice float64 `json:"purchase_price" binding:"gte=0"`
	SalePrice     float64 `json:"sale_price" binding:"gte=0"`
	InitialStock  int     `json:"initial_stock" binding:"gte=0"`
	Unit          string  `json:"unit"`
	Currency      string  `json:"currency"`
}

func (s *CatalogService) Create(req CreateProductRequest, userID string) (*entity.Product, error) {
	code := req.Code
	if code == "" {
		code = fmt.Sprintf("PRD-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000)
	}
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	product := &entity.Product{
		ID:            uuid.New().String(),
		Code:          code,
		Name:          req.Name,
		Description:   req.Description,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		StockOnHand:   req.InitialStock,
		Unit:          unit,
		Currency:      currency,
		CreatedBy:     userID,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, fmt.Errorf("创建商品失败: %w", err)
	}
	return product, nil
}

type UpdateProductRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	PurchasePrice float64 `json:"purchase_price" binding:"gte=0"`
	SalePrice     float64 `json:"sale_price" binding:"gte=0"`
	Unit          string  `json:"unit"`
}

func (s *CatalogService) Update(id string, req UpdateProductRequest) (*entity.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "商品", id)
	}
	product.Name = req.Name
	product.Description = req.Description
	product.PurchasePrice = req.PurchasePrice
	product.SalePrice = req.SalePrice
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if err := s.repo.Update(product); err != nil {
		return nil, fmt.Errorf("更新商品失败: %w", err)
	}
	return product, nil
}

func (s *CatalogService) Get(id string) (*entity.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "商品", id)
	}
	return product, nil
}

func (s *CatalogService) List(params repository.ProductListParams) ([]entity.Product, int64, error) {
	return s.repo.List(params)
}

func (s *CatalogService) Delete(id string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return wrapLookup(err, "商品", id)
	}
	return s.repo.Delete(id)
}
