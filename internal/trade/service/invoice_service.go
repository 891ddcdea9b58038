package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"github.com/bitfantasy/nimo-trade/internal/trade/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type InvoiceService struct {
	repo         *repository.InvoiceRepository
	quoteRepo    *repository.QuoteRepository
	productRepo  *repository.ProductRepository
	clientRepo   *repository.ClientRepository
	supplierRepo *repository.SupplierRepository
	stockRepo    *repository.StockRepository
	logger       *zap.Logger
}

func NewInvoiceService(
	repo *repository.InvoiceRepository,
	quoteRepo *repository.QuoteRepository,
	productRepo *repository.ProductRepository,
	clientRepo *repository.ClientRepository,
	supplierRepo *repository.SupplierRepository,
	stockRepo *repository.StockRepository,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		repo:         repo,
		quoteRepo:    quoteRepo,
		productRepo:  productRepo,
		clientRepo:   clientRepo,
		supplierRepo: supplierRepo,
		stockRepo:    stockRepo,
		logger:       logger,
	}
}

type CreateInvoiceRequest struct {
	Side           string             `json:"side" binding:"required,oneof=CLIENT SUPPLIER"`
	CounterpartyID string             `json:"counterparty_id" binding:"required"`
	Items          []QuoteItemRequest `json:"items" binding:"required,min=1,dive"`
	DeliveryDate   string             `json:"delivery_date"` // YYYY-MM-DD
	QuoteID        *string            `json:"quote_id"`
	Currency       string             `json:"currency"`
	Notes          string             `json:"notes"`
	// UpdateStock 请求立即产生库存影响：客户发票扣减在库，
	// 供应商发票把预计到货计入在途。
	UpdateStock bool `json:"update_stock"`
}

// Create 直接开票（不经报价单转换流程）。传入 QuoteID 时报价单
// 在同一事务内以条件更新落为 CONVERTED，保证同一张报价单
// 不会被直接开票两次。
func (s *InvoiceService) Create(req CreateInvoiceRequest, userID string) (*entity.Invoice, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if req.QuoteID != nil {
		quote, err := s.quoteRepo.GetByID(*req.QuoteID)
		if err != nil {
			return nil, wrapLookup(err, "报价单", *req.QuoteID)
		}
		if quote.Status != entity.QuoteStatusApproved {
			return nil, fmt.Errorf("%w: 只有 APPROVED 的报价单可以开票, 当前 %s", ErrInvalidState, quote.Status)
		}
	}

	var counterpartyName string
	switch req.Side {
	case entity.SideClient:
		c, err := s.clientRepo.GetByID(req.CounterpartyID)
		if err != nil {
			return nil, wrapLookup(err, "客户", req.CounterpartyID)
		}
		counterpartyName = c.Name
	case entity.SideSupplier:
		sup, err := s.supplierRepo.GetByID(req.CounterpartyID)
		if err != nil {
			return nil, wrapLookup(err, "供应商", req.CounterpartyID)
		}
		counterpartyName = sup.Name
	default:
		return nil, fmt.Errorf("%w: 非法单据方向 %s", ErrValidation, req.Side)
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	invoice := &entity.Invoice{
		ID:               uuid.New().String(),
		InvoiceCode:      fmt.Sprintf("INV-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000),
		Side:             req.Side,
		CounterpartyID:   req.CounterpartyID,
		CounterpartyName: counterpartyName,
		QuoteID:          req.QuoteID,
		PaymentStatus:    entity.PaymentStatusUnpaid,
		DeliveryStatus:   entity.DeliveryStatusInProcess,
		Currency:         currency,
		Notes:            req.Notes,
		CreatedBy:        userID,
	}
	if req.DeliveryDate != "" {
		t, err := time.Parse("2006-01-02", req.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: 交付日期格式应为 YYYY-MM-DD", ErrValidation)
		}
		invoice.DeliveryDate = &t
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}

	var total float64
	for _, item := range req.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: 商品 %s", ErrNotFound, item.ProductID)
		}
		amount := float64(item.Quantity) * item.UnitPrice
		total += amount
		invoice.Items = append(invoice.Items, entity.InvoiceItem{
			ID:          uuid.New().String(),
			InvoiceID:   invoice.ID,
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
		})
	}
	invoice.TotalAmount = total

	err = s.repo.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, invoice); err != nil {
			return fmt.Errorf("创建发票失败: %w", err)
		}
		if req.QuoteID != nil {
			rows, err := s.quoteRepo.MarkConverted(tx, *req.QuoteID, invoice.ID)
			if err != nil {
				return fmt.Errorf("更新报价单状态失败: %w", err)
			}
			if rows == 0 {
				return fmt.Errorf("%w: 报价单已被转换", ErrInvalidState)
			}
		}
		if !req.UpdateStock {
			return nil
		}
		for _, item := range invoice.Items {
			movement := &entity.StockMovement{
				ID:            uuid.New().String(),
				ProductID:     item.ProductID,
				ProductCode:   item.ProductCode,
				ProductName:   item.ProductName,
				ReferenceType: "INVOICE",
				ReferenceID:   invoice.ID,
				ReferenceCode: invoice.InvoiceCode,
				CreatedBy:     userID,
			}
			if invoice.Side == entity.SideClient {
				if err := adjustOnHandGuarded(tx, s.stockRepo, item.ProductID, -item.Quantity); err != nil {
					return err
				}
				movement.MovementType = entity.MovementSaleOut
				movement.OnHandQty = -item.Quantity
			} else {
				if err := adjustProvisional(tx, s.stockRepo, s.logger, item.ProductID, item.Quantity); err != nil {
					return err
				}
				movement.MovementType = entity.MovementProvision
				movement.ProvisionalQty = item.Quantity
			}
			if err := s.stockRepo.CreateMovement(tx, movement); err != nil {
				return fmt.Errorf("记录库存流水失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *InvoiceService) Get(id string) (*entity.Invoice, error) {
	inv, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "发票", id)
	}
	return inv, nil
}

func (s *InvoiceService) List(params repository.InvoiceListParams) ([]entity.Invoice, int64, error) {
	return s.repo.List(params)
}

type UpdateInvoiceStatusRequest struct {
	PaymentStatus  *string `json:"payment_status"`
	DeliveryStatus *string `json:"delivery_status"`
}

// transitionRule 声明一次状态写入触发的库存副作用。
// 规则表即合法 (方向, 字段, 目标状态) → 副作用 的显式数据，
// 收紧状态机时只需在这里加守卫，不必改组件结构。
// 前态 ≠ 目标值的幂等守卫不在这里表达：状态写入本身是
// 条件更新，命中 0 行即跳过副作用，并发重复请求只有一个生效。
type transitionRule struct {
	side  string
	field string
	to    string
	// guard 为 false 时跳过副作用，状态写入本身仍然进行
	guard func(inv *entity.Invoice) bool
	apply func(s *InvoiceService, tx *gorm.DB, inv *entity.Invoice) error
}

var statusRules = []transitionRule{
	// 客户发票收款：交付日期还在未来时货物视为已承诺给本单，
	// 收款即扣减在库。过期交付默认已在更早时点扣过，不再动库存。
	{
		side:  entity.SideClient,
		field: "payment_status",
		to:    entity.PaymentStatusPaid,
		guard: func(inv *entity.Invoice) bool {
			return inv.DeliveryDate != nil && inv.DeliveryDate.After(time.Now())
		},
		apply: (*InvoiceService).commitSaleStock,
	},
	// 供应商发票签收：货物从在途转入在库，重复签收不二次入库
	{
		side:  entity.SideSupplier,
		field: "delivery_status",
		to:    entity.DeliveryStatusDelivered,
		apply: (*InvoiceService).receiveSupplierStock,
	},
}

// UpdateStatus 写付款/交付状态并触发台账副作用。
// 状态写入与库存影响在同一事务内，失败整体回滚。
func (s *InvoiceService) UpdateStatus(id string, req UpdateInvoiceStatusRequest) (*entity.Invoice, error) {
	if req.PaymentStatus == nil && req.DeliveryStatus == nil {
		return nil, fmt.Errorf("%w: 未指定要更新的状态", ErrValidation)
	}
	if req.PaymentStatus != nil {
		switch *req.PaymentStatus {
		case entity.PaymentStatusUnpaid, entity.PaymentStatusPaid:
		default:
			return nil, fmt.Errorf("%w: 非法付款状态 %s", ErrValidation, *req.PaymentStatus)
		}
	}
	if req.DeliveryStatus != nil {
		switch *req.DeliveryStatus {
		case entity.DeliveryStatusInProcess, entity.DeliveryStatusSending, entity.DeliveryStatusDelivered:
		default:
			return nil, fmt.Errorf("%w: 非法交付状态 %s", ErrValidation, *req.DeliveryStatus)
		}
	}

	invoice, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "发票", id)
	}

	fields := map[string]interface{}{}
	if req.PaymentStatus != nil {
		fields["payment_status"] = *req.PaymentStatus
	}
	if req.DeliveryStatus != nil {
		fields["delivery_status"] = *req.DeliveryStatus
	}

	err = s.repo.DB().Transaction(func(tx *gorm.DB) error {
		for _, rule := range statusRules {
			if rule.side != invoice.Side {
				continue
			}
			target, requested := fields[rule.field]
			if !requested || target != rule.to {
				continue
			}
			// 条件写状态：前态已是目标值时命中 0 行，
			// 并发重复请求在这里被数据库裁决，只有一个触发副作用
			rows, err := s.repo.SetStatusFieldTx(tx, invoice.ID, rule.field, rule.to)
			if err != nil {
				return fmt.Errorf("更新状态失败: %w", err)
			}
			delete(fields, rule.field)
			if rows == 0 {
				continue
			}
			if rule.guard != nil && !rule.guard(invoice) {
				continue
			}
			if err := rule.apply(s, tx, invoice); err != nil {
				return err
			}
		}
		if len(fields) > 0 {
			if _, err := s.repo.UpdateStatusTx(tx, invoice.ID, fields); err != nil {
				return fmt.Errorf("更新状态失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}

// commitSaleStock 收款时逐项扣减在库数量
func (s *InvoiceService) commitSaleStock(tx *gorm.DB, inv *entity.Invoice) error {
	for _, item := range inv.Items {
		if err := adjustOnHandGuarded(tx, s.stockRepo, item.ProductID, -item.Quantity); err != nil {
			return err
		}
		movement := &entity.StockMovement{
			ID:            uuid.New().String(),
			ProductID:     item.ProductID,
			ProductCode:   item.ProductCode,
			ProductName:   item.ProductName,
			MovementType:  entity.MovementSaleOut,
			OnHandQty:     -item.Quantity,
			ReferenceType: "INVOICE",
			ReferenceID:   inv.ID,
			ReferenceCode: inv.InvoiceCode,
			CreatedBy:     inv.CreatedBy,
		}
		if err := s.stockRepo.CreateMovement(tx, movement); err != nil {
			return fmt.Errorf("记录库存流水失败: %w", err)
		}
	}
	return nil
}

// receiveSupplierStock 签收时逐项在库加、在途等量减
func (s *InvoiceService) receiveSupplierStock(tx *gorm.DB, inv *entity.Invoice) error {
	for _, item := range inv.Items {
		if err := adjustOnHandGuarded(tx, s.stockRepo, item.ProductID, item.Quantity); err != nil {
			return err
		}
		if err := adjustProvisional(tx, s.stockRepo, s.logger, item.ProductID, -item.Quantity); err != nil {
			return err
		}
		movement := &entity.StockMovement{
			ID:             uuid.New().String(),
			ProductID:      item.ProductID,
			ProductCode:    item.ProductCode,
			ProductName:    item.ProductName,
			MovementType:   entity.MovementPurchaseIn,
			OnHandQty:      item.Quantity,
			ProvisionalQty: -item.Quantity,
			ReferenceType:  "INVOICE",
			ReferenceID:    inv.ID,
			ReferenceCode:  inv.InvoiceCode,
			CreatedBy:      inv.CreatedBy,
		}
		if err := s.stockRepo.CreateMovement(tx, movement); err != nil {
			return fmt.Errorf("记录库存流水失败: %w", err)
		}
	}
	return nil
}
