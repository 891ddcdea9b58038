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

type QuoteService struct {
	repo         *repository.QuoteRepository
	invoiceRepo  *repository.InvoiceRepository
	productRepo  *repository.ProductRepository
	clientRepo   *repository.ClientRepository
	supplierRepo *repository.SupplierRepository
	stockRepo    *repository.StockRepository
	logger       *zap.Logger
}

func NewQuoteService(
	repo *repository.QuoteRepository,
	invoiceRepo *repository.InvoiceRepository,
	productRepo *repository.ProductRepository,
	clientRepo *repository.ClientRepository,
	supplierRepo *repository.SupplierRepository,
	stockRepo *repository.StockRepository,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		repo:         repo,
		invoiceRepo:  invoiceRepo,
		productRepo:  productRepo,
		clientRepo:   clientRepo,
		supplierRepo: supplierRepo,
		stockRepo:    stockRepo,
		logger:       logger,
	}
}

type QuoteItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"gte=0"`
}

type CreateQuoteRequest struct {
	Side           string             `json:"side" binding:"required,oneof=CLIENT SUPPLIER"`
	CounterpartyID string             `json:"counterparty_id" binding:"required"`
	Items          []QuoteItemRequest `json:"items" binding:"required,min=1,dive"`
	ValidUntil     string             `json:"valid_until"` // YYYY-MM-DD
	Currency       string             `json:"currency"`
	Notes          string             `json:"notes"`
	Draft          bool               `json:"draft"`
}

// validateItems 调用边界的兜底校验，不依赖HTTP层的 binding 标签
func validateItems(items []QuoteItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: 明细不能为空", ErrValidation)
	}
	for _, item := range items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: 明细缺少商品", ErrValidation)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: 数量必须大于零", ErrValidation)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: 单价不能为负", ErrValidation)
		}
	}
	return nil
}

// resolveCounterparty 按单据方向解析客户或供应商名称
func (s *QuoteService) resolveCounterparty(side, id string) (string, error) {
	switch side {
	case entity.SideClient:
		c, err := s.clientRepo.GetByID(id)
		if err != nil {
			return "", wrapLookup(err, "客户", id)
		}
		return c.Name, nil
	case entity.SideSupplier:
		sup, err := s.supplierRepo.GetByID(id)
		if err != nil {
			return "", wrapLookup(err, "供应商", id)
		}
		return sup.Name, nil
	default:
		return "", fmt.Errorf("%w: 非法单据方向 %s", ErrValidation, side)
	}
}

// buildQuoteItems 计算明细金额并冗余商品编码/名称快照
func (s *QuoteService) buildQuoteItems(quoteID string, items []QuoteItemRequest) ([]entity.QuoteItem, float64, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ids)
	if err != nil {
		return nil, 0, fmt.Errorf("查询商品失败: %w", err)
	}

	var total float64
	built := make([]entity.QuoteItem, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: 商品 %s", ErrNotFound, item.ProductID)
		}
		amount := float64(item.Quantity) * item.UnitPrice
		total += amount
		built = append(built, entity.QuoteItem{
			ID:          uuid.New().String(),
			QuoteID:     quoteID,
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
		})
	}
	return built, total, nil
}

func (s *QuoteService) Create(req CreateQuoteRequest, userID string) (*entity.Quote, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	counterpartyName, err := s.resolveCounterparty(req.Side, req.CounterpartyID)
	if err != nil {
		return nil, err
	}

	status := entity.QuoteStatusPending
	if req.Draft {
		status = entity.QuoteStatusDraft
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	quote := &entity.Quote{
		ID:               uuid.New().String(),
		QuoteCode:        fmt.Sprintf("QT-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000),
		Side:             req.Side,
		CounterpartyID:   req.CounterpartyID,
		CounterpartyName: counterpartyName,
		Status:           status,
		Currency:         currency,
		Notes:            req.Notes,
		CreatedBy:        userID,
	}
	if req.ValidUntil != "" {
		t, err := time.Parse("2006-01-02", req.ValidUntil)
		if err != nil {
			return nil, fmt.Errorf("%w: 有效期格式应为 YYYY-MM-DD", ErrValidation)
		}
		quote.ValidUntil = &t
	}

	items, total, err := s.buildQuoteItems(quote.ID, req.Items)
	if err != nil {
		return nil, err
	}
	quote.TotalAmount = total
	quote.Items = items

	if err := s.repo.Create(quote); err != nil {
		return nil, fmt.Errorf("创建报价单失败: %w", err)
	}
	return quote, nil
}

type UpdateQuoteRequest struct {
	Items      []QuoteItemRequest `json:"items" binding:"required,min=1,dive"`
	ValidUntil string             `json:"valid_until"`
	Notes      string             `json:"notes"`
}

// Update 仅草稿可编辑。明细整体替换（先删后插），总额重算。
func (s *QuoteService) Update(id string, req UpdateQuoteRequest) (*QuoteDetail, error) {
	quote, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "报价单", id)
	}
	if quote.Status != entity.QuoteStatusDraft {
		return nil, fmt.Errorf("%w: 只有草稿状态的报价单可以编辑", ErrInvalidState)
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	items, total, err := s.buildQuoteItems(quote.ID, req.Items)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"total_amount": total,
		"notes":        req.Notes,
	}
	if req.ValidUntil != "" {
		t, perr := time.Parse("2006-01-02", req.ValidUntil)
		if perr != nil {
			return nil, fmt.Errorf("%w: 有效期格式应为 YYYY-MM-DD", ErrValidation)
		}
		fields["valid_until"] = t
	}

	err = s.repo.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.repo.ReplaceItems(tx, quote.ID, items); err != nil {
			return fmt.Errorf("替换明细失败: %w", err)
		}
		if err := tx.Model(&entity.Quote{}).Where("id = ?", quote.ID).Updates(fields).Error; err != nil {
			return fmt.Errorf("更新报价单失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// SetStatus 在 PENDING/APPROVED/REJECTED/DRAFT 之间无条件写状态。
// CONVERTED 为终态：已转换的报价单不可再改，该状态也只能由转换流程落下。
func (s *QuoteService) SetStatus(id, status string) (*QuoteDetail, error) {
	switch status {
	case entity.QuoteStatusDraft, entity.QuoteStatusPending,
		entity.QuoteStatusApproved, entity.QuoteStatusRejected:
	case entity.QuoteStatusConverted:
		return nil, fmt.Errorf("%w: CONVERTED 状态只能由转换流程设置", ErrValidation)
	default:
		return nil, fmt.Errorf("%w: 非法状态 %s", ErrValidation, status)
	}

	quote, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "报价单", id)
	}
	if quote.Status == entity.QuoteStatusConverted {
		return nil, fmt.Errorf("%w: 报价单已转换", ErrInvalidState)
	}

	if _, err := s.repo.UpdateStatus(id, status); err != nil {
		return nil, fmt.Errorf("更新状态失败: %w", err)
	}
	return s.Get(id)
}

// QuoteItemView 明细视图。UnitPrice 为报价时锁定价，
// CurrentPrice/CurrentName 为展示用的商品现值，仅供参考。
type QuoteItemView struct {
	entity.QuoteItem
	CurrentName  string  `json:"current_name"`
	CurrentPrice float64 `json:"current_price"`
}

type QuoteDetail struct {
	entity.Quote
	Items []QuoteItemView `json:"items"`
}

func (s *QuoteService) Get(id string) (*QuoteDetail, error) {
	quote, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "报价单", id)
	}

	ids := make([]string, 0, len(quote.Items))
	for _, item := range quote.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("查询商品失败: %w", err)
	}

	views := make([]QuoteItemView, 0, len(quote.Items))
	for _, item := range quote.Items {
		view := QuoteItemView{QuoteItem: item}
		if p, ok := products[item.ProductID]; ok {
			view.CurrentName = p.Name
			if quote.Side == entity.SideSupplier {
				view.CurrentPrice = p.PurchasePrice
			} else {
				view.CurrentPrice = p.SalePrice
			}
		}
		views = append(views, view)
	}

	detail := &QuoteDetail{Quote: *quote, Items: views}
	detail.Quote.Items = nil
	return detail, nil
}

func (s *QuoteService) List(params repository.QuoteListParams) ([]entity.Quote, int64, error) {
	return s.repo.List(params)
}

type ConvertQuoteRequest struct {
	DeliveryDate string `json:"delivery_date" binding:"required"` // YYYY-MM-DD
}

// Convert 把 APPROVED 的报价单原子地转换为发票：
// 发票头、明细快照、供应商侧在途库存、报价单终态在同一事务内落库，
// 任何一步失败整体回滚。并发转换同一张报价单时，
// 条件更新保证只有第一个提交者成功，其余得到 ErrInvalidState。
func (s *QuoteService) Convert(id string, req ConvertQuoteRequest, userID string) (*entity.Invoice, error) {
	quote, err := s.repo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "报价单", id)
	}
	if quote.Status != entity.QuoteStatusApproved {
		return nil, fmt.Errorf("%w: 只有 APPROVED 的报价单可以转换, 当前 %s", ErrInvalidState, quote.Status)
	}

	deliveryDate, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: 交付日期格式应为 YYYY-MM-DD", ErrValidation)
	}

	invoice := &entity.Invoice{
		ID:               uuid.New().String(),
		InvoiceCode:      fmt.Sprintf("INV-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000),
		Side:             quote.Side,
		CounterpartyID:   quote.CounterpartyID,
		CounterpartyName: quote.CounterpartyName,
		QuoteID:          &quote.ID,
		PaymentStatus:    entity.PaymentStatusUnpaid,
		DeliveryStatus:   entity.DeliveryStatusInProcess,
		TotalAmount:      quote.TotalAmount,
		Currency:         quote.Currency,
		DeliveryDate:     &deliveryDate,
		CreatedBy:        userID,
	}
	// 明细逐项复制，价格沿用报价时锁定值，不重算
	for _, item := range quote.Items {
		invoice.Items = append(invoice.Items, entity.InvoiceItem{
			ID:          uuid.New().String(),
			InvoiceID:   invoice.ID,
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}

	err = s.repo.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.invoiceRepo.CreateTx(tx, invoice); err != nil {
			return fmt.Errorf("创建发票失败: %w", err)
		}

		// 供应商侧：转换即为下单，预计到货计入在途数量
		if quote.Side == entity.SideSupplier {
			for _, item := range quote.Items {
				if err := adjustProvisional(tx, s.stockRepo, s.logger, item.ProductID, item.Quantity); err != nil {
					return err
				}
				movement := &entity.StockMovement{
					ID:             uuid.New().String(),
					ProductID:      item.ProductID,
					ProductCode:    item.ProductCode,
					ProductName:    item.ProductName,
					MovementType:   entity.MovementProvision,
					ProvisionalQty: item.Quantity,
					ReferenceType:  "INVOICE",
					ReferenceID:    invoice.ID,
					ReferenceCode:  invoice.InvoiceCode,
					CreatedBy:      userID,
				}
				if err := s.stockRepo.CreateMovement(tx, movement); err != nil {
					return fmt.Errorf("记录库存流水失败: %w", err)
				}
			}
		}

		rows, err := s.repo.MarkConverted(tx, quote.ID, invoice.ID)
		if err != nil {
			return fmt.Errorf("更新报价单状态失败: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: 报价单已被并发转换", ErrInvalidState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote converted to invoice",
		zap.String("quote_id", quote.ID),
		zap.String("invoice_id", invoice.ID),
		zap.String("side", quote.Side),
	)
	return invoice, nil
}
