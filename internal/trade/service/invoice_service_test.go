package service

import (
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
)

func strPtr(s string) *string { return &s }

func TestInvoiceCreateDirect(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	invoice, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 4, UnitPrice: 25}},
		DeliveryDate:   tomorrow(),
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if invoice.TotalAmount != 100 {
		t.Fatalf("wrong total: %v", invoice.TotalAmount)
	}
	if invoice.QuoteID != nil {
		t.Fatalf("direct invoice should have no quote reference")
	}
	// 未请求库存影响时不动库存
	if got := getProduct(t, db, p.ID).StockOnHand; got != 10 {
		t.Fatalf("stock changed without update_stock: %d", got)
	}
}

func TestInvoiceCreateClientWithStockUpdate(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	invoice, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 4, UnitPrice: 25}},
		UpdateStock:    true,
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := getProduct(t, db, p.ID).StockOnHand; got != 6 {
		t.Fatalf("expected stock 6 got %d", got)
	}
	var mv entity.StockMovement
	if err := db.Where("reference_id = ?", invoice.ID).First(&mv).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if mv.MovementType != entity.MovementSaleOut || mv.OnHandQty != -4 {
		t.Fatalf("wrong movement: %+v", mv)
	}
}

func TestInvoiceCreateInsufficientStockRollsBack(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 3, 25)

	_, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 5, UnitPrice: 25}},
		UpdateStock:    true,
	}, "u1")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}
	// 发票与库存同事务回滚
	if n := countRows(t, db, &entity.Invoice{}); n != 0 {
		t.Fatalf("invoice leaked: %d", n)
	}
	if got := getProduct(t, db, p.ID).StockOnHand; got != 3 {
		t.Fatalf("stock changed: %d", got)
	}
}

func TestInvoicePaidDeductsStockOnce(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	invoice, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 4, UnitPrice: 25}},
		DeliveryDate:   tomorrow(),
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Invoice.UpdateStatus(invoice.ID, UpdateInvoiceStatusRequest{
		PaymentStatus: strPtr(entity.PaymentStatusPaid),
	})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if updated.PaymentStatus != entity.PaymentStatusPaid {
		t.Fatalf("status not updated: %s", updated.PaymentStatus)
	}
	if got := getProduct(t, db, p.ID).StockOnHand; got != 6 {
		t.Fatalf("expected stock 6 got %d", got)
	}

	// 重复置 PAID 不二次扣减
	if _, err := svc.Invoice.UpdateStatus(invoice.ID, UpdateInvoiceStatusRequest{
		PaymentStatus: strPtr(entity.PaymentStatusPaid),
	}); err != nil {
		t.Fatalf("second mark paid: %v", err)
	}
	if got := getProduct(t, db, p.ID).StockOnHand; got != 6 {
		t.Fatalf("stock deducted twice: %d", got)
	}
}

func TestInvoicePaidPastDeliveryNoStockEffect(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	invoice, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 4, UnitPrice: 25}},
		DeliveryDate:   "2020-01-15",
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Invoice.UpdateStatus(invoice.ID, UpdateInvoiceStatusRequest{
		PaymentStatus: strPtr(entity.PaymentStatusPaid),
	}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	// 过期交付视为更早时点已出库，收款不再动库存
	if got := getProduct(t, db, p.ID).StockOnHand; got != 10 {
		t.Fatalf("stock changed for past delivery: %d", got)
	}
}

func TestInvoicePaidInsufficientStockRejected(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 2, 25)

	invoice, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 5, UnitPrice: 25}},
		DeliveryDate:   tomorrow(),
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Invoice.UpdateStatus(invoice.ID, UpdateInvoiceStatusRequest{
		PaymentStatus: strPtr(entity.PaymentStatusPaid),
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}
	// 状态写入与库存影响同事务，失败后状态保持 UNPAID
	loaded, err := svc.Invoice.Get(invoice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.PaymentStatus != entity.PaymentStatusUnpaid {
		t.Fatalf("status changed despite rollback: %s", loaded.PaymentStatus)
	}
}

func TestSupplierInvoiceDeliveredMovesProvisionalToOnHand(t *testing.T) {
	svc, db := newTestServices(t)
	supplier := seedSupplier(t, db, "Fournier SARL")
	p := seedProduct(t, db, "Widget", 10, 25)

	invoice, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideSupplier,
		CounterpartyID: supplier.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 5, UnitPrice: 12}},
		UpdateStock:    true,
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := getProduct(t, db, p.ID).StockProvisional; got != 5 {
		t.Fatalf("expected provisional 5 got %d", got)
	}

	if _, err := svc.Invoice.UpdateStatus(invoice.ID, UpdateInvoiceStatusRequest{
		DeliveryStatus: strPtr(entity.DeliveryStatusDelivered),
	}); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	after := getProduct(t, db, p.ID)
	if after.StockOnHand != 15 {
		t.Fatalf("expected on-hand 15 got %d", after.StockOnHand)
	}
	if after.StockProvisional != 0 {
		t.Fatalf("expected provisional 0 got %d", after.StockProvisional)
	}

	// 重复签收不二次入库
	if _, err := svc.Invoice.UpdateStatus(invoice.ID, UpdateInvoiceStatusRequest{
		DeliveryStatus: strPtr(entity.DeliveryStatusDelivered),
	}); err != nil {
		t.Fatalf("second mark delivered: %v", err)
	}
	after = getProduct(t, db, p.ID)
	if after.StockOnHand != 15 || after.StockProvisional != 0 {
		t.Fatalf("stock moved twice: on-hand %d provisional %d", after.StockOnHand, after.StockProvisional)
	}
}

func TestInvoiceCreateWithQuoteMarksConverted(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	quote := approvedQuote(t, svc, CreateQuoteRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 2, UnitPrice: 20}},
	})

	invoice, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 2, UnitPrice: 20}},
		QuoteID:        &quote.ID,
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 直接开票也把报价单落入终态并回指发票
	detail, err := svc.Quote.Get(quote.ID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if detail.Status != entity.QuoteStatusConverted {
		t.Fatalf("expected CONVERTED got %s", detail.Status)
	}
	if detail.InvoiceID == nil || *detail.InvoiceID != invoice.ID {
		t.Fatalf("quote missing invoice reference")
	}

	// 同一张报价单不能再次开票，也不能再走转换流程
	if _, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 2, UnitPrice: 20}},
		QuoteID:        &quote.ID,
	}, "u1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second invoice got %v", err)
	}
	if _, err := svc.Quote.Convert(quote.ID, ConvertQuoteRequest{DeliveryDate: tomorrow()}, "u1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on convert got %v", err)
	}
	if n := countRows(t, db, &entity.Invoice{}); n != 1 {
		t.Fatalf("expected exactly 1 invoice got %d", n)
	}
}

func TestInvoiceCreateWithQuoteRequiresApproved(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	quote, err := svc.Quote.Create(CreateQuoteRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}},
	}, "u1")
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}

	_, err = svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}},
		QuoteID:        &quote.ID,
	}, "u1")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState got %v", err)
	}
	if n := countRows(t, db, &entity.Invoice{}); n != 0 {
		t.Fatalf("invoice created from draft quote: %d", n)
	}
}

func TestInvoiceUpdateStatusValidation(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	invoice, err := svc.Invoice.Create(CreateInvoiceRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}},
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Invoice.UpdateStatus(invoice.ID, UpdateInvoiceStatusRequest{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty request got %v", err)
	}
	if _, err := svc.Invoice.UpdateStatus(invoice.ID, UpdateInvoiceStatusRequest{
		PaymentStatus: strPtr("BOGUS"),
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bogus status got %v", err)
	}
	if _, err := svc.Invoice.UpdateStatus("missing", UpdateInvoiceStatusRequest{
		PaymentStatus: strPtr(entity.PaymentStatusPaid),
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}
