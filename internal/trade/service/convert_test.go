package service

import (
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
)

func approvedQuote(t *testing.T, svc *Services, req CreateQuoteRequest) *entity.Quote {
	t.Helper()
	quote, err := svc.Quote.Create(req, "u1")
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if _, err := svc.Quote.SetStatus(quote.ID, entity.QuoteStatusApproved); err != nil {
		t.Fatalf("approve quote: %v", err)
	}
	return quote
}

func TestConvertClientQuote(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p1 := seedProduct(t, db, "Widget", 10, 25)
	p2 := seedProduct(t, db, "Gadget", 10, 40)

	quote := approvedQuote(t, svc, CreateQuoteRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items: []QuoteItemRequest{
			{ProductID: p1.ID, Quantity: 3, UnitPrice: 20},
			{ProductID: p2.ID, Quantity: 2, UnitPrice: 35},
		},
	})

	invoice, err := svc.Quote.Convert(quote.ID, ConvertQuoteRequest{DeliveryDate: tomorrow()}, "u1")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if invoice.PaymentStatus != entity.PaymentStatusUnpaid {
		t.Fatalf("expected UNPAID got %s", invoice.PaymentStatus)
	}
	if invoice.DeliveryStatus != entity.DeliveryStatusInProcess {
		t.Fatalf("expected IN_PROCESS got %s", invoice.DeliveryStatus)
	}
	if invoice.TotalAmount != quote.TotalAmount {
		t.Fatalf("total mismatch: %v vs %v", invoice.TotalAmount, quote.TotalAmount)
	}
	if len(invoice.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(invoice.Items))
	}
	if invoice.QuoteID == nil || *invoice.QuoteID != quote.ID {
		t.Fatalf("invoice missing quote back-reference")
	}

	// 报价单落入终态并指向生成的发票
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

	// 客户侧转换不动库存
	if got := getProduct(t, db, p1.ID).StockOnHand; got != 10 {
		t.Fatalf("client conversion touched stock: %d", got)
	}
	if n := countRows(t, db, &entity.StockMovement{}); n != 0 {
		t.Fatalf("expected no movements got %d", n)
	}
}

func TestConvertSupplierQuoteAddsProvisional(t *testing.T) {
	svc, db := newTestServices(t)
	supplier := seedSupplier(t, db, "Fournier SARL")
	p := seedProduct(t, db, "Widget", 10, 25)

	quote := approvedQuote(t, svc, CreateQuoteRequest{
		Side:           entity.SideSupplier,
		CounterpartyID: supplier.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 7, UnitPrice: 12}},
	})

	invoice, err := svc.Quote.Convert(quote.ID, ConvertQuoteRequest{DeliveryDate: tomorrow()}, "u1")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	after := getProduct(t, db, p.ID)
	if after.StockOnHand != 10 {
		t.Fatalf("on-hand changed on supplier conversion: %d", after.StockOnHand)
	}
	if after.StockProvisional != 7 {
		t.Fatalf("expected provisional 7 got %d", after.StockProvisional)
	}

	var mv entity.StockMovement
	if err := db.Where("reference_id = ?", invoice.ID).First(&mv).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if mv.MovementType != entity.MovementProvision || mv.ProvisionalQty != 7 {
		t.Fatalf("wrong movement: %+v", mv)
	}
}

func TestConvertRequiresApproved(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	quote, err := svc.Quote.Create(CreateQuoteRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}},
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Quote.Convert(quote.ID, ConvertQuoteRequest{DeliveryDate: tomorrow()}, "u1")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState got %v", err)
	}
}

func TestConvertTwiceFails(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	quote := approvedQuote(t, svc, CreateQuoteRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 1, UnitPrice: 10}},
	})

	if _, err := svc.Quote.Convert(quote.ID, ConvertQuoteRequest{DeliveryDate: tomorrow()}, "u1"); err != nil {
		t.Fatalf("first convert: %v", err)
	}
	_, err := svc.Quote.Convert(quote.ID, ConvertQuoteRequest{DeliveryDate: tomorrow()}, "u1")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState got %v", err)
	}
	if n := countRows(t, db, &entity.Invoice{}); n != 1 {
		t.Fatalf("expected exactly 1 invoice got %d", n)
	}
}

func TestConvertRollsBackOnFailure(t *testing.T) {
	svc, db := newTestServices(t)
	supplier := seedSupplier(t, db, "Fournier SARL")
	p := seedProduct(t, db, "Widget", 10, 25)

	quote := approvedQuote(t, svc, CreateQuoteRequest{
		Side:           entity.SideSupplier,
		CounterpartyID: supplier.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 7, UnitPrice: 12}},
	})

	// 审批后商品被硬删，转换中途的库存更新必然失败
	if err := db.Exec("DELETE FROM trade_products WHERE id = ?", p.ID).Error; err != nil {
		t.Fatalf("delete product: %v", err)
	}

	_, err := svc.Quote.Convert(quote.ID, ConvertQuoteRequest{DeliveryDate: tomorrow()}, "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	// 事务整体回滚：没有发票、没有明细、报价单保持 APPROVED
	if n := countRows(t, db, &entity.Invoice{}); n != 0 {
		t.Fatalf("invoice leaked from rolled-back conversion: %d", n)
	}
	if n := countRows(t, db, &entity.InvoiceItem{}); n != 0 {
		t.Fatalf("invoice items leaked: %d", n)
	}
	detail, err := svc.Quote.Get(quote.ID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if detail.Status != entity.QuoteStatusApproved {
		t.Fatalf("expected APPROVED after rollback got %s", detail.Status)
	}
	if detail.InvoiceID != nil {
		t.Fatalf("invoice reference set despite rollback")
	}
}

func TestConvertedInvoiceKeepsSnapshot(t *testing.T) {
	svc, db := newTestServices(t)
	client := seedClient(t, db, "Acme")
	p := seedProduct(t, db, "Widget", 10, 25)

	quote := approvedQuote(t, svc, CreateQuoteRequest{
		Side:           entity.SideClient,
		CounterpartyID: client.ID,
		Items:          []QuoteItemRequest{{ProductID: p.ID, Quantity: 2, UnitPrice: 20}},
	})
	invoice, err := svc.Quote.Convert(quote.ID, ConvertQuoteRequest{DeliveryDate: tomorrow()}, "u1")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	// 转换后改名改价，发票明细保持转换时点的快照
	if err := db.Model(&entity.Product{}).Where("id = ?", p.ID).
		Updates(map[string]interface{}{"name": "Widget v2", "sale_price": 99}).Error; err != nil {
		t.Fatalf("update product: %v", err)
	}

	loaded, err := svc.Invoice.Get(invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	item := loaded.Items[0]
	if item.ProductName != "Widget" {
		t.Fatalf("snapshot name drifted: %q", item.ProductName)
	}
	if item.UnitPrice != 20 {
		t.Fatalf("snapshot price drifted: %v", item.UnitPrice)
	}
}
