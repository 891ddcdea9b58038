package service

import (
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
)

func TestStockAdjustSuccess(t *testing.T) {
	svc, db := newTestServices(t)
	p := seedProduct(t, db, "Widget", 10, 25)

	updated, err := svc.Stock.Adjust(p.ID, AdjustStockRequest{OnHandDelta: 5, Reason: "inventaire"}, "u1")
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if updated.StockOnHand != 15 {
		t.Fatalf("expected stock 15 got %d", updated.StockOnHand)
	}
	if updated.StockMovedAt == nil {
		t.Fatalf("expected stock_moved_at to be set")
	}
	if n := countRows(t, db, &entity.StockMovement{}); n != 1 {
		t.Fatalf("expected 1 movement got %d", n)
	}
}

func TestStockAdjustRejectsNegativeResult(t *testing.T) {
	svc, db := newTestServices(t)
	p := seedProduct(t, db, "Widget", 3, 25)

	_, err := svc.Stock.Adjust(p.ID, AdjustStockRequest{OnHandDelta: -4}, "u1")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}

	// 拒绝的调整必须完全不留痕迹
	if got := getProduct(t, db, p.ID).StockOnHand; got != 3 {
		t.Fatalf("stock changed after rejected adjust: %d", got)
	}
	if n := countRows(t, db, &entity.StockMovement{}); n != 0 {
		t.Fatalf("expected no movements got %d", n)
	}
}

func TestStockAdjustToExactlyZero(t *testing.T) {
	svc, db := newTestServices(t)
	p := seedProduct(t, db, "Widget", 4, 25)

	updated, err := svc.Stock.Adjust(p.ID, AdjustStockRequest{OnHandDelta: -4}, "u1")
	if err != nil {
		t.Fatalf("adjust to zero: %v", err)
	}
	if updated.StockOnHand != 0 {
		t.Fatalf("expected stock 0 got %d", updated.StockOnHand)
	}
}

func TestStockAdjustUnknownProduct(t *testing.T) {
	svc, _ := newTestServices(t)

	_, err := svc.Stock.Adjust("missing", AdjustStockRequest{OnHandDelta: 1}, "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestStockAdjustZeroDeltaRejected(t *testing.T) {
	svc, db := newTestServices(t)
	p := seedProduct(t, db, "Widget", 10, 25)

	_, err := svc.Stock.Adjust(p.ID, AdjustStockRequest{}, "u1")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}

func TestStockProvisionalMayGoNegative(t *testing.T) {
	svc, db := newTestServices(t)
	p := seedProduct(t, db, "Widget", 10, 25)

	updated, err := svc.Stock.Adjust(p.ID, AdjustStockRequest{ProvisionalDelta: -2}, "u1")
	if err != nil {
		t.Fatalf("provisional adjust: %v", err)
	}
	if updated.StockProvisional != -2 {
		t.Fatalf("expected provisional -2 got %d", updated.StockProvisional)
	}
}
