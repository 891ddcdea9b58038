package service

import (
	"errors"
	"testing"
)

// 持久层故障必须原样上抛，不得被归类为业务上的"记录不存在"
func TestStoreFailureNotMaskedAsNotFound(t *testing.T) {
	svc, db := newTestServices(t)

	if err := db.Exec("DROP TABLE trade_quotes").Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := svc.Quote.Get("any-id")
	if err == nil {
		t.Fatalf("expected error from broken store")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("store failure classified as ErrNotFound: %v", err)
	}
}

func TestInvoiceStoreFailureNotMaskedAsNotFound(t *testing.T) {
	svc, db := newTestServices(t)

	if err := db.Exec("DROP TABLE trade_invoices").Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := svc.Invoice.Get("any-id")
	if err == nil {
		t.Fatalf("expected error from broken store")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("store failure classified as ErrNotFound: %v", err)
	}
}
