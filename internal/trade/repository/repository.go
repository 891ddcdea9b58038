package repository

import "gorm.io/gorm"

// Repositories 仓库集合
type Repositories struct {
	Product  *ProductRepository
	Client   *ClientRepository
	Supplier *SupplierRepository
	Quote    *QuoteRepository
	Invoice  *InvoiceRepository
	Stock    *StockRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:  NewProductRepository(db),
		Client:   NewClientRepository(db),
		Supplier: NewSupplierRepository(db),
		Quote:    NewQuoteRepository(db),
		Invoice:  NewInvoiceRepository(db),
		Stock:    NewStockRepository(db),
	}
}
