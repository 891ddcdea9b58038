package service

import (
	"github.com/bitfantasy/nimo-trade/internal/trade/repository"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Catalog *CatalogService
	Partner *PartnerService
	Stock   *StockService
	Quote   *QuoteService
	Invoice *InvoiceService
}

func NewServices(repos *repository.Repositories, logger *zap.Logger) *Services {
	return &Services{
		Catalog: NewCatalogService(repos.Product),
		Partner: NewPartnerService(repos.Client, repos.Supplier),
		Stock:   NewStockService(repos.Stock, repos.Product, logger),
		Quote:   NewQuoteService(repos.Quote, repos.Invoice, repos.Product, repos.Client, repos.Supplier, repos.Stock, logger),
		Invoice: NewInvoiceService(repos.Invoice, repos.Quote, repos.Product, repos.Client, repos.Supplier, repos.Stock, logger),
	}
}
