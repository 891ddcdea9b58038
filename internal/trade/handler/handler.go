package handler

import (
	"errors"
	"net/http"

	"github.com/bitfantasy/nimo-trade/internal/trade/service"
	"github.com/gin-gonic/gin"
)

// Handlers HTTP处理器集合
type Handlers struct {
	Product *ProductHandler
	Partner *PartnerHandler
	Stock   *StockHandler
	Quote   *QuoteHandler
	Invoice *InvoiceHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Product: NewProductHandler(services.Catalog),
		Partner: NewPartnerHandler(services.Partner),
		Stock:   NewStockHandler(services.Stock),
		Quote:   NewQuoteHandler(services.Quote),
		Invoice: NewInvoiceHandler(services.Invoice),
	}
}

// fail 按错误分类映射HTTP状态码与业务码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"code": 10003, "message": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"code": 10004, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

func currentUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}
