package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有业务表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&Product{},
		&Client{},
		&Supplier{},

		// 报价单
		&Quote{},
		&QuoteItem{},

		// 发票
		&Invoice{},
		&InvoiceItem{},

		// 库存流水
		&StockMovement{},
	)
}
