package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"github.com/bitfantasy/nimo-trade/internal/trade/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServices 每个测试用独立的内存库，避免共享缓存串数据
func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repos := repository.NewRepositories(db)
	return NewServices(repos, zap.NewNop()), db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int, salePrice float64) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:            uuid.New().String(),
		Code:          fmt.Sprintf("PRD-%s", uuid.New().String()[:8]),
		Name:          name,
		PurchasePrice: salePrice * 0.6,
		SalePrice:     salePrice,
		StockOnHand:   stock,
		Unit:          "pcs",
		Currency:      "EUR",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func seedClient(t *testing.T, db *gorm.DB, name string) *entity.Client {
	t.Helper()
	c := &entity.Client{
		ID:         uuid.New().String(),
		ClientCode: fmt.Sprintf("CLI-%s", uuid.New().String()[:8]),
		Name:       name,
		Status:     entity.ClientStatusActive,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c
}

func seedSupplier(t *testing.T, db *gorm.DB, name string) *entity.Supplier {
	t.Helper()
	s := &entity.Supplier{
		ID:           uuid.New().String(),
		SupplierCode: fmt.Sprintf("SUP-%s", uuid.New().String()[:8]),
		Name:         name,
		Status:       entity.SupplierStatusActive,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	return s
}

func getProduct(t *testing.T, db *gorm.DB, id string) *entity.Product {
	t.Helper()
	var p entity.Product
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return &p
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func tomorrow() string {
	return time.Now().Add(24 * time.Hour).Format("2006-01-02")
}
