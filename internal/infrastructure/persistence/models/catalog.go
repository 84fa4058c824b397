package models

import (
	"github.com/mosaico/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog products.
// The stock column carries a CHECK so the database refuses to go negative
// even if a caller bypasses the ledger.
type ProductModel struct {
	BaseModel
	SKU    string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name   string          `gorm:"type:varchar(200);not null"`
	Price  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock  int             `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock >= 0"`
	Status string          `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity: m.BaseModel.ToDomain(),
		SKU:        m.SKU,
		Name:       m.Name,
		Price:      m.Price,
		Stock:      m.Stock,
		Status:     catalog.ProductStatus(m.Status),
	}
}

// ProductModelFromDomain converts a domain product to its model
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		SKU:    p.SKU,
		Name:   p.Name,
		Price:  p.Price,
		Stock:  p.Stock,
		Status: string(p.Status),
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
