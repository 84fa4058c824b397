package catalog

import (
	"fmt"
	"strings"

	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the sale status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a sellable tile, mosaic sheet or accessory.
// Stock is owned by the inventory ledger: nothing in this package mutates it.
type Product struct {
	shared.BaseEntity
	Name   string
	SKU    string
	Price  decimal.Decimal
	Stock  int
	Status ProductStatus
}

// NewProduct creates an active product with the given opening stock
func NewProduct(sku, name string, price decimal.Decimal, stock int) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewValidationError("price", "must not be negative")
	}
	if stock < 0 {
		return nil, shared.NewValidationError("stock", "must not be negative")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		SKU:        strings.ToUpper(sku),
		Price:      price,
		Stock:      stock,
		Status:     ProductStatusActive,
	}, nil
}

// IsSellable reports whether the product can be put on a new order
func (p *Product) IsSellable() bool {
	return p.Status == ProductStatusActive
}

// Deactivate hides the product from new orders
func (p *Product) Deactivate() {
	p.Status = ProductStatusInactive
	p.Touch()
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewValidationError("sku", "must not be empty")
	}
	if len(sku) > 64 {
		return shared.NewValidationError("sku", "cannot exceed 64 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewValidationError("sku", "can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewValidationError("name", "must not be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("name", "cannot exceed 200 characters")
	}
	return nil
}

// ProductNotFoundError is returned when an order references a product that
// does not exist or is not for sale
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// ErrorCode implements shared.CodedError
func (e *ProductNotFoundError) ErrorCode() string {
	return "PRODUCT_NOT_FOUND"
}
