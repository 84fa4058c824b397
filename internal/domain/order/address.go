package order

import (
	"strings"

	"github.com/mosaico/backend/internal/domain/shared"
)

// ShippingAddress is captured at checkout and stored verbatim on the order
type ShippingAddress struct {
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Validate appends missing-field failures to verr
func (a ShippingAddress) Validate(verr *shared.ValidationError) {
	required := []struct {
		field string
		value string
	}{
		{"shipping_address.recipient", a.Recipient},
		{"shipping_address.phone", a.Phone},
		{"shipping_address.street", a.Street},
		{"shipping_address.city", a.City},
		{"shipping_address.province", a.Province},
		{"shipping_address.postal_code", a.PostalCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			verr.Add(r.field, "is required")
		}
	}
}

// Normalized trims whitespace and defaults the country
func (a ShippingAddress) Normalized() ShippingAddress {
	out := ShippingAddress{
		Recipient:  strings.TrimSpace(a.Recipient),
		Phone:      strings.TrimSpace(a.Phone),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		Province:   strings.TrimSpace(a.Province),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
	if out.Country == "" {
		out.Country = "AR"
	}
	return out
}
