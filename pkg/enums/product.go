package enums

import (
	"fmt"
	"strings"
)

// ProductStatus is the catalog state of a product.
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "Active"
	ProductStatusInactive     ProductStatus = "Inactive"
	ProductStatusDiscontinued ProductStatus = "Discontinued"
)

var validProductStatuses = []ProductStatus{
	ProductStatusActive,
	ProductStatusInactive,
	ProductStatusDiscontinued,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductStatus matches raw input case-insensitively and returns the canonical value.
func ParseProductStatus(value string) (ProductStatus, error) {
	value = strings.TrimSpace(value)
	for _, candidate := range validProductStatuses {
		if strings.EqualFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
