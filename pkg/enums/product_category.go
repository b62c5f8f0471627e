package enums

import "fmt"

// ProductCategory describes the storefront grouping for a catalog product.
type ProductCategory string

const (
	ProductCategoryProduce ProductCategory = "produce"
	ProductCategoryDairy   ProductCategory = "dairy"
	ProductCategoryMeat    ProductCategory = "meat"
	ProductCategoryPantry  ProductCategory = "pantry"
	ProductCategoryFlowers ProductCategory = "flowers"
	ProductCategoryOther   ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryProduce,
	ProductCategoryDairy,
	ProductCategoryMeat,
	ProductCategoryPantry,
	ProductCategoryFlowers,
	ProductCategoryOther,
}

// IsValid reports whether the value matches the canonical category enum.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts the raw string to ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
