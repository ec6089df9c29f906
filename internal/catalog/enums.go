package catalog

import (
	"encoding/json"
	"fmt"
)

// ProductType distinguishes physical or digital items from services.
type ProductType string

const (
	TypeItem    ProductType = "item"
	TypeService ProductType = "service"
)

// ProductTypes lists every accepted ProductType.
var ProductTypes = []ProductType{TypeItem, TypeService}

func (t ProductType) Valid() bool {
	switch t {
	case TypeItem, TypeService:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown types. An empty string decodes as absent.
func (t *ProductType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("type must be a string")
	}
	v := ProductType(s)
	if s != "" && !v.Valid() {
		return invalid("type", fmt.Sprintf("must be one of %v, got %q", ProductTypes, s))
	}
	*t = v
	return nil
}

// Category is the storefront section a product is listed under.
type Category string

const (
	CategoryKeys     Category = "keys"
	CategorySkins    Category = "skins"
	CategoryWildPass Category = "wild-pass"
	CategoryCoaching Category = "coaching"
	CategoryBoosting Category = "boosting"
)

// Categories lists every accepted Category.
var Categories = []Category{CategoryKeys, CategorySkins, CategoryWildPass, CategoryCoaching, CategoryBoosting}

func (c Category) Valid() bool {
	switch c {
	case CategoryKeys, CategorySkins, CategoryWildPass, CategoryCoaching, CategoryBoosting:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown categories. An empty string decodes as absent.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("category must be a string")
	}
	v := Category(s)
	if s != "" && !v.Valid() {
		return invalid("category", fmt.Sprintf("must be one of %v, got %q", Categories, s))
	}
	*c = v
	return nil
}
