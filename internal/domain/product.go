package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alimikegami/quicart/pkg/errs"
)

type Category string

const (
	CategoryClothing           Category = "Clothing"
	CategoryShoes              Category = "Shoes"
	CategoryJewelry            Category = "Jewelry"
	CategoryBeautyPersonalCare Category = "BeautyPersonalCare"
	CategoryHealthWellness     Category = "HealthWellness"
)

var Categories = []Category{
	CategoryClothing,
	CategoryShoes,
	CategoryJewelry,
	CategoryBeautyPersonalCare,
	CategoryHealthWellness,
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", errs.NewValidationError("category", fmt.Sprintf("unknown category %q", s))
}

// SizedStock reports whether products of this category keep stock per size.
func (c Category) SizedStock() bool {
	return c == CategoryClothing || c == CategoryShoes
}

// Collection is the name of the collection holding products of this category.
func (c Category) Collection() string {
	return string(c)
}

type Product struct {
	UID         string   `bson:"_id" json:"uid"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description" json:"description"`
	Price       float64  `bson:"price" json:"price"`
	Category    Category `bson:"category" json:"category"`
	SubCategory string   `bson:"subCategory,omitempty" json:"subCategory,omitempty"`
	Gender      string   `bson:"gender,omitempty" json:"gender,omitempty"`
	Brand       string   `bson:"brand,omitempty" json:"brand,omitempty"`
	Weight      float64  `bson:"weight,omitempty" json:"weight,omitempty"`
	Material    string   `bson:"material,omitempty" json:"material,omitempty"`
	Images      []string `bson:"images" json:"images"`
	Inventory   Stock    `bson:"inventory" json:"inventory"`
}

// ProductDraft holds the raw entry-form values for a new product.
type ProductDraft struct {
	Name        string
	Description string
	Price       string
	SubCategory string
	Gender      string
	Brand       string
	Weight      string
	Material    string
	Images      []string
	// Stock is used by scalar-stock categories, Inventory by sized ones.
	Stock     string
	Inventory map[string]string
}

// NewProduct validates a draft against the category rules and the taxonomy
// and builds the product document.
func NewProduct(category Category, draft ProductDraft, taxonomy Taxonomy, now time.Time) (Product, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return Product{}, errs.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(draft.Description) == "" {
		return Product{}, errs.NewValidationError("description", "is required")
	}

	price, err := parseNonNegativeFloat("price", draft.Price)
	if err != nil {
		return Product{}, err
	}

	if err := taxonomy.Validate(category, draft.Gender, draft.SubCategory); err != nil {
		return Product{}, err
	}
	if err := taxonomy.ValidateMaterial(category, draft.Material); err != nil {
		return Product{}, err
	}

	product := Product{
		Name:        strings.TrimSpace(draft.Name),
		Description: strings.TrimSpace(draft.Description),
		Price:       price,
		Category:    category,
		SubCategory: draft.SubCategory,
		Images:      draft.Images,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	switch category {
	case CategoryClothing, CategoryShoes:
		product.Gender = draft.Gender
		bySize := make(map[string]int)
		for _, size := range taxonomy[category].Sizes {
			n, err := parseStockCount(fmt.Sprintf("inventory.%s", size), draft.Inventory[size], true)
			if err != nil {
				return Product{}, err
			}
			bySize[size] = n
		}
		product.Inventory = SizedStock(bySize)
	case CategoryJewelry:
		weight, err := parseNonNegativeFloat("weight", draft.Weight)
		if err != nil {
			return Product{}, err
		}
		product.Weight = weight
		product.Material = draft.Material
		fallthrough
	default:
		if category != CategoryJewelry && strings.TrimSpace(draft.Brand) == "" {
			return Product{}, errs.NewValidationError("brand", "is required")
		}
		product.Brand = strings.TrimSpace(draft.Brand)
		n, err := parseStockCount("inventory", draft.Stock, false)
		if err != nil {
			return Product{}, err
		}
		product.Inventory = ScalarStock(n)
	}

	product.UID = productUID(category, draft.Gender, draft.SubCategory, now)

	return product, nil
}

func productUID(category Category, gender, subCategory string, now time.Time) string {
	subtype := strings.ReplaceAll(subCategory, " ", "-")
	if category.SizedStock() {
		subtype = fmt.Sprintf("%s_%s", gender, subtype)
	}
	return fmt.Sprintf("%s_%d", subtype, now.UnixMilli())
}

func parseNonNegativeFloat(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errs.NewValidationError(field, "is required")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, errs.NewValidationError(field, "must be a non-negative number")
	}

	return v, nil
}

// parseStockCount parses an inventory count. Blank size counts default to zero.
func parseStockCount(field, raw string, blankIsZero bool) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if blankIsZero {
			return 0, nil
		}
		return 0, errs.NewValidationError(field, "is required")
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errs.NewValidationError(field, "must be a non-negative whole number")
	}

	return v, nil
}
