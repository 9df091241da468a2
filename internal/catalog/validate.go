package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/models"
)

const (
	minNameLen     = 3
	maxNameLen     = 80
	maxCategoryLen = 40
	maxCodeLen     = 64
	maxQuantity    = 1_000_000
)

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.NewFromInt(1_000_000)
)

// ProductInput carries the attributes of a new product. A nil
// StockThreshold means the default threshold.
type ProductInput struct {
	Name           string
	Category       string
	BuyPrice       decimal.Decimal
	SellPrice      decimal.Decimal
	Stock          int
	StockThreshold *int
	Code           *string
}

// ProductChanges is a partial update; nil fields are left untouched. An
// empty Code clears the code.
type ProductChanges struct {
	Name           *string
	Category       *string
	BuyPrice       *decimal.Decimal
	SellPrice      *decimal.Decimal
	Stock          *int
	StockThreshold *int
	Code           *string
}

func (c ProductChanges) IsEmpty() bool {
	return c.Name == nil && c.Category == nil && c.BuyPrice == nil && c.SellPrice == nil &&
		c.Stock == nil && c.StockThreshold == nil && c.Code == nil
}

func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeName(raw string) (string, error) {
	name := normalizeText(raw)
	n := utf8.RuneCountInString(name)
	if n < minNameLen || n > maxNameLen {
		return "", database.NewValidationError("name", "must be between %d and %d characters", minNameLen, maxNameLen)
	}
	return name, nil
}

func normalizeCategory(raw string) (string, error) {
	category := normalizeText(raw)
	if category == "" {
		return models.DefaultCategory, nil
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return "", database.NewValidationError("category", "must be at most %d characters", maxCategoryLen)
	}
	return category, nil
}

// normalizeCode trims the code and maps blank to nil.
func normalizeCode(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	code := strings.TrimSpace(*raw)
	if code == "" {
		return nil, nil
	}
	if len(code) > maxCodeLen {
		return nil, database.NewValidationError("code", "must be at most %d characters", maxCodeLen)
	}
	return &code, nil
}

func validatePrice(field string, price decimal.Decimal) error {
	if price.LessThan(minPrice) || price.GreaterThan(maxPrice) {
		return database.NewValidationError(field, "must be between %s and %s", minPrice.StringFixed(2), maxPrice.StringFixed(2))
	}
	if !price.Equal(price.Round(2)) {
		return database.NewValidationError(field, "must have at most two decimal places")
	}
	return nil
}

func validateQuantity(field string, n int) error {
	if n < 0 || n > maxQuantity {
		return database.NewValidationError(field, "must be between 0 and %d", maxQuantity)
	}
	return nil
}

func validatePriceCoherence(buy, sell decimal.Decimal) error {
	if sell.LessThan(buy) {
		return database.NewValidationError("sell_price", "sell price %s is lower than buy price %s", sell.StringFixed(2), buy.StringFixed(2))
	}
	return nil
}

// newProduct validates in and returns the normalised product to persist.
func newProduct(in ProductInput) (models.Product, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return models.Product{}, err
	}
	category, err := normalizeCategory(in.Category)
	if err != nil {
		return models.Product{}, err
	}
	if err := validatePrice("buy_price", in.BuyPrice); err != nil {
		return models.Product{}, err
	}
	if err := validatePrice("sell_price", in.SellPrice); err != nil {
		return models.Product{}, err
	}
	if err := validatePriceCoherence(in.BuyPrice, in.SellPrice); err != nil {
		return models.Product{}, err
	}
	if err := validateQuantity("stock", in.Stock); err != nil {
		return models.Product{}, err
	}

	threshold := models.DefaultStockThreshold
	if in.StockThreshold != nil {
		threshold = *in.StockThreshold
	}
	if err := validateQuantity("stock_threshold", threshold); err != nil {
		return models.Product{}, err
	}

	code, err := normalizeCode(in.Code)
	if err != nil {
		return models.Product{}, err
	}

	return models.Product{
		Name:           name,
		Category:       category,
		BuyPrice:       in.BuyPrice,
		SellPrice:      in.SellPrice,
		Stock:          in.Stock,
		StockThreshold: threshold,
		Code:           code,
	}, nil
}

// applyChanges validates every set field of c and merges it into p. The
// returned product carries the requested stock; callers persist stock
// separately.
func applyChanges(p models.Product, c ProductChanges) (models.Product, error) {
	if c.Name != nil {
		name, err := normalizeName(*c.Name)
		if err != nil {
			return p, err
		}
		p.Name = name
	}
	if c.Category != nil {
		category, err := normalizeCategory(*c.Category)
		if err != nil {
			return p, err
		}
		p.Category = category
	}
	if c.BuyPrice != nil {
		if err := validatePrice("buy_price", *c.BuyPrice); err != nil {
			return p, err
		}
		p.BuyPrice = *c.BuyPrice
	}
	if c.SellPrice != nil {
		if err := validatePrice("sell_price", *c.SellPrice); err != nil {
			return p, err
		}
		p.SellPrice = *c.SellPrice
	}
	if c.Stock != nil {
		if err := validateQuantity("stock", *c.Stock); err != nil {
			return p, err
		}
		p.Stock = *c.Stock
	}
	if c.StockThreshold != nil {
		if err := validateQuantity("stock_threshold", *c.StockThreshold); err != nil {
			return p, err
		}
		p.StockThreshold = *c.StockThreshold
	}
	if c.Code != nil {
		code, err := normalizeCode(c.Code)
		if err != nil {
			return p, err
		}
		p.Code = code
	}

	if err := validatePriceCoherence(p.BuyPrice, p.SellPrice); err != nil {
		return p, err
	}
	return p, nil
}
