package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Product — позиция каталога. ID назначает бэкенд.
type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

// ProductPayload — тело создания и обновления товара.
type ProductPayload struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// MarshalJSON отправляет цену числом, а не строкой.
func (p ProductPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string      `json:"name"`
		Price json.Number `json:"price"`
	}{
		Name:  strings.TrimSpace(p.Name),
		Price: json.Number(p.Price.String()),
	})
}

// Validate проверяет форму товара до обращения к сети.
func (p ProductPayload) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrProductNameRequired
	}
	if !p.Price.IsPositive() {
		return ErrProductPriceInvalid
	}
	return nil
}

// FindProduct ищет товар каталога по идентификатору.
func FindProduct(products []Product, id int64) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
