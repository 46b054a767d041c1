package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// Record — сырой объект из JSON-ответа бэкенда.
type Record = map[string]any

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseProduct приводит сырой объект к domain.Product.
func ParseProduct(raw Record) (domain.Product, error) {
	id, err := coerceInt64(raw, "id")
	if err != nil {
		return domain.Product{}, err
	}
	price, err := coerceDecimal(raw, "price")
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:    id,
		Name:  coerceString(raw, "name"),
		Price: price,
	}, nil
}

// ParseProducts приводит массив сырых объектов к списку товаров.
func ParseProducts(raw []Record) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(raw))
	for i, item := range raw {
		p, err := ParseProduct(item)
		if err != nil {
			return nil, fmt.Errorf("product[%d]: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// ParseOrderLineItem приводит сырой объект позиции заказа.
func ParseOrderLineItem(raw Record) (domain.OrderLineItem, error) {
	var (
		item domain.OrderLineItem
		err  error
	)
	if item.ID, err = coerceInt64(raw, "id"); err != nil {
		return domain.OrderLineItem{}, err
	}
	if item.ProductID, err = coerceInt64(raw, "productId"); err != nil {
		return domain.OrderLineItem{}, err
	}
	item.ProductName = coerceString(raw, "productName")
	if item.ProductPrice, err = coerceDecimal(raw, "productPrice"); err != nil {
		return domain.OrderLineItem{}, err
	}
	quantity, err := coerceInt64(raw, "quantity")
	if err != nil {
		return domain.OrderLineItem{}, err
	}
	item.Quantity = int(quantity)
	if item.TotalPrice, err = coerceDecimal(raw, "totalPrice"); err != nil {
		return domain.OrderLineItem{}, err
	}
	if item.ID != 0 {
		item.Key = PersistedLineKey(item.ID)
	}
	return item, nil
}

// ParseOrder приводит сырой объект заказа вместе с вложенными позициями.
func ParseOrder(raw Record) (domain.Order, error) {
	var (
		order domain.Order
		err   error
	)
	if order.ID, err = coerceInt64(raw, "id"); err != nil {
		return domain.Order{}, err
	}
	order.OrderNumber = coerceString(raw, "orderNumber")
	if order.Date, err = coerceTime(raw, "date"); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(coerceString(raw, "status"))
	if order.FinalPrice, err = coerceDecimal(raw, "finalPrice"); err != nil {
		return domain.Order{}, err
	}

	rawItems, err := lineItemRecords(raw)
	if err != nil {
		return domain.Order{}, err
	}
	order.Products = make([]domain.OrderLineItem, 0, len(rawItems))
	for i, rawItem := range rawItems {
		item, err := ParseOrderLineItem(rawItem)
		if err != nil {
			return domain.Order{}, fmt.Errorf("Products[%d]: %w", i, err)
		}
		order.Products = append(order.Products, item)
	}

	return order, nil
}

// ParseOrders приводит массив сырых заказов.
func ParseOrders(raw []Record) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(raw))
	for i, item := range raw {
		o, err := ParseOrder(item)
		if err != nil {
			return nil, fmt.Errorf("order[%d]: %w", i, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// PersistedLineKey строит клиентский ключ для сохранённой позиции.
// Позиции без id получают ключ уже в черновике редактора.
func PersistedLineKey(id int64) string {
	return "line-" + strconv.FormatInt(id, 10)
}

// lineItemRecords достаёт позиции из "Products" (основное имя поля в API) или "products".
func lineItemRecords(raw Record) ([]Record, error) {
	value, ok := raw["Products"]
	if !ok || value == nil {
		value, ok = raw["products"]
	}
	if !ok || value == nil {
		return nil, nil
	}

	list, ok := value.([]any)
	if !ok {
		return nil, &CoercionError{Field: "Products", Value: value, Want: "array"}
	}
	records := make([]Record, 0, len(list))
	for _, entry := range list {
		rec, ok := entry.(map[string]any)
		if !ok {
			return nil, &CoercionError{Field: "Products", Value: entry, Want: "object"}
		}
		records = append(records, rec)
	}
	return records, nil
}

func coerceString(raw Record, field string) string {
	switch v := raw[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func coerceInt64(raw Record, field string) (int64, error) {
	switch v := raw[field].(type) {
	case nil:
		return 0, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil || f != float64(int64(f)) {
			return 0, &CoercionError{Field: field, Value: v, Want: "integer"}
		}
		return int64(f), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, &CoercionError{Field: field, Value: v, Want: "integer"}
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, &CoercionError{Field: field, Value: v, Want: "integer"}
		}
		return n, nil
	default:
		return 0, &CoercionError{Field: field, Value: v, Want: "integer"}
	}
}

func coerceDecimal(raw Record, field string) (decimal.Decimal, error) {
	switch v := raw[field].(type) {
	case nil:
		return decimal.Zero, nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, &CoercionError{Field: field, Value: v, Want: "decimal"}
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, &CoercionError{Field: field, Value: v, Want: "decimal"}
		}
		return d, nil
	default:
		return decimal.Zero, &CoercionError{Field: field, Value: v, Want: "decimal"}
	}
}

func coerceTime(raw Record, field string) (time.Time, error) {
	switch v := raw[field].(type) {
	case nil:
		return time.Time{}, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, &CoercionError{Field: field, Value: v, Want: "date"}
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			return time.Time{}, &CoercionError{Field: field, Value: v, Want: "date"}
		}
		return time.UnixMilli(ms).UTC(), nil
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	default:
		return time.Time{}, &CoercionError{Field: field, Value: v, Want: "date"}
	}
}
