package api

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

func decodeRecord(t *testing.T, body string) Record {
	t.Helper()
	var rec Record
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&rec))
	return rec
}

func TestParseProduct_CoercesStringPrice(t *testing.T) {
	rec := decodeRecord(t, `{"id":"12","name":"Laptop Pro","price":"999.90"}`)

	product, err := ParseProduct(rec)
	require.NoError(t, err)
	require.Equal(t, int64(12), product.ID)
	require.Equal(t, "Laptop Pro", product.Name)
	require.Equal(t, "999.90", product.Price.StringFixed(2))
}

func TestParseOrder_FullPayload(t *testing.T) {
	rec := decodeRecord(t, `{
		"id": 7,
		"orderNumber": "ORD-7",
		"date": "2024-12-25T10:30:00Z",
		"status": "InProgress",
		"finalPrice": "24.5",
		"Products": [
			{"id": 1, "productId": "10", "productName": "Keyboard", "productPrice": "9.75", "quantity": "2", "totalPrice": 19.5},
			{"id": 2, "productId": 11, "productName": "Mouse", "productPrice": 5, "quantity": 1, "totalPrice": "5"}
		]
	}`)

	order, err := ParseOrder(rec)
	require.NoError(t, err)
	require.Equal(t, int64(7), order.ID)
	require.Equal(t, "ORD-7", order.OrderNumber)
	require.Equal(t, domain.OrderStatusInProgress, order.Status)
	require.True(t, order.Date.Equal(time.Date(2024, 12, 25, 10, 30, 0, 0, time.UTC)))
	require.Len(t, order.Products, 2)
	require.Equal(t, "line-1", order.Products[0].Key)
	require.Equal(t, int64(10), order.Products[0].ProductID)
	require.Equal(t, 2, order.Products[0].Quantity)
	require.Equal(t, "24.50", order.Total().StringFixed(2))
	require.Equal(t, "24.50", order.FinalPrice.StringFixed(2))
}

func TestParseOrder_LowercaseProductsAndMissingFields(t *testing.T) {
	rec := decodeRecord(t, `{"id": 3, "status": "Pending", "date": "2024-01-02", "products": [{"id": 9, "productId": 1, "quantity": 4, "productPrice": 1, "totalPrice": 4}]}`)

	order, err := ParseOrder(rec)
	require.NoError(t, err)
	require.Len(t, order.Products, 1)
	require.Equal(t, "", order.OrderNumber)
	require.True(t, order.FinalPrice.IsZero())
	require.Equal(t, 2024, order.Date.Year())
}

func TestParseOrder_LineWithoutIDHasNoKey(t *testing.T) {
	rec := decodeRecord(t, `{"id": 5, "Products": [{"productId": 1, "quantity": 1}, {"productId": 2, "quantity": 2}]}`)

	order, err := ParseOrder(rec)
	require.NoError(t, err)
	require.Len(t, order.Products, 2)
	require.Empty(t, order.Products[0].Key)
	require.Empty(t, order.Products[1].Key)
}

func TestParseOrder_UnknownStatusPassesThrough(t *testing.T) {
	rec := decodeRecord(t, `{"id": 1, "status": "Archived"}`)

	order, err := ParseOrder(rec)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatus("Archived"), order.Status)
	require.Empty(t, order.Products)
}

func TestParse_MalformedValuesPropagate(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "non numeric id", body: `{"id":"abc"}`, field: "id"},
		{name: "fractional id", body: `{"id": 1.5}`, field: "id"},
		{name: "bad price", body: `{"id":1,"finalPrice":"twelve"}`, field: "finalPrice"},
		{name: "bad date", body: `{"id":1,"date":"yesterday"}`, field: "date"},
		{name: "products not array", body: `{"id":1,"Products":{"id":1}}`, field: "Products"},
		{name: "bad nested quantity", body: `{"id":1,"Products":[{"id":1,"quantity":"many"}]}`, field: "quantity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOrder(decodeRecord(t, tc.body))
			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrMalformedPayload)

			var coercion *CoercionError
			require.True(t, errors.As(err, &coercion))
			require.Equal(t, tc.field, coercion.Field)
		})
	}
}

func TestParseProducts_ReportsIndex(t *testing.T) {
	_, err := ParseProducts([]Record{
		{"id": json.Number("1"), "name": "ok", "price": json.Number("2")},
		{"id": json.Number("2"), "name": "bad", "price": "x"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "product[1]")
}

func TestParseOrder_UnixMillisDate(t *testing.T) {
	rec := decodeRecord(t, `{"id": 1, "date": 1700000000000}`)

	order, err := ParseOrder(rec)
	require.NoError(t, err)
	require.Equal(t, int64(1700000000000), order.Date.UnixMilli())
}
