package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// ListProducts возвращает каталог товаров.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var raw []Record
	if err := c.do(ctx, request{
		op:      "list_products",
		method:  http.MethodGet,
		path:    "/products",
		failMsg: "Failed to fetch products",
	}, &raw); err != nil {
		return nil, err
	}
	return ParseProducts(raw)
}

// CreateProduct создаёт товар каталога.
func (c *Client) CreateProduct(ctx context.Context, payload domain.ProductPayload) (domain.Product, error) {
	var raw Record
	if err := c.do(ctx, request{
		op:      "create_product",
		method:  http.MethodPost,
		path:    "/products",
		body:    payload,
		failMsg: "Failed to create product",
	}, &raw); err != nil {
		return domain.Product{}, err
	}
	return ParseProduct(raw)
}

// UpdateProduct обновляет товар каталога.
func (c *Client) UpdateProduct(ctx context.Context, id int64, payload domain.ProductPayload) (domain.Product, error) {
	var raw Record
	if err := c.do(ctx, request{
		op:      "update_product",
		method:  http.MethodPut,
		path:    fmt.Sprintf("/products/%d", id),
		body:    payload,
		failMsg: "Failed to update product",
	}, &raw); err != nil {
		return domain.Product{}, err
	}
	return ParseProduct(raw)
}

// DeleteProduct удаляет товар каталога.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		op:      "delete_product",
		method:  http.MethodDelete,
		path:    fmt.Sprintf("/products/%d", id),
		failMsg: "Failed to delete product",
	}, nil)
}

var _ domain.ProductGateway = (*Client)(nil)
