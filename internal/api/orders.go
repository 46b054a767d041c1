package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// ListOrders возвращает все заказы.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var raw []Record
	if err := c.do(ctx, request{
		op:      "list_orders",
		method:  http.MethodGet,
		path:    "/orders",
		failMsg: "Failed to fetch orders",
	}, &raw); err != nil {
		return nil, err
	}
	return ParseOrders(raw)
}

// GetOrder возвращает заказ по идентификатору.
func (c *Client) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var raw Record
	if err := c.do(ctx, request{
		op:      "get_order",
		method:  http.MethodGet,
		path:    fmt.Sprintf("/orders/%d", id),
		failMsg: fmt.Sprintf("Failed to fetch order with id: %d", id),
	}, &raw); err != nil {
		return domain.Order{}, err
	}
	return ParseOrder(raw)
}

// CreateOrder отправляет минимальный payload и возвращает созданный заказ.
// При ошибке в сообщение попадает поле "message" из ответа бэкенда, если оно есть.
func (c *Client) CreateOrder(ctx context.Context, payload domain.CreateOrderPayload) (domain.Order, error) {
	var raw Record
	if err := c.do(ctx, request{
		op:           "create_order",
		method:       http.MethodPost,
		path:         "/orders",
		body:         payload,
		failMsg:      "Failed to create order",
		probeMessage: true,
	}, &raw); err != nil {
		return domain.Order{}, err
	}
	return ParseOrder(raw)
}

// UpdateOrderStatus меняет статус заказа.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.Order, error) {
	var raw Record
	if err := c.do(ctx, request{
		op:      "update_order_status",
		method:  http.MethodPatch,
		path:    fmt.Sprintf("/orders/%d/status", id),
		body:    domain.UpdateStatusPayload{Status: status},
		failMsg: "Failed to update order status",
	}, &raw); err != nil {
		return domain.Order{}, err
	}
	return ParseOrder(raw)
}

// DeleteOrder удаляет заказ.
func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		op:      "delete_order",
		method:  http.MethodDelete,
		path:    fmt.Sprintf("/orders/%d", id),
		failMsg: fmt.Sprintf("Failed to delete order with id: %d", id),
	}, nil)
}

var _ domain.OrderGateway = (*Client)(nil)
