package console

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

func TestStatusSelector_ToggleAndOutsidePointer(t *testing.T) {
	sel := NewStatusSelector(domain.OrderStatusPending, false, nil)
	require.False(t, sel.IsOpen())

	sel.Toggle()
	require.True(t, sel.IsOpen())

	sel.PointerDown(true)
	require.True(t, sel.IsOpen())

	sel.PointerDown(false)
	require.False(t, sel.IsOpen())
}

func TestStatusSelector_DisabledDoesNotOpen(t *testing.T) {
	sel := NewStatusSelector(domain.OrderStatusCompleted, true, nil)
	sel.Toggle()
	require.False(t, sel.IsOpen())
	require.ErrorIs(t, sel.Select(context.Background(), domain.OrderStatusPending), domain.ErrOrderCompleted)
}

func TestStatusSelector_SelectInvokesCallbackAndCloses(t *testing.T) {
	var got []domain.OrderStatus
	sel := NewStatusSelector(domain.OrderStatusPending, false, func(_ context.Context, s domain.OrderStatus) error {
		got = append(got, s)
		return nil
	})

	sel.Toggle()
	require.NoError(t, sel.Select(context.Background(), domain.OrderStatusInProgress))
	require.False(t, sel.IsOpen())
	require.Equal(t, []domain.OrderStatus{domain.OrderStatusInProgress}, got)
	require.Equal(t, domain.OrderStatusPending, sel.Value())
	require.Equal(t, domain.OrderStatuses(), sel.Options())
}

func TestStatusSelector_SyncClosesWhenDisabled(t *testing.T) {
	sel := NewStatusSelector(domain.OrderStatusPending, false, nil)
	sel.Toggle()
	sel.Sync(domain.OrderStatusCompleted, true)

	require.False(t, sel.IsOpen())
	require.True(t, sel.Disabled())
	require.Equal(t, domain.OrderStatusCompleted, sel.Value())
}
