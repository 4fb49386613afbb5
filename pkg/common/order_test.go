package common

import (
	"errors"
	"testing"

	"github.com/kformanek/meridian/pkg/utility/fixed"
)

func TestNewOrder_Validation(t *testing.T) {
	testCases := []struct {
		name     string
		side     OrderSide
		kind     OrderKind
		quantity fixed.Point
		limit    fixed.Point
		stop     fixed.Point
		wantErr  error
	}{
		{
			name:     "valid market order",
			side:     OrderSideBuy,
			kind:     OrderKindMarket,
			quantity: fixed.FromInt(5),
		},
		{
			name:     "zero quantity rejected",
			side:     OrderSideBuy,
			kind:     OrderKindMarket,
			quantity: fixed.Zero,
			wantErr:  ErrZeroQuantity,
		},
		{
			name:     "limit order without limit price rejected",
			side:     OrderSideBuy,
			kind:     OrderKindLimit,
			quantity: fixed.FromInt(1),
			wantErr:  ErrInvalidLimit,
		},
		{
			name:     "limit order with negative limit price rejected",
			side:     OrderSideSell,
			kind:     OrderKindLimit,
			quantity: fixed.FromInt(1),
			limit:    fixed.FromInt(-10),
			wantErr:  ErrInvalidLimit,
		},
		{
			name:     "stop order without stop price rejected",
			side:     OrderSideSell,
			kind:     OrderKindStop,
			quantity: fixed.FromInt(1),
			wantErr:  ErrInvalidStop,
		},
		{
			name:     "valid limit order",
			side:     OrderSideBuy,
			kind:     OrderKindLimit,
			quantity: fixed.FromInt(2),
			limit:    fixed.FromInt(100),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOrder(tc.side, tc.kind, tc.quantity, tc.limit, tc.stop)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestNewOrder_QuantityNormalized(t *testing.T) {
	order, err := NewOrder(OrderSideSell, OrderKindMarket, fixed.FromInt(-3), fixed.Zero, fixed.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !order.Quantity.Eq(fixed.FromInt(3)) {
		t.Errorf("expected stored quantity 3, got %s", order.Quantity)
	}
	if !order.SignedQuantity().Eq(fixed.FromInt(-3)) {
		t.Errorf("expected signed quantity -3, got %s", order.SignedQuantity())
	}
}

func TestOrder_SignedQuantity(t *testing.T) {
	buy, _ := NewOrder(OrderSideBuy, OrderKindMarket, fixed.FromInt(2), fixed.Zero, fixed.Zero)
	if !buy.SignedQuantity().Eq(fixed.FromInt(2)) {
		t.Errorf("expected 2, got %s", buy.SignedQuantity())
	}

	sell, _ := NewOrder(OrderSideSell, OrderKindMarket, fixed.FromInt(2), fixed.Zero, fixed.Zero)
	if !sell.SignedQuantity().Eq(fixed.FromInt(-2)) {
		t.Errorf("expected -2, got %s", sell.SignedQuantity())
	}
}

func TestActiveOrder_Merge(t *testing.T) {
	order := ActiveOrder{
		OrderId:      1,
		InstrumentId: 7,
		Ticker:       "ES",
		Status:       OrderStatusSubmitted,
		Quantity:     fixed.FromInt(10),
	}

	order.Merge(ActiveOrder{
		OrderId:        1,
		Status:         OrderStatusFilled,
		FilledQuantity: fixed.FromInt(10),
		AvgFillPrice:   fixed.FromInt(4200),
	})

	if order.Status != OrderStatusFilled {
		t.Errorf("expected status filled, got %s", order.Status)
	}
	if !order.Quantity.Eq(fixed.FromInt(10)) {
		t.Errorf("expected quantity preserved, got %s", order.Quantity)
	}
	if !order.FilledQuantity.Eq(fixed.FromInt(10)) {
		t.Errorf("expected filled quantity 10, got %s", order.FilledQuantity)
	}
	if order.Ticker != "ES" {
		t.Errorf("expected ticker preserved, got %q", order.Ticker)
	}
}
