package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{
		CustomerName: "Farida K",
		Phone:        "818-555-0100",
		Email:        "farida@example.com",
		Type:         TypePickup,
		Items: []LineItem{
			{MenuItemID: "1", Name: "Mantu", Price: 12.95, Quantity: 2},
			{MenuItemID: "2", Name: "Bolani", Price: 9.95, Quantity: 1},
		},
	}
}

func TestComputeTotals(t *testing.T) {
	draft := validDraft()
	draft.ComputeTotals()

	// 2x12.95 + 1x9.95 = 35.85; 9.5% tax rounded to cents.
	assert.Equal(t, 35.85, draft.Subtotal)
	assert.Equal(t, 3.41, draft.Tax)
	assert.Equal(t, 39.26, draft.Total)
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Draft)
		wantErr bool
	}{
		{"valid pickup", func(d *Draft) {}, false},
		{"valid delivery", func(d *Draft) {
			d.Type = TypeDelivery
			d.Address = "12 Maple Ave"
		}, false},
		{"missing name", func(d *Draft) { d.CustomerName = "" }, true},
		{"missing phone", func(d *Draft) { d.Phone = "" }, true},
		{"missing email", func(d *Draft) { d.Email = "" }, true},
		{"unknown type", func(d *Draft) { d.Type = "dine_in" }, true},
		{"delivery without address", func(d *Draft) { d.Type = TypeDelivery }, true},
		{"pickup with address", func(d *Draft) { d.Address = "12 Maple Ave" }, true},
		{"no items", func(d *Draft) { d.Items = nil }, true},
		{"zero quantity", func(d *Draft) { d.Items[0].Quantity = 0 }, true},
		{"negative quantity", func(d *Draft) { d.Items[0].Quantity = -1 }, true},
		{"zero price", func(d *Draft) { d.Items[1].Price = 0 }, true},
		{"unnamed item", func(d *Draft) { d.Items[0].Name = "" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)
			err := draft.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
