package cart

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_EmptyTotals(t *testing.T) {
	for _, s := range []Snapshot{{}, NewSnapshot(nil), GuestSnapshot()} {
		assert.Equal(t, 0, s.TotalItems())
		assert.Equal(t, Money(0), s.TotalPrice())
	}
}

func TestSnapshot_Totals(t *testing.T) {
	s := NewSnapshot([]Line{
		{ItemID: 1, ProductID: 7, Quantity: 2, UnitPrice: 1999},
		{ItemID: 2, ProductID: 9, Quantity: 1, UnitPrice: 4550},
	})
	assert.Equal(t, 3, s.TotalItems())
	assert.Equal(t, Money(2*1999+4550), s.TotalPrice())
	assert.Len(t, s.Lines(), 2)
}

func TestSnapshot_GuestFlagSerialized(t *testing.T) {
	b, err := json.Marshal(GuestSnapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines":[],"total_items":0,"total_price":0,"guest":true}`, string(b))

	var back Snapshot
	require.NoError(t, json.Unmarshal(b, &back))
	again, err := json.Marshal(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(b), string(again))
}

func TestSnapshot_LinesAreCopied(t *testing.T) {
	lines := []Line{{ItemID: 1, ProductID: 3, Quantity: 1, UnitPrice: 100}}
	s := NewSnapshot(lines)
	lines[0].Quantity = 50

	out := s.Lines()
	out[0].Quantity = 70
	assert.Equal(t, 1, s.TotalItems())
}

func TestSnapshot_JSONIgnoresClientTotals(t *testing.T) {
	var s Snapshot
	err := json.Unmarshal([]byte(`{"lines":[{"item_id":1,"product_id":2,"quantity":3,"unit_price":250}],"total_items":99,"total_price":1}`), &s)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalItems())
	assert.Equal(t, Money(750), s.TotalPrice())

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"lines":[{"item_id":1,"product_id":2,"name":"","quantity":3,"unit_price":250}],"total_items":3,"total_price":750,"guest":false}`,
		string(b))
}

func TestGuestAction_Expired(t *testing.T) {
	captured := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := GuestAction{ProductID: 7, Quantity: 2, CapturedAt: captured}

	assert.False(t, a.Expired(captured.Add(10*time.Minute), ReplayWindow))
	assert.False(t, a.Expired(captured.Add(time.Hour), ReplayWindow), "exactly one hour is still eligible")
	assert.True(t, a.Expired(captured.Add(time.Hour+time.Millisecond), ReplayWindow))
	assert.True(t, a.Expired(captured.Add(2*time.Hour), 0), "zero window falls back to default")
}

func TestGuestAction_Validate(t *testing.T) {
	now := time.Now()
	assert.NoError(t, GuestAction{ProductID: 1, Quantity: 1, CapturedAt: now}.Validate())
	assert.Error(t, GuestAction{ProductID: 0, Quantity: 1, CapturedAt: now}.Validate())
	assert.Error(t, GuestAction{ProductID: 1, Quantity: 0, CapturedAt: now}.Validate())
	assert.Error(t, GuestAction{ProductID: 1, Quantity: 1}.Validate())
}
