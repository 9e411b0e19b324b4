package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRef_UnmarshalJSON(t *testing.T) {
	// Bare id form.
	var bare ProductRef
	require.NoError(t, json.Unmarshal([]byte(`"65b1f0c2"`), &bare))
	assert.Equal(t, "65b1f0c2", bare.ID)
	assert.Empty(t, bare.Title)

	// Populated form.
	var populated ProductRef
	data := []byte(`{"_id":"65b1f0c2","title":"Calm Course","fileUrl":"https://cdn.example.com/calm.pdf"}`)
	require.NoError(t, json.Unmarshal(data, &populated))
	assert.Equal(t, "65b1f0c2", populated.ID)
	assert.Equal(t, "Calm Course", populated.Title)
	assert.Equal(t, "https://cdn.example.com/calm.pdf", populated.FileURL)
}

func TestOrder_Granted(t *testing.T) {
	for _, status := range []string{OrderStatusPaid, OrderStatusFree, OrderStatusAlreadyAccessed} {
		o := Order{Status: status}
		assert.True(t, o.Granted(), status)
	}
	assert.False(t, (&Order{Status: OrderStatusPending}).Granted())
}

func TestOrder_UnmarshalPopulated(t *testing.T) {
	data := []byte(`{
		"_id": "o1",
		"productId": {"_id": "p1", "title": "Workbook", "fileUrl": "https://cdn.example.com/w.pdf"},
		"userEmail": "student@example.com",
		"amount": 19.99,
		"status": "paid",
		"downloadAccess": true,
		"receiptUrl": "https://pay.example.com/receipt/o1",
		"createdAt": "2026-01-15T10:30:00Z"
	}`)

	var o Order
	require.NoError(t, json.Unmarshal(data, &o))
	assert.Equal(t, "p1", o.Product.ID)
	assert.Equal(t, "Workbook", o.Product.Title)
	assert.True(t, o.DownloadAccess)
	assert.Equal(t, 2026, o.CreatedAt.Year())
}

func TestSession_LoggedIn(t *testing.T) {
	assert.False(t, Session{}.LoggedIn())
	// Role without token is still logged out.
	assert.False(t, Session{Role: RoleAdmin}.LoggedIn())
	assert.False(t, Session{Role: RoleAdmin}.IsAdmin())
	assert.True(t, Session{Token: "t", Role: RoleAdmin}.IsAdmin())
	assert.True(t, Session{Token: "t", Role: RoleStudent}.LoggedIn())
}
