package store

import (
	"regexp"
	"testing"

	"github.com/Neetrino/clean-house/internal/models"
	"github.com/stretchr/testify/assert"
)

var orderNumberPattern = regexp.MustCompile(`^CH\d{13,}[0-9A-Z]{4}$`)

func TestGenerateOrderNumber_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := GenerateOrderNumber()
		assert.Regexp(t, orderNumberPattern, n)
	}
}

func TestGenerateOrderNumber_Varies(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[GenerateOrderNumber()] = true
	}
	// Same-millisecond collisions are possible but 100 in a row all
	// colliding is not.
	assert.Greater(t, len(seen), 1)
}

func TestCanCancel(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{models.OrderStatusPending, true},
		{models.OrderStatusProcessing, true},
		{models.OrderStatusShipped, false},
		{models.OrderStatusDelivered, false},
		{models.OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, models.CanCancel(tt.status), "status %s", tt.status)
	}
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{"PENDING", "PROCESSING", "SHIPPED", "DELIVERED", "CANCELLED"} {
		assert.True(t, models.ValidOrderStatus(s), s)
	}
	for _, s := range []string{"", "pending", "REFUNDED", "UNKNOWN"} {
		assert.False(t, models.ValidOrderStatus(s), s)
	}
}

func TestValidPaymentStatus(t *testing.T) {
	for _, s := range []string{"PENDING", "PAID", "FAILED", "REFUNDED"} {
		assert.True(t, models.ValidPaymentStatus(s), s)
	}
	for _, s := range []string{"", "paid", "SHIPPED"} {
		assert.False(t, models.ValidPaymentStatus(s), s)
	}
}
