package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeDeliversOnce(t *testing.T) {
	sim := NewSimulator(5*time.Millisecond, 5*time.Millisecond, nil)
	ch, err := sim.Charge("apt-1", MethodUPI, 1000)
	require.NoError(t, err)

	select {
	case res, ok := <-ch:
		require.True(t, ok)
		assert.Equal(t, "apt-1", res.AppointmentID)
		assert.Equal(t, MethodUPI, res.Method)
		assert.Regexp(t, `^INV-\d+-[0-9a-f]{8}$`, res.InvoiceID)
		assert.Equal(t, Quote{Base: 1000, GST: 180, Total: 1180}, res.Quote)
	case <-time.After(2 * time.Second):
		t.Fatal("payment never completed")
	}

	_, ok := <-ch
	assert.False(t, ok, "channel closes after the single result")
}

func TestChargeWithoutReaderDoesNotBlock(t *testing.T) {
	sim := NewSimulator(0, 0, nil)
	ch, err := sim.Charge("apt-2", MethodStripe, 10)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return len(ch) == 1 }, time.Second, time.Millisecond)
}

func TestChargeValidation(t *testing.T) {
	_, err := NewSimulator(0, 0, nil).Charge("apt", MethodUPI, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodRazorpay, m)
	m, err = ParseMethod("PayPal")
	require.NoError(t, err)
	assert.Equal(t, MethodPayPal, m)
	_, err = ParseMethod("cash")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
