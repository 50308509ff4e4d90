package loankit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewServiceDefaults tests default configuration
func TestNewServiceDefaults(t *testing.T) {
	service := NewService(nil)

	cfg := service.Config()
	assert.Equal(t, DefaultLoanPeriod, cfg.LoanPeriod)
	assert.False(t, cfg.CheckoutBlockedWhileWaiting)
	assert.False(t, cfg.OrderFulfillmentOnCheckout)
}

// TestServiceOptions tests the option functions
func TestServiceOptions(t *testing.T) {
	service := NewService(nil,
		WithLoanPeriod(14*24*time.Hour),
		WithCheckoutBlockedWhileWaiting(true),
		WithOrderFulfillmentOnCheckout(true),
	)

	cfg := service.Config()
	assert.Equal(t, 14*24*time.Hour, cfg.LoanPeriod)
	assert.True(t, cfg.CheckoutBlockedWhileWaiting)
	assert.True(t, cfg.OrderFulfillmentOnCheckout)
}

// TestWithLoanPeriodIgnoresNonPositive tests that invalid periods keep the default
func TestWithLoanPeriodIgnoresNonPositive(t *testing.T) {
	service := NewService(nil, WithLoanPeriod(0))
	assert.Equal(t, DefaultLoanPeriod, service.Config().LoanPeriod)

	service = NewService(nil, WithLoanPeriod(-time.Hour))
	assert.Equal(t, DefaultLoanPeriod, service.Config().LoanPeriod)
}

// TestWithDBSharesState tests that derived services share config and monitor
func TestWithDBSharesState(t *testing.T) {
	service := NewService(nil, WithLoanPeriod(7*24*time.Hour))
	derived := service.withDB(nil)

	assert.Equal(t, service.Config(), derived.Config())
	assert.Same(t, service.txMonitor, derived.txMonitor)
}

// TestTransactionMetrics tests the monitor accumulation and reset
func TestTransactionMetrics(t *testing.T) {
	service := NewService(nil)

	metrics := service.GetTransactionMetrics()
	assert.Equal(t, int64(0), metrics.TotalTransactions)
	assert.Equal(t, time.Duration(0), metrics.MinDuration)

	service.txMonitor.record(10*time.Millisecond, true)
	service.txMonitor.record(30*time.Millisecond, true)
	service.txMonitor.record(20*time.Millisecond, false)

	metrics = service.GetTransactionMetrics()
	assert.Equal(t, int64(3), metrics.TotalTransactions)
	assert.Equal(t, int64(2), metrics.SuccessfulTransactions)
	assert.Equal(t, int64(1), metrics.FailedTransactions)
	assert.Equal(t, 20*time.Millisecond, metrics.AverageDuration)
	assert.Equal(t, 30*time.Millisecond, metrics.MaxDuration)
	assert.Equal(t, 10*time.Millisecond, metrics.MinDuration)

	previousReset := metrics.LastReset
	service.ResetTransactionMetrics()

	metrics = service.GetTransactionMetrics()
	assert.Equal(t, int64(0), metrics.TotalTransactions)
	assert.Equal(t, int64(0), metrics.SuccessfulTransactions)
	assert.Equal(t, time.Duration(0), metrics.MinDuration)
	assert.False(t, metrics.LastReset.Before(previousReset))
}
